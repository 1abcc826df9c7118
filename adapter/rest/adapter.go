package rest

import (
	"context"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

type AgentRouter interface {
	ListAgents(ctx context.Context) ([]agentrouter.Agent, error)
	ScoreAgents(ctx context.Context, query, ioMode string, top int) ([]agentrouter.Candidate, error)
	Act(ctx context.Context, req agentrouter.ActRequest) (*envelope.Envelope, error)
	ListExchanges(ctx context.Context, sessionID string, limit int) ([]*agentrouter.Exchange, error)
	Ingest(ctx context.Context, sourcePath string, contents io.ReadSeeker, modTime time.Time) (agentrouter.IngestResult, error)
}

// UploadStore keeps a copy of uploaded documents.
type UploadStore interface {
	Exists(filename string) (bool, error)
	Write(filename string, data io.Reader) error
	Delete(filename string) error
}

type Adapter struct {
	agentRouter    AgentRouter
	uploads        UploadStore
	metrics        http.Handler
	actTimeout     time.Duration
	wsPongWait     time.Duration
	defaultTimeout time.Duration
	uploadTimeout  time.Duration
	maxUploadSize  int64
	now            func() time.Time
	logger         *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// WithMetricsHandler serves the handler, typically a Prometheus exposition handler, at /metrics.
func WithMetricsHandler(handler http.Handler) Option {
	return func(a *Adapter) {
		a.metrics = handler
	}
}

func WithUploadStore(uploads UploadStore) Option {
	return func(a *Adapter) {
		a.uploads = uploads
	}
}

func WithActTimeout(timeout time.Duration) Option {
	return func(a *Adapter) {
		a.actTimeout = timeout
	}
}

// WithWebsocketPongWait sets how long an idle chat websocket waits for a pong before it
// is closed. Pings are sent at nine tenths of the wait.
func WithWebsocketPongWait(wait time.Duration) Option {
	return func(a *Adapter) {
		a.wsPongWait = wait
	}
}

func WithMaxUploadSize(size int64) Option {
	return func(a *Adapter) {
		a.maxUploadSize = size
	}
}

const (
	defaultTimeout       = 3 * time.Second
	defaultActTimeout    = 60 * time.Second
	defaultWSPongWait    = 60 * time.Second
	defaultUploadTimeout = 300 * time.Second
	defaultMaxUploadSize = 50 << 20
)

func New(agentRouter AgentRouter, options ...Option) *Adapter {
	a := &Adapter{
		agentRouter:    agentRouter,
		actTimeout:     defaultActTimeout,
		wsPongWait:     defaultWSPongWait,
		defaultTimeout: defaultTimeout,
		uploadTimeout:  defaultUploadTimeout,
		maxUploadSize:  defaultMaxUploadSize,
		now:            time.Now,
		logger:         zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

// Handler returns the HTTP API routes.
func (a *Adapter) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", a.Healthz)
	mux.HandleFunc("GET /v1/agents", a.ListAgents)
	mux.HandleFunc("GET /v1/route", a.ScoreRoute)
	mux.HandleFunc("POST /v1/act", a.Act)
	mux.HandleFunc("GET /v1/act/ws", a.ActWS)
	mux.HandleFunc("GET /v1/sessions/{id}/exchanges", a.ListExchanges)
	mux.HandleFunc("POST /v1/documents", a.UploadDocument)
	if a.metrics != nil {
		mux.Handle("GET /metrics", a.metrics)
	}

	return mux
}

// Health check
// (GET /healthz)
func (a *Adapter) Healthz(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, map[string]string{"status": "ok"})
}
