package agentrouter

import (
	"context"
	"database/sql"
	"io"
	"time"

	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

// Registry lists the agents available for routing.
type Registry interface {
	ListAgents(ctx context.Context) ([]Agent, error)
	FindAgent(ctx context.Context, name string) (Agent, error)
}

// Extractor extracts layout blocks from document contents.
type Extractor interface {
	Extract(ctx context.Context, fileName string, contents io.ReadSeeker) ([]Block, error)
}

// Embedder encodes chunks and queries as vectors
type Embedder interface {
	Name() string
	EmbedChunks(ctx context.Context, chunks []Chunk) ([]Vector, error)
	EmbedContent(ctx context.Context, content string) (Vector, error)
}

// Retriever stores chunk vectors and returns the chunks nearest to a query vector.
type Retriever interface {
	Name() string
	SaveChunks(ctx context.Context, chunks []Chunk, vectors []Vector) error
	SearchChunks(ctx context.Context, vector Vector, limit int) ([]Chunk, error)
	DeleteDocChunks(ctx context.Context, docID string) error
}

// DocStore keeps one record per ingested source URL. FindDoc returns ErrNotFound for unknown
// sources. UpsertDoc returns the record it replaced, if any, or ErrUnchanged when the stored
// record has the same content hash.
type DocStore interface {
	FindDoc(ctx context.Context, sourceURL string) (*DocRecord, error)
	UpsertDoc(ctx context.Context, record DocRecord) (*DocRecord, error)
}

// GenerativeModel completes a prompt.
type GenerativeModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Store interface {
	Transactional
	ExchangeStore
}

type Transactional interface {
	Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error
}

type ExchangeStore interface {
	SaveExchange(ctx context.Context, exchange *Exchange) error
	ListExchanges(ctx context.Context, filter ExchangeFilter, params SortParams) ([]*Exchange, error)
}

// Recorder receives routing, agent and ingest measurements.
type Recorder interface {
	RecordRoute(agent string, outcome RouteOutcome, elapsed time.Duration)
	RecordAgent(agent string, elapsed time.Duration, err error)
	RecordIngest(status IngestStatus, chunks int)
}

// Handler answers one message on behalf of an agent.
type Handler interface {
	Handle(ctx context.Context, in AgentInput) (*envelope.Envelope, error)
}

type HandlerFunc func(ctx context.Context, in AgentInput) (*envelope.Envelope, error)

func (f HandlerFunc) Handle(ctx context.Context, in AgentInput) (*envelope.Envelope, error) {
	return f(ctx, in)
}

type nopRecorder struct{}

func (nopRecorder) RecordRoute(string, RouteOutcome, time.Duration) {}
func (nopRecorder) RecordAgent(string, time.Duration, error)        {}
func (nopRecorder) RecordIngest(IngestStatus, int)                  {}
