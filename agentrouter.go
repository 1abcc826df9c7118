// Package agentrouter routes chat messages to agents described by manifests and returns
// their answers as response envelopes.
package agentrouter

import (
	"errors"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrNoCandidates      = errors.New("no candidate agents")
	ErrUnknownEntrypoint = errors.New("unknown entrypoint")
	ErrUnchanged         = errors.New("document unchanged")
)

type clock func() time.Time

const (
	defaultDescriptorCacheSize = 256
	defaultChunkSize           = 700
	defaultChunkOverlap        = 75
)

type agentRouter struct {
	registry    Registry
	embedder    Embedder
	retriever   Retriever
	generative  GenerativeModel
	store       Store
	extractor   Extractor
	docs        DocStore
	recorder    Recorder
	handlers    map[string]Handler
	templates   *Templates
	logger      *zap.Logger
	now         clock
	cacheSize   int
	descriptors *lru.Cache[string, Vector]
	chunkSize   int
	overlap     int
}

type Option func(*agentRouter)

// WithHandler registers a handler for a manifest entrypoint, replacing any existing one.
func WithHandler(entrypoint string, handler Handler) Option {
	return func(ar *agentRouter) {
		ar.handlers[entrypoint] = handler
	}
}

func WithExtractor(extractor Extractor) Option {
	return func(ar *agentRouter) {
		ar.extractor = extractor
	}
}

func WithDocStore(docs DocStore) Option {
	return func(ar *agentRouter) {
		ar.docs = docs
	}
}

func WithRecorder(recorder Recorder) Option {
	return func(ar *agentRouter) {
		ar.recorder = recorder
	}
}

func WithTemplates(templates *Templates) Option {
	return func(ar *agentRouter) {
		ar.templates = templates
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(ar *agentRouter) {
		ar.logger = logger
	}
}

func WithDescriptorCacheSize(size int) Option {
	return func(ar *agentRouter) {
		ar.cacheSize = size
	}
}

func WithChunking(size, overlap int) Option {
	return func(ar *agentRouter) {
		ar.chunkSize = size
		ar.overlap = overlap
	}
}

func New(registry Registry, embedder Embedder, retriever Retriever, gm GenerativeModel, storeAdapter Store, options ...Option) (*agentRouter, error) {
	ar := &agentRouter{
		registry:   registry,
		embedder:   embedder,
		retriever:  retriever,
		generative: gm,
		store:      storeAdapter,
		recorder:   nopRecorder{},
		handlers:   map[string]Handler{},
		templates:  DefaultTemplates(),
		logger:     zap.NewNop(),
		now:        func() time.Time { return time.Now().UTC() },
		cacheSize:  defaultDescriptorCacheSize,
		chunkSize:  defaultChunkSize,
		overlap:    defaultChunkOverlap,
	}

	ar.handlers[DefaultAgentName] = &RAGAgent{router: ar, mode: ragModePlain}
	ar.handlers[StepsAgentName] = &RAGAgent{router: ar, mode: ragModeSteps}
	ar.handlers[NameCheckerAgentName] = &NameChecker{router: ar, maxLen: DefaultNameMaxLen}

	for _, o := range options {
		o(ar)
	}

	if ar.overlap < 0 || ar.overlap >= ar.chunkSize {
		return nil, fmt.Errorf("chunk overlap %d must be between 0 and chunk size %d", ar.overlap, ar.chunkSize)
	}

	descriptors, err := lru.New[string, Vector](ar.cacheSize)
	if err != nil {
		return nil, fmt.Errorf("descriptor cache: %w", err)
	}
	ar.descriptors = descriptors

	return ar, nil
}
