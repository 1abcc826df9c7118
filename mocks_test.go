package agentrouter_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/RichardKnop/agentrouter"
)

type fakeRegistry struct {
	agents []agentrouter.Agent
}

func (r *fakeRegistry) ListAgents(ctx context.Context) ([]agentrouter.Agent, error) {
	return r.agents, nil
}

func (r *fakeRegistry) FindAgent(ctx context.Context, name string) (agentrouter.Agent, error) {
	for _, anAgent := range r.agents {
		if strings.EqualFold(anAgent.Name, name) {
			return anAgent, nil
		}
	}
	return agentrouter.Agent{}, agentrouter.ErrNotFound
}

// fakeEmbedder returns fixed vectors per text and counts calls.
type fakeEmbedder struct {
	vectors map[string]agentrouter.Vector
	calls   map[string]int
}

func newFakeEmbedder(vectors map[string]agentrouter.Vector) *fakeEmbedder {
	return &fakeEmbedder{vectors: vectors, calls: map[string]int{}}
}

func (e *fakeEmbedder) Name() string {
	return "fake"
}

func (e *fakeEmbedder) EmbedContent(ctx context.Context, content string) (agentrouter.Vector, error) {
	e.calls[content]++
	vector, ok := e.vectors[content]
	if !ok {
		return agentrouter.Vector{0, 0}, nil
	}
	return vector, nil
}

func (e *fakeEmbedder) EmbedChunks(ctx context.Context, chunks []agentrouter.Chunk) ([]agentrouter.Vector, error) {
	vectors := make([]agentrouter.Vector, 0, len(chunks))
	for _, aChunk := range chunks {
		vector, err := e.EmbedContent(ctx, aChunk.Text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Name() string {
	return "mock"
}

func (m *mockRetriever) SaveChunks(ctx context.Context, chunks []agentrouter.Chunk, vectors []agentrouter.Vector) error {
	args := m.Called(ctx, chunks, vectors)
	return args.Error(0)
}

func (m *mockRetriever) SearchChunks(ctx context.Context, vector agentrouter.Vector, limit int) ([]agentrouter.Chunk, error) {
	args := m.Called(ctx, vector, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]agentrouter.Chunk), args.Error(1)
}

func (m *mockRetriever) DeleteDocChunks(ctx context.Context, docID string) error {
	args := m.Called(ctx, docID)
	return args.Error(0)
}

type mockGenerative struct {
	mock.Mock
}

func (m *mockGenerative) Generate(ctx context.Context, prompt string) (string, error) {
	args := m.Called(ctx, prompt)
	return args.String(0), args.Error(1)
}

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, fileName string, contents io.ReadSeeker) ([]agentrouter.Block, error) {
	args := m.Called(ctx, fileName, contents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]agentrouter.Block), args.Error(1)
}

type mockDocStore struct {
	mock.Mock
}

func (m *mockDocStore) FindDoc(ctx context.Context, sourceURL string) (*agentrouter.DocRecord, error) {
	args := m.Called(ctx, sourceURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agentrouter.DocRecord), args.Error(1)
}

func (m *mockDocStore) UpsertDoc(ctx context.Context, record agentrouter.DocRecord) (*agentrouter.DocRecord, error) {
	args := m.Called(ctx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*agentrouter.DocRecord), args.Error(1)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordRoute(agent string, outcome agentrouter.RouteOutcome, elapsed time.Duration) {
	m.Called(agent, outcome, elapsed)
}

func (m *mockRecorder) RecordAgent(agent string, elapsed time.Duration, err error) {
	m.Called(agent, elapsed, err)
}

func (m *mockRecorder) RecordIngest(status agentrouter.IngestStatus, chunks int) {
	m.Called(status, chunks)
}

// fakeStore keeps exchanges in memory.
type fakeStore struct {
	exchanges []*agentrouter.Exchange
	filter    agentrouter.ExchangeFilter
	params    agentrouter.SortParams
	err       error
}

func (s *fakeStore) Transactional(ctx context.Context, opts *sql.TxOptions, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (s *fakeStore) SaveExchange(ctx context.Context, exchange *agentrouter.Exchange) error {
	if s.err != nil {
		return s.err
	}
	s.exchanges = append(s.exchanges, exchange)
	return nil
}

func (s *fakeStore) ListExchanges(ctx context.Context, filter agentrouter.ExchangeFilter, params agentrouter.SortParams) ([]*agentrouter.Exchange, error) {
	if s.err != nil {
		return nil, fmt.Errorf("list: %w", s.err)
	}
	s.filter = filter
	s.params = params
	var exchanges []*agentrouter.Exchange
	for _, e := range s.exchanges {
		if e.SessionID == filter.SessionID {
			exchanges = append(exchanges, e)
		}
	}
	return exchanges, nil
}
