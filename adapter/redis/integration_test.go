package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/RichardKnop/agentrouter"
)

func TestRedisTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping redis integration suite in short mode")
	}
	suite.Run(t, new(RedisTestSuite))
}

type RedisTestSuite struct {
	suite.Suite
	container *dockertest.Resource
	client    *redis.Client
	adapter   *Adapter
}

func (s *RedisTestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	r, err := startRedisContainer(ctx)
	if err != nil {
		s.T().Skipf("could not start redis container: %s", err)
	}
	s.container = r

	s.client = redis.NewClient(&redis.Options{
		Addr:     os.Getenv("REDIS_ADDR"),
		DB:       0,
		Protocol: 2,
	})
}

func (s *RedisTestSuite) TearDownSuite() {
	if s.container == nil {
		return
	}
	err := s.container.Close()
	s.Require().NoError(err)
}

func (s *RedisTestSuite) SetupTest() {
	ctx, cancel := testContext()
	defer cancel()

	err := s.client.FlushDB(ctx).Err()
	s.Require().NoError(err)

	s.adapter, err = New(
		ctx,
		s.client,
		WithIndexName("test-idx"),
		WithIndexPrefix("chunk:"),
		WithDialectVersion(2),
		WithVectorDim(8),
		WithVectorDistanceMetric("L2"),
	)
	s.Require().NoError(err)
}

func (s *RedisTestSuite) TestSearchChunks() {
	ctx, cancel := testContext()
	defer cancel()

	var (
		chunks = []agentrouter.Chunk{
			{ID: "00000", DocID: "doc1", Title: "handbook", Type: agentrouter.BlockTypeParagraph, Text: "Submit the form.", Page: 1, HeaderPath: "Intro"},
			{ID: "00001", DocID: "doc1", Title: "handbook", Type: agentrouter.BlockTypeParagraph, Text: "Sign the declaration.", Page: 2, HeaderPath: "Intro > Steps"},
			{
				ID: "00000", DocID: "doc2", Title: "fees", Type: agentrouter.BlockTypeTable, Text: "Fee | Amount", Page: 3,
				Table: &agentrouter.Table{Title: "Fees", Columns: []string{"Fee", "Amount"}, Rows: [][]string{{"Filing", "10"}}},
			},
		}
		vectors = []agentrouter.Vector{
			constVector(s.adapter.vectorDim, 50),
			constVector(s.adapter.vectorDim, 1),
			constVector(s.adapter.vectorDim, 10),
		}
		searchVector = constVector(s.adapter.vectorDim, 0.5)
	)

	err := s.adapter.SaveChunks(ctx, chunks, vectors)
	s.Require().NoError(err)

	results, err := s.adapter.SearchChunks(ctx, searchVector, 25)
	s.Require().NoError(err)
	s.Require().Len(results, 3)
	s.Equal(chunks[1].Text, results[0].Text)
	s.Equal(chunks[1].HeaderPath, results[0].HeaderPath)
	s.Equal(chunks[2].Text, results[1].Text)
	s.Equal(chunks[2].Table, results[1].Table)
	s.Equal(chunks[0].Text, results[2].Text)
	s.LessOrEqual(results[0].Distance, results[1].Distance)
}

func (s *RedisTestSuite) TestDeleteDocChunks() {
	ctx, cancel := testContext()
	defer cancel()

	chunks := []agentrouter.Chunk{
		{ID: "00000", DocID: "doc1", Type: agentrouter.BlockTypeParagraph, Text: "first", Page: 1},
		{ID: "00001", DocID: "doc1", Type: agentrouter.BlockTypeParagraph, Text: "second", Page: 1},
		{ID: "00000", DocID: "doc2", Type: agentrouter.BlockTypeParagraph, Text: "other", Page: 1},
	}
	vectors := []agentrouter.Vector{
		constVector(s.adapter.vectorDim, 1),
		constVector(s.adapter.vectorDim, 1),
		constVector(s.adapter.vectorDim, 1),
	}

	err := s.adapter.SaveChunks(ctx, chunks, vectors)
	s.Require().NoError(err)

	results, err := s.adapter.ListDocChunks(ctx, "doc1")
	s.Require().NoError(err)
	s.Require().Len(results, 2)
	s.Equal("first", results[0].Text)

	err = s.adapter.DeleteDocChunks(ctx, "doc1")
	s.Require().NoError(err)

	results, err = s.adapter.ListDocChunks(ctx, "doc1")
	s.Require().NoError(err)
	s.Empty(results)

	results, err = s.adapter.ListDocChunks(ctx, "doc2")
	s.Require().NoError(err)
	s.Len(results, 1)
}

func (s *RedisTestSuite) TestSaveChunks_WrongDimension() {
	ctx, cancel := testContext()
	defer cancel()

	err := s.adapter.SaveChunks(ctx,
		[]agentrouter.Chunk{{ID: "00000", DocID: "doc1", Text: "x"}},
		[]agentrouter.Vector{{1, 2}},
	)
	s.Error(err)
}

func constVector(dim int, value float32) agentrouter.Vector {
	vec := make([]float32, dim)
	for i := range vec {
		vec[i] = value
	}
	return vec
}

func testContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 3*time.Second)
}

func startRedisContainer(ctx context.Context) (*dockertest.Resource, error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, fmt.Errorf("could not construct pool: %w", err)
	}

	err = pool.Client.Ping()
	if err != nil {
		return nil, fmt.Errorf("could not connect to Docker: %w", err)
	}

	r, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "redis/redis-stack-server",
		Tag:        "7.2.0-v18",
		Env:        []string{},
	}, func(config *docker.HostConfig) {
		// stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{
			Name: "no",
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not start resource: %w", err)
	}

	r.Expire(60)

	addr := fmt.Sprintf("localhost:%s", r.GetPort("6379/tcp"))
	os.Setenv("REDIS_ADDR", addr)

	if err := pool.Retry(func() error {
		result, err := redis.NewClient(&redis.Options{
			Addr:     addr,
			DB:       0,
			Protocol: 2,
		}).Ping(ctx).Result()
		if err != nil {
			return err
		}
		if result != "PONG" {
			return fmt.Errorf("unexpected redis ping response: %s", result)
		}

		return nil
	}); err != nil {
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	return r, nil
}
