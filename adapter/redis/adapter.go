package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Adapter keeps chunk vectors in a RediSearch HNSW index and document records in plain hashes.
type Adapter struct {
	client               *redis.Client
	indexName            string
	indexPrefix          string
	docPrefix            string
	dialectVersion       int
	vectorDim            int
	vectorDistanceMetric string
	logger               *zap.Logger
}

type Option func(*Adapter)

const (
	defaultIndexName            = "chunk-idx"
	defaultIndexPrefix          = "chunk:"
	defaultDocPrefix            = "docrec:"
	defaultDialectVersion       = 2
	defaultVectorDim            = 768
	defaultVectorDistanceMetric = "COSINE"
)

func New(ctx context.Context, client *redis.Client, options ...Option) (*Adapter, error) {
	a := newAdapter(client, options...)

	a.logger.Sugar().With(
		"index name", a.indexName,
		"prefix", a.indexPrefix,
		"doc prefix", a.docPrefix,
		"dialect version", a.dialectVersion,
		"vector dim", a.vectorDim,
		"vector distance metric", a.vectorDistanceMetric,
	).Info("init redis adapter")

	return a, a.init(ctx)
}

func newAdapter(client *redis.Client, options ...Option) *Adapter {
	a := &Adapter{
		client:               client,
		indexName:            defaultIndexName,
		indexPrefix:          defaultIndexPrefix,
		docPrefix:            defaultDocPrefix,
		dialectVersion:       defaultDialectVersion,
		vectorDim:            defaultVectorDim,
		vectorDistanceMetric: defaultVectorDistanceMetric,
		logger:               zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	// Embedders differ in dimension (text-embedding-004 is 768, all-MiniLM-L6-v2 is 384),
	// so each dimension gets its own index.
	a.indexName = fmt.Sprintf("%s_dim%d", a.indexName, a.vectorDim)

	return a
}

func WithIndexName(indexName string) Option {
	return func(a *Adapter) {
		a.indexName = indexName
	}
}

func WithIndexPrefix(prefix string) Option {
	return func(a *Adapter) {
		a.indexPrefix = prefix
	}
}

func WithDocPrefix(prefix string) Option {
	return func(a *Adapter) {
		a.docPrefix = prefix
	}
}

func WithDialectVersion(version int) Option {
	return func(a *Adapter) {
		a.dialectVersion = version
	}
}

func WithVectorDim(dim int) Option {
	return func(a *Adapter) {
		a.vectorDim = dim
	}
}

func WithVectorDistanceMetric(metric string) Option {
	return func(a *Adapter) {
		a.vectorDistanceMetric = metric
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

const adapterName = "redis"

func (a *Adapter) Name() string {
	return adapterName
}

func (a *Adapter) init(ctx context.Context) error {
	indexes, err := a.client.FT_List(ctx).Result()
	if err != nil {
		return err
	}
	for _, existingIndex := range indexes {
		if existingIndex == a.indexName {
			a.logger.Sugar().With("index name", a.indexName).Info("redis index already exists")
			return nil
		}
	}
	return a.createIndex(ctx)
}

// DropIndex removes the chunk index together with every indexed chunk.
func (a *Adapter) DropIndex(ctx context.Context) error {
	_, err := a.client.FTDropIndexWithArgs(ctx,
		a.indexName,
		&redis.FTDropIndexOptions{
			DeleteDocs: true,
		},
	).Result()
	if err != nil {
		return err
	}
	a.logger.Sugar().With("index name", a.indexName).Info("dropped redis index")
	return nil
}

func (a *Adapter) createIndex(ctx context.Context) error {
	_, err := a.client.FTCreate(ctx,
		a.indexName,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []any{a.indexPrefix},
		},
		&redis.FieldSchema{
			FieldName: fieldText,
			FieldType: redis.SearchFieldTypeText,
		},
		&redis.FieldSchema{
			FieldName: fieldHeaderPath,
			FieldType: redis.SearchFieldTypeText,
		},
		&redis.FieldSchema{
			FieldName: fieldDocID,
			FieldType: redis.SearchFieldTypeTag,
		},
		&redis.FieldSchema{
			FieldName: fieldChunkType,
			FieldType: redis.SearchFieldTypeTag,
		},
		&redis.FieldSchema{
			FieldName: fieldPage,
			FieldType: redis.SearchFieldTypeNumeric,
		},
		&redis.FieldSchema{
			FieldName: fieldEmbedding,
			FieldType: redis.SearchFieldTypeVector,
			VectorArgs: &redis.FTVectorArgs{
				HNSWOptions: &redis.FTHNSWOptions{
					Dim:            a.vectorDim,
					DistanceMetric: a.vectorDistanceMetric, // "COSINE", "IP", "L2"
					Type:           "FLOAT32",
				},
			},
		},
	).Result()
	if err != nil {
		return fmt.Errorf("error creating redis index: %w", err)
	}
	a.logger.Sugar().With("index name", a.indexName).Info("created redis index")
	return nil
}
