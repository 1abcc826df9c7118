package redis

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"

	"github.com/RichardKnop/agentrouter"
)

const (
	fieldChunkID    = "chunk_id"
	fieldDocID      = "doc_id"
	fieldTitle      = "title"
	fieldSourceURL  = "source_url"
	fieldChunkType  = "chunk_type"
	fieldText       = "text"
	fieldPage       = "page"
	fieldHeaderPath = "header_path"
	fieldTable      = "table"
	fieldEmbedding  = "embedding"
	fieldDistance   = "vector_distance"

	deleteBatchSize = 500
	listLimit       = 1000
)

var chunkNamespace = uuid.NewV5(uuid.NamespaceURL, "agentrouter/chunk")

var chunkReturnFields = []redis.FTSearchReturn{
	{FieldName: fieldChunkID},
	{FieldName: fieldDocID},
	{FieldName: fieldTitle},
	{FieldName: fieldSourceURL},
	{FieldName: fieldChunkType},
	{FieldName: fieldText},
	{FieldName: fieldPage},
	{FieldName: fieldHeaderPath},
	{FieldName: fieldTable},
}

// chunkKey is stable for a chunk so re-saving the same document overwrites its hashes.
func (a *Adapter) chunkKey(aChunk agentrouter.Chunk) string {
	return a.indexPrefix + uuid.NewV5(chunkNamespace, aChunk.Key()).String()
}

func (a *Adapter) SaveChunks(ctx context.Context, chunks []agentrouter.Chunk, vectors []agentrouter.Vector) error {
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunks and vectors must have the same length")
	}

	_, err := a.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, aChunk := range chunks {
			if len(vectors[i]) != a.vectorDim {
				return fmt.Errorf("chunk %s: vector has %d dimensions, index expects %d", aChunk.Key(), len(vectors[i]), a.vectorDim)
			}

			fields := map[string]any{
				fieldChunkID:    aChunk.ID,
				fieldDocID:      aChunk.DocID,
				fieldTitle:      aChunk.Title,
				fieldSourceURL:  aChunk.SourceURL,
				fieldChunkType:  string(aChunk.Type),
				fieldText:       aChunk.Text,
				fieldPage:       aChunk.Page,
				fieldHeaderPath: aChunk.HeaderPath,
				fieldEmbedding:  floatsToBytes(vectors[i]),
			}
			if aChunk.Table != nil {
				data, err := json.Marshal(aChunk.Table)
				if err != nil {
					return fmt.Errorf("marshal table: %w", err)
				}
				fields[fieldTable] = string(data)
			}

			pipe.HSet(ctx, a.chunkKey(aChunk), fields)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("save chunks: %w", err)
	}

	a.logger.Sugar().With("chunks", len(chunks)).Debug("saved chunks")

	return nil
}

// SearchChunks returns up to limit chunks ordered by vector distance, nearest first.
func (a *Adapter) SearchChunks(ctx context.Context, vector agentrouter.Vector, limit int) ([]agentrouter.Chunk, error) {
	if vector == nil {
		return nil, fmt.Errorf("vector is required for searching chunks")
	}

	query := fmt.Sprintf("*=>[KNN %d @%s $vec AS %s]", limit, fieldEmbedding, fieldDistance)

	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		query,
		&redis.FTSearchOptions{
			Return:         append([]redis.FTSearchReturn{{FieldName: fieldDistance}}, chunkReturnFields...),
			DialectVersion: a.dialectVersion,
			Params: map[string]any{
				"vec": floatsToBytes(vector),
			},
			SortBy: []redis.FTSearchSortBy{{FieldName: fieldDistance, Asc: true}},
			Limit:  limit,
		},
	).Result()
	if err != nil {
		return nil, err
	}

	for _, doc := range results.Docs {
		a.logger.Sugar().With(
			"key", doc.ID,
			"distance", doc.Fields[fieldDistance],
			"doc id", doc.Fields[fieldDocID],
		).Debug("search hit")
	}

	return mapRedisChunks(results.Docs)
}

func (a *Adapter) ListDocChunks(ctx context.Context, docID string) ([]agentrouter.Chunk, error) {
	results, err := a.client.FTSearchWithArgs(ctx,
		a.indexName,
		docIDQuery(docID),
		&redis.FTSearchOptions{
			Return:         chunkReturnFields,
			DialectVersion: a.dialectVersion,
			Limit:          listLimit,
		},
	).Result()
	if err != nil {
		return nil, err
	}

	chunks, err := mapRedisChunks(results.Docs)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(chunks, func(a, b agentrouter.Chunk) int {
		return strings.Compare(a.ID, b.ID)
	})

	return chunks, nil
}

func (a *Adapter) DeleteDocChunks(ctx context.Context, docID string) error {
	var deleted int
	for {
		results, err := a.client.FTSearchWithArgs(ctx,
			a.indexName,
			docIDQuery(docID),
			&redis.FTSearchOptions{
				NoContent:      true,
				DialectVersion: a.dialectVersion,
				Limit:          deleteBatchSize,
			},
		).Result()
		if err != nil {
			return fmt.Errorf("search chunks of %s: %w", docID, err)
		}
		if len(results.Docs) == 0 {
			break
		}

		keys := make([]string, 0, len(results.Docs))
		for _, doc := range results.Docs {
			keys = append(keys, doc.ID)
		}
		if err := a.client.Del(ctx, keys...).Err(); err != nil {
			return fmt.Errorf("delete chunks of %s: %w", docID, err)
		}
		deleted += len(keys)
	}

	a.logger.Sugar().With("doc id", docID, "chunks", deleted).Debug("deleted document chunks")

	return nil
}

func docIDQuery(docID string) string {
	return fmt.Sprintf("@%s:{%s}", fieldDocID, escapeTag(docID))
}

var tagEscaper = strings.NewReplacer(
	"-", "\\-", ".", "\\.", ":", "\\:", "/", "\\/", " ", "\\ ", "#", "\\#", "@", "\\@",
)

func escapeTag(value string) string {
	return tagEscaper.Replace(value)
}

func mapRedisChunks(rds []redis.Document) ([]agentrouter.Chunk, error) {
	chunks := make([]agentrouter.Chunk, 0, len(rds))

	for _, rd := range rds {
		aChunk, err := mapRedisChunk(rd)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, aChunk)
	}

	return chunks, nil
}

func mapRedisChunk(rd redis.Document) (agentrouter.Chunk, error) {
	if _, ok := rd.Fields[fieldText]; !ok {
		return agentrouter.Chunk{}, fmt.Errorf("missing text field in chunk %s", rd.ID)
	}

	page, err := strconv.Atoi(rd.Fields[fieldPage])
	if err != nil {
		return agentrouter.Chunk{}, fmt.Errorf("invalid page number: %w", err)
	}

	aChunk := agentrouter.Chunk{
		ID:         rd.Fields[fieldChunkID],
		DocID:      rd.Fields[fieldDocID],
		Title:      rd.Fields[fieldTitle],
		SourceURL:  rd.Fields[fieldSourceURL],
		Type:       agentrouter.BlockType(rd.Fields[fieldChunkType]),
		Text:       rd.Fields[fieldText],
		Page:       page,
		HeaderPath: rd.Fields[fieldHeaderPath],
	}

	if raw := rd.Fields[fieldTable]; raw != "" {
		aTable := new(agentrouter.Table)
		if err := json.Unmarshal([]byte(raw), aTable); err != nil {
			return agentrouter.Chunk{}, fmt.Errorf("invalid table: %w", err)
		}
		aChunk.Table = aTable
	}

	if raw, ok := rd.Fields[fieldDistance]; ok {
		distance, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return agentrouter.Chunk{}, fmt.Errorf("invalid vector distance: %w", err)
		}
		aChunk.Distance = distance
	}

	return aChunk, nil
}

func floatsToBytes(fs []float32) []byte {
	buf := make([]byte, len(fs)*4)

	for i, f := range fs {
		u := math.Float32bits(f)
		binary.NativeEndian.PutUint32(buf[i*4:], u)
	}

	return buf
}
