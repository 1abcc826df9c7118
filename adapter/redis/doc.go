package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/RichardKnop/agentrouter"
)

type docRecord struct {
	DocID      string `redis:"doc_id"`
	Title      string `redis:"title"`
	SourceURL  string `redis:"source_url"`
	SourceType string `redis:"source_type"`
	Version    string `redis:"version"`
	SHA256     string `redis:"sha256"`
	Pages      int    `redis:"pages"`
	TableCount int    `redis:"table_count"`
	Created    string `redis:"created_at"`
}

func (a *Adapter) docKey(sourceURL string) string {
	return a.docPrefix + sourceURL
}

// UpsertDoc stores the record under its source URL. The previous record is returned so its
// chunks can be removed; a record with the same content hash is left alone and ErrUnchanged
// is returned.
func (a *Adapter) UpsertDoc(ctx context.Context, record agentrouter.DocRecord) (*agentrouter.DocRecord, error) {
	if record.SourceURL == "" {
		return nil, fmt.Errorf("source url is required")
	}

	var (
		key      = a.docKey(record.SourceURL)
		previous *agentrouter.DocRecord
	)
	err := a.client.Watch(ctx, func(tx *redis.Tx) error {
		previous = nil

		existing, err := getDocRecord(ctx, tx, key)
		if err != nil {
			return err
		}
		if existing != nil && existing.SHA256 == record.SHA256 {
			return agentrouter.ErrUnchanged
		}
		previous = existing

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.HSet(ctx, key, toDocRecord(record))
			return nil
		})
		return err
	}, key)
	if err != nil {
		if errors.Is(err, agentrouter.ErrUnchanged) {
			return nil, err
		}
		return nil, fmt.Errorf("upsert doc record %s: %w", record.SourceURL, err)
	}

	a.logger.Sugar().With("doc id", record.DocID, "source", record.SourceURL).Debug("saved doc record")

	return previous, nil
}

func (a *Adapter) FindDoc(ctx context.Context, sourceURL string) (*agentrouter.DocRecord, error) {
	record, err := getDocRecord(ctx, a.client, a.docKey(sourceURL))
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, agentrouter.ErrNotFound
	}
	return record, nil
}

func getDocRecord(ctx context.Context, client redis.Cmdable, key string) (*agentrouter.DocRecord, error) {
	cmd := client.HGetAll(ctx, key)
	values, err := cmd.Result()
	if err != nil {
		return nil, fmt.Errorf("read doc record: %w", err)
	}
	if len(values) == 0 {
		return nil, nil
	}

	var stored docRecord
	if err := cmd.Scan(&stored); err != nil {
		return nil, fmt.Errorf("scan doc record: %w", err)
	}

	return fromDocRecord(stored)
}

func toDocRecord(record agentrouter.DocRecord) docRecord {
	return docRecord{
		DocID:      record.DocID,
		Title:      record.Title,
		SourceURL:  record.SourceURL,
		SourceType: record.SourceType,
		Version:    record.Version,
		SHA256:     record.SHA256,
		Pages:      record.Pages,
		TableCount: record.TableCount,
		Created:    record.Created.UTC().Format(time.RFC3339Nano),
	}
}

func fromDocRecord(stored docRecord) (*agentrouter.DocRecord, error) {
	record := &agentrouter.DocRecord{
		DocID:      stored.DocID,
		Title:      stored.Title,
		SourceURL:  stored.SourceURL,
		SourceType: stored.SourceType,
		Version:    stored.Version,
		SHA256:     stored.SHA256,
		Pages:      stored.Pages,
		TableCount: stored.TableCount,
	}
	if stored.Created != "" {
		created, err := time.Parse(time.RFC3339Nano, stored.Created)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at: %w", err)
		}
		record.Created = created
	}
	return record, nil
}
