package googlegenai

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/RichardKnop/agentrouter"
)

func (a *Adapter) EmbedChunks(ctx context.Context, chunks []agentrouter.Chunk) ([]agentrouter.Vector, error) {
	vectors := make([]agentrouter.Vector, 0, len(chunks))

	// Use the batch embedding API, one request per batch of chunks.
	for start := 0; start < len(chunks); start += a.batchSize {
		batch := chunks[start:min(start+a.batchSize, len(chunks))]

		contents := make([]*genai.Content, 0, len(batch))
		for _, aChunk := range batch {
			contents = append(contents, genai.NewContentFromText(aChunk.Text, genai.RoleUser))
		}

		a.logger.Sugar().Infof("invoking embedding model with %d chunks", len(batch))
		embedResponse, err := a.client.Models.EmbedContent(ctx,
			a.embeddingModel,
			contents,
			nil,
		)
		if err != nil {
			return nil, fmt.Errorf("embed content error: %w", err)
		}

		if len(embedResponse.Embeddings) != len(batch) {
			return nil, fmt.Errorf("embedded batch size mismatch: got %d, expected %d", len(embedResponse.Embeddings), len(batch))
		}

		for i := range embedResponse.Embeddings {
			vectors = append(vectors, embedResponse.Embeddings[i].Values)
		}
	}

	return vectors, nil
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (agentrouter.Vector, error) {
	embedResponse, err := a.client.Models.EmbedContent(ctx,
		a.embeddingModel,
		[]*genai.Content{genai.NewContentFromText(content, genai.RoleUser)},
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("embed content error: %w", err)
	}
	if len(embedResponse.Embeddings) == 0 {
		return nil, fmt.Errorf("embed content returned no embeddings")
	}
	return embedResponse.Embeddings[0].Values, nil
}
