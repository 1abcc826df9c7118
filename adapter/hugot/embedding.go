package hugot

import (
	"context"
	"fmt"

	"github.com/RichardKnop/agentrouter"
)

func (a *Adapter) EmbedChunks(ctx context.Context, chunks []agentrouter.Chunk) ([]agentrouter.Vector, error) {
	if a.embedding == nil {
		return nil, fmt.Errorf("no embedding model configured")
	}

	texts := make([]string, 0, len(chunks))
	for _, aChunk := range chunks {
		texts = append(texts, aChunk.Text)
	}

	embeddingResult, err := a.embedding.RunPipeline(texts)
	if err != nil {
		return nil, fmt.Errorf("running embedding pipeline: %w", err)
	}

	if len(embeddingResult.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("embedded batch size mismatch")
	}

	vectors := make([]agentrouter.Vector, 0, len(embeddingResult.Embeddings))
	for i := range embeddingResult.Embeddings {
		vectors = append(vectors, embeddingResult.Embeddings[i])
	}

	return vectors, nil
}

func (a *Adapter) EmbedContent(ctx context.Context, content string) (agentrouter.Vector, error) {
	if a.embedding == nil {
		return nil, fmt.Errorf("no embedding model configured")
	}

	embeddingResult, err := a.embedding.RunPipeline([]string{content})
	if err != nil {
		return nil, fmt.Errorf("running embedding pipeline: %w", err)
	}
	if len(embeddingResult.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding pipeline returned no embeddings")
	}

	return embeddingResult.Embeddings[0], nil
}
