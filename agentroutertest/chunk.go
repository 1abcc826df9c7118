package agentroutertest

import (
	"fmt"

	"github.com/RichardKnop/agentrouter"
)

type ChunkOption func(*agentrouter.Chunk)

func WithChunkDocID(docID string) ChunkOption {
	return func(c *agentrouter.Chunk) {
		c.DocID = docID
	}
}

func WithChunkText(text string) ChunkOption {
	return func(c *agentrouter.Chunk) {
		c.Text = text
	}
}

func WithChunkTable(table agentrouter.Table) ChunkOption {
	return func(c *agentrouter.Chunk) {
		c.Type = agentrouter.BlockTypeTable
		c.Table = &table
		c.Text = table.Text()
	}
}

func (g *DataGen) Chunk(options ...ChunkOption) agentrouter.Chunk {
	docID := g.HexUint64()[2:]

	aChunk := agentrouter.Chunk{
		ID:         fmt.Sprintf("%05d", g.IntRange(0, 999)),
		DocID:      docID,
		Title:      g.BookTitle(),
		SourceURL:  "file:///docs/" + g.Word() + ".pdf",
		Type:       agentrouter.BlockTypeParagraph,
		Text:       g.Paragraph(1, 3, 12, " "),
		Page:       g.IntRange(1, 40),
		HeaderPath: g.Word() + " > " + g.Word(),
	}

	for _, o := range options {
		o(&aChunk)
	}

	return aChunk
}
