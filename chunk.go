package agentrouter

import (
	"fmt"
	"strings"
)

type Vector []float32

type BlockType string

const (
	BlockTypeParagraph BlockType = "paragraph"
	BlockTypeTable     BlockType = "table"
)

// Table is a table extracted from a document.
type Table struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Text renders the table as pipe separated lines so it can be embedded and quoted in prompts.
func (t Table) Text() string {
	var b strings.Builder
	if t.Title != "" {
		b.WriteString(t.Title)
		b.WriteString("\n")
	}
	if len(t.Columns) > 0 {
		b.WriteString(strings.Join(t.Columns, " | "))
		b.WriteString("\n")
	}
	for _, row := range t.Rows {
		b.WriteString(strings.Join(row, " | "))
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}

// Block is a layout element of an extracted document.
type Block struct {
	Type       BlockType
	Text       string
	Page       int
	BBox       [4]float64
	HeaderPath string
	Table      *Table
}

// Chunk is an indexed passage of a document.
type Chunk struct {
	ID         string    `json:"id"`
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	SourceURL  string    `json:"source_url"`
	Type       BlockType `json:"chunk_type"`
	Text       string    `json:"text"`
	Page       int       `json:"page"`
	HeaderPath string    `json:"header_path"`
	Table      *Table    `json:"table,omitempty"`
	Distance   float64   `json:"-"`
}

// Key identifies the chunk across documents.
func (c Chunk) Key() string {
	return fmt.Sprintf("%s#%s", c.DocID, c.ID)
}

const dedupPrefixLen = 200

// DedupChunks drops chunks sharing document, header path and text prefix, keeping the first.
func DedupChunks(chunks []Chunk) []Chunk {
	var (
		seen = make(map[string]struct{}, len(chunks))
		out  = make([]Chunk, 0, len(chunks))
	)
	for _, aChunk := range chunks {
		text := []rune(aChunk.Text)
		if len(text) > dedupPrefixLen {
			text = text[:dedupPrefixLen]
		}
		key := strings.TrimSpace(aChunk.DocID + "|" + aChunk.HeaderPath + "|" + string(text))
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, aChunk)
	}
	return out
}

// NumberedContext renders chunks as "[n] doc_id (p.N | header)" blocks the model can cite.
func NumberedContext(chunks []Chunk) string {
	blocks := make([]string, 0, len(chunks))
	for i, aChunk := range chunks {
		var loc []string
		if aChunk.Page > 0 {
			loc = append(loc, fmt.Sprintf("p.%d", aChunk.Page))
		}
		if aChunk.HeaderPath != "" {
			loc = append(loc, aChunk.HeaderPath)
		}
		var where string
		if len(loc) > 0 {
			where = " (" + strings.Join(loc, " | ") + ")"
		}
		blocks = append(blocks, fmt.Sprintf("[%d] %s%s\n\n%s", i+1, aChunk.DocID, where, aChunk.Text))
	}
	return strings.Join(blocks, "\n\n---\n\n")
}
