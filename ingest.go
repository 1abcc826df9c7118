package agentrouter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

const (
	boilerplatePageRatio = 0.8
	docIDLength          = 16
)

type IngestStatus string

const (
	IngestStatusIndexed   IngestStatus = "indexed"
	IngestStatusUnchanged IngestStatus = "unchanged"
	IngestStatusFailed    IngestStatus = "failed"
)

// DocRecord describes an ingested document. DocID is derived from the content hash.
type DocRecord struct {
	DocID      string    `json:"doc_id"`
	Title      string    `json:"title"`
	SourceURL  string    `json:"source_url"`
	SourceType string    `json:"source_type"`
	Version    string    `json:"version"`
	SHA256     string    `json:"sha256"`
	Pages      int       `json:"pages"`
	TableCount int       `json:"table_count"`
	Created    time.Time `json:"created_at"`
}

type IngestResult struct {
	Doc    DocRecord
	Status IngestStatus
	Chunks int
}

// CleanBlocks drops blocks whose text repeats on more than 80% of the pages, such as running
// headers and footers. Single page documents are returned unchanged.
func CleanBlocks(blocks []Block) []Block {
	var (
		pages       = map[int]struct{}{}
		textToPages = map[string]map[int]struct{}{}
	)
	for _, aBlock := range blocks {
		pages[aBlock.Page] = struct{}{}
		if _, ok := textToPages[aBlock.Text]; !ok {
			textToPages[aBlock.Text] = map[int]struct{}{}
		}
		textToPages[aBlock.Text][aBlock.Page] = struct{}{}
	}

	if len(pages) < 2 {
		return blocks
	}

	cleaned := make([]Block, 0, len(blocks))
	for _, aBlock := range blocks {
		if aBlock.Type != BlockTypeTable && float64(len(textToPages[aBlock.Text]))/float64(len(pages)) > boilerplatePageRatio {
			continue
		}
		cleaned = append(cleaned, aBlock)
	}
	return cleaned
}

// SplitBlocks cuts block text into windows of size runes overlapping by overlap runes. Chunk
// IDs are zero padded ordinals. Table blocks always become a single chunk.
func SplitBlocks(blocks []Block, size, overlap int) []Chunk {
	var chunks []Chunk
	add := func(aBlock Block, text string) {
		chunks = append(chunks, Chunk{
			ID:         fmt.Sprintf("%05d", len(chunks)),
			Type:       aBlock.Type,
			Text:       text,
			Page:       aBlock.Page,
			HeaderPath: aBlock.HeaderPath,
			Table:      aBlock.Table,
		})
	}

	for _, aBlock := range blocks {
		if aBlock.Type == BlockTypeTable {
			add(aBlock, aBlock.Text)
			continue
		}

		text := []rune(aBlock.Text)
		for start := 0; start < len(text); start += size - overlap {
			end := min(start+size, len(text))
			add(aBlock, string(text[start:end]))
			if end == len(text) {
				break
			}
		}
	}

	return chunks
}

// NewDocRecord fingerprints the extracted document.
func NewDocRecord(sourcePath string, blocks []Block, modTime, now time.Time) DocRecord {
	texts := make([]string, 0, len(blocks))
	pages := map[int]struct{}{}
	var tables int
	for _, aBlock := range blocks {
		texts = append(texts, aBlock.Text)
		pages[aBlock.Page] = struct{}{}
		if aBlock.Type == BlockTypeTable {
			tables++
		}
	}

	sum := sha256.Sum256([]byte(strings.Join(texts, "\n")))
	sha := hex.EncodeToString(sum[:])

	sourceURL := sourcePath
	if abs, err := filepath.Abs(sourcePath); err == nil {
		sourceURL = abs
	}

	return DocRecord{
		DocID:      sha[:docIDLength],
		Title:      strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath)),
		SourceURL:  "file://" + sourceURL,
		SourceType: "pdf_local",
		Version:    "mtime:" + modTime.UTC().Format(time.RFC3339),
		SHA256:     sha,
		Pages:      len(pages),
		TableCount: tables,
		Created:    now,
	}
}

// Ingest extracts, chunks, embeds and indexes a document. Documents whose content hash did
// not change since the last successful ingest of the same source are skipped.
func (ar *agentRouter) Ingest(ctx context.Context, sourcePath string, contents io.ReadSeeker, modTime time.Time) (IngestResult, error) {
	result, err := ar.ingest(ctx, sourcePath, contents, modTime)
	if err != nil {
		ar.recorder.RecordIngest(IngestStatusFailed, 0)
		return result, err
	}
	ar.recorder.RecordIngest(result.Status, result.Chunks)
	return result, nil
}

func (ar *agentRouter) ingest(ctx context.Context, sourcePath string, contents io.ReadSeeker, modTime time.Time) (IngestResult, error) {
	if ar.extractor == nil || ar.docs == nil {
		return IngestResult{}, fmt.Errorf("ingest requires an extractor and a doc store")
	}

	blocks, err := ar.extractor.Extract(ctx, filepath.Base(sourcePath), contents)
	if err != nil {
		return IngestResult{}, fmt.Errorf("extracting blocks: %w", err)
	}
	blocks = CleanBlocks(blocks)
	if len(blocks) == 0 {
		return IngestResult{}, fmt.Errorf("no text extracted from %s", sourcePath)
	}

	aDoc := NewDocRecord(sourcePath, blocks, modTime, ar.now())
	result := IngestResult{Doc: aDoc}

	previous, err := ar.docs.FindDoc(ctx, aDoc.SourceURL)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			return result, fmt.Errorf("finding doc record: %w", err)
		}
		previous = nil
	}
	if previous != nil && previous.SHA256 == aDoc.SHA256 {
		ar.logger.Sugar().With("doc_id", aDoc.DocID, "title", aDoc.Title).Info("document unchanged, skipping")
		result.Status = IngestStatusUnchanged
		return result, nil
	}

	chunks := SplitBlocks(blocks, ar.chunkSize, ar.overlap)
	for i := range chunks {
		chunks[i].DocID = aDoc.DocID
		chunks[i].Title = aDoc.Title
		chunks[i].SourceURL = aDoc.SourceURL
	}

	vectors, err := ar.embedder.EmbedChunks(ctx, chunks)
	if err != nil {
		return result, fmt.Errorf("embedding chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return result, fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(chunks))
	}

	staleDocIDs := []string{aDoc.DocID}
	if previous != nil && previous.DocID != aDoc.DocID {
		staleDocIDs = append(staleDocIDs, previous.DocID)
	}
	for _, docID := range staleDocIDs {
		if err := ar.retriever.DeleteDocChunks(ctx, docID); err != nil {
			return result, fmt.Errorf("deleting old chunks: %w", err)
		}
	}
	if err := ar.retriever.SaveChunks(ctx, chunks, vectors); err != nil {
		return result, fmt.Errorf("saving chunks: %w", err)
	}

	// the record goes last so a failed run is retried on the next ingest
	if _, err := ar.docs.UpsertDoc(ctx, aDoc); err != nil && !errors.Is(err, ErrUnchanged) {
		return result, fmt.Errorf("saving doc record: %w", err)
	}

	ar.logger.Sugar().With("doc_id", aDoc.DocID, "title", aDoc.Title, "chunks", len(chunks)).Info("indexed document")

	result.Status = IngestStatusIndexed
	result.Chunks = len(chunks)
	return result, nil
}
