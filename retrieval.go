package agentrouter

import (
	"context"
	"fmt"
	"strings"

	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

const (
	StepsAgentName = "doi_steps"

	retrievalLimit = 6

	noContentAlert = "No indexed content matched the question."
	chatOnlyAlert  = "This agent supports chat only; rendered in chat mode."
)

type ragMode int

const (
	ragModePlain ragMode = iota
	// ragModeSteps answers with a checklist plus structured JSON and citations.
	ragModeSteps
)

// RAGAgent answers from the indexed documents.
type RAGAgent struct {
	router *agentRouter
	mode   ragMode
}

func (a *RAGAgent) name() string {
	if a.mode == ragModeSteps {
		return StepsAgentName
	}
	return DefaultAgentName
}

func (a *RAGAgent) Handle(ctx context.Context, in AgentInput) (*envelope.Envelope, error) {
	var (
		ar       = a.router
		question = strings.TrimSpace(in.Message.Text)
	)

	vector, err := ar.embedder.EmbedContent(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	chunks, err := ar.retriever.SearchChunks(ctx, vector, retrievalLimit)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	chunks = DedupChunks(chunks)

	ar.logger.Sugar().With("agent", a.name(), "chunks", len(chunks)).Debug("retrieved chunks")

	var env *envelope.Envelope
	if len(chunks) == 0 {
		env = envelope.New("I could not find an answer in the indexed documents.")
		env.AddAlert(envelope.AlertLevelWarning, noContentAlert)
	} else {
		answer, err := ar.generative.Generate(ctx, ar.templates.Prompt(a.name(), NumberedContext(chunks), question))
		if err != nil {
			return nil, fmt.Errorf("generating answer: %w", err)
		}

		env = envelope.New(strings.TrimSpace(answer), snippetsFromChunks(chunks)...)
		env.Tables = tablesFromChunks(chunks)

		if a.mode == ragModeSteps {
			markdown, blob := SplitAnswer(answer)
			env.DisplayText = markdown
			if blob != "" {
				env.WithStructuredJSON(blob)
			}
			for _, n := range CitationNumbers(markdown, len(chunks)) {
				env.Citations = append(env.Citations, envelope.Citation{SnippetID: n})
			}
		}
	}

	if a.mode == ragModeSteps && in.IOMode != "" && !strings.EqualFold(in.IOMode, DefaultIOMode) {
		env.AddAlert(envelope.AlertLevelInfo, chatOnlyAlert)
	}

	return env, nil
}

func snippetsFromChunks(chunks []Chunk) []envelope.Snippet {
	snippets := make([]envelope.Snippet, 0, len(chunks))
	for i, aChunk := range chunks {
		snippets = append(snippets, envelope.Snippet{
			ID:         envelope.Ptr(i + 1),
			Rank:       envelope.Ptr(i + 1),
			DocID:      aChunk.DocID,
			Title:      aChunk.Title,
			Page:       aChunk.Page,
			HeaderPath: aChunk.HeaderPath,
			SourceURL:  aChunk.SourceURL,
			Text:       aChunk.Text,
		})
	}
	return snippets
}

func tablesFromChunks(chunks []Chunk) []envelope.Table {
	var tables []envelope.Table
	for _, aChunk := range chunks {
		if aChunk.Type != BlockTypeTable || aChunk.Table == nil {
			continue
		}
		rows := make([][]any, 0, len(aChunk.Table.Rows))
		for _, row := range aChunk.Table.Rows {
			values := make([]any, 0, len(row))
			for _, cell := range row {
				values = append(values, cell)
			}
			rows = append(rows, values)
		}
		tables = append(tables, envelope.Table{
			Title:   aChunk.Table.Title,
			Columns: aChunk.Table.Columns,
			Rows:    rows,
		})
	}
	return tables
}
