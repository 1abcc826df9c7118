package document

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"google.golang.org/genai"

	"github.com/RichardKnop/agentrouter"
)

const layoutPrompt = `
Extract the content of this document in reading order. Return one item per paragraph,
list item or table. Set page to the 1-based page number the item appears on and
header_path to the enclosing headings joined with " > ". For tables set type to "table"
and fill table with its title, column names and rows; for everything else set type to
"paragraph" and put the full text in text. Leave out running headers, footers and page numbers.
`

type layoutItem struct {
	Page       int          `json:"page"`
	Type       string       `json:"type"`
	HeaderPath string       `json:"header_path"`
	Text       string       `json:"text"`
	Table      *layoutTable `json:"table,omitempty"`
}

type layoutTable struct {
	Title   string     `json:"title"`
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

var layoutSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"page":        {Type: genai.TypeInteger},
			"type":        {Type: genai.TypeString, Enum: []string{string(agentrouter.BlockTypeParagraph), string(agentrouter.BlockTypeTable)}},
			"header_path": {Type: genai.TypeString},
			"text":        {Type: genai.TypeString},
			"table": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":   {Type: genai.TypeString},
					"columns": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
					"rows": {Type: genai.TypeArray, Items: &genai.Schema{
						Type:  genai.TypeArray,
						Items: &genai.Schema{Type: genai.TypeString},
					}},
				},
			},
		},
		Required: []string{"page", "type"},
	},
}

func (a *Adapter) Extract(ctx context.Context, fileName string, contents io.ReadSeeker) ([]agentrouter.Block, error) {
	documentBytes, err := io.ReadAll(contents)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileName, err)
	}

	parts := []*genai.Part{
		genai.NewPartFromBytes(documentBytes, "application/pdf"),
		genai.NewPartFromText(layoutPrompt),
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   layoutSchema,
		ThinkingConfig: &genai.ThinkingConfig{
			ThinkingBudget: genai.Ptr[int32](0), // Disables thinking
		},
	}

	result, err := a.client.Models.GenerateContent(
		ctx,
		a.model,
		[]*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)},
		config,
	)
	if err != nil {
		return nil, fmt.Errorf("calling document model: %w", err)
	}

	var items []layoutItem
	if err := json.Unmarshal([]byte(result.Text()), &items); err != nil {
		return nil, fmt.Errorf("decode layout of %s: %w", fileName, err)
	}

	blocks := itemsToBlocks(items)

	a.logger.Sugar().With(
		"file", fileName,
		"items", len(items),
		"blocks", len(blocks),
	).Info("extracted document layout")

	return blocks, nil
}

// itemsToBlocks drops empty items and tables without rows. Pages are clamped to 1.
func itemsToBlocks(items []layoutItem) []agentrouter.Block {
	blocks := make([]agentrouter.Block, 0, len(items))
	for _, anItem := range items {
		page := max(anItem.Page, 1)
		headerPath := strings.TrimSpace(anItem.HeaderPath)

		if anItem.Type == string(agentrouter.BlockTypeTable) {
			if anItem.Table == nil || len(anItem.Table.Rows) == 0 {
				continue
			}
			aTable := &agentrouter.Table{
				Title:   strings.TrimSpace(anItem.Table.Title),
				Columns: anItem.Table.Columns,
				Rows:    anItem.Table.Rows,
			}
			blocks = append(blocks, agentrouter.Block{
				Type:       agentrouter.BlockTypeTable,
				Text:       aTable.Text(),
				Page:       page,
				HeaderPath: headerPath,
				Table:      aTable,
			})
			continue
		}

		text := strings.TrimSpace(anItem.Text)
		if text == "" {
			continue
		}
		blocks = append(blocks, agentrouter.Block{
			Type:       agentrouter.BlockTypeParagraph,
			Text:       text,
			Page:       page,
			HeaderPath: headerPath,
		})
	}
	return blocks
}
