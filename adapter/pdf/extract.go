package pdf

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/RichardKnop/agentrouter"
)

const (
	itemTypeTitle         = "Title"
	itemTypeSectionHeader = "Section header"
	itemTypeText          = "Text"
	itemTypeListItem      = "List item"
	itemTypeFootnote      = "Footnote"
	itemTypeTable         = "Table"

	headerPathSeparator = " > "
)

type item struct {
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	PageNumber int     `json:"page_number"`
	PageWidth  float64 `json:"page_width"`
	PageHeight float64 `json:"page_height"`
	Text       string  `json:"text"`
	Type       string  `json:"type"`
}

func (i item) bbox() [4]float64 {
	return [4]float64{i.Left, i.Top, i.Left + i.Width, i.Top + i.Height}
}

//	curl -X POST \
//	  -F 'file=@handbook.pdf' \
//	  -F 'fast=true' \
//	  http://localhost:5060
func (a *Adapter) Extract(ctx context.Context, fileName string, contents io.ReadSeeker) ([]agentrouter.Block, error) {
	if a.local != nil {
		return a.extractLocal(ctx, contents)
	}

	items, err := a.extractItems(ctx, fileName, contents)
	if err != nil {
		return nil, fmt.Errorf("extract layout items: %w", err)
	}

	blocks := itemsToBlocks(items)

	var tableItems []item
	for _, anItem := range items {
		if anItem.Type == itemTypeTable {
			tableItems = append(tableItems, anItem)
		}
	}

	if len(tableItems) > 0 {
		if _, err := contents.Seek(0, io.SeekStart); err != nil {
			return nil, err
		}
		tables, err := a.extractHTMLTables(ctx, fileName, contents)
		if err != nil {
			return nil, fmt.Errorf("extract tables: %w", err)
		}
		blocks = append(blocks, tablesToBlocks(tables, tableItems)...)
	}

	a.logger.Sugar().With(
		"file", fileName,
		"items", len(items),
		"blocks", len(blocks),
	).Info("extracted blocks")

	return blocks, nil
}

// itemsToBlocks keeps text-like items as paragraph blocks. Titles and section headers are not
// emitted; they set the header path of the blocks that follow.
func itemsToBlocks(items []item) []agentrouter.Block {
	var (
		blocks         = make([]agentrouter.Block, 0, len(items))
		title, section string
	)

	for _, anItem := range items {
		text := strings.TrimSpace(anItem.Text)
		if text == "" {
			continue
		}

		switch anItem.Type {
		case itemTypeTitle:
			title, section = text, ""
		case itemTypeSectionHeader:
			section = text
		case itemTypeText, itemTypeListItem, itemTypeFootnote:
			blocks = append(blocks, agentrouter.Block{
				Type:       agentrouter.BlockTypeParagraph,
				Text:       text,
				Page:       anItem.PageNumber,
				BBox:       anItem.bbox(),
				HeaderPath: headerPath(title, section),
			})
		}
	}

	return blocks
}

func headerPath(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			nonEmpty = append(nonEmpty, part)
		}
	}
	return strings.Join(nonEmpty, headerPathSeparator)
}

// tablesToBlocks pairs parsed HTML tables with the layout table items in document order to
// recover their page and position.
func tablesToBlocks(tables []htmlTable, tableItems []item) []agentrouter.Block {
	blocks := make([]agentrouter.Block, 0, len(tables))
	for i, aTable := range tables {
		if len(aTable.Rows) == 0 {
			continue
		}

		anItem := tableItems[min(i, len(tableItems)-1)]
		converted := aTable.toTable()

		text := strings.Join(aTable.ToContexts(), "\n")
		if text == "" {
			text = converted.Text()
		}

		blocks = append(blocks, agentrouter.Block{
			Type:  agentrouter.BlockTypeTable,
			Text:  text,
			Page:  anItem.PageNumber,
			BBox:  anItem.bbox(),
			Table: &converted,
		})
	}
	return blocks
}

func (a *Adapter) extractItems(ctx context.Context, fileName string, contents io.ReadSeeker) ([]item, error) {
	resp, err := a.post(ctx, a.baseURL, fileName, contents)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	items := []item{}
	if err := json.NewDecoder(resp.Body).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode layout items: %w", err)
	}

	return items, nil
}

func (a *Adapter) extractHTMLTables(ctx context.Context, fileName string, contents io.ReadSeeker) ([]htmlTable, error) {
	resp, err := a.post(ctx, a.baseURL+"/html", fileName, contents, "types", "table")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return parseTables(a.logger, resp.Body)
}

// post uploads the file as multipart form data together with extra form fields given as
// name, value pairs. Error responses are returned as errors carrying the response body.
func (a *Adapter) post(ctx context.Context, url, fileName string, contents io.Reader, fields ...string) (*http.Response, error) {
	buf := new(bytes.Buffer)
	writer := multipart.NewWriter(buf)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, err
	}
	if _, err = io.Copy(part, contents); err != nil {
		return nil, err
	}

	fields = append([]string{"fast", "true"}, fields...)
	for i := 0; i+1 < len(fields); i += 2 {
		if err := writer.WriteField(fields[i], fields[i+1]); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		respData, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("layout service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(respData)))
	}

	return resp, nil
}
