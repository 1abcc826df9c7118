// Package envelope implements the response envelope agents return for a UI to render:
// markdown display text, citation snippets and optional structured content, tables,
// alerts and routing telemetry.
package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Version is the envelope format version produced by this package.
const Version = "0.2"

const MIMEApplicationJSON = "application/json"

type AlertLevel string

const (
	AlertLevelInfo    AlertLevel = "info"
	AlertLevelWarning AlertLevel = "warning"
	AlertLevelError   AlertLevel = "error"
)

func (l AlertLevel) Valid() bool {
	switch l {
	case AlertLevelInfo, AlertLevelWarning, AlertLevelError:
		return true
	}
	return false
}

func ParseAlertLevel(s string) (AlertLevel, error) {
	level := AlertLevel(strings.ToLower(strings.TrimSpace(s)))
	if !level.Valid() {
		return "", fmt.Errorf("%w: unknown alert level %q", ErrInvalid, s)
	}
	return level, nil
}

type Envelope struct {
	Version     string      `json:"version"`
	DisplayText string      `json:"display_text"`
	Snippets    []Snippet   `json:"snippets"`
	Structured  *Structured `json:"structured,omitempty"`
	Tables      []Table     `json:"tables,omitempty"`
	Alerts      []Alert     `json:"alerts,omitempty"`
	Telemetry   *Telemetry  `json:"telemetry,omitempty"`
	Citations   []Citation  `json:"citations,omitempty"`
}

// Snippet is a citation record pointing at a passage of an indexed document.
// ID and Rank are 1-based positions in the retrieval result. Both are optional; nil
// omits them, any other value is encoded as given.
type Snippet struct {
	ID         *int   `json:"id,omitempty"`
	Rank       *int   `json:"rank,omitempty"`
	DocID      string `json:"doc_id"`
	Title      string `json:"title,omitempty"`
	Page       int    `json:"page"`
	HeaderPath string `json:"header_path"`
	SourceURL  string `json:"source_url,omitempty"`
	Text       string `json:"text"`
}

// Structured carries a secondary payload. Content is an encoded document (JSON for
// MIMEApplicationJSON) kept as a string; this package never interprets it.
type Structured struct {
	MIME    string `json:"mime"`
	Content string `json:"content"`
}

// Table rows hold arbitrary JSON values. Numbers decoded by Parse are json.Number so
// they re-encode exactly.
type Table struct {
	Title   string   `json:"title"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func (t Table) MarshalJSON() ([]byte, error) {
	type table Table
	if t.Columns == nil {
		t.Columns = []string{}
	}
	rows := make([][]any, 0, len(t.Rows))
	for _, row := range t.Rows {
		if row == nil {
			row = []any{}
		}
		rows = append(rows, row)
	}
	t.Rows = rows
	return json.Marshal(table(t))
}

type Alert struct {
	Level AlertLevel `json:"level"`
	Text  string     `json:"text"`
}

// Telemetry always carries the three routing fields; the rest are omitted when zero.
type Telemetry struct {
	RouteTo     string  `json:"route_to"`
	RouteScore  float64 `json:"route_score"`
	RouteSim    float64 `json:"route_sim"`
	ActiveAgent string  `json:"active_agent,omitempty"`
	AgentMS     int64   `json:"agent_ms,omitempty"`
	RouteMS     int64   `json:"route_ms,omitempty"`
}

// Citation references a snippet by its 1-based ID, as cited with [n] in display text.
type Citation struct {
	SnippetID int `json:"snippet_id"`
}

// Ptr returns a pointer to v, for optional fields such as Snippet.ID.
func Ptr[T any](v T) *T {
	return &v
}

// New returns a current-version envelope. Snippets is never nil so it always encodes
// as an array.
func New(displayText string, snippets ...Snippet) *Envelope {
	if snippets == nil {
		snippets = []Snippet{}
	}
	return &Envelope{
		Version:     Version,
		DisplayText: displayText,
		Snippets:    snippets,
	}
}

// Fallback is returned when no agent produced an envelope.
func Fallback(reason string) *Envelope {
	env := New("No response.")
	env.AddAlert(AlertLevelError, reason)
	return env
}

func (e Envelope) MarshalJSON() ([]byte, error) {
	type envelope Envelope
	out := envelope(e)
	if out.Snippets == nil {
		out.Snippets = []Snippet{}
	}
	return json.Marshal(out)
}

func (e *Envelope) AddAlert(level AlertLevel, text string) {
	e.Alerts = append(e.Alerts, Alert{Level: level, Text: text})
}

func (e *Envelope) HasAlert(level AlertLevel) bool {
	for _, anAlert := range e.Alerts {
		if anAlert.Level == level {
			return true
		}
	}
	return false
}

// MergeTelemetry copies every non-zero field of t into the envelope telemetry.
func (e *Envelope) MergeTelemetry(t Telemetry) {
	if e.Telemetry == nil {
		e.Telemetry = &Telemetry{}
	}
	if t.RouteTo != "" {
		e.Telemetry.RouteTo = t.RouteTo
	}
	if t.RouteScore != 0 {
		e.Telemetry.RouteScore = t.RouteScore
	}
	if t.RouteSim != 0 {
		e.Telemetry.RouteSim = t.RouteSim
	}
	if t.ActiveAgent != "" {
		e.Telemetry.ActiveAgent = t.ActiveAgent
	}
	if t.AgentMS != 0 {
		e.Telemetry.AgentMS = t.AgentMS
	}
	if t.RouteMS != 0 {
		e.Telemetry.RouteMS = t.RouteMS
	}
}

func (e *Envelope) WithStructuredJSON(content string) *Envelope {
	e.Structured = &Structured{MIME: MIMEApplicationJSON, Content: content}
	return e
}

func (e *Envelope) Validate() error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	return Validate(data)
}
