package envelope

import (
	"bytes"
	"reflect"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRoundTripProperty checks that encoding a parsed envelope and parsing it again
// yields the same envelope, field for field.
func TestRoundTripProperty(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	// bounds slice lengths and string sizes
	parameters.MaxSize = 4
	properties := gopter.NewProperties(parameters)

	properties.Property("parse(marshal(env)) is stable", prop.ForAll(
		func(env *Envelope) bool {
			first, err := Marshal(env)
			if err != nil {
				return false
			}
			parsed, err := Parse(first)
			if err != nil {
				return false
			}
			second, err := Marshal(parsed)
			if err != nil {
				return false
			}
			again, err := Parse(second)
			if err != nil {
				return false
			}

			return bytes.Equal(first, second) && reflect.DeepEqual(parsed, again)
		},
		genEnvelope(),
	))

	properties.TestingRun(t)
}

func genEnvelope() gopter.Gen {
	return gopter.CombineGens(
		gen.AnyString(),
		gen.SliceOf(genSnippet()),
		gen.Bool(),
		genStructured(),
		gen.SliceOf(genTable()),
		gen.SliceOf(genAlert()),
		gen.Bool(),
		genTelemetry(),
		gen.SliceOf(gen.IntRange(0, 5).Map(func(id int) Citation {
			return Citation{SnippetID: id}
		})),
	).Map(func(values []any) *Envelope {
		env := New(values[0].(string), values[1].([]Snippet)...)
		if values[2].(bool) {
			env.Structured = Ptr(values[3].(Structured))
		}
		env.Tables = values[4].([]Table)
		env.Alerts = values[5].([]Alert)
		if values[6].(bool) {
			env.Telemetry = Ptr(values[7].(Telemetry))
		}
		env.Citations = values[8].([]Citation)
		return env
	})
}

func genSnippet() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(-1, 20),
		gen.AlphaString(),
		gen.AnyString(),
		gen.IntRange(0, 10000),
		gen.AnyString(),
		gen.AnyString(),
	).Map(func(values []any) Snippet {
		aSnippet := Snippet{
			DocID:      values[1].(string),
			Title:      values[2].(string),
			Page:       values[3].(int),
			HeaderPath: values[4].(string),
			Text:       values[5].(string),
		}
		// -1 leaves id and rank unset, 0 sets them explicitly
		if id := values[0].(int); id >= 0 {
			aSnippet.ID = Ptr(id)
			aSnippet.Rank = Ptr(id)
		}
		return aSnippet
	})
}

func genStructured() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 1),
		gen.AnyString(),
	).Map(func(values []any) Structured {
		mime := MIMEApplicationJSON
		if values[0].(int) == 1 {
			mime = "text/plain"
		}
		return Structured{MIME: mime, Content: values[1].(string)}
	})
}

func genAlert() gopter.Gen {
	levels := []AlertLevel{AlertLevelInfo, AlertLevelWarning, AlertLevelError}
	return gopter.CombineGens(
		gen.IntRange(0, len(levels)-1),
		gen.AnyString(),
	).Map(func(values []any) Alert {
		return Alert{Level: levels[values[0].(int)], Text: values[1].(string)}
	})
}

func genTelemetry() gopter.Gen {
	return gopter.CombineGens(
		gen.AlphaString(),
		gen.Float64Range(-1, 1),
		gen.Float64Range(0, 1),
		gen.AlphaString(),
		gen.Int64Range(0, 60000),
		gen.Int64Range(0, 60000),
	).Map(func(values []any) Telemetry {
		return Telemetry{
			RouteTo:     values[0].(string),
			RouteScore:  values[1].(float64),
			RouteSim:    values[2].(float64),
			ActiveAgent: values[3].(string),
			AgentMS:     values[4].(int64),
			RouteMS:     values[5].(int64),
		}
	})
}

func genTable() gopter.Gen {
	return gopter.CombineGens(
		gen.AnyString(),
		gen.SliceOf(gen.AlphaString()),
		gen.SliceOf(gen.SliceOf(genCell())),
	).Map(func(values []any) Table {
		cells := values[2].([][]cell)
		rows := make([][]any, 0, len(cells))
		for _, row := range cells {
			cellValues := make([]any, 0, len(row))
			for _, c := range row {
				cellValues = append(cellValues, c.value)
			}
			rows = append(rows, cellValues)
		}
		return Table{
			Title:   values[0].(string),
			Columns: values[1].([]string),
			Rows:    rows,
		}
	})
}

// cell wraps a table value so a nil JSON value can travel through gopter.
type cell struct {
	value any
}

func genCell() gopter.Gen {
	return gopter.CombineGens(
		gen.IntRange(0, 6),
		gen.AnyString(),
		gen.Int64(),
		gen.Float64Range(-1e6, 1e6),
		gen.Bool(),
	).Map(func(values []any) cell {
		var (
			s = values[1].(string)
			i = values[2].(int64)
			f = values[3].(float64)
			b = values[4].(bool)
		)
		switch values[0].(int) {
		case 0:
			return cell{value: s}
		case 1:
			return cell{value: i}
		case 2:
			return cell{value: f}
		case 3:
			return cell{value: b}
		case 4:
			return cell{value: nil}
		case 5:
			return cell{value: []any{s, i, []any{b, nil}}}
		default:
			return cell{value: map[string]any{"name": s, "size": f, "tags": map[string]any{"ok": b}}}
		}
	})
}
