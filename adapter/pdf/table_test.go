package pdf

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/RichardKnop/agentrouter"
)

const testTablesHTML = `<html><body>
<table>
  <tr><td>Filing fees by year</td></tr>
  <tr><th>Form</th><th>2025</th><th>2026</th></tr>
  <tr><td>Annual report</td><td>25</td><td>30</td></tr>
  <tr><td>Change of address</td><td>10</td><td></td></tr>
</table>
<table>
  <tr><td>Step</td><td>Office</td></tr>
  <tr><td rowspan="2">Register</td><td>Front desk</td></tr>
  <tr><td>Online portal</td></tr>
  <tr><td></td><td></td></tr>
  <tr><td>Renew</td><td>Online portal</td></tr>
</table>
</body></html>`

func TestParseTables(t *testing.T) {
	t.Parallel()

	tables, err := parseTables(zap.NewNop(), strings.NewReader(testTablesHTML))
	require.NoError(t, err)

	expected := []htmlTable{
		{
			Title: "Filing fees by year",
			Rows: [][]string{
				{"Form", "2025", "2026"},
				{"Annual report", "25", "30"},
				{"Change of address", "10", ""},
			},
		},
		{
			Rows: [][]string{
				{"Step", "Office"},
				{"Register", "Front desk"},
				{"Register", "Online portal"},
			},
		},
		{
			Rows: [][]string{
				{"Renew", "Online portal"},
			},
		},
	}
	assert.Equal(t, expected, tables)
}

func TestHTMLTable_ToTable(t *testing.T) {
	t.Parallel()

	aTable := htmlTable{
		Title: "Fees",
		Rows: [][]string{
			{" Form ", "2026"},
			{"Annual report", " 30 "},
		},
	}

	expected := agentrouter.Table{
		Title:   "Fees",
		Columns: []string{"Form", "2026"},
		Rows:    [][]string{{"Annual report", "30"}},
	}
	assert.Equal(t, expected, aTable.toTable())
	assert.Equal(t, agentrouter.Table{Rows: [][]string{}}, htmlTable{}.toTable())
}

func TestHTMLTable_ToContexts(t *testing.T) {
	t.Parallel()

	t.Run("No rows", func(t *testing.T) {
		aTable := htmlTable{}
		contexts := aTable.ToContexts()
		assert.Empty(t, contexts)
	})

	t.Run("Year columns", func(t *testing.T) {
		aTable := htmlTable{
			Rows: [][]string{
				{"Form", "2025", "2026"},
				{"Annual report", "25", "30"},
				{"Change of address", "10", ""},
				{"Dissolution", "", ""},
			},
		}
		expected := []string{
			"Annual report: For year 2025: 25, For year 2026: 30",
			"Change of address: For year 2025: 10",
		}
		assert.Equal(t, expected, aTable.ToContexts())
	})

	t.Run("Named columns", func(t *testing.T) {
		aTable := htmlTable{
			Rows: [][]string{
				{"Step", "Office", "Fee"},
				{"Register", "Front desk", "1,250"},
			},
		}
		expected := []string{
			"Register: Office: Front desk, Fee: 1,250",
		}
		assert.Equal(t, expected, aTable.ToContexts())
	})
}

func TestIsNumber(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Name     string
		Input    string
		Expected Number
		OK       bool
	}{
		{"integer", "42", NewNumber(42, "42"), true},
		{"decimal", "0.75", NewNumber(0.75, "0.75"), true},
		{"thousands separator", "2,500,000", NewNumber(2500000, "2,500,000"), true},
		{"word", "fee", Number{}, false},
		{"trailing letters", "12b", Number{}, false},
		{"footnoted year", "2024*", NewNumber(2024, "2024*"), true},
		{"baseline year", "2021 (baseline)", NewNumber(2021, "2021 (baseline)"), true},
	}

	for _, tc := range testCases {
		t.Run(tc.Name, func(t *testing.T) {
			actual, ok := isNumber(tc.Input)
			assert.Equal(t, tc.Expected, actual)
			assert.Equal(t, tc.OK, ok)
		})
	}
}

func TestNumber_ValidYear(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		Input    Number
		Expected bool
	}{
		{NewNumber(1899, "1899"), false},
		{NewNumber(1900, "1900"), true},
		{NewNumber(2026, "2026"), true},
		{NewNumber(2026, "2,026"), false},
		{NewNumber(2101, "2101"), false},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.Expected, tc.Input.ValidYear())
	}
}
