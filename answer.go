package agentrouter

import (
	"encoding/json"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

var (
	jsonFenceRegexp = regexp.MustCompile("(?i)```json\\s*(\\{[\\s\\S]*?\\})\\s*```")
	jsonTailRegexp  = regexp.MustCompile(`\n*\s*(\{[\s\S]*\})\s*$`)
	citationRegexp  = regexp.MustCompile(`\[(\d+)\]`)
)

// SplitAnswer separates a model answer into markdown and a JSON object. The first fenced json
// block wins, otherwise a trailing object is used. Blobs that are not valid JSON are left in
// the markdown.
func SplitAnswer(answer string) (string, string) {
	if m := jsonFenceRegexp.FindStringSubmatch(answer); m != nil && json.Valid([]byte(m[1])) {
		return strings.TrimSpace(jsonFenceRegexp.ReplaceAllString(answer, "")), m[1]
	}

	if loc := jsonTailRegexp.FindStringSubmatchIndex(answer); loc != nil {
		blob := answer[loc[2]:loc[3]]
		if json.Valid([]byte(blob)) {
			return strings.TrimRight(answer[:loc[0]], " \t\r\n"), blob
		}
	}

	return strings.TrimSpace(answer), ""
}

// CitationNumbers returns the distinct [n] markers in text between 1 and max, ascending.
func CitationNumbers(text string, max int) []int {
	var numbers []int
	for _, m := range citationRegexp.FindAllStringSubmatch(text, -1) {
		n, err := strconv.Atoi(m[1])
		if err != nil || n < 1 || n > max {
			continue
		}
		if !slices.Contains(numbers, n) {
			numbers = append(numbers, n)
		}
	}
	slices.Sort(numbers)
	return numbers
}
