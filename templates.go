package agentrouter

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

//go:embed templates/*.tmpl
var defaultTemplatesFS embed.FS

// Templates holds the base prompts of the retrieval agents keyed by agent name.
type Templates struct {
	prompts map[string]string
}

// DefaultTemplates returns the prompts compiled into the binary.
func DefaultTemplates() *Templates {
	t := &Templates{prompts: map[string]string{}}
	entries, err := defaultTemplatesFS.ReadDir("templates")
	if err != nil {
		panic(err)
	}
	for _, entry := range entries {
		data, err := defaultTemplatesFS.ReadFile(path.Join("templates", entry.Name()))
		if err != nil {
			panic(err)
		}
		t.prompts[strings.TrimSuffix(entry.Name(), ".tmpl")] = strings.TrimSpace(string(data))
	}
	return t
}

// LoadTemplates overrides the default prompts with <agent>.tmpl files found in dir.
// A missing dir leaves the defaults in place.
func LoadTemplates(dir string) (*Templates, error) {
	t := DefaultTemplates()

	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return t, nil
		}
		return nil, fmt.Errorf("read templates dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || path.Ext(entry.Name()) != ".tmpl" {
			continue
		}
		data, err := os.ReadFile(path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading template %s: %w", entry.Name(), err)
		}
		t.prompts[strings.TrimSuffix(entry.Name(), ".tmpl")] = strings.TrimSpace(string(data))
	}

	return t, nil
}

// Prompt builds the full prompt for an agent. Agents without a template of their own use the
// rag_default one.
func (t *Templates) Prompt(agentName, context, question string) string {
	base, ok := t.prompts[agentName]
	if !ok {
		base = t.prompts[DefaultAgentName]
	}
	return fmt.Sprintf("%s\n\nContext:\n%s\n\nQuestion:\n%s\n\nAnswer:\n", base, context, question)
}
