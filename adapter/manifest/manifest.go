package manifest

import (
	"strings"

	"github.com/RichardKnop/agentrouter"
)

type manifest struct {
	Identity struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
	} `yaml:"identity"`
	Entrypoint string `yaml:"entrypoint"`
	IO         struct {
		Modes []string `yaml:"modes"`
		Mode  string   `yaml:"mode"`
	} `yaml:"io"`
	Labels map[string]string `yaml:"labels"`
	Tools  struct {
		Allow []string `yaml:"allow"`
	} `yaml:"tools"`
	Routing routing `yaml:"routing"`
}

type routing struct {
	DescriptorText string `yaml:"descriptor_text"`
	Keywords       struct {
		Strong    []string `yaml:"strong"`
		Weak      []string `yaml:"weak"`
		Negatives []string `yaml:"negatives"`
	} `yaml:"keywords"`
	Thresholds struct {
		Route      *float64 `yaml:"route"`
		FinalScore *float64 `yaml:"final_score"`
		Margin     *float64 `yaml:"margin"`
		Similarity *float64 `yaml:"similarity"`
	} `yaml:"thresholds"`
	Affinity map[string][]string `yaml:"affinity"`
}

func (m *manifest) toAgent(path string) (agentrouter.Agent, bool) {
	modes := m.IO.Modes
	if len(modes) == 0 && strings.TrimSpace(m.IO.Mode) != "" {
		modes = []string{m.IO.Mode}
	}

	if m.Identity.Name == "" || m.Entrypoint == "" || len(modes) == 0 {
		return agentrouter.Agent{}, false
	}

	thresholds := agentrouter.DefaultThresholds()
	switch {
	case m.Routing.Thresholds.Route != nil:
		thresholds.Route = *m.Routing.Thresholds.Route
	case m.Routing.Thresholds.FinalScore != nil:
		thresholds.Route = *m.Routing.Thresholds.FinalScore
	}
	if m.Routing.Thresholds.Margin != nil {
		thresholds.Margin = *m.Routing.Thresholds.Margin
	}
	if m.Routing.Thresholds.Similarity != nil {
		thresholds.Similarity = *m.Routing.Thresholds.Similarity
	}

	labels := m.Labels
	if labels == nil {
		labels = map[string]string{}
	}

	return agentrouter.Agent{
		Name:       m.Identity.Name,
		Entrypoint: m.Entrypoint,
		IOModes:    modes,
		Labels:     labels,
		ToolsAllow: m.Tools.Allow,
		Routing: agentrouter.Routing{
			DescriptorText:   m.Routing.DescriptorText,
			KeywordsStrong:   m.Routing.Keywords.Strong,
			KeywordsWeak:     m.Routing.Keywords.Weak,
			KeywordsNegative: m.Routing.Keywords.Negatives,
			Thresholds:       thresholds,
			Affinity:         m.Routing.Affinity,
		},
		ManifestPath: path,
	}, true
}
