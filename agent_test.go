package agentrouter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAgent_SupportsIOMode(t *testing.T) {
	t.Parallel()

	anAgent := Agent{Name: "doi_steps", IOModes: []string{"chat", "Voice"}}

	tests := []struct {
		mode     string
		expected bool
	}{
		{"chat", true},
		{"CHAT", true},
		{"voice", true},
		{"email", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			assert.Equal(t, tt.expected, anAgent.SupportsIOMode(tt.mode))
		})
	}
}

func TestAgent_IsRouter(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		agent    Agent
		expected bool
	}{
		{"router by name", Agent{Name: RouterAgentName}, true},
		{"router by label", Agent{Name: "dispatcher", Labels: map[string]string{"skill": "Router"}}, true},
		{"regular agent", Agent{Name: "doi_steps", Labels: map[string]string{"skill": "steps"}}, false},
		{"no labels", Agent{Name: "rag_default"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.agent.IsRouter())
		})
	}
}

func TestAgent_Descriptor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "rag_default", Agent{Name: "rag_default"}.Descriptor())
	assert.Equal(t, "rag_default", Agent{Name: "rag_default", Routing: Routing{DescriptorText: "  "}}.Descriptor())
	assert.Equal(t, "Explains policy", Agent{Name: "rag_default", Routing: Routing{DescriptorText: " Explains policy "}}.Descriptor())
}

func TestThresholds_WithDefaults(t *testing.T) {
	t.Parallel()

	assert.Equal(t, DefaultThresholds(), Thresholds{}.WithDefaults())
	assert.Equal(t, Thresholds{Route: 0.7, Margin: DefaultMarginThreshold, Similarity: 0.3}, Thresholds{Route: 0.7, Similarity: 0.3}.WithDefaults())
}
