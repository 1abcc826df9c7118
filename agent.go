package agentrouter

import (
	"context"
	"strings"
)

const (
	RouterAgentName  = "governance_router"
	DefaultAgentName = "rag_default"
	DefaultIOMode    = "chat"
)

const (
	DefaultRouteThreshold      = 0.50
	DefaultMarginThreshold     = 0.05
	DefaultSimilarityThreshold = 0.40
)

// Agent is a routable agent described by a manifest.
type Agent struct {
	Name         string
	Entrypoint   string
	IOModes      []string
	Labels       map[string]string
	ToolsAllow   []string
	Routing      Routing
	ManifestPath string
}

type Routing struct {
	DescriptorText   string
	KeywordsStrong   []string
	KeywordsWeak     []string
	KeywordsNegative []string
	Thresholds       Thresholds
	Affinity         map[string][]string
}

type Thresholds struct {
	Route      float64
	Margin     float64
	Similarity float64
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		Route:      DefaultRouteThreshold,
		Margin:     DefaultMarginThreshold,
		Similarity: DefaultSimilarityThreshold,
	}
}

// WithDefaults fills zero thresholds with the default values.
func (t Thresholds) WithDefaults() Thresholds {
	if t.Route == 0 {
		t.Route = DefaultRouteThreshold
	}
	if t.Margin == 0 {
		t.Margin = DefaultMarginThreshold
	}
	if t.Similarity == 0 {
		t.Similarity = DefaultSimilarityThreshold
	}
	return t
}

func (a Agent) SupportsIOMode(mode string) bool {
	for _, m := range a.IOModes {
		if strings.EqualFold(m, mode) {
			return true
		}
	}
	return false
}

// IsRouter reports whether the agent only routes and should never be picked as a target.
func (a Agent) IsRouter() bool {
	return a.Name == RouterAgentName || strings.EqualFold(a.Labels["skill"], "router")
}

// Descriptor is the text embedded to represent the agent during routing.
func (a Agent) Descriptor() string {
	if text := strings.TrimSpace(a.Routing.DescriptorText); text != "" {
		return text
	}
	return a.Name
}

func (ar *agentRouter) ListAgents(ctx context.Context) ([]Agent, error) {
	return ar.registry.ListAgents(ctx)
}
