package agentroutertest

import (
	"strings"

	"github.com/RichardKnop/agentrouter"
)

type AgentOption func(*agentrouter.Agent)

func WithAgentName(name string) AgentOption {
	return func(a *agentrouter.Agent) {
		a.Name = name
		a.Entrypoint = name
	}
}

func WithAgentEntrypoint(entrypoint string) AgentOption {
	return func(a *agentrouter.Agent) {
		a.Entrypoint = entrypoint
	}
}

func WithAgentIOModes(modes ...string) AgentOption {
	return func(a *agentrouter.Agent) {
		a.IOModes = modes
	}
}

func WithAgentLabel(key, value string) AgentOption {
	return func(a *agentrouter.Agent) {
		a.Labels[key] = value
	}
}

func WithAgentDescriptor(text string) AgentOption {
	return func(a *agentrouter.Agent) {
		a.Routing.DescriptorText = text
	}
}

func WithAgentKeywords(strong, weak, negative []string) AgentOption {
	return func(a *agentrouter.Agent) {
		a.Routing.KeywordsStrong = strong
		a.Routing.KeywordsWeak = weak
		a.Routing.KeywordsNegative = negative
	}
}

func WithAgentThresholds(thresholds agentrouter.Thresholds) AgentOption {
	return func(a *agentrouter.Agent) {
		a.Routing.Thresholds = thresholds
	}
}

func (g *DataGen) Agent(options ...AgentOption) agentrouter.Agent {
	name := strings.ToLower(g.Word() + "_" + g.Word())

	anAgent := agentrouter.Agent{
		Name:       name,
		Entrypoint: name,
		IOModes:    []string{agentrouter.DefaultIOMode},
		Labels:     map[string]string{"skill": g.Word()},
		Routing: agentrouter.Routing{
			DescriptorText: g.Sentence(8),
			Thresholds:     agentrouter.DefaultThresholds(),
		},
		ManifestPath: "agents/" + name + "/manifest.yaml",
	}

	for _, o := range options {
		o(&anAgent)
	}

	return anAgent
}
