package agentrouter

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"
)

const (
	similarityWeight      = 0.75
	strongKeywordPoints   = 0.2
	weakKeywordPoints     = 0.1
	negativeKeywordPoints = 0.2
	maxTopK               = 5
)

type RouteOutcome string

const (
	RouteOutcomeConfident     RouteOutcome = "confident"
	RouteOutcomeFallback      RouteOutcome = "fallback"
	RouteOutcomeLowConfidence RouteOutcome = "low_confidence"
)

// Candidate is an agent scored against a query.
type Candidate struct {
	Agent         Agent
	Score         float64
	Similarity    float64
	KeywordPoints float64
}

// Decision is the outcome of routing a query.
type Decision struct {
	Chosen  Candidate
	TopK    []Candidate
	Margin  float64
	Outcome RouteOutcome
	Alert   string
	Elapsed time.Duration
}

// Route scores every agent supporting the io mode, router agents excluded, and picks one.
// When the best score or its margin over the runner up is below the best agent's thresholds,
// the rag_default agent is chosen instead if it is a candidate.
func (ar *agentRouter) Route(ctx context.Context, query, ioMode string) (*Decision, error) {
	return ar.route(ctx, query, ioMode, nil)
}

func (ar *agentRouter) route(ctx context.Context, query, ioMode string, selector Selector) (*Decision, error) {
	started := ar.now()

	candidates, err := ar.candidates(ctx, ioMode, selector, false)
	if err != nil {
		return nil, err
	}

	scored, err := ar.score(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	var (
		top1   = scored[0]
		margin = top1.Score
	)
	if len(scored) > 1 {
		margin = top1.Score - scored[1].Score
	}

	decision := &Decision{
		Chosen:  top1,
		TopK:    scored[:min(len(scored), maxTopK)],
		Margin:  margin,
		Outcome: RouteOutcomeConfident,
		Alert: fmt.Sprintf(
			"Routed to %s (score=%.2f, sim=%.2f, margin=%.2f).",
			top1.Agent.Name, top1.Score, top1.Similarity, margin,
		),
	}

	thresholds := top1.Agent.Routing.Thresholds.WithDefaults()
	if top1.Score < thresholds.Route || margin < thresholds.Margin {
		idx := slices.IndexFunc(scored, func(c Candidate) bool { return c.Agent.Name == DefaultAgentName })
		if idx >= 0 {
			decision.Chosen = scored[idx]
			decision.Outcome = RouteOutcomeFallback
			decision.Alert = fmt.Sprintf(
				"Routed to %s (fallback; top1 score=%.2f, margin=%.2f).",
				DefaultAgentName, top1.Score, margin,
			)
		} else {
			decision.Outcome = RouteOutcomeLowConfidence
			decision.Alert = fmt.Sprintf(
				"Routed to %s (low confidence; score=%.2f, margin=%.2f).",
				top1.Agent.Name, top1.Score, margin,
			)
		}
	}

	decision.Elapsed = ar.now().Sub(started)
	ar.recorder.RecordRoute(decision.Chosen.Agent.Name, decision.Outcome, decision.Elapsed)

	ar.logger.Sugar().With(
		"route_to", decision.Chosen.Agent.Name,
		"outcome", decision.Outcome,
		"score", decision.Chosen.Score,
		"margin", decision.Margin,
	).Debug("routed query")

	return decision, nil
}

// ScoreAgents scores all agents supporting the io mode, router agents included, and returns the
// best ones first.
func (ar *agentRouter) ScoreAgents(ctx context.Context, query, ioMode string, top int) ([]Candidate, error) {
	candidates, err := ar.candidates(ctx, ioMode, nil, true)
	if err != nil {
		return nil, err
	}

	scored, err := ar.score(ctx, query, candidates)
	if err != nil {
		return nil, err
	}

	if top > 0 && top < len(scored) {
		scored = scored[:top]
	}

	return scored, nil
}

func (ar *agentRouter) candidates(ctx context.Context, ioMode string, selector Selector, includeRouters bool) ([]Agent, error) {
	if ioMode == "" {
		ioMode = DefaultIOMode
	}

	agents, err := ar.registry.ListAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("list agents: %w", err)
	}

	candidates := make([]Agent, 0, len(agents))
	for _, anAgent := range agents {
		if !anAgent.SupportsIOMode(ioMode) {
			continue
		}
		if anAgent.IsRouter() && !includeRouters {
			continue
		}
		if !selector.Matches(anAgent) {
			continue
		}
		candidates = append(candidates, anAgent)
	}

	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w for io mode %q", ErrNoCandidates, ioMode)
	}

	return candidates, nil
}

func (ar *agentRouter) score(ctx context.Context, query string, candidates []Agent) ([]Candidate, error) {
	query = strings.TrimSpace(query)

	queryVector, err := ar.embedder.EmbedContent(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	scored := make([]Candidate, 0, len(candidates))
	for _, anAgent := range candidates {
		descriptorVector, err := ar.descriptorVector(ctx, anAgent)
		if err != nil {
			return nil, err
		}

		var similarity float64
		if len(descriptorVector) > 0 {
			similarity = cosine(queryVector, descriptorVector)
		}

		kpoints := strongKeywordPoints*float64(countHits(query, anAgent.Routing.KeywordsStrong)) +
			weakKeywordPoints*float64(countHits(query, anAgent.Routing.KeywordsWeak)) -
			negativeKeywordPoints*float64(countHits(query, anAgent.Routing.KeywordsNegative))

		scored = append(scored, Candidate{
			Agent:         anAgent,
			Score:         similarityWeight*similarity + kpoints,
			Similarity:    similarity,
			KeywordPoints: kpoints,
		})
	}

	slices.SortStableFunc(scored, func(a, b Candidate) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		}
		return 0
	})

	return scored, nil
}

func (ar *agentRouter) descriptorVector(ctx context.Context, anAgent Agent) (Vector, error) {
	descriptor := anAgent.Descriptor()
	key := anAgent.Name + "|" + descriptor + "|" + ar.embedder.Name()

	if vector, ok := ar.descriptors.Get(key); ok {
		return vector, nil
	}

	vector, err := ar.embedder.EmbedContent(ctx, descriptor)
	if err != nil {
		return nil, fmt.Errorf("embed descriptor of agent %s: %w", anAgent.Name, err)
	}
	ar.descriptors.Add(key, vector)

	return vector, nil
}

// cosine treats a zero norm as 1 so zero vectors give a similarity of 0.
func cosine(a, b Vector) float64 {
	var dot, na, nb float64
	for i := 0; i < len(a) && i < len(b); i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, x := range a {
		na += float64(x) * float64(x)
	}
	for _, y := range b {
		nb += float64(y) * float64(y)
	}
	na, nb = math.Sqrt(na), math.Sqrt(nb)
	if na == 0 {
		na = 1
	}
	if nb == 0 {
		nb = 1
	}
	return dot / (na * nb)
}

func countHits(text string, terms []string) int {
	text = strings.ToLower(text)
	var hits int
	for _, term := range terms {
		if term != "" && strings.Contains(text, strings.ToLower(term)) {
			hits++
		}
	}
	return hits
}
