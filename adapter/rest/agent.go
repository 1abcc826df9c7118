package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/RichardKnop/agentrouter"
)

type listAgentsResponse struct {
	Agents []string `json:"agents"`
}

// List agent names
// (GET /v1/agents)
func (a *Adapter) ListAgents(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.defaultTimeout)
	defer cancel()

	agents, err := a.agentRouter.ListAgents(ctx)
	if err != nil {
		a.logger.Sugar().With("error", err).Error("error listing agents")
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error listing agents: %w", err))
		return
	}

	names := make([]string, 0, len(agents))
	for _, anAgent := range agents {
		names = append(names, anAgent.Name)
	}

	renderJSON(w, listAgentsResponse{Agents: names})
}

type candidate struct {
	Agent         string  `json:"agent"`
	Score         float64 `json:"score"`
	Similarity    float64 `json:"similarity"`
	KeywordPoints float64 `json:"keyword_points"`
}

type scoreResponse struct {
	Candidates []candidate `json:"candidates"`
}

const defaultScoreTop = 5

// Score agents against a query without running any of them
// (GET /v1/route?q=...&io_mode=chat&top=5)
func (a *Adapter) ScoreRoute(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.actTimeout)
	defer cancel()

	var (
		query = r.URL.Query().Get("q")
		top   = defaultScoreTop
	)
	if query == "" {
		renderJSONError(w, http.StatusBadRequest, fmt.Errorf("q is required"))
		return
	}
	if s := r.URL.Query().Get("top"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 {
			renderJSONError(w, http.StatusBadRequest, fmt.Errorf("top must be a positive integer"))
			return
		}
		top = n
	}

	candidates, err := a.agentRouter.ScoreAgents(ctx, query, r.URL.Query().Get("io_mode"), top)
	if err != nil {
		renderJSONError(w, actErrorStatus(err), err)
		return
	}

	renderJSON(w, scoreResponse{Candidates: mapCandidates(candidates)})
}

func mapCandidates(candidates []agentrouter.Candidate) []candidate {
	mapped := make([]candidate, 0, len(candidates))
	for _, aCandidate := range candidates {
		mapped = append(mapped, candidate{
			Agent:         aCandidate.Agent.Name,
			Score:         aCandidate.Score,
			Similarity:    aCandidate.Similarity,
			KeywordPoints: aCandidate.KeywordPoints,
		})
	}
	return mapped
}
