package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

type exchange struct {
	ID        string             `json:"id"`
	SessionID string             `json:"session_id"`
	IOMode    string             `json:"io_mode"`
	Message   string             `json:"message"`
	RouteTo   string             `json:"route_to"`
	Envelope  *envelope.Envelope `json:"envelope"`
	CreatedAt time.Time          `json:"created_at"`
}

type listExchangesResponse struct {
	Exchanges []exchange `json:"exchanges"`
}

// List the latest exchanges of a session, newest first
// (GET /v1/sessions/{id}/exchanges)
func (a *Adapter) ListExchanges(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.defaultTimeout)
	defer cancel()

	var (
		sessionID = r.PathValue("id")
		limit     int
	)
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > agentrouter.MaxExchangeLimit {
			renderJSONError(w, http.StatusBadRequest, fmt.Errorf("limit must be between 1 and %d", agentrouter.MaxExchangeLimit))
			return
		}
		limit = n
	}

	exchanges, err := a.agentRouter.ListExchanges(ctx, sessionID, limit)
	if err != nil {
		a.logger.Sugar().With("session", sessionID, "error", err).Error("error listing exchanges")
		renderJSONError(w, http.StatusInternalServerError, fmt.Errorf("error listing exchanges: %w", err))
		return
	}

	renderJSON(w, listExchangesResponse{Exchanges: mapExchanges(exchanges)})
}

func mapExchanges(exchanges []*agentrouter.Exchange) []exchange {
	mapped := make([]exchange, 0, len(exchanges))
	for _, anExchange := range exchanges {
		mapped = append(mapped, exchange{
			ID:        anExchange.ID.String(),
			SessionID: anExchange.SessionID,
			IOMode:    anExchange.IOMode,
			Message:   anExchange.Message,
			RouteTo:   anExchange.RouteTo,
			Envelope:  anExchange.Envelope,
			CreatedAt: anExchange.Created.T,
		})
	}
	return mapped
}
