package rest

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

type actRequest struct {
	SessionID string         `json:"session_id"`
	IOMode    string         `json:"io_mode"`
	Message   string         `json:"message"`
	Inputs    map[string]any `json:"inputs"`
	Selector  string         `json:"selector"`
	Debug     bool           `json:"debug"`
}

func (r actRequest) validate() error {
	if strings.TrimSpace(r.SessionID) == "" {
		return fmt.Errorf("session_id is required")
	}
	return nil
}

func (r actRequest) toActRequest() agentrouter.ActRequest {
	return agentrouter.ActRequest{
		SessionID: r.SessionID,
		IOMode:    r.IOMode,
		Message:   r.Message,
		Inputs:    r.Inputs,
		Selector:  r.Selector,
		Debug:     r.Debug,
	}
}

// Route a message to an agent and return its envelope
// (POST /v1/act)
func (a *Adapter) Act(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), a.actTimeout)
	defer cancel()

	var req actRequest
	if err := readRequestJSON(w, r, &req); err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}
	if err := req.validate(); err != nil {
		renderJSONError(w, http.StatusBadRequest, err)
		return
	}

	env, err := a.act(ctx, req)
	if err != nil {
		renderJSONError(w, actErrorStatus(err), err)
		return
	}

	renderJSON(w, env)
}

func (a *Adapter) act(ctx context.Context, req actRequest) (*envelope.Envelope, error) {
	env, err := a.agentRouter.Act(ctx, req.toActRequest())
	if err != nil {
		if actErrorStatus(err) == http.StatusInternalServerError {
			a.logger.Sugar().With("session", req.SessionID, "error", err).Error("error acting on message")
		}
		return nil, err
	}
	return env, nil
}

func actErrorStatus(err error) int {
	switch {
	case errors.Is(err, agentrouter.ErrInvalidSelector):
		return http.StatusBadRequest
	case errors.Is(err, agentrouter.ErrNoCandidates):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
