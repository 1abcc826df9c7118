package agentrouter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

const (
	DefaultSessionID = "default"

	noEnvelopeText = "No envelope returned from orchestration."
)

var ErrInvalidSelector = errors.New("invalid selector")

type Session struct {
	ID string
}

type Message struct {
	Text string
}

// AgentInput is what a handler receives for one turn of a conversation.
type AgentInput struct {
	Agent   Agent
	Session Session
	Message Message
	IOMode  string
	Inputs  map[string]any
}

type ActRequest struct {
	SessionID string
	IOMode    string
	Message   string
	Inputs    map[string]any
	Selector  string
	Debug     bool
}

// Selector restricts routing to agents carrying all of the given labels.
type Selector map[string]string

// ParseSelector parses comma separated key=value label pairs, e.g. "skill=steps,team=legal".
func ParseSelector(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	selector := Selector{}
	for _, pair := range strings.Split(s, ",") {
		key, value, ok := strings.Cut(pair, "=")
		key, value = strings.TrimSpace(key), strings.TrimSpace(value)
		if !ok || key == "" || value == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidSelector, pair)
		}
		selector[key] = value
	}

	return selector, nil
}

func (s Selector) Matches(anAgent Agent) bool {
	for key, value := range s {
		if !strings.EqualFold(anAgent.Labels[key], value) {
			return false
		}
	}
	return true
}

// Act routes the message to an agent, runs it and decorates the returned envelope with the
// routing alert and telemetry. Agent failures are reported inside the envelope.
func (ar *agentRouter) Act(ctx context.Context, req ActRequest) (*envelope.Envelope, error) {
	if req.SessionID == "" {
		req.SessionID = DefaultSessionID
	}
	if req.IOMode == "" {
		req.IOMode = DefaultIOMode
	}

	selector, err := ParseSelector(req.Selector)
	if err != nil {
		return nil, err
	}

	// No candidate means no agent may serve this io mode and selector, rag_default included.
	decision, err := ar.route(ctx, req.Message, req.IOMode, selector)
	if err != nil {
		return nil, err
	}
	anAgent := decision.Chosen.Agent

	handler, ok := ar.handlers[anAgent.Entrypoint]
	if !ok {
		return nil, fmt.Errorf("%w: %s (agent %s)", ErrUnknownEntrypoint, anAgent.Entrypoint, anAgent.Name)
	}

	started := ar.now()
	env, err := handler.Handle(ctx, AgentInput{
		Agent:   anAgent,
		Session: Session{ID: req.SessionID},
		Message: Message{Text: req.Message},
		IOMode:  req.IOMode,
		Inputs:  req.Inputs,
	})
	elapsed := ar.now().Sub(started)
	ar.recorder.RecordAgent(anAgent.Name, elapsed, err)

	switch {
	case err != nil:
		ar.logger.Sugar().With("agent", anAgent.Name, "error", err).Error("agent failed")
		env = envelope.New("Sorry, the request could not be completed.")
		env.AddAlert(envelope.AlertLevelError, fmt.Sprintf("Agent %s failed: %v", anAgent.Name, err))
	case env == nil:
		env = envelope.Fallback(noEnvelopeText)
	default:
		if err := env.Validate(); err != nil {
			ar.logger.Sugar().With("agent", anAgent.Name, "error", err).Error("agent returned an invalid envelope")
			env = envelope.New("Sorry, the request could not be completed.")
			env.AddAlert(envelope.AlertLevelError, fmt.Sprintf("Agent %s returned an invalid envelope: %v", anAgent.Name, err))
		}
	}

	telemetry := envelope.Telemetry{
		RouteTo:     anAgent.Name,
		ActiveAgent: anAgent.Entrypoint,
		AgentMS:     elapsed.Milliseconds(),
	}
	env.AddAlert(envelope.AlertLevelInfo, decision.Alert)
	telemetry.RouteScore = decision.Chosen.Score
	telemetry.RouteSim = decision.Chosen.Similarity
	telemetry.RouteMS = decision.Elapsed.Milliseconds()

	if req.Debug {
		for i, c := range decision.TopK {
			ar.logger.Sugar().With(
				"session_id", req.SessionID,
				"rank", i+1,
				"agent", c.Agent.Name,
				"score", c.Score,
				"similarity", c.Similarity,
				"kpoints", c.KeywordPoints,
			).Info("routing candidate")
		}
	}
	env.MergeTelemetry(telemetry)

	ar.saveExchange(ctx, req, anAgent.Name, env)

	return env, nil
}

func (ar *agentRouter) saveExchange(ctx context.Context, req ActRequest, routeTo string, env *envelope.Envelope) {
	if ar.store == nil {
		return
	}

	anExchange := &Exchange{
		ID:        NewExchangeID(),
		SessionID: req.SessionID,
		IOMode:    req.IOMode,
		Message:   req.Message,
		RouteTo:   routeTo,
		Envelope:  env,
		Created:   Time{T: ar.now()},
	}

	if err := ar.store.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		return ar.store.SaveExchange(ctx, anExchange)
	}); err != nil {
		ar.logger.Sugar().With("session_id", req.SessionID, "error", err).Error("error saving exchange")
	}
}
