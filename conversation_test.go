package agentrouter_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/agentroutertest"
	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

func stubHandler(env *envelope.Envelope, err error, seen *agentrouter.AgentInput) agentrouter.Handler {
	return agentrouter.HandlerFunc(func(ctx context.Context, in agentrouter.AgentInput) (*envelope.Envelope, error) {
		if seen != nil {
			*seen = in
		}
		return env, err
	})
}

func TestAct(t *testing.T) {
	t.Parallel()

	ctx, cancel := testContext()
	defer cancel()

	var (
		store = new(fakeStore)
		seen  agentrouter.AgentInput
	)

	ar, err := agentrouter.New(
		&fakeRegistry{agents: []agentrouter.Agent{doiAgent(), routerAgent(), defaultAgent()}},
		newFakeEmbedder(testVectors()), nil, nil, store,
		agentrouter.WithHandler(agentrouter.StepsAgentName, stubHandler(envelope.New("1. Declare [1]"), nil, &seen)),
	)
	require.NoError(t, err)

	env, err := ar.Act(ctx, agentrouter.ActRequest{
		Message: doiQuery,
		Inputs:  map[string]any{"form": "A"},
	})
	require.NoError(t, err)

	assert.Equal(t, agentrouter.Session{ID: agentrouter.DefaultSessionID}, seen.Session)
	assert.Equal(t, agentrouter.Message{Text: doiQuery}, seen.Message)
	assert.Equal(t, "chat", seen.IOMode)
	assert.Equal(t, map[string]any{"form": "A"}, seen.Inputs)
	assert.Equal(t, agentrouter.StepsAgentName, seen.Agent.Name)

	assert.Equal(t, "1. Declare [1]", env.DisplayText)
	assert.Equal(t, []envelope.Alert{
		{Level: envelope.AlertLevelInfo, Text: "Routed to doi_steps (score=1.15, sim=1.00, margin=1.15)."},
	}, env.Alerts)
	require.NotNil(t, env.Telemetry)
	assert.Equal(t, agentrouter.StepsAgentName, env.Telemetry.RouteTo)
	assert.Equal(t, agentrouter.StepsAgentName, env.Telemetry.ActiveAgent)
	assert.InDelta(t, 1.15, env.Telemetry.RouteScore, 1e-9)
	assert.InDelta(t, 1.0, env.Telemetry.RouteSim, 1e-9)
	assert.NoError(t, env.Validate())

	require.Len(t, store.exchanges, 1)
	assert.Equal(t, agentrouter.DefaultSessionID, store.exchanges[0].SessionID)
	assert.Equal(t, agentrouter.StepsAgentName, store.exchanges[0].RouteTo)
	assert.Equal(t, doiQuery, store.exchanges[0].Message)
	assert.Same(t, env, store.exchanges[0].Envelope)
}

func TestAct_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		handler        agentrouter.Handler
		expectedText   string
		expectedAlerts []envelope.Alert
	}{
		{
			"handler error is reported in the envelope",
			stubHandler(nil, errors.New("model unavailable"), nil),
			"Sorry, the request could not be completed.",
			[]envelope.Alert{
				{Level: envelope.AlertLevelError, Text: "Agent doi_steps failed: model unavailable"},
				{Level: envelope.AlertLevelInfo, Text: "Routed to doi_steps (score=1.15, sim=1.00, margin=1.15)."},
			},
		},
		{
			"nil envelope falls back",
			stubHandler(nil, nil, nil),
			"No response.",
			[]envelope.Alert{
				{Level: envelope.AlertLevelError, Text: "No envelope returned from orchestration."},
				{Level: envelope.AlertLevelInfo, Text: "Routed to doi_steps (score=1.15, sim=1.00, margin=1.15)."},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testContext()
			defer cancel()

			ar, err := agentrouter.New(
				&fakeRegistry{agents: []agentrouter.Agent{doiAgent(), defaultAgent()}},
				newFakeEmbedder(testVectors()), nil, nil, new(fakeStore),
				agentrouter.WithHandler(agentrouter.StepsAgentName, tt.handler),
			)
			require.NoError(t, err)

			env, err := ar.Act(ctx, agentrouter.ActRequest{SessionID: "s1", Message: doiQuery})
			require.NoError(t, err)

			assert.Equal(t, tt.expectedText, env.DisplayText)
			assert.Equal(t, tt.expectedAlerts, env.Alerts)
			assert.Empty(t, env.Snippets)
			assert.NoError(t, env.Validate())
		})
	}
}

func TestAct_UnknownEntrypoint(t *testing.T) {
	t.Parallel()

	ctx, cancel := testContext()
	defer cancel()

	anAgent := doiAgent()
	anAgent.Entrypoint = "agents.doi_steps.handler:handle"

	ar, err := agentrouter.New(&fakeRegistry{agents: []agentrouter.Agent{anAgent}}, newFakeEmbedder(testVectors()), nil, nil, new(fakeStore))
	require.NoError(t, err)

	_, err = ar.Act(ctx, agentrouter.ActRequest{Message: doiQuery})
	assert.ErrorIs(t, err, agentrouter.ErrUnknownEntrypoint)
}

func TestAct_NoCandidates(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  agentrouter.ActRequest
	}{
		{
			"rag_default does not speak the io mode",
			agentrouter.ActRequest{IOMode: "voice", Message: doiQuery},
		},
		{
			"selector matches nothing",
			agentrouter.ActRequest{Message: doiQuery, Selector: "team=nonexistent"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := testContext()
			defer cancel()

			var (
				store  = new(fakeStore)
				called bool
			)
			ar, err := agentrouter.New(
				&fakeRegistry{agents: []agentrouter.Agent{
					gen.Agent(agentroutertest.WithAgentName(agentrouter.StepsAgentName), agentroutertest.WithAgentIOModes("chat")),
					gen.Agent(agentroutertest.WithAgentName(agentrouter.DefaultAgentName), agentroutertest.WithAgentIOModes("chat")),
				}},
				newFakeEmbedder(testVectors()), nil, nil, store,
				agentrouter.WithHandler(agentrouter.DefaultAgentName, agentrouter.HandlerFunc(func(ctx context.Context, in agentrouter.AgentInput) (*envelope.Envelope, error) {
					called = true
					return envelope.New("general answer"), nil
				})),
			)
			require.NoError(t, err)

			env, err := ar.Act(ctx, tt.req)
			require.ErrorIs(t, err, agentrouter.ErrNoCandidates)
			assert.Nil(t, env)
			assert.False(t, called)
			assert.Empty(t, store.exchanges)
		})
	}
}

func TestAct_InvalidEnvelopeIsReplaced(t *testing.T) {
	t.Parallel()

	ctx, cancel := testContext()
	defer cancel()

	store := new(fakeStore)
	invalid := envelope.New("partial answer")
	invalid.AddAlert(envelope.AlertLevel("critical"), "boom")

	ar, err := agentrouter.New(
		&fakeRegistry{agents: []agentrouter.Agent{doiAgent(), defaultAgent()}},
		newFakeEmbedder(testVectors()), nil, nil, store,
		agentrouter.WithHandler(agentrouter.StepsAgentName, stubHandler(invalid, nil, nil)),
	)
	require.NoError(t, err)

	env, err := ar.Act(ctx, agentrouter.ActRequest{Message: doiQuery})
	require.NoError(t, err)

	assert.Equal(t, "Sorry, the request could not be completed.", env.DisplayText)
	require.Len(t, env.Alerts, 2)
	assert.Equal(t, envelope.AlertLevelError, env.Alerts[0].Level)
	assert.Contains(t, env.Alerts[0].Text, "Agent doi_steps returned an invalid envelope")
	assert.Contains(t, env.Alerts[0].Text, "alerts.0.level")
	assert.Equal(t, agentrouter.StepsAgentName, env.Telemetry.RouteTo)
	assert.NoError(t, env.Validate())

	require.Len(t, store.exchanges, 1)
	assert.Same(t, env, store.exchanges[0].Envelope)
}

func TestAct_StoreFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	ctx, cancel := testContext()
	defer cancel()

	ar, err := agentrouter.New(
		&fakeRegistry{agents: []agentrouter.Agent{doiAgent()}},
		newFakeEmbedder(testVectors()), nil, nil, &fakeStore{err: errors.New("disk full")},
		agentrouter.WithHandler(agentrouter.StepsAgentName, stubHandler(envelope.New("ok"), nil, nil)),
	)
	require.NoError(t, err)

	env, err := ar.Act(ctx, agentrouter.ActRequest{Message: doiQuery})
	require.NoError(t, err)
	assert.Equal(t, "ok", env.DisplayText)
}

func TestAct_Selector(t *testing.T) {
	t.Parallel()

	ctx, cancel := testContext()
	defer cancel()

	ar, err := agentrouter.New(
		&fakeRegistry{agents: []agentrouter.Agent{doiAgent(), defaultAgent()}},
		newFakeEmbedder(testVectors()), nil, nil, new(fakeStore),
		agentrouter.WithHandler(agentrouter.StepsAgentName, stubHandler(envelope.New("steps"), nil, nil)),
		agentrouter.WithHandler(agentrouter.DefaultAgentName, stubHandler(envelope.New("general"), nil, nil)),
	)
	require.NoError(t, err)

	env, err := ar.Act(ctx, agentrouter.ActRequest{Message: doiQuery, Selector: "skill=general"})
	require.NoError(t, err)
	assert.Equal(t, "general", env.DisplayText)

	_, err = ar.Act(ctx, agentrouter.ActRequest{Message: doiQuery, Selector: "skill"})
	assert.ErrorIs(t, err, agentrouter.ErrInvalidSelector)
}

func TestParseSelector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		selector string
		expected agentrouter.Selector
		wantErr  bool
	}{
		{"", nil, false},
		{"skill=steps", agentrouter.Selector{"skill": "steps"}, false},
		{" skill = steps , team=legal ", agentrouter.Selector{"skill": "steps", "team": "legal"}, false},
		{"skill=", nil, true},
		{"=steps", nil, true},
		{"skill=steps,broken", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			selector, err := agentrouter.ParseSelector(tt.selector)
			if tt.wantErr {
				require.ErrorIs(t, err, agentrouter.ErrInvalidSelector)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, selector)
		})
	}
}

func TestListExchanges(t *testing.T) {
	t.Parallel()

	ctx, cancel := testContext()
	defer cancel()

	store := &fakeStore{exchanges: []*agentrouter.Exchange{
		gen.Exchange(agentroutertest.WithExchangeSessionID("s1")),
		gen.Exchange(agentroutertest.WithExchangeSessionID("s2")),
	}}

	ar, err := agentrouter.New(&fakeRegistry{}, newFakeEmbedder(nil), nil, nil, store)
	require.NoError(t, err)

	exchanges, err := ar.ListExchanges(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, exchanges, 1)
	assert.Equal(t, "s1", exchanges[0].SessionID)
	assert.Equal(t, agentrouter.DefaultExchangeLimit, store.params.Limit)
	assert.Equal(t, agentrouter.SortOrderDesc, store.params.Order)

	_, err = ar.ListExchanges(ctx, "s1", agentrouter.MaxExchangeLimit+1)
	assert.Error(t, err)
}
