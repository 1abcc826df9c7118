package agentroutertest

import (
	"time"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

type ExchangeOption func(*agentrouter.Exchange)

func WithExchangeSessionID(id string) ExchangeOption {
	return func(e *agentrouter.Exchange) {
		e.SessionID = id
	}
}

func WithExchangeCreated(created time.Time) ExchangeOption {
	return func(e *agentrouter.Exchange) {
		e.Created = agentrouter.Time{T: created}
	}
}

func (g *DataGen) Exchange(options ...ExchangeOption) *agentrouter.Exchange {
	env := envelope.New(g.Sentence(10), envelope.Snippet{
		ID:         envelope.Ptr(1),
		Rank:       envelope.Ptr(1),
		DocID:      g.LetterN(16),
		Page:       g.IntRange(1, 40),
		HeaderPath: g.Word(),
		Text:       g.Sentence(12),
	})
	env.AddAlert(envelope.AlertLevelInfo, g.Sentence(6))

	anExchange := agentrouter.Exchange{
		ID:        agentrouter.NewExchangeID(),
		SessionID: g.UUID(),
		IOMode:    agentrouter.DefaultIOMode,
		Message:   g.Question(),
		RouteTo:   agentrouter.DefaultAgentName,
		Envelope:  env,
		Created:   agentrouter.Time{T: g.now},
	}

	for _, o := range options {
		o(&anExchange)
	}

	return &anExchange
}
