package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/agentroutertest"
	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

var testNow = time.Date(2026, 10, 19, 9, 30, 0, 0, time.UTC)

func (s *StoreTestSuite) TestSaveExchange() {
	ctx, cancel := testContext()
	defer cancel()

	gen := agentroutertest.New(1, testNow)
	anExchange := gen.Exchange()

	err := s.adapter.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		return s.adapter.SaveExchange(ctx, anExchange)
	})
	s.Require().NoError(err)

	var exchanges []*agentrouter.Exchange
	err = s.adapter.Transactional(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context) error {
		var err error
		exchanges, err = s.adapter.ListExchanges(ctx, agentrouter.ExchangeFilter{SessionID: anExchange.SessionID}, agentrouter.SortParams{})
		return err
	})
	s.Require().NoError(err)
	s.Require().Len(exchanges, 1)
	s.Equal(anExchange, exchanges[0])
}

func (s *StoreTestSuite) TestSaveExchange_DuplicateID() {
	ctx, cancel := testContext()
	defer cancel()

	anExchange := agentroutertest.New(2, testNow).Exchange()

	err := s.adapter.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := s.adapter.SaveExchange(ctx, anExchange); err != nil {
			return err
		}
		return s.adapter.SaveExchange(ctx, anExchange)
	})
	s.Require().Error(err)
}

func (s *StoreTestSuite) TestSaveExchange_NoTransaction() {
	ctx, cancel := testContext()
	defer cancel()

	err := s.adapter.SaveExchange(ctx, agentroutertest.New(3, testNow).Exchange())
	s.Require().Error(err)
	s.Contains(err.Error(), "no transaction found in context")
}

func (s *StoreTestSuite) TestTransactional_Rollback() {
	ctx, cancel := testContext()
	defer cancel()

	var (
		anExchange = agentroutertest.New(4, testNow).Exchange()
		errAbort   = errors.New("abort")
	)

	err := s.adapter.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		if err := s.adapter.SaveExchange(ctx, anExchange); err != nil {
			return err
		}
		return errAbort
	})
	s.Require().ErrorIs(err, errAbort)

	var exchanges []*agentrouter.Exchange
	err = s.adapter.Transactional(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context) error {
		var err error
		exchanges, err = s.adapter.ListExchanges(ctx, agentrouter.ExchangeFilter{SessionID: anExchange.SessionID}, agentrouter.SortParams{})
		return err
	})
	s.Require().NoError(err)
	s.Empty(exchanges)
}

func (s *StoreTestSuite) TestListExchanges() {
	ctx, cancel := testContext()
	defer cancel()

	var (
		gen       = agentroutertest.New(5, testNow)
		exchange1 = gen.Exchange(
			agentroutertest.WithExchangeSessionID("session-a"),
			agentroutertest.WithExchangeCreated(testNow.Add(-2*time.Minute)),
		)
		exchange2 = gen.Exchange(
			agentroutertest.WithExchangeSessionID("session-a"),
			agentroutertest.WithExchangeCreated(testNow.Add(-1*time.Minute)),
		)
		exchange3 = gen.Exchange(
			agentroutertest.WithExchangeSessionID("session-b"),
		)
		exchange4 = gen.Exchange(
			agentroutertest.WithExchangeSessionID("session-a"),
			agentroutertest.WithExchangeCreated(testNow.Add(-1*time.Minute)),
		)
	)

	err := s.adapter.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		for _, anExchange := range []*agentrouter.Exchange{exchange1, exchange2, exchange3, exchange4} {
			if err := s.adapter.SaveExchange(ctx, anExchange); err != nil {
				return err
			}
		}
		return nil
	})
	s.Require().NoError(err)

	testCases := []struct {
		Name     string
		Filter   agentrouter.ExchangeFilter
		Params   agentrouter.SortParams
		Expected []*agentrouter.Exchange
	}{
		{
			"newest first within a session",
			agentrouter.ExchangeFilter{SessionID: "session-a"},
			agentrouter.SortParams{By: `e."created"`, Order: agentrouter.SortOrderDesc},
			[]*agentrouter.Exchange{exchange4, exchange2, exchange1},
		},
		{
			"oldest first with a limit",
			agentrouter.ExchangeFilter{SessionID: "session-a"},
			agentrouter.SortParams{By: `e."created"`, Order: agentrouter.SortOrderAsc, Limit: 2},
			[]*agentrouter.Exchange{exchange1, exchange2},
		},
		{
			"all sessions",
			agentrouter.ExchangeFilter{},
			agentrouter.SortParams{By: `e."created"`, Order: agentrouter.SortOrderDesc, Limit: 1},
			[]*agentrouter.Exchange{exchange3},
		},
		{
			"unknown session",
			agentrouter.ExchangeFilter{SessionID: "session-z"},
			agentrouter.SortParams{},
			nil,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.Name, func() {
			var exchanges []*agentrouter.Exchange
			err := s.adapter.Transactional(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context) error {
				var err error
				exchanges, err = s.adapter.ListExchanges(ctx, tc.Filter, tc.Params)
				return err
			})
			s.Require().NoError(err)
			s.Equal(tc.Expected, exchanges)
		})
	}
}

func (s *StoreTestSuite) TestSaveExchange_UnencodableEnvelope() {
	ctx, cancel := testContext()
	defer cancel()

	anExchange := agentroutertest.New(6, testNow).Exchange()
	anExchange.Envelope.Tables = []envelope.Table{{
		Title:   "scores",
		Columns: []string{"score"},
		Rows:    [][]any{{math.NaN()}},
	}}

	err := s.adapter.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		return s.adapter.SaveExchange(ctx, anExchange)
	})
	s.Require().Error(err)
	s.Contains(err.Error(), "marshal envelope of exchange "+anExchange.ID)

	var count int
	s.Require().NoError(s.db.QueryRowContext(ctx, `select count(*) from "exchange"`).Scan(&count))
	s.Equal(0, count)
}

func (s *StoreTestSuite) TestListExchanges_SkipsUnreadableEnvelopes() {
	ctx, cancel := testContext()
	defer cancel()

	var (
		gen       = agentroutertest.New(7, testNow)
		readable  = gen.Exchange(agentroutertest.WithExchangeSessionID("session-a"))
		malformed = gen.Exchange(agentroutertest.WithExchangeSessionID("session-a"))
		invalid   = gen.Exchange(agentroutertest.WithExchangeSessionID("session-a"))
	)

	err := s.adapter.Transactional(ctx, &sql.TxOptions{}, func(ctx context.Context) error {
		return s.adapter.SaveExchange(ctx, readable)
	})
	s.Require().NoError(err)

	for _, row := range []struct {
		exchange *agentrouter.Exchange
		data     string
	}{
		{malformed, `{"version":"0.2"`},
		{invalid, `{"version":"0.2","display_text":"hi"}`},
	} {
		_, err := s.db.ExecContext(ctx,
			`insert into "exchange" ("id", "session", "io_mode", "message", "route_to", "envelope", "created") values (?, ?, ?, ?, ?, ?, ?)`,
			row.exchange.ID, row.exchange.SessionID, row.exchange.IOMode, row.exchange.Message, row.exchange.RouteTo, row.data, row.exchange.Created,
		)
		s.Require().NoError(err)
	}

	var exchanges []*agentrouter.Exchange
	err = s.adapter.Transactional(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context) error {
		var err error
		exchanges, err = s.adapter.ListExchanges(ctx, agentrouter.ExchangeFilter{SessionID: "session-a"}, agentrouter.SortParams{})
		return err
	})
	s.Require().NoError(err)
	s.Equal([]*agentrouter.Exchange{readable}, exchanges)
}
