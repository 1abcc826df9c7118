package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/RichardKnop/agentrouter"
	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

func (a *Adapter) SaveExchange(ctx context.Context, exchange *agentrouter.Exchange) error {
	data, err := envelope.Marshal(exchange.Envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope of exchange %s: %w", exchange.ID, err)
	}

	return a.inTxDo(ctx, func(ctx context.Context, tx *sql.Tx) error {
		if err := execQueryCheckRowsAffected(ctx, tx, insertExchangeQuery{exchange: exchange, envelope: data}); err != nil {
			return fmt.Errorf("exec insert exchange query failed: %w", err)
		}
		return nil
	})
}

type insertExchangeQuery struct {
	exchange *agentrouter.Exchange
	envelope []byte
}

func (q insertExchangeQuery) SQL() (string, []any) {
	query := `
		insert into "exchange" (
			"id",
			"session",
			"io_mode",
			"message",
			"route_to",
			"envelope",
			"created"
		)
		values (?, ?, ?, ?, ?, ?, ?)
	`
	args := []any{
		q.exchange.ID,
		q.exchange.SessionID,
		q.exchange.IOMode,
		q.exchange.Message,
		q.exchange.RouteTo,
		string(q.envelope),
		q.exchange.Created,
	}

	return query, args
}

func (a *Adapter) ListExchanges(ctx context.Context, filter agentrouter.ExchangeFilter, params agentrouter.SortParams) ([]*agentrouter.Exchange, error) {
	var exchanges []*agentrouter.Exchange

	if err := a.inTxDo(ctx, func(ctx context.Context, tx *sql.Tx) error {
		query, args := selectExchangesQuery{
			filter: filter,
			params: params,
		}.SQL()

		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("select exchanges query failed: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			anExchange, err := scanExchange(rows)
			if errors.Is(err, envelope.ErrInvalid) || errors.Is(err, envelope.ErrMalformed) {
				a.logger.Sugar().With("error", err).Warn("skipping exchange with unreadable envelope")
				continue
			}
			if err != nil {
				return fmt.Errorf("scan exchange failed: %w", err)
			}
			exchanges = append(exchanges, anExchange)
		}

		return rows.Err()
	}); err != nil {
		return nil, err
	}

	return exchanges, nil
}

type selectExchangesQuery struct {
	filter agentrouter.ExchangeFilter
	params agentrouter.SortParams
}

func (q selectExchangesQuery) SQL() (string, []any) {
	query := `
		select
			e."id",
			e."session",
			e."io_mode",
			e."message",
			e."route_to",
			e."envelope",
			e."created"
		from "exchange" e
	`

	where, args := exchangeFilterClauses(q.filter)
	if where != "" {
		query += " where " + where
	}

	// rowid breaks ties between exchanges created within the same millisecond
	if q.params.By != "" && q.params.Order != "" {
		q.params.By = fmt.Sprintf(`%s %s, e.rowid`, q.params.By, strings.ToLower(string(q.params.Order)))
	}

	query += q.params.SQL()

	return query, args
}

func exchangeFilterClauses(filter agentrouter.ExchangeFilter) (string, []any) {
	var (
		clauses = []string{}
		args    = []any{}
	)

	if filter.SessionID != "" {
		clauses = append(clauses, `e."session" = ?`)
		args = append(args, filter.SessionID)
	}

	if len(clauses) == 0 {
		return "", nil
	}

	return strings.Join(clauses, " and "), args
}

func scanExchange(row Scannable) (*agentrouter.Exchange, error) {
	var (
		anExchange = new(agentrouter.Exchange)
		data       string
	)
	if err := row.Scan(
		&anExchange.ID,
		&anExchange.SessionID,
		&anExchange.IOMode,
		&anExchange.Message,
		&anExchange.RouteTo,
		&data,
		&anExchange.Created,
	); err != nil {
		return nil, err
	}

	env, err := envelope.Parse([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("parse envelope of exchange %s: %w", anExchange.ID, err)
	}
	anExchange.Envelope = env

	return anExchange, nil
}
