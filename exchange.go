package agentrouter

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/RichardKnop/agentrouter/pkg/envelope"
)

const (
	DefaultExchangeLimit = 20
	MaxExchangeLimit     = 100
)

type ExchangeID struct{ uuid.UUID }

func NewExchangeID() ExchangeID {
	return ExchangeID{uuid.Must(uuid.NewV4())}
}

// Exchange is one message and the envelope returned for it.
type Exchange struct {
	ID        ExchangeID
	SessionID string
	IOMode    string
	Message   string
	RouteTo   string
	Envelope  *envelope.Envelope
	Created   Time
}

type ExchangeFilter struct {
	SessionID string
}

func (ar *agentRouter) ListExchanges(ctx context.Context, sessionID string, limit int) ([]*Exchange, error) {
	if limit < 0 || limit > MaxExchangeLimit {
		return nil, fmt.Errorf("limit must be between 0 and %d", MaxExchangeLimit)
	}
	if limit == 0 {
		limit = DefaultExchangeLimit
	}

	var exchanges []*Exchange
	if err := ar.store.Transactional(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context) error {
		var err error
		exchanges, err = ar.store.ListExchanges(ctx, ExchangeFilter{SessionID: sessionID}, SortParams{
			Limit: limit,
			By:    `e."created"`,
			Order: SortOrderDesc,
		})
		if err != nil {
			return fmt.Errorf("list exchanges: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return exchanges, nil
}

type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

type SortParams struct {
	Limit int
	By    string
	Order SortOrder
}

// SQL renders the order by and limit clauses. Callers must only pass trusted column names in By.
func (p SortParams) SQL() string {
	var b strings.Builder
	if p.By != "" {
		fmt.Fprintf(&b, " order by %s", p.By)
		if p.Order != "" {
			fmt.Fprintf(&b, " %s", strings.ToLower(string(p.Order)))
		}
	}
	if p.Limit > 0 {
		fmt.Fprintf(&b, " limit %d", p.Limit)
	}
	return b.String()
}

const timeFormat = "2006-01-02T15:04:05.000Z"

// Time is stored as millisecond precision UTC text.
type Time struct {
	T time.Time
}

func (t Time) Value() (driver.Value, error) {
	if t.T.IsZero() {
		return nil, nil
	}
	return t.T.UTC().Format(timeFormat), nil
}

func (t *Time) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		t.T = time.Time{}
		return nil
	case time.Time:
		t.T = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	}
	return fmt.Errorf("cannot scan %T into Time", value)
}

func (t *Time) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return fmt.Errorf("parse time %q: %w", s, err)
	}
	t.T = parsed.UTC()
	return nil
}
