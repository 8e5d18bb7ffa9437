package observability

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ObserveDB times fn under the logical operation name op ("users.get", ...).
// A missing row is an outcome, not a DB error.
func (p *Prom) ObserveDB(op string, fn func() error) error {
	start := time.Now()
	err := fn()

	status := "ok"

	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		status = "no_rows"
	default:
		status = "error"
		p.DbErrorsTotal.WithLabelValues(op, classifyDBErr(err)).Inc()
	}

	p.DbQueryDuration.WithLabelValues(op, status).Observe(time.Since(start).Seconds())
	return err
}

func classifyDBErr(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "22P02":
			return "invalid_text_representation"
		case "23502":
			return "not_null_violation"
		case "23505":
			return "unique_violation"
		case "42P01":
			return "undefined_table"
		case "57014":
			return "query_canceled"
		default:
			return "pg_" + pgErr.Code
		}
	}

	var connErr *pgconn.ConnectError

	switch {
	case errors.Is(err, context.Canceled):
		return "canceled"
	case pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.As(err, &connErr) || strings.Contains(strings.ToLower(err.Error()), "connect"):
		return "connection"
	default:
		return "unknown"
	}
}
