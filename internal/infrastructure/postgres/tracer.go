package postgres

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/jhoicas/inventory-ledger/internal/domain"
)

var _ pgx.QueryTracer = (*queryTracer)(nil)

type queryStartKey struct{}

type queryStart struct {
	sql   string
	start time.Time
}

// queryTracer registra las consultas que fallan y las que superan slow. Los conflictos de
// bloqueo van a debug: el motor los reintenta y los reporta él mismo.
type queryTracer struct {
	log  zerolog.Logger
	slow time.Duration
	now  func() time.Time
}

func newQueryTracer(log zerolog.Logger, slow time.Duration) *queryTracer {
	return &queryTracer{log: log, slow: slow, now: time.Now}
}

func (t *queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{sql: data.SQL, start: t.now()})
}

func (t *queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	qs, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := t.now().Sub(qs.start)
	switch {
	case data.Err != nil && !errors.Is(data.Err, pgx.ErrNoRows):
		ev := t.log.Warn()
		if domain.IsRetryable(wrapErr("query", data.Err)) {
			ev = t.log.Debug()
		}
		ev.Err(data.Err).Str("sql", compactSQL(qs.sql)).Dur("elapsed", elapsed).Msg("consulta fallida")
	case t.slow > 0 && elapsed >= t.slow:
		t.log.Warn().
			Str("sql", compactSQL(qs.sql)).
			Dur("elapsed", elapsed).
			Int64("rows", data.CommandTag.RowsAffected()).
			Msg("consulta lenta")
	}
}

// compactSQL colapsa espacios para que la consulta quepa en una línea de log.
func compactSQL(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}
