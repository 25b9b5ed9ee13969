// Package postgres stores region boundaries and evaluation sessions.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/estatemap/internal/pkg/metrics"
)

// slowQuery is the latency above which a statement is logged.
const slowQuery = 250 * time.Millisecond

// DB wraps the shared pgx pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New connects a pool and pings it. maxConns <= 0 keeps the pgx default.
func New(ctx context.Context, dsn string, maxConns int32) (*DB, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = maxConns
	}
	cfg.HealthCheckPeriod = 30 * time.Second
	cfg.ConnConfig.RuntimeParams["application_name"] = "estatemap"
	cfg.ConnConfig.Tracer = queryTracer{}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return &DB{Pool: pool}, nil
}

func (db *DB) Stat() *pgxpool.Stat { return db.Pool.Stat() }

func (db *DB) Close() { db.Pool.Close() }

type queryStartKey struct{}

type queryStart struct {
	at  time.Time
	sql string
}

// queryTracer observes every statement and logs the slow ones.
type queryTracer struct{}

func (queryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	return context.WithValue(ctx, queryStartKey{}, queryStart{at: time.Now(), sql: data.SQL})
}

func (queryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	start, ok := ctx.Value(queryStartKey{}).(queryStart)
	if !ok {
		return
	}
	elapsed := time.Since(start.at)

	outcome := "ok"
	if data.Err != nil {
		outcome = "error"
	}
	metrics.DBQueryDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	if elapsed >= slowQuery {
		slog.WarnContext(ctx, "slow query", "elapsed", elapsed.String(), "sql", compact(start.sql), "rows", data.CommandTag.RowsAffected())
	}
}

// compact shortens a statement for logging.
func compact(sql string) string {
	const limit = 160
	out := make([]byte, 0, min(len(sql), limit))
	space := false
	for i := 0; i < len(sql) && len(out) < limit; i++ {
		ch := sql[i]
		if ch == '\n' || ch == '\t' || ch == ' ' {
			if !space && len(out) > 0 {
				out = append(out, ' ')
			}
			space = true
			continue
		}
		space = false
		out = append(out, ch)
	}
	return string(out)
}
