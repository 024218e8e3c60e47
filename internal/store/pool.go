// Package store persists decoded MRT records to Postgres.
package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/route-beacon/mrt-decoder/internal/metrics"
)

// NewPool opens and pings a Postgres connection pool sized for the
// decoder's batch-insert workload.
func NewPool(ctx context.Context, dsn string, maxConns, minConns int32) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	cfg.MaxConns = maxConns
	cfg.MinConns = minConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	metrics.DBPoolConns.WithLabelValues("max").Set(float64(maxConns))
	metrics.DBPoolConns.WithLabelValues("min").Set(float64(minConns))

	return pool, nil
}

// Ping reports whether the pool can currently reach Postgres.
// internal/health's readiness check calls the pool's own Ping method,
// not this function.
func Ping(ctx context.Context, pool *pgxpool.Pool) error {
	return pool.Ping(ctx)
}
