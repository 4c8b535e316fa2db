package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgxpool"

	"stockpipeline/internal/config"
)

// Store wraps the connection pool and writer settings for a run.
type Store struct {
	pool   *pgxpool.Pool
	cfg    config.WriterConfig
	logger *slog.Logger
	timer  backoff.Timer // nil means real time
}

// Open connects to the database and pings it.
func Open(ctx context.Context, dbCfg config.DBConfig, wCfg config.WriterConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	poolCfg, err := pgxpool.ParseConfig(ConnString(dbCfg))
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	if dbCfg.MinConns > 0 {
		poolCfg.MinConns = int32(dbCfg.MinConns)
	}
	if dbCfg.MaxConns > 0 {
		poolCfg.MaxConns = int32(dbCfg.MaxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool, cfg: wCfg, logger: logger}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Ping verifies the connection is healthy.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS stock_data (
	id SERIAL PRIMARY KEY,
	symbol TEXT NOT NULL,
	ts TIMESTAMPTZ NOT NULL,
	open NUMERIC,
	high NUMERIC,
	low NUMERIC,
	close NUMERIC,
	volume BIGINT,
	raw JSONB,
	UNIQUE (symbol, ts)
);

CREATE TABLE IF NOT EXISTS pipeline_runs (
	id UUID PRIMARY KEY,
	started_at TIMESTAMPTZ NOT NULL,
	finished_at TIMESTAMPTZ NOT NULL,
	succeeded BOOLEAN NOT NULL,
	rows_written BIGINT NOT NULL,
	warnings TEXT[]
);
`

// EnsureSchema creates the tables if they do not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
