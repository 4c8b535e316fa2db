package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"stockpipeline/internal/model"
)

const upsertSQL = `
	INSERT INTO stock_data (symbol, ts, open, high, low, close, volume, raw)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (symbol, ts) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume,
		raw = EXCLUDED.raw
`

// UpsertRows writes rows in chunks of at most BatchSize, each chunk in
// its own transaction so a failed chunk leaves no partial rows. Returns
// the number of rows durably written; on error, rows from chunks
// committed before the failure are counted.
func (s *Store) UpsertRows(ctx context.Context, rows []model.StockRow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	written := 0
	for _, chunk := range chunkRows(rows, s.cfg.BatchSize) {
		if err := s.upsertChunk(ctx, chunk); err != nil {
			return written, fmt.Errorf("upsert chunk of %d rows: %w", len(chunk), err)
		}
		written += len(chunk)
	}

	s.logger.Debug("upsert complete", "rows", written)
	return written, nil
}

// chunkRows splits rows into slices of at most size elements.
func chunkRows(rows []model.StockRow, size int) [][]model.StockRow {
	if size < 1 {
		size = len(rows)
	}
	var chunks [][]model.StockRow
	for len(rows) > size {
		chunks = append(chunks, rows[:size])
		rows = rows[size:]
	}
	if len(rows) > 0 {
		chunks = append(chunks, rows)
	}
	return chunks
}

// upsertChunk writes one chunk, retrying transient failures.
func (s *Store) upsertChunk(ctx context.Context, chunk []model.StockRow) error {
	op := func() error {
		err := s.writeChunk(ctx, chunk)
		if err == nil {
			return nil
		}
		if !transient(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, delay time.Duration) {
		s.logger.Warn("retrying batch upsert",
			"rows", len(chunk),
			"backoff", delay,
			"err", err,
		)
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = s.cfg.RetryBackoff
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0

	return backoff.RetryNotifyWithTimer(op,
		backoff.WithContext(backoff.WithMaxRetries(bo, uint64(s.cfg.MaxRetries)), ctx),
		notify, s.timer)
}

// writeChunk sends the chunk as one pgx batch inside a transaction.
func (s *Store) writeChunk(ctx context.Context, chunk []model.StockRow) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, r := range chunk {
		batch.Queue(upsertSQL, r.Symbol, r.Ts, r.Open, r.High, r.Low, r.Close, r.Volume, r.Raw)
	}

	results := tx.SendBatch(ctx, batch)
	for range chunk {
		if _, err := results.Exec(); err != nil {
			results.Close()
			return err
		}
	}
	if err := results.Close(); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// transient reports whether a store error is worth retrying.
func transient(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01": // serialization failure, deadlock detected
			return true
		}
		// Class 08: connection exceptions.
		return strings.HasPrefix(pgErr.Code, "08")
	}
	if pgconn.SafeToRetry(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, io.ErrUnexpectedEOF)
}
