package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunRecord is one pipeline run's outcome, persisted so failed runs are
// visible outside the process logs.
type RunRecord struct {
	ID          uuid.UUID
	StartedAt   time.Time
	FinishedAt  time.Time
	Succeeded   bool
	RowsWritten int
	Warnings    []string
}

// RecordRun inserts a run-history row.
func (s *Store) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pipeline_runs (id, started_at, finished_at, succeeded, rows_written, warnings)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, rec.ID, rec.StartedAt, rec.FinishedAt, rec.Succeeded, rec.RowsWritten, rec.Warnings)
	if err != nil {
		return fmt.Errorf("record run %s: %w", rec.ID, err)
	}
	return nil
}
