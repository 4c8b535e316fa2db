package schedule

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"stockpipeline/internal/pipeline"
	"stockpipeline/internal/store"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context) pipeline.RunResult
}

// RunRecorder persists run outcomes. *store.Store implements it.
type RunRecorder interface {
	RecordRun(ctx context.Context, rec store.RunRecord) error
}

// Scheduler triggers pipeline runs on a cron cadence.
type Scheduler struct {
	cron       *cron.Cron
	runner     Runner
	recorder   RunRecorder
	runTimeout time.Duration
	logger     *slog.Logger

	// runMu serializes runs so a slow run cannot overlap the next firing.
	runMu sync.Mutex

	mu   sync.Mutex
	last *pipeline.RunResult
}

// New creates a Scheduler. recorder may be nil to skip run history.
func New(runner Runner, recorder RunRecorder, runTimeout time.Duration, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(time.UTC)),
		runner:     runner,
		recorder:   recorder,
		runTimeout: runTimeout,
		logger:     logger,
	}
}

// Register adds the pipeline job under the given cron expression.
func (s *Scheduler) Register(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.RunNow(context.Background())
	})
	if err != nil {
		return fmt.Errorf("register schedule %q: %w", spec, err)
	}
	return nil
}

// Start begins the cron loop.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started")
}

// Stop stops the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
}

// RunNow executes one pipeline run immediately, records it, and returns
// the result. A run in progress is joined behind, never overlapped.
func (s *Scheduler) RunNow(ctx context.Context) pipeline.RunResult {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	id := uuid.New()
	started := time.Now().UTC()

	runCtx := ctx
	if s.runTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.runTimeout)
		defer cancel()
	}

	s.logger.Info("run starting", "run_id", id)
	res := s.runner.Run(runCtx)
	finished := time.Now().UTC()

	if res.Succeeded {
		s.logger.Info("run succeeded",
			"run_id", id,
			"rows_written", res.RowsWritten,
			"warnings", len(res.Warnings),
		)
	} else {
		// Surfaced as a failed run: error log, persisted failure row,
		// and a false Succeeded for the caller.
		s.logger.Error("run failed: no rows written for any symbol",
			"run_id", id,
			"warnings", res.Warnings,
		)
	}

	if s.recorder != nil {
		rec := store.RunRecord{
			ID:          id,
			StartedAt:   started,
			FinishedAt:  finished,
			Succeeded:   res.Succeeded,
			RowsWritten: res.RowsWritten,
			Warnings:    res.Warnings,
		}
		// Recording is best effort; the run outcome stands either way.
		recordCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.recorder.RecordRun(recordCtx, rec); err != nil {
			s.logger.Error("failed to record run", "run_id", id, "err", err)
		}
	}

	s.mu.Lock()
	s.last = &res
	s.mu.Unlock()

	return res
}

// LastResult returns the most recent run result, if any.
func (s *Scheduler) LastResult() (pipeline.RunResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return pipeline.RunResult{}, false
	}
	return *s.last, true
}
