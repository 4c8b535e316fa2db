package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"stockpipeline/internal/fetch"
	"stockpipeline/internal/model"
	"stockpipeline/internal/parse"
)

// Fetcher retrieves one symbol's raw daily series.
type Fetcher interface {
	GetDailySeries(ctx context.Context, symbol string) (*fetch.DailySeries, error)
}

// Writer persists normalized rows.
type Writer interface {
	UpsertRows(ctx context.Context, rows []model.StockRow) (int, error)
}

// Delayer gates the start of each symbol's fetch. *fetch.Pacer
// implements it.
type Delayer interface {
	Wait(ctx context.Context) error
}

// Config holds orchestrator settings.
type Config struct {
	Symbols []string
}

// RunResult is the contract reported to the invoking scheduler.
type RunResult struct {
	Succeeded   bool
	RowsWritten int
	Warnings    []string
}

// Pipeline runs fetch -> parse -> upsert per symbol.
type Pipeline struct {
	cfg     Config
	fetcher Fetcher
	writer  Writer
	pacer   Delayer
	logger  *slog.Logger
}

// New creates a Pipeline. pacer may be nil to disable inter-symbol delay.
func New(cfg Config, fetcher Fetcher, writer Writer, pacer Delayer, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		cfg:     cfg,
		fetcher: fetcher,
		writer:  writer,
		pacer:   pacer,
		logger:  logger,
	}
}

// Run processes every configured symbol sequentially. Cancellation takes
// effect between symbols; an in-flight fetch or write is left to finish
// or time out on its own.
func (p *Pipeline) Run(ctx context.Context) RunResult {
	start := time.Now()
	var res RunResult

	for i, symbol := range p.cfg.Symbols {
		if err := ctx.Err(); err != nil {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("run canceled with %d of %d symbols remaining", len(p.cfg.Symbols)-i, len(p.cfg.Symbols)))
			break
		}

		if p.pacer != nil {
			if err := p.pacer.Wait(ctx); err != nil {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("run canceled with %d of %d symbols remaining", len(p.cfg.Symbols)-i, len(p.cfg.Symbols)))
				break
			}
		}

		p.logger.Info("processing symbol",
			"symbol", symbol,
			"position", fmt.Sprintf("%d/%d", i+1, len(p.cfg.Symbols)),
		)

		written, skipped, err := p.runSymbol(ctx, symbol)
		if err != nil {
			p.logger.Error("symbol failed", "symbol", symbol, "err", err)
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %v", symbol, err))
			// Chunks committed before a write failure are durable.
			res.RowsWritten += written
			continue
		}

		if skipped > 0 {
			res.Warnings = append(res.Warnings,
				fmt.Sprintf("%s: skipped %d malformed entries", symbol, skipped))
		}
		res.RowsWritten += written
	}

	res.Succeeded = res.RowsWritten > 0

	p.logger.Info("run complete",
		"succeeded", res.Succeeded,
		"rows_written", res.RowsWritten,
		"warnings", len(res.Warnings),
		"duration", time.Since(start),
	)

	return res
}

// runSymbol executes fetch -> parse -> upsert for one symbol.
func (p *Pipeline) runSymbol(ctx context.Context, symbol string) (written, skipped int, err error) {
	series, err := p.fetcher.GetDailySeries(ctx, symbol)
	if err != nil {
		return 0, 0, err
	}

	rows, skipped, err := parse.DailyRows(symbol, series)
	if err != nil {
		return 0, 0, fmt.Errorf("parse %s: %w", symbol, err)
	}

	if len(rows) == 0 {
		p.logger.Warn("no rows parsed", "symbol", symbol, "skipped", skipped)
		return 0, skipped, nil
	}

	written, err = p.writer.UpsertRows(ctx, rows)
	if err != nil {
		return written, skipped, fmt.Errorf("write %s: %w", symbol, err)
	}

	p.logger.Info("symbol ingested",
		"symbol", symbol,
		"rows", written,
		"skipped", skipped,
	)
	return written, skipped, nil
}
