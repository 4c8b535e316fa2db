package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"stockpipeline/internal/fetch"
	"stockpipeline/internal/model"
)

// fakeFetcher serves canned series or errors per symbol.
type fakeFetcher struct {
	series map[string]*fetch.DailySeries
	errs   map[string]error
	calls  []string
}

func (f *fakeFetcher) GetDailySeries(ctx context.Context, symbol string) (*fetch.DailySeries, error) {
	f.calls = append(f.calls, symbol)
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.series[symbol], nil
}

// fakeWriter records upserts and optionally fails.
type fakeWriter struct {
	err  error
	rows []model.StockRow
}

func (w *fakeWriter) UpsertRows(ctx context.Context, rows []model.StockRow) (int, error) {
	if w.err != nil {
		return 0, w.err
	}
	w.rows = append(w.rows, rows...)
	return len(rows), nil
}

// fakeDelayer counts Wait calls.
type fakeDelayer struct {
	calls int
	err   error
}

func (d *fakeDelayer) Wait(ctx context.Context) error {
	d.calls++
	return d.err
}

func goodSeries(symbol string, dates ...string) *fetch.DailySeries {
	entries := map[string]json.RawMessage{}
	for _, d := range dates {
		entries[d] = json.RawMessage(`{"1. open": "1.0", "2. high": "2.0", "3. low": "0.5", "4. close": "1.5", "6. volume": "100"}`)
	}
	return &fetch.DailySeries{Symbol: symbol, Entries: entries}
}

func TestRun_AllSymbolsSucceed(t *testing.T) {
	fetcher := &fakeFetcher{series: map[string]*fetch.DailySeries{
		"AAPL": goodSeries("AAPL", "2024-01-02", "2024-01-03"),
		"MSFT": goodSeries("MSFT", "2024-01-02"),
	}}
	writer := &fakeWriter{}

	p := New(Config{Symbols: []string{"AAPL", "MSFT"}}, fetcher, writer, nil, nil)
	res := p.Run(context.Background())

	require.True(t, res.Succeeded)
	require.Equal(t, 3, res.RowsWritten)
	require.Empty(t, res.Warnings)
	require.Len(t, writer.rows, 3)
}

func TestRun_AllSymbolsFail(t *testing.T) {
	boom := errors.New("exhausted retries")
	fetcher := &fakeFetcher{errs: map[string]error{
		"AAPL": boom,
		"MSFT": boom,
	}}
	writer := &fakeWriter{}

	p := New(Config{Symbols: []string{"AAPL", "MSFT"}}, fetcher, writer, nil, nil)
	res := p.Run(context.Background())

	require.False(t, res.Succeeded)
	require.Zero(t, res.RowsWritten)
	require.Len(t, res.Warnings, 2)
	require.Contains(t, res.Warnings[0], "AAPL")
	require.Contains(t, res.Warnings[1], "MSFT")
}

func TestRun_OneFailureDoesNotAbortSiblings(t *testing.T) {
	fetcher := &fakeFetcher{
		series: map[string]*fetch.DailySeries{
			"MSFT": goodSeries("MSFT", "2024-01-02"),
		},
		errs: map[string]error{
			"AAPL": errors.New("exhausted retries"),
		},
	}
	writer := &fakeWriter{}

	p := New(Config{Symbols: []string{"AAPL", "MSFT"}}, fetcher, writer, nil, nil)
	res := p.Run(context.Background())

	require.True(t, res.Succeeded, "one good symbol makes the run succeed")
	require.Equal(t, 1, res.RowsWritten)
	require.Len(t, res.Warnings, 1)
	require.Equal(t, []string{"AAPL", "MSFT"}, fetcher.calls)
}

func TestRun_WriteFailureIsPerSymbol(t *testing.T) {
	fetcher := &fakeFetcher{series: map[string]*fetch.DailySeries{
		"AAPL": goodSeries("AAPL", "2024-01-02"),
	}}
	writer := &fakeWriter{err: errors.New("store unavailable")}

	p := New(Config{Symbols: []string{"AAPL"}}, fetcher, writer, nil, nil)
	res := p.Run(context.Background())

	require.False(t, res.Succeeded)
	require.Zero(t, res.RowsWritten)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "store unavailable")
}

func TestRun_SkippedEntriesBecomeWarnings(t *testing.T) {
	series := goodSeries("AAPL", "2024-01-02")
	series.Entries["not-a-date"] = json.RawMessage(`{"1. open": "1.0"}`)

	fetcher := &fakeFetcher{series: map[string]*fetch.DailySeries{"AAPL": series}}
	writer := &fakeWriter{}

	p := New(Config{Symbols: []string{"AAPL"}}, fetcher, writer, nil, nil)
	res := p.Run(context.Background())

	require.True(t, res.Succeeded)
	require.Equal(t, 1, res.RowsWritten)
	require.Len(t, res.Warnings, 1)
	require.Contains(t, res.Warnings[0], "skipped 1 malformed entries")
}

func TestRun_EmptySeriesIsNotAnError(t *testing.T) {
	fetcher := &fakeFetcher{series: map[string]*fetch.DailySeries{
		"AAPL": {Symbol: "AAPL", Entries: map[string]json.RawMessage{}},
	}}
	writer := &fakeWriter{}

	p := New(Config{Symbols: []string{"AAPL"}}, fetcher, writer, nil, nil)
	res := p.Run(context.Background())

	// Zero rows across the whole run still escalates to failure.
	require.False(t, res.Succeeded)
	require.Zero(t, res.RowsWritten)
	require.Empty(t, writer.rows)
}

func TestRun_PacerGatesEverySymbol(t *testing.T) {
	fetcher := &fakeFetcher{series: map[string]*fetch.DailySeries{
		"AAPL": goodSeries("AAPL", "2024-01-02"),
		"MSFT": goodSeries("MSFT", "2024-01-02"),
		"GOOG": goodSeries("GOOG", "2024-01-02"),
	}}
	writer := &fakeWriter{}
	pacer := &fakeDelayer{}

	p := New(Config{Symbols: []string{"AAPL", "MSFT", "GOOG"}}, fetcher, writer, pacer, nil)
	res := p.Run(context.Background())

	require.True(t, res.Succeeded)
	require.Equal(t, 3, pacer.calls)
}

func TestRun_CancellationBetweenSymbols(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	fetcher := &fakeFetcher{series: map[string]*fetch.DailySeries{
		"AAPL": goodSeries("AAPL", "2024-01-02"),
		"MSFT": goodSeries("MSFT", "2024-01-02"),
	}}
	// Cancel as soon as the first symbol's rows are written.
	writer := &cancelingWriter{cancel: cancel}

	p := New(Config{Symbols: []string{"AAPL", "MSFT"}}, fetcher, writer, nil, nil)
	res := p.Run(ctx)

	require.Equal(t, []string{"AAPL"}, fetcher.calls, "MSFT must not start after cancellation")
	require.Equal(t, 1, res.RowsWritten)
	require.NotEmpty(t, res.Warnings)
	require.Contains(t, res.Warnings[0], "canceled")
}

type cancelingWriter struct {
	cancel context.CancelFunc
}

func (w *cancelingWriter) UpsertRows(ctx context.Context, rows []model.StockRow) (int, error) {
	w.cancel()
	return len(rows), nil
}

func TestRun_CanceledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	fetcher := &fakeFetcher{}
	p := New(Config{Symbols: []string{"AAPL"}}, fetcher, &fakeWriter{}, nil, nil)
	res := p.Run(ctx)

	require.False(t, res.Succeeded)
	require.Empty(t, fetcher.calls)
	require.NotEmpty(t, res.Warnings)
}
