package parse

import (
	"encoding/json"
	"errors"
	"sort"
	"strconv"
	"time"

	"github.com/guregu/null/v6"

	"stockpipeline/internal/fetch"
	"stockpipeline/internal/model"
)

// ErrNotDailySeries is returned when the payload as a whole is not a
// daily time series.
var ErrNotDailySeries = errors.New("response is not a daily time series")

// The provider prefixes field names with ordinal labels ("1. open");
// plain names are accepted as a fallback.
var (
	openKeys   = []string{"1. open", "open"}
	highKeys   = []string{"2. high", "high"}
	lowKeys    = []string{"3. low", "low"}
	closeKeys  = []string{"4. close", "close"}
	volumeKeys = []string{"6. volume", "5. volume", "volume"}
)

// DailyRows converts a fetched series into StockRows, returning the rows
// in ascending timestamp order plus the count of skipped entries. It
// never fails on a single bad entry; the only error condition is a
// payload that is not a series at all.
func DailyRows(symbol string, series *fetch.DailySeries) ([]model.StockRow, int, error) {
	if series == nil || series.Entries == nil {
		return nil, 0, ErrNotDailySeries
	}

	rows := make([]model.StockRow, 0, len(series.Entries))
	skipped := 0

	for key, raw := range series.Entries {
		ts, err := parseDateKey(key)
		if err != nil {
			skipped++
			continue
		}

		var fields map[string]string
		if err := json.Unmarshal(raw, &fields); err != nil {
			skipped++
			continue
		}

		rows = append(rows, model.StockRow{
			Symbol: symbol,
			Ts:     ts,
			Open:   floatField(fields, openKeys),
			High:   floatField(fields, highKeys),
			Low:    floatField(fields, lowKeys),
			Close:  floatField(fields, closeKeys),
			Volume: volumeField(fields),
			Raw:    raw,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		return rows[i].Ts.Before(rows[j].Ts)
	})

	return rows, skipped, nil
}

// parseDateKey parses a series date key in UTC. Daily keys are plain
// dates; datetime-shaped keys are accepted for tolerance.
func parseDateKey(key string) (time.Time, error) {
	ts, err := time.ParseInLocation("2006-01-02", key, time.UTC)
	if err == nil {
		return ts, nil
	}
	return time.ParseInLocation("2006-01-02 15:04:05", key, time.UTC)
}

func floatField(fields map[string]string, keys []string) null.Float {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		return null.FloatFrom(f)
	}
	return null.Float{}
}

func volumeField(fields map[string]string) null.Int {
	for _, key := range volumeKeys {
		v, ok := fields[key]
		if !ok || v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n < 0 {
			continue
		}
		return null.IntFrom(n)
	}
	return null.Int{}
}
