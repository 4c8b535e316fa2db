package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DailySeries is one symbol's raw daily time series as returned by the
// provider: a mapping from date key to the unparsed JSON fragment for
// that date. It lives only between a fetch and the parse that consumes it.
type DailySeries struct {
	Symbol  string
	Entries map[string]json.RawMessage
}

// Len returns the number of date entries.
func (s *DailySeries) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Entries)
}

// GetDailySeries fetches the daily time series for one symbol, retrying
// transient failures with exponential backoff. After exhausting retries
// the returned error wraps the last cause.
func (c *Client) GetDailySeries(ctx context.Context, symbol string) (*DailySeries, error) {
	symbol = strings.TrimSpace(symbol)

	var series *DailySeries
	op := func() error {
		s, err := c.fetchOnce(ctx, symbol)
		if err != nil {
			if !retryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		series = s
		return nil
	}

	notify := func(err error, delay time.Duration) {
		c.logger.Warn("retrying fetch",
			"symbol", symbol,
			"backoff", delay,
			"err", err,
		)
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries)), ctx)
	if err := backoff.RetryNotifyWithTimer(op, bo, notify, c.timer); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}

	return series, nil
}

// fetchOnce performs one request/classify cycle for a symbol.
func (c *Client) fetchOnce(ctx context.Context, symbol string) (*DailySeries, error) {
	query := url.Values{
		"function":   {"TIME_SERIES_DAILY_ADJUSTED"},
		"symbol":     {symbol},
		"outputsize": {c.outputSize},
		"apikey":     {c.apiKey},
	}

	body, err := c.doRequest(ctx, query)
	if err != nil {
		return nil, err
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedBodyError{Err: err}
	}

	// The provider signals throttling with HTTP 200 and a "Note" (or
	// "Information") payload instead of data.
	for _, key := range []string{"Note", "Information"} {
		if raw, ok := payload[key]; ok {
			var note string
			_ = json.Unmarshal(raw, &note)
			return nil, &RateLimitError{Note: note}
		}
	}

	if raw, ok := payload["Error Message"]; ok {
		var msg string
		_ = json.Unmarshal(raw, &msg)
		return nil, &ProviderError{Message: msg}
	}

	for key, raw := range payload {
		if !strings.HasPrefix(key, "Time Series") {
			continue
		}
		var entries map[string]json.RawMessage
		if err := json.Unmarshal(raw, &entries); err != nil {
			return nil, &MalformedBodyError{Err: fmt.Errorf("decode %q: %w", key, err)}
		}
		return &DailySeries{Symbol: symbol, Entries: entries}, nil
	}

	keys := make([]string, 0, len(payload))
	for key := range payload {
		keys = append(keys, key)
	}
	return nil, &UnexpectedResponseError{Keys: keys}
}

func (c *Client) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = c.retryBackoff
	bo.MaxInterval = c.maxBackoff
	bo.Multiplier = 2
	bo.MaxElapsedTime = 0
	return bo
}
