package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// APIError represents a transport-level error from the provider.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if the error should trigger a retry.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

// RateLimitError is the provider throttling us in-band: HTTP 200 with a
// "Note" payload instead of data. Retryable after backoff.
type RateLimitError struct {
	Note string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider rate limited: %s", e.Note)
}

// ProviderError is an explicit error object from the provider, such as
// an unknown symbol. Never retried.
type ProviderError struct {
	Message string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider error: %s", e.Message)
}

// UnexpectedResponseError is an HTTP 200 payload that carries neither a
// time series nor a recognized error marker.
type UnexpectedResponseError struct {
	Keys []string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response shape, top-level keys: %s", strings.Join(e.Keys, ", "))
}

// MalformedBodyError is a body that did not decode as JSON at all.
// Never retried: the provider answered 200 with garbage.
type MalformedBodyError struct {
	Err error
}

func (e *MalformedBodyError) Error() string {
	return fmt.Sprintf("malformed response body: %v", e.Err)
}

func (e *MalformedBodyError) Unwrap() error { return e.Err }

// doRequest performs a single GET against the provider endpoint.
func (c *Client) doRequest(ctx context.Context, query url.Values) ([]byte, error) {
	fullURL := c.baseURL
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Message:    http.StatusText(resp.StatusCode),
			Body:       body,
		}
	}

	return body, nil
}

// retryable reports whether a fetch failure is worth another attempt.
// Transport errors, 5xx/429, in-band rate limits, and unexpected shapes
// are transient; explicit provider errors, other 4xx, and undecodable
// bodies are permanent.
func retryable(err error) bool {
	var provErr *ProviderError
	if errors.As(err, &provErr) {
		return false
	}
	var bodyErr *MalformedBodyError
	if errors.As(err, &bodyErr) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}
	return true
}
