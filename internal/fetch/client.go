package fetch

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Client provides access to the market-data provider's REST API.
type Client struct {
	baseURL    string
	apiKey     string
	outputSize string
	httpClient *http.Client
	logger     *slog.Logger

	maxRetries   int
	retryBackoff time.Duration
	maxBackoff   time.Duration
	timer        backoff.Timer // nil means real time
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new provider API client.
func NewClient(baseURL, apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		apiKey:     apiKey,
		outputSize: "compact",
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		logger:       slog.Default(),
		maxRetries:   5,
		retryBackoff: time.Second,
		maxBackoff:   time.Minute,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the retry count and the initial backoff interval.
func WithRetries(max int, initial time.Duration) ClientOption {
	return func(c *Client) {
		c.maxRetries = max
		c.retryBackoff = initial
	}
}

// WithMaxBackoff caps the backoff interval between retries.
func WithMaxBackoff(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxBackoff = d
	}
}

// WithOutputSize sets the requested series size ("compact" or "full").
func WithOutputSize(size string) ClientOption {
	return func(c *Client) {
		c.outputSize = size
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimer replaces the backoff timer. Tests use this to make retry
// delays observable without sleeping.
func WithTimer(t backoff.Timer) ClientOption {
	return func(c *Client) {
		c.timer = t
	}
}
