package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBaseURL      = "https://www.alphavantage.co/query"
	DefaultOutputSize   = "compact"
	DefaultAPITimeout   = 15 * time.Second
	DefaultMaxRetries   = 5
	DefaultRetryBackoff = 1 * time.Second
	DefaultMaxBackoff   = 60 * time.Second

	DefaultCron        = "0 6 * * *"
	DefaultPoliteDelay = 12 * time.Second
	DefaultRunTimeout  = 30 * time.Minute

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 5
	DefaultMinConns  = 1

	DefaultBatchSize     = 200
	DefaultWriterRetries = 3
	DefaultWriterBackoff = 1 * time.Second

	DefaultHealthPort = 8080
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.OutputSize == "" {
		c.API.OutputSize = DefaultOutputSize
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.MaxRetries == 0 {
		c.API.MaxRetries = DefaultMaxRetries
	}
	if c.API.RetryBackoff == 0 {
		c.API.RetryBackoff = DefaultRetryBackoff
	}
	if c.API.MaxBackoff == 0 {
		c.API.MaxBackoff = DefaultMaxBackoff
	}

	// Schedule defaults
	if c.Schedule.Cron == "" {
		c.Schedule.Cron = DefaultCron
	}
	if c.Schedule.PoliteDelay == 0 {
		c.Schedule.PoliteDelay = DefaultPoliteDelay
	}
	if c.Schedule.RunTimeout == 0 {
		c.Schedule.RunTimeout = DefaultRunTimeout
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Writer defaults
	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.MaxRetries == 0 {
		c.Writer.MaxRetries = DefaultWriterRetries
	}
	if c.Writer.RetryBackoff == 0 {
		c.Writer.RetryBackoff = DefaultWriterBackoff
	}

	// Health defaults
	if c.Health.Port == 0 {
		c.Health.Port = DefaultHealthPort
	}
}
