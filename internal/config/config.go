package config

import "time"

// Config is the root configuration for a pipeline instance.
type Config struct {
	API      APIConfig      `yaml:"api"`
	Symbols  []string       `yaml:"symbols"`
	Schedule ScheduleConfig `yaml:"schedule"`
	Database DBConfig       `yaml:"database"`
	Writer   WriterConfig   `yaml:"writer"`
	Health   HealthConfig   `yaml:"health"`
}

// APIConfig holds market-data provider settings.
type APIConfig struct {
	BaseURL      string        `yaml:"base_url"`
	APIKey       string        `yaml:"api_key"`
	OutputSize   string        `yaml:"output_size"` // "compact" or "full"
	Timeout      time.Duration `yaml:"timeout"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	MaxBackoff   time.Duration `yaml:"max_backoff"`
}

// ScheduleConfig holds scheduling and pacing settings.
type ScheduleConfig struct {
	// Cron is a standard 5-field cron expression evaluated in UTC; the
	// default fires daily at 06:00 UTC.
	Cron string `yaml:"cron"`

	// PoliteDelay is the minimum time between requests for different
	// symbols, independent of retry backoff.
	PoliteDelay time.Duration `yaml:"polite_delay"`

	// RunTimeout bounds a single pipeline run.
	RunTimeout time.Duration `yaml:"run_timeout"`
}

// DBConfig holds the PostgreSQL connection. Either URL or the discrete
// host fields may be set; URL wins when both are present.
type DBConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// WriterConfig holds batch upsert settings.
type WriterConfig struct {
	BatchSize    int           `yaml:"batch_size"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// HealthConfig holds the health endpoint settings.
type HealthConfig struct {
	Port int `yaml:"port"`
}
