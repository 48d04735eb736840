// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - Validation failures wrap ErrInvalidConfig.
package config

import (
	"fmt"
	"runtime"
	"strings"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory batch queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of report-building workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize caps the number of batch fingerprints remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// EngineParallelism bounds per-person fan-out inside one report build.
	EngineParallelism int `koanf:"engine_parallelism"`

	// HistorySize caps the number of reports retrievable by ID.
	HistorySize int `koanf:"history_size"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// MaxBatchRows caps the rows accepted by POST /reports.
	MaxBatchRows int `koanf:"max_batch_rows"`

	// ReportRateLimit is the sustained POST /reports rate per second.
	// Zero disables limiting.
	ReportRateLimit float64 `koanf:"report_rate_limit"`

	// ReportBurst is the token bucket size for POST /reports.
	ReportBurst int `koanf:"report_burst"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		LogFormat:           "text",
		Addr:                ":9080",
		QueueSize:           64,
		WorkerCount:         runtime.NumCPU(),
		DedupeSize:          10_000,
		EngineParallelism:   runtime.NumCPU(),
		HistorySize:         32,
		MaxLeaderboardLimit: 100,
		MaxBatchRows:        5_000,
		ReportRateLimit:     5,
		ReportBurst:         10,
	}
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize < 1:
		return fmt.Errorf("%w: queue_size must be positive, got %d", ErrInvalidConfig, c.QueueSize)
	case c.WorkerCount < 1:
		return fmt.Errorf("%w: worker_count must be positive, got %d", ErrInvalidConfig, c.WorkerCount)
	case c.DedupeSize < 0:
		return fmt.Errorf("%w: dedupe_size must not be negative, got %d", ErrInvalidConfig, c.DedupeSize)
	case c.EngineParallelism < 1:
		return fmt.Errorf("%w: engine_parallelism must be positive, got %d", ErrInvalidConfig, c.EngineParallelism)
	case c.HistorySize < 1:
		return fmt.Errorf("%w: history_size must be positive, got %d", ErrInvalidConfig, c.HistorySize)
	case c.MaxLeaderboardLimit < 1:
		return fmt.Errorf("%w: max_leaderboard_limit must be positive, got %d", ErrInvalidConfig, c.MaxLeaderboardLimit)
	case c.MaxBatchRows < 1:
		return fmt.Errorf("%w: max_batch_rows must be positive, got %d", ErrInvalidConfig, c.MaxBatchRows)
	case c.ReportRateLimit < 0:
		return fmt.Errorf("%w: report_rate_limit must not be negative, got %g", ErrInvalidConfig, c.ReportRateLimit)
	case c.ReportRateLimit > 0 && c.ReportBurst < 1:
		return fmt.Errorf("%w: report_burst must be positive when limiting, got %d", ErrInvalidConfig, c.ReportBurst)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format must be text or json, got %q", ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
