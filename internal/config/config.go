// Package config loads seedgrind settings from file, environment and
// defaults via viper.
package config

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dustin/go-humanize"
)

// Config is the top-level configuration struct.
// Field tags use mapstructure for viper unmarshalling.
type Config struct {
	Search    SearchConfig    `mapstructure:"search"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

// SearchConfig holds engine resource knobs.
type SearchConfig struct {
	// Units is the requested execution-unit count; 0 means one per CPU.
	Units int `mapstructure:"units"`

	// BatchSize is the number of candidates per kernel call.
	BatchSize int `mapstructure:"batch_size"`

	// MemoryBudget caps unit spawning, in humanized form ("512MB").
	MemoryBudget string `mapstructure:"memory_budget"`

	// Kernel selects the implementation: "quad" or "scalar".
	Kernel string `mapstructure:"kernel"`

	// ProgressIntervalMS is the aggregation cadence in milliseconds.
	ProgressIntervalMS int `mapstructure:"progress_interval_ms"`

	// StallTimeoutSec is the silence threshold for stall warnings.
	StallTimeoutSec int `mapstructure:"stall_timeout_sec"`
}

// TelemetryConfig holds OTLP export and Prometheus scrape settings.
type TelemetryConfig struct {
	OTLPEndpoint string  `mapstructure:"otlp_endpoint"`
	OTLPInsecure bool    `mapstructure:"otlp_insecure"`
	OTLPHeaders  string  `mapstructure:"otlp_headers"`
	SampleRatio  float64 `mapstructure:"sample_ratio"`

	// MetricsAddr serves the /metrics scrape endpoint when non-empty.
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	Level string `mapstructure:"level"`
	JSON  bool   `mapstructure:"json"`
}

// Defaults applied before file and environment values.
const (
	DefaultBatchSize          = 5000
	DefaultMemoryBudget       = "512MB"
	DefaultKernel             = "quad"
	DefaultProgressIntervalMS = 500
	DefaultStallTimeoutSec    = 60
	DefaultLogLevel           = "info"
)

// Sentinel errors for configuration validation.
var (
	// ErrInvalidUnits indicates the unit count is negative.
	ErrInvalidUnits = errors.New("search.units must be non-negative")
	// ErrInvalidBatchSize indicates the batch size is negative.
	ErrInvalidBatchSize = errors.New("search.batch_size must be non-negative")
	// ErrInvalidKernel indicates an unknown kernel name.
	ErrInvalidKernel = errors.New("search.kernel must be \"quad\" or \"scalar\"")
	// ErrInvalidMemoryBudget indicates an unparsable memory budget.
	ErrInvalidMemoryBudget = errors.New("search.memory_budget is not a valid size")
	// ErrInvalidSampleRatio indicates the sample ratio is out of range.
	ErrInvalidSampleRatio = errors.New("telemetry.sample_ratio must be between 0 and 1")
	// ErrInvalidLogLevel indicates an unknown log level name.
	ErrInvalidLogLevel = errors.New("log.level must be debug, info, warn or error")
)

// Validate checks cross-field constraints after unmarshalling.
func (c *Config) Validate() error {
	if c.Search.Units < 0 {
		return ErrInvalidUnits
	}

	if c.Search.BatchSize < 0 {
		return ErrInvalidBatchSize
	}

	switch c.Search.Kernel {
	case "", "quad", "scalar":
	default:
		return ErrInvalidKernel
	}

	if c.Search.MemoryBudget != "" {
		if _, err := humanize.ParseBytes(c.Search.MemoryBudget); err != nil {
			return fmt.Errorf("%w: %q", ErrInvalidMemoryBudget, c.Search.MemoryBudget)
		}
	}

	if c.Telemetry.SampleRatio < 0 || c.Telemetry.SampleRatio > 1 {
		return ErrInvalidSampleRatio
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	return nil
}

// MemoryBudgetBytes returns the parsed memory budget. Validate must have
// accepted the config first.
func (c *Config) MemoryBudgetBytes() uint64 {
	if c.Search.MemoryBudget == "" {
		return 0
	}

	n, err := humanize.ParseBytes(c.Search.MemoryBudget)
	if err != nil {
		return 0
	}

	return n
}

// LogLevel maps the configured level name to its slog value.
func (c *Config) LogLevel() (slog.Level, error) {
	switch c.Log.Level {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level)
	}
}
