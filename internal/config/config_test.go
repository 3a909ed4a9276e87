package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niart120/seedgrind/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	// Not parallel: LoadConfig scans the working directory.
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))

	// An explicitly named but missing file is a hard error.
	require.Error(t, err)

	cfg, err = config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.Search.Units)
	assert.Equal(t, config.DefaultBatchSize, cfg.Search.BatchSize)
	assert.Equal(t, config.DefaultKernel, cfg.Search.Kernel)
	assert.Equal(t, uint64(512_000_000), cfg.MemoryBudgetBytes())

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	content := []byte(`
search:
  units: 6
  batch_size: 2048
  kernel: scalar
  memory_budget: 1GB
telemetry:
  otlp_endpoint: localhost:4317
  sample_ratio: 0.25
log:
  level: debug
  json: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 6, cfg.Search.Units)
	assert.Equal(t, 2048, cfg.Search.BatchSize)
	assert.Equal(t, "scalar", cfg.Search.Kernel)
	assert.Equal(t, uint64(1_000_000_000), cfg.MemoryBudgetBytes())
	assert.Equal(t, "localhost:4317", cfg.Telemetry.OTLPEndpoint)
	assert.InDelta(t, 0.25, cfg.Telemetry.SampleRatio, 1e-9)
	assert.True(t, cfg.Log.JSON)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("SEEDGRIND_SEARCH_UNITS", "3")
	t.Setenv("SEEDGRIND_SEARCH_KERNEL", "scalar")
	t.Setenv("SEEDGRIND_LOG_LEVEL", "warn")

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Search.Units)
	assert.Equal(t, "scalar", cfg.Search.Kernel)

	level, err := cfg.LogLevel()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, level)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"negativeUnits", func(c *config.Config) { c.Search.Units = -1 }, config.ErrInvalidUnits},
		{"negativeBatch", func(c *config.Config) { c.Search.BatchSize = -1 }, config.ErrInvalidBatchSize},
		{"badKernel", func(c *config.Config) { c.Search.Kernel = "avx512" }, config.ErrInvalidKernel},
		{"badBudget", func(c *config.Config) { c.Search.MemoryBudget = "lots" }, config.ErrInvalidMemoryBudget},
		{"badRatio", func(c *config.Config) { c.Telemetry.SampleRatio = 1.5 }, config.ErrInvalidSampleRatio},
		{"badLevel", func(c *config.Config) { c.Log.Level = "loud" }, config.ErrInvalidLogLevel},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			var cfg config.Config
			tc.mutate(&cfg)

			assert.ErrorIs(t, cfg.Validate(), tc.want)
		})
	}
}
