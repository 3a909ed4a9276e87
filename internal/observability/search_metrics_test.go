package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/niart120/seedgrind/internal/observability"
)

func setupTestMeter(t *testing.T) (*observability.SearchMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	sm, err := observability.NewSearchMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return sm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	err := reader.Collect(context.Background(), &rm)
	require.NoError(t, err)

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumCounter(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestSearchMetricsCandidates(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)
	ctx := context.Background()

	sm.AddCandidates(ctx, "quad", 5000)
	sm.AddCandidates(ctx, "quad", 3000)
	sm.AddCandidates(ctx, "scalar", 100)

	rm := collectMetrics(t, reader)

	m := findMetric(rm, "seedgrind.candidates.total")
	require.NotNil(t, m)
	assert.Equal(t, int64(8100), sumCounter(t, m))
}

func TestSearchMetricsSession(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)
	ctx := context.Background()

	sm.AddMatch(ctx)
	sm.RecordSession(ctx, "completed", 2*time.Second)

	release := sm.TrackUnits(ctx, 4)
	release()

	rm := collectMetrics(t, reader)

	matches := findMetric(rm, "seedgrind.matches.total")
	require.NotNil(t, matches)
	assert.Equal(t, int64(1), sumCounter(t, matches))

	sessions := findMetric(rm, "seedgrind.sessions.total")
	require.NotNil(t, sessions)
	assert.Equal(t, int64(1), sumCounter(t, sessions))

	units := findMetric(rm, "seedgrind.units.active")
	require.NotNil(t, units)
	assert.Zero(t, sumCounter(t, units), "spawn and release must cancel out")
}

func TestSearchMetricsNilReceiver(t *testing.T) {
	t.Parallel()

	var sm *observability.SearchMetrics
	ctx := context.Background()

	// All paths must be safe without instruments.
	sm.AddCandidates(ctx, "quad", 1)
	sm.AddMatch(ctx)
	sm.RecordSession(ctx, "stopped", time.Second)
	sm.TrackUnits(ctx, 2)()
}
