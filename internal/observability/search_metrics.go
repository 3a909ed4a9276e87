package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCandidatesTotal = "seedgrind.candidates.total"
	metricMatchesTotal    = "seedgrind.matches.total"
	metricSessionsTotal   = "seedgrind.sessions.total"
	metricSessionDuration = "seedgrind.session.duration.seconds"
	metricUnitsActive     = "seedgrind.units.active"

	attrOutcome = "outcome"
	attrKernel  = "kernel"
)

// sessionBucketBoundaries spans sub-second test searches up to hours-long
// full-keyspace sweeps.
var sessionBucketBoundaries = []float64{0.1, 0.5, 1, 5, 15, 60, 300, 900, 3600, 14400}

// SearchMetrics holds the OTel instruments for the search engine. A nil
// *SearchMetrics is valid and records nothing, so telemetry stays optional.
type SearchMetrics struct {
	candidatesTotal metric.Int64Counter
	matchesTotal    metric.Int64Counter
	sessionsTotal   metric.Int64Counter
	sessionDuration metric.Float64Histogram
	unitsActive     metric.Int64UpDownCounter
}

// NewSearchMetrics creates the search instruments from the given meter.
func NewSearchMetrics(mt metric.Meter) (*SearchMetrics, error) {
	b := newMetricBuilder(mt)

	sm := &SearchMetrics{
		candidatesTotal: b.counter(metricCandidatesTotal, "Candidate seeds evaluated", "{candidate}"),
		matchesTotal:    b.counter(metricMatchesTotal, "Target seeds matched", "{match}"),
		sessionsTotal:   b.counter(metricSessionsTotal, "Search sessions by terminal outcome", "{session}"),
		sessionDuration: b.histogram(metricSessionDuration, "Session wall-clock duration in seconds", "s", sessionBucketBoundaries...),
		unitsActive:     b.upDownCounter(metricUnitsActive, "Execution units currently live", "{unit}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return sm, nil
}

// AddCandidates records n evaluated candidates for one kernel implementation.
func (sm *SearchMetrics) AddCandidates(ctx context.Context, kernelName string, n int64) {
	if sm == nil {
		return
	}

	sm.candidatesTotal.Add(ctx, n, metric.WithAttributes(attribute.String(attrKernel, kernelName)))
}

// AddMatch records one target hit.
func (sm *SearchMetrics) AddMatch(ctx context.Context) {
	if sm == nil {
		return
	}

	sm.matchesTotal.Add(ctx, 1)
}

// RecordSession records a finished session with its terminal outcome.
func (sm *SearchMetrics) RecordSession(ctx context.Context, outcome string, duration time.Duration) {
	if sm == nil {
		return
	}

	attrs := metric.WithAttributes(attribute.String(attrOutcome, outcome))

	sm.sessionsTotal.Add(ctx, 1, attrs)
	sm.sessionDuration.Record(ctx, duration.Seconds(), attrs)
}

// TrackUnits increments the live-unit gauge by n and returns a function that
// reverses it, for deferring at unit spawn.
func (sm *SearchMetrics) TrackUnits(ctx context.Context, n int64) func() {
	if sm == nil {
		return func() {}
	}

	sm.unitsActive.Add(ctx, n)

	return func() {
		sm.unitsActive.Add(ctx, -n)
	}
}
