package search

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// runSession is the coordinator's single control loop. It owns the progress
// table and the live-unit set; unit messages and caller commands are the
// only inputs, so no locking is needed around session state.
func (c *Coordinator) runSession(ctx context.Context, s *session, totalOps uint64) {
	ctx, span := c.cfg.Tracer.Start(ctx, "search.session", trace.WithAttributes(
		attribute.String("session.id", s.id.String()),
		attribute.Int("session.units", len(s.units)),
		attribute.Int64("session.total_operations", int64(totalOps)),
	))
	defer span.End()

	releaseUnits := c.cfg.Metrics.TrackUnits(ctx, int64(len(s.units)))
	defer releaseUnits()

	for _, u := range s.units {
		go u.run(ctx)
	}

	prog := make([]UnitProgress, len(s.units))
	lastSeen := make([]time.Time, len(s.units))
	warned := make([]bool, len(s.units))

	for i, u := range s.units {
		prog[i] = UnitProgress{
			UnitID:     u.id,
			TotalSteps: u.chunk.EstimatedOperations,
			Status:     UnitInitializing,
		}
		lastSeen[i] = s.started
	}

	live := len(s.units)
	ready := 0
	results := 0
	initializing := true
	stopRequested := false
	departureFailed := false

	var pending []unitCommand

	var lastErr error

	maybeRun := func() {
		if !initializing || ready < live {
			return
		}

		initializing = false
		c.setState(StateRunning)

		for _, cmd := range pending {
			c.apply(s, cmd)
		}
		pending = nil
	}

	ticker := time.NewTicker(c.cfg.AggregateInterval)
	defer ticker.Stop()

	doneCh := ctx.Done()

	for live > 0 {
		select {
		case <-doneCh:
			// Caller context cancelled, or Stop() fired the session
			// cancel. Units wind down at their next batch boundary.
			stopRequested = true
			doneCh = nil

		case cmd := <-s.ctrl:
			if cmd == cmdStop {
				stopRequested = true
				s.cancel()

				continue
			}

			if initializing {
				pending = append(pending, cmd)

				continue
			}

			c.apply(s, cmd)

		case msg := <-s.msgs:
			switch m := msg.(type) {
			case unitReady:
				ready++
				prog[m.id].Status = UnitRunning
				lastSeen[m.id] = time.Now()
				maybeRun()

			case unitProgressMsg:
				prog[m.id] = m.progress
				lastSeen[m.id] = time.Now()
				warned[m.id] = false

			case unitResult:
				results++
				span.AddEvent("match", trace.WithAttributes(
					attribute.Int("unit.id", m.id),
					attribute.Int64("seed", int64(m.result.Seed)),
				))
				c.cfg.Logger.InfoContext(ctx, "search: match",
					"session", s.id.String(),
					"unit", m.id,
					"seed", fmt.Sprintf("%08X", m.result.Seed),
					"time", m.result.Time.Format(time.RFC3339))

				c.events <- m.result

			case unitDone:
				live--
				departureFailed = false
				prog[m.id].Status = UnitCompleted

				if !m.stopped {
					prog[m.id].CurrentStep = prog[m.id].TotalSteps
				}

				maybeRun()

			case unitFailed:
				live--
				departureFailed = true
				lastErr = m.err
				prog[m.id].Status = UnitErrored

				span.AddEvent("unit failed", trace.WithAttributes(attribute.Int("unit.id", m.id)))
				c.cfg.Logger.WarnContext(ctx, "search: unit failed, session continues",
					"session", s.id.String(),
					"unit", m.id,
					"live_units", live,
					"error", m.err)

				maybeRun()
			}

		case <-ticker.C:
			c.emitProgress(aggregate(prog, time.Since(s.started), results))
			c.checkStalls(ctx, s, prog, lastSeen, warned)
		}
	}

	c.emitProgress(aggregate(prog, time.Since(s.started), results))

	duration := time.Since(s.started)
	outcome := c.emitTerminal(stopRequested, departureFailed, lastErr, results, duration)

	span.SetAttributes(attribute.String("session.outcome", outcome))
	c.cfg.Metrics.RecordSession(ctx, outcome, duration)

	c.cfg.Logger.InfoContext(ctx, "search: session finished",
		"session", s.id.String(),
		"outcome", outcome,
		"matches", results,
		"duration", duration.Round(time.Millisecond).String())

	c.finishSession(s)
}

// apply handles a queued or live pause/resume command.
func (c *Coordinator) apply(s *session, cmd unitCommand) {
	switch cmd {
	case cmdPause:
		if c.State() == StateRunning {
			s.broadcast(cmdPause)
			c.setState(StatePaused)
		}

	case cmdResume:
		if c.State() == StatePaused {
			s.broadcast(cmdResume)
			c.setState(StateRunning)
		}

	case cmdStop:
		// Handled on the control loop before apply.
	}
}

// emitProgress delivers an aggregate snapshot without ever blocking the
// control loop; a lagging consumer just misses ticks.
func (c *Coordinator) emitProgress(p Progress) {
	select {
	case c.events <- p:
	default:
	}
}

// emitTerminal delivers exactly one terminal event. Stop wins over any other
// outcome; otherwise the final departure decides between completion and
// failure.
func (c *Coordinator) emitTerminal(stopRequested, departureFailed bool, lastErr error, results int, duration time.Duration) string {
	switch {
	case stopRequested:
		c.events <- Stopped{Message: fmt.Sprintf("search stopped after %s with %d matches",
			duration.Round(time.Millisecond), results)}

		return "stopped"

	case departureFailed:
		c.events <- Failed{Err: lastErr}

		return "errored"

	default:
		c.events <- Completed{Message: fmt.Sprintf("search completed in %s with %d matches",
			duration.Round(time.Millisecond), results)}

		return "completed"
	}
}

// checkStalls warns once per silence for units that have not reported while
// running. No restart is attempted; a heavy batch can legitimately exceed
// the threshold.
func (c *Coordinator) checkStalls(ctx context.Context, s *session, prog []UnitProgress, lastSeen []time.Time, warned []bool) {
	now := time.Now()

	for i := range prog {
		if prog[i].Status != UnitRunning || warned[i] {
			continue
		}

		silence := now.Sub(lastSeen[i])
		if silence <= c.cfg.StallTimeout {
			continue
		}

		warned[i] = true

		c.cfg.Logger.WarnContext(ctx, "search: unit stalled",
			"session", s.id.String(),
			"unit", prog[i].UnitID,
			"silence", silence.Round(time.Second).String())
	}
}

// aggregate folds per-unit snapshots into one session-wide Progress. The
// remaining-time estimate is the maximum over active units: they run
// concurrently, so the slowest bounds wall-clock completion.
func aggregate(prog []UnitProgress, elapsed time.Duration, results int) Progress {
	p := Progress{
		Elapsed:      elapsed,
		MatchesFound: results,
		Units:        make([]UnitProgress, len(prog)),
	}
	copy(p.Units, prog)

	for i := range prog {
		p.CurrentStep += prog[i].CurrentStep
		p.TotalSteps += prog[i].TotalSteps

		switch prog[i].Status {
		case UnitInitializing, UnitRunning:
			p.ActiveUnits++

			if prog[i].EstimatedRemaining > p.EstimatedRemaining {
				p.EstimatedRemaining = prog[i].EstimatedRemaining
			}

		case UnitCompleted:
			p.CompletedUnits++

		case UnitPaused, UnitErrored:
		}
	}

	return p
}
