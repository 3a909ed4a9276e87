package search

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/niart120/seedgrind/internal/kernel"
	"github.com/niart120/seedgrind/internal/keyspace"
	"github.com/niart120/seedgrind/internal/observability"
)

// unitCommand is a coordinator-to-unit control verb. Pause and resume are
// best-effort; stop travels through context cancellation so it can never be
// lost to a full channel.
type unitCommand int

const (
	cmdPause unitCommand = iota
	cmdResume
	cmdStop
)

// candidate records which keyspace point produced a block, so a seed hit can
// be mapped back to its inputs.
type candidate struct {
	sec    int64
	timer0 uint32
	vcount uint32
}

// unit enumerates one chunk. It owns its chunk, target-set copy and kernel
// exclusively; the only coupling to the rest of the session is the outbound
// message channel and the inbound control channel.
type unit struct {
	id          int
	chunk       keyspace.Chunk
	res         resolved
	targets     TargetSet
	kern        kernel.Kernel
	batchSize   int
	reportEvery time.Duration

	ctrl <-chan unitCommand
	out  chan<- unitMessage

	logger  *slog.Logger
	metrics *observability.SearchMetrics

	processed   uint64
	matches     int
	started     time.Time
	pausedTotal time.Duration
	lastReport  time.Time
	status      UnitStatus
}

// run drives the unit to completion. Enumeration order is timer0 outermost,
// vcount, then time innermost, so within one timer0 value results surface in
// increasing time order. Control is honored at batch boundaries only.
func (u *unit) run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			u.out <- unitFailed{id: u.id, err: &UnitError{UnitID: u.id, Cause: fmt.Errorf("%v", r)}}
		}
	}()

	u.started = time.Now()
	u.lastReport = u.started
	u.status = UnitRunning
	u.out <- unitReady{id: u.id}

	u.logger.Debug("unit: enumerating",
		"kernel", u.kern.Name(),
		"time_start", u.chunk.TimeStart,
		"time_end", u.chunk.TimeEnd,
		"operations", u.chunk.EstimatedOperations)

	blocks := make([]kernel.Block, u.batchSize)
	seeds := make([]uint32, u.batchSize)
	meta := make([]candidate, u.batchSize)

	n := 0
	stopped := false

enumerate:
	for timer0 := u.chunk.Timer0.Min; ; timer0++ {
		overrideVC, hasOverride := u.res.params.VCountFor(timer0)

		for vc := u.chunk.VCount.Min; ; vc++ {
			eff := vc
			if hasOverride {
				eff = overrideVC
			}

			for sec := u.chunk.TimeStart; sec <= u.chunk.TimeEnd; sec++ {
				u.res.template.Fill(&blocks[n], timer0, eff,
					kernel.DateCode(sec), kernel.TimeCode(sec, u.res.twelveHour))
				meta[n] = candidate{sec: sec, timer0: timer0, vcount: eff}
				n++

				if n == u.batchSize {
					if !u.flush(ctx, blocks[:n], seeds[:n], meta[:n]) {
						stopped = true

						break enumerate
					}

					n = 0
				}
			}

			// An override pins vcount for this timer0: every enumerated
			// value would build the same block, so one pass suffices.
			if hasOverride || vc == u.chunk.VCount.Max {
				break
			}
		}

		if timer0 == u.chunk.Timer0.Max {
			break
		}
	}

	if !stopped && n > 0 && !u.flush(ctx, blocks[:n], seeds[:n], meta[:n]) {
		stopped = true
	}

	u.status = UnitCompleted
	u.report()
	u.out <- unitDone{id: u.id, stopped: stopped}
}

// flush hashes one batch, emits any matches, reports progress and honors
// pending control. Returns false when the unit must stop.
func (u *unit) flush(ctx context.Context, blocks []kernel.Block, seeds []uint32, meta []candidate) bool {
	u.kern.SeedBatch(blocks, seeds)
	u.metrics.AddCandidates(ctx, u.kern.Name(), int64(len(blocks)))

	for i, s := range seeds {
		if !u.targets.Contains(s) {
			continue
		}

		_, _, digest := kernel.Compute(blocks[i])

		u.matches++
		u.metrics.AddMatch(ctx)

		u.out <- unitResult{id: u.id, result: Result{
			Seed:      s,
			Time:      kernel.TimeFromSeconds(meta[i].sec),
			Timer0:    meta[i].timer0,
			VCount:    meta[i].vcount,
			Block:     blocks[i],
			DigestHex: digest.Hex(),
			UnitID:    u.id,
		}}
	}

	u.processed += uint64(len(blocks))
	u.maybeReport()

	return u.checkControl(ctx)
}

// checkControl drains pending commands without blocking. A pause parks the
// unit until resume or stop arrives.
func (u *unit) checkControl(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return false
	default:
	}

	for {
		select {
		case cmd := <-u.ctrl:
			switch cmd {
			case cmdStop:
				return false
			case cmdPause:
				if !u.waitResume(ctx) {
					return false
				}
			case cmdResume:
				// Not paused; nothing to do.
			}
		default:
			return true
		}
	}
}

// waitResume blocks while paused. Pause time is excluded from the elapsed
// clock so throughput extrapolation stays honest.
func (u *unit) waitResume(ctx context.Context) bool {
	u.status = UnitPaused
	u.report()

	pausedAt := time.Now()
	defer func() {
		u.pausedTotal += time.Since(pausedAt)
	}()

	for {
		select {
		case <-ctx.Done():
			return false
		case cmd := <-u.ctrl:
			switch cmd {
			case cmdStop:
				return false
			case cmdResume:
				u.status = UnitRunning
				u.report()

				return true
			case cmdPause:
				// Already paused.
			}
		}
	}
}

func (u *unit) maybeReport() {
	if time.Since(u.lastReport) < u.reportEvery {
		return
	}

	u.report()
}

func (u *unit) report() {
	u.lastReport = time.Now()
	u.out <- unitProgressMsg{id: u.id, progress: u.snapshot()}
}

func (u *unit) snapshot() UnitProgress {
	elapsed := time.Since(u.started) - u.pausedTotal
	total := u.chunk.EstimatedOperations

	var remaining time.Duration
	if u.processed > 0 && u.processed < total {
		remaining = time.Duration(float64(elapsed) * float64(total-u.processed) / float64(u.processed))
	}

	return UnitProgress{
		UnitID:             u.id,
		CurrentStep:        u.processed,
		TotalSteps:         total,
		Elapsed:            elapsed,
		EstimatedRemaining: remaining,
		MatchesFound:       u.matches,
		Status:             u.status,
	}
}
