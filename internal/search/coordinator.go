package search

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/niart120/seedgrind/internal/kernel"
	"github.com/niart120/seedgrind/internal/keyspace"
	"github.com/niart120/seedgrind/internal/observability"
)

// State is the coordinator's caller-visible session phase.
type State string

// Session phases. Terminal outcomes are delivered as events; once one is
// emitted the coordinator returns to idle and may start a new session.
const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StatePaused       State = "paused"
)

const (
	defaultBatchSize         = 5000
	defaultProgressInterval  = 250 * time.Millisecond
	defaultAggregateInterval = 500 * time.Millisecond
	defaultStallTimeout      = 60 * time.Second
	defaultEventBuffer       = 256
)

// Config tunes a Coordinator. Zero values fall back to production defaults.
type Config struct {
	Logger      *slog.Logger
	Tracer      trace.Tracer
	Metrics     *observability.SearchMetrics
	Partitioner *keyspace.Partitioner

	// NewKernel builds the kernel for one unit. Defaults to the batched
	// implementation.
	NewKernel func(unitID int) kernel.Kernel

	UnitCount         int
	BatchSize         int
	ProgressInterval  time.Duration
	AggregateInterval time.Duration
	StallTimeout      time.Duration
	EventBuffer       int
}

// Coordinator runs at most one search session at a time. All session state
// is mutated on a single control loop that serializes unit messages and
// caller commands; the mutex only guards the session handle and phase.
type Coordinator struct {
	cfg Config

	mu        sync.Mutex
	state     State
	session   *session
	unitCount int

	events chan Event
}

// session bundles the live handles of one search run.
type session struct {
	id       uuid.UUID
	cancel   context.CancelFunc
	ctrl     chan unitCommand
	msgs     chan unitMessage
	units    []*unit
	unitCtrl []chan unitCommand
	started  time.Time
}

// broadcast fans a command out to every unit without blocking. A full unit
// channel drops the command; pause and resume are best-effort by contract
// and stop rides on context cancellation.
func (s *session) broadcast(cmd unitCommand) {
	for _, ch := range s.unitCtrl {
		select {
		case ch <- cmd:
		default:
		}
	}
}

// New builds a Coordinator from cfg.
func New(cfg Config) *Coordinator {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	if cfg.Tracer == nil {
		cfg.Tracer = nooptrace.NewTracerProvider().Tracer("seedgrind")
	}

	if cfg.Partitioner == nil {
		cfg.Partitioner = keyspace.NewPartitioner(keyspace.Config{Logger: cfg.Logger})
	}

	if cfg.NewKernel == nil {
		cfg.NewKernel = func(int) kernel.Kernel { return kernel.NewQuad() }
	}

	if cfg.UnitCount < 1 {
		cfg.UnitCount = runtime.NumCPU()
	}

	if cfg.BatchSize < 1 {
		cfg.BatchSize = defaultBatchSize
	}

	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = defaultProgressInterval
	}

	if cfg.AggregateInterval <= 0 {
		cfg.AggregateInterval = defaultAggregateInterval
	}

	if cfg.StallTimeout <= 0 {
		cfg.StallTimeout = defaultStallTimeout
	}

	if cfg.EventBuffer < 1 {
		cfg.EventBuffer = defaultEventBuffer
	}

	return &Coordinator{
		cfg:       cfg,
		state:     StateIdle,
		unitCount: cfg.UnitCount,
		events:    make(chan Event, cfg.EventBuffer),
	}
}

// ParallelExecutionAvailable reports whether more than one unit can make
// wall-clock progress on this machine.
func ParallelExecutionAvailable() bool {
	return runtime.NumCPU() > 1
}

// Events returns the session event stream. Results and the terminal event
// are delivered reliably; progress events are dropped when the consumer
// lags behind the buffer.
func (c *Coordinator) Events() <-chan Event {
	return c.events
}

// State returns the current session phase.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// SetUnitCount sets the unit count for subsequent sessions. Only allowed
// while idle.
func (c *Coordinator) SetUnitCount(n int) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrSessionActive
	}

	if n < 1 {
		n = 1
	}

	c.unitCount = n

	return nil
}

// Start validates the conditions, partitions the keyspace and spawns one
// unit per chunk. Fails synchronously on configuration problems or if a
// session is already active; nothing is half-started on failure.
func (c *Coordinator) Start(ctx context.Context, cond Conditions, targetSeeds []uint32) error {
	if len(targetSeeds) == 0 {
		return ErrNoTargets
	}

	res, err := cond.resolve()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateIdle {
		return ErrSessionActive
	}

	chunks := c.cfg.Partitioner.Partition(res.space, c.unitCount)
	if len(chunks) == 0 {
		return fmt.Errorf("%w: %d total operations", ErrEmptyKeyspace, res.space.TotalOperations())
	}

	targets := NewTargetSet(targetSeeds)

	sessCtx, cancel := context.WithCancel(ctx)
	s := &session{
		id:      uuid.New(),
		cancel:  cancel,
		ctrl:    make(chan unitCommand, 16),
		msgs:    make(chan unitMessage, 64),
		started: time.Now(),
	}

	for _, chunk := range chunks {
		ctrl := make(chan unitCommand, 16)
		u := &unit{
			id:          chunk.UnitID,
			chunk:       chunk,
			res:         res,
			targets:     targets.Clone(),
			kern:        c.cfg.NewKernel(chunk.UnitID),
			batchSize:   c.cfg.BatchSize,
			reportEvery: c.cfg.ProgressInterval,
			ctrl:        ctrl,
			out:         s.msgs,
			logger:      c.cfg.Logger.With("session", s.id.String(), "unit", chunk.UnitID),
			metrics:     c.cfg.Metrics,
			status:      UnitInitializing,
		}
		s.units = append(s.units, u)
		s.unitCtrl = append(s.unitCtrl, ctrl)
	}

	c.cfg.Logger.InfoContext(ctx, "search: session started",
		"session", s.id.String(),
		"units", len(s.units),
		"total_operations", res.space.TotalOperations(),
		"targets", len(targets))

	c.state = StateInitializing
	c.session = s

	go c.runSession(sessCtx, s, res.space.TotalOperations())

	return nil
}

// Pause asks every live unit to park at its next batch boundary.
func (c *Coordinator) Pause() error { return c.command(cmdPause) }

// Resume releases paused units.
func (c *Coordinator) Resume() error { return c.command(cmdResume) }

// Stop terminates the session. Units exit at their next batch boundary;
// results from the in-flight batch are still delivered.
func (c *Coordinator) Stop() error { return c.command(cmdStop) }

func (c *Coordinator) command(cmd unitCommand) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session == nil {
		return ErrNoSession
	}

	// Never block the caller; the control loop drains this promptly and
	// stop is additionally carried by context cancellation.
	select {
	case c.session.ctrl <- cmd:
	default:
	}

	if cmd == cmdStop {
		c.session.cancel()
	}

	return nil
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// finishSession clears the live session and returns the coordinator to idle.
func (c *Coordinator) finishSession(s *session) {
	c.mu.Lock()
	if c.session == s {
		c.session = nil
		c.state = StateIdle
	}
	c.mu.Unlock()
}
