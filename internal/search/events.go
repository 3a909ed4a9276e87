package search

import (
	"time"

	"github.com/niart120/seedgrind/internal/kernel"
)

// Event is the closed union delivered on the coordinator's event stream:
// zero or more Result and Progress events followed by exactly one terminal
// Completed, Stopped or Failed.
type Event interface {
	event()
}

// Result is one matched seed. Immutable once emitted; results are never
// retracted, even if a unit fails later.
type Result struct {
	Seed      uint32
	Time      time.Time
	Timer0    uint32
	VCount    uint32
	Block     kernel.Block
	DigestHex string
	UnitID    int
}

// Progress is the periodic session-wide aggregate, recomputed from per-unit
// reports on every aggregation tick.
type Progress struct {
	CurrentStep        uint64
	TotalSteps         uint64
	Elapsed            time.Duration
	EstimatedRemaining time.Duration
	MatchesFound       int
	ActiveUnits        int
	CompletedUnits     int
	Units              []UnitProgress
}

// Completed is the terminal event of a fully enumerated session.
type Completed struct {
	Message string
}

// Stopped is the terminal event of a caller-terminated session.
type Stopped struct {
	Message string
}

// Failed is the terminal event of a session whose last surviving unit
// reported a runtime fault.
type Failed struct {
	Err error
}

func (Result) event()    {}
func (Progress) event()  {}
func (Completed) event() {}
func (Stopped) event()   {}
func (Failed) event()    {}

// UnitStatus is a unit's self-reported lifecycle phase.
type UnitStatus string

// Unit lifecycle phases.
const (
	UnitInitializing UnitStatus = "initializing"
	UnitRunning      UnitStatus = "running"
	UnitPaused       UnitStatus = "paused"
	UnitCompleted    UnitStatus = "completed"
	UnitErrored      UnitStatus = "error"
)

// UnitProgress is one unit's self-report. Written only by the owning unit's
// reporting path; the coordinator copies, never mutates.
type UnitProgress struct {
	UnitID             int
	CurrentStep        uint64
	TotalSteps         uint64
	Elapsed            time.Duration
	EstimatedRemaining time.Duration
	MatchesFound       int
	Status             UnitStatus
}

// unitMessage is the closed union of unit-to-coordinator traffic. All
// session state mutation happens on the coordinator loop that drains these.
type unitMessage interface {
	unitMsg()
}

type unitReady struct {
	id int
}

type unitProgressMsg struct {
	id       int
	progress UnitProgress
}

type unitResult struct {
	id     int
	result Result
}

type unitDone struct {
	id      int
	stopped bool
}

type unitFailed struct {
	id  int
	err error
}

func (unitReady) unitMsg()       {}
func (unitProgressMsg) unitMsg() {}
func (unitResult) unitMsg()      {}
func (unitDone) unitMsg()        {}
func (unitFailed) unitMsg()      {}
