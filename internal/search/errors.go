package search

import (
	"errors"
	"fmt"
)

// Synchronous call failures. Configuration problems surface before any unit
// spawns; they never appear on the event stream.
var (
	// ErrSessionActive is returned by Start while a session is live.
	ErrSessionActive = errors.New("search: session already active")

	// ErrNoSession is returned by control calls with nothing to control.
	ErrNoSession = errors.New("search: no active session")

	// ErrNoTargets is returned when the target set is empty.
	ErrNoTargets = errors.New("search: target set is empty")

	// ErrEmptyTimeRange is returned when the end precedes the start or the
	// range falls outside the 2000-2099 RTC window.
	ErrEmptyTimeRange = errors.New("search: time range is empty or out of range")

	// ErrEmptyKeyspace is returned when partitioning yields no chunks.
	ErrEmptyKeyspace = errors.New("search: keyspace produces no work")
)

// UnitError is a runtime fault inside one execution unit. It reaches the
// caller through the Failed event when the last surviving unit dies.
type UnitError struct {
	UnitID int
	Cause  error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %d: %v", e.UnitID, e.Cause)
}

func (e *UnitError) Unwrap() error {
	return e.Cause
}
