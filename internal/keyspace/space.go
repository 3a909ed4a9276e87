// Package keyspace models the three-axis search space (time x timer0 x
// vcount) and splits it into balanced chunks for parallel execution.
package keyspace

// Range is an inclusive integer interval over one hardware register axis.
type Range struct {
	Min uint32
	Max uint32
}

// Count returns the number of values in the range.
func (r Range) Count() uint64 {
	if r.Max < r.Min {
		return 0
	}

	return uint64(r.Max-r.Min) + 1
}

// Contains reports whether v falls inside the range.
func (r Range) Contains(v uint32) bool {
	return v >= r.Min && v <= r.Max
}

// Space is the full keyspace of one search. Time bounds are second indices
// relative to the RTC epoch, both inclusive.
type Space struct {
	TimeStart int64
	TimeEnd   int64
	Timer0    Range
	VCount    Range
}

// Seconds returns the length of the time axis. Non-positive means the space
// is empty or inverted.
func (s Space) Seconds() int64 {
	return s.TimeEnd - s.TimeStart + 1
}

// TotalOperations is the number of candidate evaluations the space requires.
func (s Space) TotalOperations() uint64 {
	secs := s.Seconds()
	if secs <= 0 {
		return 0
	}

	return uint64(secs) * s.Timer0.Count() * s.VCount.Count()
}

// Chunk is one unit's slice of the space: a contiguous time segment with the
// full timer0 and vcount ranges. Chunks are built once per session and never
// mutated afterwards.
type Chunk struct {
	UnitID              int
	TimeStart           int64
	TimeEnd             int64
	Timer0              Range
	VCount              Range
	EstimatedOperations uint64
}

// Seconds returns the length of the chunk's time segment.
func (c Chunk) Seconds() int64 {
	return c.TimeEnd - c.TimeStart + 1
}
