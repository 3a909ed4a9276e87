package search

import (
	"fmt"
	"time"

	"github.com/niart120/seedgrind/internal/kernel"
	"github.com/niart120/seedgrind/internal/keyspace"
	"github.com/niart120/seedgrind/internal/romdata"
)

// Conditions are the caller-supplied search inputs. Zero register ranges
// fall back to the cartridge's published values.
type Conditions struct {
	Version  romdata.Version
	Region   romdata.Region
	Hardware romdata.Hardware

	MAC      [6]byte
	KeyInput uint32

	// Timer0 and VCount narrow the enumerated register ranges. A zero
	// range means the romdata defaults.
	Timer0 keyspace.Range
	VCount keyspace.Range

	TimeStart time.Time
	TimeEnd   time.Time
}

// resolved is a Conditions value joined with its romdata constants, ready to
// drive units.
type resolved struct {
	template   kernel.Template
	space      keyspace.Space
	params     romdata.Parameters
	twelveHour bool
}

// resolve validates the conditions against the parameter tables and builds
// the block template and keyspace.
func (c Conditions) resolve() (resolved, error) {
	params, err := romdata.Lookup(c.Version, c.Region)
	if err != nil {
		return resolved{}, fmt.Errorf("resolve %s/%s: %w", c.Version, c.Region, err)
	}

	profile, err := romdata.HardwareFor(c.Hardware)
	if err != nil {
		return resolved{}, fmt.Errorf("resolve %s: %w", c.Hardware, err)
	}

	timer0 := c.Timer0
	if timer0 == (keyspace.Range{}) {
		timer0 = keyspace.Range{Min: params.Timer0Min, Max: params.Timer0Max}
	}

	vcount := c.VCount
	if vcount == (keyspace.Range{}) {
		vcount = keyspace.Range{Min: params.DefaultVCount, Max: params.DefaultVCount}
	}

	start := kernel.SecondsSince2000(c.TimeStart.UTC())
	end := kernel.SecondsSince2000(c.TimeEnd.UTC())

	if end < start || !kernel.InTableRange(start) || !kernel.InTableRange(end) {
		return resolved{}, fmt.Errorf("%w: %s .. %s", ErrEmptyTimeRange,
			c.TimeStart.Format(time.RFC3339), c.TimeEnd.Format(time.RFC3339))
	}

	template := kernel.NewTemplate(kernel.TemplateConfig{
		Nazo:     params.Nazo,
		MAC:      c.MAC,
		Frame:    profile.Frame,
		KeyInput: c.KeyInput,
	})

	return resolved{
		template: template,
		space: keyspace.Space{
			TimeStart: start,
			TimeEnd:   end,
			Timer0:    timer0,
			VCount:    vcount,
		},
		params:     params,
		twelveHour: profile.TwelveHourClock,
	}, nil
}

// TargetSet is the deduplicated set of seeds a search matches against.
// Read-only once a session starts; each unit works on its own copy.
type TargetSet map[uint32]struct{}

// NewTargetSet builds a set from the caller's seed list, dropping duplicates.
func NewTargetSet(seeds []uint32) TargetSet {
	ts := make(TargetSet, len(seeds))
	for _, s := range seeds {
		ts[s] = struct{}{}
	}

	return ts
}

// Contains reports whether seed is a target.
func (ts TargetSet) Contains(seed uint32) bool {
	_, ok := ts[seed]

	return ok
}

// Clone returns an independent copy for one unit.
func (ts TargetSet) Clone() TargetSet {
	c := make(TargetSet, len(ts))
	for s := range ts {
		c[s] = struct{}{}
	}

	return c
}
