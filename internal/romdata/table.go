// Package romdata holds the static per-cartridge and per-console constants
// consumed by the search engine: nazo words, timer0 bounds, vcount defaults
// and overrides, and hardware frame counts.
package romdata

import "errors"

// Lookup errors.
var (
	ErrUnknownROM      = errors.New("romdata: unknown version/region combination")
	ErrUnknownHardware = errors.New("romdata: unknown hardware class")
)

// Version identifies the cartridge.
type Version string

// Supported cartridge versions.
const (
	Black Version = "B"
	White Version = "W"
)

// Region identifies the cartridge's release region.
type Region string

// Supported release regions.
const (
	JPN Region = "JPN"
	ENG Region = "ENG"
)

// Hardware identifies the console class the game runs on.
type Hardware string

// Supported console classes.
const (
	DS     Hardware = "DS"
	DSLite Hardware = "DS_LITE"
	DS3    Hardware = "3DS"
)

// VCountOverride maps a timer0 sub-range to a vcount value that replaces the
// enumerated one. Some cartridges drift across vcount lines at specific
// timer0 values.
type VCountOverride struct {
	Timer0Min uint32
	Timer0Max uint32
	VCount    uint32
}

// Parameters are the per-(version, region) constants.
type Parameters struct {
	Nazo          [5]uint32
	Timer0Min     uint32
	Timer0Max     uint32
	DefaultVCount uint32
	Overrides     []VCountOverride
}

// Profile carries the per-console constants: the frame count folded into
// block word 7 and whether the RTC reports hours with a 12-hour PM flag.
type Profile struct {
	Frame           uint32
	TwelveHourClock bool
}

// nazoSet expands a version's base address into the five nazo words. The
// second and third words sit 0xFC past the base, the last two 0x148 past it.
func nazoSet(base uint32) [5]uint32 {
	return [5]uint32{base, base + 0xFC, base + 0xFC, base + 0x148, base + 0x148}
}

type romKey struct {
	version Version
	region  Region
}

var romTable = map[romKey]Parameters{
	{Black, JPN}: {
		Nazo:          nazoSet(0x02215F10),
		Timer0Min:     0xC79,
		Timer0Max:     0xC7A,
		DefaultVCount: 0x60,
	},
	{White, JPN}: {
		Nazo:          nazoSet(0x02215F30),
		Timer0Min:     0xC67,
		Timer0Max:     0xC69,
		DefaultVCount: 0x5F,
	},
	{Black, ENG}: {
		Nazo:          nazoSet(0x022160B0),
		Timer0Min:     0xC7E,
		Timer0Max:     0xC7F,
		DefaultVCount: 0x60,
	},
	{White, ENG}: {
		Nazo:          nazoSet(0x022160D0),
		Timer0Min:     0xC66,
		Timer0Max:     0xC69,
		DefaultVCount: 0x5F,
	},
}

var hardwareTable = map[Hardware]Profile{
	DS:     {Frame: 8, TwelveHourClock: true},
	DSLite: {Frame: 8, TwelveHourClock: true},
	DS3:    {Frame: 9, TwelveHourClock: false},
}

// Lookup returns the constants for one cartridge.
func Lookup(version Version, region Region) (Parameters, error) {
	p, ok := romTable[romKey{version, region}]
	if !ok {
		return Parameters{}, ErrUnknownROM
	}

	return p, nil
}

// HardwareFor returns the console profile for a hardware class.
func HardwareFor(h Hardware) (Profile, error) {
	p, ok := hardwareTable[h]
	if !ok {
		return Profile{}, ErrUnknownHardware
	}

	return p, nil
}

// VCountFor reports the override vcount for a timer0 value, if any row of
// the parameter set covers it.
func (p Parameters) VCountFor(timer0 uint32) (uint32, bool) {
	for _, o := range p.Overrides {
		if timer0 >= o.Timer0Min && timer0 <= o.Timer0Max {
			return o.VCount, true
		}
	}

	return 0, false
}
