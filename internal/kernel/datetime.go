package kernel

import "time"

// epoch2000Unix is the Unix timestamp of 2000-01-01 00:00:00 UTC, the zero
// point of the console RTC's date counter.
const epoch2000Unix int64 = 946684800

const (
	secondsPerDay = 86400

	// tableDays covers the RTC's full century: 2000-01-01 .. 2099-12-31.
	tableDays = 36525

	// pmFlag is OR-ed into the hour byte by 12-hour-rollover hardware
	// (DS, DS Lite) for hours >= 12. The 3DS keeps a 24-hour clock.
	pmFlag = 0x40000000
)

// Precomputed per-second and per-day codes for block words 8 and 9.
// Built once at package init; lookups on the enumeration hot path are
// a single index each.
var (
	timeCodes [secondsPerDay]uint32
	dateCodes [tableDays]uint32
)

func init() {
	buildTimeCodes()
	buildDateCodes()
}

// bcd packs a two-digit decimal value as (tens<<4)|ones.
func bcd(v int) uint32 {
	return uint32(v/10)<<4 | uint32(v%10)
}

func buildTimeCodes() {
	i := 0
	for hour := 0; hour < 24; hour++ {
		hc := bcd(hour) << 24
		for minute := 0; minute < 60; minute++ {
			mc := hc | bcd(minute)<<16
			for second := 0; second < 60; second++ {
				timeCodes[i] = mc | bcd(second)<<8
				i++
			}
		}
	}
}

func buildDateCodes() {
	i := 0
	// 2000-01-01 is a Saturday; the RTC counts weekdays with Sunday = 0.
	weekday := 6

	for year := 2000; year < 2100; year++ {
		yc := bcd(year%100) << 24
		for month := 1; month <= 12; month++ {
			mc := yc | bcd(month)<<16
			for day := 1; day <= daysInMonth(year, month); day++ {
				dateCodes[i] = mc | bcd(day)<<8 | bcd(weekday)
				i++

				weekday = (weekday + 1) % 7
			}
		}
	}
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

func daysInMonth(year, month int) int {
	switch month {
	case 1, 3, 5, 7, 8, 10, 12:
		return 31
	case 4, 6, 9, 11:
		return 30
	default:
		if isLeapYear(year) {
			return 29
		}

		return 28
	}
}

// SecondsSince2000 converts a wall-clock time point to the RTC second index.
// The time is interpreted as the console's local wall clock; callers are
// expected to construct it in UTC.
func SecondsSince2000(t time.Time) int64 {
	return t.Unix() - epoch2000Unix
}

// TimeFromSeconds is the inverse of SecondsSince2000, used to render the
// wall-clock time of a match.
func TimeFromSeconds(s int64) time.Time {
	return time.Unix(s+epoch2000Unix, 0).UTC()
}

// InTableRange reports whether the RTC second index falls inside the
// precomputed 2000-2099 window.
func InTableRange(s int64) bool {
	return s >= 0 && s < int64(tableDays)*secondsPerDay
}

// TimeCode returns block word 9 for the given second-of-century index.
// rollover selects the 12-hour PM flag behavior of the hardware class.
func TimeCode(s int64, rollover bool) uint32 {
	code := timeCodes[s%secondsPerDay]
	if rollover && code>>24 >= 0x12 {
		code |= pmFlag
	}

	return code
}

// DateCode returns block word 8 for the given second-of-century index.
func DateCode(s int64) uint32 {
	return dateCodes[s/secondsPerDay]
}
