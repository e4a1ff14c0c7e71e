package value

import "time"

// Precision distinguishes a date-only literal from a date-and-minute one.
type Precision int

const (
	PrecisionDate Precision = iota
	PrecisionDateMinute
)

// Offset records how a DateTime literal spelled its UTC offset, which
// matters for round-tripping through the DSL generator even though
// comparisons always normalize to the instant.
type Offset struct {
	// Local is true when no UTC offset was given in the source literal.
	Local bool
	// FixedUTCHours holds the `UTC[+-]<int>` offset when Local is false.
	FixedUTCHours int
}

// DateTime is a calendar instant carried alongside the precision and offset
// form it was written in.
//
// Open question (§9): ordering of a date-only literal uses the entity's own
// offset if present, else UTC midnight — see Instant below.
type DateTime struct {
	Year, Month, Day   int
	Hour, Minute       int
	Precision          Precision
	Offset             Offset
}

// Instant resolves the DateTime to a concrete UTC time.Time for ordering and
// equality. A date-only value with a Local offset is treated as UTC
// midnight; a date-only value with a fixed offset uses that offset's
// start-of-day.
func (dt DateTime) Instant() time.Time {
	loc := time.UTC
	hour, minute := dt.Hour, dt.Minute
	if dt.Precision == PrecisionDate {
		hour, minute = 0, 0
	}
	t := time.Date(dt.Year, time.Month(dt.Month), dt.Day, hour, minute, 0, 0, loc)
	if !dt.Offset.Local {
		t = t.Add(-time.Duration(dt.Offset.FixedUTCHours) * time.Hour)
	}
	return t
}
