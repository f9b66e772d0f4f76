package calendar

import (
	"fmt"
	"time"
)

// =============================================================================
// DAY - Calendar date with no time component
// =============================================================================

// Day is a calendar date truncated to day granularity. The zero value is
// January 1, year 1. Days are comparable with ==.
type Day struct {
	t time.Time
}

const (
	// DayLayout is the ISO form used for JSON and String.
	DayLayout = "2006-01-02"
	// CompactLayout is the yyyyMMdd form used on the timesheet wire.
	CompactLayout = "20060102"
)

// NewDay returns the given calendar date. Out-of-range values normalize the
// way time.Date does (e.g. January 32 is February 1).
func NewDay(year int, month time.Month, day int) Day {
	return Day{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DayOf truncates t to its wall-clock date. The zone is read once and then
// discarded.
func DayOf(t time.Time) Day {
	return NewDay(t.Year(), t.Month(), t.Day())
}

// Today returns the current local date.
func Today() Day {
	return DayOf(time.Now())
}

// ParseDay parses s with the given layout and truncates the result.
func ParseDay(layout, s string) (Day, error) {
	t, err := time.Parse(layout, s)
	if err != nil {
		return Day{}, err
	}
	return DayOf(t), nil
}

// MustParseDay is ParseDay with DayLayout that panics on error. Intended for
// tests and fixed tables.
func MustParseDay(s string) Day {
	d, err := ParseDay(DayLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Day) Before(other Day) bool        { return d.t.Before(other.t) }
func (d Day) After(other Day) bool         { return d.t.After(other.t) }
func (d Day) Equal(other Day) bool         { return d.t.Equal(other.t) }
func (d Day) BeforeOrEqual(other Day) bool { return !d.After(other) }
func (d Day) AfterOrEqual(other Day) bool  { return !d.Before(other) }

// Compare returns -1, 0 or +1.
func (d Day) Compare(other Day) int { return d.t.Compare(other.t) }

// Arithmetic
func (d Day) AddDays(n int) Day { return Day{t: d.t.AddDate(0, 0, n)} }

// AddMonths moves n months, clamping to the last day of the target month
// rather than overflowing into the next one (Jan 31 + 1 month = Feb 28/29).
func (d Day) AddMonths(n int) Day {
	first := time.Date(d.Year(), d.Month()+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	last := DayOf(first).EndOfMonth().DayOfMonth()
	day := d.DayOfMonth()
	if day > last {
		day = last
	}
	return NewDay(first.Year(), first.Month(), day)
}

// DaysUntil returns the number of days from d to other (negative if other is
// earlier).
func (d Day) DaysUntil(other Day) int {
	return int(other.t.Sub(d.t).Hours() / 24)
}

// Properties
func (d Day) Year() int             { return d.t.Year() }
func (d Day) Month() time.Month     { return d.t.Month() }
func (d Day) DayOfMonth() int       { return d.t.Day() }
func (d Day) Weekday() time.Weekday { return d.t.Weekday() }
func (d Day) IsZero() bool          { return d.t.IsZero() }
func (d Day) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time { return d.t }

// StartOfMonth returns the first day of d's month.
func (d Day) StartOfMonth() Day { return NewDay(d.Year(), d.Month(), 1) }

// EndOfMonth returns the last day of d's month.
func (d Day) EndOfMonth() Day {
	return NewDay(d.Year(), d.Month()+1, 1).AddDays(-1)
}

func (d Day) String() string { return d.t.Format(DayLayout) }

// Compact formats the day as yyyyMMdd.
func (d Day) Compact() string { return d.t.Format(CompactLayout) }

// Format formats the day with an arbitrary time layout.
func (d Day) Format(layout string) string { return d.t.Format(layout) }

func (d Day) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.String() + `"`), nil
}

func (d *Day) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("calendar: day must be a JSON string, got %s", s)
	}
	parsed, err := ParseDay(DayLayout, s[1:len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
