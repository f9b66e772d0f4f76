/*
Package holiday parses recurring holiday configurations and resolves them to
concrete days.

CONFIGURATION GRAMMAR (case-insensitive):
  <Month> <Day><suffix> Observance   "July 4th Observance"
  <Month> <Day>[<suffix>]            "Jan 1st", "December 24"
  <Ordinal> <Weekday> in <Month>     "3rd Monday in January", "4 Thu in Nov"
  Last <Weekday> in <Month>          "Last Monday in May"

  Any form may end with a day offset: "4th Thursday in November + 1".

The configuration text is what gets persisted; Rule is derived from it and
recomputed on load.
*/
package holiday

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Kind identifies the shape of a Rule.
type Kind int

const (
	// KindFixedDate is the same month and day every year.
	KindFixedDate Kind = iota
	// KindFixedObservance is a fixed date that is "observed"; see
	// Resolver.ShiftObserved for weekend handling.
	KindFixedObservance
	// KindNthWeekday is the Nth (1-4) occurrence of a weekday in a month.
	KindNthWeekday
	// KindLastWeekday is the last occurrence of a weekday in a month.
	KindLastWeekday
)

func (k Kind) String() string {
	switch k {
	case KindFixedDate:
		return "fixed_date"
	case KindFixedObservance:
		return "fixed_observance"
	case KindNthWeekday:
		return "nth_weekday"
	case KindLastWeekday:
		return "last_weekday"
	default:
		return "unknown"
	}
}

// Rule is a recurring calendar pattern. Only the fields relevant to Kind are
// set: Day for the fixed kinds, Ordinal and Weekday for the weekday kinds.
type Rule struct {
	Kind    Kind
	Month   time.Month
	Day     int
	Ordinal int
	Weekday time.Weekday
	Offset  int // days added after resolution
}

// FixedObservance returns the rule for an observed fixed date.
func FixedObservance(month time.Month, day int) Rule {
	return Rule{Kind: KindFixedObservance, Month: month, Day: day}
}

// FixedDate returns the rule for a plain fixed date.
func FixedDate(month time.Month, day int) Rule {
	return Rule{Kind: KindFixedDate, Month: month, Day: day}
}

// NthWeekday returns the rule for the ordinal-th weekday of month.
func NthWeekday(ordinal int, weekday time.Weekday, month time.Month) Rule {
	return Rule{Kind: KindNthWeekday, Ordinal: ordinal, Weekday: weekday, Month: month}
}

// LastWeekday returns the rule for the last weekday of month.
func LastWeekday(weekday time.Weekday, month time.Month) Rule {
	return Rule{Kind: KindLastWeekday, Weekday: weekday, Month: month}
}

// WithOffset returns a copy of r shifted by days.
func (r Rule) WithOffset(days int) Rule {
	r.Offset = days
	return r
}

// String renders r in the canonical configuration form; Parse(r.String())
// yields r again.
func (r Rule) String() string {
	var b strings.Builder
	switch r.Kind {
	case KindFixedDate:
		fmt.Fprintf(&b, "%s %s", r.Month, ordinal(r.Day))
	case KindFixedObservance:
		fmt.Fprintf(&b, "%s %s Observance", r.Month, ordinal(r.Day))
	case KindNthWeekday:
		fmt.Fprintf(&b, "%s %s in %s", ordinal(r.Ordinal), r.Weekday, r.Month)
	case KindLastWeekday:
		fmt.Fprintf(&b, "Last %s in %s", r.Weekday, r.Month)
	}
	switch {
	case r.Offset > 0:
		fmt.Fprintf(&b, " + %d", r.Offset)
	case r.Offset < 0:
		fmt.Fprintf(&b, " - %d", -r.Offset)
	}
	return b.String()
}

// ordinal formats n with its English suffix: 1st, 2nd, 3rd, 4th, 11th, 22nd.
func ordinal(n int) string {
	return strconv.Itoa(n) + ordinalSuffix(n)
}

func ordinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	default:
		return "th"
	}
}
