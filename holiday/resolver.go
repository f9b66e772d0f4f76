package holiday

import (
	"time"

	"github.com/warp/paycal/calendar"
)

// Resolver turns rules into concrete days.
//
// ShiftObserved moves observed fixed dates off weekends: Saturday to the
// preceding Friday, Sunday to the following Monday. It is off by default,
// so "July 4th Observance" resolves to July 4 regardless of weekday.
type Resolver struct {
	ShiftObserved bool
}

// Resolve returns the rule's day in year using the literal-date convention.
func Resolve(r Rule, year int) calendar.Day {
	return Resolver{}.Resolve(r, year)
}

// Resolve returns the rule's day in year.
func (res Resolver) Resolve(r Rule, year int) calendar.Day {
	var day calendar.Day
	switch r.Kind {
	case KindFixedDate:
		day = fixedDay(year, r.Month, r.Day)
	case KindFixedObservance:
		day = fixedDay(year, r.Month, r.Day)
		if res.ShiftObserved {
			day = observed(day)
		}
	case KindNthWeekday:
		first := calendar.NewDay(year, r.Month, 1)
		day = first.AddDays(daysUntilWeekday(first.Weekday(), r.Weekday) + 7*(r.Ordinal-1))
	case KindLastWeekday:
		last := calendar.NewDay(year, r.Month, 1).EndOfMonth()
		day = last.AddDays(-daysUntilWeekday(r.Weekday, last.Weekday()))
	}
	return day.AddDays(r.Offset)
}

// fixedDay clamps Feb 29 to Feb 28 in non-leap years.
func fixedDay(year int, month time.Month, d int) calendar.Day {
	if last := calendar.NewDay(year, month, 1).EndOfMonth().DayOfMonth(); d > last {
		d = last
	}
	return calendar.NewDay(year, month, d)
}

func observed(day calendar.Day) calendar.Day {
	if !day.IsWeekend() {
		return day
	}
	if day.Weekday() == time.Saturday {
		return day.AddDays(-1)
	}
	return day.AddDays(1)
}

// daysUntilWeekday counts forward from one weekday to the next occurrence of
// another (0 when equal).
func daysUntilWeekday(from, to time.Weekday) int {
	return (int(to) - int(from) + 7) % 7
}

// IsWithin reports whether the holiday falls inside the period. A period
// spanning a year boundary is checked against both years.
func (res Resolver) IsWithin(h Holiday, p calendar.PayPeriod) (bool, error) {
	rule, err := h.Rule()
	if err != nil {
		return false, err
	}
	_, ok := res.occurrence(rule, p)
	return ok, nil
}

// IsWithin is Resolver.IsWithin with the literal-date convention.
func IsWithin(h Holiday, p calendar.PayPeriod) (bool, error) {
	return Resolver{}.IsWithin(h, p)
}

func (res Resolver) occurrence(rule Rule, p calendar.PayPeriod) (calendar.Day, bool) {
	for year := p.Begin.Year(); year <= p.End.Year(); year++ {
		if day := res.Resolve(rule, year); p.Contains(day) {
			return day, true
		}
	}
	// Offsets and weekend shifts can push a date across New Year.
	for _, year := range []int{p.Begin.Year() - 1, p.End.Year() + 1} {
		if day := res.Resolve(rule, year); p.Contains(day) {
			return day, true
		}
	}
	return calendar.Day{}, false
}

// Occurrence is a holiday resolved to a specific day.
type Occurrence struct {
	Holiday Holiday      `json:"holiday"`
	Day     calendar.Day `json:"day"`
}

// InPeriod returns the holidays that fall inside p, ordered by day. The first
// unparseable configuration aborts with its *ConfigurationError.
func (res Resolver) InPeriod(holidays []Holiday, p calendar.PayPeriod) ([]Occurrence, error) {
	var out []Occurrence
	for _, h := range holidays {
		rule, err := h.Rule()
		if err != nil {
			return nil, err
		}
		if day, ok := res.occurrence(rule, p); ok {
			out = append(out, Occurrence{Holiday: h, Day: day})
		}
	}
	sortOccurrences(out)
	return out, nil
}

// ForYear resolves every holiday for one year, ordered by day.
func (res Resolver) ForYear(holidays []Holiday, year int) ([]Occurrence, error) {
	out := make([]Occurrence, 0, len(holidays))
	for _, h := range holidays {
		rule, err := h.Rule()
		if err != nil {
			return nil, err
		}
		out = append(out, Occurrence{Holiday: h, Day: res.Resolve(rule, year)})
	}
	sortOccurrences(out)
	return out, nil
}
