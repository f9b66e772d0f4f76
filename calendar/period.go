package calendar

import (
	"fmt"
	"strings"
)

// =============================================================================
// PAY PERIOD TYPE - Recurrence rule for a company's pay periods
// =============================================================================

// PayPeriodType defines how consecutive pay periods are laid out. The names
// are the persisted form.
type PayPeriodType string

const (
	Weekly      PayPeriodType = "WEEKLY"       // 7 days
	BiWeekly    PayPeriodType = "BI_WEEKLY"    // 14 days
	SemiMonthly PayPeriodType = "SEMI_MONTHLY" // 1st-15th, 16th-end of month
	Monthly     PayPeriodType = "MONTHLY"      // one calendar month from begin
)

// PayPeriodTypes lists every supported recurrence.
var PayPeriodTypes = []PayPeriodType{Weekly, BiWeekly, SemiMonthly, Monthly}

// ParsePayPeriodType accepts the persisted names case-insensitively, with
// "-" or " " in place of "_".
func ParsePayPeriodType(s string) (PayPeriodType, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("-", "_", " ", "_").Replace(norm)
	if norm == "BIWEEKLY" {
		norm = string(BiWeekly)
	}
	if norm == "SEMIMONTHLY" {
		norm = string(SemiMonthly)
	}
	for _, t := range PayPeriodTypes {
		if string(t) == norm {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPayPeriodType, s)
}

// Valid reports whether t is one of the supported recurrences.
func (t PayPeriodType) Valid() bool {
	switch t {
	case Weekly, BiWeekly, SemiMonthly, Monthly:
		return true
	}
	return false
}

// PeriodEnd returns the inclusive last day of a period of this type starting
// on begin.
func (t PayPeriodType) PeriodEnd(begin Day) Day {
	switch t {
	case Weekly:
		return begin.AddDays(6)
	case BiWeekly:
		return begin.AddDays(13)
	case SemiMonthly:
		if begin.DayOfMonth() <= 15 {
			return NewDay(begin.Year(), begin.Month(), 15)
		}
		return begin.EndOfMonth()
	case Monthly:
		return begin.AddMonths(1).AddDays(-1)
	default:
		return begin
	}
}

// periodBegin is the inverse of PeriodEnd: the first day of the period of
// this type that ends on end.
func (t PayPeriodType) periodBegin(end Day) Day {
	switch t {
	case Weekly:
		return end.AddDays(-6)
	case BiWeekly:
		return end.AddDays(-13)
	case SemiMonthly:
		if end.DayOfMonth() <= 15 {
			return end.StartOfMonth()
		}
		return NewDay(end.Year(), end.Month(), 16)
	case Monthly:
		return end.AddDays(1).AddMonths(-1)
	default:
		return end
	}
}

// Next returns the period immediately following p.
func (t PayPeriodType) Next(p PayPeriod) PayPeriod {
	begin := p.End.AddDays(1)
	return PayPeriod{CompanyID: p.CompanyID, Type: t, Begin: begin, End: t.PeriodEnd(begin)}
}

// Previous returns the period immediately preceding p.
func (t PayPeriodType) Previous(p PayPeriod) PayPeriod {
	switch t {
	case Weekly, BiWeekly:
		n := p.Length()
		return PayPeriod{CompanyID: p.CompanyID, Type: t, Begin: p.Begin.AddDays(-n), End: p.Begin.AddDays(-1)}
	case Monthly:
		return PayPeriod{CompanyID: p.CompanyID, Type: t, Begin: p.Begin.AddMonths(-1), End: p.Begin.AddDays(-1)}
	default:
		end := p.Begin.AddDays(-1)
		return PayPeriod{CompanyID: p.CompanyID, Type: t, Begin: t.periodBegin(end), End: end}
	}
}

// =============================================================================
// PAY PERIOD - Immutable date range for one company
// =============================================================================

// PayPeriod is a contiguous, inclusive range of days over which hours are
// accumulated. Consecutive periods of one company tile the calendar: no gap,
// no overlap.
type PayPeriod struct {
	CompanyID int           `json:"company_id"`
	Type      PayPeriodType `json:"type"`
	Begin     Day           `json:"begin"`
	End       Day           `json:"end"`
}

// NewPayPeriod builds the period of type t that starts on begin.
func NewPayPeriod(companyID int, t PayPeriodType, begin Day) PayPeriod {
	return PayPeriod{CompanyID: companyID, Type: t, Begin: begin, End: t.PeriodEnd(begin)}
}

// Validate checks the structural invariants. Begin days that would make
// Previous disagree with Next are rejected: MONTHLY periods must start on
// day 1-28 (later days get clamped in short months) and SEMI_MONTHLY periods
// on the 1st or 16th.
func (p PayPeriod) Validate() error {
	if !p.Type.Valid() {
		return &InvalidPeriodError{Period: p, Reason: fmt.Sprintf("unknown type %q", p.Type)}
	}
	if p.End.Before(p.Begin) {
		return &InvalidPeriodError{Period: p, Reason: "end before begin"}
	}
	if p.CompanyID < 0 {
		return &InvalidPeriodError{Period: p, Reason: "negative company id"}
	}
	switch d := p.Begin.DayOfMonth(); p.Type {
	case Monthly:
		if d > 28 {
			return &InvalidPeriodError{Period: p, Reason: "monthly periods must begin on day 1-28"}
		}
	case SemiMonthly:
		if d != 1 && d != 16 {
			return &InvalidPeriodError{Period: p, Reason: "semi-monthly periods must begin on the 1st or 16th"}
		}
	}
	if want := p.Type.PeriodEnd(p.Begin); !p.End.Equal(want) {
		return &InvalidPeriodError{Period: p, Reason: fmt.Sprintf("end should be %s", want)}
	}
	return nil
}

// Next returns the following period.
func (p PayPeriod) Next() PayPeriod { return p.Type.Next(p) }

// Previous returns the preceding period.
func (p PayPeriod) Previous() PayPeriod { return p.Type.Previous(p) }

// Contains returns true if day is within [Begin, End].
func (p PayPeriod) Contains(day Day) bool {
	return day.AfterOrEqual(p.Begin) && day.BeforeOrEqual(p.End)
}

// IsBefore reports whether the whole period lies before day.
func (p PayPeriod) IsBefore(day Day) bool { return p.End.Before(day) }

// IsAfter reports whether the whole period lies after day.
func (p PayPeriod) IsAfter(day Day) bool { return p.Begin.After(day) }

// Length returns the number of days in the period.
func (p PayPeriod) Length() int { return p.Begin.DaysUntil(p.End) + 1 }

// SpansYears reports whether Begin and End fall in different years.
func (p PayPeriod) SpansYears() bool { return p.Begin.Year() != p.End.Year() }

// Days returns every day in the period.
func (p PayPeriod) Days() []Day {
	days := make([]Day, 0, p.Length())
	for d := p.Begin; d.BeforeOrEqual(p.End); d = d.AddDays(1) {
		days = append(days, d)
	}
	return days
}

func (p PayPeriod) String() string {
	return fmt.Sprintf("%s[%s, %s]", p.Type, p.Begin, p.End)
}
