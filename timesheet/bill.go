/*
Package timesheet holds billed-hour line items and their compact wire form.

  bill := timesheet.MustBill(8, calendar.NewDay(2010, time.June, 2), "5",
      timesheet.WithAssignment(57), timesheet.WithReason("late: train"))
  data := timesheet.EncodeBills([]timesheet.Bill{bill})
  // "8_57:20100602:5.00:late: train"

Hours are fixed-point hundredths, so bills built from "8", "8.0" and 8.0
are identical values.
*/
package timesheet

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/warp/paycal/calendar"
)

// =============================================================================
// HOURS - Two-digit fixed-point quantity
// =============================================================================

// Hours counts hundredths of an hour.
type Hours int64

var maxHours = decimal.NewFromInt(math.MaxInt64).Shift(-2)

// HoursFromDecimal converts d, rejecting negatives and values that need
// more than two fractional digits.
func HoursFromDecimal(d decimal.Decimal) (Hours, error) {
	if d.IsNegative() {
		return 0, fmt.Errorf("%w: %s is negative", ErrInvalidHours, d)
	}
	if d.GreaterThan(maxHours) {
		return 0, fmt.Errorf("%w: %s is too large", ErrInvalidHours, d)
	}
	scaled := d.Shift(2)
	if !scaled.Equal(scaled.Truncate(0)) {
		return 0, fmt.Errorf("%w: %s has more than two decimal places", ErrInvalidHours, d)
	}
	return Hours(scaled.IntPart()), nil
}

// ParseHours parses a plain decimal string such as "8", "7.5" or "8.00".
func ParseHours(s string) (Hours, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidHours, s)
	}
	return HoursFromDecimal(d)
}

// HoursFromFloat converts f using its shortest decimal representation.
func HoursFromFloat(f float64) (Hours, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidHours, f)
	}
	return HoursFromDecimal(decimal.NewFromFloat(f))
}

// MustHours is ParseHours that panics; for tests and constants.
func MustHours(s string) Hours {
	h, err := ParseHours(s)
	if err != nil {
		panic(err)
	}
	return h
}

func (h Hours) Decimal() decimal.Decimal { return decimal.New(int64(h), -2) }
func (h Hours) Float64() float64         { return float64(h) / 100 }

// String renders the plain decimal with two fractional digits: "8.00".
func (h Hours) String() string { return h.Decimal().StringFixed(2) }

func (h Hours) MarshalJSON() ([]byte, error) { return []byte(h.String()), nil }

// UnmarshalJSON accepts a JSON number or a numeric string.
func (h *Hours) UnmarshalJSON(b []byte) error {
	s := string(b)
	if s == "null" {
		return nil
	}
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	parsed, err := ParseHours(s)
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// =============================================================================
// BILL - One task/day line item
// =============================================================================

// Bill is an immutable billed-hours entry. AssignmentID and Reason are
// optional; a present Reason is never empty.
type Bill struct {
	TaskID       int          `json:"task_id"`
	AssignmentID *int         `json:"assignment_id,omitempty"`
	Day          calendar.Day `json:"day"`
	Hours        Hours        `json:"hours"`
	Reason       *string      `json:"reason,omitempty"`
}

// BillOption sets an optional field.
type BillOption func(*Bill)

// WithAssignment ties the bill to an assignment.
func WithAssignment(id int) BillOption {
	return func(b *Bill) { b.AssignmentID = &id }
}

// WithReason annotates the bill.
func WithReason(reason string) BillOption {
	return func(b *Bill) { b.Reason = &reason }
}

// NewBill builds and validates a bill.
func NewBill(taskID int, day calendar.Day, hours Hours, opts ...BillOption) (Bill, error) {
	b := Bill{TaskID: taskID, Day: day, Hours: hours}
	for _, opt := range opts {
		opt(&b)
	}
	if err := b.Validate(); err != nil {
		return Bill{}, err
	}
	return b, nil
}

// MustBill parses hours and builds a bill, panicking on error.
func MustBill(taskID int, day calendar.Day, hours string, opts ...BillOption) Bill {
	b, err := NewBill(taskID, day, MustHours(hours), opts...)
	if err != nil {
		panic(err)
	}
	return b
}

// Validate checks id signs, hours and reason.
func (b Bill) Validate() error {
	if b.TaskID < 0 {
		return fmt.Errorf("%w: negative task id %d", ErrInvalidBill, b.TaskID)
	}
	if b.AssignmentID != nil && *b.AssignmentID < 0 {
		return fmt.Errorf("%w: negative assignment id %d", ErrInvalidBill, *b.AssignmentID)
	}
	if b.Hours < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidHours, b.Hours)
	}
	if b.Reason != nil && *b.Reason == "" {
		return fmt.Errorf("%w: empty reason", ErrInvalidBill)
	}
	return nil
}

func (b Bill) HasAssignment() bool { return b.AssignmentID != nil }
func (b Bill) HasReason() bool     { return b.Reason != nil }

// Key identifies the task, assignment and day a bill is for.
func (b Bill) Key() string {
	aid := ""
	if b.AssignmentID != nil {
		aid = strconv.Itoa(*b.AssignmentID)
	}
	return strconv.Itoa(b.TaskID) + ":" + aid + ":" + b.Day.Compact()
}

// Equal compares bills by value.
func (b Bill) Equal(other Bill) bool {
	return b.TaskID == other.TaskID &&
		b.Day == other.Day &&
		b.Hours == other.Hours &&
		equalPtr(b.AssignmentID, other.AssignmentID) &&
		equalPtr(b.Reason, other.Reason)
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// TotalHours sums the hours of all bills.
func TotalHours(bills []Bill) Hours {
	var total Hours
	for _, b := range bills {
		total += b.Hours
	}
	return total
}
