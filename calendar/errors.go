/*
errors.go - Error types for the pay period engine

ERROR CATEGORIES:
  1. No-anchor errors - a company has no stored period to walk from
  2. Validation errors - malformed periods, unknown recurrence types
  3. Store errors - conflicts surfaced by storage implementations

Storage failures that are not conflicts are returned unchanged (wrapped with
%w) so callers can still match driver errors with errors.Is/As.
*/
package calendar

import (
	"errors"
	"fmt"
)

var (
	// ErrNoAnchor is returned when a company has no persisted pay period.
	// A period must be seeded before any lookup can materialize new ones.
	ErrNoAnchor = errors.New("no pay periods configured")

	// ErrPeriodExists is returned by stores that surface a (company, begin)
	// uniqueness conflict instead of returning the existing row.
	ErrPeriodExists = errors.New("pay period already exists")

	// ErrInvalidPeriod is returned when a period is malformed.
	ErrInvalidPeriod = errors.New("invalid pay period")

	// ErrUnknownPayPeriodType is returned when parsing an unsupported type.
	ErrUnknownPayPeriodType = errors.New("unknown pay period type")

	// ErrWalkLimit is returned when materialization would create more periods
	// than the materializer allows in one call.
	ErrWalkLimit = errors.New("pay period walk limit exceeded")

	// ErrPeriodNotFound is returned when a re-fetch after a conflict finds
	// nothing.
	ErrPeriodNotFound = errors.New("pay period not found")
)

// NoAnchorError identifies the company that has no seeded period.
type NoAnchorError struct {
	CompanyID int
}

func (e *NoAnchorError) Error() string {
	return fmt.Sprintf("no pay periods configured for company %d", e.CompanyID)
}

func (e *NoAnchorError) Unwrap() error { return ErrNoAnchor }

// InvalidPeriodError describes why a period failed validation.
type InvalidPeriodError struct {
	Period PayPeriod
	Reason string
}

func (e *InvalidPeriodError) Error() string {
	return fmt.Sprintf("invalid pay period %s: %s", e.Period, e.Reason)
}

func (e *InvalidPeriodError) Unwrap() error { return ErrInvalidPeriod }

// WalkLimitError reports how far a materialization would have needed to go.
type WalkLimitError struct {
	CompanyID int
	Day       Day
	Limit     int
}

func (e *WalkLimitError) Error() string {
	return fmt.Sprintf("company %d: reaching %s needs more than %d new pay periods", e.CompanyID, e.Day, e.Limit)
}

func (e *WalkLimitError) Unwrap() error { return ErrWalkLimit }

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrUnknownPayPeriodType) ||
		errors.Is(err, ErrWalkLimit)
}

// IsConflict returns true for errors the caller can resolve by seeding
// configuration first.
func IsConflict(err error) bool {
	return errors.Is(err, ErrNoAnchor)
}
