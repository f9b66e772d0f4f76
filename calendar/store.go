/*
store.go - Persistence interfaces for pay periods

PURPOSE:
  Defines what the materializer needs from storage. Implementations:
  - calendar/store/memory.go: in-memory, for tests and dev
  - store/sqlite: single-process deployments
  - store/postgres: multi-instance deployments
  - store/rediscache: read-through cache over any of the above

IDEMPOTENCY:
  InsertIfAbsent must be a no-op when a period with the same
  (company, begin) already exists, returning the stored row. Two instances
  materializing the same missing period both end up with the same value and
  a single row.
*/
package calendar

import "context"

// PeriodStore is the repository the materializer walks against.
type PeriodStore interface {
	// FindContaining returns the stored period covering day, or nil.
	FindContaining(ctx context.Context, companyID int, day Day) (*PayPeriod, error)

	// FindLatest returns the chronologically last stored period, or nil.
	FindLatest(ctx context.Context, companyID int) (*PayPeriod, error)

	// InsertIfAbsent persists p unless a period with the same company and
	// begin exists, in which case the existing one is returned.
	InsertIfAbsent(ctx context.Context, p PayPeriod) (PayPeriod, error)
}

// EarliestFinder is an optional PeriodStore capability. When present, walks
// toward the past start from the earliest stored period instead of the
// latest one.
type EarliestFinder interface {
	FindEarliest(ctx context.Context, companyID int) (*PayPeriod, error)
}

// PeriodLister is an optional PeriodStore capability. Range uses it to return
// already materialized periods without a lookup per period. ListPeriods
// returns the stored periods overlapping [from, to] ordered by begin.
type PeriodLister interface {
	ListPeriods(ctx context.Context, companyID int, from, to Day) ([]PayPeriod, error)
}
