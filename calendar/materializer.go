/*
materializer.go - Lazy, idempotent creation of pay periods

PURPOSE:
  Answers "which pay period contains day D for company C". Periods are only
  persisted once someone asks for them: a lookup past the stored chain walks
  Next()/Previous() from a known period and inserts every period it steps
  over, so the next lookup for any of those days is a single store read.

WALK DIRECTION:
  - Day after the latest stored period: walk forward from the latest.
  - Day before: walk backward from the earliest stored period when the store
    can report it (EarliestFinder), otherwise from the latest one. Walking
    over already stored periods is harmless because inserts are idempotent.

CONCURRENCY:
  Two callers (possibly in different processes) materializing the same
  period compute identical boundaries. The store's uniqueness constraint on
  (company, begin) decides the winner; the loser gets the existing row back,
  or ErrPeriodExists which triggers a re-fetch. In-process duplicates are
  collapsed with singleflight.
*/
package calendar

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxSteps bounds how many periods a single lookup may create.
const DefaultMaxSteps = 10000

// Materializer resolves days to pay periods, creating missing ones.
type Materializer struct {
	store    PeriodStore
	log      zerolog.Logger
	maxSteps int
	today    func() Day
	group    singleflight.Group
}

// Option configures a Materializer.
type Option func(*Materializer)

// WithLogger sets the logger used for materialization events.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Materializer) { m.log = l.With().Str("component", "materializer").Logger() }
}

// WithMaxSteps overrides DefaultMaxSteps. Values < 1 are ignored.
func WithMaxSteps(n int) Option {
	return func(m *Materializer) {
		if n > 0 {
			m.maxSteps = n
		}
	}
}

// WithClock overrides the source of "today" used by Current.
func WithClock(today func() Day) Option {
	return func(m *Materializer) { m.today = today }
}

// NewMaterializer creates a materializer over store.
func NewMaterializer(store PeriodStore, opts ...Option) *Materializer {
	m := &Materializer{
		store:    store,
		log:      zerolog.Nop(),
		maxSteps: DefaultMaxSteps,
		today:    Today,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Containing returns the pay period of companyID that contains day, creating
// and persisting periods as needed. Fails with *NoAnchorError when the
// company has no stored period at all.
func (m *Materializer) Containing(ctx context.Context, companyID int, day Day) (PayPeriod, error) {
	key := strconv.Itoa(companyID) + ":" + day.Compact()
	v, err, _ := m.group.Do(key, func() (any, error) {
		return m.containing(ctx, companyID, day)
	})
	if err != nil {
		return PayPeriod{}, err
	}
	return v.(PayPeriod), nil
}

// Current returns the period containing today.
func (m *Materializer) Current(ctx context.Context, companyID int) (PayPeriod, error) {
	return m.Containing(ctx, companyID, m.today())
}

// Seed stores an anchor period for a company. Seeding an existing period
// returns the stored one; a period overlapping a stored one with a different
// begin is rejected.
func (m *Materializer) Seed(ctx context.Context, p PayPeriod) (PayPeriod, error) {
	if err := p.Validate(); err != nil {
		return PayPeriod{}, err
	}
	for _, day := range []Day{p.Begin, p.End} {
		found, err := m.store.FindContaining(ctx, p.CompanyID, day)
		if err != nil {
			return PayPeriod{}, fmt.Errorf("find period containing %s: %w", day, err)
		}
		if found != nil && !found.Begin.Equal(p.Begin) {
			return PayPeriod{}, &InvalidPeriodError{Period: p, Reason: "overlaps " + found.String()}
		}
	}
	stored, err := m.insert(ctx, p)
	if err != nil {
		return PayPeriod{}, err
	}
	m.log.Info().Int("company_id", p.CompanyID).Str("period", stored.String()).Msg("pay period seeded")
	return stored, nil
}

// Range returns the consecutive periods covering [from, to], materializing
// any that are missing. A PeriodLister store answers fully materialized
// ranges in one query.
func (m *Materializer) Range(ctx context.Context, companyID int, from, to Day) ([]PayPeriod, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: range end %s before start %s", ErrInvalidPeriod, to, from)
	}
	if stored, ok := m.stored(ctx, companyID, from, to); ok {
		return stored, nil
	}
	var periods []PayPeriod
	day := from
	for {
		p, err := m.Containing(ctx, companyID, day)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
		if !p.End.Before(to) {
			return periods, nil
		}
		if len(periods) >= m.maxSteps {
			return nil, &WalkLimitError{CompanyID: companyID, Day: to, Limit: m.maxSteps}
		}
		day = p.End.AddDays(1)
	}
}

// stored returns the persisted periods for [from, to] when the store can list
// them and they already cover the range without gaps.
func (m *Materializer) stored(ctx context.Context, companyID int, from, to Day) ([]PayPeriod, bool) {
	lister, ok := m.store.(PeriodLister)
	if !ok {
		return nil, false
	}
	periods, err := lister.ListPeriods(ctx, companyID, from, to)
	if err != nil {
		m.log.Warn().Err(err).Int("company_id", companyID).Msg("list periods failed, walking instead")
		return nil, false
	}
	if len(periods) == 0 || periods[0].Begin.After(from) || periods[len(periods)-1].End.Before(to) {
		return nil, false
	}
	for i := 1; i < len(periods); i++ {
		if !periods[i].Begin.Equal(periods[i-1].End.AddDays(1)) {
			return nil, false
		}
	}
	return periods, true
}

func (m *Materializer) containing(ctx context.Context, companyID int, day Day) (PayPeriod, error) {
	found, err := m.store.FindContaining(ctx, companyID, day)
	if err != nil {
		return PayPeriod{}, fmt.Errorf("find period containing %s: %w", day, err)
	}
	if found != nil {
		return *found, nil
	}

	latest, err := m.store.FindLatest(ctx, companyID)
	if err != nil {
		return PayPeriod{}, fmt.Errorf("find latest period: %w", err)
	}
	if latest == nil {
		return PayPeriod{}, &NoAnchorError{CompanyID: companyID}
	}

	start := *latest
	if !latest.IsBefore(day) {
		if ef, ok := m.store.(EarliestFinder); ok {
			earliest, err := ef.FindEarliest(ctx, companyID)
			if err != nil {
				return PayPeriod{}, fmt.Errorf("find earliest period: %w", err)
			}
			if earliest != nil {
				start = *earliest
			}
		}
	}
	return m.walk(ctx, start, day)
}

func (m *Materializer) walk(ctx context.Context, from PayPeriod, day Day) (PayPeriod, error) {
	p := from
	created := 0
	for steps := 0; !p.Contains(day); steps++ {
		if steps >= m.maxSteps {
			return PayPeriod{}, &WalkLimitError{CompanyID: from.CompanyID, Day: day, Limit: m.maxSteps}
		}
		if err := ctx.Err(); err != nil {
			return PayPeriod{}, err
		}

		next := p.Next()
		if p.IsAfter(day) {
			next = p.Previous()
		}

		stored, err := m.insert(ctx, next)
		if err != nil {
			return PayPeriod{}, err
		}
		m.log.Debug().Int("company_id", stored.CompanyID).Str("period", stored.String()).Msg("pay period materialized")
		p = stored
		created++
	}

	if created > 0 {
		m.log.Info().
			Int("company_id", from.CompanyID).
			Str("day", day.String()).
			Str("from", from.String()).
			Int("walked", created).
			Msg("pay periods materialized")
	}
	return p, nil
}

// insert persists p, resolving a surfaced uniqueness conflict by re-reading
// the row someone else created.
func (m *Materializer) insert(ctx context.Context, p PayPeriod) (PayPeriod, error) {
	stored, err := m.store.InsertIfAbsent(ctx, p)
	if err == nil {
		return stored, nil
	}
	if !errors.Is(err, ErrPeriodExists) {
		return PayPeriod{}, fmt.Errorf("insert pay period %s: %w", p, err)
	}

	existing, ferr := m.store.FindContaining(ctx, p.CompanyID, p.Begin)
	if ferr != nil {
		return PayPeriod{}, fmt.Errorf("re-fetch pay period %s: %w", p, ferr)
	}
	if existing == nil {
		return PayPeriod{}, fmt.Errorf("re-fetch pay period %s: %w", p, ErrPeriodNotFound)
	}
	return *existing, nil
}
