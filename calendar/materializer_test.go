package calendar_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/calendar/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

const company = 7

func newSeededMaterializer(t *testing.T, opts ...calendar.Option) (*calendar.Materializer, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	m := calendar.NewMaterializer(mem, opts...)
	_, err := m.Seed(context.Background(), calendar.NewPayPeriod(company, calendar.Weekly, day("2014-01-01")))
	require.NoError(t, err)
	return m, mem
}

// latestOnly hides the optional capabilities of the wrapped store.
type latestOnly struct{ s calendar.PeriodStore }

func (l latestOnly) FindContaining(ctx context.Context, c int, d calendar.Day) (*calendar.PayPeriod, error) {
	return l.s.FindContaining(ctx, c, d)
}
func (l latestOnly) FindLatest(ctx context.Context, c int) (*calendar.PayPeriod, error) {
	return l.s.FindLatest(ctx, c)
}
func (l latestOnly) InsertIfAbsent(ctx context.Context, p calendar.PayPeriod) (calendar.PayPeriod, error) {
	return l.s.InsertIfAbsent(ctx, p)
}

// conflicting reports ErrPeriodExists for every period that is already stored,
// the way a plain INSERT against a unique index would.
type conflicting struct {
	latestOnly
	conflicts int
}

func (c *conflicting) InsertIfAbsent(ctx context.Context, p calendar.PayPeriod) (calendar.PayPeriod, error) {
	existing, err := c.s.FindContaining(ctx, p.CompanyID, p.Begin)
	if err != nil {
		return calendar.PayPeriod{}, err
	}
	if existing != nil {
		c.conflicts++
		return calendar.PayPeriod{}, calendar.ErrPeriodExists
	}
	return c.s.InsertIfAbsent(ctx, p)
}

// counting records lookups against the wrapped memory store.
type counting struct {
	*store.Memory
	finds int
	lists int
}

func (c *counting) FindContaining(ctx context.Context, companyID int, d calendar.Day) (*calendar.PayPeriod, error) {
	c.finds++
	return c.Memory.FindContaining(ctx, companyID, d)
}

func (c *counting) ListPeriods(ctx context.Context, companyID int, from, to calendar.Day) ([]calendar.PayPeriod, error) {
	c.lists++
	return c.Memory.ListPeriods(ctx, companyID, from, to)
}

type failing struct{ latestOnly }

var errDiskFull = errors.New("disk full")

func (failing) InsertIfAbsent(context.Context, calendar.PayPeriod) (calendar.PayPeriod, error) {
	return calendar.PayPeriod{}, errDiskFull
}

// =============================================================================
// END-TO-END SCENARIO
// =============================================================================

func TestMaterializer_WeeklyScenario(t *testing.T) {
	// GIVEN: Company 7 seeded with WEEKLY [2014-01-01, 2014-01-07]
	// WHEN: Looking up days after, before and inside the stored chain
	// THEN: The right periods come back and are created exactly once

	m, mem := newSeededMaterializer(t)
	ctx := context.Background()

	p, err := m.Containing(ctx, company, day("2014-01-09"))
	require.NoError(t, err)
	assert.Equal(t, day("2014-01-08"), p.Begin)
	assert.Equal(t, day("2014-01-14"), p.End)
	assert.Equal(t, 2, mem.PeriodCount(company))

	p, err = m.Containing(ctx, company, day("2013-12-30"))
	require.NoError(t, err)
	assert.Equal(t, day("2013-12-25"), p.Begin)
	assert.Equal(t, day("2013-12-31"), p.End)
	assert.Equal(t, 3, mem.PeriodCount(company))

	inserts := mem.Inserts()
	for _, d := range []string{"2014-01-09", "2013-12-30", "2014-01-01", "2014-01-14"} {
		_, err := m.Containing(ctx, company, day(d))
		require.NoError(t, err)
	}
	assert.Equal(t, inserts, mem.Inserts(), "repeat lookups create nothing")
}

func TestMaterializer_FarFutureFillsGap(t *testing.T) {
	m, mem := newSeededMaterializer(t)
	ctx := context.Background()

	p, err := m.Containing(ctx, company, day("2014-03-01"))
	require.NoError(t, err)
	assert.True(t, p.Contains(day("2014-03-01")))

	// Every intermediate week is stored, so the chain has no holes.
	periods, err := mem.ListPeriods(ctx, company, day("2014-01-01"), day("2014-03-01"))
	require.NoError(t, err)
	for i := 1; i < len(periods); i++ {
		assert.Equal(t, periods[i-1].End.AddDays(1), periods[i].Begin)
	}
	assert.Equal(t, 9, mem.PeriodCount(company))
}

func TestMaterializer_BackwardWithoutEarliestFinder(t *testing.T) {
	// GIVEN: A store that only knows its latest period
	// WHEN: A past day is requested
	// THEN: The walk starts at the latest period and re-inserts are harmless

	mem := store.NewMemory()
	m := calendar.NewMaterializer(latestOnly{s: mem})
	ctx := context.Background()

	_, err := m.Seed(ctx, calendar.NewPayPeriod(company, calendar.SemiMonthly, day("2014-01-01")))
	require.NoError(t, err)
	_, err = m.Containing(ctx, company, day("2014-02-20"))
	require.NoError(t, err)

	p, err := m.Containing(ctx, company, day("2013-12-20"))
	require.NoError(t, err)
	assert.Equal(t, day("2013-12-16"), p.Begin)
	assert.Equal(t, day("2013-12-31"), p.End)
	assert.Equal(t, 5, mem.PeriodCount(company))
}

// =============================================================================
// ERRORS
// =============================================================================

func TestMaterializer_NoAnchor(t *testing.T) {
	m := calendar.NewMaterializer(store.NewMemory())

	_, err := m.Containing(context.Background(), 99, day("2014-01-01"))

	var noAnchor *calendar.NoAnchorError
	require.ErrorAs(t, err, &noAnchor)
	assert.Equal(t, 99, noAnchor.CompanyID)
	assert.ErrorIs(t, err, calendar.ErrNoAnchor)
	assert.True(t, calendar.IsConflict(err))
}

func TestMaterializer_ConflictRefetches(t *testing.T) {
	// GIVEN: A store that reports ErrPeriodExists instead of returning rows
	// WHEN: A backward walk steps over stored periods
	// THEN: The existing rows are re-read and the lookup still succeeds

	mem := store.NewMemory()
	cs := &conflicting{latestOnly: latestOnly{s: mem}}
	m := calendar.NewMaterializer(cs)
	ctx := context.Background()

	_, err := m.Seed(ctx, calendar.NewPayPeriod(company, calendar.Weekly, day("2014-01-01")))
	require.NoError(t, err)
	_, err = m.Containing(ctx, company, day("2014-01-20"))
	require.NoError(t, err)

	p, err := m.Containing(ctx, company, day("2013-12-30"))
	require.NoError(t, err)
	assert.Equal(t, day("2013-12-25"), p.Begin)
	assert.Equal(t, 2, cs.conflicts)
}

func TestMaterializer_StorageErrorPropagates(t *testing.T) {
	mem := store.NewMemory()
	_, err := mem.InsertIfAbsent(context.Background(), calendar.NewPayPeriod(company, calendar.Weekly, day("2014-01-01")))
	require.NoError(t, err)

	m := calendar.NewMaterializer(failing{latestOnly{s: mem}})
	_, err = m.Containing(context.Background(), company, day("2014-02-01"))
	assert.ErrorIs(t, err, errDiskFull)
}

func TestMaterializer_WalkLimit(t *testing.T) {
	m, mem := newSeededMaterializer(t, calendar.WithMaxSteps(3))

	_, err := m.Containing(context.Background(), company, day("2015-01-01"))

	var limit *calendar.WalkLimitError
	require.ErrorAs(t, err, &limit)
	assert.Equal(t, 3, limit.Limit)
	assert.Equal(t, 4, mem.PeriodCount(company), "periods walked before the limit stay stored")
}

func TestMaterializer_CanceledContext(t *testing.T) {
	m, _ := newSeededMaterializer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Containing(ctx, company, day("2014-06-01"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMaterializer_SeedOverlapRejected(t *testing.T) {
	m, _ := newSeededMaterializer(t)

	_, err := m.Seed(context.Background(), calendar.NewPayPeriod(company, calendar.Weekly, day("2014-01-03")))
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)

	again, err := m.Seed(context.Background(), calendar.NewPayPeriod(company, calendar.Weekly, day("2014-01-01")))
	require.NoError(t, err)
	assert.Equal(t, day("2014-01-07"), again.End)
}

func TestMaterializer_SeedRejectsDriftingAnchor(t *testing.T) {
	// GIVEN: An empty store
	// WHEN: A monthly anchor on the 31st and a semi-monthly anchor on the 10th are seeded
	// THEN: Both are rejected and nothing is stored

	mem := store.NewMemory()
	m := calendar.NewMaterializer(mem)
	ctx := context.Background()

	_, err := m.Seed(ctx, calendar.NewPayPeriod(company, calendar.Monthly, day("2014-01-31")))
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)

	_, err = m.Seed(ctx, calendar.NewPayPeriod(company, calendar.SemiMonthly, day("2014-01-10")))
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)

	assert.Equal(t, 0, mem.PeriodCount(company))
}

// =============================================================================
// CONCURRENCY, CURRENT, RANGE
// =============================================================================

func TestMaterializer_ConcurrentLookupsCreateOnce(t *testing.T) {
	m, mem := newSeededMaterializer(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p, err := m.Containing(ctx, company, day("2014-02-10"))
			assert.NoError(t, err)
			assert.True(t, p.Contains(day("2014-02-10")))
		}()
	}
	wg.Wait()

	assert.Equal(t, 6, mem.PeriodCount(company))
	assert.Equal(t, 6, mem.Inserts())
}

func TestMaterializer_Current(t *testing.T) {
	m, _ := newSeededMaterializer(t, calendar.WithClock(func() calendar.Day { return day("2014-01-16") }))

	p, err := m.Current(context.Background(), company)
	require.NoError(t, err)
	assert.Equal(t, day("2014-01-15"), p.Begin)
}

func TestMaterializer_Range(t *testing.T) {
	m, _ := newSeededMaterializer(t)
	ctx := context.Background()

	periods, err := m.Range(ctx, company, day("2013-12-30"), day("2014-01-20"))
	require.NoError(t, err)
	require.Len(t, periods, 4)
	assert.Equal(t, day("2013-12-25"), periods[0].Begin)
	assert.Equal(t, day("2014-01-21"), periods[3].End)

	_, err = m.Range(ctx, company, day("2014-01-20"), day("2014-01-01"))
	assert.ErrorIs(t, err, calendar.ErrInvalidPeriod)
}

func TestMaterializer_RangeUsesStoredPeriods(t *testing.T) {
	// GIVEN: A weekly chain already materialized through 2014-01-21
	// WHEN: The same range is requested again
	// THEN: It is answered from one listing with no per-period lookups

	c := &counting{Memory: store.NewMemory()}
	m := calendar.NewMaterializer(c)
	ctx := context.Background()
	_, err := m.Seed(ctx, calendar.NewPayPeriod(company, calendar.Weekly, day("2014-01-01")))
	require.NoError(t, err)

	first, err := m.Range(ctx, company, day("2014-01-02"), day("2014-01-20"))
	require.NoError(t, err)
	require.Len(t, first, 3)
	assert.Positive(t, c.finds)

	c.finds, c.lists = 0, 0
	again, err := m.Range(ctx, company, day("2014-01-02"), day("2014-01-20"))
	require.NoError(t, err)
	assert.Equal(t, first, again)
	assert.Equal(t, 1, c.lists)
	assert.Zero(t, c.finds)
}

func TestMaterializer_RangeWalksPastStoredGap(t *testing.T) {
	// GIVEN: Stored periods that stop before the end of the requested range
	// WHEN: Range runs
	// THEN: The missing periods are materialized and the result is contiguous

	c := &counting{Memory: store.NewMemory()}
	m := calendar.NewMaterializer(c)
	ctx := context.Background()
	_, err := m.Seed(ctx, calendar.NewPayPeriod(company, calendar.Weekly, day("2014-01-01")))
	require.NoError(t, err)

	periods, err := m.Range(ctx, company, day("2014-01-01"), day("2014-01-20"))
	require.NoError(t, err)
	require.Len(t, periods, 3)
	for i := 1; i < len(periods); i++ {
		assert.Equal(t, periods[i-1].End.AddDays(1), periods[i].Begin)
	}
	assert.Equal(t, 3, c.PeriodCount(company))
}
