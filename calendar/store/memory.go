// Package store provides in-memory period and holiday stores.
package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/holiday"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu       sync.RWMutex
	periods  map[int][]calendar.PayPeriod // sorted by Begin
	holidays map[int][]holiday.Holiday
	nextID   int
	inserts  int
}

func NewMemory() *Memory {
	return &Memory{
		periods:  make(map[int][]calendar.PayPeriod),
		holidays: make(map[int][]holiday.Holiday),
		nextID:   1,
	}
}

var (
	_ calendar.PeriodStore    = (*Memory)(nil)
	_ calendar.EarliestFinder = (*Memory)(nil)
	_ calendar.PeriodLister   = (*Memory)(nil)
	_ holiday.AdminStore      = (*Memory)(nil)
)

// FindContaining returns the period covering day, or nil.
func (m *Memory) FindContaining(_ context.Context, companyID int, day calendar.Day) (*calendar.PayPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ps := m.periods[companyID]
	// First period ending on or after day.
	i := sort.Search(len(ps), func(i int) bool { return !ps[i].End.Before(day) })
	if i < len(ps) && ps[i].Contains(day) {
		p := ps[i]
		return &p, nil
	}
	return nil, nil
}

func (m *Memory) FindLatest(_ context.Context, companyID int) (*calendar.PayPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ps := m.periods[companyID]
	if len(ps) == 0 {
		return nil, nil
	}
	p := ps[len(ps)-1]
	return &p, nil
}

func (m *Memory) FindEarliest(_ context.Context, companyID int) (*calendar.PayPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ps := m.periods[companyID]
	if len(ps) == 0 {
		return nil, nil
	}
	p := ps[0]
	return &p, nil
}

// InsertIfAbsent stores p unless a period with the same begin exists, in
// which case the stored one is returned.
func (m *Memory) InsertIfAbsent(_ context.Context, p calendar.PayPeriod) (calendar.PayPeriod, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps := m.periods[p.CompanyID]
	i := sort.Search(len(ps), func(i int) bool { return !ps[i].Begin.Before(p.Begin) })
	if i < len(ps) && ps[i].Begin.Equal(p.Begin) {
		return ps[i], nil
	}

	// Insert at position i, keeping the slice ordered by Begin.
	ps = append(ps, calendar.PayPeriod{})
	copy(ps[i+1:], ps[i:])
	ps[i] = p
	m.periods[p.CompanyID] = ps
	m.inserts++
	return p, nil
}

// ListPeriods returns stored periods overlapping [from, to], ordered.
func (m *Memory) ListPeriods(_ context.Context, companyID int, from, to calendar.Day) ([]calendar.PayPeriod, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []calendar.PayPeriod
	for _, p := range m.periods[companyID] {
		if p.End.Before(from) || p.Begin.After(to) {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// PeriodCount returns the number of stored periods for a company.
func (m *Memory) PeriodCount(companyID int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.periods[companyID])
}

// Inserts counts successful inserts across all companies.
func (m *Memory) Inserts() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.inserts
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) AllForCompany(_ context.Context, companyID int) ([]holiday.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]holiday.Holiday, len(m.holidays[companyID]))
	copy(out, m.holidays[companyID])
	return out, nil
}

// SaveHoliday inserts h when h.ID is 0 and replaces the stored holiday
// otherwise. Descriptions are unique per company.
func (m *Memory) SaveHoliday(_ context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	if err := h.Validate(); err != nil {
		return holiday.Holiday{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	hs := m.holidays[h.CompanyID]
	for _, other := range hs {
		if other.ID != h.ID && other.Description == h.Description {
			return holiday.Holiday{}, fmt.Errorf("%w: company %d already has a holiday named %q",
				holiday.ErrInvalidHoliday, h.CompanyID, h.Description)
		}
	}
	if h.ID == 0 {
		h.ID = m.nextID
		m.nextID++
		m.holidays[h.CompanyID] = append(hs, h)
		return h, nil
	}
	for i := range hs {
		if hs[i].ID == h.ID {
			hs[i] = h
			return h, nil
		}
	}
	return holiday.Holiday{}, fmt.Errorf("holiday %d: %w", h.ID, holiday.ErrHolidayNotFound)
}

func (m *Memory) DeleteHoliday(_ context.Context, companyID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	hs := m.holidays[companyID]
	for i := range hs {
		if hs[i].ID == id {
			m.holidays[companyID] = append(hs[:i], hs[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("holiday %d: %w", id, holiday.ErrHolidayNotFound)
}
