/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists pay periods and company holidays for single-process deployments.
  store/postgres carries the same schema for multi-instance setups.

INTERFACES IMPLEMENTED:
  calendar.PeriodStore:    Containing/latest lookups, idempotent insert
  calendar.EarliestFinder: Backward walks start at the earliest period
  calendar.PeriodLister:   Range queries
  holiday.AdminStore:      Holiday CRUD

KEY TABLES:
  pay_periods: One row per materialized period, keyed by (company_id, begin_day)
  holidays:    Company holiday configurations

IDEMPOTENCY:
  pay_periods has a primary key on (company_id, begin_day). InsertIfAbsent
  uses INSERT ... ON CONFLICT DO NOTHING and then reads the row back, so two
  writers materializing the same period both see the first writer's row.

DATES:
  Days are stored as TEXT in 2006-01-02 form; lexical order is date order.

USAGE:
  store, err := sqlite.New("./data/paycal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  periods := calendar.NewMaterializer(store)

MIGRATION:
  Schema is auto-migrated on New().
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/holiday"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var (
	_ calendar.PeriodStore    = (*Store)(nil)
	_ calendar.EarliestFinder = (*Store)(nil)
	_ calendar.PeriodLister   = (*Store)(nil)
	_ holiday.AdminStore      = (*Store)(nil)
)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pay_periods (
		company_id INTEGER NOT NULL,
		period_type TEXT NOT NULL,
		begin_day TEXT NOT NULL,
		end_day TEXT NOT NULL,
		created_at TEXT NOT NULL,
		PRIMARY KEY (company_id, begin_day)
	);

	-- Containing lookups search by end day
	CREATE INDEX IF NOT EXISTS idx_pay_periods_company_end
		ON pay_periods(company_id, end_day);

	CREATE TABLE IF NOT EXISTS holidays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		company_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		config TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		UNIQUE (company_id, description)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// PAY PERIOD STORE (calendar.PeriodStore interface)
// =============================================================================

const periodColumns = `company_id, period_type, begin_day, end_day`

// FindContaining returns the period covering day, or nil.
func (s *Store) FindContaining(ctx context.Context, companyID int, day calendar.Day) (*calendar.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + periodColumns + `
		FROM pay_periods
		WHERE company_id = ? AND begin_day <= ? AND end_day >= ?
		ORDER BY begin_day DESC
		LIMIT 1
	`
	return s.queryOnePeriod(ctx, query, companyID, day.String(), day.String())
}

// FindLatest returns the period with the greatest begin day, or nil.
func (s *Store) FindLatest(ctx context.Context, companyID int) (*calendar.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + periodColumns + ` FROM pay_periods WHERE company_id = ? ORDER BY begin_day DESC LIMIT 1`
	return s.queryOnePeriod(ctx, query, companyID)
}

// FindEarliest returns the period with the smallest begin day, or nil.
func (s *Store) FindEarliest(ctx context.Context, companyID int) (*calendar.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT ` + periodColumns + ` FROM pay_periods WHERE company_id = ? ORDER BY begin_day ASC LIMIT 1`
	return s.queryOnePeriod(ctx, query, companyID)
}

// InsertIfAbsent stores p unless (company, begin) exists and returns the
// stored row either way.
func (s *Store) InsertIfAbsent(ctx context.Context, p calendar.PayPeriod) (calendar.PayPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO pay_periods (company_id, period_type, begin_day, end_day, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(company_id, begin_day) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		p.CompanyID,
		string(p.Type),
		p.Begin.String(),
		p.End.String(),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return calendar.PayPeriod{}, fmt.Errorf("failed to insert pay period: %w", err)
	}

	stored, err := s.queryOnePeriod(ctx,
		`SELECT `+periodColumns+` FROM pay_periods WHERE company_id = ? AND begin_day = ?`,
		p.CompanyID, p.Begin.String())
	if err != nil {
		return calendar.PayPeriod{}, err
	}
	if stored == nil {
		return calendar.PayPeriod{}, calendar.ErrPeriodNotFound
	}
	return *stored, nil
}

// ListPeriods returns stored periods overlapping [from, to], ordered.
func (s *Store) ListPeriods(ctx context.Context, companyID int, from, to calendar.Day) ([]calendar.PayPeriod, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT ` + periodColumns + `
		FROM pay_periods
		WHERE company_id = ? AND end_day >= ? AND begin_day <= ?
		ORDER BY begin_day ASC
	`
	rows, err := s.db.QueryContext(ctx, query, companyID, from.String(), to.String())
	if err != nil {
		return nil, fmt.Errorf("failed to query pay periods: %w", err)
	}
	defer rows.Close()

	var periods []calendar.PayPeriod
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		periods = append(periods, p)
	}
	return periods, rows.Err()
}

func (s *Store) queryOnePeriod(ctx context.Context, query string, args ...any) (*calendar.PayPeriod, error) {
	p, err := scanPeriod(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPeriod(row scanner) (calendar.PayPeriod, error) {
	var (
		p          calendar.PayPeriod
		periodType string
		begin, end string
	)
	if err := row.Scan(&p.CompanyID, &periodType, &begin, &end); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("failed to scan pay period: %w", err)
	}

	var err error
	p.Type = calendar.PayPeriodType(periodType)
	if p.Begin, err = calendar.ParseDay(calendar.DayLayout, begin); err != nil {
		return p, fmt.Errorf("failed to parse begin_day %q: %w", begin, err)
	}
	if p.End, err = calendar.ParseDay(calendar.DayLayout, end); err != nil {
		return p, fmt.Errorf("failed to parse end_day %q: %w", end, err)
	}
	return p, nil
}

// =============================================================================
// HOLIDAY STORE (holiday.AdminStore interface)
// =============================================================================

// AllForCompany returns a company's holidays ordered by id.
func (s *Store) AllForCompany(ctx context.Context, companyID int) ([]holiday.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, company_id, description, config FROM holidays WHERE company_id = ? ORDER BY id",
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []holiday.Holiday
	for rows.Next() {
		var h holiday.Holiday
		if err := rows.Scan(&h.ID, &h.CompanyID, &h.Description, &h.Config); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}
	return holidays, rows.Err()
}

// SaveHoliday inserts h when h.ID is 0, otherwise updates it.
func (s *Store) SaveHoliday(ctx context.Context, h holiday.Holiday) (holiday.Holiday, error) {
	if err := h.Validate(); err != nil {
		return holiday.Holiday{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Format(time.RFC3339)
	if h.ID == 0 {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO holidays (company_id, description, config, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, h.CompanyID, h.Description, h.Config, now, now)
		if err != nil {
			return holiday.Holiday{}, holidayWriteError(h, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return holiday.Holiday{}, err
		}
		h.ID = int(id)
		return h, nil
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE holidays SET description = ?, config = ?, updated_at = ?
		WHERE id = ? AND company_id = ?
	`, h.Description, h.Config, now, h.ID, h.CompanyID)
	if err != nil {
		return holiday.Holiday{}, holidayWriteError(h, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return holiday.Holiday{}, fmt.Errorf("failed to update holiday %d: %w", h.ID, err)
	}
	if n == 0 {
		return holiday.Holiday{}, fmt.Errorf("holiday %d: %w", h.ID, holiday.ErrHolidayNotFound)
	}
	return h, nil
}

// DeleteHoliday removes a holiday.
func (s *Store) DeleteHoliday(ctx context.Context, companyID, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM holidays WHERE id = ? AND company_id = ?", id, companyID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete holiday %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("holiday %d: %w", id, holiday.ErrHolidayNotFound)
	}
	return nil
}

func holidayWriteError(h holiday.Holiday, err error) error {
	if isUniqueConstraintError(err) {
		return fmt.Errorf("%w: company %d already has a holiday named %q", holiday.ErrInvalidHoliday, h.CompanyID, h.Description)
	}
	return fmt.Errorf("failed to save holiday: %w", err)
}

// =============================================================================
// HELPERS
// =============================================================================

// Reset deletes all data (for testing).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"pay_periods", "holidays"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
