/*
Package postgres provides a PostgreSQL-backed implementation of the storage
interfaces for deployments where several server instances share one database.

The schema mirrors store/sqlite. Concurrent materialization across instances
is settled by the (company_id, begin_day) primary key: the losing INSERT is a
no-op and the follow-up SELECT returns the winner's row.
*/
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/holiday"
)

const pgUniqueViolation = "23505"

// Store implements the period and holiday stores over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ calendar.PeriodStore    = (*Store)(nil)
	_ calendar.EarliestFinder = (*Store)(nil)
	_ calendar.PeriodLister   = (*Store)(nil)
	_ holiday.AdminStore      = (*Store)(nil)
)

// Open connects to dsn, pings the server and migrates the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	s := New(pool)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool. The caller owns the schema.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS pay_periods (
		company_id INTEGER NOT NULL,
		period_type TEXT NOT NULL,
		begin_day DATE NOT NULL,
		end_day DATE NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (company_id, begin_day)
	);

	CREATE INDEX IF NOT EXISTS idx_pay_periods_company_end
		ON pay_periods(company_id, end_day);

	CREATE TABLE IF NOT EXISTS holidays (
		id SERIAL PRIMARY KEY,
		company_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		config TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (company_id, description)
	);
	`
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// =============================================================================
// PAY PERIODS
// =============================================================================

const periodColumns = `company_id, period_type, begin_day, end_day`

func (s *Store) FindContaining(ctx context.Context, companyID int, day calendar.Day) (*calendar.PayPeriod, error) {
	return s.queryOnePeriod(ctx, `
		SELECT `+periodColumns+`
		FROM pay_periods
		WHERE company_id = $1 AND begin_day <= $2 AND end_day >= $2
		ORDER BY begin_day DESC
		LIMIT 1`, companyID, day.Time())
}

func (s *Store) FindLatest(ctx context.Context, companyID int) (*calendar.PayPeriod, error) {
	return s.queryOnePeriod(ctx,
		`SELECT `+periodColumns+` FROM pay_periods WHERE company_id = $1 ORDER BY begin_day DESC LIMIT 1`,
		companyID)
}

func (s *Store) FindEarliest(ctx context.Context, companyID int) (*calendar.PayPeriod, error) {
	return s.queryOnePeriod(ctx,
		`SELECT `+periodColumns+` FROM pay_periods WHERE company_id = $1 ORDER BY begin_day ASC LIMIT 1`,
		companyID)
}

// InsertIfAbsent stores p unless (company, begin) exists and returns the
// stored row either way.
func (s *Store) InsertIfAbsent(ctx context.Context, p calendar.PayPeriod) (calendar.PayPeriod, error) {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO pay_periods (company_id, period_type, begin_day, end_day)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (company_id, begin_day) DO NOTHING`,
		p.CompanyID, string(p.Type), p.Begin.Time(), p.End.Time())
	if err != nil {
		return calendar.PayPeriod{}, fmt.Errorf("postgres: insert pay period: %w", err)
	}

	stored, err := s.queryOnePeriod(ctx,
		`SELECT `+periodColumns+` FROM pay_periods WHERE company_id = $1 AND begin_day = $2`,
		p.CompanyID, p.Begin.Time())
	if err != nil {
		return calendar.PayPeriod{}, err
	}
	if stored == nil {
		return calendar.PayPeriod{}, calendar.ErrPeriodNotFound
	}
	return *stored, nil
}

func (s *Store) ListPeriods(ctx context.Context, companyID int, from, to calendar.Day) ([]calendar.PayPeriod, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+periodColumns+`
		FROM pay_periods
		WHERE company_id = $1 AND end_day >= $2 AND begin_day <= $3
		ORDER BY begin_day ASC`, companyID, from.Time(), to.Time())
	if err != nil {
		return nil, fmt.Errorf("postgres: query pay periods: %w", err)
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
	p, err := scanPeriod(s.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanPeriod(row pgx.Row) (calendar.PayPeriod, error) {
	var (
		p          calendar.PayPeriod
		periodType string
		begin, end time.Time
	)
	if err := row.Scan(&p.CompanyID, &periodType, &begin, &end); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, err
		}
		return p, fmt.Errorf("postgres: scan pay period: %w", err)
	}
	p.Type = calendar.PayPeriodType(periodType)
	p.Begin = calendar.DayOf(begin)
	p.End = calendar.DayOf(end)
	return p, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) AllForCompany(ctx context.Context, companyID int) ([]holiday.Holiday, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, company_id, description, config FROM holidays WHERE company_id = $1 ORDER BY id`,
		companyID)
	if err != nil {
		return nil, fmt.Errorf("postgres: query holidays: %w", err)
	}
	defer rows.Close()

	var holidays []holiday.Holiday
	for rows.Next() {
		var h holiday.Holiday
		if err := rows.Scan(&h.ID, &h.CompanyID, &h.Description, &h.Config); err != nil {
			return nil, fmt.Errorf("postgres: scan holiday: %w", err)
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

	if h.ID == 0 {
		err := s.pool.QueryRow(ctx, `
			INSERT INTO holidays (company_id, description, config)
			VALUES ($1, $2, $3)
			RETURNING id`, h.CompanyID, h.Description, h.Config).Scan(&h.ID)
		if err != nil {
			return holiday.Holiday{}, holidayWriteError(h, err)
		}
		return h, nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE holidays SET description = $1, config = $2, updated_at = now()
		WHERE id = $3 AND company_id = $4`, h.Description, h.Config, h.ID, h.CompanyID)
	if err != nil {
		return holiday.Holiday{}, holidayWriteError(h, err)
	}
	if tag.RowsAffected() == 0 {
		return holiday.Holiday{}, fmt.Errorf("holiday %d: %w", h.ID, holiday.ErrHolidayNotFound)
	}
	return h, nil
}

func (s *Store) DeleteHoliday(ctx context.Context, companyID, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM holidays WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("postgres: delete holiday: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("holiday %d: %w", id, holiday.ErrHolidayNotFound)
	}
	return nil
}

func holidayWriteError(h holiday.Holiday, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("%w: company %d already has a holiday named %q", holiday.ErrInvalidHoliday, h.CompanyID, h.Description)
	}
	return fmt.Errorf("postgres: save holiday: %w", err)
}
