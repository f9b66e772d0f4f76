// Package rediscache is a read-through Redis cache in front of a period
// store. Stored pay periods never change, so a cached "day -> period" entry
// stays valid until it expires; misses are not cached because the period may
// be materialized later.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/warp/paycal/calendar"
)

// DefaultTTL is how long a day lookup stays cached.
const DefaultTTL = 24 * time.Hour

const keyPrefix = "paycal:period:"

// Backend is the store being cached.
type Backend interface {
	calendar.PeriodStore
	calendar.EarliestFinder
	calendar.PeriodLister
}

// Store caches FindContaining results and primes the cache on insert. Redis
// failures are logged and the backend is used directly.
type Store struct {
	next   Backend
	client *redis.Client
	ttl    time.Duration
	log    zerolog.Logger
}

var _ Backend = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithLogger sets the logger used for cache failures.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l.With().Str("component", "rediscache").Logger() }
}

// New wraps next with a cache on client.
func New(next Backend, client *redis.Client, opts ...Option) *Store {
	s := &Store{next: next, client: client, ttl: DefaultTTL, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Connect creates a client for addr and pings it.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("rediscache: ping: %w", err)
	}
	return client, nil
}

// Key returns the cache key for a company's day.
func Key(companyID int, day calendar.Day) string {
	return keyPrefix + strconv.Itoa(companyID) + ":" + day.Compact()
}

func (s *Store) FindContaining(ctx context.Context, companyID int, day calendar.Day) (*calendar.PayPeriod, error) {
	payload, err := s.client.Get(ctx, Key(companyID, day)).Bytes()
	switch {
	case err == nil:
		var p calendar.PayPeriod
		if jerr := json.Unmarshal(payload, &p); jerr == nil {
			return &p, nil
		}
		s.log.Warn().Str("key", Key(companyID, day)).Msg("discarding unreadable cache entry")
	case !errors.Is(err, redis.Nil):
		s.log.Warn().Err(err).Msg("cache read failed")
	}

	p, err := s.next.FindContaining(ctx, companyID, day)
	if err != nil || p == nil {
		return p, err
	}
	s.set(ctx, *p, day)
	return p, nil
}

// InsertIfAbsent writes through and caches every day of the stored period.
func (s *Store) InsertIfAbsent(ctx context.Context, p calendar.PayPeriod) (calendar.PayPeriod, error) {
	stored, err := s.next.InsertIfAbsent(ctx, p)
	if err != nil {
		return stored, err
	}
	s.set(ctx, stored, stored.Days()...)
	return stored, nil
}

func (s *Store) FindLatest(ctx context.Context, companyID int) (*calendar.PayPeriod, error) {
	return s.next.FindLatest(ctx, companyID)
}

func (s *Store) FindEarliest(ctx context.Context, companyID int) (*calendar.PayPeriod, error) {
	return s.next.FindEarliest(ctx, companyID)
}

func (s *Store) ListPeriods(ctx context.Context, companyID int, from, to calendar.Day) ([]calendar.PayPeriod, error) {
	return s.next.ListPeriods(ctx, companyID, from, to)
}

func (s *Store) set(ctx context.Context, p calendar.PayPeriod, days ...calendar.Day) {
	payload, err := json.Marshal(p)
	if err != nil {
		s.log.Warn().Err(err).Msg("cache encode failed")
		return
	}
	_, err = s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, d := range days {
			pipe.Set(ctx, Key(p.CompanyID, d), payload, s.ttl)
		}
		return nil
	})
	if err != nil {
		s.log.Warn().Err(err).Str("period", p.String()).Msg("cache write failed")
	}
}
