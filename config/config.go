// Package config loads runtime configuration from PAYCAL_* environment
// variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Prefix is the environment variable prefix.
const Prefix = "PAYCAL"

// Storage backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds runtime configuration for the server.
type Config struct {
	Addr         string        `envconfig:"ADDR" default:":8080"`
	ReadTimeout  time.Duration `envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout time.Duration `envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout  time.Duration `envconfig:"IDLE_TIMEOUT" default:"60s"`

	Store string `envconfig:"STORE" default:"sqlite"`
	DB    string `envconfig:"DB" default:"paycal.db"`
	PGDSN string `envconfig:"PG_DSN"`

	// RedisAddr enables the period cache when set.
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	CacheTTL  time.Duration `envconfig:"CACHE_TTL" default:"24h"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"json"`

	ShiftObserved bool `envconfig:"SHIFT_OBSERVED" default:"false"`
	MaxWalk       int  `envconfig:"MAX_WALK" default:"10000"`

	// RateLimit is requests per minute per client IP; 0 disables limiting.
	RateLimit   int      `envconfig:"RATE_LIMIT" default:"120"`
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`
}

// Load reads configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks combinations envconfig cannot express.
func (c *Config) Validate() error {
	c.Store = strings.ToLower(strings.TrimSpace(c.Store))
	switch c.Store {
	case StoreSQLite:
		if c.DB == "" {
			return fmt.Errorf("config: %s_DB must be set for the sqlite store", Prefix)
		}
	case StorePostgres:
		if c.PGDSN == "" {
			return fmt.Errorf("config: %s_PG_DSN must be set for the postgres store", Prefix)
		}
	case StoreMemory:
	default:
		return fmt.Errorf("config: unknown store %q (want sqlite, postgres or memory)", c.Store)
	}
	if c.MaxWalk < 1 {
		return fmt.Errorf("config: %s_MAX_WALK must be positive", Prefix)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("config: %s_RATE_LIMIT must not be negative", Prefix)
	}
	return nil
}

// CacheEnabled reports whether a Redis address was configured.
func (c *Config) CacheEnabled() bool {
	return c != nil && c.RedisAddr != ""
}
