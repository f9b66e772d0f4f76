/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the paycal HTTP server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load PAYCAL_* configuration, apply flag overrides
  2. Open the configured store (sqlite, postgres or memory)
  3. Wrap period lookups with the Redis cache when PAYCAL_REDIS_ADDR is set
  4. Create the materializer, handler and router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (overrides PAYCAL_ADDR)
  -db      SQLite database path (overrides PAYCAL_DB)
           Use ":memory:" for in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close store and cache connections
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/paycal.db"

  # Run against Postgres with a Redis cache
  PAYCAL_STORE=postgres PAYCAL_PG_DSN=postgres://localhost/paycal \
    PAYCAL_REDIS_ADDR=localhost:6379 ./server

SEE ALSO:
  - config/config.go: Environment variables
  - api/server.go: Router configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/warp/paycal/api"
	"github.com/warp/paycal/calendar"
	"github.com/warp/paycal/calendar/store"
	"github.com/warp/paycal/config"
	"github.com/warp/paycal/holiday"
	"github.com/warp/paycal/logger"
	"github.com/warp/paycal/store/postgres"
	"github.com/warp/paycal/store/rediscache"
	"github.com/warp/paycal/store/sqlite"
)

// backend is what every storage option provides.
type backend interface {
	rediscache.Backend
	holiday.AdminStore
}

func main() {
	// Flags
	port := flag.Int("port", 0, "HTTP server port (overrides PAYCAL_ADDR)")
	dbPath := flag.String("db", "", "SQLite database path (overrides PAYCAL_DB)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Addr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.DB = *dbPath
	}

	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Service: "paycal"})

	if err := run(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(cfg *config.Config, log zerolog.Logger) error {
	ctx := context.Background()

	// Initialize store
	b, closeStore, err := openBackend(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	defer closeStore()

	var periods calendar.PeriodStore = b
	if cfg.CacheEnabled() {
		client, err := rediscache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer func(c *redis.Client) { _ = c.Close() }(client)
		periods = rediscache.New(b, client,
			rediscache.WithTTL(cfg.CacheTTL),
			rediscache.WithLogger(log))
		log.Info().Str("addr", cfg.RedisAddr).Dur("ttl", cfg.CacheTTL).Msg("period cache enabled")
	}

	materializer := calendar.NewMaterializer(periods,
		calendar.WithLogger(log),
		calendar.WithMaxSteps(cfg.MaxWalk))

	handler := api.NewHandler(materializer, b,
		api.WithLogger(log),
		api.WithResolver(holiday.Resolver{ShiftObserved: cfg.ShiftObserved}))

	router := api.NewRouter(handler, api.RouterOptions{
		Logger:         log,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimit:      cfg.RateLimit,
		RequestTimeout: cfg.WriteTimeout,
		SlowRequest:    time.Second,
	})

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("store", cfg.Store).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}

	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	log.Info().Msg("server stopped")
	return nil
}

func openBackend(ctx context.Context, cfg *config.Config) (backend, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		s, err := postgres.Open(ctx, cfg.PGDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoreMemory:
		return store.NewMemory(), func() {}, nil
	default:
		s, err := sqlite.New(cfg.DB)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	}
}
