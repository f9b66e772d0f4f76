/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  2. RequestID:  Unique ID per request for tracing
  3. AccessLog:  zerolog request logging (logger package)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. Timeout:    Cancels the request context after RequestTimeout
  6. Secure:     Security headers (unrolled/secure)
  7. CORS:       Cross-origin requests
  8. RateLimit:  Per-IP request budget (httprate), skipped when 0

ROUTE GROUPS:
  /healthz                                Liveness probe
  /api/companies/{companyID}/pay-periods  Pay period lookups
  /api/companies/{companyID}/holidays     Holiday management
  /api/holidays/validate                  Rule validation
  /api/timesheets/bills                   Bill codec

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"
	"github.com/unrolled/secure"

	"github.com/warp/paycal/logger"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	Logger         zerolog.Logger
	CORSOrigins    []string
	RateLimit      int // requests per minute per IP; 0 disables
	RequestTimeout time.Duration
	SlowRequest    time.Duration
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	r := chi.NewRouter()

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	secureMiddleware := secure.New(secure.Options{
		FrameDeny:             true,
		ContentTypeNosniff:    true,
		BrowserXssFilter:      true,
		ReferrerPolicy:        "strict-origin-when-cross-origin",
		ContentSecurityPolicy: "default-src 'none'",
	})

	// Middleware
	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(logger.AccessLog(opts.Logger, logger.AccessLogOptions{Slow: opts.SlowRequest}))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(timeout))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := secureMiddleware.Process(w, r); err != nil {
				opts.Logger.Warn().Err(err).Msg("secure headers blocked request")
				writeError(w, http.StatusInternalServerError, "Internal error", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))
	if opts.RateLimit > 0 {
		r.Use(httprate.Limit(opts.RateLimit, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP)))
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/companies/{companyID}", func(r chi.Router) {
			// Pay period routes
			r.Route("/pay-periods", func(r chi.Router) {
				r.Get("/", h.ListPayPeriods)
				r.Post("/", h.SeedPayPeriod)
				r.Get("/current", h.GetCurrentPayPeriod)
				r.Get("/containing", h.GetContainingPayPeriod)
				r.Get("/containing/holidays", h.GetPeriodHolidays)
			})

			// Holiday routes
			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", h.ListHolidays)
				r.Post("/", h.CreateHoliday)
				r.Post("/defaults", h.AddDefaultHolidays)
				r.Put("/{id}", h.UpdateHoliday)
				r.Delete("/{id}", h.DeleteHoliday)
			})
		})

		r.Get("/holidays/validate", h.ValidateHolidayConfig)

		// Timesheet routes
		r.Route("/timesheets/bills", func(r chi.Router) {
			r.Post("/decode", h.DecodeBills)
			r.Post("/encode", h.EncodeBills)
		})
	})

	return r
}
