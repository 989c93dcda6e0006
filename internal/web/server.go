// Package web provides the HTTP API and report pages for the schema registry.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/woudc-registry/internal/config"
	"github.com/JonMunkholm/woudc-registry/internal/core"
	"github.com/JonMunkholm/woudc-registry/internal/web/middleware"
)

// sweepInterval is how often idle rate limiter buckets are dropped.
const sweepInterval = time.Minute

// HealthCheck is a named dependency probe reported by /healthz.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Server is the HTTP server for the schema registry.
type Server struct {
	service *core.Service
	cfg     *config.Config
	checks  []HealthCheck
	router  *chi.Mux
	server  *http.Server

	limiters []*middleware.RateLimiter
	stop     context.CancelFunc
	wg       sync.WaitGroup
}

// NewServer creates a Server serving svc. Checks are probed by /healthz.
func NewServer(svc *core.Service, cfg *config.Config, checks ...HealthCheck) *Server {
	s := &Server{
		service: svc,
		cfg:     cfg,
		checks:  checks,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(middleware.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
	s.router.Use(securityHeaders(s.cfg.Security.EnableCSP))

	if s.cfg.Rate.Enabled {
		s.router.Use(s.rateLimit(s.cfg.Rate.RequestsPerMinute))
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Pages
	s.router.Get("/reports/{id}", s.handleReportPage)

	s.router.Route("/api", func(r chi.Router) {
		// Catalog
		r.Get("/datasets", s.handleListDatasets)
		r.Get("/datasets/{dataset}", s.handleGetDataset)
		r.Get("/resolve", s.handleResolve)

		// Validation, with its own tighter budget
		r.Group(func(r chi.Router) {
			if s.cfg.Rate.Enabled {
				r.Use(s.rateLimit(s.cfg.Rate.UploadLimit))
			}
			r.Post("/validate", s.handleValidate)
			r.Post("/validate/file", s.handleValidateFile)
		})

		// Stored reports
		r.Get("/reports", s.handleListReports)
		r.Get("/reports/stats", s.handleReportStats)
		r.Get("/reports/{id}", s.handleGetReport)

		// Administration
		r.With(middleware.APIKeyAuth(&s.cfg.Security)).Post("/catalog/reload", s.handleReloadCatalog)
	})
}

// rateLimit builds a per-IP limiter and remembers it for sweeping. The
// burst never exceeds the per-minute allowance.
func (s *Server) rateLimit(perMinute int) func(http.Handler) http.Handler {
	rl := middleware.NewRateLimiter(perMinute, min(s.cfg.Rate.Burst, perMinute))
	s.limiters = append(s.limiters, rl)
	return rl.Handler
}

// Start begins listening for HTTP requests. It blocks until the server stops.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	for _, rl := range s.limiters {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			rl.Run(ctx, sweepInterval)
		}()
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("server listening", "addr", s.server.Addr)
	err := s.server.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully stops the server and its background sweepers.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stop != nil {
		s.stop()
	}
	s.wg.Wait()
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(enableCSP bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			// Report pages carry only inline styles.
			if enableCSP {
				w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; frame-ancestors 'none'")
			}

			next.ServeHTTP(w, r)
		})
	}
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
