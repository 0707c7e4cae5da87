// Package web provides the HTTP server and handlers for the table tools.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/JonMunkholm/fileops/internal/config"
	"github.com/JonMunkholm/fileops/internal/core"
	"github.com/JonMunkholm/fileops/internal/history"
	"github.com/JonMunkholm/fileops/internal/metrics"
	"github.com/JonMunkholm/fileops/internal/session"
	"github.com/JonMunkholm/fileops/internal/web/middleware"
)

// Deps are the long-lived services the server uses.
type Deps struct {
	Sessions *session.Store
	History  history.Recorder
	Metrics  *metrics.Metrics
}

// Server is the HTTP server for the table tools.
type Server struct {
	cfg       *config.Config
	sessions  *session.Store
	history   history.Recorder
	metrics   *metrics.Metrics
	parses    *ParseLimiter
	rate      *ipLimiter
	validator *validator.Validate

	router *chi.Mux
	server *http.Server
	stop   context.CancelFunc
}

// NewServer creates a Server. Nil history and metrics get in-memory
// defaults.
func NewServer(cfg *config.Config, deps Deps) *Server {
	if deps.Sessions == nil {
		deps.Sessions = session.NewStore(cfg.Session.TTL)
	}
	if deps.History == nil {
		deps.History = history.NewMemory(cfg.History.MaxEntries)
	}
	if deps.Metrics == nil {
		deps.Metrics = metrics.New()
	}

	s := &Server{
		cfg:       cfg,
		sessions:  deps.Sessions,
		history:   deps.History,
		metrics:   deps.Metrics,
		parses:    NewParseLimiter(cfg.Upload.MaxConcurrent, cfg.Upload.MaxWaitTime),
		validator: newValidator(),
		router:    chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.rate = newIPLimiter(cfg.Rate.RequestsPerMinute, cfg.Rate.Burst)
		s.rate.onReject = s.metrics.RateLimited
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
	s.router.Use(s.securityHeaders)
	if s.rate != nil {
		s.router.Use(s.rate.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", s.metrics.Handler())

	s.router.Group(func(r chi.Router) {
		r.Use(s.withSession)

		r.Get("/", s.handleIndex)

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.APIKeyAuth(s.cfg.Security.APIKeys, s.cfg.Security.RequireAPIKey))

			r.Get("/history", s.handleHistory)
			r.Get("/results", s.handleResults)
			r.Get("/results/{name}", s.handleDownload)
			r.Delete("/session", s.handleEndSession)

			r.Group(func(r chi.Router) {
				r.Use(s.limitBody)

				r.Post("/sheets", s.handleSheets)
				r.Post("/preview", s.handlePreview)
				r.Post("/append", s.operation(history.OpAppend, s.appendFiles))
				r.Post("/summarize", s.operation(history.OpSummarize, s.summarize))
				r.Post("/reconcile", s.operation(history.OpReconcile, s.reconcile))
			})
		})
	})
}

// Start listens on the configured address and blocks until Shutdown.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.stop = cancel
	if s.rate != nil {
		go s.rate.run(ctx, time.Minute)
	}

	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for running parses.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.stop != nil {
		s.stop()
	}
	if s.server == nil {
		return nil
	}
	err := s.server.Shutdown(ctx)
	if derr := s.parses.WaitForDrain(ctx); derr != nil && err == nil {
		err = derr
	}
	return err
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		if s.cfg.Security.EnableCSP {
			// The page ships its script and styles inline.
			h.Set("Content-Security-Policy", "default-src 'self'; script-src 'self' 'unsafe-inline'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")
		}
		next.ServeHTTP(w, r)
	})
}

func aggFuncLabels() []string {
	out := make([]string, len(core.AggFuncs))
	for i, f := range core.AggFuncs {
		out[i] = f.String()
	}
	return out
}
