// Package api provides the HTTP REST API of the analysis pipeline.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/hugo-lorenzo-mato/srip/internal/core"
	"github.com/hugo-lorenzo-mato/srip/internal/events"
	"github.com/hugo-lorenzo-mato/srip/internal/logging"
	"github.com/hugo-lorenzo-mato/srip/internal/service"
)

// maxRequestBytes bounds the size of an analysis request body.
const maxRequestBytes = 64 << 10

// Analyzer runs analyses and renders their reports.
type Analyzer interface {
	Analyze(ctx context.Context, query, targets string) (*core.Report, *core.PipelineRun, error)
	Render(r *core.Report) (reportText, statusMessage string)
	ValidationReport(err error) (reportText, statusMessage string)
}

// Server provides the HTTP endpoints.
type Server struct {
	router   chi.Router
	handler  http.Handler
	analyzer Analyzer
	eventBus *events.EventBus
	metrics  *service.MetricsCollector
	logger   *logging.Logger
	now      func() time.Time
	wrap     []func(http.Handler) http.Handler
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *logging.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithEventBus enables the server-sent events stream.
func WithEventBus(bus *events.EventBus) ServerOption {
	return func(s *Server) {
		s.eventBus = bus
	}
}

// WithMetrics exposes m on the metrics endpoint.
func WithMetrics(m *service.MetricsCollector) ServerOption {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMiddleware wraps the whole handler, outermost first. Used for
// tracing.
func WithMiddleware(mw ...func(http.Handler) http.Handler) ServerOption {
	return func(s *Server) {
		s.wrap = append(s.wrap, mw...)
	}
}

// WithClock replaces the clock used by the health endpoint.
func WithClock(now func() time.Time) ServerOption {
	return func(s *Server) {
		s.now = now
	}
}

// NewServer creates a new API server.
func NewServer(analyzer Analyzer, opts ...ServerOption) *Server {
	s := &Server{
		analyzer: analyzer,
		logger:   logging.NewNop(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	s.handler = s.router
	for i := len(s.wrap) - 1; i >= 0; i-- {
		s.handler = s.wrap[i](s.handler)
	}
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// setupRouter configures Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/analyses", s.handleAnalyze)
		r.Get("/metrics", s.handleMetrics)
		r.Get("/events", s.handleSSE)
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
				"bytes", ww.BytesWritten(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			s.logger.Error("failed to encode response", "error", err)
		}
	}
}

// respondError sends a JSON error response.
func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}

// handleHealth returns server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   s.now().UTC().Format(time.RFC3339),
	})
}

// handleMetrics returns the process-wide run and model metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	if s.metrics == nil {
		s.respondError(w, http.StatusNotFound, "metrics not enabled")
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   s.metrics.GetRunMetrics(),
		"models": s.metrics.GetModelMetrics(),
	})
}

// ListenAndServe starts the HTTP server and shuts it down gracefully when
// ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting API server", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
