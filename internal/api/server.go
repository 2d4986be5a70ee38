// Package api provides the REST API for reviewing extracted travel records
// and round-trip suggestions.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"travelmail/internal/classify"
	"travelmail/internal/logger"
	"travelmail/internal/metrics"
	"travelmail/internal/pipeline"
	"travelmail/internal/roundtrip"
	"travelmail/internal/storage"
	"travelmail/internal/trips"
)

// CandidateStore holds candidates and round-trip decisions.
// *storage.ReviewStore implements it.
type CandidateStore interface {
	ListCandidates(ctx context.Context, p storage.ListParams) ([]storage.Candidate, error)
	GetCandidate(ctx context.Context, id string) (storage.Candidate, error)
	SetStatus(ctx context.Context, id, status string) error
	UpdateRecord(ctx context.Context, rec classify.ExtractedRecord, issues []string) error
	AcceptedRecords(ctx context.Context) ([]classify.ExtractedRecord, error)
	SaveDecision(ctx context.Context, suggestionID string, accept bool) error
	Decisions(ctx context.Context) (roundtrip.Decisions, error)
	Stats(ctx context.Context) (map[string]int, error)
}

// PeriodStore persists confirmed periods. *storage.PeriodStore implements it.
type PeriodStore interface {
	ReplacePeriods(ctx context.Context, remove []string, add []trips.TravelPeriod) error
	ListPeriods(ctx context.Context, countryCode string) ([]trips.TravelPeriod, error)
	GetPeriod(ctx context.Context, id string) (*trips.TravelPeriod, error)
}

// AuditStats reports extraction events by category. *storage.AuditStore implements it.
type AuditStats interface {
	CategoryStats(ctx context.Context) ([]storage.CategoryStat, error)
}

// Config holds configuration for the API server.
type Config struct {
	Addr            string
	APIKeys         []string      // Empty disables authentication.
	RoundTripWindow time.Duration // Zero uses roundtrip.DefaultWindow.
}

// Server serves the review API.
type Server struct {
	pipeline *pipeline.Pipeline
	store    CandidateStore
	periods  PeriodStore
	audit    AuditStats
	addr     string
	window   time.Duration
	apiKeys  map[string]bool
	log      *zap.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithPeriodStore persists confirmed periods as candidates and round trips
// are decided.
func WithPeriodStore(p PeriodStore) Option { return func(s *Server) { s.periods = p } }

// WithAuditStats exposes per-category audit statistics.
func WithAuditStats(a AuditStats) Option { return func(s *Server) { s.audit = a } }

// WithLogger sets the request logger.
func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.log = l } }

// NewServer creates a review API server.
func NewServer(p *pipeline.Pipeline, store CandidateStore, cfg Config, opts ...Option) *Server {
	keys := make(map[string]bool)
	for _, k := range cfg.APIKeys {
		if k != "" {
			keys[k] = true
		}
	}

	s := &Server{
		pipeline: p,
		store:    store,
		addr:     cfg.Addr,
		window:   cfg.RoundTripWindow,
		apiKeys:  keys,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = logger.OrNop(s.log)
	return s
}

// Router returns the configured chi router.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	// Standard middleware.
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// CORS for browser access.
	r.Use(corsMiddleware)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Health check (no auth required).
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			if len(s.apiKeys) > 0 {
				r.Use(s.authMiddleware)
			}

			r.Get("/candidates", s.handleListCandidates)
			r.Get("/candidates/{id}", s.handleGetCandidate)
			r.Patch("/candidates/{id}", s.handleEditCandidate)
			r.Post("/candidates/{id}/accept", s.handleSetStatus(storage.StatusAccepted))
			r.Post("/candidates/{id}/reject", s.handleSetStatus(storage.StatusRejected))

			r.Get("/itinerary", s.handleItinerary)
			r.Post("/roundtrips/{id}/accept", s.handleRoundTrip(true))
			r.Post("/roundtrips/{id}/reject", s.handleRoundTrip(false))

			r.Get("/periods", s.handleListPeriods)
			r.Get("/periods/{id}", s.handleGetPeriod)
			r.Get("/stats", s.handleStats)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("review API listening", zap.String("addr", s.addr), zap.Bool("auth", len(s.apiKeys) > 0))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request and records its latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		metrics.RecordHTTPRequestDuration(r.Method, route, strconv.Itoa(status), elapsed)

		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// authMiddleware validates API key authentication.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Check X-API-Key header first.
		apiKey := r.Header.Get("X-API-Key")

		// Fall back to Authorization: Bearer <key>.
		if apiKey == "" {
			auth := r.Header.Get("Authorization")
			if strings.HasPrefix(auth, "Bearer ") {
				apiKey = strings.TrimPrefix(auth, "Bearer ")
			}
		}

		if apiKey == "" {
			writeError(w, http.StatusUnauthorized, "API key required")
			return
		}
		if !s.apiKeys[apiKey] {
			writeError(w, http.StatusForbidden, "Invalid API key")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
