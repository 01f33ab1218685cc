// Package server provides the HTTP API of the scoring engine.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/spigell/placement-engine/internal/external"
	"github.com/spigell/placement-engine/internal/logger"
	"github.com/spigell/placement-engine/internal/metrics"
	"github.com/spigell/placement-engine/internal/recommend"
	"github.com/spigell/placement-engine/internal/types"
)

type CareerScorer interface {
	Recompute(ctx context.Context, candidateID string) (*types.CareerScore, error)
}

type CareerReader interface {
	GetCareerScore(ctx context.Context, candidateID string) (*types.CareerScore, error)
}

type Recommender interface {
	Candidate(ctx context.Context, candidateID string) (*types.Candidate, error)
	Recommend(ctx context.Context, candidateID string, filters recommend.Filters) ([]types.MatchResult[types.JobPosting], error)
	ScoreMatch(ctx context.Context, candidateID, subjectID string) (*types.MatchResult[types.Subject], error)
}

type ExternalSearcher interface {
	Search(ctx context.Context, candidate *types.Candidate, req external.Request) (*external.Result, error)
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the services behind the routes. Health may be nil.
type Deps struct {
	Career      CareerScorer
	Scores      CareerReader
	Recommender Recommender
	External    ExternalSearcher
	Health      Pinger
	Metrics     *metrics.Metrics
	Budget      types.Budget
	Logger      *zap.Logger
}

type Config struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read-timeout"`
	WriteTimeout    time.Duration `mapstructure:"write-timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown-timeout"`
}

func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	deps       Deps
	budget     types.Budget
	validate   *validator.Validate
	logger     *zap.Logger
	shutdown   time.Duration
}

func New(cfg Config, deps Deps) *Server {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = def.ReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	s := &Server{
		deps:     deps,
		budget:   deps.Budget.Normalize(),
		validate: validator.New(),
		logger:   logger.WithFields(deps.Logger, zap.String("component", "http")),
		shutdown: cfg.ShutdownTimeout,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /candidates/{id}/career-score", s.handleRecomputeCareerScore)
	mux.HandleFunc("GET /candidates/{id}/career-score", s.handleGetCareerScore)
	mux.HandleFunc("GET /candidates/{id}/recommendations", s.handleRecommendations)
	mux.HandleFunc("POST /candidates/{id}/external-jobs", s.handleExternalJobs)
	mux.HandleFunc("GET /candidates/{id}/matches", s.handleMatch)
	mux.HandleFunc("GET /candidates/{id}/matches/{subject_id...}", s.handleMatch)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", deps.Metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.withLogging(mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the routed handler for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdown)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.Health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Health.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("error encoding JSON response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// fail maps err to a status code and writes it. Server-side failures are logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	s.errorResponse(w, status, publicMessage(err, status))
}
