package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nao1215/phishscan/internal/database"
	"github.com/nao1215/phishscan/internal/model"
	"github.com/nao1215/phishscan/internal/pipeline"
	"github.com/nao1215/phishscan/internal/telemetry"
)

const serviceName = "phishscan"

const (
	// DefaultMaxBatchURLs bounds the size of one batch request.
	DefaultMaxBatchURLs = 100

	// DefaultShutdownTimeout bounds graceful shutdown.
	DefaultShutdownTimeout = 10 * time.Second

	// maxBodyBytes bounds request bodies.
	maxBodyBytes = 1 << 20
)

// HistoryStore records and lists scans. *database.ScanDB implements it.
type HistoryStore interface {
	Save(ctx context.Context, res *model.AggregateResult) (int64, error)
	History(ctx context.Context, limit int) ([]database.ScanRecord, error)
}

// Server is the HTTP front end of the scoring pipeline.
type Server struct {
	engine   *gin.Engine
	scorer   pipeline.Scorer
	batch    *pipeline.BatchProcessor
	history  HistoryStore
	metrics  *telemetry.Metrics
	logger   *slog.Logger
	origins  []string
	maxBatch int
	workers  int
	checks   map[string]ReadyCheck
	version  string
	started  time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request and error logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics enables per-route metrics and the /metrics endpoint.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithHistory enables history recording and GET /api/history.
func WithHistory(store HistoryStore) Option {
	return func(s *Server) {
		s.history = store
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) {
		s.origins = origins
	}
}

// WithMaxBatchURLs bounds batch request size. Non-positive values keep the default.
func WithMaxBatchURLs(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBatch = n
		}
	}
}

// WithBatchConcurrency bounds concurrent scoring within one batch request.
func WithBatchConcurrency(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithReadyCheck adds a named readiness check to /ready.
func WithReadyCheck(name string, check ReadyCheck) Option {
	return func(s *Server) {
		if check != nil {
			s.checks[name] = check
		}
	}
}

// WithVersion sets the version reported by /health and /ready.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer builds the router around scorer.
func NewServer(scorer pipeline.Scorer, opts ...Option) *Server {
	s := &Server{
		scorer:   scorer,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		maxBatch: DefaultMaxBatchURLs,
		workers:  pipeline.DefaultConcurrency,
		checks:   make(map[string]ReadyCheck),
		version:  "dev",
		started:  time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.batch = pipeline.NewBatchProcessor(scorer,
		pipeline.WithConcurrency(s.workers),
		pipeline.WithBatchLogger(s.logger),
	)

	s.engine = gin.New()
	s.engine.Use(recoveryMiddleware(s.logger))
	s.engine.Use(loggerMiddleware(s.logger))
	if s.metrics != nil {
		s.engine.Use(metricsMiddleware(s.metrics))
	}
	if len(s.origins) > 0 {
		s.engine.Use(corsMiddleware(s.origins))
	}
	s.routes()

	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.GET("/ready", s.ready)
	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}

	api := s.engine.Group("/api")
	api.POST("/scan-url", s.scanURL)
	api.POST("/scan-url/batch", s.scanBatch)
	api.GET("/history", s.listHistory)
}

// Handler returns the HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", "address", ln.Addr().String(), "version", s.version)
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server", "timeout", DefaultShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), DefaultShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.Info("HTTP server stopped gracefully")
	return nil
}
