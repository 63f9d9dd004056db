// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server exposes the citation pipeline over HTTP.
//
//	POST /api/cite-openai   run the pipeline (original route)
//	POST /api/cite          alias
//	GET  /healthz           liveness
//	GET  /metrics           Prometheus scrape
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/cite-engine/internal/cite"
	"github.com/pdiddy/cite-engine/internal/metrics"
	"github.com/pdiddy/cite-engine/pkg/types"
)

// Runner executes the citation pipeline for one request.
type Runner interface {
	RunWithReport(ctx context.Context, sentences []types.EssaySentence) ([]types.ResultItem, cite.Report, error)
}

// Route paths.
const (
	PathCiteOpenAI = "/api/cite-openai"
	PathCite       = "/api/cite"
	PathHealth     = "/healthz"
	PathMetrics    = "/metrics"
)

const shutdownTimeout = 10 * time.Second

// Server serves the citation API.
type Server struct {
	cfg     types.ServerConfig
	runner  Runner
	metrics *metrics.Metrics
	logger  *zap.Logger
}

// New creates a Server. A nil metrics disables instrumentation and the
// /metrics route; a nil logger discards output.
func New(cfg types.ServerConfig, runner Runner, m *metrics.Metrics, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{cfg: cfg, runner: runner, metrics: m, logger: logger}
}

// Handler returns the routed handler wrapped in the middleware chain:
// request ID, access log, metrics, CORS.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST "+PathCiteOpenAI, s.handleCite)
	mux.HandleFunc("POST "+PathCite, s.handleCite)
	mux.HandleFunc("GET "+PathHealth, s.handleHealth)
	if s.metrics != nil {
		mux.Handle("GET "+PathMetrics, s.metrics.Handler())
	}

	var h http.Handler = mux
	h = CORS(CORSConfig{
		AllowOrigins: s.cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type", HeaderRequestID},
		MaxAge:       86400,
	})(h)
	if s.metrics != nil {
		h = Metrics(s.metrics)(h)
	}
	h = AccessLog(s.logger)(h)
	h = RequestID(h)
	return h
}

// ListenAndServe serves on cfg.Addr until ctx is cancelled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("citation service listening", zap.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down citation service")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}
