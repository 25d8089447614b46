// Package server exposes pipeline health and Prometheus metrics over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// HealthChecker interface for checking component health.
type HealthChecker interface {
	Liveness() bool
	Readiness(ctx context.Context) bool
	IsHealthy() bool
	GetStatus() map[string]string
}

// Server serves /health/live, /health/ready and the metrics path on one port.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	logger     *zap.Logger
}

// NewServer creates a new HTTP server. Port 0 picks a free port.
func NewServer(
	port int,
	metricsPath string,
	healthChecker HealthChecker,
	registry *prometheus.Registry,
	logger *zap.Logger,
) *Server {
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("server")

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health/live", LivenessHandler(healthChecker, logger))
	mux.HandleFunc("GET /health/ready", ReadinessHandler(healthChecker, logger))
	mux.Handle("GET "+metricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// Start binds the port and serves in the background.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = listener

	go func() {
		s.logger.Info("starting metrics server", zap.String("addr", listener.Addr().String()))
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("metrics server failed", zap.Error(err))
		}
	}()

	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.httpServer.Addr
	}
	return s.listener.Addr().String()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down metrics server")

	err := s.httpServer.Shutdown(ctx)
	if s.listener != nil {
		// Serve may not have taken ownership of the listener yet.
		_ = s.listener.Close()
	}
	if err != nil {
		s.logger.Error("error shutting down server", zap.Error(err))
		return err
	}
	return nil
}
