package http

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"

	"valuationcli/internal/config"
	"valuationcli/internal/infrastructure"
	customMiddleware "valuationcli/internal/middleware"
)

// Server is the optional status server that runs alongside a batch
type Server struct {
	cfg     config.ServerConfig
	router  *chi.Mux
	status  *StatusHandler
	server  *http.Server
	logger  *slog.Logger
	errCh   chan error
	address string
}

// NewServer builds the router. /metrics is mounted only when providers
// carry a Prometheus handler.
func NewServer(cfg config.ServerConfig, source ProgressSource, providers *infrastructure.OTelProviders, logger *slog.Logger) (*Server, error) {
	logger = infrastructure.WithComponent(logger, "status_server")
	status := NewStatusHandler(source, logger)

	r := chi.NewRouter()
	r.Use(customMiddleware.RequestID)
	if providers != nil {
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(providers)
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
		}
		r.Use(otelMiddleware.Handler)
	}
	r.Use(customMiddleware.StructuredLogger(logger))
	r.Use(customMiddleware.Recoverer(logger))
	if cfg.RateLimit > 0 {
		r.Use(customMiddleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, logger).Handler)
	}

	status.Routes(r)
	if providers != nil && providers.PrometheusHTTP != nil {
		r.Handle(config.MetricsEndpoint, providers.PrometheusHTTP)
	}

	s := &Server{
		cfg:    cfg,
		router: r,
		status: status,
		logger: logger,
		errCh:  make(chan error, 1),
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

// Handler returns the router
func (s *Server) Handler() http.Handler {
	return s.router
}

// Status returns the status handler so callers can flip readiness
func (s *Server) Status() *StatusHandler {
	return s.status
}

// Addr returns the bound address once Start has returned
func (s *Server) Addr() string {
	return s.address
}

// Start binds the port and serves in the background. Bind errors are
// returned directly; later serve errors arrive on Err.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.server.Addr, err)
	}
	s.address = ln.Addr().String()

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.ErrorContext(ctx, "status server error", slog.String("error", err.Error()))
			s.errCh <- err
		}
		close(s.errCh)
	}()

	s.status.SetReady(true)
	s.logger.InfoContext(ctx, "status server listening", slog.String("address", s.address))
	return nil
}

// Err reports a serve failure after Start
func (s *Server) Err() <-chan error {
	return s.errCh
}

// Stop shuts the server down within the configured timeout
func (s *Server) Stop(ctx context.Context) error {
	s.status.SetReady(false)

	shutdownCtx := ctx
	if s.cfg.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		shutdownCtx, cancel = context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
		defer cancel()
	}

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.logger.InfoContext(ctx, "status server stopped")
	return nil
}
