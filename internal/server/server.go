// Package server exposes the conversion pipeline over HTTP.
//
// Endpoints:
//
//	POST /v1/compress?format=legacy|framed&policy=strict|skip   text in, binary out
//	POST /v1/decompress?format=auto|legacy|framed               binary in, text out
//	GET  /healthz
//
// Every request gets a UUID, returned in the X-Adjpack-Run header and used as
// the pipeline run id. Failures are JSON bodies {"code": ..., "message": ...}.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/adjpack/pkg/pipeline"
)

// ErrServerClosed is returned by Start after Stop.
var ErrServerClosed = errors.New("server closed")

// Config holds HTTP server configuration.
type Config struct {
	// Addr to listen on (default ":8080").
	Addr string
	// MaxBodyBytes caps request bodies (default 64 MiB).
	MaxBodyBytes int64
	// ReadTimeout for requests
	ReadTimeout time.Duration
	// WriteTimeout for responses
	WriteTimeout time.Duration
	// IdleTimeout for keep-alive connections
	IdleTimeout time.Duration
}

// DefaultConfig returns default server configuration.
func DefaultConfig() *Config {
	return &Config{
		Addr:         ":8080",
		MaxBodyBytes: 64 << 20,
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}
}

// Server is the HTTP API server.
type Server struct {
	config *Config
	runner *pipeline.Runner
	logger *log.Logger

	httpServer *http.Server
	listener   net.Listener
	closed     atomic.Bool

	requestCount atomic.Int64
	errorCount   atomic.Int64
}

// New creates a server around runner. A nil config means DefaultConfig.
func New(runner *pipeline.Runner, logger *log.Logger, config *Config) (*Server, error) {
	if runner == nil {
		return nil, fmt.Errorf("pipeline runner required")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	if logger == nil {
		logger = runner.Logger
	}
	return &Server{config: config, runner: runner, logger: logger}, nil
}

// Handler returns the routed handler. It is what Start serves and what
// tests drive through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.runID)
	r.Use(s.observe)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/compress", s.handleCompress)
		r.Post("/decompress", s.handleDecompress)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusNotFound, errorBody{Code: "NOT_FOUND", Message: "no route for " + r.URL.Path})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeJSON(w, http.StatusMethodNotAllowed, errorBody{Code: "METHOD_NOT_ALLOWED", Message: r.Method + " not allowed on " + r.URL.Path})
	})
	return r
}

// Start begins listening for HTTP connections.
func (s *Server) Start() error {
	if s.closed.Load() {
		return ErrServerClosed
	}

	listener, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.config.Addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server stopped", "err", err)
		}
	}()

	s.logger.Info("listening", "addr", listener.Addr().String())
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// Run starts the server and blocks until ctx is done, then shuts down,
// allowing in-flight requests up to grace to finish.
func (s *Server) Run(ctx context.Context, grace time.Duration) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	s.logger.Info("shutting down",
		"requests", s.requestCount.Load(),
		"errors", s.errorCount.Load())
	return s.Stop(shutdownCtx)
}

// Addr returns the server's listen address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.config.Addr
}
