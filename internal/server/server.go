// Package server exposes the retrieval API over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hyperjump/precedent/internal/config"
	"github.com/hyperjump/precedent/internal/metrics"
	"github.com/hyperjump/precedent/internal/search"
)

// ReloadFunc loads a fresh engine generation into the holder.
type ReloadFunc func(ctx context.Context) error

// Server is the HTTP server for the retrieval API.
type Server struct {
	holder *search.Holder
	config *config.Config
	logger *zap.Logger
	reload ReloadFunc
	server *http.Server
}

// Option configures a Server.
type Option func(*Server)

// WithReload enables POST /api/v1/reload.
func WithReload(fn ReloadFunc) Option {
	return func(s *Server) { s.reload = fn }
}

// NewServer creates a server answering from whatever engine holder currently serves.
func NewServer(holder *search.Holder, cfg *config.Config, logger *zap.Logger, opts ...Option) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		holder: holder,
		config: cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware())
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(middleware.Compress(5))

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/retrieve", s.handleRetrieve)
		r.Post("/explain", s.handleExplain)
		r.Post("/similar", s.handleSimilar)
		r.Get("/status", s.handleStatus)
		r.Post("/reload", s.handleReload)
	})
	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("Starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
