// Package server implements the HTTP server for the application.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/metrics"
	"github.com/sevigo/lot-vision/internal/signature"
	"github.com/sevigo/lot-vision/internal/storage"
	"github.com/sevigo/lot-vision/internal/tracker"
)

// shutdownGrace bounds how long Stop waits for in-flight requests.
const shutdownGrace = 30 * time.Second

// Server wraps an HTTP server with graceful shutdown capabilities.
type Server struct {
	ctx    context.Context
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a new HTTP server exposing the description API.
func NewServer(
	ctx context.Context,
	cfg *config.Config,
	signer *signature.Signer,
	processor core.Processor,
	dispatcher core.Dispatcher,
	tr *tracker.Tracker,
	store storage.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
) *Server {
	router := NewRouter(signer, processor, dispatcher, tr, store, m, logger)

	return &Server{
		ctx: ctx,
		server: &http.Server{
			Addr:        ":" + cfg.ServerPort,
			Handler:     router,
			ReadTimeout: 10 * time.Second,
			// Must cover the synchronous single-lot path, which blocks on
			// the vision model before writing the response.
			WriteTimeout: 5 * time.Minute,
			IdleTimeout:  120 * time.Second,
		},
		logger: logger,
	}
}

// Start begins serving and blocks until the listener closes.
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "address", s.server.Addr)

	err := s.server.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests for up to shutdownGrace before closing.
func (s *Server) Stop() error {
	s.logger.Info("shutting down HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
