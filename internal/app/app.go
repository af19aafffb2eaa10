// Package app initializes and orchestrates the main components of the
// LotVision service. It ties the HTTP server, the job dispatcher, and the
// batch tracker into one start/stop lifecycle.
package app

import (
	"context"
	"log/slog"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/core"
	"github.com/sevigo/lot-vision/internal/server"
	"github.com/sevigo/lot-vision/internal/tracker"
)

// App holds the main application components.
type App struct {
	ctx        context.Context
	cfg        *config.Config
	server     *server.Server
	logger     *slog.Logger
	dispatcher core.Dispatcher
	tracker    *tracker.Tracker
}

// NewApp assembles the application from its wired components.
func NewApp(
	ctx context.Context,
	cfg *config.Config,
	srv *server.Server,
	dispatcher core.Dispatcher,
	tr *tracker.Tracker,
	logger *slog.Logger,
) *App {
	return &App{
		ctx:        ctx,
		cfg:        cfg,
		server:     srv,
		logger:     logger,
		dispatcher: dispatcher,
		tracker:    tr,
	}
}

// Start runs the HTTP server.
func (a *App) Start() error {
	a.logger.Info("starting LotVision",
		"server_port", a.cfg.ServerPort,
		"max_workers", a.cfg.MaxWorkers,
		"max_concurrent_lots", a.cfg.MaxConcurrentLots)

	if err := a.server.Start(); err != nil {
		a.logger.Error("HTTP server exited with error", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down LotVision services")

	// Stop the HTTP server first to prevent new incoming batches. A failed
	// shutdown is reported after the pipeline has drained.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("HTTP server shutdown failed", "error", serverErr)
	}

	// Stop the dispatcher, allowing in-flight lots to finish and their
	// callbacks to go out.
	a.dispatcher.Stop()

	// The tracker goes last so draining lots can still record their state.
	a.tracker.Close()

	if serverErr != nil {
		a.logger.Error("LotVision stopped with errors", "error", serverErr)
		return serverErr
	}

	a.logger.Info("LotVision stopped successfully")
	return nil
}
