package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/sevigo/lot-vision/internal/wire"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("service exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	app, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize service: %w", err)
	}
	defer cleanup()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- app.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			if stopErr := app.Stop(); stopErr != nil {
				slog.Error("failed to stop service", "error", stopErr)
			}
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	}

	if err := app.Stop(); err != nil {
		return fmt.Errorf("failed to stop service: %w", err)
	}
	return nil
}
