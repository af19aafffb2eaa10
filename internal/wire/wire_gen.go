// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"
	"fmt"

	"github.com/sevigo/lot-vision/internal/app"
	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/delivery"
	"github.com/sevigo/lot-vision/internal/jobs"
	"github.com/sevigo/lot-vision/internal/llm"
	"github.com/sevigo/lot-vision/internal/metrics"
	"github.com/sevigo/lot-vision/internal/processor"
	"github.com/sevigo/lot-vision/internal/server"
)

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	// Setup logger
	loggerConfig := provideLoggerConfig(cfg)
	logWriter := provideLogWriter(cfg)
	slogLogger := provideSlogLogger(loggerConfig, logWriter)

	signer := provideSigner(cfg)
	m := metrics.New()

	languages, err := provideLanguageTable(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load language table: %w", err)
	}

	// Optional backends
	cache, cacheCleanup, err := provideDescriptionCache(cfg, slogLogger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect description cache: %w", err)
	}

	store, storeCleanup, err := provideStore(cfg, slogLogger)
	if err != nil {
		cacheCleanup()
		return nil, nil, fmt.Errorf("failed to connect delivery journal: %w", err)
	}

	// Generation pipeline
	client := llm.NewClient(cfg, slogLogger)

	promptMgr, err := llm.NewPromptManager()
	if err != nil {
		storeCleanup()
		cacheCleanup()
		return nil, nil, fmt.Errorf("failed to create prompt manager: %w", err)
	}

	generator := llm.NewGenerator(cfg, client, promptMgr, languages, slogLogger)
	images := processor.NewImageChecker(cfg, m, slogLogger)
	proc := processor.New(cfg, generator, images, cache, m, slogLogger)

	// Delivery and tracking
	deliverer := delivery.NewDeliverer(cfg, signer, m, slogLogger)
	tr := provideTracker(cfg, slogLogger)

	// Job pipeline
	lotJob := jobs.NewLotJob(proc, deliverer, tr, store, m, slogLogger)
	dispatcher := jobs.NewDispatcher(cfg, lotJob, tr, m, slogLogger)

	// Server
	srv := server.NewServer(ctx, cfg, signer, proc, dispatcher, tr, store, m, slogLogger)

	// App
	application := app.NewApp(ctx, cfg, srv, dispatcher, tr, slogLogger)

	cleanup := func() {
		storeCleanup()
		cacheCleanup()
	}

	return application, cleanup, nil
}
