//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"github.com/sevigo/lot-vision/internal/app"
	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/delivery"
	"github.com/sevigo/lot-vision/internal/jobs"
	"github.com/sevigo/lot-vision/internal/llm"
	"github.com/sevigo/lot-vision/internal/metrics"
	"github.com/sevigo/lot-vision/internal/processor"
	"github.com/sevigo/lot-vision/internal/server"
)

func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	wire.Build(
		app.NewApp,
		server.NewServer,
		config.LoadConfig,
		metrics.New,
		jobs.NewDispatcher,
		jobs.NewLotJob,
		processor.New,
		processor.NewImageChecker,
		delivery.NewDeliverer,
		llm.NewClient,
		llm.NewGenerator,
		llm.NewPromptManager,
		provideTracker,
		provideSigner,
		provideLanguageTable,
		provideDescriptionCache,
		provideStore,
		provideLoggerConfig,
		provideLogWriter,
		provideSlogLogger,
	)
	return &app.App{}, nil, nil
}
