package wire

import (
	"io"
	"log/slog"
	"os"

	"github.com/sevigo/lot-vision/internal/config"
	"github.com/sevigo/lot-vision/internal/db"
	"github.com/sevigo/lot-vision/internal/logger"
	"github.com/sevigo/lot-vision/internal/signature"
	"github.com/sevigo/lot-vision/internal/storage"
	"github.com/sevigo/lot-vision/internal/tracker"
)

func provideLoggerConfig(cfg *config.Config) logger.Config {
	return cfg.Logging
}

func provideLogWriter(cfg *config.Config) io.Writer {
	switch cfg.Logging.Output {
	case "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	case "file":
		f, _ := os.OpenFile("lot-vision.log", os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		return f
	default:
		return os.Stdout
	}
}

func provideSlogLogger(loggerConfig logger.Config, writer io.Writer) *slog.Logger {
	return logger.NewLogger(loggerConfig, writer)
}

func provideSigner(cfg *config.Config) *signature.Signer {
	return signature.NewSigner(cfg.SharedKey)
}

func provideLanguageTable(cfg *config.Config) (*config.LanguageTable, error) {
	return config.LoadLanguageTable(cfg.LanguagesFile)
}

func provideTracker(cfg *config.Config, logger *slog.Logger) *tracker.Tracker {
	return tracker.New(cfg.BatchRetention, logger)
}

// provideDescriptionCache connects the Redis description cache when REDIS_URL
// is set. Without it the service runs uncached, which only costs repeated
// generation work.
func provideDescriptionCache(cfg *config.Config, logger *slog.Logger) (storage.DescriptionCache, func(), error) {
	if cfg.RedisURL == "" {
		logger.Info("description cache disabled, REDIS_URL is not set")
		return nil, func() {}, nil
	}
	return storage.NewRedisCache(cfg.RedisURL, cfg.ResultTTL, logger)
}

// provideStore connects the delivery journal when DATABASE_URL is set.
// Without it batch status is served from memory only and evicted batches
// return 404.
func provideStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if cfg.Database == nil {
		logger.Info("delivery journal disabled, DATABASE_URL is not set")
		return nil, func() {}, nil
	}
	dbConn, cleanup, err := db.NewDatabase(cfg.Database, logger)
	if err != nil {
		return nil, func() {}, err
	}
	return storage.NewStore(dbConn.DB), cleanup, nil
}
