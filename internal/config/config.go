// Package config loads and validates the service configuration from the
// environment and an optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/viper"

	"github.com/sevigo/lot-vision/internal/logger"
)

// DBConfig holds the settings for the optional delivery journal database.
type DBConfig struct {
	URL             string
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Config holds the application's configuration values.
type Config struct {
	ServerPort string
	Logging    logger.Config

	// Shared secret for request and callback signatures.
	SharedKey string

	OpenAIAPIKey   string
	OpenAIBaseURL  string
	VisionModel    string
	TranslateModel string

	MaxWorkers        int
	MaxConcurrentLots int64
	QueueSize         int

	// Generation retry policy for transient upstream failures.
	MaxRetries        int
	GenerationTimeout time.Duration

	// Callback delivery policy.
	DeliveryMaxAttempts int
	DeliveryBaseDelay   time.Duration
	DeliveryMaxDelay    time.Duration
	DeliveryTimeout     time.Duration

	ImageCheckTimeout time.Duration
	BatchRetention    time.Duration
	ResultTTL         time.Duration

	// Optional backends. Empty values disable the component.
	RedisURL string
	Database *DBConfig

	LanguagesFile string
}

// LoadConfig reads configuration from environment variables and a .env file,
// sets sensible defaults, and validates required fields. It uses the Viper
// library to handle configuration loading and precedence.
func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "text")
	viper.SetDefault("LOG_OUTPUT", "stdout")
	viper.SetDefault("OPENAI_BASE_URL", "https://api.openai.com")
	viper.SetDefault("VISION_MODEL", "o4-mini")
	viper.SetDefault("TRANSLATE_MODEL", "gpt-4.1-mini")
	viper.SetDefault("MAX_WORKERS", 4)
	viper.SetDefault("MAX_CONCURRENT_LOTS", 10)
	viper.SetDefault("QUEUE_SIZE", 100)
	viper.SetDefault("MAX_RETRIES", 5)
	viper.SetDefault("GENERATION_TIMEOUT", "120s")
	viper.SetDefault("DELIVERY_MAX_ATTEMPTS", 5)
	viper.SetDefault("DELIVERY_BASE_DELAY", "2s")
	viper.SetDefault("DELIVERY_MAX_DELAY", "60s")
	viper.SetDefault("DELIVERY_TIMEOUT", "10s")
	viper.SetDefault("IMAGE_CHECK_TIMEOUT", "3s")
	viper.SetDefault("BATCH_RETENTION", "48h")
	viper.SetDefault("RESULT_TTL", "48h")
	viper.SetDefault("DB_CONN_MAX_LIFETIME", "30m")
	viper.SetDefault("DB_CONN_MAX_IDLE_TIME", "5m")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Error("failed to read config file", "error", err)
		}
	}

	if viper.GetString("SHARED_KEY") == "" {
		return nil, fmt.Errorf("SHARED_KEY must be set")
	}
	if viper.GetString("OPENAI_API_KEY") == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY must be set")
	}

	cfg := &Config{
		ServerPort: viper.GetString("SERVER_PORT"),
		Logging: logger.Config{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
			Output: viper.GetString("LOG_OUTPUT"),
		},
		SharedKey:           viper.GetString("SHARED_KEY"),
		OpenAIAPIKey:        viper.GetString("OPENAI_API_KEY"),
		OpenAIBaseURL:       viper.GetString("OPENAI_BASE_URL"),
		VisionModel:         viper.GetString("VISION_MODEL"),
		TranslateModel:      viper.GetString("TRANSLATE_MODEL"),
		MaxWorkers:          viper.GetInt("MAX_WORKERS"),
		MaxConcurrentLots:   viper.GetInt64("MAX_CONCURRENT_LOTS"),
		QueueSize:           viper.GetInt("QUEUE_SIZE"),
		MaxRetries:          viper.GetInt("MAX_RETRIES"),
		GenerationTimeout:   viper.GetDuration("GENERATION_TIMEOUT"),
		DeliveryMaxAttempts: viper.GetInt("DELIVERY_MAX_ATTEMPTS"),
		DeliveryBaseDelay:   viper.GetDuration("DELIVERY_BASE_DELAY"),
		DeliveryMaxDelay:    viper.GetDuration("DELIVERY_MAX_DELAY"),
		DeliveryTimeout:     viper.GetDuration("DELIVERY_TIMEOUT"),
		ImageCheckTimeout:   viper.GetDuration("IMAGE_CHECK_TIMEOUT"),
		BatchRetention:      viper.GetDuration("BATCH_RETENTION"),
		ResultTTL:           viper.GetDuration("RESULT_TTL"),
		RedisURL:            viper.GetString("REDIS_URL"),
		LanguagesFile:       viper.GetString("LANGUAGES_FILE"),
	}

	if dbURL := viper.GetString("DATABASE_URL"); dbURL != "" {
		cfg.Database = &DBConfig{
			URL:             dbURL,
			ConnMaxLifetime: viper.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime: viper.GetDuration("DB_CONN_MAX_IDLE_TIME"),
		}
	}

	if cfg.MaxConcurrentLots <= 0 {
		return nil, fmt.Errorf("MAX_CONCURRENT_LOTS must be positive, got %d", cfg.MaxConcurrentLots)
	}
	if cfg.DeliveryMaxAttempts <= 0 {
		return nil, fmt.Errorf("DELIVERY_MAX_ATTEMPTS must be positive, got %d", cfg.DeliveryMaxAttempts)
	}

	return cfg, nil
}
