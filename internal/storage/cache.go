// Package storage provides the optional persistence backends: a Redis cache
// for generated descriptions and a Postgres journal of delivery outcomes.
// Both are best-effort; lot processing never depends on them.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

//go:generate mockgen -destination=../../mocks/mock_cache.go -package=mocks . DescriptionCache

// DescriptionCache stores generated description texts for the retention
// window, keyed by content digest and language. Identical lots resubmitted
// within the window skip the generation calls entirely.
type DescriptionCache interface {
	// Get returns the cached text and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set stores text under key for the configured TTL.
	Set(ctx context.Context, key, value string) error
}

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache connects to Redis and returns the cache plus a cleanup
// function that closes the connection.
func NewRedisCache(redisURL string, ttl time.Duration, logger *slog.Logger) (DescriptionCache, func(), error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, func() {}, fmt.Errorf("invalid redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, func() {}, fmt.Errorf("failed to ping redis: %w", err)
	}

	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Error("failed to close redis connection", "error", err)
		}
	}
	return &redisCache{client: client, ttl: ttl, logger: logger}, cleanup, nil
}

func (c *redisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("cache get %s: %w", key, err)
	}
	return val, true, nil
}

func (c *redisCache) Set(ctx context.Context, key, value string) error {
	if err := c.client.Set(ctx, key, value, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}
