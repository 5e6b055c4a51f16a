/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package cache provides a Redis-based cache for comparison-run results, so
// repeated on-demand scrapes of the same tour/date do not each pay for a
// full browser session.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/friendsincode/tourwatch/internal/scraper"
)

const keyPrefix = "tourwatch:cache:scrape:"

// DefaultTTL bounds how stale a cached comparison run may be.
const DefaultTTL = 15 * time.Minute

// Config contains cache configuration.
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
}

// Cache stores comparison-run results keyed by (url, date, language).
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// New connects to Redis and verifies the connection.
func New(cfg Config, logger zerolog.Logger) (*Cache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl, logger: logger}, nil
}

// Key builds the cache key for one comparison-run request.
func Key(url, date, language string) string {
	return keyPrefix + url + "|" + date + "|" + language
}

// GetResults returns a cached result list, reporting a miss on any error.
func (c *Cache) GetResults(ctx context.Context, key string) ([]scraper.SlotResult, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn().Err(err).Msg("cache read failed")
		}
		return nil, false
	}
	var results []scraper.SlotResult
	if err := json.Unmarshal(data, &results); err != nil {
		c.logger.Warn().Err(err).Msg("cache entry corrupt, ignoring")
		return nil, false
	}
	return results, true
}

// SetResults stores a result list with the configured TTL. Failures are
// logged and swallowed; caching is never on the essential path.
func (c *Cache) SetResults(ctx context.Context, key string, results []scraper.SlotResult) {
	data, err := json.Marshal(results)
	if err != nil {
		c.logger.Warn().Err(err).Msg("cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("cache write failed")
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
