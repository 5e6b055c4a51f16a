/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	DBBackend   DatabaseBackend
	DBDSN       string

	// ToursFile is an optional YAML seed file of tours to register at
	// startup; when absent the built-in defaults are used.
	ToursFile string

	// Sweep configuration
	SweepEnabled       bool
	SweepHour          int    // local hour of day the daily sweep starts
	SweepLookaheadDays int    // how many days ahead each tour is scraped
	SweepConcurrency   int    // concurrent browser sessions during a sweep
	SweepTimezone      string // IANA zone the sweep hour is evaluated in

	// Browser configuration
	BrowserHeadless bool

	// Result cache (optional; disabled when RedisAddr is empty)
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	ScrapeCacheTTL time.Duration
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("TOURWATCH_ENV", "development"),
		HTTPBind:    getEnv("TOURWATCH_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("TOURWATCH_HTTP_PORT", 8080),
		DBBackend:   DatabaseBackend(getEnv("TOURWATCH_DB_BACKEND", string(DatabaseSQLite))),
		DBDSN:       getEnv("TOURWATCH_DB_DSN", ""),
		ToursFile:   getEnv("TOURWATCH_TOURS_FILE", ""),

		SweepEnabled:       getEnvBool("TOURWATCH_SWEEP_ENABLED", true),
		SweepHour:          getEnvInt("TOURWATCH_SWEEP_HOUR", 6),
		SweepLookaheadDays: getEnvInt("TOURWATCH_SWEEP_LOOKAHEAD_DAYS", 30),
		SweepConcurrency:   getEnvInt("TOURWATCH_SWEEP_CONCURRENCY", 2),
		SweepTimezone:      getEnv("TOURWATCH_SWEEP_TIMEZONE", "Europe/Rome"),

		BrowserHeadless: getEnvBool("TOURWATCH_BROWSER_HEADLESS", true),

		RedisAddr:      getEnv("TOURWATCH_REDIS_ADDR", ""),
		RedisPassword:  getEnv("TOURWATCH_REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("TOURWATCH_REDIS_DB", 0),
		ScrapeCacheTTL: time.Duration(getEnvInt("TOURWATCH_SCRAPE_CACHE_TTL_MINUTES", 15)) * time.Minute,
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		if cfg.DBBackend != DatabaseSQLite {
			return nil, fmt.Errorf("TOURWATCH_DB_DSN must be provided for backend %q", cfg.DBBackend)
		}
		cfg.DBDSN = "tourwatch.db"
	}

	if cfg.SweepHour < 0 || cfg.SweepHour > 23 {
		return nil, fmt.Errorf("TOURWATCH_SWEEP_HOUR must be between 0 and 23, got %d", cfg.SweepHour)
	}
	if cfg.SweepLookaheadDays < 1 {
		return nil, fmt.Errorf("TOURWATCH_SWEEP_LOOKAHEAD_DAYS must be at least 1, got %d", cfg.SweepLookaheadDays)
	}
	if cfg.SweepConcurrency < 1 {
		cfg.SweepConcurrency = 1
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}
