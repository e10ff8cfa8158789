// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package config provides layered configuration loading for the
// recommendation service. Configuration is resolved from built-in
// defaults, an optional YAML file, and environment variables, in
// increasing order of precedence.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Database  DatabaseConfig  `koanf:"database"`
	Redis     RedisConfig     `koanf:"redis"`
	OpenAI    OpenAIConfig    `koanf:"openai"`
	Cache     CacheConfig     `koanf:"cache"`
	Recommend RecommendConfig `koanf:"recommend"`
	Security  SecurityConfig  `koanf:"security"`
	Logging   LoggingConfig   `koanf:"logging"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// DatabaseConfig controls the PostgreSQL connection pool.
type DatabaseConfig struct {
	URL             string        `koanf:"url"`
	MaxConns        int32         `koanf:"max_conns"`
	MinConns        int32         `koanf:"min_conns"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	ConnectTimeout  time.Duration `koanf:"connect_timeout"`
}

// RedisConfig controls the optional shared cache tier. When URL is
// empty the service runs with the in-process cache only.
type RedisConfig struct {
	URL          string        `koanf:"url"`
	DialTimeout  time.Duration `koanf:"dial_timeout"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// OpenAIConfig controls the embedding provider.
type OpenAIConfig struct {
	APIKey  string        `koanf:"api_key"`
	Model   string        `koanf:"model"`
	Timeout time.Duration `koanf:"timeout"`
	// RequestsPerSecond caps outbound embedding calls. Zero disables
	// client-side rate limiting.
	RequestsPerSecond float64 `koanf:"requests_per_second"`
	RequestBurst      int     `koanf:"request_burst"`
	// BreakerEnabled wraps the provider in a circuit breaker so a
	// failing upstream trips fast instead of timing out per request.
	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// CacheConfig controls the embedding cache tiers.
type CacheConfig struct {
	Enabled       bool          `koanf:"enabled"`
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	// MaxEntries bounds the in-process tier. Zero means unbounded.
	MaxEntries int    `koanf:"max_entries"`
	KeyPrefix  string `koanf:"key_prefix"`
}

// RecommendConfig controls candidate retrieval and scoring.
type RecommendConfig struct {
	DefaultLimit      int `koanf:"default_limit"`
	MaxLimit          int `koanf:"max_limit"`
	MaxCandidatePosts int `koanf:"max_candidate_posts"`
	MaxUserCaptions   int `koanf:"max_user_captions"`
	BatchSize         int `koanf:"batch_size"`
}

// SecurityConfig controls rate limiting and CORS.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig controls structured logging output.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for values that would prevent the
// service from starting. It runs after all layers are merged, so it
// sees the effective configuration.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url is required (set DATABASE_URL)")
	}
	if c.OpenAI.APIKey == "" {
		return fmt.Errorf("openai.api_key is required (set OPENAI_API_KEY)")
	}
	if c.OpenAI.Model == "" {
		return fmt.Errorf("openai.model must not be empty")
	}
	if c.Cache.Enabled {
		if c.Cache.TTL <= 0 {
			return fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL)
		}
		if c.Cache.SweepInterval <= 0 {
			return fmt.Errorf("cache.sweep_interval must be positive, got %s", c.Cache.SweepInterval)
		}
	}
	if c.Recommend.DefaultLimit < 1 {
		return fmt.Errorf("recommend.default_limit must be at least 1, got %d", c.Recommend.DefaultLimit)
	}
	if c.Recommend.MaxLimit < c.Recommend.DefaultLimit {
		return fmt.Errorf("recommend.max_limit (%d) must not be below recommend.default_limit (%d)",
			c.Recommend.MaxLimit, c.Recommend.DefaultLimit)
	}
	if c.Recommend.BatchSize < 1 {
		return fmt.Errorf("recommend.batch_size must be at least 1, got %d", c.Recommend.BatchSize)
	}
	if c.Recommend.MaxCandidatePosts < 1 {
		return fmt.Errorf("recommend.max_candidate_posts must be at least 1, got %d", c.Recommend.MaxCandidatePosts)
	}
	return nil
}

// RedisEnabled reports whether a shared cache tier is configured.
func (c *Config) RedisEnabled() bool {
	return c.Redis.URL != ""
}
