// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/jerrygram-recommend/config.yaml",
	"/etc/jerrygram-recommend/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config with all defaults applied. These are
// loaded first and then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            3001,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			URL:             "",
			MaxConns:        10,
			MinConns:        2,
			MaxConnLifetime: 30 * time.Minute,
			ConnectTimeout:  5 * time.Second,
		},
		Redis: RedisConfig{
			URL:          "", // Empty disables the shared tier
			DialTimeout:  5 * time.Second,
			ReadTimeout:  2 * time.Second,
			WriteTimeout: 2 * time.Second,
		},
		OpenAI: OpenAIConfig{
			APIKey:            "",
			Model:             "text-embedding-3-small",
			Timeout:           30 * time.Second,
			RequestsPerSecond: 0, // Unlimited by default
			RequestBurst:      5,
			BreakerEnabled:    true,
		},
		Cache: CacheConfig{
			Enabled:       true,
			TTL:           time.Hour,
			SweepInterval: 30 * time.Minute,
			MaxEntries:    0,
			KeyPrefix:     "jg:embedding:",
		},
		Recommend: RecommendConfig{
			DefaultLimit:      10,
			MaxLimit:          50,
			MaxCandidatePosts: 100,
			MaxUserCaptions:   50,
			BatchSize:         10,
		},
		Security: SecurityConfig{
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
			CORSOrigins:       []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults. Environment variable names are
// kept backward compatible with the original deployment (PORT,
// DATABASE_URL, REDIS_URL, OPENAI_API_KEY, ENABLE_CACHE, CACHE_EXPIRY).
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	if err := processDurationFields(k); err != nil {
		return nil, fmt.Errorf("failed to process duration fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file, honoring CONFIG_PATH first.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths defines which config paths are parsed as
// comma-separated slices when sourced from env vars.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices
// for known slice fields. Env vars arrive as plain strings but the
// config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		// Already a slice (from YAML or defaults), nothing to do.
		if _, ok := val.([]interface{}); ok {
			continue
		}
		if _, ok := val.([]string); ok {
			continue
		}

		if strVal, ok := val.(string); ok {
			if strVal == "" {
				continue
			}
			parts := strings.Split(strVal, ",")
			trimmed := make([]string, 0, len(parts))
			for _, p := range parts {
				p = strings.TrimSpace(p)
				if p != "" {
					trimmed = append(trimmed, p)
				}
			}
			if len(trimmed) > 0 {
				if err := k.Set(path, trimmed); err != nil {
					return fmt.Errorf("failed to set %s: %w", path, err)
				}
			}
		}
	}
	return nil
}

// durationSecondsPaths lists config paths whose value may arrive as a
// bare integer meaning seconds. The original deployment set
// CACHE_EXPIRY that way.
var durationSecondsPaths = []string{
	"cache.ttl",
}

// processDurationFields appends a seconds unit to bare-integer duration
// values so an inherited CACHE_EXPIRY=3600 still parses. Values that
// already carry a unit pass through untouched.
func processDurationFields(k *koanf.Koanf) error {
	for _, path := range durationSecondsPaths {
		val, ok := k.Get(path).(string)
		if !ok || val == "" {
			continue
		}
		if _, err := strconv.Atoi(val); err != nil {
			continue
		}
		if err := k.Set(path, val+"s"); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envTransformFunc maps environment variable names to koanf config
// paths. Variables used by the original deployment keep their names;
// everything else follows SECTION_FIELD convention.
//
// Examples:
//   - PORT -> server.port
//   - DATABASE_URL -> database.url
//   - CACHE_EXPIRY -> cache.ttl
//   - OPENAI_MODEL -> openai.model
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Original deployment variables
		"port":           "server.port",
		"host":           "server.host",
		"database_url":   "database.url",
		"redis_url":      "redis.url",
		"openai_api_key": "openai.api_key",
		"enable_cache":   "cache.enabled",
		"cache_expiry":   "cache.ttl",

		// Server
		"server_read_timeout":     "server.read_timeout",
		"server_write_timeout":    "server.write_timeout",
		"server_idle_timeout":     "server.idle_timeout",
		"server_shutdown_timeout": "server.shutdown_timeout",

		// Database pool
		"database_max_conns":         "database.max_conns",
		"database_min_conns":         "database.min_conns",
		"database_max_conn_lifetime": "database.max_conn_lifetime",
		"database_connect_timeout":   "database.connect_timeout",

		// Embedding provider
		"openai_model":               "openai.model",
		"openai_timeout":             "openai.timeout",
		"openai_requests_per_second": "openai.requests_per_second",
		"openai_request_burst":       "openai.request_burst",
		"openai_breaker_enabled":     "openai.breaker_enabled",

		// Cache tiers
		"cache_sweep_interval": "cache.sweep_interval",
		"cache_max_entries":    "cache.max_entries",
		"cache_key_prefix":     "cache.key_prefix",

		// Recommendation engine
		"recommend_default_limit": "recommend.default_limit",
		"recommend_max_limit":     "recommend.max_limit",
		"max_candidate_posts":     "recommend.max_candidate_posts",
		"max_user_captions":       "recommend.max_user_captions",
		"recommend_batch_size":    "recommend.batch_size",

		// Security
		"rate_limit_reqs":     "security.rate_limit_reqs",
		"rate_limit_window":   "security.rate_limit_window",
		"rate_limit_disabled": "security.rate_limit_disabled",
		"cors_origins":        "security.cors_origins",

		// Logging
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	// Unknown variables are dropped so unrelated env vars never leak
	// into the configuration tree.
	return ""
}
