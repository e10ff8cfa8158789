// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package main is the entry point for the Jerrygram recommendation
// service.
//
// The service recommends posts to users by comparing the semantic
// embedding of captions the user liked against the captions of recent
// public posts. Embeddings come from the OpenAI embeddings API and are
// cached in two tiers: an in-process map and an optional shared Redis
// instance.
//
// # Startup Order
//
//  1. Configuration: Koanf v2 layered sources (env > file > defaults)
//  2. Logging: zerolog, JSON by default
//  3. PostgreSQL: read-only pool against the main Jerrygram database
//  4. Redis (optional): shared embedding cache tier
//  5. Embedding provider: OpenAI client wrapped in rate limiter and
//     circuit breaker
//  6. HTTP server and cache janitor under a suture supervision tree
//
// # Configuration
//
// Required:
//   - DATABASE_URL: PostgreSQL connection string
//   - OPENAI_API_KEY: OpenAI API key
//
// Optional:
//   - PORT: HTTP port (default 3001)
//   - REDIS_URL: enables the shared cache tier
//   - ENABLE_CACHE: set false to disable caching entirely
//   - CACHE_EXPIRY: embedding TTL (default 1h)
//
// # Signal Handling
//
// SIGINT and SIGTERM trigger graceful shutdown: the listener stops
// accepting connections, in-flight requests get the configured
// shutdown timeout, then the pools close.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/wonhongChang/jerrygram-recommend/internal/api"
	"github.com/wonhongChang/jerrygram-recommend/internal/cache"
	"github.com/wonhongChang/jerrygram-recommend/internal/config"
	"github.com/wonhongChang/jerrygram-recommend/internal/embedding"
	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/recommend"
	"github.com/wonhongChang/jerrygram-recommend/internal/repository"
	"github.com/wonhongChang/jerrygram-recommend/internal/supervisor"
	"github.com/wonhongChang/jerrygram-recommend/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("startup failed")
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	log := logging.Logger()
	log.Info().
		Str("version", api.Version).
		Int("port", cfg.Server.Port).
		Bool("cache", cfg.Cache.Enabled).
		Bool("redis", cfg.RedisEnabled()).
		Msg("starting jerrygram-recommend")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// PostgreSQL pool against the main Jerrygram database.
	poolCfg, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("parse database url: %w", err)
	}
	poolCfg.MaxConns = cfg.Database.MaxConns
	poolCfg.MinConns = cfg.Database.MinConns
	poolCfg.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolCfg.ConnConfig.ConnectTimeout = cfg.Database.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	log.Info().Msg("database connected")

	// Cache tiers. The memory tier always exists when caching is on;
	// Redis joins as the primary shared tier when configured.
	var (
		store   *cache.Tiered
		memTier *cache.Memory
	)
	if cfg.Cache.Enabled {
		memTier = cache.NewMemory(cfg.Cache.TTL,
			cache.WithMaxEntries(cfg.Cache.MaxEntries))

		var sharedTier cache.Store
		if cfg.RedisEnabled() {
			redisOpts, err := redis.ParseURL(cfg.Redis.URL)
			if err != nil {
				return fmt.Errorf("parse redis url: %w", err)
			}
			redisOpts.DialTimeout = cfg.Redis.DialTimeout
			redisOpts.ReadTimeout = cfg.Redis.ReadTimeout
			redisOpts.WriteTimeout = cfg.Redis.WriteTimeout

			redisClient := redis.NewClient(redisOpts)
			defer redisClient.Close()

			if err := redisClient.Ping(ctx).Err(); err != nil {
				// Redis is an optimization, not a dependency.
				log.Warn().Err(err).Msg("redis unreachable, continuing with memory tier only")
			} else {
				sharedTier = cache.NewRedis(redisClient, cfg.Cache.TTL, cfg.Cache.KeyPrefix)
				log.Info().Msg("redis cache tier connected")
			}
		}

		store = cache.NewTiered(sharedTier, memTier)
	}

	// Embedding provider chain: OpenAI -> rate limiter -> breaker.
	var provider embedding.Provider
	provider, err = embedding.NewOpenAIProvider(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	if err != nil {
		return fmt.Errorf("embedding provider: %w", err)
	}
	if cfg.OpenAI.RequestsPerSecond > 0 {
		provider = embedding.NewRateLimited(provider, cfg.OpenAI.RequestsPerSecond, cfg.OpenAI.RequestBurst)
	}
	if cfg.OpenAI.BreakerEnabled {
		provider = embedding.NewBreaker(provider, cfg.OpenAI.Timeout)
	}

	var clientStore cache.Store
	if store != nil {
		clientStore = store
	}
	embClient := embedding.NewClient(provider, clientStore)

	// Recommendation pipeline.
	posts := repository.NewPosts(pool)
	engine := recommend.NewEngine(embClient, cfg.Recommend.BatchSize)
	service := recommend.NewService(posts, engine, recommend.ServiceConfig{
		MaxCandidatePosts: cfg.Recommend.MaxCandidatePosts,
		MaxUserCaptions:   cfg.Recommend.MaxUserCaptions,
	})

	// HTTP surface.
	handlers := api.NewHandlers(service, store, cfg.Recommend.DefaultLimit, cfg.Recommend.MaxLimit)
	router := api.NewRouter(handlers, cfg.Security)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Supervision tree: HTTP server plus the cache janitor.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.Config{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.Add(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	if memTier != nil {
		tree.Add(services.NewJanitorService(memTier, cfg.Cache.SweepInterval))
	}

	log.Info().Str("addr", server.Addr).Msg("listening")

	if err := tree.Serve(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor: %w", err)
	}

	log.Info().Msg("shutdown complete")
	return nil
}
