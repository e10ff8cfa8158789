// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wonhongChang/jerrygram-recommend/internal/config"
	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/middleware"
	"github.com/wonhongChang/jerrygram-recommend/internal/models"
)

// NewRouter builds the chi router with the full middleware stack.
func NewRouter(h *Handlers, sec config.SecurityConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.PrometheusMetrics)
	r.Use(recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: sec.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	if !sec.RateLimitDisabled {
		r.Use(httprate.Limit(
			sec.RateLimitReqs,
			sec.RateLimitWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, req *http.Request) {
				respondError(w, req, http.StatusTooManyRequests,
					models.ErrCodeTooManyRequests, "Rate limit exceeded", nil)
			}),
		))
	}

	r.Get("/recommend", h.Recommend)
	r.Get("/health", h.Health)
	r.Get("/cache/stats", h.CacheStats)
	r.Delete("/cache", h.CacheClear)
	r.Handle("/metrics", promhttp.Handler())

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		respondError(w, req, http.StatusNotFound, models.ErrCodeNotFound, "Not found", nil)
	})

	return r
}

// recoverer converts panics into a 500 response instead of tearing
// down the connection.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.Ctx(req.Context()).Error().
					Interface("panic", rec).
					Str("path", req.URL.Path).
					Msg("handler panic")
				respondError(w, req, http.StatusInternalServerError,
					models.ErrCodeInternalError, "Internal server error", nil)
			}
		}()
		next.ServeHTTP(w, req)
	})
}
