// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package api exposes the HTTP surface: the recommendation endpoint,
// health, cache administration, and Prometheus metrics.
package api

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/wonhongChang/jerrygram-recommend/internal/cache"
	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/models"
	"github.com/wonhongChang/jerrygram-recommend/internal/recommend"
	"github.com/wonhongChang/jerrygram-recommend/internal/validation"
)

// Version is set at build time via -ldflags.
var Version = "dev"

// Recommender is the subset of the recommendation service the
// handlers need.
type Recommender interface {
	Recommend(ctx context.Context, userID string, limit int) ([]models.ScoredPost, error)
}

// Handlers holds the dependencies of all HTTP handlers.
type Handlers struct {
	recommender  Recommender
	store        *cache.Tiered
	defaultLimit int
	maxLimit     int
	startTime    time.Time
}

// NewHandlers wires the handler set. store may be nil when caching is
// disabled.
func NewHandlers(recommender Recommender, store *cache.Tiered, defaultLimit, maxLimit int) *Handlers {
	return &Handlers{
		recommender:  recommender,
		store:        store,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		startTime:    time.Now(),
	}
}

// Recommend handles GET /recommend?userId=...&limit=...
// The response is a bare JSON array of posts, scored when a taste
// signal existed. Out-of-range limits are clamped, not rejected.
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	req := RecommendRequest{
		UserID: r.URL.Query().Get("userId"),
		Limit:  clampInt(getIntParam(r, "limit", h.defaultLimit), 1, h.maxLimit),
	}

	if verr := validation.ValidateStruct(&req); verr != nil {
		respondValidationError(w, r, verr)
		return
	}

	posts, err := h.recommender.Recommend(r.Context(), req.UserID, req.Limit)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).
			Str("user_id", sanitizeLogValue(req.UserID)).
			Msg("recommendation failed")
		respondError(w, r, http.StatusInternalServerError,
			models.ErrCodeInternalError, "Failed to compute recommendations", err)
		return
	}

	respondJSON(w, http.StatusOK, posts)
}

// Health handles GET /health.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	status := models.HealthStatus{
		Status:        "healthy",
		Service:       "jerrygram-recommend",
		Version:       Version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Memory: models.MemoryStats{
			AllocMB:      float64(mem.Alloc) / 1024 / 1024,
			TotalAllocMB: float64(mem.TotalAlloc) / 1024 / 1024,
			SysMB:        float64(mem.Sys) / 1024 / 1024,
			NumGC:        mem.NumGC,
		},
		Timestamp: time.Now().UTC(),
	}

	if h.store != nil {
		status.Cache = h.store.TierStats(r.Context())
	}

	respondJSON(w, http.StatusOK, status)
}

// CacheStats handles GET /cache/stats.
func (h *Handlers) CacheStats(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"enabled": false,
			"tiers":   []cache.Stats{},
		})
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"enabled": true,
		"tiers":   h.store.TierStats(r.Context()),
	})
}

// CacheClear handles DELETE /cache.
func (h *Handlers) CacheClear(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		respondJSON(w, http.StatusOK, map[string]interface{}{"cleared": 0})
		return
	}

	removed, err := h.store.Clear(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError,
			models.ErrCodeInternalError, "Failed to clear cache", err)
		return
	}

	logging.Ctx(r.Context()).Info().Int("removed", removed).Msg("cache cleared")
	respondJSON(w, http.StatusOK, map[string]interface{}{"cleared": removed})
}

var _ Recommender = (*recommend.Service)(nil)
