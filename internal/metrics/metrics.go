// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package metrics provides Prometheus instrumentation for the
// recommendation service: embedding provider calls, cache efficiency
// per tier, scoring outcomes, and API latency.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Embedding provider metrics
	EmbeddingRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_requests_total",
			Help: "Total number of embedding provider requests",
		},
		[]string{"model", "status"}, // status: "ok", "error"
	)

	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "embedding_request_duration_seconds",
			Help:    "Duration of embedding provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)

	EmbeddingBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "embedding_breaker_open",
			Help: "Whether the embedding provider circuit breaker is open (1) or closed (0)",
		},
	)

	// Cache metrics, labeled by tier ("memory", "redis")
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_cache_hits_total",
			Help: "Total number of embedding cache hits per tier",
		},
		[]string{"tier"},
	)

	CacheMisses = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_cache_misses_total",
			Help: "Total number of embedding cache misses per tier",
		},
		[]string{"tier"},
	)

	CacheErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "embedding_cache_errors_total",
			Help: "Total number of embedding cache errors per tier and operation",
		},
		[]string{"tier", "operation"},
	)

	CacheSweepRemoved = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "embedding_cache_sweep_removed_total",
			Help: "Total number of expired entries removed by periodic sweeps",
		},
	)

	// Recommendation metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of recommendation computations by outcome mode",
		},
		[]string{"mode"}, // "scored", "fallback_no_signal", "fallback_error"
	)

	RecommendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "End-to-end duration of recommendation computations in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	CandidatesScored = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recommend_candidates_scored",
			Help:    "Number of candidate posts scored per recommendation request",
			Buckets: []float64{0, 10, 25, 50, 100, 250, 500},
		},
	)

	// Database metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "postgres_query_duration_seconds",
			Help:    "Duration of PostgreSQL queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"query"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "postgres_query_errors_total",
			Help: "Total number of PostgreSQL query errors",
		},
		[]string{"query"},
	)

	// API metrics
	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Number of API requests currently in flight",
		},
	)
)

// RecordEmbeddingRequest records one provider round trip.
func RecordEmbeddingRequest(model string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	EmbeddingRequests.WithLabelValues(model, status).Inc()
	EmbeddingDuration.WithLabelValues(model).Observe(duration.Seconds())
}

// RecordDBQuery records one repository query.
func RecordDBQuery(query string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(query).Observe(duration.Seconds())
	if err != nil {
		DBQueryErrors.WithLabelValues(query).Inc()
	}
}

// RecordRecommendation records one recommendation computation.
func RecordRecommendation(mode string, candidates int, duration time.Duration) {
	RecommendRequests.WithLabelValues(mode).Inc()
	RecommendDuration.Observe(duration.Seconds())
	CandidatesScored.Observe(float64(candidates))
}

// SetBreakerOpen reflects the circuit breaker state as a gauge.
func SetBreakerOpen(open bool) {
	if open {
		EmbeddingBreakerState.Set(1)
	} else {
		EmbeddingBreakerState.Set(0)
	}
}
