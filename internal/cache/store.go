// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package cache provides the embedding cache tiers. Cached values are
// embedding vectors keyed by the exact input text. Two implementations
// exist: an in-process Memory store and a Redis-backed store for
// sharing across instances. Tiered composes both.
package cache

import (
	"context"
	"time"
)

// Store is the interface all embedding cache tiers implement.
// Implementations must be safe for concurrent use.
type Store interface {
	// Get returns the cached vector for text. The boolean reports
	// whether a live entry was found. A store error never implies a
	// hit or a miss on its own.
	Get(ctx context.Context, text string) ([]float32, bool, error)

	// Set stores the vector for text with the store's configured TTL.
	Set(ctx context.Context, text string, vector []float32) error

	// Clear removes all entries owned by this store and returns the
	// number of entries removed.
	Clear(ctx context.Context) (int, error)

	// Stats returns a snapshot of the store's counters.
	Stats(ctx context.Context) (Stats, error)

	// Name identifies the tier in logs and stats ("memory", "redis").
	Name() string
}

// Stats is a point-in-time snapshot of a cache tier's counters.
// ApproxBytes is a rough vector-plus-key estimate, reported only by
// tiers whose entries live in this process.
type Stats struct {
	Tier        string    `json:"tier"`
	Entries     int64     `json:"entries"`
	ApproxBytes int64     `json:"approx_bytes,omitempty"`
	Hits        int64     `json:"hits"`
	Misses      int64     `json:"misses"`
	Evictions   int64     `json:"evictions"`
	LastSweep   time.Time `json:"last_sweep,omitempty"`
}

// HitRate returns the fraction of lookups that were hits, or 0 when no
// lookups have happened yet.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}
