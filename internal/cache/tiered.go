// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package cache

import (
	"context"
	"sync"

	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/metrics"
)

// Tiered composes the shared Redis tier with the private in-process
// tier. Reads consult the primary (shared) tier first and fall through
// to the in-process tier on a miss or a failure. Writes go to both
// tiers independently; a failure writing either tier is logged and
// swallowed, so a Redis outage degrades the cache instead of the
// request path.
type Tiered struct {
	primary  Store // Shared tier; may be nil when Redis is not configured
	fallback Store
}

// NewTiered builds a two-tier store. primary may be nil, in which case
// only the in-process tier is used.
func NewTiered(primary, fallback Store) *Tiered {
	return &Tiered{primary: primary, fallback: fallback}
}

// Get consults the primary tier first. On a primary miss or failure it
// falls through to the in-process tier; the failure never reaches the
// caller.
func (t *Tiered) Get(ctx context.Context, text string) ([]float32, bool, error) {
	if t.primary != nil {
		vector, ok, err := t.primary.Get(ctx, text)
		switch {
		case err != nil:
			logging.Ctx(ctx).Warn().Err(err).Str("tier", t.primary.Name()).Msg("shared cache read failed")
			metrics.CacheErrors.WithLabelValues(t.primary.Name(), "get").Inc()
		case ok:
			metrics.CacheHits.WithLabelValues(t.primary.Name()).Inc()
			return vector, true, nil
		default:
			metrics.CacheMisses.WithLabelValues(t.primary.Name()).Inc()
		}
	}

	vector, ok, err := t.fallback.Get(ctx, text)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("tier", t.fallback.Name()).Msg("cache read failed")
		metrics.CacheErrors.WithLabelValues(t.fallback.Name(), "get").Inc()
		return nil, false, nil
	}
	if !ok {
		metrics.CacheMisses.WithLabelValues(t.fallback.Name()).Inc()
		return nil, false, nil
	}
	metrics.CacheHits.WithLabelValues(t.fallback.Name()).Inc()
	return vector, true, nil
}

// Set writes to both tiers concurrently. Neither failure propagates: a
// broken tier must not fail the embedding that produced the vector.
func (t *Tiered) Set(ctx context.Context, text string, vector []float32) error {
	var wg sync.WaitGroup
	for _, tier := range []Store{t.primary, t.fallback} {
		if tier == nil {
			continue
		}
		wg.Add(1)
		go func(tier Store) {
			defer wg.Done()
			if err := tier.Set(ctx, text, vector); err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("tier", tier.Name()).Msg("cache write failed")
				metrics.CacheErrors.WithLabelValues(tier.Name(), "set").Inc()
			}
		}(tier)
	}
	wg.Wait()
	return nil
}

// Clear empties both tiers and returns the total entries removed. Both
// tiers are attempted even when one fails; the first failure is
// reported after both attempts.
func (t *Tiered) Clear(ctx context.Context) (int, error) {
	var (
		removed  int
		firstErr error
	)
	for _, tier := range []Store{t.primary, t.fallback} {
		if tier == nil {
			continue
		}
		n, err := tier.Clear(ctx)
		removed += n
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return removed, firstErr
}

// TierStats returns per-tier snapshots, primary first. A failing tier
// contributes an empty snapshot rather than failing the call.
func (t *Tiered) TierStats(ctx context.Context) []Stats {
	out := make([]Stats, 0, 2)
	for _, tier := range []Store{t.primary, t.fallback} {
		if tier == nil {
			continue
		}
		s, err := tier.Stats(ctx)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Str("tier", tier.Name()).Msg("cache stats failed")
			s = Stats{Tier: tier.Name()}
		}
		out = append(out, s)
	}
	return out
}

// Stats implements Store by aggregating both tiers.
func (t *Tiered) Stats(ctx context.Context) (Stats, error) {
	agg := Stats{Tier: t.Name()}
	for _, s := range t.TierStats(ctx) {
		agg.Entries += s.Entries
		agg.ApproxBytes += s.ApproxBytes
		agg.Hits += s.Hits
		agg.Misses += s.Misses
		agg.Evictions += s.Evictions
	}
	return agg, nil
}

// Name identifies the composed store.
func (t *Tiered) Name() string {
	return "tiered"
}
