// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package embedding

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// RateLimited wraps a Provider with a client-side token bucket so
// batch scoring cannot exceed the upstream quota. Embed blocks until a
// token is available or the context is done.
type RateLimited struct {
	inner   Provider
	limiter *rate.Limiter
}

// NewRateLimited caps calls to inner at rps requests per second with
// the given burst.
func NewRateLimited(inner Provider, rps float64, burst int) *RateLimited {
	if burst < 1 {
		burst = 1
	}
	return &RateLimited{
		inner:   inner,
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (r *RateLimited) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limiter: %v", ErrProviderUnavailable, err)
	}
	return r.inner.Embed(ctx, text)
}

func (r *RateLimited) Dimensions() int {
	return r.inner.Dimensions()
}

func (r *RateLimited) ModelID() string {
	return r.inner.ModelID()
}
