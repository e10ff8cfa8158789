// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package embedding

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/metrics"
)

// breakerFailureThreshold is the consecutive failure count that trips
// the breaker open.
const breakerFailureThreshold = 5

// Breaker wraps a Provider with a circuit breaker. After repeated
// provider failures the breaker opens and Embed fails fast with
// ErrProviderUnavailable instead of burning a timeout per call.
type Breaker struct {
	inner Provider
	cb    *gobreaker.CircuitBreaker[[]float32]
}

// NewBreaker builds the breaker decorator. timeout is how long the
// breaker stays open before probing the provider again.
func NewBreaker(inner Provider, timeout time.Duration) *Breaker {
	settings := gobreaker.Settings{
		Name:        "embedding-provider",
		MaxRequests: 1,
		Timeout:     timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state change")
			metrics.SetBreakerOpen(to == gobreaker.StateOpen)
		},
	}

	return &Breaker{
		inner: inner,
		cb:    gobreaker.NewCircuitBreaker[[]float32](settings),
	}
}

func (b *Breaker) Embed(ctx context.Context, text string) ([]float32, error) {
	vector, err := b.cb.Execute(func() ([]float32, error) {
		return b.inner.Embed(ctx, text)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: circuit open", ErrProviderUnavailable)
		}
		return nil, err
	}
	return vector, nil
}

func (b *Breaker) Dimensions() int {
	return b.inner.Dimensions()
}

func (b *Breaker) ModelID() string {
	return b.inner.ModelID()
}
