// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package embedding

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/wonhongChang/jerrygram-recommend/internal/cache"
	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
)

// MaxInputRunes bounds the text accepted by the client. Longer inputs
// would be truncated server-side by the model anyway, which silently
// changes what the cache key means, so they are rejected instead.
const MaxInputRunes = 8192

// Client fronts a Provider with the cache tiers. Lookups and stores
// use the exact trimmed text as the key, so any textual difference is
// a different cache entry.
type Client struct {
	provider Provider
	store    cache.Store // nil when caching is disabled
}

// NewClient builds a cache-consulting embedding client. store may be
// nil to disable caching entirely.
func NewClient(provider Provider, store cache.Store) *Client {
	return &Client{provider: provider, store: store}
}

// Embed returns the vector for text, consulting the cache first.
// The input is trimmed before any validation or lookup. Failed
// provider calls are never cached.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}
	if utf8.RuneCountInString(text) > MaxInputRunes {
		return nil, fmt.Errorf("%w: text exceeds %d characters", ErrInvalidInput, MaxInputRunes)
	}

	if c.store != nil {
		vector, ok, err := c.store.Get(ctx, text)
		if err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("embedding cache read failed")
		} else if ok {
			return vector, nil
		}
	}

	vector, err := c.provider.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.Set(ctx, text, vector); err != nil {
			logging.Ctx(ctx).Warn().Err(err).Msg("embedding cache write failed")
		}
	}

	return vector, nil
}

// Dimensions returns the provider's vector length.
func (c *Client) Dimensions() int {
	return c.provider.Dimensions()
}

// ModelID returns the provider's model name.
func (c *Client) ModelID() string {
	return c.provider.ModelID()
}
