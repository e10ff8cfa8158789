// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package embedding turns text into vectors. A Provider performs the
// actual model call; decorators add rate limiting and circuit
// breaking; Client fronts a Provider with the cache tiers.
package embedding

import "context"

// Provider computes an embedding vector for a single text.
// Implementations must be safe for concurrent use.
type Provider interface {
	// Embed returns the vector for text. The input is assumed to be
	// validated by the caller; providers do not trim or reject.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the vector length this provider produces.
	Dimensions() int

	// ModelID identifies the underlying model for logs and metrics.
	ModelID() string
}
