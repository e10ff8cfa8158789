// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package recommend computes semantic post recommendations. The
// Engine scores candidate posts against a taste signal derived from
// the captions of posts a user liked; the Service orchestrates data
// fetching, scoring, and fallback behavior.
package recommend

import (
	"errors"
	"fmt"
	"math"
)

// ErrDimensionMismatch is returned when two vectors of different
// lengths are compared.
var ErrDimensionMismatch = errors.New("recommend: vector dimension mismatch")

// CosineSimilarity returns the cosine of the angle between a and b in
// [-1, 1]. A zero-norm vector has no direction, so any comparison
// involving one returns 0 rather than NaN.
func CosineSimilarity(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}

	var dot, normA, normB float64
	for i := range a {
		av := float64(a[i])
		bv := float64(b[i])
		dot += av * bv
		normA += av * av
		normB += bv * bv
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
