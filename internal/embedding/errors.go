// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package embedding

import "errors"

var (
	// ErrInvalidInput is returned for empty or oversized input text.
	ErrInvalidInput = errors.New("embedding: invalid input text")

	// ErrProviderUnavailable is returned when the provider cannot be
	// reached, is rate limited away, or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("embedding: provider unavailable")
)
