// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package api

// RecommendRequest carries the validated parameters of a
// recommendation request. Limit is clamped into range before
// validation, so the tags only guard against handler bugs.
type RecommendRequest struct {
	UserID string `validate:"required"`
	Limit  int    `validate:"min=1,max=50"`
}
