// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package models defines the data types shared across the recommendation
// service: candidate posts, their authors, scored results, and the API error
// envelope.
package models

import "time"

// Author is the public projection of the user who created a post.
type Author struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	ProfileImageURL string `json:"profileImageUrl,omitempty"`
}

// Post is a candidate item supplied by the post store. It is read-only to
// the recommendation pipeline; scoring produces ScoredPost values instead of
// mutating posts in place.
//
// A post with an empty caption has no embeddable content and always scores 0.
type Post struct {
	ID        string    `json:"id"`
	Caption   string    `json:"caption,omitempty"`
	ImageURL  string    `json:"imageUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Likes     int       `json:"likes"`
	Author    Author    `json:"user"`
}

// ScoredPost is a Post plus a similarity score from one ranking pass.
// Score is only meaningful within a single request and is omitted from the
// JSON representation when no scoring occurred (fallback path) or the score
// is zero, matching the public API contract.
type ScoredPost struct {
	Post
	Score float64 `json:"score,omitempty"`
}

// Unscored wraps posts as ScoredPosts without a score, for the
// non-personalized fallback path.
func Unscored(posts []Post) []ScoredPost {
	out := make([]ScoredPost, len(posts))
	for i, p := range posts {
		out[i] = ScoredPost{Post: p}
	}
	return out
}
