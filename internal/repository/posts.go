// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

// Package repository reads posts and likes from the main Jerrygram
// PostgreSQL database. Table and column names are quoted because the
// schema is owned by the primary application, which creates them
// case-sensitively.
package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonhongChang/jerrygram-recommend/internal/metrics"
	"github.com/wonhongChang/jerrygram-recommend/internal/models"
)

// visibilityPublic is the Visibility value for publicly listed posts.
const visibilityPublic = 0

// Posts reads post data from the shared database. All queries are
// read-only; this service never writes to the main schema.
type Posts struct {
	pool *pgxpool.Pool
}

// NewPosts wraps a pgx pool. The pool is owned and closed by the caller.
func NewPosts(pool *pgxpool.Pool) *Posts {
	return &Posts{pool: pool}
}

const likedCaptionsQuery = `
SELECT p."Caption"
FROM "PostLikes" pl
JOIN "Posts" p ON p."Id" = pl."PostId"
WHERE pl."UserId" = $1
  AND p."Caption" IS NOT NULL
  AND btrim(p."Caption") <> ''
ORDER BY pl."CreatedAt" DESC
LIMIT $2`

// LikedCaptions returns the captions of posts the user liked, most
// recently liked first. Posts without a usable caption are filtered
// in the query so they never count against the limit.
func (r *Posts) LikedCaptions(ctx context.Context, userID string, limit int) ([]string, error) {
	start := time.Now()

	rows, err := r.pool.Query(ctx, likedCaptionsQuery, userID, limit)
	metrics.RecordDBQuery("liked_captions", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query liked captions: %w", err)
	}
	defer rows.Close()

	captions, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		metrics.DBQueryErrors.WithLabelValues("liked_captions").Inc()
		return nil, fmt.Errorf("scan liked captions: %w", err)
	}
	return captions, nil
}

const candidatePostsQuery = `
SELECT
	p."Id",
	COALESCE(p."Caption", ''),
	p."ImageUrl",
	p."CreatedAt",
	COUNT(pl."Id") AS like_count,
	u."Id",
	u."Username",
	COALESCE(u."ProfileImageUrl", '')
FROM "Posts" p
JOIN "Users" u ON u."Id" = p."UserId"
LEFT JOIN "PostLikes" pl ON pl."PostId" = p."Id"
WHERE p."Visibility" = $1
  AND p."UserId" <> $2
GROUP BY p."Id", p."Caption", p."ImageUrl", p."CreatedAt", u."Id", u."Username", u."ProfileImageUrl"
ORDER BY p."CreatedAt" DESC
LIMIT $3`

// CandidatePosts returns public posts eligible for recommendation,
// newest first. The user's own posts are excluded; like counts and
// author info ride along so responses need no second query.
func (r *Posts) CandidatePosts(ctx context.Context, userID string, limit int) ([]models.Post, error) {
	start := time.Now()

	rows, err := r.pool.Query(ctx, candidatePostsQuery, visibilityPublic, userID, limit)
	metrics.RecordDBQuery("candidate_posts", time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("query candidate posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		var p models.Post
		if err := rows.Scan(
			&p.ID,
			&p.Caption,
			&p.ImageURL,
			&p.CreatedAt,
			&p.Likes,
			&p.Author.ID,
			&p.Author.Username,
			&p.Author.ProfileImageURL,
		); err != nil {
			metrics.DBQueryErrors.WithLabelValues("candidate_posts").Inc()
			return nil, fmt.Errorf("scan candidate post: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		metrics.DBQueryErrors.WithLabelValues("candidate_posts").Inc()
		return nil, fmt.Errorf("iterate candidate posts: %w", err)
	}

	return posts, nil
}

// Ping verifies database connectivity for health checks.
func (r *Posts) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
