// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package recommend

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/metrics"
	"github.com/wonhongChang/jerrygram-recommend/internal/models"
)

// Outcome modes recorded per recommendation.
const (
	ModeScored           = "scored"
	ModeFallbackNoSignal = "fallback_no_signal"
	ModeFallbackError    = "fallback_error"
)

// PostSource provides the data the service scores. Implemented by the
// repository layer.
type PostSource interface {
	// LikedCaptions returns the non-empty captions of posts the user
	// liked, most recently liked first.
	LikedCaptions(ctx context.Context, userID string, limit int) ([]string, error)

	// CandidatePosts returns public posts eligible for recommendation,
	// newest first, excluding the user's own posts.
	CandidatePosts(ctx context.Context, userID string, limit int) ([]models.Post, error)
}

// ServiceConfig bounds the data volume per recommendation.
type ServiceConfig struct {
	MaxCandidatePosts int
	MaxUserCaptions   int
}

// Service orchestrates a recommendation: fetch liked captions and
// candidates concurrently, build the taste signal, score, and fall
// back to unscored recency ordering when no signal exists or scoring
// fails. A user always gets posts back if candidates are readable.
type Service struct {
	source PostSource
	engine *Engine
	cfg    ServiceConfig
}

// NewService builds the orchestration service.
func NewService(source PostSource, engine *Engine, cfg ServiceConfig) *Service {
	return &Service{source: source, engine: engine, cfg: cfg}
}

// Recommend returns up to limit posts for the user, scored when a
// taste signal exists. A candidate fetch failure is the only
// unrecoverable error; everything else degrades to unscored posts.
func (s *Service) Recommend(ctx context.Context, userID string, limit int) ([]models.ScoredPost, error) {
	start := time.Now()

	var (
		captions   []string
		candidates []models.Post
		captionErr error
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// A caption fetch failure only loses the signal, not the
		// response, so it is captured instead of returned.
		captions, captionErr = s.source.LikedCaptions(gctx, userID, s.cfg.MaxUserCaptions)
		return nil
	})
	g.Go(func() error {
		var err error
		candidates, err = s.source.CandidatePosts(gctx, userID, s.cfg.MaxCandidatePosts)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(candidates) == 0 {
		metrics.RecordRecommendation(ModeScored, 0, time.Since(start))
		return []models.ScoredPost{}, nil
	}

	if captionErr != nil {
		logging.Ctx(ctx).Warn().Err(captionErr).Str("user_id", userID).
			Msg("liked captions unavailable, serving unscored posts")
		return s.fallback(ctx, ModeFallbackError, candidates, limit, start), nil
	}

	// No signal means the engine is never invoked: the unscored path
	// costs no embedding calls at all.
	signal, err := BuildSignal(captions)
	if err != nil {
		if !errors.Is(err, ErrEmptySignal) {
			return nil, err
		}
		logging.Ctx(ctx).Debug().Str("user_id", userID).
			Msg("no taste signal, serving unscored posts")
		return s.fallback(ctx, ModeFallbackNoSignal, candidates, limit, start), nil
	}

	scored, err := s.engine.Score(ctx, signal, candidates, limit)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		logging.Ctx(ctx).Warn().Err(err).Str("user_id", userID).
			Msg("scoring failed, serving unscored posts")
		return s.fallback(ctx, ModeFallbackError, candidates, limit, start), nil
	}

	metrics.RecordRecommendation(ModeScored, len(candidates), time.Since(start))
	return scored, nil
}

// fallback serves candidates unscored in their repository order,
// which is newest first.
func (s *Service) fallback(_ context.Context, mode string, candidates []models.Post, limit int, start time.Time) []models.ScoredPost {
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}
	metrics.RecordRecommendation(mode, 0, time.Since(start))
	return models.Unscored(candidates)
}
