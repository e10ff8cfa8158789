// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package recommend

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
	"github.com/wonhongChang/jerrygram-recommend/internal/models"
)

var (
	// ErrEmptySignal is returned when no usable caption text remains
	// after filtering, so no taste signal can be built.
	ErrEmptySignal = errors.New("recommend: empty taste signal")

	// ErrEmptyCandidateSet is returned when Score is called with
	// nothing to rank. Callers are expected to branch to the
	// non-personalized path before reaching the engine.
	ErrEmptyCandidateSet = errors.New("recommend: empty candidate set")
)

// DefaultBatchSize is how many candidate embeddings are fetched
// concurrently per batch.
const DefaultBatchSize = 10

// Embedder is the subset of the embedding client the engine needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Engine scores candidate posts against a taste signal.
type Engine struct {
	embedder  Embedder
	batchSize int
}

// NewEngine builds a scoring engine. batchSize values below 1 fall
// back to DefaultBatchSize.
func NewEngine(embedder Embedder, batchSize int) *Engine {
	if batchSize < 1 {
		batchSize = DefaultBatchSize
	}
	return &Engine{embedder: embedder, batchSize: batchSize}
}

// BuildSignal joins liked captions into a single taste signal text.
// Blank captions are dropped. Returns ErrEmptySignal when nothing
// usable remains.
func BuildSignal(captions []string) (string, error) {
	parts := make([]string, 0, len(captions))
	for _, c := range captions {
		c = strings.TrimSpace(c)
		if c != "" {
			parts = append(parts, c)
		}
	}
	if len(parts) == 0 {
		return "", ErrEmptySignal
	}
	return strings.Join(parts, ". "), nil
}

// Recommend builds the taste signal from the user's liked captions and
// ranks candidates against it. Both preconditions fail with typed
// errors before any embedding call, so callers can branch to the
// unscored path cheaply.
func (e *Engine) Recommend(ctx context.Context, captions []string, candidates []models.Post, limit int) ([]models.ScoredPost, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyCandidateSet
	}
	signal, err := BuildSignal(captions)
	if err != nil {
		return nil, err
	}
	return e.Score(ctx, signal, candidates, limit)
}

// Score ranks candidates by cosine similarity to the taste signal and
// returns the top limit posts, most similar first. Candidates with a
// blank caption score 0 without an embedding call, as does any
// candidate whose embedding fails. Equal scores keep the candidates'
// input order, so the newest-first ordering from the repository
// survives as the tiebreak.
func (e *Engine) Score(ctx context.Context, signal string, candidates []models.Post, limit int) ([]models.ScoredPost, error) {
	if len(candidates) == 0 {
		return nil, ErrEmptyCandidateSet
	}

	signalVec, err := e.embedder.Embed(ctx, signal)
	if err != nil {
		return nil, err
	}

	scored := make([]models.ScoredPost, len(candidates))
	for i, post := range candidates {
		scored[i] = models.ScoredPost{Post: post}
	}

	// Batches run sequentially; candidates within a batch embed
	// concurrently. This bounds in-flight provider calls without a
	// shared worker pool.
	for start := 0; start < len(scored); start += e.batchSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		end := start + e.batchSize
		if end > len(scored) {
			end = len(scored)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			caption := strings.TrimSpace(scored[i].Caption)
			if caption == "" {
				continue
			}

			wg.Add(1)
			go func(i int, caption string) {
				defer wg.Done()

				vec, err := e.embedder.Embed(ctx, caption)
				if err != nil {
					logging.Ctx(ctx).Debug().Err(err).
						Str("post_id", scored[i].ID).
						Msg("candidate embedding failed, scoring 0")
					return
				}

				score, err := CosineSimilarity(signalVec, vec)
				if err != nil {
					logging.Ctx(ctx).Warn().Err(err).
						Str("post_id", scored[i].ID).
						Msg("candidate similarity failed, scoring 0")
					return
				}
				scored[i].Score = score
			}(i, caption)
		}
		wg.Wait()
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
