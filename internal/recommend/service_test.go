// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/wonhongChang/jerrygram-recommend/internal/models"
)

// fakeSource is a scriptable PostSource.
type fakeSource struct {
	captions    []string
	captionsErr error

	candidates    []models.Post
	candidatesErr error
}

func (f *fakeSource) LikedCaptions(_ context.Context, _ string, _ int) ([]string, error) {
	return f.captions, f.captionsErr
}

func (f *fakeSource) CandidatePosts(_ context.Context, _ string, _ int) ([]models.Post, error) {
	return f.candidates, f.candidatesErr
}

func testService(source PostSource, emb Embedder) *Service {
	return NewService(source, NewEngine(emb, 10), ServiceConfig{
		MaxCandidatePosts: 100,
		MaxUserCaptions:   50,
	})
}

func TestServiceScoredPath(t *testing.T) {
	emb := newFakeEmbedder()
	emb.vectors["surf trip. beach day"] = []float32{1, 0}
	emb.vectors["waves at dawn"] = []float32{0.9, 0.1}
	emb.vectors["tax forms"] = []float32{0, 1}

	source := &fakeSource{
		captions: []string{"surf trip", "beach day"},
		candidates: []models.Post{
			post("boring", "tax forms"),
			post("surfy", "waves at dawn"),
		},
	}

	got, err := testService(source, emb).Recommend(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "surfy" {
		t.Errorf("top post = %s, want surfy", got[0].ID)
	}
	if got[0].Score == 0 {
		t.Error("scored path should produce nonzero scores")
	}
}

func TestServiceNoLikesFallsBackUnscored(t *testing.T) {
	emb := newFakeEmbedder()
	source := &fakeSource{
		captions: nil, // User has liked nothing
		candidates: []models.Post{
			post("newest", "a"),
			post("older", "b"),
		},
	}

	got, err := testService(source, emb).Recommend(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	// Unscored, repository (newest first) order preserved.
	if got[0].ID != "newest" || got[1].ID != "older" {
		t.Errorf("order = %s, %s; want newest, older", got[0].ID, got[1].ID)
	}
	for _, sp := range got {
		if sp.Score != 0 {
			t.Errorf("post %s score = %v, want 0 in fallback", sp.ID, sp.Score)
		}
	}
	if len(emb.calls) != 0 {
		t.Errorf("embedder called %d times without a signal, want 0", len(emb.calls))
	}
}

func TestServiceBlankCaptionsFallBack(t *testing.T) {
	emb := newFakeEmbedder()
	source := &fakeSource{
		captions:   []string{"", "   "},
		candidates: []models.Post{post("p1", "a")},
	}

	got, err := testService(source, emb).Recommend(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 1 || got[0].Score != 0 {
		t.Errorf("got %+v, want one unscored post", got)
	}
	if len(emb.calls) != 0 {
		t.Errorf("embedder called %d times without a signal, want 0", len(emb.calls))
	}
}

func TestServiceScoringFailureFallsBack(t *testing.T) {
	emb := newFakeEmbedder()
	emb.failTexts["surf trip"] = true // Signal embedding fails

	source := &fakeSource{
		captions:   []string{"surf trip"},
		candidates: []models.Post{post("p2", "b"), post("p1", "a")},
	}

	got, err := testService(source, emb).Recommend(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v, scoring failure must degrade not fail", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "p2" {
		t.Errorf("fallback must keep repository order, got %s first", got[0].ID)
	}
}

func TestServiceCaptionFetchFailureFallsBack(t *testing.T) {
	emb := newFakeEmbedder()
	source := &fakeSource{
		captionsErr: errors.New("query timeout"),
		candidates:  []models.Post{post("p1", "a")},
	}

	got, err := testService(source, emb).Recommend(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v, caption failure must degrade not fail", err)
	}
	if len(got) != 1 || got[0].Score != 0 {
		t.Errorf("got %+v, want one unscored post", got)
	}
}

func TestServiceCandidateFetchFailureIsFatal(t *testing.T) {
	emb := newFakeEmbedder()
	source := &fakeSource{
		captions:      []string{"surf trip"},
		candidatesErr: errors.New("connection refused"),
	}

	if _, err := testService(source, emb).Recommend(context.Background(), "user-1", 10); err == nil {
		t.Fatal("Recommend() should fail when candidates cannot be fetched")
	}
}

func TestServiceEmptyCandidates(t *testing.T) {
	emb := newFakeEmbedder()
	source := &fakeSource{captions: []string{"surf trip"}}

	got, err := testService(source, emb).Recommend(context.Background(), "user-1", 10)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if got == nil {
		t.Fatal("Recommend() = nil, want empty non-nil slice")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestServiceFallbackRespectsLimit(t *testing.T) {
	emb := newFakeEmbedder()
	source := &fakeSource{
		candidates: []models.Post{
			post("p1", "a"), post("p2", "b"), post("p3", "c"),
		},
	}

	got, err := testService(source, emb).Recommend(context.Background(), "user-1", 2)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
