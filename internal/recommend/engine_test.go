// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package recommend

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/wonhongChang/jerrygram-recommend/internal/models"
)

// fakeEmbedder maps texts to fixed vectors and tracks concurrency.
type fakeEmbedder struct {
	mu         sync.Mutex
	vectors    map[string][]float32
	failTexts  map[string]bool
	calls      []string
	inFlight   int
	maxInFlght int
	block      chan struct{} // When set, Embed waits on it
}

func newFakeEmbedder() *fakeEmbedder {
	return &fakeEmbedder{
		vectors:   make(map[string][]float32),
		failTexts: make(map[string]bool),
	}
}

func (f *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.inFlight++
	if f.inFlight > f.maxInFlght {
		f.maxInFlght = f.inFlight
	}
	block := f.block
	f.mu.Unlock()

	if block != nil {
		<-block
	}

	f.mu.Lock()
	f.inFlight--
	fail := f.failTexts[text]
	vec, ok := f.vectors[text]
	f.mu.Unlock()

	if fail {
		return nil, errors.New("embedding failed")
	}
	if !ok {
		return []float32{0, 0, 1}, nil
	}
	return vec, nil
}

func (f *fakeEmbedder) callCount(text string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == text {
			n++
		}
	}
	return n
}

func post(id, caption string) models.Post {
	return models.Post{ID: id, Caption: caption}
}

func TestBuildSignal(t *testing.T) {
	signal, err := BuildSignal([]string{"sunset at the beach", "", "  ", "coffee art"})
	if err != nil {
		t.Fatalf("BuildSignal() error = %v", err)
	}
	want := "sunset at the beach. coffee art"
	if signal != want {
		t.Errorf("BuildSignal() = %q, want %q", signal, want)
	}
}

func TestBuildSignalEmpty(t *testing.T) {
	for _, captions := range [][]string{nil, {}, {"", "  ", "\t"}} {
		if _, err := BuildSignal(captions); !errors.Is(err, ErrEmptySignal) {
			t.Errorf("BuildSignal(%q) error = %v, want ErrEmptySignal", captions, err)
		}
	}
}

func TestScoreRanksBySimilarity(t *testing.T) {
	emb := newFakeEmbedder()
	emb.vectors["beach holidays"] = []float32{1, 0, 0}
	emb.vectors["sunset on the beach"] = []float32{0.9, 0.1, 0}
	emb.vectors["city traffic"] = []float32{0, 1, 0}
	emb.vectors["beach bar"] = []float32{0.7, 0.3, 0}

	engine := NewEngine(emb, 10)
	candidates := []models.Post{
		post("p1", "city traffic"),
		post("p2", "sunset on the beach"),
		post("p3", "beach bar"),
	}

	got, err := engine.Score(context.Background(), "beach holidays", candidates, 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	wantOrder := []string{"p2", "p3", "p1"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("rank %d = %s, want %s (scores: %v %v %v)",
				i, got[i].ID, want, got[0].Score, got[1].Score, got[2].Score)
		}
	}
	if got[0].Score <= got[1].Score || got[1].Score <= got[2].Score {
		t.Errorf("scores not descending: %v %v %v", got[0].Score, got[1].Score, got[2].Score)
	}
}

func TestScoreTruncatesToLimit(t *testing.T) {
	emb := newFakeEmbedder()
	engine := NewEngine(emb, 10)

	candidates := make([]models.Post, 25)
	for i := range candidates {
		candidates[i] = post(string(rune('a'+i)), "some caption")
	}

	got, err := engine.Score(context.Background(), "signal", candidates, 5)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestScoreEmptyCaptionScoresZeroWithoutCall(t *testing.T) {
	emb := newFakeEmbedder()
	emb.vectors["signal"] = []float32{1, 0, 0}
	emb.vectors["beach"] = []float32{1, 0, 0}

	engine := NewEngine(emb, 10)
	candidates := []models.Post{
		post("empty", ""),
		post("blank", "   "),
		post("real", "beach"),
	}

	got, err := engine.Score(context.Background(), "signal", candidates, 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	if got[0].ID != "real" {
		t.Errorf("top post = %s, want real", got[0].ID)
	}
	for _, sp := range got[1:] {
		if sp.Score != 0 {
			t.Errorf("post %s score = %v, want 0", sp.ID, sp.Score)
		}
	}
	if emb.callCount("") != 0 || emb.callCount("   ") != 0 {
		t.Error("blank captions should not reach the embedder")
	}
}

func TestScoreFailedCandidateScoresZero(t *testing.T) {
	emb := newFakeEmbedder()
	emb.vectors["signal"] = []float32{1, 0}
	emb.vectors["good"] = []float32{1, 0}
	emb.failTexts["bad"] = true

	engine := NewEngine(emb, 10)
	candidates := []models.Post{post("p1", "bad"), post("p2", "good")}

	got, err := engine.Score(context.Background(), "signal", candidates, 10)
	if err != nil {
		t.Fatalf("Score() error = %v, per-candidate failures must not fail the batch", err)
	}
	if got[0].ID != "p2" {
		t.Errorf("top post = %s, want p2", got[0].ID)
	}
	if got[1].Score != 0 {
		t.Errorf("failed candidate score = %v, want 0", got[1].Score)
	}
}

func TestRecommendEmptySignal(t *testing.T) {
	emb := newFakeEmbedder()
	engine := NewEngine(emb, 10)

	_, err := engine.Recommend(context.Background(), []string{"", "  "}, []models.Post{post("p1", "x")}, 10)
	if !errors.Is(err, ErrEmptySignal) {
		t.Fatalf("Recommend() error = %v, want ErrEmptySignal", err)
	}
	if len(emb.calls) != 0 {
		t.Error("an empty signal should not reach the embedder")
	}
}

func TestRecommendEmptyCandidates(t *testing.T) {
	emb := newFakeEmbedder()
	engine := NewEngine(emb, 10)

	_, err := engine.Recommend(context.Background(), []string{"beach"}, nil, 10)
	if !errors.Is(err, ErrEmptyCandidateSet) {
		t.Fatalf("Recommend() error = %v, want ErrEmptyCandidateSet", err)
	}
}

func TestRecommendEmbedsJoinedSignalOnce(t *testing.T) {
	emb := newFakeEmbedder()
	engine := NewEngine(emb, 10)

	captions := []string{"sunset at the beach", "coffee art"}
	candidates := []models.Post{post("p1", "beach bar"), post("p2", "city traffic")}

	if _, err := engine.Recommend(context.Background(), captions, candidates, 10); err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if n := emb.callCount("sunset at the beach. coffee art"); n != 1 {
		t.Errorf("signal embedded %d times, want exactly 1", n)
	}
}

func TestScoreEmptyCandidates(t *testing.T) {
	emb := newFakeEmbedder()
	engine := NewEngine(emb, 10)

	if _, err := engine.Score(context.Background(), "signal", nil, 10); !errors.Is(err, ErrEmptyCandidateSet) {
		t.Fatalf("Score() error = %v, want ErrEmptyCandidateSet", err)
	}
	if len(emb.calls) != 0 {
		t.Error("an empty candidate set should not reach the embedder")
	}
}

func TestScoreSignalFailurePropagates(t *testing.T) {
	emb := newFakeEmbedder()
	emb.failTexts["signal"] = true

	engine := NewEngine(emb, 10)
	_, err := engine.Score(context.Background(), "signal", []models.Post{post("p1", "x")}, 10)
	if err == nil {
		t.Fatal("Score() should fail when the signal embedding fails")
	}
}

func TestScoreBoundsConcurrency(t *testing.T) {
	emb := newFakeEmbedder()
	engine := NewEngine(emb, 4)

	candidates := make([]models.Post, 12)
	for i := range candidates {
		candidates[i] = post(string(rune('a'+i)), "caption text")
	}

	if _, err := engine.Score(context.Background(), "signal", candidates, 12); err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	// The signal embed runs alone; candidate batches cap at batchSize.
	if emb.maxInFlght > 4 {
		t.Errorf("max in-flight embeds = %d, want <= 4", emb.maxInFlght)
	}
}

func TestScoreStableTiebreakKeepsInputOrder(t *testing.T) {
	emb := newFakeEmbedder()
	// All candidates identical, so every score ties.
	engine := NewEngine(emb, 10)
	candidates := []models.Post{
		post("newest", "same caption"),
		post("middle", "same caption"),
		post("oldest", "same caption"),
	}

	got, err := engine.Score(context.Background(), "signal", candidates, 10)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}

	wantOrder := []string{"newest", "middle", "oldest"}
	for i, want := range wantOrder {
		if got[i].ID != want {
			t.Errorf("rank %d = %s, want %s (ties must keep input order)", i, got[i].ID, want)
		}
	}
}

func TestScoreHonorsContextBetweenBatches(t *testing.T) {
	emb := newFakeEmbedder()
	engine := NewEngine(emb, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Score(ctx, "signal", []models.Post{post("p1", "x")}, 10)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Score() error = %v, want context.Canceled", err)
	}
}
