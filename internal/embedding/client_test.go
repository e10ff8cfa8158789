// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package embedding

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/wonhongChang/jerrygram-recommend/internal/cache"
	"github.com/wonhongChang/jerrygram-recommend/internal/logging"
)

// fakeProvider returns canned vectors and counts calls.
type fakeProvider struct {
	calls   int
	err     error
	vectors map[string][]float32
}

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{1, 0, 0}, nil
}

func (f *fakeProvider) Dimensions() int { return 3 }

func (f *fakeProvider) ModelID() string { return "fake-model" }

func TestClientRejectsEmptyInput(t *testing.T) {
	client := NewClient(&fakeProvider{}, nil)

	for _, input := range []string{"", "   ", "\n\t "} {
		_, err := client.Embed(context.Background(), input)
		if !errors.Is(err, ErrInvalidInput) {
			t.Errorf("Embed(%q) error = %v, want ErrInvalidInput", input, err)
		}
	}
}

func TestClientRejectsOversizedInput(t *testing.T) {
	provider := &fakeProvider{}
	client := NewClient(provider, nil)

	_, err := client.Embed(context.Background(), strings.Repeat("a", MaxInputRunes+1))
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Embed() error = %v, want ErrInvalidInput", err)
	}
	if provider.calls != 0 {
		t.Errorf("provider called %d times for invalid input, want 0", provider.calls)
	}
}

func TestClientTrimsBeforeLookup(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	store := cache.NewMemory(time.Hour)
	client := NewClient(provider, store)

	if _, err := client.Embed(ctx, "sunset"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if _, err := client.Embed(ctx, "  sunset  \n"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (trimmed text should share a cache entry)", provider.calls)
	}
}

func TestClientCacheHitSkipsProvider(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{vectors: map[string][]float32{"beach": {0, 1, 0}}}
	store := cache.NewMemory(time.Hour)
	client := NewClient(provider, store)

	first, err := client.Embed(ctx, "beach")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	second, err := client.Embed(ctx, "beach")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1", provider.calls)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("cached vector differs at %d: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestClientNoNegativeCaching(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{err: ErrProviderUnavailable}
	store := cache.NewMemory(time.Hour)
	client := NewClient(provider, store)

	if _, err := client.Embed(ctx, "caption"); !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("Embed() error = %v, want ErrProviderUnavailable", err)
	}

	// Provider recovers; the failure must not have been cached.
	provider.err = nil
	if _, err := client.Embed(ctx, "caption"); err != nil {
		t.Fatalf("Embed() after recovery error = %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2", provider.calls)
	}

	stats, _ := store.Stats(ctx)
	if stats.Entries != 1 {
		t.Errorf("cache entries = %d, want 1 (only the success)", stats.Entries)
	}
}

func TestClientWithoutCache(t *testing.T) {
	ctx := context.Background()
	provider := &fakeProvider{}
	client := NewClient(provider, nil)

	if _, err := client.Embed(ctx, "caption"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if _, err := client.Embed(ctx, "caption"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if provider.calls != 2 {
		t.Errorf("provider calls = %d, want 2 with caching disabled", provider.calls)
	}
}

func TestRateLimitedPassthrough(t *testing.T) {
	provider := &fakeProvider{}
	limited := NewRateLimited(provider, 100, 5)

	if _, err := limited.Embed(context.Background(), "caption"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if limited.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", limited.Dimensions())
	}
	if limited.ModelID() != "fake-model" {
		t.Errorf("ModelID() = %q, want fake-model", limited.ModelID())
	}
}

func TestRateLimitedHonorsContext(t *testing.T) {
	provider := &fakeProvider{}
	// One request per hour; the second call must block and be cancelled.
	limited := NewRateLimited(provider, 1.0/3600, 1)

	if _, err := limited.Embed(context.Background(), "first"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := limited.Embed(ctx, "second")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("Embed() error = %v, want ErrProviderUnavailable on cancelled wait", err)
	}
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	provider := &fakeProvider{err: errors.New("upstream down")}
	breaker := NewBreaker(provider, time.Minute)

	for i := 0; i < breakerFailureThreshold; i++ {
		if _, err := breaker.Embed(context.Background(), "caption"); err == nil {
			t.Fatal("Embed() should fail while provider is down")
		}
	}

	// Breaker is now open; the provider must not be called again.
	before := provider.calls
	_, err := breaker.Embed(context.Background(), "caption")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("Embed() error = %v, want ErrProviderUnavailable when open", err)
	}
	if provider.calls != before {
		t.Errorf("provider called while breaker open")
	}
}

func TestBreakerLogsStateChange(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	defer logging.SetLogger(prev)

	provider := &fakeProvider{err: errors.New("upstream down")}
	breaker := NewBreaker(provider, time.Minute)

	for i := 0; i < breakerFailureThreshold; i++ {
		breaker.Embed(context.Background(), "caption")
	}

	if !strings.Contains(buf.String(), "circuit breaker state change") {
		t.Errorf("log output %q missing state change entry", buf.String())
	}
}

func TestBreakerPassesThroughWhenHealthy(t *testing.T) {
	provider := &fakeProvider{}
	breaker := NewBreaker(provider, time.Minute)

	vector, err := breaker.Embed(context.Background(), "caption")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if len(vector) != 3 {
		t.Errorf("got %d dims, want 3", len(vector))
	}
}
