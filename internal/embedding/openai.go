// Jerrygram Recommend - Semantic Post Recommendation Service
// Copyright 2026 Wonhong Chang (wonhongChang)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wonhongChang/jerrygram-recommend

package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/wonhongChang/jerrygram-recommend/internal/metrics"
)

// modelDimensions maps supported embedding models to their vector size.
var modelDimensions = map[string]int{
	string(openai.SmallEmbedding3): 1536,
	string(openai.LargeEmbedding3): 3072,
	string(openai.AdaEmbeddingV2):  1536,
}

// OpenAIProvider computes embeddings via the OpenAI embeddings API.
type OpenAIProvider struct {
	client     *openai.Client
	model      openai.EmbeddingModel
	dimensions int
}

// NewOpenAIProvider builds a provider for the given model. The model
// must be one of the known embedding models.
func NewOpenAIProvider(apiKey, model string, timeout time.Duration) (*OpenAIProvider, error) {
	dims, ok := modelDimensions[model]
	if !ok {
		return nil, fmt.Errorf("unsupported embedding model %q", model)
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAIProvider{
		client:     openai.NewClientWithConfig(cfg),
		model:      openai.EmbeddingModel(model),
		dimensions: dims,
	}, nil
}

// Embed performs one embeddings API round trip.
func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()

	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: p.model,
	})
	metrics.RecordEmbeddingRequest(p.ModelID(), time.Since(start), err)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrProviderUnavailable)
	}

	vector := resp.Data[0].Embedding
	if len(vector) != p.dimensions {
		return nil, fmt.Errorf("%w: got %d dimensions, want %d",
			ErrProviderUnavailable, len(vector), p.dimensions)
	}

	return vector, nil
}

// Dimensions returns the vector length for the configured model.
func (p *OpenAIProvider) Dimensions() int {
	return p.dimensions
}

// ModelID returns the configured model name.
func (p *OpenAIProvider) ModelID() string {
	return string(p.model)
}
