package domain

import (
	"context"
	"fmt"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// DimensionGuard rejects embeddings whose length differs from the collection dimension.
type DimensionGuard struct {
	inner      Embedder
	dimensions int
}

// NewDimensionGuard wraps inner. dimensions <= 0 disables the check.
func NewDimensionGuard(inner Embedder, dimensions int) *DimensionGuard {
	return &DimensionGuard{inner: inner, dimensions: dimensions}
}

// Embed delegates to the inner embedder and validates the vector length.
func (g *DimensionGuard) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	res, err := g.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("guarded embed: %w", err)
	}
	if g.dimensions > 0 && len(res.Embedding) != g.dimensions {
		return EmbeddingResult{}, fmt.Errorf("got %d, want %d: %w",
			len(res.Embedding), g.dimensions, ErrDimensionMismatch)
	}
	return res, nil
}

// HealthCheck proxies to the inner embedder when it supports health checks.
func (g *DimensionGuard) HealthCheck(ctx context.Context) error {
	if hc, ok := g.inner.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}
