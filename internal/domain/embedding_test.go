package domain

import (
	"context"
	"errors"
	"testing"
)

type stubEmbedder struct {
	result EmbeddingResult
	err    error
	got    string
}

func (s *stubEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	s.got = text
	return s.result, s.err
}

type stubHealthyEmbedder struct {
	stubEmbedder
	healthErr error
}

func (s *stubHealthyEmbedder) HealthCheck(_ context.Context) error { return s.healthErr }

func TestDimensionGuard_PassesMatchingVector(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2, 0.3}, TotalTokens: 4}}
	g := NewDimensionGuard(inner, 3)

	res, err := g.Embed(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.got != "hello" {
		t.Errorf("expected text to pass through, got %q", inner.got)
	}
	if res.TotalTokens != 4 {
		t.Errorf("expected usage to pass through, got %d", res.TotalTokens)
	}
}

func TestDimensionGuard_RejectsMismatch(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{0.1, 0.2}}}
	g := NewDimensionGuard(inner, 3)

	_, err := g.Embed(context.Background(), "hello")
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
}

func TestDimensionGuard_DisabledWhenZero(t *testing.T) {
	inner := &stubEmbedder{result: EmbeddingResult{Embedding: []float32{1}}}
	g := NewDimensionGuard(inner, 0)

	if _, err := g.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDimensionGuard_ErrorPropagation(t *testing.T) {
	innerErr := errors.New("provider down")
	g := NewDimensionGuard(&stubEmbedder{err: innerErr}, 3)

	_, err := g.Embed(context.Background(), "hello")
	if !errors.Is(err, innerErr) {
		t.Errorf("expected wrapped inner error, got %v", err)
	}
}

func TestDimensionGuard_HealthCheck(t *testing.T) {
	hcErr := errors.New("unreachable")
	g := NewDimensionGuard(&stubHealthyEmbedder{healthErr: hcErr}, 3)
	if err := g.HealthCheck(context.Background()); !errors.Is(err, hcErr) {
		t.Errorf("expected health error, got %v", err)
	}

	plain := NewDimensionGuard(&stubEmbedder{}, 3)
	if err := plain.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected nil for embedder without health check, got %v", err)
	}
}
