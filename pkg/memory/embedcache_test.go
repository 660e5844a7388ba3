package memory

import (
	"context"
	"testing"
)

type countingEmbedder struct{ calls int }

func (c *countingEmbedder) Model() string { return "test-model" }

func (c *countingEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	c.calls++
	return []float32{1, 2, 3}, nil
}

func TestEmbeddingCacheDeduplicatesIdenticalText(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewEmbeddingCache(inner)
	ctx := context.Background()

	v1, err := cached.Embed(ctx, "hello", "test-model")
	if err != nil {
		t.Fatalf("embed 1: %v", err)
	}
	v2, err := cached.Embed(ctx, "hello", "test-model")
	if err != nil {
		t.Fatalf("embed 2: %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected one underlying call, got %d", inner.calls)
	}
	if len(v1) != len(v2) || v1[0] != v2[0] {
		t.Fatalf("expected identical cached vectors, got %v vs %v", v1, v2)
	}
}

func TestEmbeddingCacheDistinguishesByModel(t *testing.T) {
	inner := &countingEmbedder{}
	cached := NewEmbeddingCache(inner)
	ctx := context.Background()

	cached.Embed(ctx, "hello", "model-a")
	cached.Embed(ctx, "hello", "model-b")
	if inner.calls != 2 {
		t.Fatalf("expected distinct cache entries per model, got %d calls", inner.calls)
	}
}
