package cache

import (
	"context"
	"testing"

	"github.com/fathomhq/mediacore/pkg/tenant"
)

type fakeEmbedder struct {
	vectors map[string][]float32
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 1}, nil
}

func TestSemanticCacheHitsWithinThreshold(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"what is the capital of france":   {1, 0, 0},
		"capital city of france, please?": {0.99, 0.01, 0},
	}}
	sc := NewSemanticCache(embedder, 0.9, 10)
	ctx := tenant.With(context.Background(), tenant.Scope{Tenant: "acme", Workspace: "default"})

	if err := sc.Store(ctx, "what is the capital of france", []byte("Paris")); err != nil {
		t.Fatalf("store: %v", err)
	}

	got, ok, err := sc.Lookup(ctx, "capital city of france, please?")
	if err != nil || !ok || string(got) != "Paris" {
		t.Fatalf("expected near-duplicate prompt hit, got ok=%v got=%s err=%v", ok, got, err)
	}
}

func TestSemanticCacheMissesBelowThreshold(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float32{
		"what is the capital of france": {1, 0, 0},
		"unrelated question":            {0, 1, 0},
	}}
	sc := NewSemanticCache(embedder, 0.9, 10)
	ctx := tenant.With(context.Background(), tenant.Scope{Tenant: "acme", Workspace: "default"})

	sc.Store(ctx, "what is the capital of france", []byte("Paris"))

	_, ok, err := sc.Lookup(ctx, "unrelated question")
	if err != nil || ok {
		t.Fatalf("expected a miss for an unrelated prompt, got ok=%v err=%v", ok, err)
	}
}
