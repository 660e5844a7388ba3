package cache

import (
	"context"
	"math"
	"sync"

	"github.com/fathomhq/mediacore/pkg/tenant"
)

// Embedder is the narrow dependency the semantic cache needs from C4's
// embedding adapter — just enough to turn text into a comparable vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// semanticEntry pairs a cached completion with the embedding of the prompt
// that produced it.
type semanticEntry struct {
	embedding  []float32
	completion []byte
}

// SemanticCache maps a prompt embedding to a cached completion within a
// cosine-similarity threshold. Disabled by default per spec; when enabled it
// sits in front of the exact-match Cache as an additional lookup.
type SemanticCache struct {
	mu        sync.RWMutex
	embedder  Embedder
	threshold float64
	byTenant  map[string][]semanticEntry
	maxPerTenant int
}

// NewSemanticCache builds a semantic cache. threshold is the minimum cosine
// similarity for a hit (spec's semantic_similarity_threshold).
func NewSemanticCache(embedder Embedder, threshold float64, maxPerTenant int) *SemanticCache {
	if maxPerTenant <= 0 {
		maxPerTenant = 512
	}
	return &SemanticCache{
		embedder:     embedder,
		threshold:    threshold,
		byTenant:     make(map[string][]semanticEntry),
		maxPerTenant: maxPerTenant,
	}
}

// Lookup embeds prompt and returns the closest cached completion if its
// cosine similarity meets the threshold.
func (s *SemanticCache) Lookup(ctx context.Context, prompt string) ([]byte, bool, error) {
	scope, err := tenant.From(ctx)
	if err != nil {
		return nil, false, err
	}
	vec, err := s.embedder.Embed(ctx, prompt)
	if err != nil {
		return nil, false, err
	}

	s.mu.RLock()
	entries := s.byTenant[scope.String()]
	s.mu.RUnlock()

	var best []byte
	bestSim := -1.0
	for _, e := range entries {
		sim := cosineSimilarity(vec, e.embedding)
		if sim > bestSim {
			bestSim, best = sim, e.completion
		}
	}
	if bestSim >= s.threshold {
		return best, true, nil
	}
	return nil, false, nil
}

// Store records prompt's embedding alongside the completion it produced.
func (s *SemanticCache) Store(ctx context.Context, prompt string, completion []byte) error {
	scope, err := tenant.From(ctx)
	if err != nil {
		return err
	}
	vec, err := s.embedder.Embed(ctx, prompt)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	key := scope.String()
	entries := append(s.byTenant[key], semanticEntry{embedding: vec, completion: completion})
	if len(entries) > s.maxPerTenant {
		entries = entries[len(entries)-s.maxPerTenant:]
	}
	s.byTenant[key] = entries
	return nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return -1
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return -1
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
