package memory

import "context"

// ScoredItem pairs a memory Item with its similarity score from a Search
// call (higher is more similar; adapters normalize to cosine similarity).
type ScoredItem struct {
	Item  Item
	Score float64
}

// VectorAdapter is the narrow storage seam spec §9 requires: any backend
// that can upsert, ANN-search, filter-delete, and report health. Exactly two
// implementations ship with this module — pgvectorless (sql.go) and
// inmemory (inmemory.go) — but callers only ever depend on this interface.
type VectorAdapter interface {
	Upsert(ctx context.Context, items []Item) error
	Search(ctx context.Context, namespace string, query []float32, k int, filter SearchFilter) ([]ScoredItem, error)
	DeleteByFilter(ctx context.Context, namespace string, filter SearchFilter) (int, error)
	Health(ctx context.Context) error

	// GetByID is required by Store's pin/archive/unpin operations, which need
	// read-modify-write semantics over a single item. Not part of spec §9's
	// narrow ANN-search contract in the strictest reading, but every backend
	// that can Upsert necessarily has a primary-key lookup path, so this adds
	// no real implementation burden.
	GetByID(ctx context.Context, itemID string) (Item, bool, error)
}

// Embedder turns text into a fixed-dimension vector. Kept separate from
// VectorAdapter so the embedding cache (embedcache.go) can wrap it independent of
// which storage backend is in use.
type Embedder interface {
	Embed(ctx context.Context, text, model string) ([]float32, error)
	Model() string
}

// Reranker re-scores a candidate list against a query. Implementations that
// fail are expected to be wrapped so callers fall back to the identity
// ordering (spec §4.4 "cross-encoder provider with identity fallback on
// provider failure").
type Reranker interface {
	Rerank(ctx context.Context, query string, candidates []ScoredItem) ([]ScoredItem, error)
}

// IdentityReranker returns candidates unchanged — the fallback used when no
// reranker is configured or the configured one errors.
type IdentityReranker struct{}

func (IdentityReranker) Rerank(ctx context.Context, query string, candidates []ScoredItem) ([]ScoredItem, error) {
	return candidates, nil
}
