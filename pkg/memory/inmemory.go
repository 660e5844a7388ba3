package memory

import (
	"context"
	"math"
	"sort"
	"sync"
)

// InMemoryAdapter is the in-process VectorAdapter used in tests and local
// dev (spec §9 "in-memory fallback adapter MUST exist for tests"). Brute-
// force cosine scan — fine at test scale, never used in production.
type InMemoryAdapter struct {
	mu    sync.RWMutex
	byID  map[string]Item
}

// NewInMemoryAdapter builds an empty adapter.
func NewInMemoryAdapter() *InMemoryAdapter {
	return &InMemoryAdapter{byID: make(map[string]Item)}
}

func (a *InMemoryAdapter) Upsert(ctx context.Context, items []Item) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, it := range items {
		a.byID[it.ItemID] = it
	}
	return nil
}

func (a *InMemoryAdapter) Search(ctx context.Context, namespace string, query []float32, k int, filter SearchFilter) ([]ScoredItem, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()

	var candidates []ScoredItem
	for _, it := range a.byID {
		if it.Namespace != namespace {
			continue
		}
		if it.Archived {
			continue // archived items are removed from the index (spec §3)
		}
		if filter.Kind != "" && it.Kind != filter.Kind {
			continue
		}
		if filter.ExcludeArchived && it.Archived {
			continue
		}
		candidates = append(candidates, ScoredItem{Item: it, Score: cosine(query, it.Vector)})
	}

	sort.Slice(candidates, func(i, j int) bool { return candidates[i].Score > candidates[j].Score })
	if k > 0 && len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates, nil
}

func (a *InMemoryAdapter) DeleteByFilter(ctx context.Context, namespace string, filter SearchFilter) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	deleted := 0
	for id, it := range a.byID {
		if it.Namespace != namespace {
			continue
		}
		if filter.Kind != "" && it.Kind != filter.Kind {
			continue
		}
		delete(a.byID, id)
		deleted++
	}
	return deleted, nil
}

func (a *InMemoryAdapter) Health(ctx context.Context) error { return nil }

func (a *InMemoryAdapter) GetByID(ctx context.Context, itemID string) (Item, bool, error) {
	it, ok := a.get(itemID)
	return it, ok, nil
}

// get exposes a direct lookup for Store's pin/archive/unpin operations,
// which need read-modify-write semantics beyond the ANN-search surface.
func (a *InMemoryAdapter) get(itemID string) (Item, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	it, ok := a.byID[itemID]
	return it, ok
}

func (a *InMemoryAdapter) put(it Item) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.byID[it.ItemID] = it
}

func (a *InMemoryAdapter) remove(itemID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.byID, itemID)
}

func cosine(a, b []float32) float64 {
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
