package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
)

// EmbeddingCache memoizes Embed calls keyed by sha256(text)+model, giving the
// deterministic-bytes round-trip guarantee from spec §8: the same text and
// model always produce the identical cached vector.
type EmbeddingCache struct {
	inner Embedder
	mu    sync.RWMutex
	byKey map[string][]float32
}

// NewEmbeddingCache wraps an Embedder with a content-addressed cache.
func NewEmbeddingCache(inner Embedder) *EmbeddingCache {
	return &EmbeddingCache{inner: inner, byKey: make(map[string][]float32)}
}

func (c *EmbeddingCache) Model() string { return c.inner.Model() }

func (c *EmbeddingCache) Embed(ctx context.Context, text, model string) ([]float32, error) {
	key := embedKey(text, model)

	c.mu.RLock()
	if v, ok := c.byKey[key]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.inner.Embed(ctx, text, model)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.byKey[key] = v
	c.mu.Unlock()
	return v, nil
}

func embedKey(text, model string) string {
	h := sha256.New()
	h.Write([]byte(text))
	enc, _ := json.Marshal(model)
	h.Write(enc)
	return hex.EncodeToString(h.Sum(nil))
}
