// Package cache implements the multi-level cache stack (C2): L1 in-process
// LRU, L2 Redis, optional L3 cold store, with read-through promotion,
// write-through TTLs, and short-TTL negative entries (SetNegative).
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/tenant"
)

// ColdStore is the narrow L3 interface. This module ships no implementation
// of it; the tests use a fake.
type ColdStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Cache is the L1→L2→L3 read-through, write-through facade. All keys are
// namespaced by tenant scope before touching any backing store.
type Cache struct {
	cfg    config.CacheConfig
	l1     *lru
	l2     *redis.Client
	l3     ColdStore
}

// New builds a Cache. l2 may be nil (L2 disabled, e.g. in tests); l3 may be
// nil (no cold tier configured).
func New(cfg config.CacheConfig, l2 *redis.Client, l3 ColdStore) *Cache {
	return &Cache{
		cfg: cfg,
		l1:  newLRU(cfg.L1Size),
		l2:  l2,
		l3:  l3,
	}
}

// Get reads through L1 → L2 → L3, promoting hits back up to faster tiers. A
// cached negative result (ok=true, negative=true) means "already known to
// fail" and callers should treat it as a miss without re-fetching upstream.
func (c *Cache) Get(ctx context.Context, collection, key string) (value []byte, negative bool, ok bool, err error) {
	scope, serr := tenant.From(ctx)
	if serr != nil {
		return nil, false, false, serr
	}
	ns := scope.Namespace(collection) + ":" + key

	if v, neg, found := c.l1.get(ns); found {
		return v, neg, true, nil
	}

	if c.l2 != nil {
		v, err := c.l2.Get(ctx, ns).Bytes()
		if err == nil {
			c.l1.set(ns, v, c.cfg.L1TTL, false)
			return v, false, true, nil
		}
		if !errors.Is(err, redis.Nil) {
			return nil, false, false, err
		}
	}

	if c.l3 != nil {
		v, found, err := c.l3.Get(ctx, ns)
		if err != nil {
			return nil, false, false, err
		}
		if found {
			c.l1.set(ns, v, c.cfg.L1TTL, false)
			if c.l2 != nil {
				_ = c.l2.Set(ctx, ns, v, c.cfg.L2TTL).Err()
			}
			return v, false, true, nil
		}
	}

	return nil, false, false, nil
}

// Set writes through L1 and L2. Cache never writes L3; Get only reads it and
// promotes hits into L1 and L2.
func (c *Cache) Set(ctx context.Context, collection, key string, value []byte) error {
	scope, err := tenant.From(ctx)
	if err != nil {
		return err
	}
	ns := scope.Namespace(collection) + ":" + key

	c.l1.set(ns, value, c.cfg.L1TTL, false)
	if c.l2 != nil {
		return c.l2.Set(ctx, ns, value, c.cfg.L2TTL).Err()
	}
	return nil
}

// SetNegative records a short-TTL negative cache entry (NegativeTTL, 30s when
// unset). No code in this module calls it; 4xx responses are not cached
// negatively.
func (c *Cache) SetNegative(ctx context.Context, collection, key string) error {
	scope, err := tenant.From(ctx)
	if err != nil {
		return err
	}
	ns := scope.Namespace(collection) + ":" + key
	ttl := c.cfg.NegativeTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	c.l1.set(ns, nil, ttl, true)
	if c.l2 != nil {
		return c.l2.Set(ctx, ns, []byte{}, ttl).Err()
	}
	return nil
}

// Invalidate removes key from L1 and L2 (L3 entries expire on their own TTL;
// cold-tier archival data is never force-evicted).
func (c *Cache) Invalidate(ctx context.Context, collection, key string) error {
	scope, err := tenant.From(ctx)
	if err != nil {
		return err
	}
	ns := scope.Namespace(collection) + ":" + key

	c.l1.delete(ns)
	if c.l2 != nil {
		return c.l2.Del(ctx, ns).Err()
	}
	return nil
}
