package cache

import (
	"context"
	"testing"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/tenant"
)

type fakeColdStore struct {
	data map[string][]byte
}

func newFakeColdStore() *fakeColdStore { return &fakeColdStore{data: make(map[string][]byte)} }

func (f *fakeColdStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *fakeColdStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	f.data[key] = value
	return nil
}

func testCtx() context.Context {
	return tenant.With(context.Background(), tenant.Scope{Tenant: "acme", Workspace: "default"})
}

func TestCacheSetGetL1(t *testing.T) {
	c := New(config.CacheConfig{L1Size: 10, L1TTL: time.Minute}, nil, nil)
	ctx := testCtx()

	if err := c.Set(ctx, "items", "k1", []byte("v1")); err != nil {
		t.Fatalf("set: %v", err)
	}
	v, neg, ok, err := c.Get(ctx, "items", "k1")
	if err != nil || !ok || neg || string(v) != "v1" {
		t.Fatalf("got v=%s neg=%v ok=%v err=%v", v, neg, ok, err)
	}
}

func TestCacheGetMissFallsThroughToL3(t *testing.T) {
	cold := newFakeColdStore()
	c := New(config.CacheConfig{L1Size: 10, L1TTL: time.Minute}, nil, cold)
	ctx := testCtx()

	scope, _ := tenant.From(ctx)
	cold.data[scope.Namespace("items")+":k2"] = []byte("from-cold")

	v, _, ok, err := c.Get(ctx, "items", "k2")
	if err != nil || !ok || string(v) != "from-cold" {
		t.Fatalf("expected cold-store promotion, got v=%s ok=%v err=%v", v, ok, err)
	}

	// Promotion should have populated L1: a second read finds it without L3.
	cold.data = map[string][]byte{}
	v2, _, ok2, err2 := c.Get(ctx, "items", "k2")
	if err2 != nil || !ok2 || string(v2) != "from-cold" {
		t.Fatalf("expected L1 promotion to serve the second read, got ok=%v err=%v", ok2, err2)
	}
}

func TestCacheSetNegative(t *testing.T) {
	c := New(config.CacheConfig{L1Size: 10, L1TTL: time.Minute, NegativeTTL: time.Minute}, nil, nil)
	ctx := testCtx()

	if err := c.SetNegative(ctx, "items", "bad"); err != nil {
		t.Fatalf("set negative: %v", err)
	}
	_, neg, ok, err := c.Get(ctx, "items", "bad")
	if err != nil || !ok || !neg {
		t.Fatalf("expected a cached negative hit, got neg=%v ok=%v err=%v", neg, ok, err)
	}
}

func TestCacheRequiresScope(t *testing.T) {
	c := New(config.CacheConfig{L1Size: 10}, nil, nil)
	if _, _, _, err := c.Get(context.Background(), "items", "k1"); err == nil {
		t.Fatal("expected ErrNoScope without a bound tenant scope")
	}
}

func TestCacheInvalidate(t *testing.T) {
	c := New(config.CacheConfig{L1Size: 10, L1TTL: time.Minute}, nil, nil)
	ctx := testCtx()

	c.Set(ctx, "items", "k1", []byte("v1"))
	if err := c.Invalidate(ctx, "items", "k1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if _, _, ok, _ := c.Get(ctx, "items", "k1"); ok {
		t.Fatal("expected invalidated key to miss")
	}
}
