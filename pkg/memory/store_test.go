package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/fathomhq/mediacore/pkg/tenant"
)

type fakeEmbedder struct{ model string }

func (f *fakeEmbedder) Model() string { return f.model }

func (f *fakeEmbedder) Embed(ctx context.Context, text, model string) ([]float32, error) {
	// deterministic pseudo-embedding: per-position character-code sums, so equal text -> equal vector
	v := make([]float32, 4)
	for i, c := range text {
		v[i%4] += float32(c)
	}
	return v, nil
}

func testCtx(tenantID string) context.Context {
	return tenant.With(context.Background(), tenant.Scope{Tenant: tenantID, Workspace: "default"})
}

func TestStoreAndRetrieve(t *testing.T) {
	adapter := NewInMemoryAdapter()
	st := NewStore(adapter, &fakeEmbedder{model: "test-embed"}, nil)
	ctx := testCtx("acme")
	scope, _ := tenant.From(ctx)
	ns := scope.Namespace("videos")

	item := Item{
		ItemID:    "item-1",
		Namespace: ns,
		Kind:      KindTranscriptChunk,
		Text:      "hello world",
		Metadata:  Metadata{Tenant: "acme", Workspace: "default"},
	}
	if err := st.Store(ctx, item); err != nil {
		t.Fatalf("store: %v", err)
	}

	results, err := st.Retrieve(ctx, ns, "hello world", 5, SearchFilter{})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 1 || results[0].Item.ItemID != "item-1" {
		t.Fatalf("unexpected results: %+v", results)
	}
}

func TestStoreRejectsMismatchedTenant(t *testing.T) {
	adapter := NewInMemoryAdapter()
	st := NewStore(adapter, &fakeEmbedder{model: "test-embed"}, nil)
	ctx := testCtx("acme")

	item := Item{
		ItemID:   "item-1",
		Metadata: Metadata{Tenant: "globex", Workspace: "default"},
	}
	if err := st.Store(ctx, item); err == nil {
		t.Fatal("expected tenant mismatch error")
	}
}

func TestArchivePinnedItemRejected(t *testing.T) {
	adapter := NewInMemoryAdapter()
	st := NewStore(adapter, &fakeEmbedder{model: "test-embed"}, nil)
	ctx := testCtx("acme")
	scope, _ := tenant.From(ctx)

	item := Item{
		ItemID:    "item-1",
		Namespace: scope.Namespace("videos"),
		Metadata:  Metadata{Tenant: "acme", Workspace: "default"},
	}
	st.Store(ctx, item)
	if err := st.Pin(ctx, "item-1"); err != nil {
		t.Fatalf("pin: %v", err)
	}
	if err := st.Archive(ctx, "item-1"); !errors.Is(err, ErrPinnedAndArchived) {
		t.Fatalf("expected ErrPinnedAndArchived, got %v", err)
	}
	if err := st.Unpin(ctx, "item-1"); err != nil {
		t.Fatalf("unpin: %v", err)
	}
	if err := st.Archive(ctx, "item-1"); err != nil {
		t.Fatalf("archive after unpin should succeed, got %v", err)
	}
}

func TestRetrieveNeverLeaksAcrossTenants(t *testing.T) {
	adapter := NewInMemoryAdapter()
	st := NewStore(adapter, &fakeEmbedder{model: "test-embed"}, nil)

	acmeCtx := testCtx("acme")
	acmeScope, _ := tenant.From(acmeCtx)
	st.Store(acmeCtx, Item{
		ItemID:    "item-acme",
		Namespace: acmeScope.Namespace("videos"),
		Text:      "acme secret",
		Metadata:  Metadata{Tenant: "acme", Workspace: "default"},
	})

	globexCtx := testCtx("globex")
	globexScope, _ := tenant.From(globexCtx)
	results, err := st.Retrieve(globexCtx, globexScope.Namespace("videos"), "acme secret", 5, SearchFilter{})
	if err != nil {
		t.Fatalf("retrieve: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no cross-tenant results, got %+v", results)
	}
}

func TestMutateNotFoundForUnknownItem(t *testing.T) {
	adapter := NewInMemoryAdapter()
	st := NewStore(adapter, &fakeEmbedder{model: "test-embed"}, nil)
	ctx := testCtx("acme")

	if err := st.Pin(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
