// Package retrieval implements evidence assembly and answer grounding
// verification (C5): retrieve_evidence delegates to C4, verify checks
// citation coverage and flags contradictions.
package retrieval

import (
	"context"
	"fmt"

	"github.com/fathomhq/mediacore/pkg/memory"
)

// EvidenceItem is one piece of supporting evidence in a pack, addressable by
// CitationID for the verifier.
type EvidenceItem struct {
	CitationID string
	ItemID     string
	Text       string
	Score      float64
	Metadata   memory.Metadata
}

// EvidencePack is the retrieve_evidence result: a query's supporting set,
// each entry citable by CitationID.
type EvidencePack struct {
	Query string
	Items []EvidenceItem
}

// ByCitation indexes the pack's items by citation id for O(1) verifier lookups.
func (p EvidencePack) ByCitation() map[string]EvidenceItem {
	idx := make(map[string]EvidenceItem, len(p.Items))
	for _, it := range p.Items {
		idx[it.CitationID] = it
	}
	return idx
}

// Retriever assembles EvidencePacks from the memory store.
type Retriever struct {
	store *memory.Store
}

// NewRetriever builds a Retriever over the given memory store.
func NewRetriever(store *memory.Store) *Retriever {
	return &Retriever{store: store}
}

// RetrieveEvidence runs C4's retrieve and wraps the result as an
// EvidencePack, assigning deterministic citation ids ("c1", "c2", ...) in
// result order.
func (r *Retriever) RetrieveEvidence(ctx context.Context, namespace, query string, k int) (EvidencePack, error) {
	results, err := r.store.Retrieve(ctx, namespace, query, k, memory.SearchFilter{})
	if err != nil {
		return EvidencePack{}, fmt.Errorf("retrieval: retrieve evidence: %w", err)
	}

	pack := EvidencePack{Query: query}
	for i, r := range results {
		pack.Items = append(pack.Items, EvidenceItem{
			CitationID: fmt.Sprintf("c%d", i+1),
			ItemID:     r.Item.ItemID,
			Text:       r.Item.Text,
			Score:      r.Score,
			Metadata:   r.Item.Metadata,
		})
	}
	return pack, nil
}
