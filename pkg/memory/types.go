// Package memory implements the tenant-scoped semantic memory & vector store
// (C4): namespaced upsert/query, embedding cache, TTL prune, pin/archive
// lifecycle.
package memory

import (
	"errors"
	"time"
)

// Kind is the closed set of memory item kinds (spec §3).
type Kind string

const (
	KindTranscriptChunk Kind = "transcript_chunk"
	KindTopic           Kind = "topic"
	KindClaim           Kind = "claim"
	KindSummary         Kind = "summary"
	KindEvidence        Kind = "evidence"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindTranscriptChunk, KindTopic, KindClaim, KindSummary, KindEvidence:
		return true
	default:
		return false
	}
}

// Metadata is the free-form attribute bag attached to every MemoryItem.
type Metadata struct {
	SourceURL    string
	TimestampS   *float64
	Speaker      string
	Tenant       string
	Workspace    string
	ProvenanceID string
}

// Item is the MemoryItem record from spec §3.
type Item struct {
	ItemID    string
	Namespace string
	Kind      Kind
	Text      string
	Vector    []float32
	Metadata  Metadata
	Pinned    bool
	Archived  bool
	CreatedAt time.Time
	ExpiresAt *time.Time
}

// ErrPinnedAndArchived is returned by archive when an item is currently
// pinned: per spec §Open Questions, pin-then-archive is rejected outright —
// the caller must unpin first. Pin never implies immortality across archive.
var ErrPinnedAndArchived = errors.New("memory: cannot archive a pinned item; unpin first")

// ErrNotFound is returned when an item_id has no matching record.
var ErrNotFound = errors.New("memory: item not found")

// SearchFilter narrows a Search/retrieve call beyond the namespace.
type SearchFilter struct {
	Kind         Kind
	ExcludeArchived bool
	Tenant       string
	Workspace    string
}
