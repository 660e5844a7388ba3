package api

import "time"

// PruneMemoryRequest is the HTTP request body for POST /api/v1/memory/prune.
type PruneMemoryRequest struct {
	Namespace  string    `json:"namespace" binding:"required"`
	OlderThan  time.Time `json:"older_than" binding:"required"`
	KeepPinned bool      `json:"keep_pinned"`
}
