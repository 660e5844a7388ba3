package api

import "time"

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string                 `json:"status"`
	Version string                 `json:"version"`
	Checks  map[string]HealthCheck `json:"checks"`
}

// HealthCheck represents the status of a single health check component.
type HealthCheck struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// MissionResponse is returned by GET /api/v1/missions/:mission_id.
type MissionResponse struct {
	MissionID   string         `json:"mission_id"`
	Status      string         `json:"status"`
	FinalText   string         `json:"final_text,omitempty"`
	Metrics     map[string]any `json:"metrics,omitempty"`
	PersistedAt time.Time      `json:"persisted_at"`
}

// MemoryActionResponse is returned by the pin/unpin/archive endpoints.
type MemoryActionResponse struct {
	ItemID string `json:"item_id"`
	Action string `json:"action"`
}

// PruneResponse is returned by POST /api/v1/memory/prune.
type PruneResponse struct {
	Deleted int `json:"deleted"`
}
