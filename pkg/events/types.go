// Package events provides real-time event delivery via WebSocket and
// PostgreSQL NOTIFY/LISTEN for cross-pod distribution.
//
// Every event is scoped to a tenant and workspace (see pkg/tenant):
// channels are namespaced as "mission:{tenant}:{workspace}:{mission_id}"
// or the tenant/workspace-wide "missions:{tenant}:{workspace}" channel,
// so a NOTIFY on one tenant's connection can never be delivered to a
// WebSocket client scoped to another.
//
// Persistent events (mission lifecycle, ingest job lifecycle) are
// written to the events table and broadcast via NOTIFY in the same
// transaction. Transient events (router decision streaming) are
// NOTIFY-only and never touch the table.
package events

// Persistent event types (stored in DB + NOTIFY).
const (
	// Mission lifecycle. pkg/mission.Orchestrator publishes only
	// mission_results_persisted (after a session-closed outbox persist); no
	// package in this module publishes the other three.
	EventTypeMissionStarted   = "mission.started"
	EventTypeMissionWaveDone  = "mission.wave_completed"
	EventTypeMissionCompleted = "mission.completed"
	EventTypeMissionResults   = "mission_results_persisted"

	// Ingest job lifecycle. pkg/ingest.Pipeline does not publish these; no
	// package in this module emits them.
	EventTypeIngestJobStarted   = "ingest_job.started"
	EventTypeIngestJobCompleted = "ingest_job.completed"
	EventTypeIngestJobFailed    = "ingest_job.failed"

	// Stage lifecycle — single event type for all stage status transitions.
	EventTypeStageStatus = "stage.status"
)

// Stage lifecycle status values (used in the stage.status payload's "status" field).
const (
	StageStatusStarted   = "started"
	StageStatusCompleted = "completed"
	StageStatusFailed    = "failed"
	StageStatusSkipped   = "skipped"
)

// Transient event types (NOTIFY only, no DB persistence).
const (
	// Router decision progress — high-frequency, ephemeral.
	EventTypeRouterDecision = "router.decision"
)

// MissionChannel returns the channel name for a specific mission's events,
// scoped to its tenant and workspace.
// Format: "mission:{tenant}:{workspace}:{mission_id}"
func MissionChannel(tenant, workspace, missionID string) string {
	return "mission:" + tenant + ":" + workspace + ":" + missionID
}

// WorkspaceChannel returns the channel name for tenant/workspace-wide events
// (e.g. the ingest job feed for a workspace's dashboard view).
// Format: "missions:{tenant}:{workspace}"
func WorkspaceChannel(tenant, workspace string) string {
	return "missions:" + tenant + ":" + workspace
}

// ClientMessage is the JSON structure for client → server WebSocket messages.
type ClientMessage struct {
	Action      string `json:"action"`                  // "subscribe", "unsubscribe", "catchup", "ping"
	Channel     string `json:"channel,omitempty"`       // Channel name (e.g., "mission:acme:prod:m-123")
	LastEventID *int   `json:"last_event_id,omitempty"` // For catchup
}
