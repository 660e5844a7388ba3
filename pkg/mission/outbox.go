package mission

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Bundle is the final mission result persisted to the outbox (spec §4.9
// session resilience: "persist the final result to a durable outbox keyed
// by mission_id ... a later retrieval command can fetch it").
type Bundle struct {
	MissionID   string
	Tenant      string
	Workspace   string
	Status      string // "completed" or "short_circuited"; cancelled missions are not persisted
	FinalText   string
	Metrics     map[string]any
	PersistedAt time.Time
}

// OutboxStore persists and retrieves mission Bundles. Grounded on the
// teacher's events.CatchupQuerier/GetCatchupEvents shape (pkg/events/manager.go,
// pkg/events/listener.go): where the teacher replays missed WebSocket events
// from a bounded in-memory/DB catchup query keyed by channel + sinceID, this
// module replaces the replay-buffer shape with a durable table keyed by
// mission_id, since a mission's final bundle is a single terminal value, not
// an ordered event stream to catch up on.
type OutboxStore interface {
	Persist(ctx context.Context, bundle Bundle) error
	Get(ctx context.Context, tenant, workspace, missionID string) (Bundle, bool, error)
}

// SQLOutboxStore persists mission outbox rows over plain database/sql+pgx,
// matching this module's no-generated-ent-client convention (see DESIGN.md;
// pkg/memory.SQLAdapter, pkg/queue.Store, pkg/ingest.SQLProvenanceStore all
// follow the same shape).
type SQLOutboxStore struct {
	db *sql.DB
}

// NewSQLOutboxStore wraps an existing *sql.DB.
func NewSQLOutboxStore(db *sql.DB) *SQLOutboxStore {
	return &SQLOutboxStore{db: db}
}

func (s *SQLOutboxStore) Persist(ctx context.Context, bundle Bundle) error {
	metricsJSON, err := json.Marshal(bundle.Metrics)
	if err != nil {
		return fmt.Errorf("mission: marshal outbox metrics for %s: %w", bundle.MissionID, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO mission_outbox (mission_id, tenant, workspace, status, final_text, metrics, persisted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (mission_id) DO UPDATE SET
  status = EXCLUDED.status,
  final_text = EXCLUDED.final_text,
  metrics = EXCLUDED.metrics,
  persisted_at = EXCLUDED.persisted_at`,
		bundle.MissionID, bundle.Tenant, bundle.Workspace, bundle.Status, bundle.FinalText, metricsJSON, bundle.PersistedAt)
	if err != nil {
		return fmt.Errorf("mission: persist outbox bundle %s: %w", bundle.MissionID, err)
	}
	return nil
}

func (s *SQLOutboxStore) Get(ctx context.Context, tenant, workspace, missionID string) (Bundle, bool, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT mission_id, tenant, workspace, status, final_text, metrics, persisted_at
FROM mission_outbox
WHERE tenant = $1 AND workspace = $2 AND mission_id = $3`, tenant, workspace, missionID)

	var b Bundle
	var metricsJSON []byte
	err := row.Scan(&b.MissionID, &b.Tenant, &b.Workspace, &b.Status, &b.FinalText, &metricsJSON, &b.PersistedAt)
	if err == sql.ErrNoRows {
		return Bundle{}, false, nil
	}
	if err != nil {
		return Bundle{}, false, fmt.Errorf("mission: get outbox bundle %s: %w", missionID, err)
	}
	if len(metricsJSON) > 0 {
		if err := json.Unmarshal(metricsJSON, &b.Metrics); err != nil {
			return Bundle{}, false, fmt.Errorf("mission: unmarshal outbox metrics for %s: %w", missionID, err)
		}
	}
	return b, true, nil
}
