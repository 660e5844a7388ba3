package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/queue"
)

// SQLWatchStore persists watchlists and their pacing arm state over plain
// database/sql + pgx, matching pkg/memory.SQLAdapter and
// pkg/router.SQLArmStore's raw-SQL convention (no generated ent client is
// checked into this module — see DESIGN.md).
type SQLWatchStore struct {
	db *sql.DB
}

// NewSQLWatchStore wraps an existing *sql.DB.
func NewSQLWatchStore(db *sql.DB) *SQLWatchStore {
	return &SQLWatchStore{db: db}
}

func (s *SQLWatchStore) DueWatchlists(ctx context.Context, limit int) ([]WatchItem, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT tenant, workspace, source_kind, handle, last_seen_external_id, poll_interval_s, next_poll_at
FROM watchlists
WHERE next_poll_at <= $1
ORDER BY next_poll_at ASC
LIMIT $2`, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("scheduler: query due watchlists: %w", err)
	}
	defer rows.Close()

	var out []WatchItem
	for rows.Next() {
		var w WatchItem
		var sourceKind string
		var lastSeen sql.NullString
		if err := rows.Scan(&w.Tenant, &w.Workspace, &sourceKind, &w.Handle, &lastSeen, &w.PollIntervalS, &w.NextPollAt); err != nil {
			return nil, fmt.Errorf("scheduler: scan watch item: %w", err)
		}
		w.SourceKind = queue.SourceKind(sourceKind)
		if lastSeen.Valid {
			w.LastSeenExternalID = lastSeen.String
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (s *SQLWatchStore) LoadArms(ctx context.Context, armKey string) (map[string]bandit.ArmState, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT arm_id, pulls, reward_sum, reward_sq_sum
FROM watch_pacing_arms
WHERE watch_key = $1`, armKey)
	if err != nil {
		return nil, fmt.Errorf("scheduler: load pacing arms: %w", err)
	}
	defer rows.Close()

	arms := make(map[string]bandit.ArmState)
	for rows.Next() {
		var st bandit.ArmState
		if err := rows.Scan(&st.ArmID, &st.Pulls, &st.RewardSum, &st.RewardSqSum); err != nil {
			return nil, fmt.Errorf("scheduler: scan pacing arm: %w", err)
		}
		arms[st.ArmID] = st
	}
	return arms, rows.Err()
}

func (s *SQLWatchStore) Commit(ctx context.Context, updates []WatchUpdate, arms map[string]map[string]bandit.ArmState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("scheduler: begin commit tx: %w", err)
	}
	defer tx.Rollback()

	const watchStmt = `
UPDATE watchlists SET last_seen_external_id = $1, next_poll_at = $2, poll_interval_s = $3
WHERE tenant = $4 AND workspace = $5 AND handle = $6`
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, watchStmt, u.LastSeenExternalID, u.NextPollAt, u.PollIntervalS,
			u.Tenant, u.Workspace, u.Handle); err != nil {
			return fmt.Errorf("scheduler: update watchlist %s/%s/%s: %w", u.Tenant, u.Workspace, u.Handle, err)
		}
	}

	const armStmt = `
INSERT INTO watch_pacing_arms (watch_key, arm_id, pulls, reward_sum, reward_sq_sum)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (watch_key, arm_id) DO UPDATE SET
	pulls = EXCLUDED.pulls, reward_sum = EXCLUDED.reward_sum, reward_sq_sum = EXCLUDED.reward_sq_sum`
	for watchKey, armSet := range arms {
		for _, st := range armSet {
			if _, err := tx.ExecContext(ctx, armStmt, watchKey, st.ArmID, st.Pulls, st.RewardSum, st.RewardSqSum); err != nil {
				return fmt.Errorf("scheduler: save pacing arm %s/%s: %w", watchKey, st.ArmID, err)
			}
		}
	}
	return tx.Commit()
}
