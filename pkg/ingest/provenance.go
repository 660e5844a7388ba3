package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ProvenanceStore persists the provenance trail spec §4.8 stage 9 requires:
// one row per (job_id, stage, ts, summary_hash).
type ProvenanceStore interface {
	Write(ctx context.Context, tenant, workspace, jobID, stage, summaryHash string, ts time.Time) error
}

// SQLProvenanceStore persists provenance rows over plain database/sql +
// pgx, matching the rest of this module's no-generated-ent-client
// convention (see DESIGN.md; pkg/memory.SQLAdapter, pkg/router.SQLArmStore,
// pkg/queue.Store, pkg/scheduler.SQLWatchStore all follow the same shape).
type SQLProvenanceStore struct {
	db *sql.DB
}

// NewSQLProvenanceStore wraps an existing *sql.DB.
func NewSQLProvenanceStore(db *sql.DB) *SQLProvenanceStore {
	return &SQLProvenanceStore{db: db}
}

func (s *SQLProvenanceStore) Write(ctx context.Context, tenant, workspace, jobID, stage, summaryHash string, ts time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO provenance (tenant, workspace, job_id, stage, ts, summary_hash)
VALUES ($1, $2, $3, $4, $5, $6)`, tenant, workspace, jobID, stage, ts, summaryHash)
	if err != nil {
		return fmt.Errorf("ingest: write provenance row for job %s: %w", jobID, err)
	}
	return nil
}
