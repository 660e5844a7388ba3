package queue

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Store is the durable, relational-store-backed priority queue. It talks to
// Postgres over plain database/sql + pgx rather than ent's generated client
// (this module does not check in generated ent code — see DESIGN.md), so
// the SELECT ... FOR UPDATE SKIP LOCKED dequeue the teacher expresses via
// `entgo.io/ent/dialect/sql`'s `sql.WithLockAction(sql.SkipLocked)` escape
// hatch chained onto a generated query builder is written here as the
// equivalent raw SQL, matching pkg/memory.SQLAdapter and
// pkg/router.SQLArmStore's existing raw-SQL convention in this module.
type Store struct {
	db *sql.DB
}

// NewStore wraps an existing *sql.DB (obtained via pkg/database.Client.DB()).
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Enqueue bulk inserts jobs, deduping on the deterministic job id (spec
// §4.7: "bulk insert; deterministic job id ... to dedupe"). Rows that
// already exist are left untouched rather than reset to pending, so an
// in-flight or completed job can't be accidentally re-queued by a rediscovery.
func (s *Store) Enqueue(ctx context.Context, jobs []Job) error {
	if len(jobs) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("queue: begin enqueue tx: %w", err)
	}
	defer tx.Rollback()

	const stmt = `
INSERT INTO ingest_jobs
	(job_id, tenant, workspace, source_kind, external_id, url, priority, enqueued_at, attempts, status)
VALUES
	($1, $2, $3, $4, $5, $6, $7, $8, 0, 'pending')
ON CONFLICT (job_id) DO NOTHING`

	for _, j := range jobs {
		id := j.JobID
		if id == "" {
			id = DeterministicID(j.Tenant, j.Workspace, j.SourceKind, j.ExternalID)
		}
		enqueuedAt := j.EnqueuedAt
		if enqueuedAt.IsZero() {
			enqueuedAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, stmt,
			id, j.Tenant, j.Workspace, string(j.SourceKind), j.ExternalID, j.URL, j.Priority, enqueuedAt,
		); err != nil {
			return fmt.Errorf("queue: enqueue job %q: %w", id, err)
		}
	}
	return tx.Commit()
}

// Dequeue atomically selects and leases up to n pending rows, highest
// priority and oldest-enqueued first (spec §4.7 step: "atomically
// select-and-update top n pending rows to leased"). The SELECT ... FOR
// UPDATE SKIP LOCKED + UPDATE happens inside a single transaction so
// concurrent workers never double-lease a row.
func (s *Store) Dequeue(ctx context.Context, n int, lease time.Duration) ([]Job, error) {
	if n <= 0 {
		return nil, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("queue: begin dequeue tx: %w", err)
	}
	defer tx.Rollback()

	const selectStmt = `
SELECT job_id FROM ingest_jobs
WHERE status = 'pending'
ORDER BY priority DESC, enqueued_at ASC
LIMIT $1
FOR UPDATE SKIP LOCKED`

	rows, err := tx.QueryContext(ctx, selectStmt, n)
	if err != nil {
		return nil, fmt.Errorf("queue: select candidates: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("queue: scan candidate id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()
	if len(ids) == 0 {
		return nil, nil
	}

	leaseUntil := time.Now().UTC().Add(lease)
	idArgs := make([]any, 0, len(ids)+1)
	idArgs = append(idArgs, leaseUntil)
	placeholders := make([]string, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		idArgs = append(idArgs, id)
	}
	updateStmt := fmt.Sprintf(`
UPDATE ingest_jobs SET status = 'leased', lease_until = $1
WHERE job_id IN (%s)
RETURNING job_id, tenant, workspace, source_kind, external_id, url, priority, enqueued_at, lease_until, attempts, status, last_error`,
		joinPlaceholders(placeholders))

	resultRows, err := tx.QueryContext(ctx, updateStmt, idArgs...)
	if err != nil {
		return nil, fmt.Errorf("queue: lease candidates: %w", err)
	}
	defer resultRows.Close()

	var jobs []Job
	for resultRows.Next() {
		j, err := scanJob(resultRows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	if err := resultRows.Err(); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("queue: commit dequeue: %w", err)
	}
	return jobs, nil
}

// MarkDone bulk-transitions jobs to the done terminal state.
func (s *Store) MarkDone(ctx context.Context, jobIDs []string) error {
	return s.bulkUpdateStatus(ctx, jobIDs, StatusDone, "")
}

// MarkError bulk-transitions jobs to error, recording the failure. Callers
// decide retry policy externally (attempts is only incremented by the lease
// reclamation sweep, per spec §4.7: "reclaimed to pending with attempts+=1").
func (s *Store) MarkError(ctx context.Context, jobIDs []string, errMsg string) error {
	return s.bulkUpdateStatus(ctx, jobIDs, StatusError, errMsg)
}

func (s *Store) bulkUpdateStatus(ctx context.Context, jobIDs []string, status Status, errMsg string) error {
	if len(jobIDs) == 0 {
		return nil
	}
	args := []any{string(status), errMsg}
	placeholders := make([]string, len(jobIDs))
	for i, id := range jobIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+3)
		args = append(args, id)
	}
	stmt := fmt.Sprintf(`UPDATE ingest_jobs SET status = $1, last_error = $2, lease_until = NULL WHERE job_id IN (%s)`,
		joinPlaceholders(placeholders))
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("queue: bulk update status to %s: %w", status, err)
	}
	return nil
}

// ExtendLease bulk-extends the lease for jobs a worker is still actively
// processing (heartbeat for long jobs, spec §4.7).
func (s *Store) ExtendLease(ctx context.Context, jobIDs []string, lease time.Duration) error {
	if len(jobIDs) == 0 {
		return nil
	}
	leaseUntil := time.Now().UTC().Add(lease)
	args := []any{leaseUntil}
	placeholders := make([]string, len(jobIDs))
	for i, id := range jobIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		args = append(args, id)
	}
	stmt := fmt.Sprintf(`UPDATE ingest_jobs SET lease_until = $1 WHERE job_id IN (%s) AND status = 'leased'`,
		joinPlaceholders(placeholders))
	if _, err := s.db.ExecContext(ctx, stmt, args...); err != nil {
		return fmt.Errorf("queue: extend lease: %w", err)
	}
	return nil
}

// ReclaimExpiredLeases sweeps leased rows past their lease_until back to
// pending (incrementing attempts), and moves rows that have now exceeded
// maxAttempts to dead (spec §4.7). Returns the number of rows reclaimed to
// pending (not counting those moved straight to dead).
func (s *Store) ReclaimExpiredLeases(ctx context.Context, maxAttempts int) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("queue: begin reclaim tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	deadRes, err := tx.ExecContext(ctx, `
UPDATE ingest_jobs SET status = 'dead', lease_until = NULL
WHERE status = 'leased' AND lease_until < $1 AND attempts + 1 >= $2`, now, maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("queue: move expired leases to dead: %w", err)
	}
	_ = deadRes

	pendingRes, err := tx.ExecContext(ctx, `
UPDATE ingest_jobs SET status = 'pending', lease_until = NULL, attempts = attempts + 1
WHERE status = 'leased' AND lease_until < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("queue: reclaim expired leases to pending: %w", err)
	}
	n, err := pendingRes.RowsAffected()
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("queue: commit reclaim: %w", err)
	}
	return int(n), nil
}

// QueueDepth counts pending jobs, used for health reporting.
func (s *Store) QueueDepth(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM ingest_jobs WHERE status = 'pending'`).Scan(&n)
	return n, err
}

func joinPlaceholders(ps []string) string {
	out := ps[0]
	for _, p := range ps[1:] {
		out += "," + p
	}
	return out
}

type jobScanner interface {
	Scan(dest ...any) error
}

func scanJob(rows jobScanner) (Job, error) {
	var j Job
	var sourceKind, status string
	var leaseUntil sql.NullTime
	var lastError sql.NullString

	if err := rows.Scan(&j.JobID, &j.Tenant, &j.Workspace, &sourceKind, &j.ExternalID, &j.URL,
		&j.Priority, &j.EnqueuedAt, &leaseUntil, &j.Attempts, &status, &lastError); err != nil {
		return Job{}, fmt.Errorf("queue: scan job: %w", err)
	}
	j.SourceKind = SourceKind(sourceKind)
	j.Status = Status(status)
	if leaseUntil.Valid {
		t := leaseUntil.Time
		j.LeaseUntil = &t
	}
	if lastError.Valid {
		j.LastError = lastError.String
	}
	return j, nil
}
