// Package queue implements the durable priority queue (C7): bulk enqueue
// with deterministic dedup ids, lease-based dequeue under row-level locks,
// and expired-lease reclamation — generalized from the teacher's session
// queue (pkg/queue/{types,pool,worker}.go) to an ingest-job queue.
package queue

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Status is the closed set of IngestJob lifecycle states (spec §3).
type Status string

const (
	StatusPending Status = "pending"
	StatusLeased  Status = "leased"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	StatusDead    Status = "dead"
)

// SourceKind names the connector that produced or should process a job.
type SourceKind string

const (
	SourceYouTube SourceKind = "youtube"
	SourceTwitch  SourceKind = "twitch"
	SourceTwitter SourceKind = "twitter"
	SourceRSS     SourceKind = "rss"
	SourceManual  SourceKind = "manual"
)

// Job is the IngestJob record from spec §3. Mutated only via queue
// operations (Enqueue/Dequeue/MarkDone/MarkError/ExtendLease/reclaim).
type Job struct {
	JobID      string
	Tenant     string
	Workspace  string
	SourceKind SourceKind
	ExternalID string
	URL        string
	Priority   int
	EnqueuedAt time.Time
	LeaseUntil *time.Time
	Attempts   int
	Status     Status
	LastError  string
}

// DeterministicID computes the dedup id spec §4.7 requires:
// hash(tenant, workspace, source_kind, external_id).
func DeterministicID(tenant, workspace string, kind SourceKind, externalID string) string {
	h := sha256.New()
	h.Write([]byte(tenant))
	h.Write([]byte{0})
	h.Write([]byte(workspace))
	h.Write([]byte{0})
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write([]byte(externalID))
	return hex.EncodeToString(h.Sum(nil))
}

// ErrNoJobsAvailable indicates a dequeue call found no pending rows.
var ErrNoJobsAvailable = errors.New("queue: no jobs available")

// Executor owns one job's entire processing lifecycle (spec §4.8's pipeline
// is invoked from here), generalized from the teacher's SessionExecutor.
type Executor interface {
	Execute(ctx context.Context, job Job) ExecutionResult
}

// ExecutionResult is the lightweight terminal outcome a Worker uses to
// decide whether to MarkDone or MarkError; all intermediate stage state is
// written by the executor itself during processing (spec §4.8 stages each
// persist their own StepResult/metrics before returning).
type ExecutionResult struct {
	Status Status
	Error  error
}

// PoolHealth mirrors the teacher's queue.PoolHealth shape, generalized to
// ingest jobs.
type PoolHealth struct {
	IsHealthy       bool
	DBReachable     bool
	DBError         string
	PodID           string
	ActiveWorkers   int
	TotalWorkers    int
	QueueDepth      int
	WorkerStats     []WorkerHealth
	LastReclaimScan time.Time
	JobsReclaimed   int
}

// WorkerHealth mirrors the teacher's per-worker health snapshot.
type WorkerHealth struct {
	ID            string
	Status        string // "idle" or "working"
	CurrentJobID  string
	JobsProcessed int
	LastActivity  time.Time
}
