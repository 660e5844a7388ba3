// Package cleanup runs periodic, cross-tenant retention sweeps: it is the
// only component in this module allowed to delete rows without going
// through a tenant-scoped store method, since retention is a global
// housekeeping concern rather than a per-request operation.
package cleanup

import (
	"context"
	"database/sql"
	"log/slog"
	"time"
)

// Config controls how long each table's rows survive before the sweep
// deletes them. Zero disables that table's sweep.
type Config struct {
	IngestJobRetention time.Duration // done/error ingest_jobs rows
	OutboxRetention    time.Duration // mission_outbox rows, mirrors config.MissionConfig.OutboxRetention
	MemoryRetention    time.Duration // archived, unpinned memory_items rows
	EventRetention     time.Duration // events rows (WebSocket catchup backlog)
	Interval           time.Duration
}

// Service periodically enforces retention policies across:
//   - ingest_jobs: terminal (done/error) rows past retention
//   - mission_outbox: persisted mission results past retention
//   - memory_items: archived and unpinned rows past retention
//   - events: WebSocket catchup rows past retention
//
// All sweeps are idempotent and safe to run from multiple pods — each is a
// single unscoped DELETE keyed on an age cutoff, not an allocated lease.
// This overlaps in spirit with pkg/queue's lease reclaim (also an unscoped
// sweep) and pkg/memory.Store.Prune (the tenant-scoped, admin-triggered
// equivalent for memory_items) — see DESIGN.md.
type Service struct {
	db     *sql.DB
	config Config

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a new cleanup service.
func NewService(db *sql.DB, cfg Config) *Service {
	return &Service{db: db, config: cfg}
}

// Start launches the background cleanup loop.
func (s *Service) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("cleanup: service started",
		"ingest_job_retention", s.config.IngestJobRetention,
		"outbox_retention", s.config.OutboxRetention,
		"memory_retention", s.config.MemoryRetention,
		"event_retention", s.config.EventRetention,
		"interval", s.config.Interval)
}

// Stop signals the cleanup loop to exit and waits for it to finish.
func (s *Service) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("cleanup: service stopped")
}

func (s *Service) run(ctx context.Context) {
	defer close(s.done)

	s.runAll(ctx)

	interval := s.config.Interval
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runAll(ctx)
		}
	}
}

func (s *Service) runAll(ctx context.Context) {
	s.pruneIngestJobs(ctx)
	s.pruneOutbox(ctx)
	s.pruneMemoryItems(ctx)
	s.pruneEvents(ctx)
}

func (s *Service) pruneIngestJobs(ctx context.Context) {
	if s.config.IngestJobRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.config.IngestJobRetention)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM ingest_jobs WHERE status IN ('done', 'error') AND enqueued_at < $1`,
		cutoff)
	logSweepResult("ingest_jobs", res, err)
}

func (s *Service) pruneOutbox(ctx context.Context) {
	if s.config.OutboxRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.config.OutboxRetention)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM mission_outbox WHERE persisted_at < $1`,
		cutoff)
	logSweepResult("mission_outbox", res, err)
}

func (s *Service) pruneMemoryItems(ctx context.Context) {
	if s.config.MemoryRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.config.MemoryRetention)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM memory_items WHERE archived = true AND pinned = false AND created_at < $1`,
		cutoff)
	logSweepResult("memory_items", res, err)
}

func (s *Service) pruneEvents(ctx context.Context) {
	if s.config.EventRetention <= 0 {
		return
	}
	cutoff := time.Now().Add(-s.config.EventRetention)
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM events WHERE created_at < $1`,
		cutoff)
	logSweepResult("events", res, err)
}

func logSweepResult(table string, res sql.Result, err error) {
	if err != nil {
		slog.Error("cleanup: sweep failed", "table", table, "error", err)
		return
	}
	if n, _ := res.RowsAffected(); n > 0 {
		slog.Info("cleanup: swept rows", "table", table, "count", n)
	}
}
