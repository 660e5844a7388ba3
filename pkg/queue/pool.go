package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
)

// WorkerPool manages a pool of ingest-job workers plus the expired-lease
// reclamation sweep, generalized from the teacher's pkg/queue/pool.go.
type WorkerPool struct {
	podID    string
	store    *Store
	cfg      *config.QueueConfig
	executor Executor
	workers  []*Worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	activeJobs map[string]context.CancelFunc
	mu         sync.RWMutex
	started    bool

	reclaim reclaimState
}

type reclaimState struct {
	mu            sync.Mutex
	lastScan      time.Time
	jobsReclaimed int
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(podID string, store *Store, cfg *config.QueueConfig, executor Executor) *WorkerPool {
	return &WorkerPool{
		podID:      podID,
		store:      store,
		cfg:        cfg,
		executor:   executor,
		workers:    make([]*Worker, 0, cfg.WorkerCount),
		stopCh:     make(chan struct{}),
		activeJobs: make(map[string]context.CancelFunc),
	}
}

// Start spawns worker goroutines and the lease-reclamation background task.
// Safe to call more than once; later calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) error {
	if p.started {
		slog.Warn("worker pool already started, ignoring duplicate Start call", "pod_id", p.podID)
		return nil
	}
	p.started = true

	slog.Info("starting ingest worker pool", "pod_id", p.podID, "worker_count", p.cfg.WorkerCount)
	for i := 0; i < p.cfg.WorkerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.podID, i)
		worker := NewWorker(workerID, p.podID, p.store, p.cfg, p.executor, p)
		p.workers = append(p.workers, worker)
		worker.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runReclaimSweep(ctx)
	}()

	slog.Info("ingest worker pool started")
	return nil
}

// Stop signals all workers to finish their current job and exit.
func (p *WorkerPool) Stop() {
	slog.Info("stopping ingest worker pool gracefully")
	active := p.activeJobIDs()
	if len(active) > 0 {
		slog.Info("waiting for active jobs to complete", "count", len(active), "job_ids", active)
	}
	for _, worker := range p.workers {
		worker.Stop()
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("ingest worker pool stopped gracefully")
}

// RegisterJob stores a cancel function for cooperative cancellation.
func (p *WorkerPool) RegisterJob(jobID string, cancel context.CancelFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeJobs[jobID] = cancel
}

// UnregisterJob removes the cancel function once processing ends.
func (p *WorkerPool) UnregisterJob(jobID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.activeJobs, jobID)
}

// CancelJob triggers cooperative cancellation for a job on this pod.
// Returns true if the job was found and cancelled here.
func (p *WorkerPool) CancelJob(jobID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if cancel, ok := p.activeJobs[jobID]; ok {
		cancel()
		return true
	}
	return false
}

// Health reports the pool's current health.
func (p *WorkerPool) Health(ctx context.Context) *PoolHealth {
	depth, err := p.store.QueueDepth(ctx)
	dbHealthy := err == nil
	var dbError string
	if err != nil {
		dbError = fmt.Sprintf("queue depth query failed: %v", err)
		slog.Error("failed to query queue depth for health check", "pod_id", p.podID, "error", err)
	}

	workerStats := make([]WorkerHealth, len(p.workers))
	activeWorkers := 0
	for i, w := range p.workers {
		stats := w.Health()
		workerStats[i] = stats
		if stats.Status == string(WorkerStatusWorking) {
			activeWorkers++
		}
	}

	p.reclaim.mu.Lock()
	lastScan := p.reclaim.lastScan
	reclaimed := p.reclaim.jobsReclaimed
	p.reclaim.mu.Unlock()

	return &PoolHealth{
		IsHealthy:       len(p.workers) > 0 && dbHealthy,
		DBReachable:     dbHealthy,
		DBError:         dbError,
		PodID:           p.podID,
		ActiveWorkers:   activeWorkers,
		TotalWorkers:    len(p.workers),
		QueueDepth:      depth,
		WorkerStats:     workerStats,
		LastReclaimScan: lastScan,
		JobsReclaimed:   reclaimed,
	}
}

func (p *WorkerPool) activeJobIDs() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ids := make([]string, 0, len(p.activeJobs))
	for id := range p.activeJobs {
		ids = append(ids, id)
	}
	return ids
}

// runReclaimSweep periodically reclaims expired leases back to pending (or
// dead, past max attempts) — spec §4.7.
func (p *WorkerPool) runReclaimSweep(ctx context.Context) {
	interval := p.cfg.PollInterval
	if interval <= 0 {
		interval = 15 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := p.store.ReclaimExpiredLeases(ctx, p.cfg.MaxAttempts)
			if err != nil {
				slog.Error("lease reclamation sweep failed", "error", err)
				continue
			}
			p.reclaim.mu.Lock()
			p.reclaim.lastScan = time.Now()
			p.reclaim.jobsReclaimed += n
			p.reclaim.mu.Unlock()
			if n > 0 {
				slog.Info("reclaimed expired leases", "count", n)
			}
		}
	}
}
