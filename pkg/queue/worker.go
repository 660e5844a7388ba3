package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/fathomhq/mediacore/pkg/config"
)

// WorkerStatus is the observable state of a worker goroutine.
type WorkerStatus string

const (
	WorkerStatusIdle    WorkerStatus = "idle"
	WorkerStatusWorking WorkerStatus = "working"
)

// Worker polls the Store for leased jobs and drives them through an
// Executor (spec §4.7: "loop dequeue(n, lease) -> process via pipeline ->
// mark_done/mark_error"), generalized directly from the teacher's
// pkg/queue/worker.go Start/Stop/Health/pollAndProcess shape.
type Worker struct {
	id       string
	podID    string
	store    *Store
	cfg      *config.QueueConfig
	executor Executor
	pool     jobRegistry
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu            sync.RWMutex
	status        WorkerStatus
	currentJobID  string
	jobsProcessed int
	lastActivity  time.Time
}

// jobRegistry is the subset of WorkerPool a Worker needs for cooperative
// cancellation registration (spec's "cancellation cooperative flag check").
type jobRegistry interface {
	RegisterJob(jobID string, cancel context.CancelFunc)
	UnregisterJob(jobID string)
}

// NewWorker builds a single queue worker.
func NewWorker(id, podID string, store *Store, cfg *config.QueueConfig, executor Executor, pool jobRegistry) *Worker {
	return &Worker{
		id:           id,
		podID:        podID,
		store:        store,
		cfg:          cfg,
		executor:     executor,
		pool:         pool,
		stopCh:       make(chan struct{}),
		status:       WorkerStatusIdle,
		lastActivity: time.Now(),
	}
}

// Start begins the worker's poll loop in its own goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to finish its current job and exit. Safe to call
// more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health returns a snapshot of this worker's current state.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:            w.id,
		Status:        string(w.status),
		CurrentJobID:  w.currentJobID,
		JobsProcessed: w.jobsProcessed,
		LastActivity:  w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()
	log := slog.With("worker_id", w.id, "pod_id", w.podID)
	log.Info("ingest worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("ingest worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, ingest worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, ErrNoJobsAvailable) {
					w.sleep(w.cfg.PollInterval)
					continue
				}
				log.Error("error processing job", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

func (w *Worker) pollAndProcess(ctx context.Context) error {
	jobs, err := w.store.Dequeue(ctx, 1, w.cfg.LeaseDuration)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return ErrNoJobsAvailable
	}
	job := jobs[0]

	log := slog.With("job_id", job.JobID, "worker_id", w.id, "tenant", job.Tenant, "workspace", job.Workspace)
	log.Info("job claimed")

	w.setStatus(WorkerStatusWorking, job.JobID)
	defer w.setStatus(WorkerStatusIdle, "")

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	w.pool.RegisterJob(job.JobID, cancel)
	defer w.pool.UnregisterJob(job.JobID)

	heartbeatCtx, stopHeartbeat := context.WithCancel(jobCtx)
	defer stopHeartbeat()
	go w.runHeartbeat(heartbeatCtx, job.JobID)

	result := w.executor.Execute(jobCtx, job)
	stopHeartbeat()

	switch result.Status {
	case StatusDone:
		if err := w.store.MarkDone(context.Background(), []string{job.JobID}); err != nil {
			log.Error("failed to mark job done", "error", err)
			return err
		}
	default:
		msg := ""
		if result.Error != nil {
			msg = result.Error.Error()
		}
		if err := w.store.MarkError(context.Background(), []string{job.JobID}, msg); err != nil {
			log.Error("failed to mark job error", "error", err)
			return err
		}
	}

	w.mu.Lock()
	w.jobsProcessed++
	w.mu.Unlock()

	log.Info("job processing complete", "status", result.Status)
	return nil
}

// runHeartbeat periodically extends the lease for long-running jobs (spec
// §4.7: "heartbeat extends lease periodically for long jobs").
func (w *Worker) runHeartbeat(ctx context.Context, jobID string) {
	interval := w.cfg.LeaseDuration / 2
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.store.ExtendLease(ctx, []string{jobID}, w.cfg.LeaseDuration); err != nil {
				slog.Warn("heartbeat lease extension failed", "job_id", jobID, "error", err)
			}
		}
	}
}

func (w *Worker) setStatus(status WorkerStatus, jobID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = status
	w.currentJobID = jobID
	w.lastActivity = time.Now()
}
