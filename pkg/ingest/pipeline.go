package ingest

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/httpclient"
	"github.com/fathomhq/mediacore/pkg/masking"
	"github.com/fathomhq/mediacore/pkg/memory"
	"github.com/fathomhq/mediacore/pkg/queue"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

// Pipeline runs the nine ingestion stages for one job at a time, and
// implements queue.Executor so a *Pipeline can be handed directly to
// queue.NewWorker/NewWorkerPool as their executor.
type Pipeline struct {
	connectors  ConnectorRegistry
	http        *httpclient.Client
	transcriber Transcriber
	filter      *masking.Filter
	embedder    memory.Embedder
	memory      *memory.Store
	provenance  ProvenanceStore
	cfg         *config.Config

	inflight singleflight.Group // per-job_id single-flighting of stage 3
}

// NewPipeline wires the stage dependencies. embedder is used directly by
// stage 7 (so intra-job dedup can compare vectors before stage 8 upserts
// them); mem.Store's own embed-on-upsert path is bypassed since stage 7
// always hands Store pre-embedded items.
func NewPipeline(connectors ConnectorRegistry, httpc *httpclient.Client, transcriber Transcriber, filter *masking.Filter, embedder memory.Embedder, mem *memory.Store, provenance ProvenanceStore, cfg *config.Config) *Pipeline {
	return &Pipeline{
		connectors:  connectors,
		http:        httpc,
		transcriber: transcriber,
		filter:      filter,
		embedder:    embedder,
		memory:      mem,
		provenance:  provenance,
		cfg:         cfg,
	}
}

// Execute implements queue.Executor. Every error surfaced by Run is already
// a typed StepResult failure, never a panic/exception crossing the boundary
// (spec §6 "Never raise across component boundaries").
func (p *Pipeline) Execute(ctx context.Context, job queue.Job) queue.ExecutionResult {
	res := p.Run(ctx, job)
	if res.IsFail() {
		return queue.ExecutionResult{Status: queue.StatusError, Error: res.Error}
	}
	return queue.ExecutionResult{Status: queue.StatusDone}
}

// stageFunc is the shape every pipeline stage implements.
type stageFunc func(ctx context.Context, job queue.Job, st *jobState) stepresult.Result

// Run executes all nine stages in order for job, short-circuiting on the
// first hard fail. Under ENABLE_INGEST_STRICT=0, a stage failure whose error
// kind is degradable converts to a skip plus a degradation event instead of
// aborting the job (spec §4.8's step contract).
func (p *Pipeline) Run(ctx context.Context, job queue.Job) stepresult.Result {
	st := &jobState{startedAt: time.Now()}
	strict := p.cfg == nil || p.cfg.Flag("ENABLE_INGEST_STRICT")
	concurrent := p.cfg != nil && p.cfg.Flag("ENABLE_INGEST_CONCURRENT")

	stages := []struct {
		name string
		fn   stageFunc
	}{
		{"fetch_metadata", p.stageFetchMetadata},
		{"media_download", p.stageMediaDownload},
		{"transcription", p.stageTranscription},
		{"segmentation", p.stageSegmentation},
		{"privacy_filter", p.stagePrivacyFilter},
		{"topic_claim_extraction", p.stageExtraction},
		{"embedding_dedup", p.stageEmbeddingDedup},
		{"memory_upsert", p.stageMemoryUpsert},
		{"provenance_write", p.stageProvenanceWrite},
	}

	if concurrent {
		if res, ok := p.runConcurrentHead(ctx, job, st, strict); !ok {
			return res
		}
		stages = stages[2:]
	}

	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return stepresult.Failf(config.ErrCancelled, err)
		}
		res := s.fn(ctx, job, st)
		switch res.Status {
		case stepresult.Fail:
			if p.maybeDegrade(s.name, res, strict) {
				continue
			}
			return res
		case stepresult.Skip:
			continue
		}
	}

	return stepresult.Ok(jobSummary(st))
}

// runConcurrentHead runs stages 1-2 (fetch metadata + media download) via
// errgroup when ENABLE_INGEST_CONCURRENT is set (spec §4.8 "stages 1-2 may
// run concurrently"). Returns ok=false with the terminal result if either
// stage hard-fails.
func (p *Pipeline) runConcurrentHead(ctx context.Context, job queue.Job, st *jobState, strict bool) (stepresult.Result, bool) {
	var fetchRes, downloadRes stepresult.Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fetchRes = p.stageFetchMetadata(gctx, job, st)
		return nil
	})
	g.Go(func() error {
		downloadRes = p.stageMediaDownload(gctx, job, st)
		return nil
	})
	_ = g.Wait() // stage funcs never return a Go error; outcomes live in the results

	for name, res := range map[string]stepresult.Result{"fetch_metadata": fetchRes, "media_download": downloadRes} {
		if res.Status == stepresult.Fail && !p.maybeDegrade(name, res, strict) {
			return res, false
		}
	}
	return stepresult.Result{}, true
}

// maybeDegrade implements the strict/non-strict branch of spec §4.8's step
// contract. privacy_blocked and policy_denied are hard fails regardless of
// strict mode (spec §7's propagation policy lists them unconditionally
// "surfaced"/non-recoverable); everything else degrades to skip under
// ENABLE_INGEST_STRICT=0.
func (p *Pipeline) maybeDegrade(stage string, res stepresult.Result, strict bool) bool {
	if res.ErrorKind == config.ErrPrivacyBlocked || res.ErrorKind == config.ErrPolicyDenied {
		return false
	}
	if strict {
		return false
	}
	emitDegradation(stage, string(res.ErrorKind))
	return true
}

// finish records the per-stage metrics spec §4.8 requires, *before*
// returning from the stage (every stage func's last statement is
// `return finish(...)`).
func finish(stage string, start time.Time, res stepresult.Result) stepresult.Result {
	stageDuration.WithLabelValues(stage).Observe(time.Since(start).Seconds())
	stageTotal.WithLabelValues(stage, string(res.Status)).Inc()
	return res
}

func emitDegradation(stage, reason string) {
	degradationTotal.WithLabelValues(stage, reason).Inc()
	slog.Warn("ingest: stage degraded", "stage", stage, "reason", reason)
}

// jobSummary is the Run-level success payload: nothing downstream currently
// consumes it directly (Execute only inspects Status), but it keeps Run's
// contract symmetric with every stage's StepResult.Data.
func jobSummary(st *jobState) map[string]any {
	return map[string]any{
		"chunks":        len(st.chunks),
		"embedded":      len(st.embedded),
		"degradations":  len(st.degradations),
		"duration_secs": time.Since(st.startedAt).Seconds(),
	}
}
