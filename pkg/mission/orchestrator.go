package mission

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/retrieval"
	"github.com/fathomhq/mediacore/pkg/stepresult"
)

// EventPublisher emits mission lifecycle events. Deliberately its own small
// interface rather than an import of pkg/events, so mission doesn't take a
// dependency on that package's wire/channel format; nil is a valid,
// fully-functional "events disabled" publisher. pkg/events.EventPublisher
// satisfies this structurally.
type EventPublisher interface {
	Publish(ctx context.Context, tenant, workspace, eventType string, payload map[string]any) error
}

// Orchestrator runs mission Specs to completion (spec §4.9).
type Orchestrator struct {
	cfg       *config.Config
	outbox    OutboxStore
	publisher EventPublisher
}

// NewOrchestrator builds an Orchestrator. publisher may be nil (events
// disabled, same convention as pkg/ingest's optional dependencies).
func NewOrchestrator(cfg *config.Config, outbox OutboxStore, publisher EventPublisher) *Orchestrator {
	return &Orchestrator{cfg: cfg, outbox: outbox, publisher: publisher}
}

// Summary is Run's success payload.
type Summary struct {
	MissionID       string
	StagesCompleted int
	Degradations    int
	ShortCircuited  bool
	FinalText       string
}

// stageRunResult pairs a StageSpec with its execution outcome, keeping
// waves' original ordering for quality-gate processing after a concurrent
// wave's errgroup.Wait returns.
type stageRunResult struct {
	spec    StageSpec
	outcome StepOutcome
}

// Run executes spec's waves in order, short-circuiting on the first hard
// fail, honoring quality gates after every textual stage, and persisting a
// durable outbox bundle if the calling surface's session closes mid-mission
// (spec §4.9 session resilience) or a gate short-circuits the run.
func (o *Orchestrator) Run(ctx context.Context, spec Spec, seed map[string]any) stepresult.Result {
	shared := NewSharedContext(seed)
	policy := o.depthPolicy(spec.Depth)
	log := slog.With("mission_id", spec.MissionID, "tenant", spec.Tenant, "workspace", spec.Workspace, "depth", spec.Depth)

	var stagesCompleted, degradations int
	var finalText string
	var evidence retrieval.EvidencePack
	if ep, ok := seed["evidence"].(retrieval.EvidencePack); ok {
		evidence = ep
	}

	deadline := o.softDeadline()
	startedAt := time.Now()

	for _, wave := range spec.Waves {
		if err := ctx.Err(); err != nil {
			return o.handleCancellation(ctx, spec, shared, stagesCompleted, degradations, finalText)
		}
		if deadline > 0 && time.Since(startedAt) > deadline {
			log.Warn("mission: soft deadline exceeded, short-circuiting")
			return o.persist(ctx, spec, "short_circuited", finalText, stagesCompleted, degradations, true)
		}

		results := o.runWave(ctx, spec, wave, shared)

		for _, r := range results {
			finish(r.spec.Name, r.outcome)

			switch r.outcome.Status {
			case Fail:
				if r.outcome.ErrorKind == config.ErrSessionClosed {
					return o.handleSessionClosed(ctx, spec, shared, stagesCompleted, degradations, finalText)
				}
				return stepresult.Failf(r.outcome.ErrorKind, fmt.Errorf("mission: stage %q failed: %w", r.spec.Name, r.outcome.Err))
			case Skip:
				continue
			}

			stagesCompleted++
			if r.outcome.Data.Text != "" {
				finalText = r.outcome.Data.Text
			}

			score := Assess(r.outcome.Data, evidence)
			if r.outcome.Data.Text != "" && score.Total < policy.ScoreThreshold {
				decision, degraded, retryText := o.applyGate(ctx, spec, r, policy, shared, evidence)
				qualityGateTotal.WithLabelValues(r.spec.Name, string(decision)).Inc()
				if decision == gateShortCircuit {
					return o.persist(ctx, spec, "short_circuited", finalText, stagesCompleted, degradations, true)
				}
				if degraded {
					degradations++
					log.Warn("mission: stage degraded on quality gate", "stage", r.spec.Name, "score", score.Total, "threshold", policy.ScoreThreshold)
				}
				if retryText != "" {
					finalText = retryText
				}
			}

			shared.Merge(r.outcome.Data.ContextUpdates)
		}
	}

	return stepresult.OkWithMetrics(Summary{
		MissionID:       spec.MissionID,
		StagesCompleted: stagesCompleted,
		Degradations:    degradations,
		FinalText:       finalText,
	}, stepresult.Metrics{
		"stages_completed": float64(stagesCompleted),
		"degradations":     float64(degradations),
	})
}

// runWave executes one wave: sequentially if it has one stage or
// ENABLE_MISSION_PARALLEL is off, otherwise concurrently via errgroup (spec
// §4.9's "explicit context edges for parallel independent stages").
func (o *Orchestrator) runWave(ctx context.Context, spec Spec, wave Wave, shared *SharedContext) []stageRunResult {
	parallel := o.cfg != nil && o.cfg.Flag("ENABLE_MISSION_PARALLEL")
	if len(wave) <= 1 || !parallel {
		results := make([]stageRunResult, 0, len(wave))
		for _, st := range wave {
			if err := ctx.Err(); err != nil {
				return results
			}
			results = append(results, stageRunResult{spec: st, outcome: o.runStage(ctx, spec, st, shared, 1)})
		}
		return results
	}

	results := make([]stageRunResult, len(wave))
	g, gctx := errgroup.WithContext(ctx)
	for i, st := range wave {
		i, st := i, st
		g.Go(func() error {
			results[i] = stageRunResult{spec: st, outcome: o.runStage(gctx, spec, st, shared, 1)}
			return nil
		})
	}
	_ = g.Wait() // stage funcs never return a Go error; outcomes live in StepOutcome
	return results
}

// runStage builds the stage's narrowed context and invokes it, hard-failing
// if any declared RequiredContext key isn't populated yet (spec §4.9's
// shared-context contract).
func (o *Orchestrator) runStage(ctx context.Context, spec Spec, st StageSpec, shared *SharedContext, attempt int) StepOutcome {
	input, ok := shared.Snapshot(st.RequiredContext)
	if !ok {
		return StepOutcome{Status: Fail, ErrorKind: config.ErrConfigInvalid,
			Err: fmt.Errorf("mission: stage %q missing required context keys %v", st.Name, st.RequiredContext)}
	}
	sc := &StageCtx{Ctx: ctx, MissionID: spec.MissionID, Tenant: spec.Tenant, Workspace: spec.Workspace, Depth: spec.Depth, Shared: shared, Attempt: attempt}
	return st.Fn(sc, input)
}

type gateDecision string

const (
	gateRetried       gateDecision = "retried"
	gateDegraded      gateDecision = "degraded"
	gateShortCircuit  gateDecision = "short_circuited"
	gateNoImprovement gateDecision = "retry_no_improvement"
)

// applyGate implements the three quality-gate responses (spec §4.9): retry
// with a stronger router policy, degrade and continue, or short-circuit.
func (o *Orchestrator) applyGate(ctx context.Context, spec Spec, r stageRunResult, policy config.MissionDepthPolicy, shared *SharedContext, evidence retrieval.EvidencePack) (gateDecision, bool, string) {
	switch policy.QualityGate {
	case config.GateShortCircuit:
		return gateShortCircuit, false, ""
	case config.GateRetryStronger:
		maxRetries := 2
		if o.cfg != nil {
			maxRetries = o.cfg.Mission.MaxRetries
		}
		for attempt := 2; attempt <= maxRetries+1; attempt++ {
			retryCtx := context.WithValue(ctx, strongerPolicyKey{}, true)
			outcome := o.runStage(retryCtx, spec, r.spec, shared, attempt)
			if outcome.Status != Ok || outcome.Data.Text == "" {
				continue
			}
			if Assess(outcome.Data, evidence).Total >= policy.ScoreThreshold {
				return gateRetried, false, outcome.Data.Text
			}
		}
		return gateNoImprovement, true, "" // exhausted retries, degrade and keep the original output
	default: // GateDegradeWarn
		return gateDegraded, true, ""
	}
}

// strongerPolicyKey is the context key a router-mediated StageFunc should
// check to force a higher-capability candidate on a quality-gate retry
// (spec §4.9 "(a) retry with a stronger router policy"). The router itself
// has no notion of "stronger" — it is this flag that lets a stage's own
// router.Requirement construction demand a pricier/more-capable arm on retry.
type strongerPolicyKey struct{}

// ForceStrongerPolicy reports whether ctx carries a quality-gate retry's
// stronger-policy flag, for StageRouterLLM-kind stage funcs to consult when
// building their router.Requirement.
func ForceStrongerPolicy(ctx context.Context) bool {
	v, _ := ctx.Value(strongerPolicyKey{}).(bool)
	return v
}

func (o *Orchestrator) depthPolicy(depth config.MissionDepth) config.MissionDepthPolicy {
	if o.cfg != nil {
		if p, ok := o.cfg.Mission.Depths[depth]; ok {
			return p
		}
	}
	return config.MissionDepthPolicy{StageCount: 10, QualityGate: config.GateDegradeWarn, ScoreThreshold: 0.5}
}

func (o *Orchestrator) softDeadline() time.Duration {
	if o.cfg != nil && o.cfg.Mission.SoftDeadline > 0 {
		return o.cfg.Mission.SoftDeadline
	}
	return 20 * time.Minute
}

// handleCancellation implements spec §4.9's cancellation contract:
// cooperative, checked between stages/waves, current in-flight stage runs
// to completion, then the mission exits as "cancelled" without persisting
// to the outbox (a cancelled mission was never asked to survive the caller).
func (o *Orchestrator) handleCancellation(ctx context.Context, spec Spec, shared *SharedContext, stagesCompleted, degradations int, finalText string) stepresult.Result {
	slog.Warn("mission: cancelled", "mission_id", spec.MissionID, "stages_completed", stagesCompleted)
	return stepresult.Failf(config.ErrCancelled, fmt.Errorf("mission %s cancelled after %d stages", spec.MissionID, stagesCompleted))
}

// handleSessionClosed implements spec §4.9's session resilience: persist the
// final bundle so a later retrieval-by-id command can still fetch it, then
// emit mission_results_persisted.
func (o *Orchestrator) handleSessionClosed(ctx context.Context, spec Spec, shared *SharedContext, stagesCompleted, degradations int, finalText string) stepresult.Result {
	res := o.persist(context.Background(), spec, "completed", finalText, stagesCompleted, degradations, false)
	outboxPersistTotal.WithLabelValues("session_closed").Inc()
	if o.publisher != nil {
		_ = o.publisher.Publish(context.Background(), spec.Tenant, spec.Workspace, "mission_results_persisted", map[string]any{
			"mission_id": spec.MissionID,
		})
	}
	return res
}

func (o *Orchestrator) persist(ctx context.Context, spec Spec, status, finalText string, stagesCompleted, degradations int, shortCircuited bool) stepresult.Result {
	if o.outbox != nil {
		bundle := Bundle{
			MissionID: spec.MissionID,
			Tenant:    spec.Tenant,
			Workspace: spec.Workspace,
			Status:    status,
			FinalText: finalText,
			Metrics: map[string]any{
				"stages_completed": stagesCompleted,
				"degradations":     degradations,
			},
			PersistedAt: time.Now().UTC(),
		}
		if err := o.outbox.Persist(ctx, bundle); err != nil {
			return stepresult.Failf(config.ErrStorageConflict, fmt.Errorf("mission: persist outbox: %w", err))
		}
		if status == "short_circuited" {
			outboxPersistTotal.WithLabelValues("short_circuit").Inc()
		}
	}

	summary := Summary{MissionID: spec.MissionID, StagesCompleted: stagesCompleted, Degradations: degradations, ShortCircuited: shortCircuited, FinalText: finalText}
	if shortCircuited {
		return stepresult.Result{Status: stepresult.Skip, Data: summary}
	}
	return stepresult.Ok(summary)
}

func finish(stage string, outcome StepOutcome) {
	stageTotal.WithLabelValues(stage, string(outcome.Status)).Inc()
}
