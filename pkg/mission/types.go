// Package mission implements the autonomous mission orchestrator (C9, spec
// §4.9): a multi-stage DAG executor over C8 pipeline substeps, C4 memory
// ops, C5 retrieval, and C6 router-mediated LLM calls, with a quality gate
// after every stage and session-resilient persistence to a durable outbox.
// Grounded on the teacher's deleted pkg/queue/executor.go
// (RealSessionExecutor.Execute's sequential chain loop: run stage, inspect
// typed result, fail-fast/continue) generalized from a fixed alert chain to
// a depth-configurable mission DAG with explicit parallel waves.
package mission

import (
	"context"
	"sync"

	"github.com/fathomhq/mediacore/pkg/config"
)

// StageKind names which C-subsystem a stage delegates to (spec §4.9:
// "pipeline substep (C8), memory op (C4), retrieval (C5), router-mediated
// LLM call (C6), or synthesis step").
type StageKind string

const (
	StagePipelineSubstep StageKind = "pipeline_substep"
	StageMemoryOp        StageKind = "memory_op"
	StageRetrieval        StageKind = "retrieval"
	StageRouterLLM        StageKind = "router_llm"
	StageSynthesis        StageKind = "synthesis"
)

// StageData is the expected shape of a textual stage's stepresult.Result.Data.
// Stages whose Data isn't a StageData (e.g. a bare memory op) are not quality
// gated — the gate only judges content-substance/grounding/reasoning/UX,
// which only applies to stages that produced prose.
type StageData struct {
	Text      string
	Citations []string

	// ContextUpdates is merged into the mission's SharedContext after this
	// stage completes successfully, becoming visible to every later stage
	// that lists one of these keys in RequiredContext.
	ContextUpdates map[string]any
}

// StageFunc is the shape every mission stage implements. input carries
// exactly the SharedContext keys the stage's StageSpec.RequiredContext
// named — nothing more, nothing less (spec §4.9's shared-context contract).
type StageFunc func(sc *StageCtx, input map[string]any) StepOutcome

// StepOutcome wraps the stage's outcome status plus its StepResult so the
// orchestrator can both gate quality and respect the ok/fail/skip contract
// every other component in this module uses.
type StepOutcome struct {
	Status    Status
	Data      StageData
	Err       error
	ErrorKind config.ErrorKind
}

// Status mirrors stepresult.Status so mission stages stay consistent with
// the rest of the module's three-way outcome contract without importing
// stepresult's Data-as-any shape (mission needs the stronger StageData type
// for quality gating).
type Status string

const (
	Ok   Status = "ok"
	Fail Status = "fail"
	Skip Status = "skip"
)

// StageSpec is one node in the mission DAG.
type StageSpec struct {
	Name            string
	Kind            StageKind
	RequiredContext []string
	Fn              StageFunc
}

// Wave is a set of stages with no data dependency on each other — spec
// §4.9's "explicit context edges for parallel independent stages". A wave
// of length 1 always runs sequentially; a wave of length >1 runs
// concurrently via errgroup when ENABLE_MISSION_PARALLEL is set.
type Wave []StageSpec

// Spec is one mission run's full DAG plus identity/depth.
type Spec struct {
	MissionID string
	Tenant    string
	Workspace string
	Depth     config.MissionDepth
	Waves     []Wave
}

// SharedContext is the mission's typed context dict (spec §4.9: "transcript,
// metadata, prior stage outputs"), safe for concurrent read/write from
// parallel wave stages.
type SharedContext struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewSharedContext seeds a SharedContext, typically with the mission's
// initial transcript/metadata.
func NewSharedContext(seed map[string]any) *SharedContext {
	data := make(map[string]any, len(seed))
	for k, v := range seed {
		data[k] = v
	}
	return &SharedContext{data: data}
}

// Snapshot returns the subset of keys requested, and ok=false if any key is
// absent — spec §4.9: "failing to populate [a stage's required context] =
// hard fail for that stage (do not silently continue with empty inputs)".
func (c *SharedContext) Snapshot(keys []string) (map[string]any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(keys))
	for _, k := range keys {
		v, ok := c.data[k]
		if !ok {
			return nil, false
		}
		out[k] = v
	}
	return out, true
}

// Merge applies a stage's ContextUpdates, overwriting any existing keys.
func (c *SharedContext) Merge(updates map[string]any) {
	if len(updates) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for k, v := range updates {
		c.data[k] = v
	}
}

// StageCtx is what a StageFunc receives: the mission's identity/scope plus
// a handle on the shared context for stages that need to read beyond their
// declared RequiredContext (e.g. a synthesis stage folding in every prior
// stage's output is still expected to declare those keys explicitly).
type StageCtx struct {
	Ctx       context.Context
	MissionID string
	Tenant    string
	Workspace string
	Depth     config.MissionDepth
	Shared    *SharedContext
	Attempt   int // 1 on first run, >1 on a quality-gate retry
}
