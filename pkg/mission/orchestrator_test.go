package mission

import (
	"context"
	"testing"

	"github.com/fathomhq/mediacore/pkg/config"
)

type fakeOutbox struct {
	bundles map[string]Bundle
}

func newFakeOutbox() *fakeOutbox { return &fakeOutbox{bundles: make(map[string]Bundle)} }

func (f *fakeOutbox) Persist(ctx context.Context, bundle Bundle) error {
	f.bundles[bundle.MissionID] = bundle
	return nil
}

func (f *fakeOutbox) Get(ctx context.Context, tenant, workspace, missionID string) (Bundle, bool, error) {
	b, ok := f.bundles[missionID]
	return b, ok, nil
}

func okStage(name, text string) StageSpec {
	return StageSpec{
		Name: name,
		Kind: StageSynthesis,
		Fn: func(sc *StageCtx, input map[string]any) StepOutcome {
			return StepOutcome{Status: Ok, Data: StageData{Text: text}}
		},
	}
}

func testCfg() *config.Config {
	return &config.Config{Mission: config.MissionConfig{
		MaxRetries: 1,
		Depths: map[config.MissionDepth]config.MissionDepthPolicy{
			config.MissionStandard: {StageCount: 2, QualityGate: config.GateDegradeWarn, ScoreThreshold: 0.9},
		},
	}}
}

func TestRunCompletesAllWavesWhenQualityGatePasses(t *testing.T) {
	cfg := &config.Config{Mission: config.MissionConfig{
		Depths: map[config.MissionDepth]config.MissionDepthPolicy{
			config.MissionStandard: {StageCount: 1, QualityGate: config.GateDegradeWarn, ScoreThreshold: 0},
		},
	}}
	orch := NewOrchestrator(cfg, nil, nil)

	spec := Spec{MissionID: "m1", Tenant: "t1", Workspace: "w1", Depth: config.MissionStandard, Waves: []Wave{
		{okStage("discover", "because the data shows a clear trend, the market moved. therefore analysts expect continued growth.")},
	}}

	res := orch.Run(context.Background(), spec, nil)
	if !res.IsOK() {
		t.Fatalf("expected Run to succeed, got %+v", res)
	}
	summary := res.Data.(Summary)
	if summary.StagesCompleted != 1 {
		t.Fatalf("expected 1 completed stage, got %d", summary.StagesCompleted)
	}
}

func TestRunDegradesOnLowQualityScoreUnderDegradeWarnPolicy(t *testing.T) {
	orch := NewOrchestrator(testCfg(), nil, nil)
	spec := Spec{MissionID: "m2", Tenant: "t1", Workspace: "w1", Depth: config.MissionStandard, Waves: []Wave{
		{okStage("weak", "short")},
	}}

	res := orch.Run(context.Background(), spec, nil)
	if !res.IsOK() {
		t.Fatalf("expected degrade-and-continue to still report Run as ok, got %+v", res)
	}
	summary := res.Data.(Summary)
	if summary.Degradations != 1 {
		t.Fatalf("expected exactly 1 degradation, got %d", summary.Degradations)
	}
}

func TestRunHardFailsOnMissingRequiredContext(t *testing.T) {
	orch := NewOrchestrator(testCfg(), nil, nil)
	missing := StageSpec{
		Name:            "needs_transcript",
		Kind:            StageSynthesis,
		RequiredContext: []string{"transcript"},
		Fn: func(sc *StageCtx, input map[string]any) StepOutcome {
			return StepOutcome{Status: Ok, Data: StageData{Text: input["transcript"].(string)}}
		},
	}
	spec := Spec{MissionID: "m3", Tenant: "t1", Workspace: "w1", Depth: config.MissionStandard, Waves: []Wave{{missing}}}

	res := orch.Run(context.Background(), spec, nil) // seed has no "transcript" key
	if !res.IsFail() {
		t.Fatalf("expected hard fail on missing required context, got %+v", res)
	}
	if res.ErrorKind != config.ErrConfigInvalid {
		t.Fatalf("expected config_invalid, got %q", res.ErrorKind)
	}
}

func TestRunPersistsToOutboxOnSessionClosed(t *testing.T) {
	outbox := newFakeOutbox()
	orch := NewOrchestrator(testCfg(), outbox, nil)

	closed := StageSpec{
		Name: "post_result",
		Kind: StageSynthesis,
		Fn: func(sc *StageCtx, input map[string]any) StepOutcome {
			return StepOutcome{Status: Fail, ErrorKind: config.ErrSessionClosed, Err: context.Canceled}
		},
	}
	spec := Spec{MissionID: "m4", Tenant: "t1", Workspace: "w1", Depth: config.MissionStandard, Waves: []Wave{{closed}}}

	res := orch.Run(context.Background(), spec, nil)
	if !res.IsOK() {
		t.Fatalf("expected session_closed to persist and return ok, got %+v", res)
	}
	if _, ok := outbox.bundles["m4"]; !ok {
		t.Fatalf("expected mission m4 to be persisted to the outbox")
	}
}

func TestRunCancelledMidMissionDoesNotPersist(t *testing.T) {
	outbox := newFakeOutbox()
	orch := NewOrchestrator(testCfg(), outbox, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancelling := StageSpec{
		Name: "s1",
		Kind: StageSynthesis,
		Fn: func(sc *StageCtx, input map[string]any) StepOutcome {
			cancel() // the caller goes away while the first wave is running
			return StepOutcome{Status: Ok}
		},
	}
	spec := Spec{MissionID: "m5", Tenant: "t1", Workspace: "w1", Depth: config.MissionStandard, Waves: []Wave{
		{cancelling}, {okStage("s2", "")},
	}}

	res := orch.Run(ctx, spec, nil)
	if !res.IsFail() || res.ErrorKind != config.ErrCancelled {
		t.Fatalf("expected cancelled failure, got %+v", res)
	}
	if _, ok := outbox.bundles["m5"]; ok {
		t.Fatalf("expected a cancelled mission not to be persisted")
	}
}

func TestSharedContextSnapshotFailsClosedOnMissingKey(t *testing.T) {
	sc := NewSharedContext(map[string]any{"a": 1})
	if _, ok := sc.Snapshot([]string{"a", "b"}); ok {
		t.Fatalf("expected Snapshot to report ok=false when a required key is missing")
	}
	if _, ok := sc.Snapshot([]string{"a"}); !ok {
		t.Fatalf("expected Snapshot to succeed when all keys are present")
	}
}
