package router

import (
	"testing"

	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/llm"
)

func TestTrafficSplitIsStablePerRequest(t *testing.T) {
	split := TrafficSplit{CandidateFraction: 0.5}
	first := split.UseCandidate("t1", "req-123")
	for i := 0; i < 5; i++ {
		if got := split.UseCandidate("t1", "req-123"); got != first {
			t.Fatalf("traffic split flip-flopped for the same (tenant, request_id): got %v want %v", got, first)
		}
	}
}

func TestTrafficSplitRespectsBoundaries(t *testing.T) {
	none := TrafficSplit{CandidateFraction: 0}
	if none.UseCandidate("t1", "anything") {
		t.Fatalf("0 fraction must never select the candidate")
	}
	all := TrafficSplit{CandidateFraction: 1}
	if !all.UseCandidate("t1", "anything") {
		t.Fatalf("1.0 fraction must always select the candidate")
	}
}

func TestBakeoffRecorderSummarizesPerArm(t *testing.T) {
	rec := NewBakeoffRecorder()
	ctx := testCtx()
	for _, r := range []float64{0.2, 0.4, 0.6, 0.8} {
		rec.Record(ctx, ShadowObservation{ArmID: "cheap", Reward: r})
	}
	rec.Record(ctx, ShadowObservation{ArmID: "premium", Reward: 0.9})

	stats := rec.Report()
	var cheap *ArmStats
	for i := range stats {
		if stats[i].ArmID == "cheap" {
			cheap = &stats[i]
		}
	}
	if cheap == nil {
		t.Fatalf("expected stats for arm 'cheap'")
	}
	if cheap.Count != 4 {
		t.Fatalf("expected 4 observations, got %d", cheap.Count)
	}
	if cheap.Mean < 0.49 || cheap.Mean > 0.51 {
		t.Fatalf("expected mean ~0.5, got %f", cheap.Mean)
	}
	if cheap.CI95Low > cheap.Mean || cheap.CI95High < cheap.Mean {
		t.Fatalf("expected CI to bracket the mean, got [%f, %f] mean=%f", cheap.CI95Low, cheap.CI95High, cheap.Mean)
	}
}

func TestShadowRouterEvaluatesWithoutCallingProvider(t *testing.T) {
	arms := newMemArmStore()
	provider := &llm.StubProvider{Response: llm.CompletionResponse{Content: "should never be used directly"}}
	policy := bandit.NewEpsilonGreedySeeded(0, 1)
	r := NewRouter(testRegistry(), fakeBudget{remaining: 1.0}, arms, policy, provider, config.BudgetConfig{RewardQuality: 1}, "model_selection")
	shadow := NewShadowRouter(r)

	obs, err := shadow.Evaluate(testCtx(), "t1", Requirement{EstimatedTokensIn: 10, EstimatedTokensOut: 10}, nil, 1.0, 10, 10, 0.2)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if obs.ArmID == "" {
		t.Fatalf("expected a selected arm id")
	}
	if len(provider.Calls) != 0 {
		t.Fatalf("shadow evaluation must never invoke the real provider, got %d calls", len(provider.Calls))
	}

	saved, err := arms.Load(testCtx(), "t1", "model_selection")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(saved) != 0 {
		t.Fatalf("shadow evaluation must never persist arm state, found %d saved arms", len(saved))
	}
}
