package router

import (
	"context"
	"errors"
	"testing"

	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/llm"
	"github.com/fathomhq/mediacore/pkg/stepresult"
	"github.com/fathomhq/mediacore/pkg/tenant"
)

type fakeBudget struct {
	remaining float64
	err       error
}

func (f fakeBudget) RemainingUSD(ctx context.Context, tenantID string) (float64, error) {
	return f.remaining, f.err
}

func (f fakeBudget) RecordSpend(ctx context.Context, tenantID string, amountUSD float64) error {
	return nil
}

type memArmStore struct {
	byTenantDomain map[string]map[string]bandit.ArmState
	saveErr        error
}

func newMemArmStore() *memArmStore {
	return &memArmStore{byTenantDomain: make(map[string]map[string]bandit.ArmState)}
}

func (m *memArmStore) key(tenantID, domain string) string { return tenantID + "/" + domain }

func (m *memArmStore) Load(ctx context.Context, tenantID, domain string) (map[string]bandit.ArmState, error) {
	arms, ok := m.byTenantDomain[m.key(tenantID, domain)]
	if !ok {
		return make(map[string]bandit.ArmState), nil
	}
	out := make(map[string]bandit.ArmState, len(arms))
	for k, v := range arms {
		out[k] = v
	}
	return out, nil
}

func (m *memArmStore) Save(ctx context.Context, tenantID, domain string, arms map[string]bandit.ArmState) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.byTenantDomain[m.key(tenantID, domain)] = arms
	return nil
}

func testRegistry() StaticRegistry {
	return StaticRegistry{
		Default: []Candidate{
			{ArmID: "cheap", Model: "small-model", PricePerTokenIn: 0.000001, PricePerTokenOut: 0.000002, Available: true},
			{ArmID: "premium", Model: "big-model", PricePerTokenIn: 0.00002, PricePerTokenOut: 0.00004, Available: true},
		},
	}
}

func testCtx() context.Context {
	return tenant.With(context.Background(), tenant.Scope{Tenant: "t1", Workspace: "w1"})
}

func TestRouteSelectsAndUpdatesArm(t *testing.T) {
	arms := newMemArmStore()
	provider := &llm.StubProvider{Response: llm.CompletionResponse{Content: "ok", TokensIn: 10, TokensOut: 20}}
	policy := bandit.NewEpsilonGreedySeeded(0, 1) // epsilon=0, deterministic argmax
	r := NewRouter(testRegistry(), fakeBudget{remaining: 1.0}, arms, policy, provider, config.BudgetConfig{RewardQuality: 0.6, RewardCost: 0.2, RewardLatency: 0.2}, "model_selection")

	res := r.Route(testCtx(), Requirement{EstimatedTokensIn: 10, EstimatedTokensOut: 20}, "hello", nil)
	if res.Status != stepresult.OK {
		t.Fatalf("expected Ok, got %v (err=%v)", res.Status, res.Error)
	}
	decision, ok := res.Data.(Decision)
	if !ok {
		t.Fatalf("expected Decision in result data")
	}
	if decision.ArmID == "" {
		t.Fatalf("expected a selected arm id")
	}

	saved, err := arms.Load(testCtx(), "t1", "model_selection")
	if err != nil {
		t.Fatalf("load after route: %v", err)
	}
	st, ok := saved[decision.ArmID]
	if !ok || st.Pulls != 1 {
		t.Fatalf("expected persisted arm state with 1 pull, got %+v ok=%v", st, ok)
	}
}

func TestRouteFailsClosedWhenNoCandidateSurvivesBudget(t *testing.T) {
	arms := newMemArmStore()
	provider := &llm.StubProvider{}
	policy := bandit.NewUCB1()
	r := NewRouter(testRegistry(), fakeBudget{remaining: 0}, arms, policy, provider, config.BudgetConfig{}, "model_selection")

	res := r.Route(testCtx(), Requirement{EstimatedTokensIn: 1000, EstimatedTokensOut: 1000}, "hello", nil)
	if res.Status != stepresult.Fail {
		t.Fatalf("expected Fail, got %v", res.Status)
	}
	if res.ErrorKind != config.ErrBudgetExceeded {
		t.Fatalf("expected ErrBudgetExceeded, got %v", res.ErrorKind)
	}
}

func TestRouteSurvivesArmPersistenceFailure(t *testing.T) {
	arms := newMemArmStore()
	arms.saveErr = errors.New("write conflict")
	provider := &llm.StubProvider{Response: llm.CompletionResponse{TokensIn: 5, TokensOut: 5}}
	policy := bandit.NewEpsilonGreedySeeded(0, 1)
	r := NewRouter(testRegistry(), fakeBudget{remaining: 1.0}, arms, policy, provider, config.BudgetConfig{RewardQuality: 1}, "model_selection")

	res := r.Route(testCtx(), Requirement{EstimatedTokensIn: 1, EstimatedTokensOut: 1}, "hi", nil)
	if res.Status != stepresult.OK {
		t.Fatalf("arm persistence failure must not fail the routing decision, got %v", res.Status)
	}
}

func TestRouteReportsBackendUnavailableOnProviderError(t *testing.T) {
	arms := newMemArmStore()
	provider := &llm.StubProvider{Err: errors.New("upstream down")}
	policy := bandit.NewEpsilonGreedySeeded(0, 1)
	r := NewRouter(testRegistry(), fakeBudget{remaining: 1.0}, arms, policy, provider, config.BudgetConfig{RewardQuality: 1}, "model_selection")

	res := r.Route(testCtx(), Requirement{EstimatedTokensIn: 1, EstimatedTokensOut: 1}, "hi", nil)
	if res.Status != stepresult.Fail || res.ErrorKind != config.ErrBackendUnavailable {
		t.Fatalf("expected backend_unavailable failure, got status=%v kind=%v", res.Status, res.ErrorKind)
	}
}

func TestBuildCandidateSetFiltersUnavailableAndOverBudget(t *testing.T) {
	registry := StaticRegistry{
		Default: []Candidate{
			{ArmID: "down", Available: false},
			{ArmID: "rich", Available: true, PricePerTokenIn: 1.0},
			{ArmID: "ok", Available: true, PricePerTokenIn: 0.0001, PricePerTokenOut: 0.0001},
		},
	}
	got := BuildCandidateSet(registry, "t1", Requirement{EstimatedTokensIn: 10, EstimatedTokensOut: 10}, config.BudgetConfig{}, 0.01)
	if len(got) != 1 || got[0].ArmID != "ok" {
		t.Fatalf("expected only 'ok' candidate to survive, got %+v", got)
	}
}
