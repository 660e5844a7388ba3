package router

import (
	"context"
	"fmt"
	"time"

	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/config"
	"github.com/fathomhq/mediacore/pkg/llm"
	"github.com/fathomhq/mediacore/pkg/stepresult"
	"github.com/fathomhq/mediacore/pkg/tenant"
)

// BudgetSource reports a tenant window's remaining hard cap, consulted
// during the budget-preflight filter, and records spend after a completed
// call so later preflights see it.
type BudgetSource interface {
	RemainingUSD(ctx context.Context, tenantID string) (float64, error)
	RecordSpend(ctx context.Context, tenantID string, amountUSD float64) error
}

// ArmStore persists BanditArm state across router decisions and process
// restarts (spec §4.6 step 6: "persist arm state").
type ArmStore interface {
	Load(ctx context.Context, tenantID, domain string) (map[string]bandit.ArmState, error)
	Save(ctx context.Context, tenantID, domain string, arms map[string]bandit.ArmState) error
}

// Decision is the full record of one routing call, useful for logging and
// the experiment harness's bakeoff report.
type Decision struct {
	ArmID     string
	Response  llm.CompletionResponse
	Reward    float64
	LatencyMS int64
}

// Router implements the C6 routing flow: candidate build -> budget
// preflight -> capability gate -> policy select -> execute -> reward
// compute -> update.
type Router struct {
	registry Registry
	budget   BudgetSource
	arms     ArmStore
	policy   bandit.Policy
	provider llm.Provider
	cfg      config.BudgetConfig
	domain   string // e.g. "model_selection" — arms are persisted per domain
}

// NewRouter builds a Router for one routing domain (e.g. model selection vs
// prompt-variant selection each get their own Router/domain/arm set).
func NewRouter(registry Registry, budget BudgetSource, arms ArmStore, policy bandit.Policy, provider llm.Provider, cfg config.BudgetConfig, domain string) *Router {
	return &Router{registry: registry, budget: budget, arms: arms, policy: policy, provider: provider, cfg: cfg, domain: domain}
}

// Route executes one routing decision end to end, returning a StepResult per
// this module's cross-component contract.
func (r *Router) Route(ctx context.Context, req Requirement, prompt string, contextVec []float64) stepresult.Result {
	scope, err := tenant.From(ctx)
	if err != nil {
		return stepresult.Failf(config.ErrInternal, err)
	}

	remaining, err := r.budget.RemainingUSD(ctx, scope.Tenant)
	if err != nil {
		return stepresult.Failf(config.ErrBudgetExceeded, fmt.Errorf("router: load remaining budget: %w", err))
	}

	candidates := BuildCandidateSet(r.registry, scope.Tenant, req, r.cfg, remaining)
	if len(candidates) == 0 {
		return stepresult.Failf(config.ErrBudgetExceeded, fmt.Errorf("router: no candidate arm survives budget/capability filters"))
	}

	arms, err := r.arms.Load(ctx, scope.Tenant, r.domain)
	if err != nil {
		arms = make(map[string]bandit.ArmState) // policy persistence failure is non-fatal (spec §4.6)
	}
	for _, c := range candidates {
		if _, ok := arms[c.ArmID]; !ok {
			arms[c.ArmID] = bandit.ArmState{ArmID: c.ArmID}
		}
	}
	survivorArms := onlySurvivors(arms, candidates)

	selectedID := r.policy.Select(survivorArms, contextVec)
	selected := findCandidate(candidates, selectedID)
	if selected == nil {
		return stepresult.Failf(config.ErrInternal, fmt.Errorf("router: policy selected unknown arm %q", selectedID))
	}

	start := time.Now()
	resp, callErr := r.provider.Complete(ctx, llm.CompletionRequest{Model: selected.Model, Prompt: prompt})
	latency := time.Since(start)

	reward := r.computeReward(resp, callErr, latency, selected)
	updated := r.policy.Update(arms, selectedID, reward, contextVec)
	arms[selectedID] = updated

	if err := r.arms.Save(ctx, scope.Tenant, r.domain, arms); err != nil {
		// non-fatal: in-memory state continues even if persistence fails
		_ = err
	}

	if callErr == nil {
		cost := float64(resp.TokensIn)*selected.PricePerTokenIn + float64(resp.TokensOut)*selected.PricePerTokenOut
		if err := r.budget.RecordSpend(ctx, scope.Tenant, cost); err != nil {
			// non-fatal: a missed spend record only delays budget enforcement
			_ = err
		}
	}

	decision := Decision{ArmID: selectedID, Response: resp, Reward: reward, LatencyMS: latency.Milliseconds()}
	if callErr != nil {
		return stepresult.Result{
			Status:    stepresult.Fail,
			Data:      decision,
			Error:     callErr,
			ErrorKind: config.ErrBackendUnavailable,
		}
	}
	return stepresult.Ok(decision)
}

// computeReward implements spec §4.6 step 5: weighted combination of
// quality, cost, and latency, clipped to [0,1]. Call failures use the floor
// reward (0) per spec's failure semantics.
func (r *Router) computeReward(resp llm.CompletionResponse, callErr error, latency time.Duration, c *Candidate) float64 {
	if callErr != nil {
		return 0
	}
	cost := float64(resp.TokensIn)*c.PricePerTokenIn + float64(resp.TokensOut)*c.PricePerTokenOut
	quality := 1.0 // without an explicit quality signal, treat a successful call as full quality
	costTerm := safeInverse(cost)
	latencyTerm := safeInverse(latency.Seconds())

	reward := r.cfg.RewardQuality*quality + r.cfg.RewardCost*costTerm + r.cfg.RewardLatency*latencyTerm
	return clip01(reward)
}

func safeInverse(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return 1 / v
}

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func findCandidate(candidates []Candidate, armID string) *Candidate {
	for i := range candidates {
		if candidates[i].ArmID == armID {
			return &candidates[i]
		}
	}
	return nil
}

func onlySurvivors(arms map[string]bandit.ArmState, candidates []Candidate) map[string]bandit.ArmState {
	survivors := make(map[string]bandit.ArmState, len(candidates))
	for _, c := range candidates {
		if a, ok := arms[c.ArmID]; ok {
			survivors[c.ArmID] = a
		}
	}
	return survivors
}
