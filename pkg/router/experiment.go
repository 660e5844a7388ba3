package router

import (
	"context"
	"hash/fnv"
	"math"
	"sync"
	"time"

	"github.com/fathomhq/mediacore/pkg/bandit"
	"github.com/fathomhq/mediacore/pkg/llm"
)

// TrafficSplit routes a (tenant, request_id) pair deterministically between
// a control and candidate policy via a stable hash (spec §4.6 experiment
// harness), so repeated calls for the same request always land in the same
// arm of the experiment.
type TrafficSplit struct {
	CandidateFraction float64 // in [0,1]; fraction of traffic routed to the candidate
}

// UseCandidate reports whether this (tenant, requestID) pair falls in the
// candidate bucket.
func (t TrafficSplit) UseCandidate(tenantID, requestID string) bool {
	h := fnv.New64a()
	h.Write([]byte(tenantID))
	h.Write([]byte(":"))
	h.Write([]byte(requestID))
	bucket := float64(h.Sum64()%10000) / 10000.0
	return bucket < t.CandidateFraction
}

// ShadowObservation records one shadow-mode decision: the candidate policy's
// hypothetical choice and reward, computed but never executed against a
// real provider.
type ShadowObservation struct {
	ArmID  string
	Reward float64
}

// BakeoffRecorder accumulates shadow observations per arm/policy for later
// comparison (spec §4.6: "mean, variance, confidence interval of reward per
// arm/policy").
type BakeoffRecorder struct {
	mu   sync.Mutex
	byArm map[string][]float64
}

// NewBakeoffRecorder builds an empty recorder.
func NewBakeoffRecorder() *BakeoffRecorder {
	return &BakeoffRecorder{byArm: make(map[string][]float64)}
}

// Record appends an observed (possibly shadow) reward for an arm.
func (b *BakeoffRecorder) Record(ctx context.Context, obs ShadowObservation) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.byArm[obs.ArmID] = append(b.byArm[obs.ArmID], obs.Reward)
}

// ArmStats is the summary spec's bakeoff report needs for one arm.
type ArmStats struct {
	ArmID      string
	Count      int
	Mean       float64
	Variance   float64
	CI95Low    float64
	CI95High   float64
}

// Report computes ArmStats for every arm observed so far.
func (b *BakeoffRecorder) Report() []ArmStats {
	b.mu.Lock()
	defer b.mu.Unlock()

	var stats []ArmStats
	for armID, rewards := range b.byArm {
		stats = append(stats, summarize(armID, rewards))
	}
	return stats
}

func summarize(armID string, rewards []float64) ArmStats {
	n := len(rewards)
	if n == 0 {
		return ArmStats{ArmID: armID}
	}
	var sum float64
	for _, r := range rewards {
		sum += r
	}
	mean := sum / float64(n)

	var sqDiff float64
	for _, r := range rewards {
		d := r - mean
		sqDiff += d * d
	}
	variance := 0.0
	if n > 1 {
		variance = sqDiff / float64(n-1)
	}

	stderr := math.Sqrt(variance / float64(n))
	margin := 1.96 * stderr // normal approximation, adequate at the sample sizes this reports over

	return ArmStats{
		ArmID:    armID,
		Count:    n,
		Mean:     mean,
		Variance: variance,
		CI95Low:  mean - margin,
		CI95High: mean + margin,
	}
}

// ShadowRouter runs the candidate policy's selection and reward computation
// without executing a provider call or persisting arm state — used for the
// experiment harness's shadow mode (spec §4.6: "shadow mode runs candidate
// offline, decision computed, not used").
type ShadowRouter struct {
	router *Router
}

// NewShadowRouter wraps an existing Router for shadow evaluation.
func NewShadowRouter(router *Router) *ShadowRouter {
	return &ShadowRouter{router: router}
}

// Evaluate selects an arm the same way Route would, then scores it against
// a caller-supplied hypothetical outcome instead of a live completion.
func (s *ShadowRouter) Evaluate(ctx context.Context, tenantID string, req Requirement, contextVec []float64, remainingUSD float64, hypotheticalTokensIn, hypotheticalTokensOut int32, hypotheticalLatencySeconds float64) (ShadowObservation, error) {
	candidates := BuildCandidateSet(s.router.registry, tenantID, req, s.router.cfg, remainingUSD)
	if len(candidates) == 0 {
		return ShadowObservation{}, nil
	}

	arms, err := s.router.arms.Load(ctx, tenantID, s.router.domain)
	if err != nil {
		arms = make(map[string]bandit.ArmState)
	}
	for _, c := range candidates {
		if _, ok := arms[c.ArmID]; !ok {
			arms[c.ArmID] = bandit.ArmState{ArmID: c.ArmID}
		}
	}

	selectedID := s.router.policy.Select(onlySurvivors(arms, candidates), contextVec)
	selected := findCandidate(candidates, selectedID)
	if selected == nil {
		return ShadowObservation{}, nil
	}

	resp := llm.CompletionResponse{TokensIn: hypotheticalTokensIn, TokensOut: hypotheticalTokensOut}
	latency := time.Duration(hypotheticalLatencySeconds * float64(time.Second))
	reward := s.router.computeReward(resp, nil, latency, selected)
	return ShadowObservation{ArmID: selectedID, Reward: reward}, nil
}
