// Package router implements the learning-engine routing decision (C6): build
// candidates, filter by budget and capability, select via a bandit policy,
// execute, compute reward, and persist the update — matching spec §4.6.
package router

import "github.com/fathomhq/mediacore/pkg/config"

// Capability names the gated features a candidate arm may or may not support.
type Capability string

const (
	CapVision       Capability = "vision"
	CapTools        Capability = "tools"
	CapLongContext  Capability = "long_context"
)

// Candidate is one routable arm: a model/provider combination with its
// price and capability profile, drawn from the tenant-scoped registry.
type Candidate struct {
	ArmID             string
	Model             string
	PricePerTokenIn   float64
	PricePerTokenOut  float64
	Capabilities      map[Capability]bool
	Available         bool
}

// Requirement is what a routing decision needs from its chosen arm.
type Requirement struct {
	EstimatedTokensIn  int64
	EstimatedTokensOut int64
	RequiredCaps       []Capability
}

// Registry supplies the tenant-scoped candidate set (spec §4.6 step 1:
// "build candidate set from tenant-scoped registry").
type Registry interface {
	Candidates(tenantID string) []Candidate
}

// StaticRegistry is a fixed in-process Registry, suitable for config-driven
// deployments without a dynamic provider catalog.
type StaticRegistry struct {
	ByTenant map[string][]Candidate
	Default  []Candidate
}

func (r StaticRegistry) Candidates(tenantID string) []Candidate {
	if cs, ok := r.ByTenant[tenantID]; ok {
		return cs
	}
	return r.Default
}

// filterAvailable drops candidates not currently available (circuit open,
// deprovisioned, etc).
func filterAvailable(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if c.Available {
			out = append(out, c)
		}
	}
	return out
}

// filterCapability keeps only candidates supporting every required capability.
func filterCapability(candidates []Candidate, required []Capability) []Candidate {
	if len(required) == 0 {
		return candidates
	}
	var out []Candidate
	for _, c := range candidates {
		ok := true
		for _, req := range required {
			if !c.Capabilities[req] {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, c)
		}
	}
	return out
}

// filterBudget keeps only candidates whose estimated cost fits within the
// tenant window's remaining hard cap (spec §4.6 step 2).
func filterBudget(candidates []Candidate, req Requirement, remainingUSD float64) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		estimated := float64(req.EstimatedTokensIn)*c.PricePerTokenIn + float64(req.EstimatedTokensOut)*c.PricePerTokenOut
		if estimated <= remainingUSD {
			out = append(out, c)
		}
	}
	return out
}

// BuildCandidateSet runs the full candidate-build pipeline (spec §4.6 steps
// 1-3): registry lookup, availability, budget preflight, capability gate.
func BuildCandidateSet(registry Registry, tenantID string, req Requirement, budget config.BudgetConfig, remainingUSD float64) []Candidate {
	candidates := registry.Candidates(tenantID)
	candidates = filterAvailable(candidates)
	candidates = filterBudget(candidates, req, remainingUSD)
	candidates = filterCapability(candidates, req.RequiredCaps)
	return candidates
}
