// Package bandit implements the multi-armed bandit policies used by the
// learning-engine router (C6): ε-greedy, Thompson sampling, UCB1, LinUCB,
// and LinTS, all sharing the Policy interface from spec §4.6.
package bandit

import "sort"

// ArmState is the persisted BanditArm record from spec §3, versioned so
// policies survive process restarts.
type ArmState struct {
	ArmID       string
	Pulls       int
	RewardSum   float64
	RewardSqSum float64

	// Contextual-policy state (LinUCB/LinTS only): A is the ridge design
	// matrix (starts at λI), B is the cumulative reward-weighted context
	// vector. θ = A⁻¹B is derived on demand rather than stored, so A and B
	// remain the single source of truth callers persist.
	ContextA [][]float64
	ContextB []float64
}

func (a ArmState) mean() float64 {
	if a.Pulls == 0 {
		return 0
	}
	return a.RewardSum / float64(a.Pulls)
}

// Policy is the common interface every bandit strategy implements (spec
// §4.6): select an arm given an optional context vector, then update its
// state with an observed reward.
type Policy interface {
	Select(arms map[string]ArmState, contextVec []float64) string
	Update(arms map[string]ArmState, armID string, reward float64, contextVec []float64) ArmState
}

// sortedArmIDs returns arm ids in deterministic ascending order, the
// tiebreak rule spec §4.6 requires ("ties in argmax broken by lowest arm id
// for reproducibility").
func sortedArmIDs(arms map[string]ArmState) []string {
	ids := make([]string, 0, len(arms))
	for id := range arms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// argmax picks the arm id with the highest score(id); ties broken by lowest
// id since sortedArmIDs already yields ascending order and the first
// encountered max wins.
func argmax(ids []string, score func(string) float64) string {
	if len(ids) == 0 {
		return ""
	}
	best := ids[0]
	bestScore := score(ids[0])
	for _, id := range ids[1:] {
		if s := score(id); s > bestScore {
			best, bestScore = id, s
		}
	}
	return best
}
