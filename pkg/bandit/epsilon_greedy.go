package bandit

import (
	"math/rand"
	"time"
)

// EpsilonGreedy explores uniformly at random with probability Epsilon and
// otherwise exploits the current best-mean arm. Epsilon may be decayed
// externally by constructing a fresh policy per round with a smaller value.
type EpsilonGreedy struct {
	Epsilon float64
	rng     *rand.Rand
}

// NewEpsilonGreedy builds a policy with the given exploration probability.
func NewEpsilonGreedy(epsilon float64) *EpsilonGreedy {
	return &EpsilonGreedy{Epsilon: epsilon, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewEpsilonGreedySeeded builds a policy with a fixed seed, for deterministic tests.
func NewEpsilonGreedySeeded(epsilon float64, seed int64) *EpsilonGreedy {
	return &EpsilonGreedy{Epsilon: epsilon, rng: rand.New(rand.NewSource(seed))}
}

func (p *EpsilonGreedy) Select(arms map[string]ArmState, contextVec []float64) string {
	ids := sortedArmIDs(arms)
	if len(ids) == 0 {
		return ""
	}
	if p.rng.Float64() < p.Epsilon {
		return ids[p.rng.Intn(len(ids))]
	}
	return argmax(ids, func(id string) float64 { return arms[id].mean() })
}

func (p *EpsilonGreedy) Update(arms map[string]ArmState, armID string, reward float64, contextVec []float64) ArmState {
	a := arms[armID]
	a.ArmID = armID
	a.Pulls++
	a.RewardSum += reward
	a.RewardSqSum += reward * reward
	return a
}
