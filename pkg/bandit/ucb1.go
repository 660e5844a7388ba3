package bandit

import "math"

// UCB1 picks argmax(mean + sqrt(2 ln N / n_arm)) per spec §4.6. Arms with
// zero pulls are given infinite score so every arm is tried at least once.
type UCB1 struct{}

func NewUCB1() *UCB1 { return &UCB1{} }

func (p *UCB1) Select(arms map[string]ArmState, contextVec []float64) string {
	ids := sortedArmIDs(arms)
	total := 0
	for _, id := range ids {
		total += arms[id].Pulls
	}
	return argmax(ids, func(id string) float64 {
		a := arms[id]
		if a.Pulls == 0 {
			return math.Inf(1)
		}
		return a.mean() + math.Sqrt(2*math.Log(float64(total))/float64(a.Pulls))
	})
}

func (p *UCB1) Update(arms map[string]ArmState, armID string, reward float64, contextVec []float64) ArmState {
	a := arms[armID]
	a.ArmID = armID
	a.Pulls++
	a.RewardSum += reward
	a.RewardSqSum += reward * reward
	return a
}
