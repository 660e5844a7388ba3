package bandit

import "math"

// LinUCB runs per-arm ridge regression on the context vector and selects
// argmax(θᵀx + α·√(xᵀA⁻¹x)) per spec §4.6.
type LinUCB struct {
	Alpha  float64
	Lambda float64
	Dim    int
}

// NewLinUCB builds a LinUCB policy. dim is the context-vector dimension,
// fixed for the lifetime of the policy (every arm shares the same feature
// space).
func NewLinUCB(alpha, lambda float64, dim int) *LinUCB {
	return &LinUCB{Alpha: alpha, Lambda: lambda, Dim: dim}
}

func (p *LinUCB) initArm(a ArmState) ArmState {
	if a.ContextA == nil {
		lambdaI := newIdentity(p.Dim)
		for i := range lambdaI {
			lambdaI[i][i] *= p.Lambda
		}
		a.ContextA = lambdaI
		a.ContextB = newZeroVec(p.Dim)
	}
	return a
}

func (p *LinUCB) Select(arms map[string]ArmState, contextVec []float64) string {
	ids := sortedArmIDs(arms)
	return argmax(ids, func(id string) float64 {
		a := p.initArm(arms[id])
		inv := matrix(a.ContextA).inverse()
		theta := inv.mulVec(a.ContextB)
		mean := dot(theta, contextVec)
		bonus := p.Alpha * math.Sqrt(math.Max(0, dot(contextVec, inv.mulVec(contextVec))))
		return mean + bonus
	})
}

func (p *LinUCB) Update(arms map[string]ArmState, armID string, reward float64, contextVec []float64) ArmState {
	a := p.initArm(arms[armID])
	a.ArmID = armID
	a.Pulls++
	a.RewardSum += reward
	a.RewardSqSum += reward * reward
	a.ContextA = matrix(a.ContextA).add(outer(contextVec))
	for i := range a.ContextB {
		a.ContextB[i] += reward * contextVec[i]
	}
	return a
}
