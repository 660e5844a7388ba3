package bandit

import (
	"math"
	"math/rand"
	"time"
)

// LinTS samples θ from the ridge-regression posterior N(θ̂, v²A⁻¹) and
// selects argmax(θᵀx) per spec §4.6.
type LinTS struct {
	Variance float64
	Lambda   float64
	Dim      int
	rng      *rand.Rand
}

// NewLinTS builds a LinTS policy over the given context dimension.
func NewLinTS(variance, lambda float64, dim int) *LinTS {
	return &LinTS{Variance: variance, Lambda: lambda, Dim: dim, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewLinTSSeeded is the deterministic-seed variant for tests.
func NewLinTSSeeded(variance, lambda float64, dim int, seed int64) *LinTS {
	return &LinTS{Variance: variance, Lambda: lambda, Dim: dim, rng: rand.New(rand.NewSource(seed))}
}

func (p *LinTS) initArm(a ArmState) ArmState {
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

func (p *LinTS) Select(arms map[string]ArmState, contextVec []float64) string {
	ids := sortedArmIDs(arms)
	return argmax(ids, func(id string) float64 {
		a := p.initArm(arms[id])
		inv := matrix(a.ContextA).inverse()
		mean := inv.mulVec(a.ContextB)
		theta := p.sampleTheta(mean, inv)
		return dot(theta, contextVec)
	})
}

// sampleTheta draws θ ~ N(mean, variance·A⁻¹) via a cheap diagonal
// approximation of the covariance (no Cholesky library in the pack): each
// component is perturbed independently by its marginal variance from the
// diagonal of A⁻¹, which is the standard LinTS simplification used when a
// full multivariate normal sampler isn't available.
func (p *LinTS) sampleTheta(mean []float64, covInv matrix) []float64 {
	theta := make([]float64, len(mean))
	for i := range mean {
		stddev := math.Sqrt(math.Max(0, p.Variance*covInv[i][i]))
		theta[i] = mean[i] + p.rng.NormFloat64()*stddev
	}
	return theta
}

func (p *LinTS) Update(arms map[string]ArmState, armID string, reward float64, contextVec []float64) ArmState {
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
