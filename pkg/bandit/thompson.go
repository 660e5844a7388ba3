package bandit

import (
	"math"
	"math/rand"
	"time"
)

// RewardModel selects which posterior Thompson sampling draws from.
type RewardModel string

const (
	RewardBounded    RewardModel = "beta_bernoulli" // rewards in [0,1]
	RewardContinuous RewardModel = "gaussian"
)

// Thompson implements posterior sampling for both bounded (Beta-Bernoulli)
// and continuous (Gaussian) reward models, selected by Model.
type Thompson struct {
	Model RewardModel
	rng   *rand.Rand
}

// NewThompson builds a Thompson-sampling policy for the given reward model.
func NewThompson(model RewardModel) *Thompson {
	return &Thompson{Model: model, rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// NewThompsonSeeded is the deterministic-seed variant for tests.
func NewThompsonSeeded(model RewardModel, seed int64) *Thompson {
	return &Thompson{Model: model, rng: rand.New(rand.NewSource(seed))}
}

func (p *Thompson) Select(arms map[string]ArmState, contextVec []float64) string {
	ids := sortedArmIDs(arms)
	return argmax(ids, func(id string) float64 { return p.sample(arms[id]) })
}

func (p *Thompson) sample(a ArmState) float64 {
	switch p.Model {
	case RewardContinuous:
		return p.sampleGaussian(a)
	default:
		return p.sampleBeta(a)
	}
}

// sampleBeta draws from Beta(successes+1, failures+1), treating reward as
// the Bernoulli success probability (rewards in [0,1] are interpreted as
// fractional successes, matching spec's "bounded rewards" framing).
func (p *Thompson) sampleBeta(a ArmState) float64 {
	alpha := a.RewardSum + 1
	beta := float64(a.Pulls) - a.RewardSum + 1
	return sampleBetaDist(p.rng, alpha, beta)
}

// sampleGaussian draws from Normal(mean, variance/pulls), a normal-normal
// conjugate posterior over the arm's mean reward.
func (p *Thompson) sampleGaussian(a ArmState) float64 {
	if a.Pulls == 0 {
		return p.rng.NormFloat64() * 1e3 // wide prior: untried arms sample broadly
	}
	mean := a.mean()
	variance := a.RewardSqSum/float64(a.Pulls) - mean*mean
	if variance < 0 {
		variance = 0
	}
	stddev := math.Sqrt(variance / float64(a.Pulls))
	if stddev == 0 {
		stddev = 1e-6
	}
	return mean + p.rng.NormFloat64()*stddev
}

func (p *Thompson) Update(arms map[string]ArmState, armID string, reward float64, contextVec []float64) ArmState {
	a := arms[armID]
	a.ArmID = armID
	a.Pulls++
	a.RewardSum += reward
	a.RewardSqSum += reward * reward
	return a
}

// sampleBetaDist draws from Beta(alpha, beta) via two Gamma draws, since
// math/rand has no native Beta distribution.
func sampleBetaDist(rng *rand.Rand, alpha, beta float64) float64 {
	x := sampleGamma(rng, alpha)
	y := sampleGamma(rng, beta)
	if x+y == 0 {
		return 0.5
	}
	return x / (x + y)
}

// sampleGamma implements Marsaglia-Tsang for shape >= 1, falling back to the
// boost-by-one identity for shape < 1.
func sampleGamma(rng *rand.Rand, shape float64) float64 {
	if shape < 1 {
		u := rng.Float64()
		return sampleGamma(rng, shape+1) * math.Pow(u, 1/shape)
	}
	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9*d)
	for {
		x := rng.NormFloat64()
		v := 1 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := rng.Float64()
		if u < 1-0.0331*x*x*x*x {
			return d * v
		}
		if math.Log(u) < 0.5*x*x+d*(1-v+math.Log(v)) {
			return d * v
		}
	}
}
