package wde

import (
	"math"
	"sort"
)

// MDLRanking selects how MDL orders beta candidates before the incremental
// description-length walk.
type MDLRanking string

const (
	// MDLByContribution ranks by |contribution| descending.
	MDLByContribution MDLRanking = "contribution"
	// MDLByLevelMagnitude ranks by |coeff|/sqrt(level+1) descending.
	MDLByLevelMagnitude MDLRanking = "level-magnitude"
)

func validMDLRanking(r MDLRanking) bool {
	return r == MDLByContribution || r == MDLByLevelMagnitude
}

// mdlSupportFloor is the minimum number of in-support samples for a beta
// coefficient to be considered reliable enough to enter the MDL ranking.
// Entries below it are treated as level-appropriate zero but stay in the
// store's bookkeeping.
const mdlSupportFloor = 35

// logRiemannVolumeClass is the total Riemannian volume of the model class
// with k parameters: log(2) + (k/2)·log(pi) - logGamma(k/2).
func logRiemannVolumeClass(k int) float64 {
	lg, _ := math.Lgamma(float64(k) / 2)
	return math.Ln2 + float64(k)/2*math.Log(math.Pi) - lg
}

// logRiemannVolumeParam is the Riemannian volume around the estimate with k
// parameters for n samples: (k/2)·log(2*pi/n).
func logRiemannVolumeParam(k, n int) float64 {
	return float64(k) / 2 * math.Log(2*math.Pi/float64(n))
}

// mdlPenalty is the model-complexity penalty for k parameters at sample
// size n.
func mdlPenalty(k, n int) float64 {
	return logRiemannVolumeClass(k) - logRiemannVolumeParam(k, n)
}

// selectMDL ranks beta coefficients, then walks the ranking while
// incrementally reconstructing the density over the samples, choosing the
// prefix length minimizing negative log-likelihood plus the MDL penalty.
// Alphas are always included; candidates whose penalty would be negative
// are never chosen; ties resolve to the smaller prefix. With no eligible
// betas the result is the alpha-only fit.
func (e *Estimator) selectMDL() *CoefficientStore {
	store := e.store
	set := e.computeContributions(store, e.cfg.Ordering)

	// Eligible betas: computed, non-zero, and above the support floor.
	betas := make([]Contribution, 0, len(set.betas))
	for _, c := range set.betas {
		if c.Entry.Support > mdlSupportFloor {
			betas = append(betas, c)
		}
	}

	switch e.cfg.MDLRanking {
	case MDLByLevelMagnitude:
		sort.SliceStable(betas, func(a, b int) bool {
			ka := math.Abs(betas[a].Entry.Coeff) / math.Sqrt(float64(betas[a].Key.Level+1))
			kb := math.Abs(betas[b].Entry.Coeff) / math.Sqrt(float64(betas[b].Key.Level+1))
			return ka > kb
		})
	default:
		sort.SliceStable(betas, func(a, b int) bool {
			return math.Abs(betas[a].Value) > math.Abs(betas[b].Value)
		})
	}

	// Alpha-only baseline: partial sums of the expansion at every sample.
	xsSum := make([]float64, e.n)
	var norm float64
	for _, ix := range set.alphaKeys {
		ent, _ := store.Get(ix)
		vals := e.basis.Eval(Base, ix, e.data, e.n)
		for i := range xsSum {
			xsSum[i] += ent.Coeff * vals[i]
		}
		norm += ent.Coeff * ent.CoeffB
	}

	negLL := func() float64 {
		if norm <= 0 {
			return math.Inf(1)
		}
		var sum float64
		for i := range xsSum {
			p := xsSum[i] * xsSum[i] / norm
			if p <= 0 {
				return math.Inf(1)
			}
			sum -= math.Log(p)
		}
		return sum
	}

	numAlphas := len(set.alphaKeys)
	bestScore := negLL() + mdlPenalty(numAlphas, e.n)
	bestPrefix := 0
	e.emit(Event{Stage: StageMDL, Loss: bestScore, NumCoeffs: numAlphas})

	for i, c := range betas {
		vals := e.basis.Eval(Base, c.Key, e.data, e.n)
		for j := range xsSum {
			xsSum[j] += c.Entry.Coeff * vals[j]
		}
		norm += c.Coeff2

		k := numAlphas + i + 1
		penalty := mdlPenalty(k, e.n)
		if penalty < 0 {
			e.emit(Event{Stage: StageMDL, Level: c.Key.Level, NumCoeffs: k})
			continue
		}
		score := negLL() + penalty
		accepted := score < bestScore
		if accepted {
			bestScore = score
			bestPrefix = i + 1
		}
		e.emit(Event{Stage: StageMDL, Level: c.Key.Level, Loss: score, Accepted: accepted, NumCoeffs: k})
	}

	keys := make([]Index, 0, numAlphas+bestPrefix)
	keys = append(keys, set.alphaKeys...)
	for _, c := range betas[:bestPrefix] {
		keys = append(keys, c.Key)
	}
	return store.Subset(keys)
}
