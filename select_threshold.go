package wde

import (
	"gonum.org/v1/gonum/floats"
)

// ThresholdPoint is one evaluated prefix during threshold selection: the
// candidate's ordering key, the loss achieved by keeping every candidate up
// to and including it, and the candidate's level.
type ThresholdPoint struct {
	Threshold float64
	Target    float64
	Level     int
}

// ThresholdResult describes one threshold choice: the selected ordering-key
// cutoff, its rank position, the achieved loss, the full evaluated curve
// and the ranked candidate list it was computed from (reused by the
// multi-level refinement).
type ThresholdResult struct {
	Threshold float64
	PosK      int
	Target    float64
	Points    []ThresholdPoint
	Sorted    []Contribution
	Level     int
	Msg       string
}

// singleThreshold walks the level-major ranked candidates, accumulating the
// running Bhattacharyya and norm sums on top of the alpha baseline, and
// picks the prefix minimizing the loss. The chosen rank is clamped to a
// sample-size-derived cap (n minus the alpha count) and to the last valid
// index. betas are sorted in place.
func (e *Estimator) singleThreshold(set contributionSet, loss Loss) ThresholdResult {
	if len(set.betas) == 0 {
		return ThresholdResult{PosK: -1, Target: 1.0, Level: -1, Msg: "no betas"}
	}

	sortLevelMajor(set.betas)

	contribs := make([]float64, len(set.betas))
	norms := make([]float64, len(set.betas))
	for i, c := range set.betas {
		contribs[i] = c.Value
		norms[i] = c.Coeff2
	}
	battaCum := make([]float64, len(contribs))
	normCum := make([]float64, len(norms))
	floats.CumSum(battaCum, contribs)
	floats.CumSum(normCum, norms)

	points := make([]ThresholdPoint, len(set.betas))
	targets := make([]float64, len(set.betas))
	for i := range set.betas {
		target := lossValue(loss, set.alphaContrib+battaCum[i], set.alphaNorm+normCum[i])
		targets[i] = target
		points[i] = ThresholdPoint{
			Threshold: set.betas[i].OrderKey,
			Target:    target,
			Level:     set.betas[i].Key.Level,
		}
	}

	// floats.MinIdx returns the first minimum, so ties already resolve to
	// the smaller prefix.
	posK := floats.MinIdx(targets)
	if cap := e.n - len(set.alphaKeys); posK > cap {
		posK = cap
	}
	if posK > len(set.betas)-1 {
		posK = len(set.betas) - 1
	}

	res := ThresholdResult{
		Threshold: set.betas[posK].OrderKey,
		PosK:      posK,
		Target:    targets[posK],
		Points:    points,
		Sorted:    set.betas,
		Level:     set.betas[posK].Key.Level,
		Msg:       "all levels",
	}
	e.emit(Event{Stage: StageSingleThreshold, Level: res.Level, Loss: res.Target, Accepted: true, NumCoeffs: posK + 1})
	return res
}
