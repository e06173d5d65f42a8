package wde

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// multiStep is the grid-search step size. It is never refined: the search
// stops at the first round with no improving move, trading a finer local
// optimum for a bounded number of rounds.
const multiStep = 2

// levelState tracks one level's cutoff position during the grid search.
// Prefix sums are precomputed once so that evaluating a moved cutoff is
// O(1).
type levelState struct {
	level    int
	contribs []Contribution
	battaCum []float64
	normCum  []float64
	currK    int // inclusive prefix end; -1 means no candidate selected
	dk       int
}

func newLevelState(level int, contribs []Contribution, currK int) *levelState {
	s := &levelState{level: level, contribs: contribs, currK: currK}
	vals := make([]float64, len(contribs))
	norms := make([]float64, len(contribs))
	for i, c := range contribs {
		vals[i] = c.Value
		norms[i] = c.Coeff2
	}
	s.battaCum = make([]float64, len(vals))
	s.normCum = make([]float64, len(norms))
	floats.CumSum(s.battaCum, vals)
	floats.CumSum(s.normCum, norms)
	return s
}

// dkOK reports whether the tentative move keeps the cutoff in range. The
// empty prefix (-1) is a valid position.
func (s *levelState) dkOK() bool {
	nk := s.currK + s.dk
	return nk >= -1 && nk < len(s.contribs)
}

func (s *levelState) batta() float64 {
	nk := s.currK + s.dk
	if nk < 0 || nk >= len(s.contribs) {
		return 0
	}
	return s.battaCum[nk]
}

func (s *levelState) norm() float64 {
	nk := s.currK + s.dk
	if nk < 0 || nk >= len(s.contribs) {
		return 0
	}
	return s.normCum[nk]
}

func (s *levelState) asResult(target float64) ThresholdResult {
	threshold := math.Inf(1)
	level := s.level
	if s.currK >= 0 {
		threshold = s.contribs[s.currK].OrderKey
	}
	return ThresholdResult{
		Threshold: threshold,
		PosK:      s.currK,
		Target:    target,
		Sorted:    s.contribs,
		Level:     level,
		Msg:       "multi",
	}
}

// multiThreshold refines a single-threshold result into per-level cutoffs
// by coordinate-descent grid search: every round evaluates all 3^L
// combinations of moving each level's cutoff by ±multiStep, accepts the
// best improving combination, and stops at the first round where nothing
// improves. This is a best-effort local optimum, not a global guarantee.
func (e *Estimator) multiThreshold(single ThresholdResult, set contributionSet, loss Loss) []ThresholdResult {
	numLevels := e.cfg.DeltaJ

	// Partition the globally ranked candidates by level. The global order
	// is level-major, so the single-threshold prefix covers all of every
	// level below the crossing level, a leading prefix of the crossing
	// level, and nothing above it.
	included := make([]int, numLevels)
	for i, c := range single.Sorted {
		if i <= single.PosK {
			included[c.Key.Level]++
		}
	}
	levels := make([]*levelState, 0, numLevels)
	for j := 0; j < numLevels; j++ {
		var contribs []Contribution
		for _, c := range single.Sorted {
			if c.Key.Level == j {
				contribs = append(contribs, c)
			}
		}
		levels = append(levels, newLevelState(j, contribs, included[j]-1))
	}

	evalTarget := func() float64 {
		batta := set.alphaContrib
		norm := set.alphaNorm
		for _, s := range levels {
			batta += s.batta()
			norm += s.norm()
		}
		return lossValue(loss, batta, norm)
	}

	for _, s := range levels {
		s.dk = 0
	}
	currentVal := evalTarget()

	combos := 1
	for range levels {
		combos *= 3
	}

	for {
		improved := false
		bestVal := currentVal
		bestDks := make([]int, numLevels)

		for combo := 1; combo < combos; combo++ {
			rem := combo
			allZero := true
			ok := true
			for j := range levels {
				dk := (rem%3 - 1) * multiStep
				rem /= 3
				levels[j].dk = dk
				if dk != 0 {
					allZero = false
				}
			}
			if allZero {
				continue
			}
			for _, s := range levels {
				if !s.dkOK() {
					ok = false
					break
				}
			}
			if !ok {
				continue
			}
			if v := evalTarget(); v < bestVal {
				improved = true
				bestVal = v
				for j, s := range levels {
					bestDks[j] = s.dk
				}
			}
		}

		if !improved {
			break
		}
		for j, s := range levels {
			s.dk = bestDks[j]
			s.currK += s.dk
			s.dk = 0
		}
		currentVal = bestVal
		e.emit(Event{Stage: StageMultiThreshold, Loss: currentVal, Accepted: true})
	}

	results := make([]ThresholdResult, 0, numLevels)
	for _, s := range levels {
		results = append(results, s.asResult(currentVal))
	}
	return results
}
