package wde

import (
	"fmt"
	"math"
)

// LevelMode selects the scoring rule used by the leave-one-out level
// search.
type LevelMode string

const (
	// LevelUnnormed scores the raw leave-one-out Bhattacharyya sum.
	LevelUnnormed LevelMode = "unnormed"
	// LevelNormed normalizes each leave-one-out density before scoring.
	LevelNormed LevelMode = "normed"
	// LevelDiff scores twice the unnormalized sum minus the squared alpha
	// norm.
	LevelDiff LevelMode = "diff"
	// LevelMDL subtracts an n-sphere surface/volume complexity ratio from
	// the normalized score.
	LevelMDL LevelMode = "mdl"
)

func validLevelMode(m LevelMode) bool {
	switch m {
	case LevelUnnormed, LevelNormed, LevelDiff, LevelMDL:
		return true
	}
	return false
}

// LevelScore is one candidate level's score in a level search.
type LevelScore struct {
	Level     int
	Score     float64
	NumCoeffs int
}

// LevelSearchResult holds the outcome of BestLevel: the argmax level and
// every level's score.
type LevelSearchResult struct {
	Best   int
	Scores []LevelScore
}

// sphereSurface is the surface of the n-sphere for p parameters:
// 2*pi^((p+1)/2) / Gamma((p+1)/2).
func sphereSurface(p int) float64 {
	return 2 * math.Pow(math.Pi, float64(p+1)/2) / math.Gamma(float64(p+1)/2)
}

// sphereParamVolume is the volume element around the estimate for n samples
// and p parameters: (2*pi/n)^(p/2).
func sphereParamVolume(n, p int) float64 {
	return math.Pow(2*math.Pi/float64(n), float64(p)/2)
}

// BestLevel searches for the scaling level whose alpha-only fit maximizes a
// leave-one-out cross-validation score: for every level up to maxLevel, it
// refits the alpha coefficients without each sample in turn (using the
// adjusted ball volumes) and accumulates the score of the held-out sample.
// Returns the argmax level and the per-level score table.
func (e *Estimator) BestLevel(data [][]float64, mode LevelMode, maxLevel int) (*LevelSearchResult, error) {
	if !validLevelMode(mode) {
		return nil, fmt.Errorf("%w: unknown level mode %q", ErrInvalidConfig, mode)
	}
	if maxLevel < 0 {
		return nil, fmt.Errorf("%w: maxLevel must be >= 0, got %d", ErrInvalidConfig, maxLevel)
	}
	if err := e.prepareSamples(data); err != nil {
		return nil, err
	}

	d := e.basis.Dims()
	n := e.n
	k := e.cfg.K
	om := omega(n, k)
	omNoI := omega(n-1, k)
	var zeroQuad Quadrant

	// Adjusted ball volumes per held-out sample, shared across levels.
	adjVols := make([][]float64, n)
	for i := 0; i < n; i++ {
		adjVols[i] = e.balls.Excluding(i)
	}

	result := &LevelSearchResult{Best: -1}
	bestScore := math.Inf(-1)

	for j := 0; j <= maxLevel; j++ {
		loD, hiD := e.basis.ShiftRange(Dual, j, zeroQuad, e.minx, e.maxx)
		loB, hiB := e.basis.ShiftRange(Base, j, zeroQuad, e.minx, e.maxx)
		lo := make([]int, d)
		hi := make([]int, d)
		for ax := 0; ax < d; ax++ {
			lo[ax] = min(loD[ax], loB[ax])
			hi[ax] = max(hiD[ax], hiB[ax])
		}

		var keys []Index
		forEachShift(lo, hi, func(z Shift) {
			keys = append(keys, Index{Level: j, Quad: zeroQuad, Shift: z})
		})

		dualVals := make([][]float64, len(keys))
		baseVals := make([][]float64, len(keys))
		forEachRange(e.cfg.Workers, len(keys), func(start, end int) {
			for zi := start; zi < end; zi++ {
				dualVals[zi] = e.basis.Eval(Dual, keys[zi], e.data, n)
				baseVals[zi] = e.basis.Eval(Base, keys[zi], e.data, n)
			}
		})

		// Full-sample alpha norm, needed by the diff mode.
		var alphas2 float64
		if mode == LevelDiff {
			for zi := range keys {
				var a float64
				for i := 0; i < n; i++ {
					a += dualVals[zi][i] * e.balls.SqrtVolK[i]
				}
				a *= om
				alphas2 += a * a
			}
		}

		var total float64
		degenerate := false
		for i := 0; i < n && !degenerate; i++ {
			vols := adjVols[i]
			var g, norm2 float64
			for zi := range keys {
				// Leave-one-out alpha: drop sample i's own term from the
				// full weighted sum instead of re-summing n-1 terms.
				var a float64
				for ii := 0; ii < n; ii++ {
					a += dualVals[zi][ii] * vols[ii]
				}
				a = omNoI * (a - dualVals[zi][i]*vols[i])
				g += a * baseVals[zi][i]
				norm2 += a * a
			}
			var fi float64
			switch {
			case norm2 == 0 && g == 0:
				fi = 0
			case norm2 == 0:
				degenerate = true
			case mode == LevelNormed || mode == LevelMDL:
				fi = g * g / norm2
			default: // unnormed, diff
				fi = g * g
			}
			total += math.Sqrt(fi) * e.balls.SqrtVolK[i]
		}
		if degenerate {
			return nil, fmt.Errorf("%w: leave-one-out fit at level %d has value but zero norm", ErrDegenerateNorm, j)
		}

		score := om * total
		switch mode {
		case LevelDiff:
			score = 2*score - alphas2
		case LevelMDL:
			score -= sphereSurface(len(keys)) / sphereParamVolume(n, len(keys))
		}

		result.Scores = append(result.Scores, LevelScore{Level: j, Score: score, NumCoeffs: len(keys)})
		e.emit(Event{Stage: StageBestLevel, Level: j, Loss: score, NumCoeffs: len(keys)})
		if score > bestScore {
			bestScore = score
			result.Best = j
		}
	}

	return result, nil
}
