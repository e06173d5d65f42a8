package wde

import "math"

const (
	// iterSampleFraction caps the accepted coefficient count at this
	// fraction of the sample size.
	iterSampleFraction = 0.99
	// iterMaxLevels bounds the greedy expansion depth.
	iterMaxLevels = 8
)

// selectIterative grows a coefficient set greedily, starting from the
// alpha-only fit. Each round exposes the beta coefficients of the next
// detail levels and repeatedly accepts the single candidate with the best
// marginal improvement of the normed loss, as long as the new loss is
// positive and strictly better. Expansion stops when nothing improves, the
// sample-derived coefficient cap is hit, or the loss falls below a fixed
// fraction of 0.5/n.
//
// Returns the reduced store and the effective expansion depth (one past
// the highest level that contributed an accepted coefficient).
func (e *Estimator) selectIterative() (*CoefficientStore, int) {
	// The expansion touches levels beyond the configured depth; grow a
	// scratch copy so they never leak into the coefficient table shared
	// with the other strategies.
	store := e.store.Subset(e.store.Keys())

	accepted := make(map[Index]bool)
	var keys []Index
	var contrib, norm float64
	for _, ix := range store.Keys() {
		ent, _ := store.Get(ix)
		if !ix.IsAlpha() || ent.Coeff == 0 {
			continue
		}
		c := e.contribution(ix, ent)
		keys = append(keys, ix)
		accepted[ix] = true
		contrib += c.Value
		norm += c.Coeff2
	}
	loss := lossValue(LossNormed, contrib, norm)

	nonZero := quadrants(e.basis.Dims())[1:]
	maxCoeffs := int(iterSampleFraction * float64(e.n))
	floor := 0.5 / float64(e.n)
	maxTouched := -1

	for lvl := 0; lvl < iterMaxLevels; lvl++ {
		for dj := 0; dj < e.cfg.DeltaJ; dj++ {
			e.addIndexes(store, lvl+dj, nonZero)
		}
		e.computePending(store)

		var candidates []Contribution
		for _, ix := range store.Keys() {
			ent, _ := store.Get(ix)
			if ix.IsAlpha() || ix.Level < lvl || accepted[ix] || ent.Coeff == 0 {
				continue
			}
			candidates = append(candidates, e.contribution(ix, ent))
		}
		e.emit(Event{Stage: StageIterative, Level: lvl, Loss: loss, NumCoeffs: len(candidates)})

		improved := false
		capped := false
		for len(candidates) > 0 {
			if len(keys) >= maxCoeffs {
				capped = true
				break
			}

			// Candidate with the best marginal gain of contrib/sqrt(norm).
			best := -1
			bestGain := math.Inf(-1)
			base := contrib / math.Sqrt(norm)
			for i, c := range candidates {
				gain := (contrib+c.Value)/math.Sqrt(norm+c.Coeff2) - base
				if gain > bestGain {
					bestGain = gain
					best = i
				}
			}

			c := candidates[best]
			newLoss := 1 - (contrib+c.Value)/math.Sqrt(norm+c.Coeff2)
			if !(newLoss > 0 && newLoss < loss) {
				e.emit(Event{Stage: StageIterative, Level: c.Key.Level, Loss: newLoss, NumCoeffs: len(keys)})
				break
			}

			improved = true
			contrib += c.Value
			norm += c.Coeff2
			loss = newLoss
			keys = append(keys, c.Key)
			accepted[c.Key] = true
			if c.Key.Level > maxTouched {
				maxTouched = c.Key.Level
			}
			candidates = append(candidates[:best], candidates[best+1:]...)
			e.emit(Event{Stage: StageIterative, Level: c.Key.Level, Loss: loss, Accepted: true, NumCoeffs: len(keys)})
		}

		if capped || !improved || loss < floor/2 {
			break
		}
	}

	return store.Subset(keys), maxTouched + 1
}
