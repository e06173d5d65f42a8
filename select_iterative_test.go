package wde

import (
	"testing"
)

func TestSelectIterativeKeepsAlphas(t *testing.T) {
	e := preparedEstimator(t, 300, 2, Config{Basis: NewHaar([]int{0, 0}), DeltaJ: 1, Workers: 2}, 131)

	reduced, depth := e.selectIterative()
	if depth < 0 || depth > iterMaxLevels {
		t.Fatalf("effective depth %d out of range", depth)
	}

	full := e.Coefficients()
	if reduced.NumAlphas() != full.NumAlphas() {
		t.Errorf("reduced has %d alphas, full has %d", reduced.NumAlphas(), full.NumAlphas())
	}
	if max := int(iterSampleFraction * float64(e.n)); reduced.Len() > max {
		t.Errorf("reduced store has %d entries, cap is %d", reduced.Len(), max)
	}
}

func TestSelectIterativeDepthCoversAcceptedLevels(t *testing.T) {
	e := preparedEstimator(t, 400, 2, Config{Basis: NewHaar([]int{0, 0}), DeltaJ: 1, Workers: 2}, 137)

	reduced, depth := e.selectIterative()
	for _, ix := range reduced.Keys() {
		if ix.IsAlpha() {
			continue
		}
		if ix.Level >= depth {
			t.Errorf("accepted level %d but reported depth %d", ix.Level, depth)
		}
	}
}

func TestSelectIterativeImprovesAlphaLoss(t *testing.T) {
	e := preparedEstimator(t, 400, 2, Config{Basis: NewHaar([]int{0, 0}), DeltaJ: 1, Workers: 2}, 139)

	var alphaContrib, alphaNorm float64
	for _, ix := range e.Coefficients().Keys() {
		ent, _ := e.Coefficients().Get(ix)
		if !ix.IsAlpha() || ent.Coeff == 0 {
			continue
		}
		c := e.contribution(ix, ent)
		alphaContrib += c.Value
		alphaNorm += c.Coeff2
	}
	alphaLoss := lossValue(LossNormed, alphaContrib, alphaNorm)

	reduced, _ := e.selectIterative()
	var contrib, norm float64
	for _, ix := range reduced.Keys() {
		ent, _ := reduced.Get(ix)
		c := e.contribution(ix, ent)
		contrib += c.Value
		norm += c.Coeff2
	}
	finalLoss := lossValue(LossNormed, contrib, norm)

	if finalLoss > alphaLoss+1e-12 {
		t.Errorf("iterative loss %v worse than alpha-only %v", finalLoss, alphaLoss)
	}
}

func TestSelectIterativeLeavesSharedStoreUntouched(t *testing.T) {
	e := preparedEstimator(t, 300, 1, Config{Basis: NewHaar([]int{1}), DeltaJ: 1, Workers: 1}, 151)

	before := append([]Index(nil), e.Coefficients().Keys()...)
	if _, depth := e.selectIterative(); depth > 1 {
		// The expansion went past the configured depth; the shared table
		// must still be bounded by it.
		for _, ix := range e.Coefficients().Keys() {
			if !ix.IsAlpha() && ix.Level >= e.cfg.DeltaJ {
				t.Fatalf("level %d leaked into the shared store", ix.Level)
			}
		}
	}

	after := e.Coefficients().Keys()
	if len(after) != len(before) {
		t.Fatalf("shared store grew from %d to %d entries", len(before), len(after))
	}
	for i := range before {
		if after[i] != before[i] {
			t.Fatalf("shared store key %d changed: %+v vs %+v", i, before[i], after[i])
		}
	}
}

func TestSelectIterativeNoDetailLevels(t *testing.T) {
	// DeltaJ 0 exposes no beta candidates; the result is the alpha fit at
	// depth zero.
	e := preparedEstimator(t, 100, 2, Config{Basis: NewHaar([]int{0, 0}), Workers: 1}, 149)

	reduced, depth := e.selectIterative()
	if depth != 0 {
		t.Errorf("depth = %d, want 0", depth)
	}
	if reduced.Len() != reduced.NumAlphas() {
		t.Errorf("reduced store has betas despite DeltaJ = 0")
	}
}
