package wde

import (
	"math"
	"testing"
)

func beta(level int, shift int32, value, coeff2, orderKey float64) Contribution {
	return Contribution{
		Key:      Index{Level: level, Quad: Quadrant{1}, Shift: Shift{shift}},
		Value:    value,
		Coeff2:   coeff2,
		OrderKey: orderKey,
	}
}

func TestSortLevelMajor(t *testing.T) {
	betas := []Contribution{
		beta(1, 0, 0, 0, 0.2),
		beta(0, 0, 0, 0, 0.1),
		beta(1, 1, 0, 0, 0.9),
		beta(0, 1, 0, 0, 0.5),
		beta(0, 2, 0, 0, 0.5), // tie with the previous: keep input order
	}
	sortLevelMajor(betas)

	wantLevels := []int{0, 0, 0, 1, 1}
	wantKeys := []float64{0.5, 0.5, 0.1, 0.9, 0.2}
	wantShifts := []int32{1, 2, 0, 1, 0}
	for i := range betas {
		if betas[i].Key.Level != wantLevels[i] {
			t.Errorf("pos %d: level %d, want %d", i, betas[i].Key.Level, wantLevels[i])
		}
		if betas[i].OrderKey != wantKeys[i] {
			t.Errorf("pos %d: key %v, want %v", i, betas[i].OrderKey, wantKeys[i])
		}
		if betas[i].Key.Shift[0] != wantShifts[i] {
			t.Errorf("pos %d: shift %d, want %d", i, betas[i].Key.Shift[0], wantShifts[i])
		}
	}
}

func TestSingleThresholdPicksMinimum(t *testing.T) {
	e := &Estimator{n: 100}
	set := contributionSet{
		alphaKeys:    []Index{{}},
		alphaContrib: 0.2,
		alphaNorm:    1.0,
		betas: []Contribution{
			beta(0, 0, 0.4, 0, 0.9),
			beta(0, 1, 0.3, 0, 0.8),
			beta(0, 2, -0.2, 0, 0.7),
			beta(0, 3, -0.1, 0, 0.6),
		},
	}

	// Cumulative contributions 0.4, 0.7, 0.5, 0.4 put the loss minimum at
	// the second candidate.
	res := e.singleThreshold(set, LossOriginal)
	if res.PosK != 1 {
		t.Fatalf("PosK = %d, want 1", res.PosK)
	}
	if !almostEqual(res.Threshold, 0.8, 1e-15) {
		t.Errorf("Threshold = %v, want 0.8", res.Threshold)
	}
	if !almostEqual(res.Target, 1-(0.2+0.7), 1e-15) {
		t.Errorf("Target = %v, want %v", res.Target, 1-(0.2+0.7))
	}
	if len(res.Points) != 4 {
		t.Errorf("Points has %d entries, want 4", len(res.Points))
	}
}

func TestSingleThresholdSampleCap(t *testing.T) {
	// Three alphas and n=5 cap the rank at 2 regardless of the curve.
	e := &Estimator{n: 5}
	set := contributionSet{
		alphaKeys: []Index{{}, {Shift: Shift{1}}, {Shift: Shift{2}}},
		betas: []Contribution{
			beta(0, 0, 0.1, 0, 0.9),
			beta(0, 1, 0.1, 0, 0.8),
			beta(0, 2, 0.1, 0, 0.7),
			beta(0, 3, 0.1, 0, 0.6),
		},
	}

	res := e.singleThreshold(set, LossOriginal)
	if res.PosK != 2 {
		t.Errorf("PosK = %d, want cap n-len(alphas) = 2", res.PosK)
	}
}

func TestSingleThresholdTiesPreferSmallerPrefix(t *testing.T) {
	e := &Estimator{n: 100}
	set := contributionSet{
		betas: []Contribution{
			beta(0, 0, 0.5, 0, 0.9),
			beta(0, 1, 0.0, 0, 0.8), // same cumulative loss as the first
			beta(0, 2, -0.3, 0, 0.7),
		},
	}

	res := e.singleThreshold(set, LossOriginal)
	if res.PosK != 0 {
		t.Errorf("PosK = %d, want 0 (first minimum)", res.PosK)
	}
}

func TestSingleThresholdNoBetas(t *testing.T) {
	e := &Estimator{n: 100}
	res := e.singleThreshold(contributionSet{alphaKeys: []Index{{}}}, LossOriginal)
	if res.PosK != -1 {
		t.Errorf("PosK = %d, want -1", res.PosK)
	}
	if res.Target != 1 {
		t.Errorf("Target = %v, want 1", res.Target)
	}
	if res.Level != -1 {
		t.Errorf("Level = %v, want -1", res.Level)
	}
}

func TestSingleThresholdNormedLoss(t *testing.T) {
	e := &Estimator{n: 100}
	set := contributionSet{
		alphaContrib: 0.5,
		alphaNorm:    1.0,
		betas: []Contribution{
			beta(0, 0, 0.3, 0.04, 0.9),
			beta(0, 1, 0.01, 0.5, 0.8), // large norm cost, tiny gain
		},
	}

	res := e.singleThreshold(set, LossNormed)
	if res.PosK != 0 {
		t.Fatalf("PosK = %d, want 0", res.PosK)
	}
	want := 1 - (0.5+0.3)/math.Sqrt(1.0+0.04)
	if !almostEqual(res.Target, want, 1e-12) {
		t.Errorf("Target = %v, want %v", res.Target, want)
	}
}
