package wde

import (
	"math"
	"testing"
)

func TestMDLPenaltyValues(t *testing.T) {
	// k=2: class = ln 2 + ln pi, param = ln(2*pi/n).
	wantClass := math.Ln2 + math.Log(math.Pi)
	if got := logRiemannVolumeClass(2); !almostEqual(got, wantClass, 1e-12) {
		t.Errorf("logRiemannVolumeClass(2) = %v, want %v", got, wantClass)
	}
	wantParam := math.Log(2 * math.Pi / 100)
	if got := logRiemannVolumeParam(2, 100); !almostEqual(got, wantParam, 1e-12) {
		t.Errorf("logRiemannVolumeParam(2, 100) = %v, want %v", got, wantParam)
	}
	if got := mdlPenalty(2, 100); !almostEqual(got, wantClass-wantParam, 1e-12) {
		t.Errorf("mdlPenalty(2, 100) = %v, want %v", got, wantClass-wantParam)
	}
}

func TestMDLPenaltyTurnsNegative(t *testing.T) {
	// The penalty grows with k at first, then the model-class volume
	// collapses and the penalty goes negative for large k.
	if mdlPenalty(2, 100) <= 0 {
		t.Error("penalty at k=2 should be positive")
	}
	if mdlPenalty(80, 100) >= 0 {
		t.Error("penalty at k=80, n=100 should be negative")
	}
}

func TestSelectMDLKeepsAlphas(t *testing.T) {
	e := preparedEstimator(t, 300, 2, Config{Basis: NewHaar([]int{0, 0}), DeltaJ: 2, Workers: 2}, 101)

	full := e.Coefficients()
	reduced := e.selectMDL()

	if reduced.Len() > full.Len() {
		t.Fatalf("reduced store larger than the full one: %d > %d", reduced.Len(), full.Len())
	}
	if reduced.NumAlphas() != full.NumAlphas() {
		t.Errorf("reduced has %d alphas, full has %d", reduced.NumAlphas(), full.NumAlphas())
	}
	for _, ix := range reduced.Keys() {
		if _, ok := full.Get(ix); !ok {
			t.Errorf("reduced key %+v not in the full store", ix)
		}
	}
}

func TestSelectMDLRankingModes(t *testing.T) {
	for _, ranking := range []MDLRanking{MDLByContribution, MDLByLevelMagnitude} {
		e := preparedEstimator(t, 300, 2, Config{
			Basis:      NewHaar([]int{0, 0}),
			DeltaJ:     2,
			MDLRanking: ranking,
			Workers:    1,
		}, 103)
		reduced := e.selectMDL()
		if reduced.Len() < reduced.NumAlphas() {
			t.Errorf("%s: reduced store dropped alphas", ranking)
		}
	}
}

func TestSelectMDLNeverChoosesNegativePenalty(t *testing.T) {
	// Six well-separated samples occupy one cell per sample at every
	// level, so the candidate walk reaches ranks where the model-class
	// volume collapses and the penalty turns negative.
	data := [][]float64{{0.1}, {1.2}, {2.3}, {3.4}, {4.5}, {5.6}}
	e := newTestEstimator(t, Config{Basis: NewHaar([]int{0}), DeltaJ: 3, Tree: TreeBrute, Workers: 1})
	if err := e.prepare(data, true); err != nil {
		t.Fatal(err)
	}

	// Lift every entry over the support floor so all betas are eligible.
	store := e.Coefficients()
	for _, ix := range store.Keys() {
		ent := store.entries[ix]
		ent.Support = mdlSupportFloor + 1
		store.entries[ix] = ent
	}

	if p := mdlPenalty(store.Len(), e.n); p >= 0 {
		t.Fatalf("walk never reaches a negative penalty: penalty(%d, %d) = %v", store.Len(), e.n, p)
	}

	reduced := e.selectMDL()
	if p := mdlPenalty(reduced.Len(), e.n); p < 0 {
		t.Errorf("selected %d coefficients with negative penalty %v", reduced.Len(), p)
	}
	if reduced.NumAlphas() != store.NumAlphas() {
		t.Errorf("reduced has %d alphas, full has %d", reduced.NumAlphas(), store.NumAlphas())
	}
}

func TestSelectMDLNoEligibleBetas(t *testing.T) {
	// With few samples no beta clears the support floor; MDL falls back to
	// the alpha-only fit.
	e := preparedEstimator(t, 20, 2, Config{Basis: NewHaar([]int{0, 0}), DeltaJ: 1, Tree: TreeBrute, Workers: 1}, 107)
	reduced := e.selectMDL()
	if reduced.Len() != reduced.NumAlphas() {
		t.Errorf("reduced store has %d entries, want alpha-only (%d)", reduced.Len(), reduced.NumAlphas())
	}
}
