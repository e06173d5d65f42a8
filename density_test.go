package wde

import (
	"errors"
	"testing"
)

func TestDensityNonNegative(t *testing.T) {
	e := preparedEstimator(t, 200, 2, Config{Basis: NewHaar([]int{0, 0}), DeltaJ: 1, Workers: 1}, 71)
	dens, err := newDensity(e.basis, e.Coefficients(), e.info("Full"))
	if err != nil {
		t.Fatal(err)
	}

	probe := randomPoints(500, 2, 73)
	for i, v := range dens.Eval(probe, 500) {
		if v < 0 {
			t.Fatalf("density at probe %d = %v, want >= 0", i, v)
		}
	}
}

func TestDensityAtMatchesEval(t *testing.T) {
	e := preparedEstimator(t, 150, 2, Config{Basis: NewHaar([]int{0, 0}), DeltaJ: 1, Workers: 1}, 79)
	dens, err := newDensity(e.basis, e.Coefficients(), e.info("Full"))
	if err != nil {
		t.Fatal(err)
	}

	pts := []float64{0.3, 0.7, 0.1, 0.9}
	batch := dens.Eval(pts, 2)
	if got := dens.At([]float64{0.3, 0.7}); got != batch[0] {
		t.Errorf("At = %v, Eval = %v", got, batch[0])
	}
	if got := dens.At([]float64{0.1, 0.9}); got != batch[1] {
		t.Errorf("At = %v, Eval = %v", got, batch[1])
	}
}

func TestDensityEvalGridLayout(t *testing.T) {
	e := preparedEstimator(t, 150, 2, Config{Basis: NewHaar([]int{1, 1}), DeltaJ: 1, Workers: 1}, 83)
	dens, err := newDensity(e.basis, e.Coefficients(), e.info("Full"))
	if err != nil {
		t.Fatal(err)
	}

	xs := []float64{0.1, 0.5, 0.9}
	ys := []float64{0.25, 0.75}
	grid, err := dens.EvalGrid(xs, ys)
	if err != nil {
		t.Fatal(err)
	}
	if len(grid) != len(xs)*len(ys) {
		t.Fatalf("grid has %d values, want %d", len(grid), len(xs)*len(ys))
	}
	// Row-major: value (i, j) sits at i*len(ys)+j.
	for i, x := range xs {
		for j, y := range ys {
			want := dens.At([]float64{x, y})
			if got := grid[i*len(ys)+j]; got != want {
				t.Errorf("grid[%d,%d] = %v, At = %v", i, j, got, want)
			}
		}
	}
}

func TestDensityEvalGridAxisCount(t *testing.T) {
	e := preparedEstimator(t, 100, 2, Config{Basis: NewHaar([]int{0, 0}), Workers: 1}, 97)
	dens, err := newDensity(e.basis, e.Coefficients(), e.info("Full"))
	if err != nil {
		t.Fatal(err)
	}

	xs := []float64{0.1, 0.5}
	if _, err := dens.EvalGrid(xs); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("one axis for a 2-D basis: got %v, want ErrDimensionMismatch", err)
	}
	if _, err := dens.EvalGrid(xs, xs, xs); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("three axes for a 2-D basis: got %v, want ErrDimensionMismatch", err)
	}
}

func TestDensityDegenerateNorm(t *testing.T) {
	store := newCoefficientStore()
	ix := Index{}
	store.keys = append(store.keys, ix)
	store.entries[ix] = Entry{Coeff: 0.5, CoeffB: -0.5}
	store.norm = -0.25

	_, err := newDensity(NewHaar([]int{0}), store, Info{})
	if !errors.Is(err, ErrDegenerateNorm) {
		t.Fatalf("got %v, want ErrDegenerateNorm", err)
	}
}

func TestDensityInfoNumParams(t *testing.T) {
	e := preparedEstimator(t, 150, 1, Config{Basis: NewHaar([]int{1}), DeltaJ: 1, Workers: 1}, 89)
	dens, err := newDensity(e.basis, e.Coefficients(), e.info("Full"))
	if err != nil {
		t.Fatal(err)
	}
	if dens.Info.NumParams != e.Coefficients().Len() {
		t.Errorf("NumParams = %d, want %d", dens.Info.NumParams, e.Coefficients().Len())
	}
	if dens.NumParams() != dens.Info.NumParams {
		t.Errorf("NumParams() = %d, Info.NumParams = %d", dens.NumParams(), dens.Info.NumParams)
	}
	if dens.Info.Strategy != "Full" {
		t.Errorf("Strategy = %q, want Full", dens.Info.Strategy)
	}
}
