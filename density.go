package wde

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Info is descriptive metadata attached to a fitted density.
type Info struct {
	Basis     string
	N         int
	J0        []int
	DeltaJ    int
	K         int
	NumParams int
	Strategy  string
	Loss      Loss     // CV fits only
	Ordering  Ordering // CV fits only
}

// Density is a fitted density function: the square of a weighted sum of
// basis functions divided by the bilinear normalization constant. It is
// immutable; re-fitting constructs a new one.
type Density struct {
	basis     Basis
	keys      []Index
	weights   []float64
	normConst float64

	Info Info
}

// newDensity closes over a snapshot of the store. A non-positive
// normalization constant means the coefficient set is degenerate and the
// fit fails outright.
func newDensity(basis Basis, store *CoefficientStore, info Info) (*Density, error) {
	var normConst float64
	keys := make([]Index, 0, store.Len())
	weights := make([]float64, 0, store.Len())
	for _, ix := range store.Keys() {
		ent, _ := store.Get(ix)
		keys = append(keys, ix)
		weights = append(weights, ent.Coeff)
		normConst += ent.Coeff * ent.CoeffB
	}
	if normConst <= 0 {
		return nil, fmt.Errorf("%w: got %g from %d coefficients", ErrDegenerateNorm, normConst, len(keys))
	}
	info.NumParams = len(keys)
	return &Density{
		basis:     basis,
		keys:      keys,
		weights:   weights,
		normConst: normConst,
		Info:      info,
	}, nil
}

// NormConst returns the bilinear normalization constant.
func (d *Density) NormConst() float64 { return d.normConst }

// NumParams returns the number of coefficients in the fit.
func (d *Density) NumParams() int { return len(d.keys) }

// Eval evaluates the density at every row of points (flat row-major,
// n rows). The result is non-negative everywhere.
func (d *Density) Eval(points []float64, n int) []float64 {
	sum := make([]float64, n)
	for i, ix := range d.keys {
		vals := d.basis.Eval(Base, ix, points, n)
		floats.AddScaled(sum, d.weights[i], vals)
	}
	out := make([]float64, n)
	for i, v := range sum {
		out[i] = v * v / d.normConst
	}
	return out
}

// At evaluates the density at a single point.
func (d *Density) At(x []float64) float64 {
	return d.Eval(x, 1)[0]
}

// EvalGrid evaluates the density over the cartesian product of the given
// per-axis coordinate arrays. The result is flat row-major: with axes of
// lengths l0, l1, ..., the value at grid point (i0, i1, ...) sits at
// index ((i0*l1)+i1)*l2+... . Passing a number of axes different from the
// basis dimensionality returns ErrDimensionMismatch.
func (d *Density) EvalGrid(axes ...[]float64) ([]float64, error) {
	dims := d.basis.Dims()
	if len(axes) != dims {
		return nil, fmt.Errorf("%w: got %d axes for a %d-dimensional basis", ErrDimensionMismatch, len(axes), dims)
	}
	total := 1
	for _, ax := range axes {
		total *= len(ax)
	}
	points := make([]float64, total*dims)
	for p := 0; p < total; p++ {
		rem := p
		for ax := dims - 1; ax >= 0; ax-- {
			points[p*dims+ax] = axes[ax][rem%len(axes[ax])]
			rem /= len(axes[ax])
		}
	}
	return d.Eval(points, total), nil
}
