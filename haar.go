package wde

import (
	"fmt"
	"math"
)

// HaarBasis is an orthonormal tensor-product Haar basis. Because Haar is
// orthonormal, the dual and base functions coincide.
//
// Per axis, at scale s = 2^(j0+level):
//
//	phi_{s,z}(x) = sqrt(s)            for z <= s*x < z+1
//	psi_{s,z}(x) = sqrt(s)            for z <= s*x < z+0.5
//	               -sqrt(s)           for z+0.5 <= s*x < z+1
type HaarBasis struct {
	j0 []int
}

// NewHaar builds a Haar tensor-product basis with the given per-axis base
// resolution levels. The dimensionality is len(j0), at most MaxDims.
func NewHaar(j0 []int) *HaarBasis {
	if len(j0) == 0 || len(j0) > MaxDims {
		panic(fmt.Sprintf("wde: Haar basis dimensionality must be in [1, %d], got %d", MaxDims, len(j0)))
	}
	cp := make([]int, len(j0))
	copy(cp, j0)
	return &HaarBasis{j0: cp}
}

func (b *HaarBasis) Name() string { return "haar" }
func (b *HaarBasis) Dims() int    { return len(b.j0) }

func (b *HaarBasis) J0() []int {
	cp := make([]int, len(b.j0))
	copy(cp, b.j0)
	return cp
}

// scale returns 2^(j0+level) for the given axis.
func (b *HaarBasis) scale(ax, level int) float64 {
	return math.Pow(2, float64(b.j0[ax]+level))
}

// haar1D evaluates the normalized scaling (wavelet=false) or wavelet
// (wavelet=true) function at t = s*x - z, scaled by sqrt(s).
func haar1D(t, sqrtS float64, wavelet bool) float64 {
	if t < 0 || t >= 1 {
		return 0
	}
	if !wavelet {
		return sqrtS
	}
	if t < 0.5 {
		return sqrtS
	}
	return -sqrtS
}

// Eval returns the tensor-product function value at every row of points.
// Haar is orthonormal, so dom is ignored.
func (b *HaarBasis) Eval(_ Domain, ix Index, points []float64, n int) []float64 {
	d := len(b.j0)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		v := 1.0
		for ax := 0; ax < d; ax++ {
			s := b.scale(ax, ix.Level)
			t := s*points[i*d+ax] - float64(ix.Shift[ax])
			v *= haar1D(t, math.Sqrt(s), ix.Quad[ax] != 0)
			if v == 0 {
				break
			}
		}
		out[i] = v
	}
	return out
}

// SupportCount reports how many rows fall inside the function's support
// (the half-open unit cell of the shift at the index's scale).
func (b *HaarBasis) SupportCount(ix Index, points []float64, n int) int {
	d := len(b.j0)
	count := 0
	for i := 0; i < n; i++ {
		inside := true
		for ax := 0; ax < d; ax++ {
			s := b.scale(ax, ix.Level)
			t := s*points[i*d+ax] - float64(ix.Shift[ax])
			if t < 0 || t >= 1 {
				inside = false
				break
			}
		}
		if inside {
			count++
		}
	}
	return count
}

// ShiftRange returns the inclusive per-axis translation range whose support
// intersects [min, max]. The Haar support of shift z at scale s is
// [z/s, (z+1)/s), so the range covers floor(s*min) .. ceil(s*max)-1.
func (b *HaarBasis) ShiftRange(_ Domain, level int, _ Quadrant, min, max []float64) (lo, hi []int) {
	d := len(b.j0)
	lo = make([]int, d)
	hi = make([]int, d)
	for ax := 0; ax < d; ax++ {
		s := b.scale(ax, level)
		lo[ax] = int(math.Floor(s * min[ax]))
		hi[ax] = int(math.Ceil(s*max[ax])) - 1
		if hi[ax] < lo[ax] {
			hi[ax] = lo[ax]
		}
	}
	return lo, hi
}
