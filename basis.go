package wde

// MaxDims bounds the dimensionality of a tensor-product basis. Index keys
// embed fixed-size arrays so they stay comparable map keys.
const MaxDims = 6

// Quadrant selects, per axis, whether the scaling (0) or wavelet (1)
// function enters the tensor product. Axes beyond the basis dimensionality
// are zero.
type Quadrant [MaxDims]int8

// Shift is the per-axis integer translation of a basis function. Axes
// beyond the basis dimensionality are zero.
type Shift [MaxDims]int32

// Index identifies one basis/dual function pair in the multi-resolution
// expansion: detail level, quadrant selector and translation. The per-axis
// scale is 2^(j0+Level) and is derived by the basis from its own base
// resolution.
type Index struct {
	Level int
	Quad  Quadrant
	Shift Shift
}

// IsAlpha reports whether the index is a base scaling-level coefficient
// (level 0, all-zero quadrant). Alphas are retained by every selection
// strategy; everything else is a beta candidate.
func (ix Index) IsAlpha() bool {
	return ix.Level == 0 && ix.Quad == Quadrant{}
}

// Domain selects between the primal (base) expansion functions and their
// duals. For orthonormal bases the two coincide.
type Domain int

const (
	Dual Domain = iota
	Base
)

// Basis is the wavelet collaborator contract: everything the estimator
// needs from the basis layer. Implementations must be pure; the estimator
// calls Eval repeatedly for the same index and relies on identical results.
type Basis interface {
	// Name identifies the basis family (used in fit metadata).
	Name() string

	// Dims is the declared dimensionality of the tensor product.
	Dims() int

	// J0 is the per-axis base resolution level.
	J0() []int

	// Eval returns the value of the basis (dom == Base) or dual
	// (dom == Dual) function identified by ix at every row of points
	// (flat row-major, n rows).
	Eval(dom Domain, ix Index, points []float64, n int) []float64

	// SupportCount reports how many rows of points lie inside the support
	// of the dual function identified by ix.
	SupportCount(ix Index, points []float64, n int) int

	// ShiftRange returns the inclusive per-axis translation range whose
	// support intersects the bounding box [min, max] at the given detail
	// level and quadrant.
	ShiftRange(dom Domain, level int, quad Quadrant, min, max []float64) (lo, hi []int)
}

// quadrants enumerates all 2^d tensor-product quadrants for dimensionality d
// in binary counting order. The first entry is the all-zero (alpha) quadrant.
func quadrants(d int) []Quadrant {
	qs := make([]Quadrant, 1<<d)
	for q := range qs {
		for ax := 0; ax < d; ax++ {
			qs[q][ax] = int8((q >> ax) & 1)
		}
	}
	return qs
}
