package wde

import (
	"fmt"
	"math"
	"sort"
)

// BallVolumeInfo holds, per sample, the square-root volumes of the k-th and
// (k+1)-th nearest-neighbor balls plus the raw neighbor index table. It is
// computed once per sample set and reused by every coefficient and
// contribution computation against that set.
type BallVolumeInfo struct {
	// SqrtVolK[i] is the square-root volume of sample i's k-th
	// nearest-neighbor ball, including the bias-correction factor applied
	// downstream via omega.
	SqrtVolK []float64
	// SqrtVolK1[i] is the same for the (k+1)-th ball, used when a neighbor
	// is removed in leave-one-out computations.
	SqrtVolK1 []float64
	// Neighbors[i] lists sample i's k+2 nearest neighbor indices in
	// ascending distance order; position 0 is i itself.
	Neighbors [][]int

	k int
}

// K returns the neighbor rank the volumes were computed for.
func (b *BallVolumeInfo) K() int { return b.k }

// ComputeBallVolumes computes square-root ball volumes for every point in
// the tree using its k-th and (k+1)-th nearest neighbors. Returns
// ErrInsufficientSamples when k >= n-1 (the k+2 neighbor query, which
// includes the point itself, would exceed the sample count).
func ComputeBallVolumes(tree SpatialTree, k int) (*BallVolumeInfo, error) {
	n := tree.NumPoints()
	dims := tree.NumFeatures()
	if k+2 > n {
		return nil, fmt.Errorf("%w: need k+2 = %d neighbors but only %d samples", ErrInsufficientSamples, k+2, n)
	}

	// The query set is the data set itself, so each point's nearest
	// neighbor is the point itself; k+2 neighbors yield the k-th and
	// (k+1)-th true neighbors in the last two slots.
	indices, distances := tree.QueryKNN(tree.Data(), n, k+2)

	unit := sqrtUnitBallVolume(dims)
	halfDim := float64(dims) / 2

	info := &BallVolumeInfo{
		SqrtVolK:  make([]float64, n),
		SqrtVolK1: make([]float64, n),
		Neighbors: indices,
		k:         k,
	}
	for i := 0; i < n; i++ {
		d := distances[i]
		info.SqrtVolK[i] = math.Pow(d[len(d)-2], halfDim) * unit
		info.SqrtVolK1[i] = math.Pow(d[len(d)-1], halfDim) * unit
	}
	return info, nil
}

// Excluding returns per-sample square-root k-th ball volumes as if sample
// excl had been removed: samples whose self-plus-k nearest neighbors
// include excl fall back to their (k+1)-th ball, everyone else keeps the
// k-th ball. The returned slice is indexed by original sample index; entry
// excl itself is not meaningful and is dropped by the caller.
func (b *BallVolumeInfo) Excluding(excl int) []float64 {
	n := len(b.SqrtVolK)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		shifted := false
		// Positions 0..k are self plus the k nearest; removing excl shifts
		// the k-th rank only when excl sits among them.
		for _, nb := range b.Neighbors[i][:b.k+1] {
			if nb == excl {
				shifted = true
				break
			}
		}
		if shifted {
			out[i] = b.SqrtVolK1[i]
		} else {
			out[i] = b.SqrtVolK[i]
		}
	}
	return out
}

// sqrtUnitBallVolume is the square root of the volume of the unit
// hypersphere in d dimensions: sqrt(pi^(d/2) / Gamma(d/2+1)).
func sqrtUnitBallVolume(d int) float64 {
	return math.Pow(math.Pi, float64(d)/4) / math.Sqrt(math.Gamma(float64(d)/2+1))
}

// omega is the bias correction for the k-th nearest-neighbor sum at sample
// size n: sqrt(n-1) * Gamma(k) / Gamma(k+0.5) / n.
func omega(n, k int) float64 {
	return math.Sqrt(float64(n-1)) * math.Gamma(float64(k)) / math.Gamma(float64(k)+0.5) / float64(n)
}

// bruteTree is a SpatialTree backed by the full pairwise distance matrix.
// It exists for tiny sample sets where tree construction is not worth it.
type bruteTree struct {
	data []float64
	n    int
	dims int
	dist []float64 // flat n*n
}

func newBruteTree(data []float64, n, dims int, metric DistanceMetric) *bruteTree {
	cp := make([]float64, len(data))
	copy(cp, data)
	return &bruteTree{
		data: cp,
		n:    n,
		dims: dims,
		dist: ComputePairwiseDistances(cp, n, dims, metric),
	}
}

func (t *bruteTree) Data() []float64 { return t.data }
func (t *bruteTree) NumPoints() int  { return t.n }
func (t *bruteTree) NumFeatures() int { return t.dims }

// QueryKNN returns the k nearest points (by matrix lookup) for each query
// row. Queries must be rows of the tree's own data; the row is identified
// by position.
func (t *bruteTree) QueryKNN(_ []float64, queryRows, k int) ([][]int, [][]float64) {
	indices := make([][]int, queryRows)
	distances := make([][]float64, queryRows)
	for q := 0; q < queryRows; q++ {
		order := make([]int, t.n)
		for j := range order {
			order[j] = j
		}
		row := t.dist[q*t.n : (q+1)*t.n]
		sort.SliceStable(order, func(a, b int) bool { return row[order[a]] < row[order[b]] })
		if k > t.n {
			k = t.n
		}
		idx := make([]int, k)
		dst := make([]float64, k)
		for j := 0; j < k; j++ {
			idx[j] = order[j]
			dst[j] = row[order[j]]
		}
		indices[q] = idx
		distances[q] = dst
	}
	return indices, distances
}
