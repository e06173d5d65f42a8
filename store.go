package wde

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// coeffFloor is the numerical floor below which a freshly computed
// coefficient pair is pruned instead of stored.
const coeffFloor = 1.0e-7

// Entry is one coefficient pair: the dual-weighted coefficient used as the
// expansion weight, the base-weighted coefficient entering the bilinear
// norm, and the number of samples inside the dual function's support.
type Entry struct {
	Coeff   float64
	CoeffB  float64
	Support int
}

// CoefficientStore holds coefficient entries keyed by resolution index.
// Keys keep their insertion order so that every aggregation over the store
// is deterministic: fitting the same samples twice yields bit-identical
// results.
type CoefficientStore struct {
	keys    []Index
	entries map[Index]Entry
	pending []Index // generated but not yet computed
	norm    float64 // running bilinear norm over computed entries
}

func newCoefficientStore() *CoefficientStore {
	return &CoefficientStore{entries: make(map[Index]Entry)}
}

// Len returns the number of computed entries.
func (s *CoefficientStore) Len() int { return len(s.keys) }

// Keys returns the computed resolution indices in insertion order.
// The returned slice is owned by the store and must not be modified.
func (s *CoefficientStore) Keys() []Index { return s.keys }

// Get returns the entry for ix, if present.
func (s *CoefficientStore) Get(ix Index) (Entry, bool) {
	e, ok := s.entries[ix]
	return e, ok
}

// Norm returns the running bilinear norm sum(Coeff*CoeffB) over all
// computed entries.
func (s *CoefficientStore) Norm() float64 { return s.norm }

// NumAlphas counts base scaling-level entries.
func (s *CoefficientStore) NumAlphas() int {
	count := 0
	for _, ix := range s.keys {
		if ix.IsAlpha() {
			count++
		}
	}
	return count
}

// Subset copies the given keys (which must exist) into a new store,
// preserving the given order.
func (s *CoefficientStore) Subset(keys []Index) *CoefficientStore {
	out := newCoefficientStore()
	for _, ix := range keys {
		ent := s.entries[ix]
		out.keys = append(out.keys, ix)
		out.entries[ix] = ent
		out.norm += ent.Coeff * ent.CoeffB
	}
	return out
}

// alphaSubset returns a new store holding only the alpha entries.
func (s *CoefficientStore) alphaSubset() *CoefficientStore {
	var keys []Index
	for _, ix := range s.keys {
		if ix.IsAlpha() {
			keys = append(keys, ix)
		}
	}
	return s.Subset(keys)
}

// addIndex registers a resolution index for computation unless it is
// already present (computed or pending).
func (s *CoefficientStore) addIndex(ix Index) bool {
	if _, ok := s.entries[ix]; ok {
		return false
	}
	for _, p := range s.pending {
		if p == ix {
			return false
		}
	}
	s.pending = append(s.pending, ix)
	return true
}

// --- index generation and coefficient computation (estimator-side) ---

// addIndexes generates all resolution indices for the given detail level and
// quadrants over the estimator's bounding box and registers them as pending.
// Returns the number of newly registered indices.
func (e *Estimator) addIndexes(s *CoefficientStore, level int, qs []Quadrant) int {
	added := 0
	for _, q := range qs {
		loD, hiD := e.basis.ShiftRange(Dual, level, q, e.minx, e.maxx)
		loB, hiB := e.basis.ShiftRange(Base, level, q, e.minx, e.maxx)
		d := e.basis.Dims()
		lo := make([]int, d)
		hi := make([]int, d)
		for ax := 0; ax < d; ax++ {
			lo[ax] = min(loD[ax], loB[ax])
			hi[ax] = max(hiD[ax], hiB[ax])
		}
		forEachShift(lo, hi, func(z Shift) {
			if s.addIndex(Index{Level: level, Quad: q, Shift: z}) {
				added++
			}
		})
	}
	return added
}

// forEachShift walks the inclusive per-axis ranges [lo, hi] in row-major
// order, invoking fn for every combination.
func forEachShift(lo, hi []int, fn func(Shift)) {
	d := len(lo)
	cur := make([]int, d)
	copy(cur, lo)
	for {
		var z Shift
		for ax := 0; ax < d; ax++ {
			z[ax] = int32(cur[ax])
		}
		fn(z)
		ax := d - 1
		for ax >= 0 {
			cur[ax]++
			if cur[ax] <= hi[ax] {
				break
			}
			cur[ax] = lo[ax]
			ax--
		}
		if ax < 0 {
			return
		}
	}
}

// computeEntry evaluates one resolution index against the given samples and
// ball volumes. keep is false when both coefficients fall below the
// numerical floor.
func (e *Estimator) computeEntry(ix Index, data []float64, n int, vols []float64, om float64) (Entry, bool) {
	dual := e.basis.Eval(Dual, ix, data, n)
	base := e.basis.Eval(Base, ix, data, n)
	coeff := floats.Dot(dual, vols) * om
	coeffB := floats.Dot(base, vols) * om
	if math.Abs(coeff) < coeffFloor && math.Abs(coeffB) < coeffFloor {
		return Entry{}, false
	}
	support := e.basis.SupportCount(ix, data, n)
	return Entry{Coeff: coeff, CoeffB: coeffB, Support: support}, true
}

// computePending computes every pending index against the estimator's
// samples. Computation is spread across workers; aggregation happens in
// registration order so the result does not depend on scheduling.
func (e *Estimator) computePending(s *CoefficientStore) {
	if len(s.pending) == 0 {
		return
	}
	om := omega(e.n, e.cfg.K)
	vols := e.balls.SqrtVolK

	type result struct {
		ent  Entry
		keep bool
	}
	results := make([]result, len(s.pending))
	forEachRange(e.cfg.Workers, len(s.pending), func(start, end int) {
		for i := start; i < end; i++ {
			ent, keep := e.computeEntry(s.pending[i], e.data, e.n, vols, om)
			results[i] = result{ent, keep}
		}
	})

	for i, ix := range s.pending {
		if !results[i].keep {
			continue
		}
		s.keys = append(s.keys, ix)
		s.entries[ix] = results[i].ent
		s.norm += results[i].ent.Coeff * results[i].ent.CoeffB
	}
	s.pending = s.pending[:0]

	e.emit(Event{Stage: StageCoefficients, NumCoeffs: s.Len(), Loss: s.norm})
}

// coefficientsExcluding recomputes the given keys as if sample excl had been
// removed: the sample set loses row excl, every other sample uses the
// adjusted ball volume from BallVolumeInfo.Excluding, and the bias
// correction drops to omega(n-1). Entries are pruned by the same floor as
// the direct computation.
func (e *Estimator) coefficientsExcluding(excl int, keys []Index) *CoefficientStore {
	n1 := e.n - 1
	d := e.dims
	data := make([]float64, 0, n1*d)
	data = append(data, e.data[:excl*d]...)
	data = append(data, e.data[(excl+1)*d:]...)

	adj := e.balls.Excluding(excl)
	vols := make([]float64, 0, n1)
	vols = append(vols, adj[:excl]...)
	vols = append(vols, adj[excl+1:]...)

	om := omega(n1, e.cfg.K)
	out := newCoefficientStore()
	for _, ix := range keys {
		ent, keep := e.computeEntry(ix, data, n1, vols, om)
		if !keep {
			continue
		}
		out.keys = append(out.keys, ix)
		out.entries[ix] = ent
		out.norm += ent.Coeff * ent.CoeffB
	}
	return out
}
