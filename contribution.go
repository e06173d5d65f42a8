package wde

import "gonum.org/v1/gonum/floats"

// Contribution is the three-term decomposition of one coefficient's
// estimated effect on integrated squared error: a bias-corrected quadratic
// form (Term1), a same-sample bias term (Term2) and a leave-one-out
// correction over each sample's k nearest neighbors (Term3). The scalar
// contribution used by selection strategies is Value = Term1-Term2+Term3;
// it estimates the marginal reduction in integrated squared error from
// including the coefficient, not merely its magnitude.
type Contribution struct {
	Key   Index
	Entry Entry

	Term1  float64
	Term2  float64
	Term3  float64
	Coeff2 float64 // Coeff * CoeffB

	Value    float64 // Term1 - Term2 + Term3
	OrderKey float64 // ordering key under the active Ordering
}

// contribution computes the decomposition for one coefficient against the
// estimator's samples and ball volumes.
func (e *Estimator) contribution(ix Index, ent Entry) Contribution {
	dual := e.basis.Eval(Dual, ix, e.data, e.n)
	base := e.basis.Eval(Base, ix, e.data, e.n)

	k := e.cfg.K
	omegaN := omega(e.n, k)
	omegaN1 := omega(e.n-1, k)
	omegaN2 := omegaN * omegaN1

	vols := e.balls.SqrtVolK
	vols2 := e.balls.SqrtVolK1

	coeff2 := ent.Coeff * ent.CoeffB
	term1 := omegaN1 / omegaN * coeff2

	var sq float64
	for i := 0; i < e.n; i++ {
		sq += dual[i] * base[i] * vols[i] * vols[i]
	}
	term2 := omegaN2 * sq

	// Leave-one-out correction: removing sample j grows the k-th ball of
	// each of its k nearest neighbors to the (k+1)-th ball; accumulate the
	// weighted volume deltas.
	vals := make([]float64, e.n)
	for j := 0; j < e.n; j++ {
		psiJ := dual[j]
		deltaV := vols2[j] - vols[j]
		for kk := 0; kk < k; kk++ {
			i := e.balls.Neighbors[j][kk+1] // position 0 is j itself
			vals[i] += base[i] * psiJ * vols[i] * deltaV
		}
	}
	term3 := omegaN2 * floats.Sum(vals)

	return Contribution{
		Key:    ix,
		Entry:  ent,
		Term1:  term1,
		Term2:  term2,
		Term3:  term3,
		Coeff2: coeff2,
		Value:  term1 - term2 + term3,
	}
}
