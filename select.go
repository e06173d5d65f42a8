package wde

import (
	"math"
	"sort"
)

// Loss selects the cross-validation objective minimized by threshold
// selection.
type Loss string

const (
	// LossOriginal is 1 - battaSum.
	LossOriginal Loss = "Original"
	// LossNormed is 1 - battaSum/sqrt(normSum).
	LossNormed Loss = "Normed"
	// LossImproved is 0.5 + 0.5*normSum - battaSum.
	LossImproved Loss = "Improved"
)

// Ordering selects the key by which beta candidates are ranked before
// thresholding. Each is a pure function of (coeff, coeff2, contribution,
// level). Several are empirically motivated; they are implemented exactly
// as defined, not simplified.
type Ordering string

const (
	OrderQ      Ordering = "QTerm"   // contribution
	OrderAQ     Ordering = "AQTerm"  // |contribution|
	OrderQ2     Ordering = "Q2Term"  // coeff2 + (contribution - coeff2)
	OrderAQ2    Ordering = "AQ2Term" // |coeff2 + (contribution - coeff2)|
	OrderQImpr  Ordering = "QImpr"   // contribution - 0.5*coeff2
	OrderAQImpr Ordering = "AQImpr"  // |contribution - 0.5*coeff2|
	OrderTrad   Ordering = "Trad"    // |coeff| / sqrt(level+1)
	OrderTrBio  Ordering = "TrBio"   // coeff2 / (level+1)
)

func validLoss(l Loss) bool {
	switch l {
	case LossOriginal, LossNormed, LossImproved:
		return true
	}
	return false
}

func validOrdering(o Ordering) bool {
	switch o {
	case OrderQ, OrderAQ, OrderQ2, OrderAQ2, OrderQImpr, OrderAQImpr, OrderTrad, OrderTrBio:
		return true
	}
	return false
}

// lossValue evaluates the loss for accumulated Bhattacharyya and norm sums.
func lossValue(loss Loss, battaSum, normSum float64) float64 {
	switch loss {
	case LossOriginal:
		return 1 - battaSum
	case LossNormed:
		return 1 - battaSum/math.Sqrt(normSum)
	default: // LossImproved
		return 0.5 + 0.5*normSum - battaSum
	}
}

// orderingKey evaluates the ordering key for one candidate.
func orderingKey(ord Ordering, coeff, coeff2, contrib float64, level int) float64 {
	switch ord {
	case OrderQ:
		return contrib
	case OrderAQ:
		return math.Abs(contrib)
	case OrderQ2:
		return coeff2 + (contrib - coeff2)
	case OrderAQ2:
		return math.Abs(coeff2 + (contrib - coeff2))
	case OrderQImpr:
		return contrib - 0.5*coeff2
	case OrderAQImpr:
		return math.Abs(contrib - 0.5*coeff2)
	case OrderTrad:
		return math.Abs(coeff) / math.Sqrt(float64(level+1))
	default: // OrderTrBio
		return coeff2 / float64(level+1)
	}
}

// contributionSet is the shared input to every selection strategy: alpha
// coefficients (always kept) with their accumulated contribution and norm,
// and the ranked beta candidates.
type contributionSet struct {
	alphaKeys    []Index
	alphaContrib float64
	alphaNorm    float64
	betas        []Contribution
}

// computeContributions walks the store in key order, folds alphas into the
// running alpha sums and collects beta candidates with their ordering key.
func (e *Estimator) computeContributions(store *CoefficientStore, ord Ordering) contributionSet {
	var set contributionSet
	for _, ix := range store.Keys() {
		ent, _ := store.Get(ix)
		if ent.Coeff == 0 {
			continue
		}
		c := e.contribution(ix, ent)
		if ix.IsAlpha() {
			set.alphaKeys = append(set.alphaKeys, ix)
			set.alphaContrib += c.Value
			set.alphaNorm += c.Coeff2
			continue
		}
		c.OrderKey = orderingKey(ord, ent.Coeff, c.Coeff2, c.Value, ix.Level)
		set.betas = append(set.betas, c)
	}
	return set
}

// sortLevelMajor orders candidates by ascending level, then by descending
// ordering key within each level, so earlier levels are always preferred at
// equal key. The sort is stable: remaining ties keep store order.
func sortLevelMajor(betas []Contribution) {
	sort.SliceStable(betas, func(a, b int) bool {
		if betas[a].Key.Level != betas[b].Key.Level {
			return betas[a].Key.Level < betas[b].Key.Level
		}
		return betas[a].OrderKey > betas[b].OrderKey
	})
}
