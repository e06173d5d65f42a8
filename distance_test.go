package wde

import (
	"math"
	"testing"
)

func TestEuclideanMetric(t *testing.T) {
	m := EuclideanMetric{}
	a := []float64{0, 0}
	b := []float64{3, 4}

	if got := m.Distance(a, b); !almostEqual(got, 5, 1e-12) {
		t.Errorf("Distance = %v, want 5", got)
	}
	if got := m.ReducedDistance(a, b); !almostEqual(got, 25, 1e-12) {
		t.Errorf("ReducedDistance = %v, want 25", got)
	}
	if got := m.DistToRdist(5); !almostEqual(got, 25, 1e-12) {
		t.Errorf("DistToRdist = %v, want 25", got)
	}
}

func TestComputePairwiseDistances(t *testing.T) {
	data := []float64{0, 0, 1, 0, 0, 2}
	dist := ComputePairwiseDistances(data, 3, 2, EuclideanMetric{})

	if len(dist) != 9 {
		t.Fatalf("len = %d, want 9", len(dist))
	}
	for i := 0; i < 3; i++ {
		if dist[i*3+i] != 0 {
			t.Errorf("diagonal [%d][%d] = %v, want 0", i, i, dist[i*3+i])
		}
		for j := 0; j < 3; j++ {
			if dist[i*3+j] != dist[j*3+i] {
				t.Errorf("matrix not symmetric at (%d, %d)", i, j)
			}
		}
	}
	if !almostEqual(dist[0*3+1], 1, 1e-12) {
		t.Errorf("d(0,1) = %v, want 1", dist[0*3+1])
	}
	if !almostEqual(dist[1*3+2], math.Sqrt(5), 1e-12) {
		t.Errorf("d(1,2) = %v, want sqrt(5)", dist[1*3+2])
	}
}
