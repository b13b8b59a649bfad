package ranking

import (
	"fmt"
	"math"
	"sort"
)

// WeightedRanks computes the weighted empirical CDF rank for every value in a
// group: rank(x) is the fraction of total group weight belonging to records
// with value <= x, so tied values share one rank and the largest value ranks
// exactly 1.0. Missing values (NaN) and records with non-positive weight are
// excluded from the computation and receive NaN ranks. Ranks are invariant to
// uniformly rescaling all weights.
//
// The returned slice is index-aligned with the inputs. A group with no
// observed values or zero total weight returns all-NaN ranks, which drops the
// group downstream.
func WeightedRanks(values, weights []float64) ([]float64, error) {
	if len(values) != len(weights) {
		return nil, fmt.Errorf("values/weights length mismatch: %d != %d", len(values), len(weights))
	}

	ranks := make([]float64, len(values))
	for i := range ranks {
		ranks[i] = math.NaN()
	}

	// Collect indices of eligible records and the eligible weight total.
	// Missing values and non-positive weights fall out here rather than
	// failing the group.
	idx := make([]int, 0, len(values))
	total := 0.0
	for i, v := range values {
		if math.IsNaN(v) || weights[i] <= 0 {
			continue
		}
		idx = append(idx, i)
		total += weights[i]
	}

	if len(idx) == 0 || total <= 0 {
		return ranks, nil
	}

	sort.Slice(idx, func(a, b int) bool {
		return values[idx[a]] < values[idx[b]]
	})

	// Walk tie runs, accumulating weight; every member of a run gets the
	// cumulative fraction at the end of the run (CDF inclusive of the point).
	cum := 0.0
	for i := 0; i < len(idx); {
		j := i
		for j < len(idx) && values[idx[j]] == values[idx[i]] {
			cum += weights[idx[j]]
			j++
		}
		r := cum / total
		for k := i; k < j; k++ {
			ranks[idx[k]] = r
		}
		i = j
	}

	// Guard against float accumulation leaving the top rank short of 1.
	for k := len(idx) - 1; k >= 0 && values[idx[k]] == values[idx[len(idx)-1]]; k-- {
		ranks[idx[k]] = 1.0
	}

	return ranks, nil
}
