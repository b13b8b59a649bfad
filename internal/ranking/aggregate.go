package ranking

import (
	"log/slog"
	"math"
	"sort"
)

// Aggregator collapses ranked records into per-(group, bin) cells: each cell
// holds the median of its members' ranks and the unweighted member count.
// Groups whose total binned count falls below the minimum are dropped, and
// surviving bins are reindexed to a dense 1-based ordinal per group.
type Aggregator struct {
	edges         BinEdges
	minGroupCount int
	logger        *slog.Logger
}

// NewAggregator creates an aggregator over the given bin edges. A
// minGroupCount of zero disables the minimum-count policy.
func NewAggregator(edges BinEdges, minGroupCount int, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{
		edges:         edges,
		minGroupCount: minGroupCount,
		logger:        logger,
	}
}

// rankedObs is one record that survived ranking: its clamped income and its
// weighted rank within the group.
type rankedObs struct {
	income float64
	rank   float64
}

// Aggregate bins each observation, collapses cells to medians, applies the
// minimum-count policy per group and reindexes bins. Rows come back sorted by
// (year, college, age, ibin).
func (a *Aggregator) Aggregate(groups map[GroupKey][]rankedObs) []TableRow {
	var rows []TableRow
	unbinnable := 0

	for key, obs := range groups {
		// Negative raw incomes clamp to zero before binning.
		cells := make(map[float64][]float64)
		binned := 0
		for _, o := range obs {
			lbound, ok := a.edges.Locate(math.Max(o.income, 0))
			if !ok {
				// Unreachable with a zero first edge, but never crash on it.
				unbinnable++
				continue
			}
			cells[lbound] = append(cells[lbound], o.rank)
			binned++
		}

		if len(cells) == 0 {
			continue
		}
		if a.minGroupCount > 0 && binned < a.minGroupCount {
			a.logger.Debug("dropping undersized group",
				"year", key.Year,
				"college", key.College,
				"count", binned,
				"min_count", a.minGroupCount,
			)
			continue
		}

		lbounds := make([]float64, 0, len(cells))
		for lb := range cells {
			lbounds = append(lbounds, lb)
		}
		sort.Float64s(lbounds)

		for i, lb := range lbounds {
			ranks := cells[lb]
			rows = append(rows, TableRow{
				Year:    key.Year,
				College: key.College,
				Age:     key.Age,
				IBin:    i + 1,
				LBound:  lb,
				Rank:    median(ranks),
				Count:   len(ranks),
			})
		}
	}

	if unbinnable > 0 {
		a.logger.Warn("dropped observations outside all bins", "count", unbinnable)
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Year != rows[j].Year {
			return rows[i].Year < rows[j].Year
		}
		if rows[i].College != rows[j].College {
			return rows[i].College < rows[j].College
		}
		if rows[i].Age != rows[j].Age {
			return rows[i].Age < rows[j].Age
		}
		return rows[i].IBin < rows[j].IBin
	})

	return rows
}

// median returns the standard median: the middle value for odd counts, the
// mean of the two middle values for even counts. The input is not modified.
func median(values []float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}
