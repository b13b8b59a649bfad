package ranking

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"
)

// DefaultCalculationTimeout bounds a single scenario run.
const DefaultCalculationTimeout = 5 * time.Minute

// Calculator runs one scenario end to end: filter and recode the records,
// rank incomes within each group, then bin and aggregate the ranks into the
// output table.
type Calculator struct {
	edges              BinEdges
	logger             *slog.Logger
	calculationTimeout time.Duration
}

// NewCalculator creates a calculator over the given bin edges.
func NewCalculator(edges BinEdges, logger *slog.Logger) *Calculator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Calculator{
		edges:              edges,
		logger:             logger,
		calculationTimeout: DefaultCalculationTimeout,
	}
}

// SetTimeout overrides the per-run timeout.
func (c *Calculator) SetTimeout(d time.Duration) {
	if d > 0 {
		c.calculationTimeout = d
	}
}

// Run executes the scenario over the records and returns the output table,
// sorted by (year, college, age, ibin).
func (c *Calculator) Run(ctx context.Context, scenario Scenario, records []Record) ([]TableRow, error) {
	start := time.Now()

	c.logger.InfoContext(ctx, "starting rank table calculation",
		"scenario", scenario.Name,
		"records", len(records),
		"min_age", scenario.MinAge,
		"max_age", scenario.MaxAge,
	)

	runCtx, cancel := context.WithTimeout(ctx, c.calculationTimeout)
	defer cancel()

	if err := c.validateInputs(scenario, records); err != nil {
		c.logger.ErrorContext(ctx, "input validation failed", "error", err)
		return nil, fmt.Errorf("validate inputs: %w", err)
	}

	groups := c.groupRecords(scenario, records)
	c.logger.InfoContext(ctx, "grouped records",
		"scenario", scenario.Name,
		"num_groups", len(groups),
	)

	ranked := make(map[GroupKey][]rankedObs, len(groups))
	for key, grp := range groups {
		select {
		case <-runCtx.Done():
			return nil, fmt.Errorf("calculation timeout exceeded: %w", runCtx.Err())
		default:
		}

		obs, err := c.rankGroup(grp)
		if err != nil {
			return nil, fmt.Errorf("rank group year=%d college=%d: %w", key.Year, key.College, err)
		}
		if len(obs) == 0 {
			// Zero eligible records or zero total weight: no rows for
			// this group, the run continues.
			c.logger.DebugContext(ctx, "group produced no ranks",
				"year", key.Year,
				"college", key.College,
			)
			continue
		}
		ranked[key] = obs
	}

	agg := NewAggregator(c.edges, scenario.MinGroupCount, c.logger)
	rows := agg.Aggregate(ranked)

	c.logger.InfoContext(ctx, "rank table calculation completed",
		"scenario", scenario.Name,
		"duration", time.Since(start),
		"groups_ranked", len(ranked),
		"rows", len(rows),
	)

	return rows, nil
}

// validateInputs validates the scenario parameters and input data.
func (c *Calculator) validateInputs(scenario Scenario, records []Record) error {
	if len(records) == 0 {
		return fmt.Errorf("no records provided")
	}
	if !c.edges.IsValid() {
		return fmt.Errorf("bin edges must be non-empty and strictly increasing")
	}
	if !scenario.IsValid() {
		return fmt.Errorf("invalid scenario parameters")
	}
	return nil
}

// group collects a group's incomes and weights in record order so ranks stay
// index-aligned during aggregation.
type group struct {
	incomes []float64
	weights []float64
}

// groupRecords applies the scenario's age filter and sentinel recoding, then
// partitions records by group key. Records with invalid weights are skipped.
func (c *Calculator) groupRecords(scenario Scenario, records []Record) map[GroupKey]*group {
	groups := make(map[GroupKey]*group)
	skipped := 0

	for _, r := range records {
		if !r.IsValid() {
			skipped++
			continue
		}
		if r.Age < scenario.MinAge {
			continue
		}
		if scenario.MaxAge > 0 && r.Age > scenario.MaxAge {
			continue
		}

		income := r.Income
		if scenario.RecodeSentinels &&
			(income == SentinelIncomeMissing || income == SentinelIncomeNIU) {
			income = math.NaN()
		}

		key := scenario.keyFor(r)
		grp, ok := groups[key]
		if !ok {
			grp = &group{}
			groups[key] = grp
		}
		grp.incomes = append(grp.incomes, income)
		grp.weights = append(grp.weights, r.Weight)
	}

	if skipped > 0 {
		c.logger.Debug("skipped invalid records", "count", skipped)
	}

	return groups
}

// rankGroup ranks one group's incomes and pairs each observed income with its
// rank. Missing incomes fall out here; they carry NaN ranks.
func (c *Calculator) rankGroup(grp *group) ([]rankedObs, error) {
	ranks, err := WeightedRanks(grp.incomes, grp.weights)
	if err != nil {
		return nil, err
	}

	obs := make([]rankedObs, 0, len(ranks))
	for i, rank := range ranks {
		if math.IsNaN(rank) {
			continue
		}
		obs = append(obs, rankedObs{income: grp.incomes[i], rank: rank})
	}
	return obs, nil
}
