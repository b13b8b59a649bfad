// Package ranking implements the weighted income rank tables derived from
// household survey microdata.
//
// The package turns person-level records (survey year, age, education, family
// income, sampling weight) into per-year lookup tables that map coarse income
// bins onto a continuous income-rank scale. It is the computational core of
// the rank-tables pipeline; reading the microdata and writing CSV files are
// handled by the microdata and exporter packages.
//
// # Core Components
//
// The pipeline has two statistical stages run per scenario:
//
//  1. Weighted ranking: every record receives its weighted empirical CDF rank
//     within its group (the fraction of total group weight held by records
//     with income at or below its own).
//  2. Bin aggregation: incomes are discretized into fixed half-open bins and
//     each (group, bin) cell collapses to the median of its member ranks,
//     with undersized groups dropped and surviving bins reindexed to a dense
//     1-based ordinal.
//
// # Architecture
//
//   - types.go: records, group keys, bin edges, scenarios, output rows
//   - ranker.go: weighted empirical CDF ranks
//   - aggregate.go: bin assignment, per-cell medians, thresholds, reindexing
//   - calculator.go: scenario orchestration (filtering, recoding, grouping)
//   - persist.go: output table shaping for the CSV exporter
//
// Two scenarios share the same stages with different grouping: the pooled
// scenario groups by survey year only, the cohort scenario groups by
// (year, college attainment) over a restricted age window and applies a
// minimum per-group observation count.
package ranking
