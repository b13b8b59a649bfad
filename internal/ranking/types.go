package ranking

import (
	"fmt"
	"math"
)

// Sentinel codes used for family income in the source microdata. Both mean
// "no valid response" and are recoded to missing in the cohort scenario.
const (
	SentinelIncomeMissing = 9999998
	SentinelIncomeNIU     = 9999999
)

const (
	// DefaultMinGroupCount is the minimum number of binned observations a
	// cohort group must have before its cells appear in the output.
	DefaultMinGroupCount = 1000

	// DefaultCollegeMinEduc is the lowest education code counted as
	// college attainment.
	DefaultCollegeMinEduc = 10

	// DefaultMinAge is the age cutoff for the pooled scenario.
	DefaultMinAge = 18
)

// DefaultBinEdges are the fixed family-income bin lower bounds shared by all
// scenarios. Intervals are half-open; the last bin is unbounded above.
var DefaultBinEdges = BinEdges{
	0, 10000, 20000, 30000, 40000, 50000,
	60000, 75000, 100000, 150000, 200000,
}

// Record is one person-year observation from the household microdata.
type Record struct {
	Year   int     `json:"year"`
	Age    int     `json:"age"`
	Income float64 `json:"income"` // NaN means missing
	Weight float64 `json:"weight"` // survey sampling weight
	Educ   int     `json:"educ"`   // education attainment code
}

// IsValid checks whether the record can participate in any scenario.
func (r Record) IsValid() bool {
	return r.Year > 0 && r.Weight > 0
}

// GroupKey identifies one aggregation group. College and Age are set to -1
// when the scenario does not group on that dimension, so keys stay comparable
// across scenarios.
type GroupKey struct {
	Year    int
	College int
	Age     int
}

// BinEdges is an ordered sequence of bin lower bounds defining half-open
// income intervals. The interval above the last edge is unbounded.
type BinEdges []float64

// IsValid checks that the edges are non-empty and strictly increasing.
func (e BinEdges) IsValid() bool {
	if len(e) == 0 {
		return false
	}
	for i := 1; i < len(e); i++ {
		if e[i] <= e[i-1] {
			return false
		}
	}
	return true
}

// Locate returns the lower bound of the half-open interval containing v.
// Values at or above the last edge fall into the last bin. The second return
// is false when v lies below the first edge and no bin applies.
func (e BinEdges) Locate(v float64) (float64, bool) {
	if len(e) == 0 || math.IsNaN(v) || v < e[0] {
		return 0, false
	}
	for i := len(e) - 1; i >= 0; i-- {
		if v >= e[i] {
			return e[i], true
		}
	}
	return 0, false
}

// Scenario is one configuration preset for the pipeline. The pooled and
// cohort runs are the two presets exercised by default; the age window and
// by-age grouping are configurable rather than hard-coded because the
// canonical window has changed across revisions.
type Scenario struct {
	Name            string
	MinAge          int
	MaxAge          int // 0 means no upper bound
	ByCollege       bool
	ByAge           bool
	RecodeSentinels bool
	CollegeMinEduc  int
	MinGroupCount   int // 0 disables the threshold
}

// Pooled returns the preset grouping by survey year only.
func Pooled() Scenario {
	return Scenario{
		Name:   "pooled",
		MinAge: DefaultMinAge,
	}
}

// Cohort returns the preset grouping by (year, college) over an age window,
// with the default minimum-count threshold applied.
func Cohort(minAge, maxAge int, byAge bool) Scenario {
	return Scenario{
		Name:            "cohort",
		MinAge:          minAge,
		MaxAge:          maxAge,
		ByCollege:       true,
		ByAge:           byAge,
		RecodeSentinels: true,
		CollegeMinEduc:  DefaultCollegeMinEduc,
		MinGroupCount:   DefaultMinGroupCount,
	}
}

// IsValid checks the scenario parameters.
func (s Scenario) IsValid() bool {
	if s.MinAge < 0 || (s.MaxAge != 0 && s.MaxAge < s.MinAge) {
		return false
	}
	if s.ByCollege && s.CollegeMinEduc <= 0 {
		return false
	}
	return s.MinGroupCount >= 0
}

// OutputFile returns the CSV file name for this scenario. The cohort file
// name encodes the age window and carries an "_age" suffix when by-age
// grouping is enabled, so different presets never overwrite each other.
func (s Scenario) OutputFile() string {
	if !s.ByCollege {
		return "IPUMS_ftotinc_rank_by_year.csv"
	}
	name := fmt.Sprintf("IPUMS_ftotinc_rank_cohort_age%d_%d", s.MinAge, s.MaxAge)
	if s.ByAge {
		name += "_age"
	}
	return name + ".csv"
}

// keyFor builds the aggregation key for a record under this scenario.
// College is derived from the education code.
func (s Scenario) keyFor(r Record) GroupKey {
	key := GroupKey{Year: r.Year, College: -1, Age: -1}
	if s.ByCollege {
		key.College = 0
		if r.Educ >= s.CollegeMinEduc {
			key.College = 1
		}
	}
	if s.ByAge {
		key.Age = r.Age
	}
	return key
}

// TableRow is one output row: a (group, bin) cell after thresholding and
// reindexing. Rank keeps full float precision; rounding to three decimals
// happens only when the table is formatted for CSV.
type TableRow struct {
	Year    int
	College int // -1 when not grouped by college
	Age     int // -1 when not grouped by age
	IBin    int
	LBound  float64
	Rank    float64
	Count   int
}
