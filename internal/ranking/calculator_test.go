package ranking

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCalculator() *Calculator {
	return NewCalculator(DefaultBinEdges, slog.Default())
}

// TestCalculatorPooled tests the pooled scenario end to end
func TestCalculatorPooled(t *testing.T) {
	ctx := context.Background()

	t.Run("three records span three bins", func(t *testing.T) {
		records := []Record{
			{Year: 2010, Age: 30, Income: 5000, Weight: 1},
			{Year: 2010, Age: 40, Income: 25000, Weight: 1},
			{Year: 2010, Age: 50, Income: 5000000, Weight: 1},
		}

		rows, err := testCalculator().Run(ctx, Pooled(), records)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, []float64{0, 20000, 200000}, []float64{rows[0].LBound, rows[1].LBound, rows[2].LBound})
		assert.Equal(t, []int{1, 2, 3}, []int{rows[0].IBin, rows[1].IBin, rows[2].IBin})
		assert.InDelta(t, 1.0/3.0, rows[0].Rank, 1e-9)
		assert.InDelta(t, 2.0/3.0, rows[1].Rank, 1e-9)
		assert.Equal(t, 1.0, rows[2].Rank)

		for _, row := range rows {
			assert.Equal(t, -1, row.College)
			assert.Equal(t, -1, row.Age)
		}
	})

	t.Run("minors filtered out", func(t *testing.T) {
		records := []Record{
			{Year: 2010, Age: 17, Income: 1000, Weight: 1},
			{Year: 2010, Age: 18, Income: 50000, Weight: 1},
		}

		rows, err := testCalculator().Run(ctx, Pooled(), records)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 50000.0, rows[0].LBound)
		assert.Equal(t, 1.0, rows[0].Rank)
	})

	t.Run("years aggregate independently", func(t *testing.T) {
		records := []Record{
			{Year: 2010, Age: 30, Income: 5000, Weight: 1},
			{Year: 2010, Age: 30, Income: 15000, Weight: 1},
			{Year: 2011, Age: 30, Income: 5000, Weight: 1},
		}

		rows, err := testCalculator().Run(ctx, Pooled(), records)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		// In 2011 the sole record ranks 1.0 even though the same income
		// ranks 0.5 in 2010.
		assert.Equal(t, 2011, rows[2].Year)
		assert.Equal(t, 1.0, rows[2].Rank)
		assert.InDelta(t, 0.5, rows[0].Rank, 1e-9)
	})

	t.Run("pooled scenario keeps sentinel incomes", func(t *testing.T) {
		// Sentinel recoding belongs to the cohort scenario only.
		records := []Record{
			{Year: 2010, Age: 30, Income: 5000, Weight: 1},
			{Year: 2010, Age: 30, Income: SentinelIncomeNIU, Weight: 1},
		}

		rows, err := testCalculator().Run(ctx, Pooled(), records)
		require.NoError(t, err)

		total := 0
		for _, row := range rows {
			total += row.Count
		}
		assert.Equal(t, 2, total)
	})

	t.Run("no records is an error", func(t *testing.T) {
		_, err := testCalculator().Run(ctx, Pooled(), nil)
		assert.Error(t, err)
	})

	t.Run("invalid bin edges rejected", func(t *testing.T) {
		calc := NewCalculator(BinEdges{10, 10}, slog.Default())
		_, err := calc.Run(ctx, Pooled(), []Record{{Year: 2010, Age: 30, Income: 1, Weight: 1}})
		assert.Error(t, err)
	})

	t.Run("cancelled context aborts", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		calc := testCalculator()
		calc.SetTimeout(time.Nanosecond)
		_, err := calc.Run(cancelled, Pooled(), []Record{
			{Year: 2010, Age: 30, Income: 1000, Weight: 1},
		})
		assert.Error(t, err)
	})
}

// TestCalculatorCohort tests the cohort scenario filters and grouping
func TestCalculatorCohort(t *testing.T) {
	ctx := context.Background()

	// Small threshold keeps fixtures readable; the production default stays
	// at DefaultMinGroupCount.
	scenario := func() Scenario {
		s := Cohort(23, 27, false)
		s.MinGroupCount = 1
		return s
	}

	t.Run("age window restricts both ends", func(t *testing.T) {
		records := []Record{
			{Year: 2010, Age: 22, Income: 10000, Weight: 1},
			{Year: 2010, Age: 23, Income: 20000, Weight: 1},
			{Year: 2010, Age: 27, Income: 30000, Weight: 1},
			{Year: 2010, Age: 28, Income: 40000, Weight: 1},
		}

		rows, err := testCalculator().Run(ctx, scenario(), records)
		require.NoError(t, err)

		total := 0
		for _, row := range rows {
			total += row.Count
		}
		assert.Equal(t, 2, total)
	})

	t.Run("college split from education code", func(t *testing.T) {
		records := []Record{
			{Year: 2010, Age: 25, Income: 20000, Weight: 1, Educ: 6},
			{Year: 2010, Age: 25, Income: 80000, Weight: 1, Educ: 10},
			{Year: 2010, Age: 25, Income: 90000, Weight: 1, Educ: 11},
		}

		rows, err := testCalculator().Run(ctx, scenario(), records)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, 0, rows[0].College)
		assert.Equal(t, 1.0, rows[0].Rank) // alone in its group
		assert.Equal(t, 1, rows[1].College)
		assert.Equal(t, 2, rows[1].Count)
	})

	t.Run("sentinel incomes recoded to missing", func(t *testing.T) {
		records := []Record{
			{Year: 2010, Age: 25, Income: SentinelIncomeMissing, Weight: 1, Educ: 6},
			{Year: 2010, Age: 25, Income: SentinelIncomeNIU, Weight: 5, Educ: 6},
			{Year: 2010, Age: 25, Income: 30000, Weight: 1, Educ: 6},
		}

		rows, err := testCalculator().Run(ctx, scenario(), records)
		require.NoError(t, err)
		require.Len(t, rows, 1)

		assert.Equal(t, 30000.0, rows[0].LBound)
		assert.Equal(t, 1.0, rows[0].Rank)
		assert.Equal(t, 1, rows[0].Count)
	})

	t.Run("group made entirely of sentinels vanishes", func(t *testing.T) {
		records := []Record{
			{Year: 2010, Age: 25, Income: SentinelIncomeNIU, Weight: 1, Educ: 6},
			{Year: 2011, Age: 25, Income: 40000, Weight: 1, Educ: 6},
		}

		rows, err := testCalculator().Run(ctx, scenario(), records)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		assert.Equal(t, 2011, rows[0].Year)
	})

	t.Run("by-age grouping separates ages", func(t *testing.T) {
		s := Cohort(23, 27, true)
		s.MinGroupCount = 1

		records := []Record{
			{Year: 2010, Age: 24, Income: 10000, Weight: 1, Educ: 6},
			{Year: 2010, Age: 26, Income: 10000, Weight: 1, Educ: 6},
		}

		rows, err := testCalculator().Run(ctx, s, records)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, 24, rows[0].Age)
		assert.Equal(t, 26, rows[1].Age)
		// Each record alone in its own (year, college, age) group.
		assert.Equal(t, 1.0, rows[0].Rank)
		assert.Equal(t, 1.0, rows[1].Rank)
	})

	t.Run("default threshold drops sparse groups", func(t *testing.T) {
		records := []Record{
			{Year: 2010, Age: 25, Income: 30000, Weight: 1, Educ: 6},
		}

		rows, err := testCalculator().Run(ctx, Cohort(23, 27, false), records)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})

	t.Run("wider window preset admits younger adults", func(t *testing.T) {
		s := Cohort(18, 27, false)
		s.MinGroupCount = 1

		records := []Record{
			{Year: 2010, Age: 19, Income: 15000, Weight: 1, Educ: 6},
		}

		rows, err := testCalculator().Run(ctx, s, records)
		require.NoError(t, err)
		assert.Len(t, rows, 1)
	})
}

// TestScenario tests preset construction and file naming
func TestScenario(t *testing.T) {
	t.Run("pooled preset", func(t *testing.T) {
		s := Pooled()
		assert.True(t, s.IsValid())
		assert.False(t, s.ByCollege)
		assert.Equal(t, 0, s.MinGroupCount)
		assert.Equal(t, DefaultMinAge, s.MinAge)
		assert.Equal(t, "IPUMS_ftotinc_rank_by_year.csv", s.OutputFile())
	})

	t.Run("cohort preset", func(t *testing.T) {
		s := Cohort(23, 27, false)
		assert.True(t, s.IsValid())
		assert.True(t, s.ByCollege)
		assert.True(t, s.RecodeSentinels)
		assert.Equal(t, DefaultMinGroupCount, s.MinGroupCount)
		assert.Equal(t, "IPUMS_ftotinc_rank_cohort_age23_27.csv", s.OutputFile())
	})

	t.Run("by-age file suffix", func(t *testing.T) {
		s := Cohort(18, 27, true)
		assert.Equal(t, "IPUMS_ftotinc_rank_cohort_age18_27_age.csv", s.OutputFile())
	})

	t.Run("invalid windows", func(t *testing.T) {
		s := Cohort(27, 23, false)
		assert.False(t, s.IsValid())

		s = Pooled()
		s.MinAge = -1
		assert.False(t, s.IsValid())
	})
}
