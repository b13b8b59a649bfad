package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestScenarioColumns tests the CSV header layouts
func TestScenarioColumns(t *testing.T) {
	tests := []struct {
		name     string
		scenario Scenario
		expected []string
	}{
		{"pooled", Pooled(), []string{"year", "ibin", "lbound", "rank"}},
		{"cohort", Cohort(23, 27, false), []string{"year", "college", "ibin", "lbound", "rank"}},
		{"cohort by age", Cohort(18, 27, true), []string{"year", "college", "age", "ibin", "lbound", "rank"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.scenario.Columns())
		})
	}
}

// TestFormatRows tests CSV record rendering
func TestFormatRows(t *testing.T) {
	t.Run("rank always has three decimals", func(t *testing.T) {
		rows := []TableRow{
			{Year: 2010, College: -1, Age: -1, IBin: 1, LBound: 0, Rank: 1.0 / 3.0},
			{Year: 2010, College: -1, Age: -1, IBin: 2, LBound: 20000, Rank: 0.5},
			{Year: 2010, College: -1, Age: -1, IBin: 3, LBound: 200000, Rank: 1},
		}

		records := FormatRows(rows, Pooled())
		require.Len(t, records, 3)

		assert.Equal(t, []string{"2010", "1", "0", "0.333"}, records[0])
		assert.Equal(t, []string{"2010", "2", "20000", "0.500"}, records[1])
		assert.Equal(t, []string{"2010", "3", "200000", "1.000"}, records[2])
	})

	t.Run("cohort layout includes college", func(t *testing.T) {
		rows := []TableRow{
			{Year: 2012, College: 1, Age: -1, IBin: 1, LBound: 75000, Rank: 0.62349},
		}

		records := FormatRows(rows, Cohort(23, 27, false))
		require.Len(t, records, 1)
		assert.Equal(t, []string{"2012", "1", "1", "75000", "0.623"}, records[0])
	})

	t.Run("by-age layout includes age", func(t *testing.T) {
		rows := []TableRow{
			{Year: 2012, College: 0, Age: 24, IBin: 2, LBound: 10000, Rank: 0.4},
		}

		records := FormatRows(rows, Cohort(18, 27, true))
		require.Len(t, records, 1)
		assert.Equal(t, []string{"2012", "0", "24", "2", "10000", "0.400"}, records[0])
	})

	t.Run("empty input", func(t *testing.T) {
		assert.Empty(t, FormatRows(nil, Pooled()))
	})
}
