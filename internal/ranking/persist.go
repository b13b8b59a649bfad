package ranking

import (
	"fmt"
	"strconv"
)

// Columns returns the CSV header for the tables this scenario produces.
func (s Scenario) Columns() []string {
	cols := []string{"year"}
	if s.ByCollege {
		cols = append(cols, "college")
	}
	if s.ByAge {
		cols = append(cols, "age")
	}
	return append(cols, "ibin", "lbound", "rank")
}

// FormatRows renders output rows as CSV records matching s.Columns(). Ranks
// are presented with exactly three decimal places; lower bounds print as
// plain integers since all configured edges are whole dollar amounts.
func FormatRows(rows []TableRow, s Scenario) [][]string {
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		rec := []string{strconv.Itoa(row.Year)}
		if s.ByCollege {
			rec = append(rec, strconv.Itoa(row.College))
		}
		if s.ByAge {
			rec = append(rec, strconv.Itoa(row.Age))
		}
		rec = append(rec,
			strconv.Itoa(row.IBin),
			strconv.FormatFloat(row.LBound, 'f', -1, 64),
			fmt.Sprintf("%.3f", row.Rank),
		)
		records = append(records, rec)
	}
	return records
}
