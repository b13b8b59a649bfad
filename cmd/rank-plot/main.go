// Command rank-plot renders the diagnostic scatter chart for a rank table
// produced by rank-tables.
//
// It reads one of the CSV tables back in and writes an HTML chart of median
// rank against bin index, one series per survey year, one panel per college
// group when the table carries a college column.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"acsrank/internal/chart"
	"acsrank/internal/ranking"
)

func main() {
	input := flag.String("input", "", "rank table CSV produced by rank-tables")
	out := flag.String("out", "ftotinc_rank_diag.html", "output HTML file")
	title := flag.String("title", "median income rank by bin", "chart title")
	flag.Parse()

	if *input == "" {
		slog.Error("missing required -input flag")
		os.Exit(1)
	}

	rows, err := loadTable(*input)
	if err != nil {
		slog.Error("failed to load rank table", "path", *input, "error", err)
		os.Exit(1)
	}
	slog.Info("loaded rank table", "path", *input, "rows", len(rows))

	if err := chart.RenderRankScatter(rows, *title, *out); err != nil {
		slog.Error("failed to render chart", "error", err)
		os.Exit(1)
	}
	slog.Info("chart written", "path", *out)
}

// loadTable reads a rank table CSV back into rows. The year, ibin, lbound
// and rank columns are required; college and age are optional and default
// to -1 when absent.
func loadTable(path string) ([]ranking.TableRow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	yearIdx, collegeIdx, ageIdx, ibinIdx, lboundIdx, rankIdx := -1, -1, -1, -1, -1, -1
	for i, col := range header {
		switch col {
		case "year":
			yearIdx = i
		case "college":
			collegeIdx = i
		case "age":
			ageIdx = i
		case "ibin":
			ibinIdx = i
		case "lbound":
			lboundIdx = i
		case "rank":
			rankIdx = i
		}
	}
	if yearIdx < 0 || ibinIdx < 0 || lboundIdx < 0 || rankIdx < 0 {
		return nil, fmt.Errorf("not a rank table: missing required columns")
	}

	var rows []ranking.TableRow
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		year, err := strconv.Atoi(record[yearIdx])
		if err != nil {
			return nil, fmt.Errorf("parse year %q: %w", record[yearIdx], err)
		}
		ibin, err := strconv.Atoi(record[ibinIdx])
		if err != nil {
			return nil, fmt.Errorf("parse ibin %q: %w", record[ibinIdx], err)
		}
		lbound, err := strconv.ParseFloat(record[lboundIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("parse lbound %q: %w", record[lboundIdx], err)
		}
		rank, err := strconv.ParseFloat(record[rankIdx], 64)
		if err != nil {
			return nil, fmt.Errorf("parse rank %q: %w", record[rankIdx], err)
		}

		row := ranking.TableRow{
			Year:    year,
			College: -1,
			Age:     -1,
			IBin:    ibin,
			LBound:  lbound,
			Rank:    rank,
		}
		if collegeIdx >= 0 {
			if row.College, err = strconv.Atoi(record[collegeIdx]); err != nil {
				return nil, fmt.Errorf("parse college %q: %w", record[collegeIdx], err)
			}
		}
		if ageIdx >= 0 {
			if row.Age, err = strconv.Atoi(record[ageIdx]); err != nil {
				return nil, fmt.Errorf("parse age %q: %w", record[ageIdx], err)
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}
