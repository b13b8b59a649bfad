package microdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"acsrank/internal/ranking"
)

// columns maps header positions for the required microdata variables.
type columns struct {
	year   int
	age    int
	income int
	weight int
	educ   int
}

// Load reads a microdata extract, dispatching on the file extension.
// CSV and Excel (.xlsx) inputs are supported.
func Load(path string) ([]ranking.Record, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open microdata file: %w", err)
		}
		defer file.Close()
		return LoadCSV(file)
	case ".xlsx":
		return LoadExcel(path)
	default:
		return nil, fmt.Errorf("unsupported microdata format: %s", filepath.Ext(path))
	}
}

// LoadCSV reads microdata records from CSV. The first row must be a header
// containing the year, age, ftotinc, perwt and educ columns in any order.
func LoadCSV(r io.Reader) ([]ranking.Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var records []ranking.Record
	skipped := 0
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}

		rec, ok := parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		slog.Warn("skipped malformed microdata rows", "count", skipped)
	}

	return records, nil
}

// mapColumns finds the required variables in the header. Matching is
// case-insensitive and accepts a few common aliases.
func mapColumns(header []string) (columns, error) {
	cols := columns{year: -1, age: -1, income: -1, weight: -1, educ: -1}

	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "year":
			cols.year = i
		case "age":
			cols.age = i
		case "ftotinc", "income":
			cols.income = i
		case "perwt", "weight":
			cols.weight = i
		case "educ", "education":
			cols.educ = i
		}
	}

	missing := make([]string, 0, 5)
	if cols.year < 0 {
		missing = append(missing, "year")
	}
	if cols.age < 0 {
		missing = append(missing, "age")
	}
	if cols.income < 0 {
		missing = append(missing, "ftotinc")
	}
	if cols.weight < 0 {
		missing = append(missing, "perwt")
	}
	if cols.educ < 0 {
		missing = append(missing, "educ")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	return cols, nil
}

// parseRow converts one data row into a record. Rows with unparsable year,
// age, weight or education are rejected; an empty or unparsable income cell
// becomes NaN (missing) rather than rejecting the row.
func parseRow(row []string, cols columns) (ranking.Record, bool) {
	maxIdx := cols.year
	for _, idx := range []int{cols.age, cols.income, cols.weight, cols.educ} {
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	if len(row) <= maxIdx {
		return ranking.Record{}, false
	}

	year, err := strconv.Atoi(strings.TrimSpace(row[cols.year]))
	if err != nil {
		return ranking.Record{}, false
	}
	age, err := strconv.Atoi(strings.TrimSpace(row[cols.age]))
	if err != nil {
		return ranking.Record{}, false
	}
	weight, err := strconv.ParseFloat(strings.TrimSpace(row[cols.weight]), 64)
	if err != nil {
		return ranking.Record{}, false
	}
	educ, err := strconv.Atoi(strings.TrimSpace(row[cols.educ]))
	if err != nil {
		return ranking.Record{}, false
	}

	income := math.NaN()
	if cell := strings.TrimSpace(row[cols.income]); cell != "" {
		if v, err := strconv.ParseFloat(cell, 64); err == nil {
			income = v
		}
	}

	return ranking.Record{
		Year:   year,
		Age:    age,
		Income: income,
		Weight: weight,
		Educ:   educ,
	}, true
}
