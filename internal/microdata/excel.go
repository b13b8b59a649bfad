package microdata

import (
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"acsrank/internal/ranking"
)

// headerScanRows is how deep into a sheet the header row is sought. Upstream
// survey workbooks open with a license-terms row before the header.
const headerScanRows = 5

// LoadExcel reads microdata records from an Excel workbook. The first sheet
// containing the required header columns is used; the header may sit a few
// rows down (upstream distributions put license terms above it), and extra
// sheets without microdata columns are skipped.
func LoadExcel(path string) ([]ranking.Record, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	var rows [][]string
	var cols columns
	var sheetName string
	headerRow := -1

	for _, name := range f.GetSheetList() {
		sheetRows, err := f.GetRows(name)
		if err != nil || len(sheetRows) < 2 {
			continue
		}
		for i := 0; i < len(sheetRows) && i < headerScanRows; i++ {
			if c, err := mapColumns(sheetRows[i]); err == nil {
				rows = sheetRows
				cols = c
				sheetName = name
				headerRow = i
				break
			}
		}
		if headerRow >= 0 {
			break
		}
	}

	if headerRow < 0 {
		return nil, fmt.Errorf("no sheet with microdata columns in %s", path)
	}

	slog.Info("found microdata sheet",
		slog.String("sheet_name", sheetName),
		slog.Int("header_row", headerRow),
		slog.Int("total_rows", len(rows)),
	)

	var records []ranking.Record
	skipped := 0
	for _, row := range rows[headerRow+1:] {
		rec, ok := parseRow(row, cols)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		slog.Warn("skipped malformed workbook rows", "count", skipped)
	}

	return records, nil
}
