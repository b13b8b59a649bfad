// Package chart renders diagnostic charts for the rank tables.
//
// Charts are a presentation aid only; the pipeline's contract is the CSV
// tables, and chart rendering runs after those are finalized.
package chart

import (
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"acsrank/internal/ranking"
)

// RenderRankScatter writes an HTML page with one scatter of median rank
// against bin index per college group, one series per survey year. Rows
// without a college split render as a single panel.
func RenderRankScatter(rows []ranking.TableRow, title, outPath string) error {
	if len(rows) == 0 {
		return fmt.Errorf("no rows to plot")
	}

	panels := splitByCollege(rows)

	page := components.NewPage()
	page.PageTitle = title

	colleges := make([]int, 0, len(panels))
	for college := range panels {
		colleges = append(colleges, college)
	}
	sort.Ints(colleges)

	for _, college := range colleges {
		page.AddCharts(scatterPanel(panels[college], panelTitle(title, college)))
	}

	file, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer file.Close()

	if err := page.Render(file); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}

func splitByCollege(rows []ranking.TableRow) map[int][]ranking.TableRow {
	panels := make(map[int][]ranking.TableRow)
	for _, row := range rows {
		panels[row.College] = append(panels[row.College], row)
	}
	return panels
}

func panelTitle(title string, college int) string {
	if college < 0 {
		return title
	}
	return fmt.Sprintf("%s (college = %d)", title, college)
}

// scatterPanel builds one scatter with a series per survey year.
func scatterPanel(rows []ranking.TableRow, title string) *charts.Scatter {
	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithXAxisOpts(opts.XAxis{Name: "ibin", Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "rank", Type: "value", Max: 1}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	byYear := make(map[int][]opts.ScatterData)
	for _, row := range rows {
		byYear[row.Year] = append(byYear[row.Year], opts.ScatterData{
			Value:      []interface{}{row.IBin, row.Rank},
			SymbolSize: 8,
		})
	}

	years := make([]int, 0, len(byYear))
	for year := range byYear {
		years = append(years, year)
	}
	sort.Ints(years)

	for _, year := range years {
		scatter.AddSeries(strconv.Itoa(year), byYear[year])
	}

	return scatter
}
