// Command rank-tables computes weighted income rank lookup tables from a
// household survey microdata extract.
//
// It runs two scenarios over the same input: a pooled table keyed by survey
// year and a cohort table keyed by (year, college attainment) over a
// restricted age window. Both tables land in the data directory as CSV; an
// optional diagnostic scatter chart of the cohort table lands in the graph
// directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"acsrank/internal/chart"
	"acsrank/internal/config"
	"acsrank/internal/exporter"
	"acsrank/internal/infrastructure"
	"acsrank/internal/microdata"
	"acsrank/internal/ranking"
)

// flagOverrides holds CLI values that take precedence over config when set.
type flagOverrides struct {
	input    string
	out      string
	graphDir string
	logLevel string
	ageMin   int
	ageMax   int
	byAge    bool
	minCount int
	plot     bool

	set map[string]bool
}

func main() {
	configPath := flag.String("config", "", "optional YAML config file")
	input := flag.String("input", "", "microdata extract (.csv or .xlsx)")
	out := flag.String("out", "", "output directory for rank tables")
	graphDir := flag.String("graph-dir", "", "output directory for charts")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	ageMin := flag.Int("age-min", 0, "cohort age window lower bound (preset: 23)")
	ageMax := flag.Int("age-max", 0, "cohort age window upper bound (preset: 27)")
	byAge := flag.Bool("by-age", false, "additionally group the cohort scenario by age")
	minCount := flag.Int("min-count", 0, "minimum observations per cohort group")
	plot := flag.Bool("plot", false, "render the diagnostic scatter chart")
	flag.Parse()

	overrides := flagOverrides{
		input:    *input,
		out:      *out,
		graphDir: *graphDir,
		logLevel: *logLevel,
		ageMin:   *ageMin,
		ageMax:   *ageMax,
		byAge:    *byAge,
		minCount: *minCount,
		plot:     *plot,
		set:      map[string]bool{},
	}
	flag.Visit(func(f *flag.Flag) { overrides.set[f.Name] = true })

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	applyOverrides(cfg, overrides)

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	paths, err := config.NewPaths(cfg.Output)
	if err != nil {
		slog.Error("failed to resolve output paths", "error", err)
		os.Exit(1)
	}
	if err := paths.EnsureDirs(); err != nil {
		slog.Error("failed to create runtime directories", "error", err)
		os.Exit(1)
	}

	// Keep the log file inside the configured logs directory unless an
	// absolute path was given.
	if !filepath.IsAbs(cfg.Logging.FilePath) {
		cfg.Logging.FilePath = filepath.Join(paths.LogsDir, filepath.Base(cfg.Logging.FilePath))
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Error("failed to initialize logger", "error", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	ctx := infrastructure.WithRunID(context.Background(), uuid.NewString())

	if err := run(ctx, cfg, paths, logger); err != nil {
		logger.ErrorContext(ctx, "run failed", "error", err)
		os.Exit(1)
	}
}

// applyOverrides copies explicitly-set flags onto the configuration.
func applyOverrides(cfg *config.Config, o flagOverrides) {
	if o.set["input"] {
		cfg.Input.Path = o.input
	}
	if o.set["out"] {
		cfg.Output.DataDir = o.out
	}
	if o.set["graph-dir"] {
		cfg.Output.GraphDir = o.graphDir
	}
	if o.set["log-level"] {
		cfg.Logging.Level = o.logLevel
	}
	if o.set["age-min"] {
		cfg.Ranking.CohortMinAge = o.ageMin
	}
	if o.set["age-max"] {
		cfg.Ranking.CohortMaxAge = o.ageMax
	}
	if o.set["by-age"] {
		cfg.Ranking.ByAge = o.byAge
	}
	if o.set["min-count"] {
		cfg.Ranking.MinGroupCount = o.minCount
	}
	if o.set["plot"] {
		cfg.Ranking.Plot = o.plot
	}
}

// binEdges returns the configured edges, falling back to the defaults.
func binEdges(cfg *config.Config) ranking.BinEdges {
	if len(cfg.Ranking.BinEdges) > 0 {
		return ranking.BinEdges(cfg.Ranking.BinEdges)
	}
	return ranking.DefaultBinEdges
}

// scenarios assembles the two presets from the configuration.
func scenarios(cfg *config.Config) (pooled, cohort ranking.Scenario) {
	pooled = ranking.Pooled()
	pooled.MinAge = cfg.Ranking.PooledMinAge

	cohort = ranking.Cohort(cfg.Ranking.CohortMinAge, cfg.Ranking.CohortMaxAge, cfg.Ranking.ByAge)
	cohort.MinGroupCount = cfg.Ranking.MinGroupCount
	cohort.CollegeMinEduc = cfg.Ranking.CollegeMinEduc

	return pooled, cohort
}

func run(ctx context.Context, cfg *config.Config, paths *config.Paths, logger *slog.Logger) error {
	logger.InfoContext(ctx, "loading microdata", "path", cfg.Input.Path)
	records, err := microdata.Load(cfg.Input.Path)
	if err != nil {
		return fmt.Errorf("load microdata: %w", err)
	}
	if len(records) == 0 {
		return fmt.Errorf("no records in %s", cfg.Input.Path)
	}
	logger.InfoContext(ctx, "loaded microdata", "records", len(records))

	calc := ranking.NewCalculator(binEdges(cfg), logger)
	calc.SetTimeout(cfg.Ranking.Timeout)

	pooled, cohort := scenarios(cfg)

	// The two scenarios read the same immutable records and write disjoint
	// tables, so they run concurrently.
	var pooledRows, cohortRows []ranking.TableRow
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := calc.Run(gctx, pooled, records)
		if err != nil {
			return fmt.Errorf("pooled scenario: %w", err)
		}
		pooledRows = rows
		return nil
	})
	g.Go(func() error {
		rows, err := calc.Run(gctx, cohort, records)
		if err != nil {
			return fmt.Errorf("cohort scenario: %w", err)
		}
		cohortRows = rows
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	writer := exporter.NewCSVWriter(paths, logger)

	pooledPath, err := writer.WriteTable(pooled.OutputFile(), exporter.WriteOptions{
		Headers: pooled.Columns(),
		Records: ranking.FormatRows(pooledRows, pooled),
	})
	if err != nil {
		return fmt.Errorf("write pooled table: %w", err)
	}

	cohortPath, err := writer.WriteTable(cohort.OutputFile(), exporter.WriteOptions{
		Headers: cohort.Columns(),
		Records: ranking.FormatRows(cohortRows, cohort),
	})
	if err != nil {
		return fmt.Errorf("write cohort table: %w", err)
	}

	logger.InfoContext(ctx, "rank tables written",
		"pooled", pooledPath,
		"pooled_rows", len(pooledRows),
		"cohort", cohortPath,
		"cohort_rows", len(cohortRows),
	)

	if cfg.Ranking.Plot {
		graphPath := paths.GraphFile("ftotinc_rank_diag.html")
		if err := chart.RenderRankScatter(cohortRows, "median income rank by bin", graphPath); err != nil {
			return fmt.Errorf("render diagnostic chart: %w", err)
		}
		logger.InfoContext(ctx, "diagnostic chart written", "path", graphPath)
	}

	return nil
}
