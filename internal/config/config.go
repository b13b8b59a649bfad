package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete pipeline configuration
type Config struct {
	Input   InputConfig   `yaml:"input" envconfig:"INPUT"`
	Output  OutputConfig  `yaml:"output" envconfig:"OUTPUT"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Ranking RankingConfig `yaml:"ranking" envconfig:"RANKING"`
}

// InputConfig locates the microdata extract
type InputConfig struct {
	Path string `yaml:"path" envconfig:"PATH"`
}

// OutputConfig contains the runtime directory layout
type OutputConfig struct {
	DataDir  string `yaml:"data_dir" envconfig:"DATA_DIR" default:"output" validate:"required"`
	GraphDir string `yaml:"graph_dir" envconfig:"GRAPH_DIR" default:"graphs" validate:"required"`
	LogsDir  string `yaml:"logs_dir" envconfig:"LOGS_DIR" default:"logs" validate:"required"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" default:"info" validate:"oneof=debug info warn error"`
	Output   string `yaml:"output" envconfig:"OUTPUT" default:"stdout" validate:"oneof=stdout file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH" default:"logs/rank-tables.log"`
}

// RankingConfig contains the statistical parameters of both scenarios
type RankingConfig struct {
	// BinEdges are the fixed income bin lower bounds. Empty means the
	// built-in default edges.
	BinEdges []float64 `yaml:"bin_edges" envconfig:"BIN_EDGES"`

	// PooledMinAge is the age cutoff for the pooled scenario.
	PooledMinAge int `yaml:"pooled_min_age" envconfig:"POOLED_MIN_AGE" default:"18" validate:"min=0"`

	// CohortMinAge/CohortMaxAge select the cohort age window preset.
	// Both 23-27 and 18-27 have been used across revisions; neither is
	// canonical, so the window stays configurable.
	CohortMinAge int `yaml:"cohort_min_age" envconfig:"COHORT_MIN_AGE" default:"23" validate:"min=0"`
	CohortMaxAge int `yaml:"cohort_max_age" envconfig:"COHORT_MAX_AGE" default:"27" validate:"min=0"`

	// ByAge additionally groups the cohort scenario by single year of age.
	ByAge bool `yaml:"by_age" envconfig:"BY_AGE" default:"false"`

	// MinGroupCount drops cohort groups with fewer binned observations.
	MinGroupCount int `yaml:"min_group_count" envconfig:"MIN_GROUP_COUNT" default:"1000" validate:"min=0"`

	// CollegeMinEduc is the lowest education code counted as college.
	CollegeMinEduc int `yaml:"college_min_educ" envconfig:"COLLEGE_MIN_EDUC" default:"10" validate:"min=1"`

	// Timeout bounds each scenario run.
	Timeout time.Duration `yaml:"timeout" envconfig:"TIMEOUT" default:"5m"`

	// Plot emits the diagnostic scatter chart after the cohort run.
	Plot bool `yaml:"plot" envconfig:"PLOT" default:"false"`
}

// Load builds the configuration from defaults, an optional YAML file and
// ACSRANK_* environment variables, in that order of precedence. An empty
// filePath skips the YAML stage. Validation is deferred to Validate so the
// binaries can apply flag overrides first.
func Load(filePath string) (*Config, error) {
	var cfg Config

	if err := envconfig.Process("ACSRANK", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if filePath != "" {
		fileCfg, err := loadFromFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		cfg = mergeConfigs(*fileCfg, cfg)
	}

	return &cfg, nil
}

// Default returns the built-in configuration.
func Default() *Config {
	cfg, _ := Load("")
	return cfg
}

// Validate checks the assembled configuration, including cross-field rules
// the struct tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	if c.Input.Path == "" {
		return fmt.Errorf("input path is required")
	}

	if c.Ranking.CohortMaxAge < c.Ranking.CohortMinAge {
		return fmt.Errorf("cohort age window inverted: %d > %d",
			c.Ranking.CohortMinAge, c.Ranking.CohortMaxAge)
	}

	for i := 1; i < len(c.Ranking.BinEdges); i++ {
		if c.Ranking.BinEdges[i] <= c.Ranking.BinEdges[i-1] {
			return fmt.Errorf("bin edges must be strictly increasing")
		}
	}

	if c.Ranking.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}

	return nil
}

// loadFromFile reads configuration from a YAML file.
func loadFromFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &cfg, nil
}

// mergeConfigs layers the file configuration over the env/default
// configuration, then restores values whose environment variable was set
// explicitly. Precedence ends up defaults < file < environment.
func mergeConfigs(fileConfig, envConfig Config) Config {
	merged := envConfig

	if fileConfig.Input.Path != "" {
		merged.Input.Path = fileConfig.Input.Path
	}
	if fileConfig.Output.DataDir != "" {
		merged.Output.DataDir = fileConfig.Output.DataDir
	}
	if fileConfig.Output.GraphDir != "" {
		merged.Output.GraphDir = fileConfig.Output.GraphDir
	}
	if fileConfig.Output.LogsDir != "" {
		merged.Output.LogsDir = fileConfig.Output.LogsDir
	}
	if fileConfig.Logging.Level != "" {
		merged.Logging.Level = fileConfig.Logging.Level
	}
	if fileConfig.Logging.Output != "" {
		merged.Logging.Output = fileConfig.Logging.Output
	}
	if fileConfig.Logging.FilePath != "" {
		merged.Logging.FilePath = fileConfig.Logging.FilePath
	}
	if len(fileConfig.Ranking.BinEdges) > 0 {
		merged.Ranking.BinEdges = fileConfig.Ranking.BinEdges
	}
	if fileConfig.Ranking.PooledMinAge != 0 {
		merged.Ranking.PooledMinAge = fileConfig.Ranking.PooledMinAge
	}
	if fileConfig.Ranking.CohortMinAge != 0 {
		merged.Ranking.CohortMinAge = fileConfig.Ranking.CohortMinAge
	}
	if fileConfig.Ranking.CohortMaxAge != 0 {
		merged.Ranking.CohortMaxAge = fileConfig.Ranking.CohortMaxAge
	}
	if fileConfig.Ranking.MinGroupCount != 0 {
		merged.Ranking.MinGroupCount = fileConfig.Ranking.MinGroupCount
	}
	if fileConfig.Ranking.CollegeMinEduc != 0 {
		merged.Ranking.CollegeMinEduc = fileConfig.Ranking.CollegeMinEduc
	}
	if fileConfig.Ranking.Timeout != 0 {
		merged.Ranking.Timeout = fileConfig.Ranking.Timeout
	}
	merged.Ranking.ByAge = fileConfig.Ranking.ByAge || envConfig.Ranking.ByAge
	merged.Ranking.Plot = fileConfig.Ranking.Plot || envConfig.Ranking.Plot

	restoreEnvOverrides(&merged, envConfig)

	return merged
}

// restoreEnvOverrides re-applies fields whose ACSRANK_* variable is present
// in the environment, so explicit env settings beat the file.
func restoreEnvOverrides(merged *Config, envConfig Config) {
	envSet := func(key string) bool {
		_, ok := os.LookupEnv("ACSRANK_" + key)
		return ok
	}

	if envSet("INPUT_PATH") {
		merged.Input.Path = envConfig.Input.Path
	}
	if envSet("OUTPUT_DATA_DIR") {
		merged.Output.DataDir = envConfig.Output.DataDir
	}
	if envSet("OUTPUT_GRAPH_DIR") {
		merged.Output.GraphDir = envConfig.Output.GraphDir
	}
	if envSet("OUTPUT_LOGS_DIR") {
		merged.Output.LogsDir = envConfig.Output.LogsDir
	}
	if envSet("LOGGING_LEVEL") {
		merged.Logging.Level = envConfig.Logging.Level
	}
	if envSet("LOGGING_OUTPUT") {
		merged.Logging.Output = envConfig.Logging.Output
	}
	if envSet("LOGGING_FILE_PATH") {
		merged.Logging.FilePath = envConfig.Logging.FilePath
	}
	if envSet("RANKING_BIN_EDGES") {
		merged.Ranking.BinEdges = envConfig.Ranking.BinEdges
	}
	if envSet("RANKING_POOLED_MIN_AGE") {
		merged.Ranking.PooledMinAge = envConfig.Ranking.PooledMinAge
	}
	if envSet("RANKING_COHORT_MIN_AGE") {
		merged.Ranking.CohortMinAge = envConfig.Ranking.CohortMinAge
	}
	if envSet("RANKING_COHORT_MAX_AGE") {
		merged.Ranking.CohortMaxAge = envConfig.Ranking.CohortMaxAge
	}
	if envSet("RANKING_BY_AGE") {
		merged.Ranking.ByAge = envConfig.Ranking.ByAge
	}
	if envSet("RANKING_MIN_GROUP_COUNT") {
		merged.Ranking.MinGroupCount = envConfig.Ranking.MinGroupCount
	}
	if envSet("RANKING_COLLEGE_MIN_EDUC") {
		merged.Ranking.CollegeMinEduc = envConfig.Ranking.CollegeMinEduc
	}
	if envSet("RANKING_TIMEOUT") {
		merged.Ranking.Timeout = envConfig.Ranking.Timeout
	}
	if envSet("RANKING_PLOT") {
		merged.Ranking.Plot = envConfig.Ranking.Plot
	}
}
