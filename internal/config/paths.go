package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the runtime directory layout for one pipeline run. It is the
// single source of truth for where tables, charts and logs land.
type Paths struct {
	DataDir  string
	GraphDir string
	LogsDir  string
}

// NewPaths resolves the configured output directories to absolute paths.
func NewPaths(cfg OutputConfig) (*Paths, error) {
	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve data dir: %w", err)
	}
	graphDir, err := filepath.Abs(cfg.GraphDir)
	if err != nil {
		return nil, fmt.Errorf("resolve graph dir: %w", err)
	}
	logsDir, err := filepath.Abs(cfg.LogsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve logs dir: %w", err)
	}

	return &Paths{
		DataDir:  dataDir,
		GraphDir: graphDir,
		LogsDir:  logsDir,
	}, nil
}

// EnsureDirs creates the runtime directories.
func (p *Paths) EnsureDirs() error {
	for _, dir := range []string{p.DataDir, p.GraphDir, p.LogsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// TableFile returns the full path of an output table.
func (p *Paths) TableFile(name string) string {
	return filepath.Join(p.DataDir, name)
}

// GraphFile returns the full path of a rendered chart.
func (p *Paths) GraphFile(name string) string {
	return filepath.Join(p.GraphDir, name)
}
