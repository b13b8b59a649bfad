// Package config defines the rank-tables pipeline configuration.
//
// Configuration merges three sources in increasing precedence: struct
// defaults, an optional YAML file, and ACSRANK_* environment variables.
// Command-line flags applied by the binaries override all three. The package
// also owns the runtime directory layout (output, graph and log directories)
// and creates it on startup.
package config
