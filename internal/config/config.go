// Package config resolves the builder's configuration from defaults, an
// optional YAML file, environment variables, and CLI flags.
package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatParquet = "parquet"
	FormatDuckDB  = "duckdb"
)

// envPrefix namespaces the environment overrides (ATD_INPUT_DIR, ...).
const envPrefix = "atd"

// SetupError reports configuration that makes a run impossible. Setup
// errors are fatal and abort before any chunk work starts.
type SetupError struct {
	Field  string
	Reason string
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup: %s: %s", e.Field, e.Reason)
}

// Config is the full configuration surface of a run.
type Config struct {
	// InputDir is the root of the audio tree to scan.
	InputDir string `yaml:"input_dir" envconfig:"INPUT_DIR"`
	// OutputDir receives one artifact per chunk.
	OutputDir string `yaml:"output_dir" envconfig:"OUTPUT_DIR"`
	// Format selects the sink: parquet or duckdb.
	Format string `yaml:"format" envconfig:"FORMAT"`
	// FilesPerChunk is the fixed chunk size (rows per artifact).
	FilesPerChunk int `yaml:"files_per_db" envconfig:"FILES_PER_DB"`
	// MaxDepth bounds the directory scan.
	MaxDepth int `yaml:"max_depth" envconfig:"MAX_DEPTH"`
	// CheckMIME enables the audio media-type allow-list filter.
	CheckMIME bool `yaml:"check_mime" envconfig:"CHECK_MIME"`
	// NumThreads is the chunk worker pool width.
	NumThreads int `yaml:"num_threads" envconfig:"NUM_THREADS"`
	// Compression is the parquet codec (zstd, snappy, gzip, lz4, brotli,
	// none). Ignored by the duckdb sink.
	Compression string `yaml:"compression" envconfig:"COMPRESSION"`
	// MetadataPath points at the optional CSV/JSONL side-table.
	MetadataPath string `yaml:"metadata_file" envconfig:"METADATA_FILE"`
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() *Config {
	return &Config{
		Format:        FormatParquet,
		FilesPerChunk: 500,
		MaxDepth:      50,
		CheckMIME:     false,
		NumThreads:    5,
		Compression:   "zstd",
	}
}

// Load resolves the configuration: defaults, then the YAML file (when
// path is non-empty), then environment overrides. Flag overrides are
// applied by the CLI layer afterwards.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &SetupError{Field: "config", Reason: err.Error()}
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, &SetupError{Field: "config", Reason: fmt.Sprintf("parsing %s: %v", path, err)}
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, &SetupError{Field: "env", Reason: err.Error()}
	}

	return cfg, nil
}

// Validate checks the resolved configuration before any work starts.
func (c *Config) Validate() error {
	if c.InputDir == "" {
		return &SetupError{Field: "input_dir", Reason: "required"}
	}
	info, err := os.Stat(c.InputDir)
	if err != nil {
		return &SetupError{Field: "input_dir", Reason: err.Error()}
	}
	if !info.IsDir() {
		return &SetupError{Field: "input_dir", Reason: "not a directory"}
	}
	if c.OutputDir == "" {
		return &SetupError{Field: "output_dir", Reason: "required"}
	}
	if c.Format != FormatParquet && c.Format != FormatDuckDB {
		return &SetupError{Field: "format", Reason: fmt.Sprintf("must be %s or %s, got %q", FormatParquet, FormatDuckDB, c.Format)}
	}
	if c.FilesPerChunk < 1 {
		return &SetupError{Field: "files_per_db", Reason: "must be at least 1"}
	}
	if c.NumThreads < 1 {
		return &SetupError{Field: "num_threads", Reason: "must be at least 1"}
	}
	if c.MaxDepth < 0 {
		return &SetupError{Field: "max_depth", Reason: "must not be negative"}
	}
	if c.MetadataPath != "" {
		if _, err := os.Stat(c.MetadataPath); err != nil {
			return &SetupError{Field: "metadata_file", Reason: err.Error()}
		}
	}
	return nil
}

// EnsureDirectories creates the output root.
func (c *Config) EnsureDirectories() error {
	if err := os.MkdirAll(c.OutputDir, 0755); err != nil {
		return &SetupError{Field: "output_dir", Reason: err.Error()}
	}
	return nil
}
