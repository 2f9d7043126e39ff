package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, FormatParquet, cfg.Format)
	assert.Equal(t, 500, cfg.FilesPerChunk)
	assert.Equal(t, 50, cfg.MaxDepth)
	assert.Equal(t, 5, cfg.NumThreads)
	assert.Equal(t, "zstd", cfg.Compression)
	assert.False(t, cfg.CheckMIME)
}

func TestLoad(t *testing.T) {
	t.Run("no file keeps defaults", func(t *testing.T) {
		cfg, err := Load("")
		require.NoError(t, err)
		assert.Equal(t, DefaultConfig(), cfg)
	})

	t.Run("yaml file overrides defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte(
			"input_dir: /data/in\noutput_dir: /data/out\nformat: duckdb\nfiles_per_db: 100\n"), 0644))

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "/data/in", cfg.InputDir)
		assert.Equal(t, FormatDuckDB, cfg.Format)
		assert.Equal(t, 100, cfg.FilesPerChunk)
		// Untouched keys keep their defaults.
		assert.Equal(t, 5, cfg.NumThreads)
	})

	t.Run("environment overrides file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("num_threads: 2\n"), 0644))

		t.Setenv("ATD_NUM_THREADS", "9")
		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, 9, cfg.NumThreads)
	})

	t.Run("missing file is a setup error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		var setupErr *SetupError
		assert.ErrorAs(t, err, &setupErr)
	})

	t.Run("malformed yaml is a setup error", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("format: [unclosed"), 0644))

		_, err := Load(path)
		var setupErr *SetupError
		assert.ErrorAs(t, err, &setupErr)
	})
}

func TestValidate(t *testing.T) {
	valid := func(t *testing.T) *Config {
		cfg := DefaultConfig()
		cfg.InputDir = t.TempDir()
		cfg.OutputDir = filepath.Join(t.TempDir(), "out")
		return cfg
	}

	t.Run("valid config passes", func(t *testing.T) {
		assert.NoError(t, valid(t).Validate())
	})

	tests := []struct {
		name  string
		field string
		bad   func(*Config)
	}{
		{"missing input", "input_dir", func(c *Config) { c.InputDir = "" }},
		{"missing output", "output_dir", func(c *Config) { c.OutputDir = "" }},
		{"unknown format", "format", func(c *Config) { c.Format = "csv" }},
		{"zero chunk size", "files_per_db", func(c *Config) { c.FilesPerChunk = 0 }},
		{"zero workers", "num_threads", func(c *Config) { c.NumThreads = 0 }},
		{"negative depth", "max_depth", func(c *Config) { c.MaxDepth = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid(t)
			tt.bad(cfg)

			err := cfg.Validate()
			var setupErr *SetupError
			require.ErrorAs(t, err, &setupErr)
			assert.Equal(t, tt.field, setupErr.Field)
		})
	}

	t.Run("input must be a directory", func(t *testing.T) {
		cfg := valid(t)
		file := filepath.Join(t.TempDir(), "f")
		require.NoError(t, os.WriteFile(file, nil, 0644))
		cfg.InputDir = file
		assert.Error(t, cfg.Validate())
	})

	t.Run("metadata file must exist when set", func(t *testing.T) {
		cfg := valid(t)
		cfg.MetadataPath = filepath.Join(t.TempDir(), "missing.csv")
		assert.Error(t, cfg.Validate())
	})
}

func TestEnsureDirectories(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "nested", "out")
	require.NoError(t, cfg.EnsureDirectories())
	info, err := os.Stat(cfg.OutputDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
