package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/audios-to-dataset/builder/internal/config"
	"github.com/audios-to-dataset/builder/internal/discovery"
	"github.com/audios-to-dataset/builder/internal/meta"
	"github.com/audios-to-dataset/builder/internal/pipeline"
	"github.com/audios-to-dataset/builder/internal/sink"
)

// Version info (set during build)
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// A local .env can supply ATD_* overrides during development.
	_ = godotenv.Load()

	var (
		configPath string
		flags      = config.DefaultConfig()
	)

	root := &cobra.Command{
		Use:          "audios-to-dataset",
		Short:        "Convert a directory of audio files into chunked dataset artifacts",
		Version:      fmt.Sprintf("%s (built %s)", Version, BuildTime),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			applyFlagOverrides(cmd, cfg, flags)

			if err := cfg.Validate(); err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}

	root.Flags().StringVar(&configPath, "config", "", "optional YAML config file")
	root.Flags().StringVarP(&flags.InputDir, "input", "i", flags.InputDir, "input root directory")
	root.Flags().StringVarP(&flags.OutputDir, "output", "o", flags.OutputDir, "output root directory")
	root.Flags().StringVarP(&flags.Format, "format", "f", flags.Format, "output format: parquet or duckdb")
	root.Flags().IntVar(&flags.FilesPerChunk, "files-per-db", flags.FilesPerChunk, "files per output chunk")
	root.Flags().IntVar(&flags.NumThreads, "num-threads", flags.NumThreads, "chunk worker count")
	root.Flags().IntVar(&flags.MaxDepth, "max-depth", flags.MaxDepth, "maximum scan depth")
	root.Flags().BoolVar(&flags.CheckMIME, "check-mime", flags.CheckMIME, "filter files by detected audio media type")
	root.Flags().StringVar(&flags.Compression, "compression", flags.Compression, "parquet compression codec")
	root.Flags().StringVar(&flags.MetadataPath, "metadata-file", flags.MetadataPath, "CSV or JSONL metadata side-table")

	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

// applyFlagOverrides copies only the flags the user actually set over
// the file/env-resolved configuration.
func applyFlagOverrides(cmd *cobra.Command, cfg, flags *config.Config) {
	set := map[string]func(){
		"input":         func() { cfg.InputDir = flags.InputDir },
		"output":        func() { cfg.OutputDir = flags.OutputDir },
		"format":        func() { cfg.Format = flags.Format },
		"files-per-db":  func() { cfg.FilesPerChunk = flags.FilesPerChunk },
		"num-threads":   func() { cfg.NumThreads = flags.NumThreads },
		"max-depth":     func() { cfg.MaxDepth = flags.MaxDepth },
		"check-mime":    func() { cfg.CheckMIME = flags.CheckMIME },
		"compression":   func() { cfg.Compression = flags.Compression },
		"metadata-file": func() { cfg.MetadataPath = flags.MetadataPath },
	}
	for name, apply := range set {
		if cmd.Flags().Changed(name) {
			apply()
		}
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	// Metadata and the column registry are built once, up front, and
	// shared read-only across all chunk workers.
	store := meta.NewStore()
	if cfg.MetadataPath != "" {
		if err := store.Load(cfg.MetadataPath); err != nil {
			return err
		}
	}

	files, err := discovery.Discover(cfg.InputDir, discovery.Options{
		MaxDepth:     cfg.MaxDepth,
		CheckMIME:    cfg.CheckMIME,
		MetadataPath: cfg.MetadataPath,
	})
	if err != nil {
		return &config.SetupError{Field: "input_dir", Reason: err.Error()}
	}

	columns := store.Columns()
	var writer sink.Writer
	switch cfg.Format {
	case config.FormatDuckDB:
		writer = sink.NewDuckDBSink(cfg.OutputDir, columns)
	default:
		writer, err = sink.NewParquetSink(cfg.OutputDir, columns, cfg.Compression)
		if err != nil {
			return &config.SetupError{Field: "compression", Reason: err.Error()}
		}
	}

	builder := pipeline.NewRecordBuilder(cfg.InputDir, store)
	runner := pipeline.NewRunner(builder, writer, cfg.NumThreads)

	summary, err := runner.Run(ctx, files, cfg.FilesPerChunk)
	if err != nil {
		return err
	}

	printSummary(summary)

	if failed := summary.Failed(); len(failed) > 0 {
		return fmt.Errorf("%d of %d chunks failed", len(failed), len(summary.Chunks))
	}
	return nil
}

func printSummary(s pipeline.Summary) {
	fmt.Printf("\n[Summary] %d files discovered, %d chunks, %d rows written in %v\n",
		s.FilesDiscovered, len(s.Chunks), s.Rows(), s.Elapsed)
	for _, c := range s.Chunks {
		status := "ok"
		if c.Err != nil {
			status = c.Err.Error()
		} else if c.Rows < c.Files {
			status = fmt.Sprintf("%d of %d files dropped", c.Files-c.Rows, c.Files)
		}
		fmt.Printf("[Summary] chunk %d: %d files -> %d rows (%s)\n",
			c.Index, c.Files, c.Rows, status)
	}
}
