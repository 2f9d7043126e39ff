package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/audios-to-dataset/builder/internal/models"
	"github.com/audios-to-dataset/builder/internal/sink"
)

// ChunkResult records the outcome of one chunk's materialization.
type ChunkResult struct {
	Index   int
	Files   int // files assigned to the chunk
	Records int // records successfully built
	Rows    int // rows persisted by the sink
	Err     error
}

// Summary aggregates a whole run.
type Summary struct {
	FilesDiscovered int
	Chunks          []ChunkResult
	Elapsed         time.Duration
}

// Failed returns the results of chunks whose sink write failed.
func (s Summary) Failed() []ChunkResult {
	var failed []ChunkResult
	for _, c := range s.Chunks {
		if c.Err != nil {
			failed = append(failed, c)
		}
	}
	return failed
}

// Rows returns the total rows persisted across all chunks.
func (s Summary) Rows() int {
	total := 0
	for _, c := range s.Chunks {
		total += c.Rows
	}
	return total
}

// Runner fans chunks out over a bounded worker pool. Each chunk is built
// and written start-to-finish by a single worker; failures are isolated
// per chunk and never tear down the pool.
type Runner struct {
	builder *RecordBuilder
	writer  sink.Writer
	workers int
}

// NewRunner wires the record builder and sink into a pool of the given
// width.
func NewRunner(builder *RecordBuilder, writer sink.Writer, workers int) *Runner {
	if workers < 1 {
		workers = 1
	}
	return &Runner{builder: builder, writer: writer, workers: workers}
}

// Run processes every chunk and reports per-chunk outcomes. The returned
// error is only ever a context cancellation; chunk failures live in the
// summary.
func (r *Runner) Run(ctx context.Context, files []string, filesPerChunk int) (Summary, error) {
	start := time.Now()
	chunks := SplitChunks(files, filesPerChunk)
	results := make([]ChunkResult, len(chunks))

	fmt.Printf("[Runner] Processing %d files in %d chunks with %d workers\n",
		len(files), len(chunks), r.workers)

	g := new(errgroup.Group)
	g.SetLimit(r.workers)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			results[i] = r.processChunk(ctx, i, chunk)
			return nil
		})
	}
	g.Wait()

	summary := Summary{
		FilesDiscovered: len(files),
		Chunks:          results,
		Elapsed:         time.Since(start),
	}
	return summary, ctx.Err()
}

// processChunk builds the chunk's records in discovery order and hands
// the batch to the sink. A file that cannot be read is dropped with a
// warning; a sink failure is captured in the result.
func (r *Runner) processChunk(ctx context.Context, index int, files []string) ChunkResult {
	result := ChunkResult{Index: index, Files: len(files)}

	records := make([]*models.AudioRecord, 0, len(files))
	for _, path := range files {
		rec, err := r.builder.Build(path)
		if err != nil {
			fmt.Printf("[Runner] Dropping file from chunk %d: %v\n", index, err)
			continue
		}
		records = append(records, rec)
	}
	result.Records = len(records)

	rows, err := r.writer.WriteChunk(ctx, index, records)
	result.Rows = rows
	if err != nil {
		result.Err = fmt.Errorf("chunk %d: %w", index, err)
		fmt.Printf("[Runner] Chunk %d failed: %v\n", index, err)
	}
	return result
}
