// Package sink persists chunks of audio records as self-contained
// dataset artifacts.
package sink

import (
	"context"

	"github.com/audios-to-dataset/builder/internal/models"
)

// Writer persists one chunk of records. Implementations are safe for
// concurrent use by multiple chunk workers: artifact paths are derived
// from the chunk index and never contend.
type Writer interface {
	// WriteChunk persists the records of one chunk, overwriting any
	// pre-existing artifact at the target path. It returns the number of
	// rows actually persisted, which for the relational sink may be
	// lower than len(records) when individual inserts fail.
	WriteChunk(ctx context.Context, chunkIndex int, records []*models.AudioRecord) (rows int, err error)

	// ArtifactPath returns the output path for a chunk index.
	ArtifactPath(chunkIndex int) string
}

// Built-in output columns shared by both sink variants.
const (
	audioColumn    = "audio"
	durationColumn = "duration"
	pathField      = "path"
	samplingField  = "sampling_rate"
	bytesField     = "bytes"
)

// asFloat64 widens any numeric metadata value to float64.
func asFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
