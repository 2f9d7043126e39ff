package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"github.com/google/uuid"

	"github.com/audios-to-dataset/builder/internal/meta"
	"github.com/audios-to-dataset/builder/internal/models"
)

// featuresMetadataKey is the key under which the feature-role note is
// embedded in the parquet file metadata, for datasets-library tooling.
const featuresMetadataKey = "huggingface"

// ParquetSink writes one self-describing parquet file per chunk. The
// schema is fixed at construction from the run-wide column registry, so
// every chunk artifact of a run carries identical columns.
type ParquetSink struct {
	outputDir string
	columns   []models.Column
	schema    *arrow.Schema
	props     *parquet.WriterProperties
}

// NewParquetSink builds a sink for the given output directory, metadata
// column set, and compression codec name.
func NewParquetSink(outputDir string, columns []models.Column, compression string) (*ParquetSink, error) {
	codec, err := codecFromName(compression)
	if err != nil {
		return nil, err
	}

	schema, err := buildSchema(columns)
	if err != nil {
		return nil, err
	}

	return &ParquetSink{
		outputDir: outputDir,
		columns:   columns,
		schema:    schema,
		props:     parquet.NewWriterProperties(parquet.WithCompression(codec)),
	}, nil
}

// ArtifactPath returns "{outputDir}/{chunkIndex}.parquet".
func (s *ParquetSink) ArtifactPath(chunkIndex int) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("%d.parquet", chunkIndex))
}

// WriteChunk materializes all records of the chunk as a single batch.
// The artifact is written to a temporary path and renamed into place, so
// a failed write never leaves a truncated file behind.
func (s *ParquetSink) WriteChunk(ctx context.Context, chunkIndex int, records []*models.AudioRecord) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	target := s.ArtifactPath(chunkIndex)
	tmp := target + ".tmp-" + uuid.New().String()

	rec, err := s.buildRecord(records)
	if err != nil {
		return 0, err
	}
	defer rec.Release()

	f, err := os.Create(tmp)
	if err != nil {
		return 0, fmt.Errorf("creating %s: %w", tmp, err)
	}

	w, err := pqarrow.NewFileWriter(s.schema, f, s.props,
		pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		f.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("creating parquet writer: %w", err)
	}

	if err := w.Write(rec); err != nil {
		w.Close()
		os.Remove(tmp)
		return 0, fmt.Errorf("writing chunk %d: %w", chunkIndex, err)
	}
	if err := w.Close(); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("closing chunk %d: %w", chunkIndex, err)
	}

	// Overwrite semantics: replace whatever was at the target path.
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		os.Remove(tmp)
		return 0, fmt.Errorf("removing stale artifact %s: %w", target, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("renaming artifact: %w", err)
	}

	fmt.Printf("[ParquetSink] Wrote %d rows to %s in %v\n", len(records), target, time.Since(start))
	return len(records), nil
}

// buildRecord assembles one arrow record batch holding the whole chunk.
func (s *ParquetSink) buildRecord(records []*models.AudioRecord) (arrow.Record, error) {
	bldr := array.NewRecordBuilder(memory.DefaultAllocator, s.schema)
	defer bldr.Release()

	audioBldr := bldr.Field(0).(*array.StructBuilder)
	pathBldr := audioBldr.FieldBuilder(0).(*array.StringBuilder)
	rateBldr := audioBldr.FieldBuilder(1).(*array.Int32Builder)
	bytesBldr := audioBldr.FieldBuilder(2).(*array.BinaryBuilder)
	durBldr := bldr.Field(1).(*array.Float64Builder)

	for _, rec := range records {
		audioBldr.Append(true)
		pathBldr.Append(rec.RelativeIdentity)
		rateBldr.Append(rec.SamplingRateHz)
		bytesBldr.Append(rec.RawBytes)
		durBldr.Append(rec.DurationSeconds)

		for i, col := range s.columns {
			if err := appendValue(bldr.Field(i+2), col.Type, rec.Metadata[col.Name]); err != nil {
				return nil, fmt.Errorf("column %s: %w", col.Name, err)
			}
		}
	}

	return bldr.NewRecord(), nil
}

// appendValue coerces one metadata value to its column's unified type.
// Missing values become nulls; typed values under a widened string
// column are stringified.
func appendValue(b array.Builder, colType models.ColumnType, value interface{}) error {
	if value == nil {
		b.AppendNull()
		return nil
	}

	switch colType {
	case models.ColumnTypeBoolean:
		v, ok := value.(bool)
		if !ok {
			b.AppendNull()
			return nil
		}
		b.(*array.BooleanBuilder).Append(v)

	case models.ColumnTypeFloat64:
		v, ok := asFloat64(value)
		if !ok {
			b.AppendNull()
			return nil
		}
		b.(*array.Float64Builder).Append(v)

	case models.ColumnTypeList:
		items, ok := value.([]interface{})
		if !ok {
			b.AppendNull()
			return nil
		}
		lb := b.(*array.ListBuilder)
		vb := lb.ValueBuilder().(*array.StringBuilder)
		lb.Append(true)
		for _, item := range items {
			vb.Append(meta.Stringify(item))
		}

	case models.ColumnTypeString:
		b.(*array.StringBuilder).Append(meta.Stringify(value))

	default:
		return fmt.Errorf("unknown column type %q", colType)
	}
	return nil
}

// buildSchema assembles the output schema: the fixed audio struct and
// duration columns followed by the metadata columns in their registry
// order, plus the embedded feature-role metadata.
func buildSchema(columns []models.Column) (*arrow.Schema, error) {
	fields := []arrow.Field{
		{
			Name: audioColumn,
			Type: arrow.StructOf(
				arrow.Field{Name: pathField, Type: arrow.BinaryTypes.String},
				arrow.Field{Name: samplingField, Type: arrow.PrimitiveTypes.Int32},
				arrow.Field{Name: bytesField, Type: arrow.BinaryTypes.Binary},
			),
		},
		{Name: durationColumn, Type: arrow.PrimitiveTypes.Float64},
	}

	for _, col := range columns {
		dt, err := arrowType(col.Type)
		if err != nil {
			return nil, fmt.Errorf("column %s: %w", col.Name, err)
		}
		fields = append(fields, arrow.Field{Name: col.Name, Type: dt, Nullable: true})
	}

	note, err := featuresNote(columns)
	if err != nil {
		return nil, err
	}
	md := arrow.NewMetadata([]string{featuresMetadataKey}, []string{note})
	return arrow.NewSchema(fields, &md), nil
}

func arrowType(t models.ColumnType) (arrow.DataType, error) {
	switch t {
	case models.ColumnTypeString:
		return arrow.BinaryTypes.String, nil
	case models.ColumnTypeBoolean:
		return arrow.FixedWidthTypes.Boolean, nil
	case models.ColumnTypeFloat64:
		return arrow.PrimitiveTypes.Float64, nil
	case models.ColumnTypeList:
		return arrow.ListOf(arrow.BinaryTypes.String), nil
	default:
		return nil, fmt.Errorf("unknown column type %q", t)
	}
}

// featuresNote renders the logical feature roles (audio, duration, and
// the value columns) as the JSON note downstream dataset tooling reads.
func featuresNote(columns []models.Column) (string, error) {
	features := map[string]interface{}{
		audioColumn:    map[string]interface{}{"_type": "Audio"},
		durationColumn: map[string]interface{}{"dtype": "float64", "_type": "Value"},
	}
	for _, col := range columns {
		switch col.Type {
		case models.ColumnTypeBoolean:
			features[col.Name] = map[string]interface{}{"dtype": "bool", "_type": "Value"}
		case models.ColumnTypeFloat64:
			features[col.Name] = map[string]interface{}{"dtype": "float64", "_type": "Value"}
		case models.ColumnTypeList:
			features[col.Name] = map[string]interface{}{
				"feature": map[string]interface{}{"dtype": "string", "_type": "Value"},
				"_type":   "Sequence",
			}
		default:
			features[col.Name] = map[string]interface{}{"dtype": "string", "_type": "Value"}
		}
	}

	note, err := json.Marshal(map[string]interface{}{
		"info": map[string]interface{}{"features": features},
	})
	if err != nil {
		return "", fmt.Errorf("encoding features note: %w", err)
	}
	return string(note), nil
}

// codecFromName resolves a configured compression name to a parquet
// codec. The empty string selects the default general-purpose codec.
func codecFromName(name string) (compress.Compression, error) {
	switch name {
	case "", "zstd":
		return compress.Codecs.Zstd, nil
	case "snappy":
		return compress.Codecs.Snappy, nil
	case "gzip":
		return compress.Codecs.Gzip, nil
	case "lz4":
		return compress.Codecs.Lz4Raw, nil
	case "brotli":
		return compress.Codecs.Brotli, nil
	case "none", "uncompressed":
		return compress.Codecs.Uncompressed, nil
	default:
		return compress.Codecs.Uncompressed, fmt.Errorf("unknown compression %q", name)
	}
}
