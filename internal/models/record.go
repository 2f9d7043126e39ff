// Package models contains domain types for the audio dataset builder.
package models

// ColumnType represents the unified type of a metadata column.
type ColumnType string

const (
	ColumnTypeString  ColumnType = "string"
	ColumnTypeBoolean ColumnType = "boolean"
	ColumnTypeFloat64 ColumnType = "float64"
	ColumnTypeList    ColumnType = "list"
)

// Column is one entry of the run-wide output schema: a metadata column
// name paired with its unified type.
type Column struct {
	Name string
	Type ColumnType
}

// TranscriptionColumn is always present in the output schema, whether or
// not a metadata file was supplied.
const TranscriptionColumn = "transcription"

// DefaultTranscription is the sentinel stored when a record carries no
// transcription of its own.
const DefaultTranscription = "-"

// AudioRecord is one fully processed audio file, ready to be handed to a
// sink. Immutable once built; owned by the chunk worker that built it.
type AudioRecord struct {
	// RelativeIdentity is the path of the file relative to the scan root,
	// normalized to forward slashes with no leading "./".
	RelativeIdentity string
	// DurationSeconds is 0 when the audio header could not be parsed.
	DurationSeconds float64
	// SamplingRateHz is 0 when the audio header could not be parsed.
	SamplingRateHz int32
	// RawBytes is the complete file content.
	RawBytes []byte
	// Metadata maps column name to a dynamically typed scalar
	// (string, bool, float64, or []interface{} for JSONL arrays).
	Metadata map[string]interface{}
}

// MetadataRecord is one row of the metadata side-table: column name to
// value. Values are string, bool, float64, []interface{}, or nil.
type MetadataRecord map[string]interface{}
