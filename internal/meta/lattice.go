// Package meta loads the metadata side-table and unifies per-column types.
package meta

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/audios-to-dataset/builder/internal/models"
)

// InferType maps a single observed value to a column type.
// A nil value carries no type information and returns ok=false.
func InferType(value interface{}) (models.ColumnType, bool) {
	switch value.(type) {
	case nil:
		return "", false
	case bool:
		return models.ColumnTypeBoolean, true
	case float64, float32, int, int32, int64:
		return models.ColumnTypeFloat64, true
	case []interface{}:
		return models.ColumnTypeList, true
	default:
		return models.ColumnTypeString, true
	}
}

// MergeTypes collapses two type observations for the same column.
// Equal types keep their type; any disagreement widens to string.
// The operation is commutative and associative, so the resulting column
// type does not depend on the order records are scanned in.
func MergeTypes(existing, observed models.ColumnType) models.ColumnType {
	if existing == observed {
		return existing
	}
	return models.ColumnTypeString
}

// Registry is the run-wide mapping from metadata column name to its
// unified type. It is mutated only while the metadata source is loaded
// and is read concurrently by chunk workers afterwards.
type Registry struct {
	types map[string]models.ColumnType
}

// NewRegistry returns a registry pre-seeded with the transcription
// column, guaranteeing its presence in every output schema.
func NewRegistry() *Registry {
	return &Registry{
		types: map[string]models.ColumnType{
			models.TranscriptionColumn: models.ColumnTypeString,
		},
	}
}

// Observe feeds one field value into the registry. Untyped (nil) values
// register the column name without narrowing or widening its type.
func (r *Registry) Observe(name string, value interface{}) {
	observed, ok := InferType(value)
	if !ok {
		// Null observation: remember the column exists, nothing more.
		if _, seen := r.types[name]; !seen {
			r.types[name] = ""
		}
		return
	}

	existing, seen := r.types[name]
	if !seen || existing == "" {
		r.types[name] = observed
		return
	}
	r.types[name] = MergeTypes(existing, observed)
}

// Columns returns the full column set in lexical order, so every chunk
// worker and both sink variants agree on column order without
// coordination.
func (r *Registry) Columns() []models.Column {
	cols := make([]models.Column, 0, len(r.types))
	for name := range r.types {
		cols = append(cols, models.Column{Name: name, Type: r.TypeOf(name)})
	}
	sort.Slice(cols, func(i, j int) bool { return cols[i].Name < cols[j].Name })
	return cols
}

// TypeOf returns the unified type for a column, defaulting to string for
// columns that were only ever observed with null values.
func (r *Registry) TypeOf(name string) models.ColumnType {
	t, ok := r.types[name]
	if !ok || t == "" {
		return models.ColumnTypeString
	}
	return t
}

// Stringify renders any metadata value as a string. Used when a column
// widened to string but individual records carry typed values.
func Stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case []interface{}:
		// JSON rendering keeps list values round-trippable.
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	default:
		return fmt.Sprintf("%v", v)
	}
}
