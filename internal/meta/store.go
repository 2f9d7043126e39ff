package meta

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/audios-to-dataset/builder/internal/models"
)

// Columns that collide with built-in output columns. Dropped silently
// from metadata records.
var reservedColumns = map[string]struct{}{
	"duration": {},
	"audio":    {},
	"id":       {},
}

// Join-key columns. Consumed for indexing, never stored as metadata.
const (
	fileNameColumn     = "file_name"
	relativePathColumn = "relative_path"
)

// LoadError reports a malformed or unreadable metadata source. A single
// bad row aborts the whole load; there is no partial load.
type LoadError struct {
	Path string
	Line int
	Err  error
}

func (e *LoadError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("metadata %s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("metadata %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Store indexes metadata records by normalized relative path and by bare
// filename, and owns the column registry. Built once before chunk work
// starts, read-only afterwards.
type Store struct {
	registry   *Registry
	byRelPath  map[string]models.MetadataRecord
	byFileName map[string]models.MetadataRecord
}

// NewStore returns an empty store whose registry already carries the
// transcription column. Usable as-is when no metadata file is supplied.
func NewStore() *Store {
	return &Store{
		registry:   NewRegistry(),
		byRelPath:  make(map[string]models.MetadataRecord),
		byFileName: make(map[string]models.MetadataRecord),
	}
}

// Registry exposes the column registry for schema construction.
func (s *Store) Registry() *Registry { return s.registry }

// Columns returns the metadata column set in lexical order.
func (s *Store) Columns() []models.Column { return s.registry.Columns() }

// TypeOf returns the unified type of a metadata column.
func (s *Store) TypeOf(name string) models.ColumnType { return s.registry.TypeOf(name) }

// Len returns the number of indexable records loaded.
func (s *Store) Len() int {
	if len(s.byRelPath) > len(s.byFileName) {
		return len(s.byRelPath)
	}
	return len(s.byFileName)
}

// Load reads the metadata source, picking the format from the file
// extension: .jsonl/.json parse as line-delimited JSON objects, anything
// else as delimited text with a header row.
func (s *Store) Load(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".json":
		return s.loadJSONL(path)
	default:
		return s.loadCSV(path)
	}
}

func (s *Store) loadCSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	rows, err := r.ReadAll()
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	if len(rows) == 0 {
		return nil
	}

	header := rows[0]
	for i, row := range rows[1:] {
		if len(row) != len(header) {
			return &LoadError{Path: path, Line: i + 2,
				Err: fmt.Errorf("expected %d fields, got %d", len(header), len(row))}
		}
		raw := make(map[string]interface{}, len(header))
		for c, name := range header {
			raw[name] = row[c]
		}
		s.ingest(raw)
	}

	fmt.Printf("[Metadata] Loaded %d records from %s (csv)\n", len(rows)-1, path)
	return nil
}

func (s *Store) loadJSONL(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	count := 0
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var raw map[string]interface{}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return &LoadError{Path: path, Line: lineNum,
				Err: fmt.Errorf("not a JSON object: %w", err)}
		}
		s.ingest(raw)
		count++
	}
	if err := scanner.Err(); err != nil {
		return &LoadError{Path: path, Err: err}
	}

	fmt.Printf("[Metadata] Loaded %d records from %s (jsonl)\n", count, path)
	return nil
}

// ingest folds one raw row into the indices and the column registry.
// Rows lacking both join keys still inform column typing but are not
// indexable. On duplicate keys the first row wins.
func (s *Store) ingest(raw map[string]interface{}) {
	fileName := stringField(raw, fileNameColumn)
	relPath := NormalizeRelPath(stringField(raw, relativePathColumn))

	rec := make(models.MetadataRecord, len(raw))
	for name, value := range raw {
		if name == fileNameColumn || name == relativePathColumn {
			continue
		}
		if _, reserved := reservedColumns[name]; reserved {
			continue
		}
		rec[name] = value
		s.registry.Observe(name, value)
	}

	if _, ok := rec[models.TranscriptionColumn]; !ok {
		rec[models.TranscriptionColumn] = models.DefaultTranscription
	}

	if relPath != "" {
		if _, exists := s.byRelPath[relPath]; !exists {
			s.byRelPath[relPath] = rec
		}
	}
	if fileName != "" {
		if _, exists := s.byFileName[fileName]; !exists {
			s.byFileName[fileName] = rec
		}
	}
}

// Lookup resolves the metadata for one file: relative-path match first,
// bare-filename match second, empty record last. The result always
// carries a transcription entry.
func (s *Store) Lookup(relativeIdentity, fileName string) models.MetadataRecord {
	if rec, ok := s.byRelPath[NormalizeRelPath(relativeIdentity)]; ok {
		return rec
	}
	if rec, ok := s.byFileName[fileName]; ok {
		return rec
	}
	return models.MetadataRecord{
		models.TranscriptionColumn: models.DefaultTranscription,
	}
}

// NormalizeRelPath converts a relative path to the canonical join-key
// form: forward slashes, no leading "./".
func NormalizeRelPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	for strings.HasPrefix(p, "./") {
		p = p[2:]
	}
	return p
}

func stringField(raw map[string]interface{}, name string) string {
	v, ok := raw[name]
	if !ok {
		return ""
	}
	str, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(str)
}
