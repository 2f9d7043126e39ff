package sink

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marcboeker/go-duckdb"

	"github.com/audios-to-dataset/builder/internal/meta"
	"github.com/audios-to-dataset/builder/internal/models"
)

// DuckDBSink writes one embedded database file per chunk: a `files`
// table with an auto-incrementing id, the audio struct, duration, and
// the dynamic metadata columns. All rows of a chunk are inserted inside
// one transaction.
type DuckDBSink struct {
	outputDir string
	columns   []models.Column
}

// NewDuckDBSink builds a sink writing chunk databases under outputDir.
func NewDuckDBSink(outputDir string, columns []models.Column) *DuckDBSink {
	return &DuckDBSink{outputDir: outputDir, columns: columns}
}

// ArtifactPath returns "{outputDir}/{chunkIndex}.db3".
func (s *DuckDBSink) ArtifactPath(chunkIndex int) string {
	return filepath.Join(s.outputDir, fmt.Sprintf("%d.db3", chunkIndex))
}

// WriteChunk creates a fresh database for the chunk, destroying any
// pre-existing file at that path, and inserts all rows in one
// transaction. A single failed insert is logged and skipped without
// aborting the transaction, so the returned row count can be lower than
// len(records).
func (s *DuckDBSink) WriteChunk(ctx context.Context, chunkIndex int, records []*models.AudioRecord) (int, error) {
	start := time.Now()
	path := s.ArtifactPath(chunkIndex)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("removing stale artifact %s: %w", path, err)
	}

	connector, err := duckdb.NewConnector(path, func(execer driver.ExecerContext) error {
		pragmas := []string{
			"PRAGMA memory_limit='512MB'",
			"PRAGMA threads=2",
			"PRAGMA enable_progress_bar=false",
		}
		for _, pragma := range pragmas {
			if _, err := execer.ExecContext(context.Background(), pragma, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("creating DuckDB connector for %s: %w", path, err)
	}

	db := sql.OpenDB(connector)
	defer db.Close()

	if _, err := db.ExecContext(ctx, s.schemaSQL()); err != nil {
		return 0, fmt.Errorf("creating files table: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("starting transaction: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.insertSQL())
	if err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("preparing insert: %w", err)
	}

	inserted := 0
	for _, rec := range records {
		args := s.insertArgs(rec)
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			fmt.Printf("[DuckDBSink] Insert failed for %s in chunk %d: %v\n",
				rec.RelativeIdentity, chunkIndex, err)
			continue
		}
		inserted++
	}

	stmt.Close()
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing chunk %d: %w", chunkIndex, err)
	}

	fmt.Printf("[DuckDBSink] Wrote %d/%d rows to %s in %v\n",
		inserted, len(records), path, time.Since(start))
	return inserted, nil
}

// schemaSQL renders the per-chunk DDL: sequence-backed id, duration,
// the audio struct, and one typed column per metadata column.
func (s *DuckDBSink) schemaSQL() string {
	var b strings.Builder
	b.WriteString("CREATE SEQUENCE seq;\n")
	b.WriteString("CREATE TABLE files (\n")
	b.WriteString("    id INTEGER PRIMARY KEY DEFAULT NEXTVAL('seq'),\n")
	b.WriteString("    duration DOUBLE,\n")
	b.WriteString("    audio STRUCT(path VARCHAR, sampling_rate INTEGER, bytes BLOB)")
	for _, col := range s.columns {
		b.WriteString(",\n    ")
		b.WriteString(quoteIdent(col.Name))
		b.WriteString(" ")
		b.WriteString(sqlType(col.Type))
	}
	b.WriteString("\n)")
	return b.String()
}

func (s *DuckDBSink) insertSQL() string {
	names := []string{"duration", "audio"}
	for _, col := range s.columns {
		names = append(names, quoteIdent(col.Name))
	}
	placeholders := []string{"?", "row(?, ?, ?)"}
	for range s.columns {
		placeholders = append(placeholders, "?")
	}
	return fmt.Sprintf("INSERT INTO files (%s) VALUES (%s)",
		strings.Join(names, ", "), strings.Join(placeholders, ", "))
}

func (s *DuckDBSink) insertArgs(rec *models.AudioRecord) []interface{} {
	args := []interface{}{
		rec.DurationSeconds,
		rec.RelativeIdentity,
		rec.SamplingRateHz,
		rec.RawBytes,
	}
	for _, col := range s.columns {
		args = append(args, sqlValue(col.Type, rec.Metadata[col.Name]))
	}
	return args
}

// sqlValue coerces a metadata value to what the column's SQL type
// accepts. Missing values become NULL; list values are stored as their
// JSON rendering, a deliberate flattening for the relational shape.
func sqlValue(colType models.ColumnType, value interface{}) interface{} {
	if value == nil {
		return nil
	}
	switch colType {
	case models.ColumnTypeBoolean:
		if v, ok := value.(bool); ok {
			return v
		}
		return nil
	case models.ColumnTypeFloat64:
		if v, ok := asFloat64(value); ok {
			return v
		}
		return nil
	default:
		return meta.Stringify(value)
	}
}

func sqlType(t models.ColumnType) string {
	switch t {
	case models.ColumnTypeBoolean:
		return "BOOLEAN"
	case models.ColumnTypeFloat64:
		return "DOUBLE"
	default:
		// Strings and JSON-rendered lists.
		return "VARCHAR"
	}
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
