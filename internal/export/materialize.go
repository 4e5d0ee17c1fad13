package export

import (
	"bytes"
	"database/sql"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"datamesh/internal/core"
	"datamesh/pkg/product"

	_ "modernc.org/sqlite"
)

func materialize(format Format, snap core.Snapshot) ([]byte, string, error) {
	switch format {
	case FormatJSON:
		payload, err := json.MarshalIndent(snap, "", "  ")
		if err != nil {
			return nil, "", fmt.Errorf("marshal json: %w", err)
		}
		return payload, "application/json", nil
	case FormatCSV:
		payload, err := materializeCSV(snap)
		if err != nil {
			return nil, "", err
		}
		return payload, "text/csv", nil
	case FormatSQLite:
		payload, err := materializeSQLite(snap)
		if err != nil {
			return nil, "", err
		}
		return payload, "application/vnd.sqlite3", nil
	default:
		return nil, "", fmt.Errorf("unsupported export format %q", format)
	}
}

// materializeCSV renders records with schema fields as columns in lexical
// order. Fields beyond the schema are dropped; CSV is a fixed-width format.
func materializeCSV(snap core.Snapshot) ([]byte, error) {
	columns := snap.Schema.FieldNames()
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(columns); err != nil {
		return nil, err
	}
	for _, rec := range snap.Records {
		row := make([]string, len(columns))
		for i, column := range columns {
			row[i] = formatValue(rec[column])
		}
		if err := writer.Write(row); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// materializeSQLite builds a single-table database file holding the records,
// one column per schema field with matching type affinity, and returns the
// raw file bytes.
func materializeSQLite(snap core.Snapshot) ([]byte, error) {
	dir, err := os.MkdirTemp("", "export-sqlite-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "records.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite artifact: %w", err)
	}

	columns := snap.Schema.FieldNames()
	if len(columns) == 0 {
		_ = db.Close()
		return nil, fmt.Errorf("schema has no fields to export")
	}
	defs := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	quoted := make([]string, len(columns))
	for i, column := range columns {
		defs[i] = fmt.Sprintf("%q %s", column, sqliteAffinity(snap.Schema.Fields[column]))
		quoted[i] = fmt.Sprintf("%q", column)
		placeholders[i] = "?"
	}
	if _, err := db.Exec(fmt.Sprintf("CREATE TABLE records (%s)", strings.Join(defs, ", "))); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	insert := fmt.Sprintf("INSERT INTO records (%s) VALUES (%s)",
		strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	for _, rec := range snap.Records {
		args := make([]any, len(columns))
		for i, column := range columns {
			args[i] = rec[column]
		}
		if _, err := db.Exec(insert, args...); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("insert record: %w", err)
		}
	}
	if err := db.Close(); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func sqliteAffinity(t product.FieldType) string {
	switch t {
	case product.FieldInteger, product.FieldBoolean:
		return "INTEGER"
	case product.FieldFloat:
		return "REAL"
	default:
		return "TEXT"
	}
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(value), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", value)
	}
}
