// Package schema reads table and column metadata from the local analytical
// database. Every call opens a fresh read-only connection and releases it
// before returning, so callers always observe the current state of the file.
package schema

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "github.com/marcboeker/go-duckdb/v2"
)

// ErrUnavailable reports that the database file could not be opened or
// queried. It aborts the current request and is not retried.
var ErrUnavailable = errors.New("schema unavailable")

// ErrTableNotFound reports that a named table does not exist.
var ErrTableNotFound = errors.New("table not found")

type Column struct {
	Name string
	Type string
}

type Table struct {
	Name    string
	Columns []Column
}

type Inspector struct {
	path string
}

func NewInspector(path string) (*Inspector, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &Inspector{path: path}, nil
}

func (i *Inspector) ListTables(ctx context.Context) ([]string, error) {
	db, err := i.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	rows, err := db.QueryContext(ctx, `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = 'main'
ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("%w: list tables: %v", ErrUnavailable, err)
	}
	defer func() { _ = rows.Close() }()

	names := make([]string, 0)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: scan table name: %v", ErrUnavailable, err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate table names: %v", ErrUnavailable, err)
	}
	return names, nil
}

func (i *Inspector) DescribeTable(ctx context.Context, name string) (Table, error) {
	db, err := i.open()
	if err != nil {
		return Table{}, err
	}
	defer func() { _ = db.Close() }()

	return describeTable(ctx, db, name)
}

// Snapshot returns every table with its columns, in name order. It is the
// input for catalog-mode prompts.
func (i *Inspector) Snapshot(ctx context.Context) ([]Table, error) {
	names, err := i.ListTables(ctx)
	if err != nil {
		return nil, err
	}

	db, err := i.open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = db.Close() }()

	tables := make([]Table, 0, len(names))
	for _, name := range names {
		table, err := describeTable(ctx, db, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (i *Inspector) open() (*sql.DB, error) {
	if _, err := os.Stat(i.path); err != nil {
		return nil, fmt.Errorf("%w: stat %q: %v", ErrUnavailable, i.path, err)
	}
	db, err := sql.Open("duckdb", i.path+"?access_mode=read_only")
	if err != nil {
		return nil, fmt.Errorf("%w: open %q: %v", ErrUnavailable, i.path, err)
	}
	return db, nil
}

func describeTable(ctx context.Context, db *sql.DB, name string) (Table, error) {
	rows, err := db.QueryContext(ctx, `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = 'main' AND table_name = ?
ORDER BY ordinal_position`, name)
	if err != nil {
		return Table{}, fmt.Errorf("%w: describe table %q: %v", ErrUnavailable, name, err)
	}
	defer func() { _ = rows.Close() }()

	table := Table{Name: name}
	for rows.Next() {
		var column Column
		if err := rows.Scan(&column.Name, &column.Type); err != nil {
			return Table{}, fmt.Errorf("%w: scan column: %v", ErrUnavailable, err)
		}
		table.Columns = append(table.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return Table{}, fmt.Errorf("%w: iterate columns: %v", ErrUnavailable, err)
	}
	if len(table.Columns) == 0 {
		return Table{}, fmt.Errorf("%w: %q", ErrTableNotFound, name)
	}
	return table, nil
}
