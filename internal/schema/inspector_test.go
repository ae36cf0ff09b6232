package schema

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	_ "github.com/marcboeker/go-duckdb/v2"
)

func newDataFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fecomdb.db")
	db, err := sql.Open("duckdb", path)
	if err != nil {
		t.Fatalf("open duckdb: %v", err)
	}
	defer func() { _ = db.Close() }()

	statements := []string{
		`CREATE TABLE ipca_7060_recife ("periodo" VARCHAR, "Localidade" VARCHAR, "Valor" DOUBLE)`,
		`CREATE TABLE pms_5906_brasil ("periodo" VARCHAR, "Valor" DOUBLE)`,
		`INSERT INTO ipca_7060_recife VALUES ('2024-01', 'Recife (PE)', 0.42)`,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	return path
}

func TestListTables(t *testing.T) {
	inspector, err := NewInspector(newDataFile(t))
	if err != nil {
		t.Fatalf("NewInspector() error = %v", err)
	}

	names, err := inspector.ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("tables = %v", names)
	}
	if names[0] != "ipca_7060_recife" || names[1] != "pms_5906_brasil" {
		t.Fatalf("tables = %v, want sorted by name", names)
	}
}

func TestDescribeTableReturnsOrderedColumns(t *testing.T) {
	inspector, err := NewInspector(newDataFile(t))
	if err != nil {
		t.Fatalf("NewInspector() error = %v", err)
	}

	table, err := inspector.DescribeTable(context.Background(), "ipca_7060_recife")
	if err != nil {
		t.Fatalf("DescribeTable() error = %v", err)
	}
	if len(table.Columns) != 3 {
		t.Fatalf("columns = %v", table.Columns)
	}
	if table.Columns[0].Name != "periodo" {
		t.Fatalf("first column = %q, want declaration order", table.Columns[0].Name)
	}
	if table.Columns[1].Name != "Localidade" {
		t.Fatalf("second column = %q", table.Columns[1].Name)
	}
}

func TestDescribeTableUnknownTable(t *testing.T) {
	inspector, err := NewInspector(newDataFile(t))
	if err != nil {
		t.Fatalf("NewInspector() error = %v", err)
	}

	if _, err := inspector.DescribeTable(context.Background(), "nope"); !errors.Is(err, ErrTableNotFound) {
		t.Fatalf("DescribeTable() error = %v, want ErrTableNotFound", err)
	}
}

func TestMissingFileIsUnavailable(t *testing.T) {
	inspector, err := NewInspector(filepath.Join(t.TempDir(), "missing.db"))
	if err != nil {
		t.Fatalf("NewInspector() error = %v", err)
	}

	if _, err := inspector.ListTables(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("ListTables() error = %v, want ErrUnavailable", err)
	}
}

func TestSnapshotReturnsAllTables(t *testing.T) {
	inspector, err := NewInspector(newDataFile(t))
	if err != nil {
		t.Fatalf("NewInspector() error = %v", err)
	}

	tables, err := inspector.Snapshot(context.Background())
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("snapshot = %d tables", len(tables))
	}
	for _, table := range tables {
		if len(table.Columns) == 0 {
			t.Fatalf("table %q has no columns", table.Name)
		}
	}
}
