package api

import (
	"errors"
	"net/http"

	"github.com/hubia/hubia/internal/schema"
)

type tableColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type tableInfo struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Columns     []tableColumn `json:"columns"`
}

type tablesResponse struct {
	Tables []tableInfo `json:"tables"`
}

func handleListTables(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Schema == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "SCHEMA_NOT_CONFIGURED", "schema reader is not configured", false, nil)
		return
	}

	snapshot, err := deps.Schema.Snapshot(r.Context())
	if err != nil {
		if errors.Is(err, schema.ErrUnavailable) {
			writeError(r.Context(), w, http.StatusServiceUnavailable, "SCHEMA_UNAVAILABLE", err.Error(), true, nil)
			return
		}
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_ERROR", err.Error(), true, nil)
		return
	}

	tables := make([]tableInfo, 0, len(snapshot))
	for _, table := range snapshot {
		columns := make([]tableColumn, 0, len(table.Columns))
		for _, column := range table.Columns {
			columns = append(columns, tableColumn{Name: column.Name, Type: column.Type})
		}
		tables = append(tables, tableInfo{
			Name:        table.Name,
			Description: deps.Aliases.Describe(table.Name),
			Columns:     columns,
		})
	}
	writeJSON(w, http.StatusOK, tablesResponse{Tables: tables})
}
