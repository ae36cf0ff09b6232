package query

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Result is an ordered set of rows with the column names that produced
// them. Zero rows is a valid, meaningful result, distinct from an
// execution error.
type Result struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

func (r Result) Empty() bool {
	return len(r.Rows) == 0
}

// ExecutionError reports a request-scoped failure: malformed SQL, unknown
// table or column, or a store-level error. It never aborts the process.
type ExecutionError struct {
	Message string
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("query execution failed: %s", e.Message)
}

func AsExecutionError(err error) (*ExecutionError, bool) {
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr, true
	}
	return nil, false
}

type Engine interface {
	Execute(ctx context.Context, sqlText string) (Result, error)
}
