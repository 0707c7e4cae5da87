package core

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds returned by the table operations. Callers match them with
// errors.Is; the typed wrappers below carry the column context.
var (
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrUnknownColumn     = errors.New("column not found")
	ErrNoGroupingColumns = errors.New("no grouping columns selected")
	ErrEmptyInput        = errors.New("empty input")
	ErrNoCommonStructure = errors.New("no common columns")
	ErrDuplicateColumn   = errors.New("duplicate column reference")
	ErrNotNumeric        = errors.New("column is not numeric")
)

// SchemaError describes which table broke column-set equality during append.
type SchemaError struct {
	Table   int      // position of the offending table in the input
	Missing []string // reference columns the table lacks
	Extra   []string // columns the reference table lacks
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing "+strings.Join(e.Missing, ", "))
	}
	if len(e.Extra) > 0 {
		parts = append(parts, "unexpected "+strings.Join(e.Extra, ", "))
	}
	return fmt.Sprintf("%s: table %d: %s", ErrSchemaMismatch, e.Table+1, strings.Join(parts, "; "))
}

func (e *SchemaError) Unwrap() error { return ErrSchemaMismatch }

// ColumnError ties an error kind to the column that caused it.
type ColumnError struct {
	Kind   error
	Column string
	Table  string // optional: "left", "right", ...
}

func (e *ColumnError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s: %q in %s table", e.Kind, e.Column, e.Table)
	}
	return fmt.Sprintf("%s: %q", e.Kind, e.Column)
}

func (e *ColumnError) Unwrap() error { return e.Kind }

func unknownColumn(col, side string) error {
	return &ColumnError{Kind: ErrUnknownColumn, Column: col, Table: side}
}
