// Package table defines the immutable in-memory table every operation in
// this module consumes and produces.
//
// A Table has a fixed, ordered list of unique column names and an ordered
// list of rows. Each row holds one Value per column, positionally aligned
// with the column list. Once built a Table is never mutated; accessors that
// expose internal slices return copies.
package table

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateColumn is returned when a column name appears twice.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrRowWidth is returned when a row does not have one value per column.
	ErrRowWidth = errors.New("row width does not match column count")
)

// Table is an ordered sequence of rows over a fixed ordered column list.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// New builds a table from columns and rows. Both are copied.
func New(columns []string, rows [][]Value) (*Table, error) {
	b, err := NewBuilder(columns...)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		cp := make([]Value, len(row))
		copy(cp, row)
		if err := b.Add(cp); err != nil {
			return nil, err
		}
	}
	return b.Table(), nil
}

// MustNew is like New but panics on error. Intended for tests and fixtures.
func MustNew(columns []string, rows [][]Value) *Table {
	t, err := New(columns, rows)
	if err != nil {
		panic(err)
	}
	return t
}

// Empty returns a table with no columns and no rows.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// Columns returns a copy of the column names in order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.columns) }

// Has reports whether the table has the named column.
func (t *Table) Has(col string) bool {
	_, ok := t.index[col]
	return ok
}

// Index returns the position of a column.
func (t *Table) Index(col string) (int, bool) {
	i, ok := t.index[col]
	return i, ok
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []Value {
	out := make([]Value, len(t.rows[i]))
	copy(out, t.rows[i])
	return out
}

// At returns the value at row i, column position j.
func (t *Table) At(i, j int) Value { return t.rows[i][j] }

// Get returns the value at row i in the named column.
func (t *Table) Get(i int, col string) (Value, bool) {
	j, ok := t.index[col]
	if !ok {
		return Value{}, false
	}
	return t.rows[i][j], true
}

// ColumnSet returns the set of column names.
func (t *Table) ColumnSet() ColumnSet {
	return NewColumnSet(t.columns...)
}

// Head returns a table holding at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n > len(t.rows) {
		n = len(t.rows)
	}
	return &Table{columns: t.columns, index: t.index, rows: t.rows[:n:n]}
}

// Select returns a table holding the rows at the given positions, in order.
func (t *Table) Select(positions []int) *Table {
	rows := make([][]Value, len(positions))
	for i, p := range positions {
		rows[i] = t.rows[p]
	}
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// NumericColumns returns, in order, the columns whose non-null values are
// all numbers.
func (t *Table) NumericColumns() []string {
	var out []string
	for j, col := range t.columns {
		numeric := true
		for _, row := range t.rows {
			if k := row[j].Kind(); k != KindNull && k != KindNumber {
				numeric = false
				break
			}
		}
		if numeric {
			out = append(out, col)
		}
	}
	return out
}

// Records renders every row as display strings, header excluded.
func (t *Table) Records() [][]string {
	out := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rec := make([]string, len(row))
		for j, v := range row {
			rec[j] = v.String()
		}
		out[i] = rec
	}
	return out
}

// Shape returns (rows, columns).
func (t *Table) Shape() (int, int) { return len(t.rows), len(t.columns) }

// Builder accumulates rows for a new Table. A Builder must not be used
// after Table has been called.
type Builder struct {
	columns []string
	index   map[string]int
	rows    [][]Value
}

// NewBuilder starts a table with the given columns.
func NewBuilder(columns ...string) (*Builder, error) {
	index := make(map[string]int, len(columns))
	for i, c := range columns {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c)
		}
		index[c] = i
	}
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Builder{columns: cols, index: index}, nil
}

// Add appends a row. The builder takes ownership of the slice.
func (b *Builder) Add(row []Value) error {
	if len(row) != len(b.columns) {
		return fmt.Errorf("%w: got %d values, want %d", ErrRowWidth, len(row), len(b.columns))
	}
	b.rows = append(b.rows, row)
	return nil
}

// Grow reserves capacity for n more rows.
func (b *Builder) Grow(n int) {
	if cap(b.rows)-len(b.rows) < n {
		rows := make([][]Value, len(b.rows), len(b.rows)+n)
		copy(rows, b.rows)
		b.rows = rows
	}
}

// Table finishes the build.
func (b *Builder) Table() *Table {
	t := &Table{columns: b.columns, index: b.index, rows: b.rows}
	b.columns, b.index, b.rows = nil, nil, nil
	return t
}
