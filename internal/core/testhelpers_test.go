package core

import (
	"testing"

	"github.com/JonMunkholm/fileops/internal/table"
)

// n, s and null keep test tables short.
func n(f float64) table.Value { return table.Number(f) }
func s(v string) table.Value  { return table.Text(v) }
func null() table.Value       { return table.Null() }

func mustTable(t testing.TB, columns []string, rows ...[]table.Value) *table.Table {
	t.Helper()
	tbl, err := table.New(columns, rows)
	if err != nil {
		t.Fatalf("table.New() error = %v", err)
	}
	return tbl
}

// equalRows compares a table's rows against want, value by value.
func equalRows(t *testing.T, got *table.Table, want [][]table.Value) {
	t.Helper()
	if got.Len() != len(want) {
		t.Fatalf("rows = %d, want %d\ngot: %v", got.Len(), len(want), got.Records())
	}
	for i, row := range want {
		if len(row) != got.Width() {
			t.Fatalf("row %d: width = %d, want %d", i, got.Width(), len(row))
		}
		for j, v := range row {
			if got.At(i, j) != v {
				t.Errorf("row %d col %d = %v, want %v", i, j, got.At(i, j), v)
			}
		}
	}
}

func equalColumns(t *testing.T, got *table.Table, want ...string) {
	t.Helper()
	cols := got.Columns()
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("columns = %v, want %v", cols, want)
		}
	}
}

// sameTable fails unless a and b have the same columns and cells.
func sameTable(t *testing.T, a, b *table.Table) {
	t.Helper()
	equalColumns(t, b, a.Columns()...)
	want := make([][]table.Value, a.Len())
	for i := range want {
		want[i] = a.Row(i)
	}
	equalRows(t, b, want)
}
