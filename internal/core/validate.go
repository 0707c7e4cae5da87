package core

import "github.com/JonMunkholm/fileops/internal/table"

// Validate reports whether every table has the same column set as the
// first one. Column order is ignored. No tables is valid.
func Validate(tables ...*table.Table) bool {
	return checkSchema(tables) == nil
}

// checkSchema returns a *SchemaError for the first table whose column set
// differs from the reference.
func checkSchema(tables []*table.Table) error {
	if len(tables) == 0 {
		return nil
	}
	ref := tables[0].ColumnSet()
	for i, t := range tables[1:] {
		set := t.ColumnSet()
		if ref.Equal(set) {
			continue
		}
		return &SchemaError{
			Table:   i + 1,
			Missing: ref.Missing(set),
			Extra:   set.Missing(ref),
		}
	}
	return nil
}

// CommonColumns returns the columns of a that also exist in b, in a's order.
func CommonColumns(a, b *table.Table) []string {
	var out []string
	for _, c := range a.Columns() {
		if b.Has(c) {
			out = append(out, c)
		}
	}
	return out
}
