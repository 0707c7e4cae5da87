package core

import (
	"fmt"

	"github.com/JonMunkholm/fileops/internal/table"
)

// Append concatenates tables in input order. The result uses the first
// table's column order; rows of later tables are re-projected by name.
//
// With no tables the result is a table with no columns and no rows. A
// *SchemaError (matching ErrSchemaMismatch) is returned when the column
// sets differ. Nothing is returned alongside an error.
func Append(tables ...*table.Table) (*table.Table, error) {
	if len(tables) == 0 {
		return table.Empty(), nil
	}
	if err := checkSchema(tables); err != nil {
		return nil, fmt.Errorf("append: %w", err)
	}

	columns := tables[0].Columns()
	b, err := table.NewBuilder(columns...)
	if err != nil {
		return nil, fmt.Errorf("append: %w", err)
	}

	total := 0
	for _, t := range tables {
		total += t.Len()
	}
	b.Grow(total)

	for _, t := range tables {
		// positions[j] = index in t of the j-th output column
		positions := make([]int, len(columns))
		for j, c := range columns {
			positions[j], _ = t.Index(c)
		}
		for i := 0; i < t.Len(); i++ {
			row := make([]table.Value, len(columns))
			for j, p := range positions {
				row[j] = t.At(i, p)
			}
			if err := b.Add(row); err != nil {
				return nil, fmt.Errorf("append: %w", err)
			}
		}
	}

	return b.Table(), nil
}
