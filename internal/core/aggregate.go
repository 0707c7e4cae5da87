package core

import (
	"fmt"

	"github.com/JonMunkholm/fileops/internal/table"
)

// Aggregation pairs a column with the function that summarizes it.
type Aggregation struct {
	Column string  `json:"column"`
	Func   AggFunc `json:"func"`
}

// Uniform applies one function to every listed column, which is how the
// summarize screen builds its spec.
func Uniform(fn AggFunc, columns ...string) []Aggregation {
	out := make([]Aggregation, len(columns))
	for i, c := range columns {
		out[i] = Aggregation{Column: c, Func: fn}
	}
	return out
}

// Aggregate partitions t by the groupBy columns and summarizes each group.
//
// Groups appear in the order their key first occurs in t. Output columns are
// groupBy, then the spec columns, then (when includeOthers is set) every
// remaining column of t in its original order, carrying the value of the
// group's first row.
//
// Checks run in this order: ErrNoGroupingColumns, ErrUnknownColumn,
// ErrDuplicateColumn, ErrEmptyInput, ErrNotNumeric.
func Aggregate(t *table.Table, groupBy []string, spec []Aggregation, includeOthers bool) (*table.Table, error) {
	if len(groupBy) == 0 {
		return nil, fmt.Errorf("aggregate: %w", ErrNoGroupingColumns)
	}

	keyPos, err := positions(t, groupBy)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	specCols := make([]string, len(spec))
	for i, a := range spec {
		specCols[i] = a.Column
	}
	specPos, err := positions(t, specCols)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	for _, a := range spec {
		if _, ok := reducers[a.Func]; !ok {
			return nil, fmt.Errorf("aggregate: unknown function %d for %q", int(a.Func), a.Column)
		}
	}

	outCols := make([]string, 0, t.Width())
	outCols = append(outCols, groupBy...)
	outCols = append(outCols, specCols...)
	seen := make(map[string]bool, len(outCols))
	for _, c := range outCols {
		if seen[c] {
			return nil, fmt.Errorf("aggregate: %w", &ColumnError{Kind: ErrDuplicateColumn, Column: c})
		}
		seen[c] = true
	}

	var otherPos []int
	if includeOthers {
		for j, c := range t.Columns() {
			if !seen[c] {
				outCols = append(outCols, c)
				otherPos = append(otherPos, j)
			}
		}
	}

	if t.Len() == 0 {
		return nil, fmt.Errorf("aggregate: %w: table has no rows", ErrEmptyInput)
	}

	for i, a := range spec {
		if !reducers[a.Func].numeric {
			continue
		}
		if err := requireNumeric(t, specPos[i], a.Column); err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
	}

	// Partition: groups[g] holds the row positions of group g, in input order.
	index := make(map[string]int)
	var groups [][]int
	var key []byte
	for i := 0; i < t.Len(); i++ {
		key = groupKey(key, t, i, keyPos)
		g, ok := index[string(key)]
		if !ok {
			g = len(groups)
			index[string(key)] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}

	b, err := table.NewBuilder(outCols...)
	if err != nil {
		return nil, fmt.Errorf("aggregate: %w", err)
	}
	b.Grow(len(groups))

	vals := make([]table.Value, 0)
	for _, rows := range groups {
		first := rows[0]
		out := make([]table.Value, 0, len(outCols))
		for _, p := range keyPos {
			out = append(out, t.At(first, p))
		}
		for i, a := range spec {
			vals = vals[:0]
			for _, r := range rows {
				vals = append(vals, t.At(r, specPos[i]))
			}
			out = append(out, reducers[a.Func].reduce(vals))
		}
		for _, p := range otherPos {
			out = append(out, t.At(first, p))
		}
		if err := b.Add(out); err != nil {
			return nil, fmt.Errorf("aggregate: %w", err)
		}
	}

	return b.Table(), nil
}

// positions resolves column names to indexes in t.
func positions(t *table.Table, cols []string) ([]int, error) {
	out := make([]int, len(cols))
	for i, c := range cols {
		p, ok := t.Index(c)
		if !ok {
			return nil, unknownColumn(c, "")
		}
		out[i] = p
	}
	return out, nil
}

// requireNumeric fails when column j holds anything but numbers and nulls.
func requireNumeric(t *table.Table, j int, col string) error {
	for i := 0; i < t.Len(); i++ {
		if k := t.At(i, j).Kind(); k != table.KindNumber && k != table.KindNull {
			return &ColumnError{Kind: ErrNotNumeric, Column: col}
		}
	}
	return nil
}
