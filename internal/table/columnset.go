package table

import "sort"

// ColumnSet is an unordered set of column names.
type ColumnSet map[string]struct{}

// NewColumnSet builds a set from names.
func NewColumnSet(names ...string) ColumnSet {
	s := make(ColumnSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Equal reports whether both sets hold exactly the same names.
func (s ColumnSet) Equal(other ColumnSet) bool {
	if len(s) != len(other) {
		return false
	}
	for n := range s {
		if _, ok := other[n]; !ok {
			return false
		}
	}
	return true
}

// Missing returns the names in s that are absent from other, sorted.
func (s ColumnSet) Missing(other ColumnSet) []string {
	var out []string
	for n := range s {
		if _, ok := other[n]; !ok {
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}
