package core

import (
	"strconv"

	"github.com/JonMunkholm/fileops/internal/table"
)

// groupKey encodes the values of one row's group-by columns into a single
// comparable string. Two missing values encode identically, so they group
// together. Each value is prefixed with its kind, and text with its length,
// so distinct tuples never collide.
func groupKey(buf []byte, t *table.Table, row int, positions []int) []byte {
	buf = buf[:0]
	for _, p := range positions {
		buf = appendValue(buf, t.At(row, p))
	}
	return buf
}

func appendValue(buf []byte, v table.Value) []byte {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.Float()
		buf = append(buf, 'n')
		buf = strconv.AppendFloat(buf, f, 'g', -1, 64)
		buf = append(buf, ';')
	case table.KindText:
		s, _ := v.TextValue()
		buf = append(buf, 't')
		buf = strconv.AppendInt(buf, int64(len(s)), 10)
		buf = append(buf, ':')
		buf = append(buf, s...)
	case table.KindBool:
		if b, _ := v.BoolValue(); b {
			buf = append(buf, 'T')
		} else {
			buf = append(buf, 'F')
		}
	default:
		buf = append(buf, '_')
	}
	return buf
}

// joinKey returns the key used to match rows across tables, and false for
// missing values, which never match anything.
//
// Values match when they have the same kind and equal payloads; numbers are
// canonical (5 and 5.0 are the same Value). Text "5" does not match the
// number 5.
func joinKey(v table.Value) (table.Value, bool) {
	if v.IsNull() {
		return v, false
	}
	return v, true
}
