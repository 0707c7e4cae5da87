package table

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Kind identifies the type carried by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindText
)

// String returns a lowercase name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	default:
		return "unknown"
	}
}

// Value is a single typed cell. The zero Value is Null.
//
// Values are comparable with == and may be used as map keys. Numbers are
// normalised on construction (NaN becomes Null, -0 becomes 0) so that equal
// numbers always produce equal Values.
type Value struct {
	kind Kind
	num  float64
	str  string
	b    bool
}

// Null returns the missing value.
func Null() Value { return Value{} }

// Number returns a numeric value. NaN is treated as missing.
func Number(f float64) Value {
	if math.IsNaN(f) {
		return Value{}
	}
	if f == 0 {
		f = 0 // fold -0
	}
	return Value{kind: KindNumber, num: f}
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the value's kind.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is the missing value.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Float returns the numeric payload. ok is false for non-numbers.
func (v Value) Float() (f float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// TextValue returns the text payload. ok is false for non-text values.
func (v Value) TextValue() (s string, ok bool) {
	if v.kind != KindText {
		return "", false
	}
	return v.str, true
}

// BoolValue returns the boolean payload. ok is false for non-bools.
func (v Value) BoolValue() (b bool, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// String returns the display form of the value. Null renders as "".
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.str
	case KindBool:
		if v.b {
			return "TRUE"
		}
		return "FALSE"
	default:
		return ""
	}
}

// FormatNumber renders f without trailing zeros; integral values carry no
// decimal point.
func FormatNumber(f float64) string {
	if math.IsInf(f, 0) {
		if f > 0 {
			return "inf"
		}
		return "-inf"
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Compare orders two non-null values. Values of different kinds order by
// kind (bool < number < text). Null sorts before everything.
func Compare(a, b Value) int {
	if a.kind != b.kind {
		if a.kind < b.kind {
			return -1
		}
		return 1
	}
	switch a.kind {
	case KindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case KindText:
		return strings.Compare(a.str, b.str)
	case KindBool:
		switch {
		case a.b == b.b:
			return 0
		case !a.b:
			return -1
		}
		return 1
	}
	return 0
}

// MarshalJSON encodes the value as a JSON null, number, string or bool.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		if math.IsInf(v.num, 0) {
			return json.Marshal(v.String())
		}
		return []byte(strconv.FormatFloat(v.num, 'g', -1, 64)), nil
	case KindText:
		return json.Marshal(v.str)
	case KindBool:
		return json.Marshal(v.b)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON decodes a JSON scalar into a Value.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch x := raw.(type) {
	case nil:
		*v = Null()
	case float64:
		*v = Number(x)
	case string:
		*v = Text(x)
	case bool:
		*v = Bool(x)
	default:
		return &json.UnsupportedValueError{Str: string(data)}
	}
	return nil
}
