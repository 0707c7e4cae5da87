package loader

// convert.go turns raw cell text into typed values.
//
// These functions handle the messy reality of user-provided spreadsheet data:
//   - Currency symbols and thousand separators in numbers
//   - Accounting negatives written as (123.45)
//   - Excel formula prefixes (="value")
//   - Boolean columns written as TRUE/FALSE
//
// A column becomes numeric only when every non-empty cell parses as a number,
// so a single stray label keeps the whole column as text.

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/JonMunkholm/fileops/internal/table"
)

// numericRegex validates that a string is a valid numeric format after cleanup.
// Matches integers, decimals, and scientific notation.
var numericRegex = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)

// cleanCell removes common spreadsheet artifacts from a cell value:
// surrounding whitespace and the Excel formula prefix (="...").
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") && len(s) >= 3 {
		s = s[2 : len(s)-1]
	}
	return s
}

// parseNumber parses s as a number, accepting currency symbols, thousands
// separators and accounting negatives.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	isNegative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		isNegative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "€", "") // Euro
	s = strings.ReplaceAll(s, "£", "") // Pound
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	if !numericRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	if isNegative {
		f = -f
	}
	return f, true
}

// parseBool accepts TRUE and FALSE in any case.
func parseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true":
		return true, true
	case "false":
		return false, true
	}
	return false, false
}

// inferColumn converts one column of cleaned cells. Empty cells become Null.
// Numbers win over booleans, booleans over text.
func inferColumn(cells []string) []table.Value {
	out := make([]table.Value, len(cells))

	numeric, boolean := true, true
	for _, c := range cells {
		if c == "" {
			continue
		}
		if numeric {
			if _, ok := parseNumber(c); !ok {
				numeric = false
			}
		}
		if boolean {
			if _, ok := parseBool(c); !ok {
				boolean = false
			}
		}
		if !numeric && !boolean {
			break
		}
	}

	for i, c := range cells {
		switch {
		case c == "":
			out[i] = table.Null()
		case numeric:
			f, _ := parseNumber(c)
			out[i] = table.Number(f)
		case boolean:
			b, _ := parseBool(c)
			out[i] = table.Bool(b)
		default:
			out[i] = table.Text(c)
		}
	}
	return out
}
