// Package exporter writes tables as downloadable CSV or XLSX files.
package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fileops/internal/table"
)

// Format is a download format.
type Format int

const (
	FormatCSV Format = iota + 1
	FormatXLSX
)

// SheetName is the sheet every XLSX export is written to.
const SheetName = "Sheet1"

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatXLSX:
		return "xlsx"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat accepts "csv" or "xlsx" (case-insensitive). Empty means XLSX,
// the format the download buttons default to.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return FormatXLSX, nil
	case "csv":
		return FormatCSV, nil
	}
	return 0, fmt.Errorf("unsupported file type: export format %q", s)
}

// ContentType returns the MIME type for a format.
func (f Format) ContentType() string {
	if f == FormatCSV {
		return "text/csv; charset=utf-8"
	}
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileName appends the format's extension to base.
func FileName(base string, f Format) string {
	return base + "." + f.String()
}

// Write encodes t to w.
func Write(w io.Writer, t *table.Table, f Format) error {
	switch f {
	case FormatCSV:
		return writeCSV(w, t)
	case FormatXLSX:
		return writeXLSX(w, t)
	}
	return fmt.Errorf("export: unknown format %d", int(f))
}

// writeCSV writes the header and rows. Text that a spreadsheet would read
// as a formula is prefixed with a single quote; numbers are written as is,
// so negative amounts stay numeric.
func writeCSV(w io.Writer, t *table.Table) error {
	cw := csv.NewWriter(w)
	header := t.Columns()
	for j, c := range header {
		header[j] = escapeFormula(c)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}

	records := t.Records()
	for i, rec := range records {
		for j := range rec {
			if t.At(i, j).Kind() == table.KindText {
				rec[j] = escapeFormula(rec[j])
			}
		}
	}
	if err := cw.WriteAll(records); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	return nil
}

func escapeFormula(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case '=', '+', '-', '@', '\t', '\r':
		return "'" + s
	}
	return s
}

func writeXLSX(w io.Writer, t *table.Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sw, err := f.NewStreamWriter(SheetName)
	if err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	header := make([]any, t.Width())
	for j, c := range t.Columns() {
		header[j] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	row := make([]any, t.Width())
	for i := 0; i < t.Len(); i++ {
		for j := range row {
			row[j] = cellValue(t.At(i, j))
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("export xlsx: %w", err)
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export xlsx: %w", err)
	}
	return nil
}

// cellValue maps a Value to what excelize stores natively; missing values
// become empty cells.
func cellValue(v table.Value) any {
	switch v.Kind() {
	case table.KindNumber:
		f, _ := v.Float()
		return f
	case table.KindBool:
		b, _ := v.BoolValue()
		return b
	case table.KindText:
		s, _ := v.TextValue()
		return s
	}
	return nil
}
