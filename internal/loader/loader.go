// Package loader parses uploaded CSV and Excel files into tables.
//
// Parsing is all-or-nothing per file: a file either yields a complete
// [table.Table] or an error, never a partial table.
package loader

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/JonMunkholm/fileops/internal/table"
)

var (
	ErrEmptyFile       = errors.New("empty file")
	ErrUnsupportedKind = errors.New("unsupported file type")
	ErrSheetNotFound   = errors.New("sheet not found")
)

// SheetNames lists the sheets of an XLSX workbook in workbook order.
func SheetNames(data []byte) ([]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

// Load parses one source. The first row is the header.
func Load(src Source) (*table.Table, error) {
	var (
		records [][]string
		err     error
	)
	switch src.Kind {
	case KindCSV:
		records, err = readCSV(src.Data)
	case KindXLSX:
		records, err = readXLSX(src.Data, src.Sheet)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedKind, src.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name, err)
	}

	t, err := build(records)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", src.Name, err)
	}
	return t, nil
}

func readCSV(data []byte) ([][]string, error) {
	if len(bytes.TrimSpace(bytes.TrimPrefix(data, utf8BOM))) == 0 {
		return nil, ErrEmptyFile
	}

	r := csv.NewReader(decodeText(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("invalid csv: %w", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	if width := len(records[0]); width > 0 {
		for i, rec := range records[1:] {
			if len(rec) > width {
				return nil, fmt.Errorf("invalid csv: line %d has %d fields, header has %d", i+2, len(rec), width)
			}
		}
	}
	return records, nil
}

func readXLSX(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	if sheet == "" {
		sheet = sheets[0]
	} else if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("invalid xlsx: %w", err)
	}

	// Blank rows carry no data; GetRows also trims trailing empty cells.
	records := rows[:0]
	width := 0
	for _, row := range rows {
		if isBlank(row) {
			continue
		}
		records = append(records, row)
		if len(row) > width {
			width = len(row)
		}
	}
	if len(records) == 0 {
		return nil, ErrEmptyFile
	}
	// Cells past the header width get "Unnamed" headers, as for blank headers.
	for len(records[0]) < width {
		records[0] = append(records[0], "")
	}
	return records, nil
}

func isBlank(row []string) bool {
	for _, c := range row {
		if cleanCell(c) != "" {
			return false
		}
	}
	return true
}

// build turns header + data records into a typed table.
func build(records [][]string) (*table.Table, error) {
	header := normalizeHeader(records[0])
	body := records[1:]
	width := len(header)

	// Column-major cells so each column is typed on its own.
	cols := make([][]string, width)
	for j := range cols {
		cols[j] = make([]string, len(body))
	}
	for i, rec := range body {
		for j := 0; j < width && j < len(rec); j++ {
			cols[j][i] = cleanCell(rec[j])
		}
	}

	typed := make([][]table.Value, width)
	for j, cells := range cols {
		typed[j] = inferColumn(cells)
	}

	b, err := table.NewBuilder(header...)
	if err != nil {
		return nil, err
	}
	b.Grow(len(body))
	for i := range body {
		row := make([]table.Value, width)
		for j := range typed {
			row[j] = typed[j][i]
		}
		if err := b.Add(row); err != nil {
			return nil, err
		}
	}
	return b.Table(), nil
}

// normalizeHeader names blank headers "Unnamed: N" (N is the zero-based
// position) and suffixes repeats with ".1", ".2", ...
func normalizeHeader(raw []string) []string {
	out := make([]string, len(raw))
	taken := make(map[string]bool, len(raw))
	for j, h := range raw {
		h = cleanCell(h)
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(j)
		}
		name := h
		for k := 1; taken[name]; k++ {
			name = h + "." + strconv.Itoa(k)
		}
		taken[name] = true
		out[j] = name
	}
	return out
}

// Loaded pairs a parsed table with its source.
type Loaded struct {
	Source Source
	Table  *table.Table
}

// FileError reports a file that could not be parsed.
type FileError struct {
	Name string
	Err  error
}

func (e *FileError) Error() string { return e.Err.Error() }
func (e *FileError) Unwrap() error { return e.Err }

// LoadAll parses sources concurrently, at most limit at a time. Parsed
// tables come back in input order; files that fail are reported in failed
// and left out of loaded. The returned error is non-nil only when ctx ends
// first.
func LoadAll(ctx context.Context, sources []Source, limit int) (loaded []Loaded, failed []*FileError, err error) {
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))
	g, gctx := errgroup.WithContext(ctx)

	tables := make([]*table.Table, len(sources))
	errs := make([]error, len(sources))
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)
			tables[i], errs[i] = Load(src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	for i, src := range sources {
		if errs[i] != nil {
			failed = append(failed, &FileError{Name: src.Name, Err: errs[i]})
			continue
		}
		loaded = append(loaded, Loaded{Source: src, Table: tables[i]})
	}
	return loaded, failed, nil
}
