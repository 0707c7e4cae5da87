package loader

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Kind is the upstream file format, resolved once from the file name.
type Kind int

const (
	KindCSV Kind = iota + 1
	KindXLSX
)

func (k Kind) String() string {
	switch k {
	case KindCSV:
		return "csv"
	case KindXLSX:
		return "xlsx"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// DetectKind maps a file name to its Kind by extension.
func DetectKind(name string) (Kind, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return KindCSV, nil
	case ".xlsx", ".xlsm":
		return KindXLSX, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedKind, name)
}

// Source is one uploaded file ready for parsing.
type Source struct {
	Name  string
	Kind  Kind
	Sheet string // XLSX only; empty selects the first sheet
	Data  []byte
}

// NewSource detects the kind of name and wraps data.
func NewSource(name string, data []byte) (Source, error) {
	kind, err := DetectKind(name)
	if err != nil {
		return Source{}, err
	}
	return Source{Name: name, Kind: kind, Data: data}, nil
}
