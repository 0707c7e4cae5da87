package core

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/fileops/internal/table"
)

func TestValidate(t *testing.T) {
	ab := mustTable(t, []string{"a", "b"})
	ba := mustTable(t, []string{"b", "a"})
	ac := mustTable(t, []string{"a", "c"})
	abc := mustTable(t, []string{"a", "b", "c"})

	tests := []struct {
		name   string
		tables []*table.Table
		want   bool
	}{
		{"no tables", nil, true},
		{"single table", []*table.Table{ab}, true},
		{"same columns", []*table.Table{ab, ab}, true},
		{"order ignored", []*table.Table{ab, ba}, true},
		{"different name", []*table.Table{ab, ac}, false},
		{"extra column", []*table.Table{ab, abc}, false},
		{"mismatch after matches", []*table.Table{ab, ba, ab, ac}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Validate(tt.tables...); got != tt.want {
				t.Errorf("Validate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckSchema_Details(t *testing.T) {
	ref := mustTable(t, []string{"id", "amount", "date"})
	bad := mustTable(t, []string{"id", "total", "date", "note"})

	err := checkSchema([]*table.Table{ref, ref, bad})
	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("checkSchema() error = %v, want *SchemaError", err)
	}
	if se.Table != 2 {
		t.Errorf("Table = %d, want 2", se.Table)
	}
	if len(se.Missing) != 1 || se.Missing[0] != "amount" {
		t.Errorf("Missing = %v, want [amount]", se.Missing)
	}
	if len(se.Extra) != 2 || se.Extra[0] != "note" || se.Extra[1] != "total" {
		t.Errorf("Extra = %v, want [note total]", se.Extra)
	}
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Error("SchemaError should match ErrSchemaMismatch")
	}
}

func TestCommonColumns(t *testing.T) {
	a := mustTable(t, []string{"id", "name", "amount"})
	b := mustTable(t, []string{"amount", "id", "region"})

	got := CommonColumns(a, b)
	if len(got) != 2 || got[0] != "id" || got[1] != "amount" {
		t.Errorf("CommonColumns() = %v, want [id amount]", got)
	}

	if got := CommonColumns(a, mustTable(t, []string{"x"})); len(got) != 0 {
		t.Errorf("CommonColumns() = %v, want empty", got)
	}
}
