package table

import (
	"encoding/json"
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestNew_RejectsDuplicateColumns(t *testing.T) {
	_, err := New([]string{"id", "amount", "id"}, nil)
	if !errors.Is(err, ErrDuplicateColumn) {
		t.Fatalf("New() error = %v, want ErrDuplicateColumn", err)
	}
}

func TestNew_RejectsRowWidth(t *testing.T) {
	_, err := New([]string{"id", "amount"}, [][]Value{{Number(1)}})
	if !errors.Is(err, ErrRowWidth) {
		t.Fatalf("New() error = %v, want ErrRowWidth", err)
	}
}

func TestNew_CopiesInput(t *testing.T) {
	cols := []string{"id"}
	rows := [][]Value{{Number(1)}}
	tbl := MustNew(cols, rows)

	cols[0] = "changed"
	rows[0][0] = Number(99)

	if got := tbl.Columns(); got[0] != "id" {
		t.Errorf("Columns()[0] = %q, want %q", got[0], "id")
	}
	if got := tbl.At(0, 0); got != Number(1) {
		t.Errorf("At(0,0) = %v, want 1", got)
	}

	// Returned slices are copies too.
	tbl.Columns()[0] = "mutated"
	tbl.Row(0)[0] = Text("mutated")
	if tbl.Columns()[0] != "id" || tbl.At(0, 0) != Number(1) {
		t.Error("accessors leaked internal state")
	}
}

func TestTable_Accessors(t *testing.T) {
	tbl := MustNew([]string{"region", "amt"}, [][]Value{
		{Text("E"), Number(10)},
		{Text("W"), Null()},
		{Text("E"), Number(20)},
	})

	if r, c := tbl.Shape(); r != 3 || c != 2 {
		t.Errorf("Shape() = (%d, %d), want (3, 2)", r, c)
	}
	if !tbl.Has("amt") || tbl.Has("missing") {
		t.Error("Has() returned wrong result")
	}
	if v, ok := tbl.Get(2, "amt"); !ok || v != Number(20) {
		t.Errorf("Get(2, amt) = %v, %v", v, ok)
	}
	if _, ok := tbl.Get(0, "nope"); ok {
		t.Error("Get() on unknown column should fail")
	}

	head := tbl.Head(2)
	if head.Len() != 2 {
		t.Errorf("Head(2).Len() = %d, want 2", head.Len())
	}
	if tbl.Head(10).Len() != 3 {
		t.Error("Head larger than table should return all rows")
	}

	sel := tbl.Select([]int{2, 0})
	if sel.At(0, 1) != Number(20) || sel.At(1, 1) != Number(10) {
		t.Error("Select() did not keep requested order")
	}
}

func TestTable_NumericColumns(t *testing.T) {
	tbl := MustNew([]string{"name", "qty", "blank", "flag"}, [][]Value{
		{Text("a"), Number(1), Null(), Bool(true)},
		{Text("b"), Null(), Null(), Bool(false)},
	})
	got := tbl.NumericColumns()
	want := []string{"qty", "blank"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NumericColumns() = %v, want %v", got, want)
	}
}

func TestTable_Records(t *testing.T) {
	tbl := MustNew([]string{"id", "amount", "ok", "note"}, [][]Value{
		{Number(1), Number(10.5), Bool(true), Null()},
	})
	got := tbl.Records()
	want := [][]string{{"1", "10.5", "TRUE", ""}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Records() = %v, want %v", got, want)
	}
}

func TestValue_Normalisation(t *testing.T) {
	if Number(math.Copysign(0, -1)) != Number(0) {
		t.Error("-0 should equal 0")
	}

	if !Number(math.NaN()).IsNull() {
		t.Error("NaN should become Null")
	}

	if Number(5) != Number(5.0) {
		t.Error("5 and 5.0 should be equal values")
	}
	if Number(5) == Text("5") {
		t.Error("number and text must not be equal")
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want int
	}{
		{"numbers", Number(1), Number(2), -1},
		{"equal numbers", Number(2), Number(2), 0},
		{"text", Text("b"), Text("a"), 1},
		{"bool", Bool(false), Bool(true), -1},
		{"number before text", Number(100), Text("1"), -1},
		{"bool before number", Bool(true), Number(0), -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Compare(tt.a, tt.b); got != tt.want {
				t.Errorf("Compare(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestFormatNumber(t *testing.T) {
	tests := map[float64]string{
		10:      "10",
		-3:      "-3",
		10.5:    "10.5",
		0.1:     "0.1",
		1234567: "1234567",
	}
	for in, want := range tests {
		if got := FormatNumber(in); got != want {
			t.Errorf("FormatNumber(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestValue_JSON(t *testing.T) {
	row := []Value{Number(1.5), Text("x"), Bool(true), Null()}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}
	if string(data) != `[1.5,"x",true,null]` {
		t.Errorf("Marshal = %s", data)
	}

	var back []Value
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal error: %v", err)
	}
	if !reflect.DeepEqual(back, row) {
		t.Errorf("Unmarshal = %v, want %v", back, row)
	}
}

func TestColumnSet(t *testing.T) {
	a := NewColumnSet("id", "amount")
	b := NewColumnSet("amount", "id")
	c := NewColumnSet("id", "total")

	if !a.Equal(b) {
		t.Error("sets with same names in different order should be equal")
	}
	if a.Equal(c) {
		t.Error("different sets reported equal")
	}
	if got := a.Missing(c); !reflect.DeepEqual(got, []string{"amount"}) {
		t.Errorf("Missing() = %v", got)
	}
}
