package exporter

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fileops/internal/table"
)

func sample() *table.Table {
	return table.MustNew([]string{"region", "amt", "ok"}, [][]table.Value{
		{table.Text("E"), table.Number(30), table.Bool(true)},
		{table.Text("W, north"), table.Number(2.5), table.Null()},
	})
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"csv", FormatCSV, false},
		{"CSV", FormatCSV, false},
		{"xlsx", FormatXLSX, false},
		{"", FormatXLSX, false},
		{"pdf", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "summary_results.csv", FileName("summary_results", FormatCSV))
	assert.Equal(t, "exact_matches.xlsx", FileName("exact_matches", FormatXLSX))
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), FormatCSV))
	assert.Equal(t, "region,amt,ok\nE,30,TRUE\n\"W, north\",2.5,\n", buf.String())
}

func TestWrite_CSVEscapesFormulas(t *testing.T) {
	tbl := table.MustNew([]string{"=note", "amt"}, [][]table.Value{
		{table.Text("=HYPERLINK(\"http://x\")"), table.Number(-5)},
		{table.Text("+1"), table.Number(1)},
		{table.Text("-abc"), table.Number(2)},
		{table.Text("@SUM(A1)"), table.Number(3)},
		{table.Text("plain"), table.Null()},
	})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, tbl, FormatCSV))
	want := "'=note,amt\n" +
		"\"'=HYPERLINK(\"\"http://x\"\")\",-5\n" +
		"'+1,1\n" +
		"'-abc,2\n" +
		"'@SUM(A1),3\n" +
		"plain,\n"
	assert.Equal(t, want, buf.String())
}

func TestWrite_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sample(), FormatXLSX))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"region", "amt", "ok"}, rows[0])
	assert.Equal(t, "E", rows[1][0])
	assert.Equal(t, "30", rows[1][1])
	assert.Equal(t, "W, north", rows[2][0])

	typ, err := f.GetCellType(SheetName, "B2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "numbers are written as numbers")
}

func TestWrite_EmptyTable(t *testing.T) {
	empty := table.MustNew([]string{"a", "b"}, nil)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, empty, FormatCSV))
	assert.Equal(t, "a,b\n", buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, empty, FormatXLSX))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
