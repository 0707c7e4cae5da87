package web

import (
	"github.com/JonMunkholm/fileops/internal/core"
	"github.com/JonMunkholm/fileops/internal/table"
)

// tableView is the JSON preview of a table.
type tableView struct {
	Columns        []string        `json:"columns"`
	NumericColumns []string        `json:"numeric_columns"`
	Rows           [][]table.Value `json:"rows"`
	Shape          [2]int          `json:"shape"`
	Download       string          `json:"download,omitempty"`
}

// view previews the first PreviewRows rows of t. A non-empty result adds
// the download link for that session result.
func (s *Server) view(t *table.Table, result string) tableView {
	head := t.Head(s.cfg.Session.PreviewRows)
	rows := make([][]table.Value, head.Len())
	for i := range rows {
		rows[i] = head.Row(i)
	}
	n, w := t.Shape()
	v := tableView{
		Columns:        t.Columns(),
		NumericColumns: t.NumericColumns(),
		Rows:           rows,
		Shape:          [2]int{n, w},
	}
	if v.NumericColumns == nil {
		v.NumericColumns = []string{}
	}
	if result != "" {
		v.Download = downloadPath(result)
	}
	return v
}

func downloadPath(result string) string { return "/api/results/" + result }

// resultInfo describes one stored session result.
type resultInfo struct {
	Name     string `json:"name"`
	Rows     int    `json:"rows"`
	Columns  int    `json:"columns"`
	Download string `json:"download"`
}

type fileInfo struct {
	Name  string `json:"name"`
	Sheet string `json:"sheet,omitempty"`
	Rows  int    `json:"rows"`
}

type previewResponse struct {
	File   fileInfo  `json:"file"`
	Result tableView `json:"result"`
}

type sheetsResponse struct {
	File   string   `json:"file"`
	Sheets []string `json:"sheets"`
}

type appendResponse struct {
	Files  []fileInfo `json:"files"`
	Result tableView  `json:"result"`
}

type summarizeResponse struct {
	Source       string             `json:"source"`
	Operation    core.AggFunc       `json:"operation"`
	GroupBy      []string           `json:"group_by"`
	Aggregations []core.Aggregation `json:"aggregations"`
	Result       tableView          `json:"result"`
}

type reconcileResponse struct {
	PrimaryKey    string    `json:"primary_key"`
	SecondaryKey  string    `json:"secondary_key"`
	CommonColumns []string  `json:"common_columns"`
	Matched       tableView `json:"matched"`
	PrimaryOnly   tableView `json:"primary_only"`
	SecondaryOnly tableView `json:"secondary_only"`
}
