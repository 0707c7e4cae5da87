package web

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/fileops/internal/config"
	"github.com/JonMunkholm/fileops/internal/history"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:  config.ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Upload:  config.UploadConfig{MaxFileSize: 1 << 20, MaxFiles: 5, MaxConcurrent: 2, ParseWorkers: 2, MaxWaitTime: time.Second},
		Session: config.SessionConfig{TTL: time.Hour, SweepInterval: time.Minute, PreviewRows: 5},
		Security: config.SecurityConfig{EnableCSP: true},
		History: config.HistoryConfig{MaxEntries: 100},
		Logging: config.LoggingConfig{Level: "info", Format: "text"},
	}
}

type testClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newTestClient(t *testing.T, cfg *config.Config) (*testClient, *Server) {
	t.Helper()
	s := NewServer(cfg, Deps{History: history.NewMemory(cfg.History.MaxEntries)})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	return &testClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}, s
}

type upload struct {
	field, name string
	data        []byte
}

func csvFile(field, name, body string) upload {
	return upload{field: field, name: name, data: []byte(body)}
}

func (c *testClient) post(path string, fields map[string]string, files ...upload) (*http.Response, map[string]any) {
	c.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(c.t, mw.WriteField(k, v))
	}
	for _, f := range files {
		w, err := mw.CreateFormFile(f.field, f.name)
		require.NoError(c.t, err)
		_, err = w.Write(f.data)
		require.NoError(c.t, err)
	}
	require.NoError(c.t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, c.base+path, &buf)
	require.NoError(c.t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *testClient) get(path string) (*http.Response, []byte) {
	c.t.Helper()
	resp, err := c.http.Get(c.base + path)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	return resp, body
}

func (c *testClient) do(req *http.Request) (*http.Response, map[string]any) {
	c.t.Helper()
	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(c.t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

func shape(t *testing.T, view any) []any {
	t.Helper()
	m, ok := view.(map[string]any)
	require.True(t, ok, "view is %T", view)
	return m["shape"].([]any)
}

const (
	salesA = "Region,Amount,Name\nEast,10,a\nWest,5,b\n"
	salesB = "Name,Region,Amount\nc,East,2\nd,North,1\n"
)

func TestAppendSummarizeDownload(t *testing.T) {
	c, _ := newTestClient(t, testConfig())

	resp, body := c.post("/api/append", nil,
		csvFile("files", "a.csv", salesA),
		csvFile("files", "b.csv", salesB),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, []any{4.0, 3.0}, shape(t, body["result"]))
	assert.Len(t, body["files"], 2)
	result := body["result"].(map[string]any)
	assert.Equal(t, []any{"Amount"}, result["numeric_columns"])
	assert.Equal(t, "/api/results/combined", result["download"])

	resp, body = c.post("/api/summarize", map[string]string{
		"use_combined": "true",
		"group_by":     `["Region"]`,
		"columns":      "Amount",
		"operation":    "Sum",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	result = body["result"].(map[string]any)
	assert.Equal(t, []any{"Region", "Amount"}, result["columns"])
	assert.Equal(t, []any{
		[]any{"East", 12.0},
		[]any{"West", 5.0},
		[]any{"North", 1.0},
	}, result["rows"])

	dl, raw := c.get("/api/results/summary?format=csv")
	require.Equal(t, http.StatusOK, dl.StatusCode, string(raw))
	assert.Equal(t, "Region,Amount\nEast,12\nWest,5\nNorth,1\n", string(raw))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "summary_results.csv")

	dl, raw = c.get("/api/results/combined")
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "combined_data.xlsx")
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	require.NoError(t, err)
	rows, err := f.GetRows("Sheet1")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestSummarizeUploadedFile(t *testing.T) {
	c, _ := newTestClient(t, testConfig())

	resp, body := c.post("/api/summarize", map[string]string{
		"group_by":    "Region",
		"columns":     "Amount",
		"operation":   "count",
		"include_all": "on",
	}, csvFile("file", "a.csv", salesA))
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, "Count", body["operation"])
	assert.Equal(t, []any{map[string]any{"column": "Amount", "func": "Count"}}, body["aggregations"])
	result := body["result"].(map[string]any)
	assert.Equal(t, []any{"Region", "Amount", "Name"}, result["columns"])
}

func TestOperationErrors(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		fields   map[string]string
		files    []upload
		wantCode int
		wantErr  string
	}{
		{
			name:     "append without files",
			path:     "/api/append",
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE004",
		},
		{
			name: "append schema mismatch",
			path: "/api/append",
			files: []upload{
				csvFile("files", "a.csv", salesA),
				csvFile("files", "c.csv", "Region,Total\nEast,1\n"),
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "SCH001",
		},
		{
			name:     "append unsupported file",
			path:     "/api/append",
			files:    []upload{{field: "files", name: "notes.txt", data: []byte("x")}},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE003",
		},
		{
			name:     "append empty file",
			path:     "/api/append",
			files:    []upload{csvFile("files", "empty.csv", "")},
			wantCode: http.StatusBadRequest,
			wantErr:  "FILE005",
		},
		{
			name:     "summarize without grouping",
			path:     "/api/summarize",
			fields:   map[string]string{"columns": "Amount", "operation": "Sum"},
			files:    []upload{csvFile("file", "a.csv", salesA)},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "GRP001",
		},
		{
			name:     "summarize unknown operation",
			path:     "/api/summarize",
			fields:   map[string]string{"group_by": "Region", "operation": "Mode"},
			files:    []upload{csvFile("file", "a.csv", salesA)},
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
		{
			name:     "summarize text column",
			path:     "/api/summarize",
			fields:   map[string]string{"group_by": "Region", "columns": "Name", "operation": "Mean"},
			files:    []upload{csvFile("file", "a.csv", salesA)},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "COL003",
		},
		{
			name:     "summarize combined before append",
			path:     "/api/summarize",
			fields:   map[string]string{"group_by": "Region", "operation": "Sum", "use_combined": "true"},
			wantCode: http.StatusNotFound,
			wantErr:  "RES001",
		},
		{
			name:   "reconcile without keys",
			path:   "/api/reconcile",
			fields: map[string]string{"primary_key": "ID"},
			files: []upload{
				csvFile("primary", "p.csv", "ID\n1\n"),
				csvFile("secondary", "s.csv", "ID\n1\n"),
			},
			wantCode: http.StatusBadRequest,
			wantErr:  "REQ001",
		},
		{
			name:   "reconcile no common columns",
			path:   "/api/reconcile",
			fields: map[string]string{"primary_key": "A", "secondary_key": "B"},
			files: []upload{
				csvFile("primary", "p.csv", "A\n1\n"),
				csvFile("secondary", "s.csv", "B\n1\n"),
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "REC001",
		},
		{
			name:   "reconcile unknown key",
			path:   "/api/reconcile",
			fields: map[string]string{"primary_key": "ID", "secondary_key": "Ref"},
			files: []upload{
				csvFile("primary", "p.csv", "ID\n1\n"),
				csvFile("secondary", "s.csv", "ID\n1\n"),
			},
			wantCode: http.StatusUnprocessableEntity,
			wantErr:  "COL001",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, testConfig())
			resp, body := c.post(tt.path, tt.fields, tt.files...)
			assert.Equal(t, tt.wantCode, resp.StatusCode, body)
			assert.Equal(t, tt.wantErr, body["code"])
			assert.NotEmpty(t, body["message"])
			assert.Contains(t, body["error"], "(Code: "+tt.wantErr+"). ")
		})
	}
}

func TestAppendReportsFailingFile(t *testing.T) {
	c, _ := newTestClient(t, testConfig())
	resp, body := c.post("/api/append", nil,
		csvFile("files", "a.csv", salesA),
		csvFile("files", "broken.csv", "A,B\n1,2,3\n"),
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "FILE002", body["code"])
	assert.Equal(t, "broken.csv", body["file"])
}

func TestAppendTooManyFiles(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFiles = 1
	c, _ := newTestClient(t, cfg)
	resp, body := c.post("/api/append", nil,
		csvFile("files", "a.csv", salesA),
		csvFile("files", "b.csv", salesB),
	)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "UPL001", body["code"])
}

func TestAppendFileTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Upload.MaxFileSize = 16
	c, _ := newTestClient(t, cfg)
	resp, body := c.post("/api/append", nil, csvFile("files", "a.csv", strings.Repeat("x", 64)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.StatusCode)
	assert.Equal(t, "FILE001", body["code"])
}

func TestReconcile(t *testing.T) {
	c, _ := newTestClient(t, testConfig())

	resp, body := c.post("/api/reconcile",
		map[string]string{"primary_key": "ID", "secondary_key": "ID"},
		csvFile("primary", "p.csv", "ID,Amount\n1,10\n2,20\n3,30\n"),
		csvFile("secondary", "s.csv", "Ref,ID\nx,2\ny,3\nz,4\n"),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, []any{"ID"}, body["common_columns"])
	assert.Equal(t, []any{2.0, 2.0}, shape(t, body["matched"]))
	assert.Equal(t, []any{1.0, 2.0}, shape(t, body["primary_only"]))
	assert.Equal(t, []any{1.0, 2.0}, shape(t, body["secondary_only"]))

	dl, raw := c.get("/api/results/right_only?format=csv")
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "Ref,ID\nz,4\n", string(raw))
	assert.Contains(t, dl.Header.Get("Content-Disposition"), "secondary_only.csv")

	dl, raw = c.get("/api/results/matched?format=csv")
	require.Equal(t, http.StatusOK, dl.StatusCode)
	assert.Equal(t, "ID,Amount\n2,20\n3,30\n", string(raw))
}

func xlsxFile(t *testing.T, sheets map[string][][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for name, rows := range sheets {
		_, err := f.NewSheet(name)
		require.NoError(t, err)
		for i, row := range rows {
			cell, err := excelize.CoordinatesToCellName(1, i+1)
			require.NoError(t, err)
			require.NoError(t, f.SetSheetRow(name, cell, &row))
		}
	}
	require.NoError(t, f.DeleteSheet("Sheet1"))
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestSheetsAndSheetSelection(t *testing.T) {
	c, _ := newTestClient(t, testConfig())
	book := xlsxFile(t, map[string][][]any{
		"Jan": {{"Region", "Amount"}, {"East", 1}},
		"Feb": {{"Region", "Amount"}, {"West", 2}, {"East", 3}},
	})

	resp, body := c.post("/api/sheets", nil, upload{field: "file", name: "book.xlsx", data: book})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.ElementsMatch(t, []any{"Jan", "Feb"}, body["sheets"])

	resp, body = c.post("/api/preview", map[string]string{"sheet:book.xlsx": "Feb"},
		upload{field: "file", name: "book.xlsx", data: book})
	require.Equal(t, http.StatusOK, resp.StatusCode, body)
	assert.Equal(t, []any{2.0, 2.0}, shape(t, body["result"]))

	resp, body = c.post("/api/preview", map[string]string{"sheet:book.xlsx": "Mar"},
		upload{field: "file", name: "book.xlsx", data: book})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "FILE002", body["code"])

	resp, body = c.post("/api/sheets", nil, csvFile("file", "a.csv", salesA))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body["sheets"])
}

func TestDownloadErrors(t *testing.T) {
	c, _ := newTestClient(t, testConfig())

	resp, body := c.get("/api/results/summary")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, string(body))
	assert.Contains(t, string(body), "RES001")

	resp, body = c.get("/api/results/secrets")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "REQ001")

	resp, body = c.get("/api/results/combined?format=pdf")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "REQ001")
}

func TestHistoryIsPerSession(t *testing.T) {
	cfg := testConfig()
	s := NewServer(cfg, Deps{History: history.NewMemory(50)})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	newClient := func() *testClient {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		return &testClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
	}
	alice, bob := newClient(), newClient()

	alice.post("/api/append", nil, csvFile("files", "a.csv", salesA))
	alice.post("/api/append", nil)
	bob.post("/api/append", nil, csvFile("files", "b.csv", salesB))

	resp, raw := alice.get("/api/history")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Entries []history.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Entries, 2)
	assert.Equal(t, history.StatusError, out.Entries[0].Status)
	assert.Equal(t, "FILE004", out.Entries[0].ErrorCode)
	assert.Equal(t, history.StatusOK, out.Entries[1].Status)
	assert.Equal(t, []string{"a.csv"}, out.Entries[1].Inputs)
	assert.Equal(t, 2, out.Entries[1].RowsIn)

	resp, _ = alice.get("/api/history?limit=1000")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHistoryLimitAppliesWithinSession(t *testing.T) {
	cfg := testConfig()
	cfg.History.MaxEntries = 2
	s := NewServer(cfg, Deps{History: history.NewMemory(50)})
	ts := httptest.NewServer(s.Router())
	t.Cleanup(ts.Close)

	newClient := func() *testClient {
		jar, err := cookiejar.New(nil)
		require.NoError(t, err)
		return &testClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
	}
	alice, bob := newClient(), newClient()

	alice.post("/api/append", nil, csvFile("files", "a.csv", salesA))
	for i := 0; i < 4; i++ {
		bob.post("/api/append", nil, csvFile("files", "b.csv", salesB))
	}

	resp, raw := alice.get("/api/history?limit=1")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var out struct {
		Entries []history.Entry `json:"entries"`
	}
	require.NoError(t, json.Unmarshal(raw, &out))
	require.Len(t, out.Entries, 1)
	assert.Equal(t, []string{"a.csv"}, out.Entries[0].Inputs)
}

func TestResultsListAndEndSession(t *testing.T) {
	c, s := newTestClient(t, testConfig())

	resp, raw := c.get("/api/results")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"results":[]}`, string(raw))

	resp, body := c.post("/api/append", nil,
		csvFile("files", "a.csv", salesA),
		csvFile("files", "b.csv", salesB),
	)
	require.Equal(t, http.StatusOK, resp.StatusCode, body)

	resp, raw = c.get("/api/results")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t,
		`{"results":[{"name":"combined","rows":4,"columns":3,"download":"/api/results/combined"}]}`,
		string(raw))

	req, err := http.NewRequest(http.MethodDelete, c.base+"/api/session", nil)
	require.NoError(t, err)
	resp, err = c.http.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, 0, s.sessions.Len())

	// The cookie is gone, so the next request gets a new, empty session.
	resp, raw = c.get("/api/results/combined")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, string(raw), "RES001")
	assert.Equal(t, 1, s.sessions.Len())
}

func TestSessionCookie(t *testing.T) {
	c, s := newTestClient(t, testConfig())

	resp, _ := c.get("/")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var cookie *http.Cookie
	for _, ck := range resp.Cookies() {
		if ck.Name == SessionCookie {
			cookie = ck
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)

	resp, _ = c.get("/")
	assert.Empty(t, resp.Cookies(), "existing session should be reused")
	assert.Equal(t, 1, s.sessions.Len())
}

func TestHealthMetricsAndHeaders(t *testing.T) {
	c, _ := newTestClient(t, testConfig())

	resp, body := c.get("/healthz")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"status":"ok"`)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("Content-Security-Policy"))

	c.post("/api/append", nil, csvFile("files", "a.csv", salesA))
	resp, body = c.get("/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `fileops_operations_total{operation="append",status="ok"} 1`)
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig()
	cfg.Security.RequireAPIKey = true
	cfg.Security.APIKeys = []string{"secret"}
	c, _ := newTestClient(t, cfg)

	resp, _ := c.get("/api/history")
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, c.base+"/api/history", nil)
	require.NoError(t, err)
	req.Header.Set("X-API-Key", "secret")
	resp, body := c.do(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "entries")

	// The page itself stays public.
	resp, _ = c.get("/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimitedServer(t *testing.T) {
	cfg := testConfig()
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	c, _ := newTestClient(t, cfg)

	resp, _ := c.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := c.get("/healthz")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Contains(t, string(body), "RATE001")
}
