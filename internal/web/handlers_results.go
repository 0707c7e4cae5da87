package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/fileops/internal/exporter"
	"github.com/JonMunkholm/fileops/internal/history"
	"github.com/JonMunkholm/fileops/internal/logging"
	"github.com/JonMunkholm/fileops/internal/session"
	"github.com/JonMunkholm/fileops/internal/web/views"
)

const defaultHistoryLimit = 50

// handleDownload streams a session result as CSV or XLSX (the default).
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	sess := sessionFrom(r.Context())
	req := downloadRequest{
		Name:   chi.URLParam(r, "name"),
		Format: strings.ToLower(r.URL.Query().Get("format")),
	}
	e := history.Entry{Operation: history.OpDownload, Session: sess.ID, Inputs: []string{req.Name}}

	body, name, format, err := s.export(sess, req)
	e.Duration = time.Since(start)
	if err == nil {
		e.RowsOut = body.rows
	}
	s.record(r.Context(), &e, err)
	if err != nil {
		respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(body.buf.Len()))
	if _, err := body.buf.WriteTo(w); err != nil {
		logging.FromContext(r.Context()).Warn("download interrupted", "file", name, "error", err)
	}
}

type exported struct {
	buf  bytes.Buffer
	rows int
}

// export encodes the requested result fully before anything is written, so
// an encoding failure can still be reported as an error response.
func (s *Server) export(sess *session.Session, req downloadRequest) (*exported, string, exporter.Format, error) {
	if err := s.validate(req); err != nil {
		return nil, "", 0, err
	}
	format, err := exporter.ParseFormat(req.Format)
	if err != nil {
		return nil, "", 0, badRequest(fmt.Errorf("invalid request: %w", err))
	}
	t, err := sess.Result(req.Name)
	if err != nil {
		return nil, "", 0, err
	}
	base, _ := session.DownloadName(req.Name)

	out := &exported{rows: t.Len()}
	if err := exporter.Write(&out.buf, t, format); err != nil {
		return nil, "", 0, err
	}
	return out, exporter.FileName(base, format), format, nil
}

// handleHistory lists this session's most recent operations, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	req, err := s.bindHistory(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	sess := sessionFrom(r.Context())

	entries, err := s.history.Recent(r.Context(), sess.ID, req.Limit)
	if err != nil {
		respondError(w, r, fmt.Errorf("history: %w", err))
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	render.JSON(w, r, map[string]any{"entries": entries})
}

// handleResults lists the results stored in this session.
func (s *Server) handleResults(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	names := sess.Results()
	out := make([]resultInfo, 0, len(names))
	for _, name := range names {
		t, err := sess.Result(name)
		if err != nil {
			continue
		}
		rows, cols := t.Shape()
		out = append(out, resultInfo{Name: name, Rows: rows, Columns: cols, Download: downloadPath(name)})
	}
	render.JSON(w, r, map[string]any{"results": out})
}

// handleEndSession drops the session and its results and expires the
// cookie. The next request starts a fresh session.
func (s *Server) handleEndSession(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	s.sessions.Delete(sess.ID)
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	logging.FromContext(r.Context()).Info("session ended")
	w.WriteHeader(http.StatusNoContent)
}

// handleHealth reports liveness plus a few load figures.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]any{
		"status":           "ok",
		"sessions":         s.sessions.Len(),
		"parses_active":    s.parses.Active(),
		"parses_available": s.parses.Available(),
	})
}

// handleIndex renders the single-page UI.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := views.Index(views.IndexProps{
		MaxFileSize: s.cfg.Upload.MaxFileSize,
		MaxFiles:    s.cfg.Upload.MaxFiles,
		Functions:   aggFuncLabels(),
	})
	if err := page.Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render index", "error", err)
	}
}
