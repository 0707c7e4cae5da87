package web

import (
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/fileops/internal/core"
	"github.com/JonMunkholm/fileops/internal/history"
	"github.com/JonMunkholm/fileops/internal/loader"
	"github.com/JonMunkholm/fileops/internal/session"
	"github.com/JonMunkholm/fileops/internal/table"
)

// handleSheets lists the sheets of an uploaded workbook. CSV files have
// none.
func (s *Server) handleSheets(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		respondError(w, r, err)
		return
	}
	src, err := s.upload(r, "file")
	if err != nil {
		respondError(w, r, err)
		return
	}

	sheets := []string{}
	if src.Kind == loader.KindXLSX {
		if err := s.parses.Acquire(r.Context()); err != nil {
			respondError(w, r, err)
			return
		}
		sheets, err = loader.SheetNames(src.Data)
		s.parses.Release()
		if err != nil {
			respondError(w, r, &loader.FileError{Name: src.Name, Err: err})
			return
		}
	}
	render.JSON(w, r, sheetsResponse{File: src.Name, Sheets: sheets})
}

// handlePreview parses one file and returns its columns and first rows so
// the user can pick keys and summary columns.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(r); err != nil {
		respondError(w, r, err)
		return
	}
	src, err := s.upload(r, "file")
	if err != nil {
		respondError(w, r, err)
		return
	}
	tables, err := s.load(r.Context(), []loader.Source{src})
	if err != nil {
		respondError(w, r, err)
		return
	}
	render.JSON(w, r, previewResponse{
		File:   fileInfo{Name: src.Name, Sheet: src.Sheet, Rows: tables[0].Len()},
		Result: s.view(tables[0], ""),
	})
}

// appendFiles validates that every uploaded file has the same columns and
// stacks them into the session's combined table.
func (s *Server) appendFiles(r *http.Request, sess *session.Session, e *history.Entry) (any, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}
	sources, err := s.uploads(r, "files")
	if err != nil {
		return nil, err
	}
	e.Inputs = sourceNames(sources)
	switch {
	case len(sources) == 0:
		return nil, badRequest(errNoFile)
	case len(sources) > s.cfg.Upload.MaxFiles:
		return nil, badRequest(fmt.Errorf("too many files: %d uploaded, at most %d", len(sources), s.cfg.Upload.MaxFiles))
	}

	tables, err := s.load(r.Context(), sources)
	if err != nil {
		return nil, err
	}
	files := make([]fileInfo, len(tables))
	for i, t := range tables {
		files[i] = fileInfo{Name: sources[i].Name, Sheet: sources[i].Sheet, Rows: t.Len()}
		e.RowsIn += t.Len()
	}

	combined, err := core.Append(tables...)
	if err != nil {
		return nil, err
	}
	e.RowsOut = combined.Len()

	if err := sess.Put(session.ResultCombined, combined); err != nil {
		return nil, err
	}
	return appendResponse{Files: files, Result: s.view(combined, session.ResultCombined)}, nil
}

// summarize groups the uploaded file, or the combined table from an earlier
// append, and applies one summary function to the chosen columns.
func (s *Server) summarize(r *http.Request, sess *session.Session, e *history.Entry) (any, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}
	req, err := s.bindSummarize(r)
	if err != nil {
		return nil, err
	}

	var (
		src  *table.Table
		name string
	)
	if req.UseCombined {
		name = session.ResultCombined
		if src, err = sess.Result(session.ResultCombined); err != nil {
			return nil, err
		}
	} else {
		file, err := s.upload(r, "file")
		if err != nil {
			return nil, err
		}
		name = file.Name
		tables, err := s.load(r.Context(), []loader.Source{file})
		if err != nil {
			return nil, err
		}
		src = tables[0]
	}
	e.Inputs = []string{name}
	e.RowsIn = src.Len()

	fn, err := core.ParseAggFunc(req.Operation)
	if err != nil {
		return nil, badRequest(fmt.Errorf("invalid request: %w", err))
	}
	aggs := core.Uniform(fn, req.Columns...)
	out, err := core.Aggregate(src, req.GroupBy, aggs, req.IncludeAll)
	if err != nil {
		return nil, err
	}
	e.RowsOut = out.Len()

	if err := sess.Put(session.ResultSummary, out); err != nil {
		return nil, err
	}
	return summarizeResponse{
		Source:       name,
		Operation:    fn,
		GroupBy:      req.GroupBy,
		Aggregations: aggs,
		Result:       s.view(out, session.ResultSummary),
	}, nil
}

// reconcile compares a primary and a secondary file on one key column each
// and stores the matched and one-sided rows.
func (s *Server) reconcile(r *http.Request, sess *session.Session, e *history.Entry) (any, error) {
	if err := parseForm(r); err != nil {
		return nil, err
	}
	req, err := s.bindReconcile(r)
	if err != nil {
		return nil, err
	}
	primary, err := s.upload(r, "primary")
	if err != nil {
		return nil, err
	}
	secondary, err := s.upload(r, "secondary")
	if err != nil {
		return nil, err
	}
	e.Inputs = []string{primary.Name, secondary.Name}

	tables, err := s.load(r.Context(), []loader.Source{primary, secondary})
	if err != nil {
		return nil, err
	}
	left, right := tables[0], tables[1]
	e.RowsIn = left.Len() + right.Len()

	common := core.CommonColumns(left, right)
	if len(common) == 0 {
		return nil, fmt.Errorf("reconcile %s and %s: %w", primary.Name, secondary.Name, core.ErrNoCommonStructure)
	}

	res, err := core.Reconcile(left, req.PrimaryKey, right, req.SecondaryKey)
	if err != nil {
		return nil, err
	}
	matched, leftOnly, rightOnly := res.Counts()
	e.RowsOut = matched + leftOnly + rightOnly

	for name, t := range map[string]*table.Table{
		session.ResultMatched:   res.Matched,
		session.ResultLeftOnly:  res.LeftOnly,
		session.ResultRightOnly: res.RightOnly,
	} {
		if err := sess.Put(name, t); err != nil {
			return nil, err
		}
	}

	return reconcileResponse{
		PrimaryKey:    req.PrimaryKey,
		SecondaryKey:  req.SecondaryKey,
		CommonColumns: common,
		Matched:       s.view(res.Matched, session.ResultMatched),
		PrimaryOnly:   s.view(res.LeftOnly, session.ResultLeftOnly),
		SecondaryOnly: s.view(res.RightOnly, session.ResultRightOnly),
	}, nil
}
