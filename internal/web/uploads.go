package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/fileops/internal/loader"
	"github.com/JonMunkholm/fileops/internal/logging"
	"github.com/JonMunkholm/fileops/internal/table"
)

// multipartMemory is how much of a multipart body is kept in memory before
// spilling to temp files.
const multipartMemory = 32 << 20

var errFileTooLarge = errors.New("file too large")

// maxRequestBytes bounds a whole upload request: every allowed file at the
// size limit plus room for form fields.
func (s *Server) maxRequestBytes() int64 {
	files := int64(s.cfg.Upload.MaxFiles)
	if files < 2 {
		files = 2
	}
	return s.cfg.Upload.MaxFileSize*files + 1<<20
}

// limitBody caps request bodies on upload routes.
func (s *Server) limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, s.maxRequestBytes())
		next.ServeHTTP(w, r)
	})
}

// parseForm reads a multipart body, or a plain form when the client sent
// no files at all.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(multipartMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err == nil {
		return nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return fmt.Errorf("%w: %w", errFileTooLarge, err)
	}
	return badRequest(fmt.Errorf("invalid request: %w", err))
}

// uploads reads every file sent under field. The sheet for a workbook comes
// from the "sheet:<filename>" form field.
func (s *Server) uploads(r *http.Request, field string) ([]loader.Source, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[field]
	out := make([]loader.Source, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > s.cfg.Upload.MaxFileSize {
			return nil, &loader.FileError{
				Name: fh.Filename,
				Err:  fmt.Errorf("%w: %d bytes, limit %d", errFileTooLarge, fh.Size, s.cfg.Upload.MaxFileSize),
			}
		}
		data, err := readUpload(fh)
		if err != nil {
			return nil, &loader.FileError{Name: fh.Filename, Err: err}
		}
		src, err := loader.NewSource(fh.Filename, data)
		if err != nil {
			return nil, &loader.FileError{Name: fh.Filename, Err: err}
		}
		src.Sheet = r.FormValue("sheet:" + fh.Filename)
		out = append(out, src)
	}
	return out, nil
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

// upload reads exactly one file sent under field.
func (s *Server) upload(r *http.Request, field string) (loader.Source, error) {
	srcs, err := s.uploads(r, field)
	if err != nil {
		return loader.Source{}, err
	}
	switch len(srcs) {
	case 0:
		return loader.Source{}, badRequest(fmt.Errorf("%w: %s", errNoFile, field))
	case 1:
		return srcs[0], nil
	}
	return loader.Source{}, badRequest(fmt.Errorf("invalid request: %s takes one file, got %d", field, len(srcs)))
}

// load parses sources under the parse limiter. Any failed file fails the
// whole request; every failure is logged and the first one is returned.
func (s *Server) load(ctx context.Context, sources []loader.Source) ([]*table.Table, error) {
	if err := s.parses.Acquire(ctx); err != nil {
		return nil, err
	}
	defer s.parses.Release()

	loaded, failed, err := loader.LoadAll(ctx, sources, s.cfg.Upload.ParseWorkers)
	if err != nil {
		return nil, err
	}
	if len(failed) > 0 {
		logger := logging.FromContext(ctx)
		for _, f := range failed {
			logger.Warn("file rejected", "file", f.Name, "error", f.Err)
		}
		return nil, failed[0]
	}

	tables := make([]*table.Table, len(loaded))
	for i, l := range loaded {
		tables[i] = l.Table
	}
	return tables, nil
}

func sourceNames(srcs []loader.Source) []string {
	out := make([]string, len(srcs))
	for i, s := range srcs {
		out[i] = s.Name
	}
	return out
}
