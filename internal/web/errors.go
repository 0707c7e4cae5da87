package web

// errors.go turns handler errors into responses.
//
// Every error goes through respondError, which:
//  1. maps it to a user message and support code via core.NewUserError
//  2. picks the HTTP status from the error's kind
//  3. logs the technical error with the request ID
//  4. writes an ErrorResponse as JSON

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/fileops/internal/core"
	"github.com/JonMunkholm/fileops/internal/loader"
	"github.com/JonMunkholm/fileops/internal/logging"
	"github.com/JonMunkholm/fileops/internal/session"
)

// ErrorResponse is the JSON body of every error. Error is the one-line
// display form, "Message (Code: XXX). Action".
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	File    string `json:"file,omitempty"`

	status int
}

// Render implements render.Renderer.
func (e *ErrorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.status)
	return nil
}

// requestError marks a malformed request.
type requestError struct{ err error }

func (e *requestError) Error() string { return e.err.Error() }
func (e *requestError) Unwrap() error { return e.err }

func badRequest(err error) error { return &requestError{err: err} }

var errNoFile = errors.New("no file provided")

// statusFor picks the HTTP status for err.
func statusFor(err error) int {
	var (
		reqErr   *requestError
		fileErr  *loader.FileError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &tooLarge), errors.Is(err, errFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrTooManyUploads):
		return http.StatusServiceUnavailable
	case errors.Is(err, session.ErrNoResult), errors.Is(err, session.ErrUnknownResult):
		return http.StatusNotFound
	case errors.As(err, &reqErr), errors.As(err, &fileErr),
		errors.Is(err, loader.ErrEmptyFile), errors.Is(err, loader.ErrUnsupportedKind),
		errors.Is(err, loader.ErrSheetNotFound):
		return http.StatusBadRequest
	case core.IsUserFacing(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user-facing form.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	uerr := core.NewUserError(err)
	msg := uerr.User

	logger := logging.FromContext(r.Context())
	args := []any{
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"code", msg.Code,
		"error", uerr.Technical.Error(),
	}
	if status >= http.StatusInternalServerError {
		logger.Error("request error", args...)
	} else {
		logger.Warn("request error", args...)
	}

	resp := &ErrorResponse{
		Error:   core.FormatUserError(err),
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
		status:  status,
	}
	var fileErr *loader.FileError
	if errors.As(err, &fileErr) {
		resp.File = fileErr.Name
	}

	if err := render.Render(w, r, resp); err != nil {
		logger.Error("render error response", "error", err)
	}
}
