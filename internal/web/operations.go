package web

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/JonMunkholm/fileops/internal/core"
	"github.com/JonMunkholm/fileops/internal/history"
	"github.com/JonMunkholm/fileops/internal/logging"
	"github.com/JonMunkholm/fileops/internal/session"
)

// operationFunc runs one table operation for a request. It fills in the
// inputs and row counts of e and returns the JSON response body.
type operationFunc func(r *http.Request, sess *session.Session, e *history.Entry) (any, error)

// operation wraps fn so every call is timed, recorded in the history and
// counted in the metrics, whether it succeeds or not.
func (s *Server) operation(op history.Operation, fn operationFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sess := sessionFrom(r.Context())
		e := history.Entry{Operation: op, Session: sess.ID}

		resp, err := fn(r, sess, &e)
		e.Duration = time.Since(start)
		s.record(r.Context(), &e, err)

		if err != nil {
			respondError(w, r, err)
			return
		}
		render.JSON(w, r, resp)
	}
}

// record stores e and updates the operation metrics.
func (s *Server) record(ctx context.Context, e *history.Entry, err error) {
	e.Status = history.StatusOK
	if err != nil {
		e.Status = history.StatusError
		e.ErrorCode = core.MapError(err).Code
	}
	s.metrics.ObserveOperation(string(e.Operation), string(e.Status), e.RowsIn, e.Duration)

	logger := logging.WithFields(ctx,
		"operation", e.Operation,
		"inputs", e.Inputs,
		"rows_in", e.RowsIn,
		"rows_out", e.RowsOut,
		"duration_ms", e.Duration.Milliseconds(),
	)
	if err != nil {
		logger.Warn("operation failed", "code", e.ErrorCode)
	} else {
		logger.Info("operation completed")
	}

	if rerr := s.history.Record(ctx, *e); rerr != nil {
		logger.Error("record history", "error", rerr)
	}
}
