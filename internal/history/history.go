// Package history records one entry per table operation so users can see
// what they ran and support can trace failures by error code.
package history

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Operation names a recorded table operation.
type Operation string

const (
	OpAppend    Operation = "append"
	OpSummarize Operation = "summarize"
	OpReconcile Operation = "reconcile"
	OpDownload  Operation = "download"
)

// Status is the outcome of an operation.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Entry is one recorded operation.
type Entry struct {
	ID        string        `json:"id"`
	Operation Operation     `json:"operation"`
	Session   string        `json:"session,omitempty"`
	Inputs    []string      `json:"inputs,omitempty"`
	RowsIn    int           `json:"rowsIn"`
	RowsOut   int           `json:"rowsOut"`
	Status    Status        `json:"status"`
	ErrorCode string        `json:"errorCode,omitempty"`
	IPAddress string        `json:"ipAddress,omitempty"`
	UserAgent string        `json:"userAgent,omitempty"`
	Duration  time.Duration `json:"durationNs"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Recorder stores and lists entries.
//
// Recent returns at most limit entries, newest first. A non-empty session
// restricts the listing to that session before the limit applies.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, session string, limit int) ([]Entry, error)
}

// stamp fills the generated fields of e and the client details carried in
// ctx.
func stamp(ctx context.Context, e Entry) Entry {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.IPAddress == "" {
		e.IPAddress = IPAddressFromContext(ctx)
	}
	if e.UserAgent == "" {
		e.UserAgent = UserAgentFromContext(ctx)
	}
	return e
}
