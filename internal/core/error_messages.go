// Package core provides the table operations behind the file tools.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Table Errors
//
// Matched with errors.Is against the sentinels in errors.go:
//
//	SCH001 - Schema mismatch: The files do not have the same columns
//	         Action: Make sure every file has the same column headers
//
//	COL001 - Unknown column: A selected column does not exist
//	         Action: Pick a column from the list shown in the preview
//
//	COL002 - Duplicate column: The same column was selected twice
//	         Action: Select each column only once
//
//	COL003 - Not numeric: A selected column contains non-numeric values
//	         Action: Choose a numeric column or use Count, Min or Max
//
//	GRP001 - No grouping: No grouping columns were selected
//	         Action: Select at least one column to group by
//
//	INP001 - Empty input: There is nothing to process
//	         Action: Upload at least one file with data rows
//
//	REC001 - No common structure: The files share no column names
//	         Action: Check that both files describe the same records
//
// # File Errors (FILE001-FILE099)
//
// Matched by pattern:
//
//	FILE001 - File too large        Patterns: "file too large"
//	FILE002 - Invalid file          Patterns: "invalid csv", "invalid xlsx"
//	FILE003 - Unsupported type      Patterns: "unsupported file type"
//	FILE004 - No file               Patterns: "no file provided"
//	FILE005 - Empty file            Patterns: "empty file"
//
// # Limits
//
//	UPL001  - Too many files        Patterns: "too many files"
//	UPL002  - System busy           Patterns: "too many uploads"
//	REQ001  - Invalid form          Patterns: "invalid request"
//	RES001  - No result             Patterns: "result not found"
//	RATE001 - Rate limited          Patterns: "rate limit"
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original
// technical error when users report ERR000.
package core

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorKind maps a sentinel to its user message.
type errorKind struct {
	target error
	msg    UserMessage
}

// errorKinds is checked with errors.Is before any pattern matching.
var errorKinds = []errorKind{
	{
		target: ErrSchemaMismatch,
		msg: UserMessage{
			Message: "The files do not have the same columns",
			Action:  "Make sure every file has the same column headers",
			Code:    "SCH001",
		},
	},
	{
		target: ErrUnknownColumn,
		msg: UserMessage{
			Message: "A selected column does not exist",
			Action:  "Pick a column from the list shown in the preview",
			Code:    "COL001",
		},
	},
	{
		target: ErrDuplicateColumn,
		msg: UserMessage{
			Message: "The same column was selected twice",
			Action:  "Select each column only once",
			Code:    "COL002",
		},
	},
	{
		target: ErrNotNumeric,
		msg: UserMessage{
			Message: "A selected column contains non-numeric values",
			Action:  "Choose a numeric column or use Count, Min or Max",
			Code:    "COL003",
		},
	},
	{
		target: ErrNoGroupingColumns,
		msg: UserMessage{
			Message: "No grouping columns were selected",
			Action:  "Select at least one column to group by",
			Code:    "GRP001",
		},
	},
	{
		target: ErrEmptyInput,
		msg: UserMessage{
			Message: "There is nothing to process",
			Action:  "Upload at least one file with data rows",
			Code:    "INP001",
		},
	},
	{
		target: ErrNoCommonStructure,
		msg: UserMessage{
			Message: "The files share no column names",
			Action:  "Check that both files describe the same records",
			Code:    "REC001",
		},
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure file is comma-separated with consistent columns",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid xlsx",
		msg: UserMessage{
			Message: "File is not a valid Excel workbook",
			Action:  "Re-save the workbook as .xlsx and try again",
			Code:    "FILE002",
		},
	},
	{
		pattern: "sheet not found",
		msg: UserMessage{
			Message: "The selected sheet does not exist in the workbook",
			Action:  "Pick one of the sheets listed for the file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "This file type is not supported",
			Action:  "Upload a .csv or .xlsx file",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a header row",
			Code:    "FILE005",
		},
	},
	{
		pattern: "too many files",
		msg: UserMessage{
			Message: "Too many files were uploaded at once",
			Action:  "Upload fewer files per request",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "Some form fields are missing or invalid",
			Action:  "Check the selected options and try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "result not found",
		msg: UserMessage{
			Message: "The requested result is not available",
			Action:  "Run that step first, then try again",
			Code:    "RES001",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Known error kinds are matched with errors.Is; anything else falls back to
// case-insensitive substring patterns, then to ERR000.
//
// Example:
//
//	_, err := core.Append(a, b)
//	msg := MapError(err)
//	// msg.Code == "SCH001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, k := range errorKinds {
		if errors.Is(err, k.target) {
			return k.msg
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError wraps a technical error with a user-friendly message.
// The original error is preserved for logging.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
