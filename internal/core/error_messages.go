// Package core validates WOUDC extended CSV files against the table catalog.
//
// # Error Codes Reference
//
// This file defines user-friendly messages with codes for support reference.
// Report entries carry the code of their kind, and technical errors surfaced
// by the HTTP API and CLI are mapped to a code through MapError. Submitters can
// quote the code to support staff for faster diagnosis.
//
// Error codes are grouped by category:
//
// # Identity Errors (DS001-DS099)
//
// The declared identity does not match a catalog entry, or was adjusted:
//
//	DS001 - Unknown dataset: The dataset is not registered
//	        Action: Check CONTENT.Category against the supported datasets
//	        Patterns: ErrUnknownDataset, "unknown dataset"
//
//	DS002 - Unsupported version: The dataset does not define this version
//	        Action: Check CONTENT.Level against the supported versions
//	        Patterns: ErrUnsupportedVersion, "unsupported version"
//
//	DS003 - Unknown level: The version does not define this level
//	        Action: Check CONTENT.Form against the supported levels
//	        Patterns: ErrUnknownLevel, "unknown level"
//
//	DS004 - Unknown form: The level does not define this form
//	        Action: Declare one of the forms listed in the message
//	        Patterns: ErrUnknownForm, "unknown form"
//
//	DS005 - Identity corrected (notice): A declared value was normalised
//	DS006 - Form inferred (notice): The form was chosen by matching tables
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Missing table: A required table is not in the file
//	         Action: Add the table with its header row
//	         Patterns: "required table"
//
//	TBL002 - Unrecognized table (notice): The table is not defined for the file's identity
//	TBL003 - Optional table absent (notice)
//
// # Column Errors (COL001-COL099)
//
//	COL001 - Missing column: A table header lacks a required column
//	         Action: Add the column to the table header
//	         Patterns: "missing required column"
//
//	COL002 - Unrecognized column (notice): The column is not defined for its table
//
// # Schema Errors (SCH001-SCH099)
//
//	SCH001 - Malformed schema: The table definitions could not be loaded
//	         Action: Fix the definitions file and reload
//	         Patterns: ErrMalformedSchema, "malformed schema"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the maximum upload size
//	FILE002 - Not extended CSV: File has no #TABLE sections
//	FILE003 - Encoding error: File contains undecodable characters
//	FILE004 - No file: No file was selected
//	FILE005 - Empty file: The uploaded file is empty
//	FILE006 - Missing content: The CONTENT table is missing or incomplete
//	FILE007 - Invalid form: CONTENT.Form is not an integer
//
// # Storage Errors (DB001-DB099)
//
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//	DB008 - Report not found
//	DB009 - Report storage disabled
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled ("context canceled")
//	REQ002 - Request timed out ("context deadline exceeded")
//	REQ003 - System busy ("too many concurrent validations")
//	REQ004 - Invalid request body ("invalid request")
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests ("rate limit")
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original
// technical error when users report ERR000.
//
// # Pattern Matching
//
// Typed errors are matched first with errors.Is. After that, patterns are
// matched case-insensitively using strings.Contains and the first match wins,
// so more specific patterns must come before general ones.
package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgUnknownDataset = UserMessage{
		Message: "The dataset is not registered",
		Action:  "Check CONTENT.Category against the supported datasets",
		Code:    "DS001",
	}
	msgUnsupportedVersion = UserMessage{
		Message: "The dataset does not define this version",
		Action:  "Check CONTENT.Level against the supported versions",
		Code:    "DS002",
	}
	msgUnknownLevel = UserMessage{
		Message: "The version does not define this level",
		Action:  "Check CONTENT.Form against the supported levels",
		Code:    "DS003",
	}
	msgUnknownForm = UserMessage{
		Message: "The level does not define this form",
		Action:  "Declare one of the forms listed in the message",
		Code:    "DS004",
	}
	msgMalformedSchema = UserMessage{
		Message: "The table definitions could not be loaded",
		Action:  "Fix the definitions file and reload",
		Code:    "SCH001",
	}
)

// typedErrors are matched with errors.Is before any pattern.
var typedErrors = []struct {
	target error
	msg    UserMessage
}{
	{catalog.ErrUnknownDataset, msgUnknownDataset},
	{catalog.ErrUnsupportedVersion, msgUnsupportedVersion},
	{catalog.ErrUnknownLevel, msgUnknownLevel},
	{catalog.ErrUnknownForm, msgUnknownForm},
	{catalog.ErrMalformedSchema, msgMalformedSchema},
}

// kindMessages gives every report entry kind its code.
var kindMessages = map[Kind]UserMessage{
	MissingRequiredTable: {
		Message: "A required table is not in the file",
		Action:  "Add the table with its header row",
		Code:    "TBL001",
	},
	UnrecognizedTable: {
		Message: "The table is not defined for this dataset",
		Action:  "Check the table name for typos",
		Code:    "TBL002",
	},
	OptionalTableAbsent: {
		Message: "An optional table is not in the file",
		Code:    "TBL003",
	},
	MissingRequiredColumn: {
		Message: "A table header lacks a required column",
		Action:  "Add the column to the table header",
		Code:    "COL001",
	},
	UnrecognizedColumn: {
		Message: "The column is not defined for its table",
		Action:  "Check the column name for typos",
		Code:    "COL002",
	},
	IdentityCorrected: {
		Message: "A declared CONTENT value was normalised",
		Action:  "Update the file to use the normalised value",
		Code:    "DS005",
	},
	FormInferred: {
		Message: "The form was chosen by matching tables",
		Code:    "DS006",
	},
}

// CodeFor returns the support code of a report entry kind.
func CodeFor(k Kind) string {
	return kindMessages[k].Code
}

// MessageFor returns the user message of a report entry kind.
func MessageFor(k Kind) UserMessage {
	return kindMessages[k]
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters:
//   - More specific patterns should come before general ones
//   - Multiple patterns can map to the same error code
var errorPatterns = []errorPattern{
	// =========================================================================
	// Identity and schema (DS001-DS004, SCH001)
	// Normally caught as typed errors; the patterns cover wrapped strings.
	// =========================================================================
	{pattern: "unknown dataset", msg: msgUnknownDataset},
	{pattern: "unsupported version", msg: msgUnsupportedVersion},
	{pattern: "unknown level", msg: msgUnknownLevel},
	{pattern: "unknown form", msg: msgUnknownForm},
	{pattern: "malformed schema", msg: msgMalformedSchema},

	// =========================================================================
	// Tables and columns (TBL001, COL001)
	// =========================================================================
	{pattern: "required table", msg: kindMessages[MissingRequiredTable]},
	{pattern: "missing required column", msg: kindMessages[MissingRequiredColumn]},

	// =========================================================================
	// File Errors (FILE001-FILE007)
	// These errors occur when reading submitted files.
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum upload size",
			Action:  "Split the submission into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "not an extended csv",
		msg: UserMessage{
			Message: "File is not in extended CSV format",
			Action:  "Start each table with a #TABLE_NAME line followed by its header row",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains characters that could not be decoded",
			Action:  "Save the file as UTF-8",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select an extended CSV file to validate",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file containing extended CSV tables",
			Code:    "FILE005",
		},
	},
	{
		pattern: "content table",
		msg: UserMessage{
			Message: "The CONTENT table is missing or incomplete",
			Action:  "Add #CONTENT with Class, Category, Level and Form",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid form",
		msg: UserMessage{
			Message: "CONTENT.Form is not an integer",
			Action:  "Use an integer such as 1 for CONTENT.Form",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Storage Errors (DB004-DB009)
	// These errors occur when the report store is unavailable.
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "report not found",
		msg: UserMessage{
			Message: "Validation report not found",
			Action:  "Check the report ID",
			Code:    "DB008",
		},
	},
	{
		pattern: "report store is not configured",
		msg: UserMessage{
			Message: "Report storage is disabled on this server",
			Action:  "Validate again and keep the returned report",
			Code:    "DB009",
		},
	},

	// =========================================================================
	// Request Errors (REQ001-REQ004)
	// =========================================================================
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "too many concurrent validations",
		msg: UserMessage{
			Message: "System is busy validating other files",
			Action:  "Please wait a moment and try again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the request body against the API documentation",
			Code:    "REQ004",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Typed catalog errors are matched first, then known patterns
// (case-insensitive). If nothing matches, the ERR000 fallback is returned.
//
// Example:
//
//	_, err := cat.Resolve(id)
//	msg := MapError(err)
//	// msg.Code == "DS001" for an unknown dataset
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, te := range typedErrors {
		if errors.Is(err, te.target) {
			return te.msg
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

// IsUserFacing reports whether err maps to a specific message rather than
// the generic ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
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
