package core

// # Error Codes Reference
//
// User-facing errors carry a code that can be quoted to support staff.
// Codes are grouped by category:
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate id: A record with this id already exists
//	DB002 - Unique constraint: This value must be unique but already exists
//	DB003 - Foreign key: Referenced record does not exist
//	DB004 - Connection refused: Unable to connect to database
//	DB005 - Connection reset: Database connection was interrupted
//	DB006 - Timeout: Operation timed out
//	DB007 - Deadlock / locked: Database was busy with conflicting operations
//	DB008 - Other constraint: A check or not-null constraint rejected a value
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Invalid date (use YYYY-MM-DD)
//	VAL002 - Invalid number
//	VAL003 - Required field is empty
//	VAL004 - Required column missing from the CSV header
//	VAL005 - Value out of range (negative price, zero quantity)
//	VAL006 - Value too long
//	VAL007 - Other invalid value
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Not a CSV file (name must end in .csv)
//	FILE003 - Encoding error (file is not UTF-8)
//	FILE004 - Malformed CSV (unbalanced quotes and similar)
//	FILE005 - No file in the multipart form field "file"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Too many concurrent imports
//	IMP002 - Request cancelled
//	IMP003 - Request timed out
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Unknown table
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches. Check the application logs
// (search by request_id) for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains; the first
// match wins, so specific patterns come before general ones.

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

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Constraint Errors (DB001-DB003, DB008)
	// =========================================================================
	{
		pattern: "_pkey",
		msg: UserMessage{
			Message: "A record with this id already exists",
			Action:  "Remove the id column to let the database assign ids",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your CSV and in existing data",
			Code:    "DB002",
		},
	},
	{
		pattern: "referenced record does not exist",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Import categories before products and products before sales",
			Code:    "DB003",
		},
	},
	{
		pattern: "foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Import categories before products and products before sales",
			Code:    "DB003",
		},
	},
	{
		pattern: "check constraint",
		msg: UserMessage{
			Message: "A value was rejected by the database",
			Action:  "Check prices and quantities for invalid values",
			Code:    "DB008",
		},
	},
	{
		pattern: "missing value for required column",
		msg: UserMessage{
			Message: "A required value is missing",
			Action:  "Ensure all required columns have values",
			Code:    "DB008",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB007)
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
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Validation Errors (VAL001-VAL007)
	// =========================================================================
	{
		pattern: "invalid date",
		msg: UserMessage{
			Message: "Invalid date format detected",
			Action:  "Use YYYY-MM-DD, for example 2024-01-15",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use plain decimal numbers such as 19.99",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid integer",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use whole numbers for ids and quantities",
			Code:    "VAL002",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required columns have values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required columns have values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from CSV",
			Action:  "Check that all required columns are present in your file",
			Code:    "VAL004",
		},
	},
	{
		pattern: "must be greater",
		msg: UserMessage{
			Message: "Value is out of range",
			Action:  "Prices must not be negative and quantities must be positive",
			Code:    "VAL005",
		},
	},
	{
		pattern: "must be at most",
		msg: UserMessage{
			Message: "Value is too long",
			Action:  "Shorten the value to 255 characters or fewer",
			Code:    "VAL006",
		},
	},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
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
			Message: "File must be a CSV",
			Action:  "Upload a file with a .csv extension",
			Code:    "FILE002",
		},
	},
	{
		pattern: "utf-8",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "parse error",
		msg: UserMessage{
			Message: "File is not a well-formed CSV",
			Action:  "Check for unbalanced quotes",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was provided",
			Action:  "Send the CSV in the multipart form field \"file\"",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Import Errors (IMP001-IMP003)
	// =========================================================================
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try importing a smaller file or try again later",
			Code:    "IMP003",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try importing a smaller file or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// Table Errors (TBL001)
	// =========================================================================
	{
		pattern: "unknown table",
		msg: UserMessage{
			Message: "Unknown table",
			Action:  "Use categories, products or sales",
			Code:    "TBL001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
//
// Import failures already carry a client-facing detail and a code, so they
// are returned as-is with the action for that code. Everything else is
// matched against errorPatterns, falling back to ERR000.
//
//	msg := MapError(errors.New("dial tcp: connection refused"))
//	// msg.Code == "DB004"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ie *ImportError
	if errors.As(err, &ie) {
		return UserMessage{
			Message: ie.Detail,
			Action:  actionFor(ie.Code),
			Code:    ie.Code,
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

// actionFor returns the suggested action registered for a code.
func actionFor(code string) string {
	for _, ep := range errorPatterns {
		if ep.msg.Code == code {
			return ep.msg.Action
		}
	}
	return defaultMessage.Action
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
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
