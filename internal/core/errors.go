package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/smartmart/internal/store"
)

// ErrorKind classifies why an import failed.
type ErrorKind string

const (
	KindInvalidInput ErrorKind = "invalid_input_kind"
	KindDecode       ErrorKind = "decode_error"
	KindValidation   ErrorKind = "validation_error"
	KindConstraint   ErrorKind = "constraint_violation"
	KindProcessing   ErrorKind = "processing_error"
)

// Sentinels matched by *ImportError through errors.Is.
var (
	ErrInvalidInputKind    = errors.New("invalid input kind")
	ErrDecode              = errors.New("decode error")
	ErrValidation          = errors.New("validation error")
	ErrConstraintViolation = errors.New("constraint violation")
	ErrProcessing          = errors.New("processing error")
)

// ErrUnknownTable is returned for a table key that is not registered.
var ErrUnknownTable = errors.New("unknown table")

var kindSentinels = map[ErrorKind]error{
	KindInvalidInput: ErrInvalidInputKind,
	KindDecode:       ErrDecode,
	KindValidation:   ErrValidation,
	KindConstraint:   ErrConstraintViolation,
	KindProcessing:   ErrProcessing,
}

// ImportError is the single error type returned by a failed import. Detail
// is phrased for the API client; Err keeps the technical cause for logs.
type ImportError struct {
	Kind   ErrorKind
	Code   string // support code, see error_messages.go
	Line   int    // CSV line number, 0 when not tied to a row
	Field  string
	Detail string
	Err    error
}

func (e *ImportError) Error() string {
	return e.Detail
}

func (e *ImportError) Unwrap() error {
	return e.Err
}

func (e *ImportError) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// KindOf returns the kind of an import failure, or "" for other errors.
func KindOf(err error) ErrorKind {
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return ""
}

func invalidInputKind(fileName string) *ImportError {
	return &ImportError{
		Kind:   KindInvalidInput,
		Code:   "FILE002",
		Detail: "File must be a CSV",
		Err:    fmt.Errorf("invalid csv file name %q", fileName),
	}
}

func decodeFailure(err *DecodeError) *ImportError {
	return &ImportError{
		Kind:   KindDecode,
		Code:   "FILE003",
		Detail: fmt.Sprintf("File must be UTF-8 encoded: %s", err.Message()),
		Err:    err,
	}
}

func missingColumns(err *MissingColumnsError) *ImportError {
	return &ImportError{
		Kind:   KindValidation,
		Code:   "VAL004",
		Field:  strings.Join(err.Columns, ", "),
		Detail: "Missing required column in CSV: " + strings.Join(err.Columns, ", "),
		Err:    err,
	}
}

// rowFailure reports a row that could not be coerced or validated.
func rowFailure(line int, err error) *ImportError {
	var ve *ValidationError
	if !errors.As(err, &ve) {
		return processingFailure(fmt.Errorf("line %d: %w", line, err))
	}

	detail := fmt.Sprintf("Invalid data format at line %d", line)
	if ve.Field != "" {
		detail += fmt.Sprintf(", field %q", ve.Field)
	}
	detail += ": " + ve.Message
	if ve.Value != "" {
		detail += fmt.Sprintf(" (got %q)", ve.Value)
	}

	code := MapError(ve).Code
	if !strings.HasPrefix(code, "VAL") {
		code = "VAL007"
	}

	return &ImportError{
		Kind:   KindValidation,
		Code:   code,
		Line:   line,
		Field:  ve.Field,
		Detail: detail,
		Err:    err,
	}
}

func constraintFailure(err error) *ImportError {
	code := MapError(err).Code
	if !strings.HasPrefix(code, "DB") {
		code = "DB008"
	}
	if duplicateID(err) {
		code = "DB001"
	}
	return &ImportError{
		Kind:   KindConstraint,
		Code:   code,
		Detail: "Constraint violation: " + constraintMessage(err),
		Err:    err,
	}
}

func processingFailure(err error) *ImportError {
	code := MapError(err).Code
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		code = "FILE004"
	}
	return &ImportError{
		Kind:   KindProcessing,
		Code:   code,
		Detail: "Error processing CSV: " + err.Error(),
		Err:    err,
	}
}

// duplicateID reports a unique violation on the primary key. PostgreSQL
// names the constraint "<table>_pkey"; SQLite reports "<table>.id".
func duplicateID(err error) bool {
	var ce *store.ConstraintError
	if !errors.As(err, &ce) || ce.Kind != store.ConstraintUnique {
		return false
	}
	return strings.HasSuffix(ce.Constraint, "_pkey") ||
		strings.HasSuffix(ce.Detail, ".id") ||
		strings.Contains(ce.Detail, "(id)=")
}

// constraintMessage prefers the store's description of the violated
// constraint over the wrapped driver text.
func constraintMessage(err error) string {
	var ce *store.ConstraintError
	if errors.As(err, &ce) {
		return ce.Error()
	}
	return err.Error()
}
