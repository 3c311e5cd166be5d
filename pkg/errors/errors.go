// Package errors provides structured error types for the skeltree application.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across CLI and HTTP service
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Fatal conditions (malformed inputs, missing soma annotation) carry codes so
// callers can distinguish them. Degraded-topology conditions (dropped cycle
// edges, unreachable components, a soma detached from the skeleton) are NOT
// errors: they are diagnostics collected on the conversion result while the
// run proceeds best-effort.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingSoma, "annotation file lacks soma.centre")
//	if errors.Is(err, errors.ErrCodeMissingSoma) {
//	    // Handle missing soma
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeMalformedGraph, origErr, "parse %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input parsing errors - fatal, no output is written
	ErrCodeMalformedGraph       Code = "MALFORMED_GRAPH"
	ErrCodeMalformedAnnotations Code = "MALFORMED_ANNOTATIONS"
	ErrCodeMalformedXSection    Code = "MALFORMED_XSECTION"
	ErrCodeMissingSoma          Code = "MISSING_SOMA"

	// Option validation errors
	ErrCodeInvalidThreshold Code = "INVALID_THRESHOLD"
	ErrCodeInvalidScale     Code = "INVALID_SCALE"
	ErrCodeInvalidVerbosity Code = "INVALID_VERBOSITY"
	ErrCodeInvalidFormat    Code = "INVALID_FORMAT"

	// Filesystem errors
	ErrCodeFileNotFound   Code = "FILE_NOT_FOUND"
	ErrCodeExistingOutput Code = "EXISTING_OUTPUT"

	// Resource errors (HTTP service)
	ErrCodeNotFound Code = "NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
