// Package errors provides structured error types for autoinstall.
//
// Every failure that the reconciliation engine can recover from carries a
// [Code] so that callers can decide, without string matching, whether a unit
// of work should be skipped (a file that does not parse, a command that exits
// non-zero) or whether the whole operation has to stop.
//
// # Error Codes
//
//   - MANIFEST_*: package.json could not be read or decoded
//   - PARSE_ERROR: a source file has a syntax error
//   - COMMAND_ERROR: an install/remove process failed to spawn or exited non-zero
//   - EMPTY_PATH: a change event arrived without a file path
//   - INVALID_*: input validation failures
//   - INTERNAL_ERROR: unexpected internal errors
//
// # Usage
//
//	err := errors.New(errors.ErrCodeEmptyPath, "edit event without path")
//	if errors.Is(err, errors.ErrCodeEmptyPath) {
//	    // drop the event
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeManifestParse, origErr, "decode %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Manifest errors
	ErrCodeManifestRead  Code = "MANIFEST_READ_ERROR"
	ErrCodeManifestParse Code = "MANIFEST_PARSE_ERROR"

	// Source errors
	ErrCodeParse     Code = "PARSE_ERROR"
	ErrCodeEmptyPath Code = "EMPTY_PATH"

	// Process errors
	ErrCodeCommand Code = "COMMAND_ERROR"

	// Input validation errors
	ErrCodeInvalidInput   Code = "INVALID_INPUT"
	ErrCodeInvalidConfig  Code = "INVALID_CONFIG"
	ErrCodeInvalidPackage Code = "INVALID_PACKAGE"
	ErrCodeInvalidPath    Code = "INVALID_PATH"

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

// Recoverable reports whether err describes a failure confined to one unit of
// work (one file, one command, one event). Scans log these and continue.
func Recoverable(err error) bool {
	switch GetCode(err) {
	case ErrCodeManifestRead, ErrCodeManifestParse, ErrCodeParse, ErrCodeCommand, ErrCodeEmptyPath:
		return true
	}
	return false
}
