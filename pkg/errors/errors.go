// Package errors provides structured error and warning types for bricklayers.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the CLI and the pipeline
//   - Machine-readable error codes for programmatic handling
//   - User-friendly error messages
//   - Error wrapping with context preservation
//
// # Error Codes
//
// Error codes follow a hierarchical naming convention:
//   - INVALID_*: Input or option validation failures
//   - MALFORMED_*: G-code that cannot be parsed safely
//   - NOT_FOUND / FILE_NOT_FOUND: Missing resources
//   - INTERNAL_*: Unexpected internal errors
//
// Warning codes (LAYER_HEIGHT_MISMATCH, AMBIGUOUS_FEATURE, ...) never abort
// a run. They are carried by [Warning] values and surfaced to the user while
// the transformed file is still written.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidOption, "layer height must be positive: %g", h)
//	if errors.Is(err, errors.ErrCodeInvalidOption) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeFileNotFound, origErr, "read %s", path)
package errors

import (
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidInput  Code = "INVALID_INPUT"
	ErrCodeInvalidOption Code = "INVALID_OPTION"
	ErrCodeInvalidPath   Code = "INVALID_PATH"

	// Parse errors
	ErrCodeMalformedLine Code = "MALFORMED_LINE"

	// Resource errors
	ErrCodeNotFound     Code = "NOT_FOUND"
	ErrCodeFileNotFound Code = "FILE_NOT_FOUND"

	// Internal errors
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Warning codes. These describe recoverable conditions.
const (
	WarnLayerHeightMismatch Code = "LAYER_HEIGHT_MISMATCH"
	WarnAmbiguousFeature    Code = "AMBIGUOUS_FEATURE"
	WarnAmplitudeClamped    Code = "AMPLITUDE_CLAMPED"
	WarnZDrift              Code = "Z_DRIFT"
	WarnNoWalls             Code = "NO_WALLS"
	WarnUnknownDialect      Code = "UNKNOWN_DIALECT"
	WarnAlreadyProcessed    Code = "ALREADY_PROCESSED"
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

// coder is implemented by typed errors that carry a fixed code.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error or a typed error with a
// matching code.
func Is(err error, code Code) bool {
	return GetCode(err) == code
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error carries no code.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c coder
	if errors.As(err, &c) {
		return c.Code()
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

// MalformedLineError reports a motion command whose numeric field cannot be
// parsed. It is always fatal: emitting a partially understood move is unsafe.
type MalformedLineError struct {
	Line  int    // 1-based line number in the input
	Text  string // raw line text
	Field string // offending token, e.g. "X1.2.3"
}

// Error implements the error interface.
func (e *MalformedLineError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("line %d: malformed field %q: %s", e.Line, e.Field, e.Text)
	}
	return fmt.Sprintf("line %d: malformed motion command: %s", e.Line, e.Text)
}

// Code returns the error code for this error type.
func (e *MalformedLineError) Code() Code {
	return ErrCodeMalformedLine
}

// Warning is a recoverable condition found while transforming a file.
// Layer and Line are -1 and 0 respectively when not applicable.
type Warning struct {
	Code    Code   `json:"code" yaml:"code"`
	Layer   int    `json:"layer" yaml:"layer"`
	Line    int    `json:"line,omitempty" yaml:"line,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// NewWarning creates a warning with a formatted message.
func NewWarning(code Code, layer, line int, format string, args ...any) Warning {
	return Warning{
		Code:    code,
		Layer:   layer,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
	}
}

// String formats the warning for log output.
func (w Warning) String() string {
	switch {
	case w.Line > 0:
		return fmt.Sprintf("%s: line %d: %s", w.Code, w.Line, w.Message)
	case w.Layer >= 0:
		return fmt.Sprintf("%s: layer %d: %s", w.Code, w.Layer, w.Message)
	default:
		return fmt.Sprintf("%s: %s", w.Code, w.Message)
	}
}
