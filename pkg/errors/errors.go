// Package errors provides structured error types for polytunnel.
//
// Every failure surfaced by the repository client, the POM model and the
// resolver carries a machine-readable [Code], so the CLI and the HTTP server
// can map failures to exit codes and status codes without string matching.
//
// # Error Codes
//
//   - IO_ERROR, NETWORK_ERROR: local and remote transport failures
//   - HTTP_STATUS: the repository answered with a non-2xx status (see [StatusError])
//   - JSON_PARSE, XML_PARSE, INVALID_UTF8: payloads that could not be decoded
//   - INVALID_COORDINATE, INVALID_INPUT, INVALID_CONFIG: rejected input
//   - CIRCULAR_DEPENDENCY, VERSION_CONFLICT: resolution diagnostics
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidCoordinate, "invalid coordinate: %s", s)
//	if errors.Is(err, errors.ErrCodeInvalidCoordinate) {
//	    // Handle validation error
//	}
//
//	err := errors.Wrap(errors.ErrCodeNetwork, origErr, "fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code represents a machine-readable error code.
type Code string

const (
	// I/O and transport
	ErrCodeIO         Code = "IO_ERROR"
	ErrCodeNetwork    Code = "NETWORK_ERROR"
	ErrCodeHTTPStatus Code = "HTTP_STATUS"

	// Decoding
	ErrCodeJSONParse   Code = "JSON_PARSE"
	ErrCodeInvalidUTF8 Code = "INVALID_UTF8"
	ErrCodeXMLParse    Code = "XML_PARSE"

	// Input validation
	ErrCodeInvalidCoordinate Code = "INVALID_COORDINATE"
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeInvalidConfig     Code = "INVALID_CONFIG"

	// Resolution
	ErrCodeCircularDependency Code = "CIRCULAR_DEPENDENCY"
	ErrCodeVersionConflict    Code = "VERSION_CONFLICT"
	ErrCodeNotFound           Code = "NOT_FOUND"

	ErrCodeInternal Code = "INTERNAL_ERROR"
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

// coder is implemented by error types that carry their own code.
type coder interface {
	Code() Code
}

// Is reports whether err has the given error code.
// It walks the chain looking for an *Error or any error with a Code method.
func Is(err error, code Code) bool {
	return GetCode(err) == code && code != ""
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if nothing in the chain carries a code.
func GetCode(err error) Code {
	for err != nil {
		switch e := err.(type) {
		case *Error:
			return e.Code
		case coder:
			return e.Code()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}

// StatusError reports a non-2xx response from a repository.
type StatusError struct {
	Status int
	URL    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.URL)
}

// Code returns the error code for this error type.
func (e *StatusError) Code() Code {
	return ErrCodeHTTPStatus
}

// IsNotFound reports whether err is, or wraps, a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Status == http.StatusNotFound
	}
	return Is(err, ErrCodeNotFound)
}
