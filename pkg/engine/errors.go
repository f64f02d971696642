package engine

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling. Every engine error is fatal to the
// run: there is no retry and nothing is persisted after a failure.
const (
	ErrCodeCyclicDependency     = "CYCLIC_DEPENDENCY"
	ErrCodeUnknownReference     = "UNKNOWN_REFERENCE"
	ErrCodeUndefinedReference   = "UNDEFINED_REFERENCE"
	ErrCodeTypeCoercion         = "TYPE_COERCION"
	ErrCodeCommandFailed        = "COMMAND_FAILED"
	ErrCodeUnsupportedOperation = "UNSUPPORTED_OPERATION"
	ErrCodeStorageIO            = "STORAGE_IO"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// Error is a classified engine error with the context needed to name the
// offending variable and operation in user-facing output.
type Error struct {
	// Code is the error classification.
	Code string `json:"code"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Variable is the variable being resolved when the error occurred.
	Variable string `json:"variable,omitempty"`

	// Operation is the rule kind or operation in flight, if applicable.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Variable != "" {
		msg += fmt.Sprintf(" (variable=%s", e.Variable)
		if e.Operation != "" {
			msg += fmt.Sprintf(", operation=%s", e.Operation)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying error for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on the error code, so callers can test against a bare
// NewError(code, "") sentinel with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewError creates a classified engine error.
func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithVariable adds variable context to the error.
func (e *Error) WithVariable(name string) *Error {
	e.Variable = name
	return e
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Operation = op
	return e
}

// WithErr attaches the underlying cause.
func (e *Error) WithErr(err error) *Error {
	e.Err = err
	return e
}

// CodeOf returns the classification code of err, or empty when err is not an
// engine error.
func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
