package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryState     Category = "state"
	CategoryBinding   Category = "binding"
	CategoryComponent Category = "component"
	CategoryAsync     Category = "async"
	CategoryConfig    Category = "config"
	CategoryCLI       Category = "cli"
)

// RxError is a structured error with a code, the state path or component it
// concerns, and a hint on how to fix it.
type RxError struct {
	// Code is a unique error identifier (e.g., "E100").
	Code string

	// Category is the error type.
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Path is the state path involved, if any.
	Path string

	// Component is the component name involved, if any.
	Component string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RxError) Error() string {
	msg := e.Message
	if e.Path != "" {
		msg += " (path " + e.Path + ")"
	}
	if e.Component != "" {
		msg += " (component " + e.Component + ")"
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	if e.Code != "" {
		return e.Code + ": " + msg
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RxError) Unwrap() error {
	return e.Wrapped
}

// WithPath records the state path the error concerns.
func (e *RxError) WithPath(path string) *RxError {
	e.Path = path
	return e
}

// WithComponent records the component the error concerns.
func (e *RxError) WithComponent(name string) *RxError {
	e.Component = name
	return e
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RxError) WithSuggestion(s string) *RxError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *RxError) WithDetail(d string) *RxError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *RxError) Wrap(err error) *RxError {
	e.Wrapped = err
	return e
}

// New creates an RxError from a registered error code.
func New(code string) *RxError {
	template, ok := registry[code]
	if !ok {
		return &RxError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RxError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
	}
}

// Newf creates a new RxError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *RxError {
	return &RxError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in an RxError.
// Errors that already are (or wrap) an RxError are returned unchanged.
func FromError(err error, code string) *RxError {
	if err == nil {
		return nil
	}
	var re *RxError
	if errors.As(err, &re) {
		return re
	}
	return New(code).Wrap(err)
}

// FromPanic converts a recovered panic value into an RxError.
func FromPanic(r any, code string) *RxError {
	if err, ok := r.(error); ok {
		return FromError(err, code)
	}
	return New(code).Wrap(fmt.Errorf("panic: %v", r))
}

// CodeOf returns the code of err if it is or wraps an RxError.
func CodeOf(err error) string {
	var re *RxError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}
