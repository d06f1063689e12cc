package errors

import (
	"errors"
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryHooks      Category = "hooks"
	CategoryRender     Category = "render"
	CategoryCommit     Category = "commit"
	CategoryScheduling Category = "scheduling"
	CategoryConfig     Category = "config"
)

// FiberError is a structured error with a stable code, suggestions and documentation.
type FiberError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (hooks, render, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Component names the component or host type involved, if any.
	Component string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *FiberError) Error() string {
	msg := e.Message
	if e.Component != "" {
		msg = fmt.Sprintf("%s (in %s)", msg, e.Component)
	}
	if e.Wrapped != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Wrapped)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, msg)
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *FiberError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *FiberError) WithSuggestion(s string) *FiberError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *FiberError) WithDetail(d string) *FiberError {
	e.Detail = d
	return e
}

// WithComponent records the component or host type involved.
func (e *FiberError) WithComponent(name string) *FiberError {
	e.Component = name
	return e
}

// Wrap wraps another error.
func (e *FiberError) Wrap(err error) *FiberError {
	e.Wrapped = err
	return e
}

// New creates a FiberError from a registered error code.
func New(code string) *FiberError {
	template, ok := registry[code]
	if !ok {
		return &FiberError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &FiberError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new FiberError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *FiberError {
	return &FiberError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a FiberError.
// Errors that already carry a code are returned unchanged.
func FromError(err error, code string) *FiberError {
	if err == nil {
		return nil
	}
	var fe *FiberError
	if errors.As(err, &fe) {
		return fe
	}
	return New(code).Wrap(err)
}

// CodeOf returns the code of the first FiberError in err's chain, or "".
func CodeOf(err error) string {
	var fe *FiberError
	if errors.As(err, &fe) {
		return fe.Code
	}
	return ""
}
