package errors

import "fmt"

// Category represents the type of error.
type Category string

const (
	CategoryRuntime  Category = "runtime"
	CategoryProtocol Category = "protocol"
	CategorySession  Category = "session"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// RelightError is a structured error with a code, category, and fix
// suggestions, rendered by the CLI.
type RelightError struct {
	// Code is a unique error identifier (e.g. "E001").
	Code string

	// Category is the error type (runtime, protocol, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *RelightError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return e.Message
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *RelightError) Unwrap() error {
	return e.Wrapped
}

// WithSuggestion adds a fix suggestion to the error.
func (e *RelightError) WithSuggestion(s string) *RelightError {
	e.Suggestion = s
	return e
}

// WithDetail replaces the detailed explanation of the error.
func (e *RelightError) WithDetail(d string) *RelightError {
	e.Detail = d
	return e
}

// Wrap wraps another error.
func (e *RelightError) Wrap(err error) *RelightError {
	e.Wrapped = err
	return e
}

// New creates a RelightError from a registered error code.
func New(code string) *RelightError {
	template, ok := registry[code]
	if !ok {
		return &RelightError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &RelightError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		Detail:   template.Detail,
		DocURL:   template.DocURL,
	}
}

// Newf creates a RelightError with a formatted message and no code.
func Newf(category Category, format string, args ...any) *RelightError {
	return &RelightError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}
