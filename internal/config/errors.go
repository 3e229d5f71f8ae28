package config

import (
	"fmt"
	"strings"
)

// Error codes for categorization.
const (
	ErrCodeConfigNotFound  = "CONFIG_NOT_FOUND"
	ErrCodeConfigParse     = "CONFIG_PARSE"
	ErrCodeConfigInvalid   = "CONFIG_INVALID"
	ErrCodeCatalogNotFound = "CATALOG_NOT_FOUND"
	ErrCodeCatalogParse    = "CATALOG_PARSE"
	ErrCodeCatalogFormat   = "CATALOG_FORMAT"
	ErrCodeCatalogInvalid  = "CATALOG_INVALID"
	ErrCodeUploadNotFound  = "UPLOAD_NOT_FOUND"
	ErrCodeInvalidInput    = "INVALID_INPUT"
)

// UserError is an error meant to be shown to the operator, with an optional
// location and an actionable suggestion.
type UserError struct {
	Code       string
	Message    string
	Context    string
	Suggestion string
	Underlying error
}

// NewUserError creates a UserError with the given code and message.
func NewUserError(code, message string) *UserError {
	return &UserError{Code: code, Message: message}
}

// Error returns the message, with the context appended when present.
func (e *UserError) Error() string {
	if e.Context == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (at %s)", e.Message, e.Context)
}

// Unwrap returns the underlying error.
func (e *UserError) Unwrap() error {
	return e.Underlying
}

// Is matches another *UserError with the same code.
func (e *UserError) Is(target error) bool {
	t, ok := target.(*UserError)
	return ok && e.Code == t.Code
}

// Format renders the code, message, location and suggestion on separate lines.
func (e *UserError) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Context != "" {
		fmt.Fprintf(&b, "\n  Location: %s", e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&b, "\n  Suggestion: %s", e.Suggestion)
	}
	return b.String()
}

// WithContext returns a copy with the location set.
func (e *UserError) WithContext(ctx string) *UserError {
	c := *e
	c.Context = ctx
	return &c
}

// WithSuggestion returns a copy with the suggestion set.
func (e *UserError) WithSuggestion(suggestion string) *UserError {
	c := *e
	c.Suggestion = suggestion
	return &c
}

// WithUnderlying returns a copy wrapping err.
func (e *UserError) WithUnderlying(err error) *UserError {
	c := *e
	c.Underlying = err
	return &c
}
