package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/felixgeelhaar/stepcheck/internal/ports"
)

// ValidationError describes one invalid configuration value.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every problem found by Config.Validate.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	switch len(e) {
	case 0:
		return ""
	case 1:
		return e[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d validation errors:\n", len(e))
	for i, err := range e {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Validate checks every section and returns all problems found.
func (c *Config) Validate() []ValidationError {
	var errs []ValidationError

	u, err := url.Parse(c.Validation.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, ValidationError{
			Field:   "validation.endpoint",
			Value:   c.Validation.Endpoint,
			Message: "must be an absolute http(s) URL",
		})
	}
	if c.Validation.Timeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "validation.timeout",
			Value:   c.Validation.Timeout,
			Message: "must not be negative (0 disables the timeout)",
		})
	}

	if c.Upload.MaxFileSizeMB <= 0 {
		errs = append(errs, ValidationError{
			Field:   "upload.max_file_size_mb",
			Value:   c.Upload.MaxFileSizeMB,
			Message: "must be greater than zero",
		})
	}
	if len(c.Upload.AllowedMimeTypes) == 0 {
		errs = append(errs, ValidationError{
			Field:   "upload.allowed_mime_types",
			Value:   c.Upload.AllowedMimeTypes,
			Message: "must list at least one MIME type",
		})
	}
	for _, mt := range c.Upload.AllowedMimeTypes {
		if !strings.Contains(mt, "/") {
			errs = append(errs, ValidationError{
				Field:   "upload.allowed_mime_types",
				Value:   mt,
				Message: "must be a type/subtype MIME type",
			})
		}
	}

	if _, err := ports.ParseLevel(c.Logging.Level); err != nil {
		errs = append(errs, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: "must be one of debug, info, warn, error",
		})
	}

	return errs
}
