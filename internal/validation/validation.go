// Package validation checks untrusted input from flags and MCP tool calls
// before it reaches the filesystem or the verification service.
package validation

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode"
)

// Common validation errors.
var (
	ErrEmptyInput       = errors.New("input cannot be empty")
	ErrInvalidPath      = errors.New("invalid path")
	ErrPathTraversal    = errors.New("path traversal detected")
	ErrInvalidFieldName = errors.New("invalid field name")
	ErrInvalidBinding   = errors.New("invalid field binding")
)

const (
	maxPathLength  = 4096
	maxFieldLength = 128
)

// ValidatePath rejects empty paths, null bytes and parent-directory segments.
func ValidatePath(path string) error {
	if path == "" {
		return ErrEmptyInput
	}

	if len(path) > maxPathLength {
		return fmt.Errorf("%w: path too long", ErrInvalidPath)
	}

	if strings.Contains(path, "\x00") {
		return fmt.Errorf("%w: path contains null byte", ErrInvalidPath)
	}

	if containsPathTraversal(path) {
		return fmt.Errorf("%w: %q contains traversal sequence", ErrPathTraversal, path)
	}

	return nil
}

// ValidatePathWithBase validates path and ensures it resolves inside basePath.
// Relative paths are taken relative to basePath.
func ValidatePathWithBase(path, basePath string) error {
	if err := ValidatePath(path); err != nil {
		return err
	}

	resolved := path
	if !filepath.IsAbs(resolved) {
		resolved = filepath.Join(basePath, resolved)
	}
	cleanPath := filepath.Clean(resolved)
	cleanBase := filepath.Clean(basePath)

	rel, err := filepath.Rel(cleanBase, cleanPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: path %q escapes base directory %q", ErrPathTraversal, path, basePath)
	}

	return nil
}

// ValidateFieldName rejects empty or overlong names and control characters.
func ValidateFieldName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ErrEmptyInput
	}

	if len(trimmed) > maxFieldLength {
		return fmt.Errorf("%w: name too long (max %d characters)", ErrInvalidFieldName, maxFieldLength)
	}

	for _, r := range trimmed {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: %q contains control characters", ErrInvalidFieldName, name)
		}
	}

	return nil
}

// ParseBinding splits a "Field name=path" argument. The split happens at the
// first '=', so paths may contain '=' but field names may not.
func ParseBinding(arg string) (field, path string, err error) {
	field, path, ok := strings.Cut(arg, "=")
	if !ok {
		return "", "", fmt.Errorf("%w: %q must look like FIELD=PATH", ErrInvalidBinding, arg)
	}

	field = strings.TrimSpace(field)
	path = strings.TrimSpace(path)

	if err := ValidateFieldName(field); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidBinding, err)
	}
	if err := ValidatePath(path); err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidBinding, err)
	}

	return field, path, nil
}

func containsPathTraversal(path string) bool {
	normalized := strings.ReplaceAll(path, "\\", "/")
	for _, segment := range strings.Split(normalized, "/") {
		if segment == ".." {
			return true
		}
	}
	return false
}
