// Package testutil provides test helpers for stepcheck tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Minimal headers that http.DetectContentType recognises.
const (
	PNGHeader  = "\x89PNG\r\n\x1a\n"
	JPEGHeader = "\xff\xd8\xff\xe0"
)

// WriteTempFile writes content to a file in the specified directory.
func WriteTempFile(t *testing.T, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err, "failed to write temp file: %s", filename)

	return path
}

// WritePNG writes a small file with a PNG header.
func WritePNG(t *testing.T, dir, filename string) string {
	t.Helper()
	return WriteTempFile(t, dir, filename, PNGHeader+"fake")
}

// WriteJPEG writes a small file with a JPEG header.
func WriteJPEG(t *testing.T, dir, filename string) string {
	t.Helper()
	return WriteTempFile(t, dir, filename, JPEGHeader+"fake")
}

// WriteSized writes a file of exactly size bytes, PNG header first.
func WriteSized(t *testing.T, dir, filename string, size int) string {
	t.Helper()

	data := make([]byte, size)
	copy(data, PNGHeader)
	path := filepath.Join(dir, filename)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

// ChangeDir changes to a directory for the duration of the test.
func ChangeDir(t *testing.T, dir string) {
	t.Helper()

	original, err := os.Getwd()
	require.NoError(t, err)

	err = os.Chdir(dir)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = os.Chdir(original)
	})
}

// SetEnv sets an environment variable for the duration of the test.
func SetEnv(t *testing.T, key, value string) {
	t.Helper()
	t.Setenv(key, value)
}
