package ports

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileInfo contains file metadata.
type FileInfo struct {
	Name    string
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
	IsDir   bool
}

// FileSystem provides the read-only file access needed to pick uploads and
// load catalogs.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
	Open(path string) (io.ReadCloser, error)
	Stat(path string) (FileInfo, error)
	Exists(path string) bool
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}
