// Package filesystem provides the OS-backed ports.FileSystem.
package filesystem

import (
	"io"
	"os"

	"github.com/felixgeelhaar/stepcheck/internal/ports"
)

// RealFileSystem implements ports.FileSystem on the local disk.
type RealFileSystem struct{}

// NewRealFileSystem creates a new RealFileSystem.
func NewRealFileSystem() *RealFileSystem {
	return &RealFileSystem{}
}

// ReadFile reads a whole file, expanding a leading ~.
func (fs *RealFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(ports.ExpandPath(path))
}

// Open opens a file for streaming.
func (fs *RealFileSystem) Open(path string) (io.ReadCloser, error) {
	return os.Open(ports.ExpandPath(path))
}

// Stat returns file metadata. Symlinks are followed.
func (fs *RealFileSystem) Stat(path string) (ports.FileInfo, error) {
	info, err := os.Stat(ports.ExpandPath(path))
	if err != nil {
		return ports.FileInfo{}, err
	}
	return ports.FileInfo{
		Name:    info.Name(),
		Size:    info.Size(),
		Mode:    info.Mode(),
		ModTime: info.ModTime(),
		IsDir:   info.IsDir(),
	}, nil
}

// Exists reports whether path exists.
func (fs *RealFileSystem) Exists(path string) bool {
	_, err := os.Stat(ports.ExpandPath(path))
	return err == nil
}

var _ ports.FileSystem = (*RealFileSystem)(nil)
