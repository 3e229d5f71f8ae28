// Package mocks provides in-memory test doubles for the ports interfaces.
package mocks

import (
	"bytes"
	"io"
	"os"
	"path"
	"sync"
	"time"

	"github.com/felixgeelhaar/stepcheck/internal/ports"
)

// FileSystem is a thread-safe in-memory ports.FileSystem.
type FileSystem struct {
	mu    sync.RWMutex
	files map[string][]byte
	dirs  map[string]bool
	opens map[string]int
}

// NewFileSystem creates an empty FileSystem.
func NewFileSystem() *FileSystem {
	return &FileSystem{
		files: make(map[string][]byte),
		dirs:  make(map[string]bool),
		opens: make(map[string]int),
	}
}

// AddFile stores content at path.
func (fs *FileSystem) AddFile(p string, content []byte) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.files[p] = content
}

// AddDir records a directory.
func (fs *FileSystem) AddDir(p string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.dirs[p] = true
}

// OpenCount returns how many times path was opened for streaming.
func (fs *FileSystem) OpenCount(p string) int {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	return fs.opens[p]
}

// ReadFile returns a copy of the stored content.
func (fs *FileSystem) ReadFile(p string) ([]byte, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	data, ok := fs.files[p]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
	}
	return append([]byte(nil), data...), nil
}

// Open returns a reader over the stored content.
func (fs *FileSystem) Open(p string) (io.ReadCloser, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	data, ok := fs.files[p]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: p, Err: os.ErrNotExist}
	}
	fs.opens[p]++
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stat describes a stored file or directory.
func (fs *FileSystem) Stat(p string) (ports.FileInfo, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if data, ok := fs.files[p]; ok {
		return ports.FileInfo{
			Name:    path.Base(p),
			Size:    int64(len(data)),
			Mode:    0o644,
			ModTime: time.Time{},
		}, nil
	}
	if fs.dirs[p] {
		return ports.FileInfo{Name: path.Base(p), Mode: os.ModeDir | 0o755, IsDir: true}, nil
	}
	return ports.FileInfo{}, &os.PathError{Op: "stat", Path: p, Err: os.ErrNotExist}
}

// Exists reports whether a file or directory is stored at path.
func (fs *FileSystem) Exists(p string) bool {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	_, ok := fs.files[p]
	return ok || fs.dirs[p]
}

var _ ports.FileSystem = (*FileSystem)(nil)
