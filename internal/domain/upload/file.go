package upload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/felixgeelhaar/stepcheck/internal/config"
	"github.com/felixgeelhaar/stepcheck/internal/ports"
)

// Opener returns a fresh reader over a file's content.
type Opener func() (io.ReadCloser, error)

// File is a candidate or accepted upload: declared metadata plus lazy access
// to the bytes. Content is only read when the file is sent for validation.
type File struct {
	Name     string
	Size     int64
	MimeType string
	open     Opener
}

// NewFile creates a File from declared metadata and an opener.
func NewFile(name string, size int64, mimeType string, open Opener) *File {
	return &File{Name: name, Size: size, MimeType: mimeType, open: open}
}

// FromBytes creates an in-memory File whose size is the length of data.
func FromBytes(name, mimeType string, data []byte) *File {
	return NewFile(name, int64(len(data)), mimeType, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// Open returns a reader over the file content.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, errors.New("file has no content")
	}
	return f.open()
}

// SizeMB returns the size in megabytes as byte-count / 1024 / 1024.
func (f *File) SizeMB() float64 {
	return float64(f.Size) / 1024 / 1024
}

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

// FromPath describes a file on fs. The declared MIME type comes from the
// extension, the way a browser file picker reports it, and falls back to
// content sniffing when the extension is unknown.
func FromPath(fs ports.FileSystem, path string) (*File, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return nil, config.NewUserError(config.ErrCodeUploadNotFound, "cannot read upload").
			WithContext(path).
			WithUnderlying(err)
	}
	if info.IsDir {
		return nil, config.NewUserError(config.ErrCodeUploadNotFound, "upload is a directory").WithContext(path)
	}

	mimeType := typeByExtension(path)
	if mimeType == "" {
		mimeType, err = sniff(fs, path)
		if err != nil {
			return nil, fmt.Errorf("failed to detect type of %s: %w", path, err)
		}
	}

	return NewFile(info.Name, info.Size, mimeType, func() (io.ReadCloser, error) {
		return fs.Open(path)
	}), nil
}

func typeByExtension(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return ""
	}
	t := mime.TypeByExtension(ext)
	if t == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(t)
	if err != nil {
		return t
	}
	return mediaType
}

func sniff(fs ports.FileSystem, path string) (string, error) {
	rc, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer func() { _ = rc.Close() }()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(rc, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	detected := http.DetectContentType(head[:n])
	if mediaType, _, perr := mime.ParseMediaType(detected); perr == nil {
		return mediaType, nil
	}
	return detected, nil
}
