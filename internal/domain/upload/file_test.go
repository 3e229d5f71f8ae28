package upload

import (
	"io"
	"testing"

	"github.com/felixgeelhaar/stepcheck/internal/config"
	"github.com/felixgeelhaar/stepcheck/internal/testutil/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestFromBytes(t *testing.T) {
	t.Parallel()

	f := FromBytes("scale.png", "image/png", []byte("pixels"))
	assert.Equal(t, int64(6), f.Size)

	// Content can be read more than once.
	for range 2 {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		assert.Equal(t, "pixels", string(data))
	}
}

func TestFile_OpenWithoutContent(t *testing.T) {
	t.Parallel()

	_, err := NewFile("x.png", 1, "image/png", nil).Open()
	assert.Error(t, err)
}

func TestFile_SizeMB(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.5, NewFile("a", 3*mb/2, "", nil).SizeMB(), 1e-9)
}

func TestFromPath(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile("/evidence/scale.PNG", pngHeader)
	fs.AddFile("/evidence/thermometer.jpg", []byte("not really a jpeg"))
	fs.AddFile("/evidence/scan", pngHeader)

	t.Run("extension decides the type", func(t *testing.T) {
		t.Parallel()

		f, err := FromPath(fs, "/evidence/scale.PNG")
		require.NoError(t, err)
		assert.Equal(t, "scale.PNG", f.Name)
		assert.Equal(t, int64(len(pngHeader)), f.Size)
		assert.Equal(t, "image/png", f.MimeType)

		f, err = FromPath(fs, "/evidence/thermometer.jpg")
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", f.MimeType)
	})

	t.Run("content is sniffed without an extension", func(t *testing.T) {
		t.Parallel()

		f, err := FromPath(fs, "/evidence/scan")
		require.NoError(t, err)
		assert.Equal(t, "image/png", f.MimeType)
	})
}

func TestFromPath_Lazy(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddFile("/evidence/scale.png", pngHeader)

	f, err := FromPath(fs, "/evidence/scale.png")
	require.NoError(t, err)
	assert.Zero(t, fs.OpenCount("/evidence/scale.png"))

	rc, err := f.Open()
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, 1, fs.OpenCount("/evidence/scale.png"))
}

func TestFromPath_Errors(t *testing.T) {
	t.Parallel()

	fs := mocks.NewFileSystem()
	fs.AddDir("/evidence")

	_, err := FromPath(fs, "/evidence/missing.png")
	assert.ErrorIs(t, err, config.NewUserError(config.ErrCodeUploadNotFound, ""))

	_, err = FromPath(fs, "/evidence")
	assert.ErrorIs(t, err, config.NewUserError(config.ErrCodeUploadNotFound, ""))
}
