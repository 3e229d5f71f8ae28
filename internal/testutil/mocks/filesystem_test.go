package mocks

import (
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSystem_Files(t *testing.T) {
	t.Parallel()

	fs := NewFileSystem()
	fs.AddFile("/evidence/scale.png", []byte("png"))

	assert.True(t, fs.Exists("/evidence/scale.png"))

	info, err := fs.Stat("/evidence/scale.png")
	require.NoError(t, err)
	assert.Equal(t, "scale.png", info.Name)
	assert.Equal(t, int64(3), info.Size)

	rc, err := fs.Open("/evidence/scale.png")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
	assert.Equal(t, 1, fs.OpenCount("/evidence/scale.png"))

	copied, err := fs.ReadFile("/evidence/scale.png")
	require.NoError(t, err)
	copied[0] = 'x'
	again, _ := fs.ReadFile("/evidence/scale.png")
	assert.Equal(t, "png", string(again))
}

func TestFileSystem_Missing(t *testing.T) {
	t.Parallel()

	fs := NewFileSystem()

	_, err := fs.Stat("/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = fs.Open("/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = fs.ReadFile("/missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileSystem_Dirs(t *testing.T) {
	t.Parallel()

	fs := NewFileSystem()
	fs.AddDir("/evidence")

	info, err := fs.Stat("/evidence")
	require.NoError(t, err)
	assert.True(t, info.IsDir)
	assert.True(t, fs.Exists("/evidence"))
}
