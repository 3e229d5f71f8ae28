package testutil

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteImages(t *testing.T) {
	dir := t.TempDir()

	png, err := os.ReadFile(WritePNG(t, dir, "a.png"))
	require.NoError(t, err)
	assert.Equal(t, "image/png", http.DetectContentType(png))

	jpeg, err := os.ReadFile(WriteJPEG(t, dir, "a.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", http.DetectContentType(jpeg))

	info, err := os.Stat(WriteSized(t, dir, "big.png", 2048))
	require.NoError(t, err)
	assert.Equal(t, int64(2048), info.Size())
}

func TestVerifier(t *testing.T) {
	v := NewVerifier(t, Invalid())
	v.ReplyFor("Final weight", Valid("12.5", "g"))

	post := func(variable string) *http.Response {
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("step_number", "4"))
		require.NoError(t, mw.WriteField("variable", variable))
		fw, err := mw.CreateFormFile("file", "scale.png")
		require.NoError(t, err)
		_, _ = fw.Write([]byte(PNGHeader))
		require.NoError(t, mw.Close())

		resp, err := http.Post(v.URL, mw.FormDataContentType(), &body)
		require.NoError(t, err)
		t.Cleanup(func() { _ = resp.Body.Close() })
		return resp
	}

	assert.Equal(t, http.StatusOK, post("Final weight").StatusCode)
	assert.Equal(t, http.StatusOK, post("Drying time").StatusCode)

	reqs := v.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "4", reqs[0].StepNumber)
	assert.Equal(t, "Final weight", reqs[0].Variable)
	assert.Equal(t, "scale.png", reqs[0].FileName)
	assert.Equal(t, len(PNGHeader), reqs[0].FileSize)
}

func TestServerError(t *testing.T) {
	r := ServerError("corrupt image")

	assert.Equal(t, http.StatusInternalServerError, r.Status)
	assert.JSONEq(t, `{"error": "corrupt image"}`, r.Body)
}
