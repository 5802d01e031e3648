package server

import (
	"bytes"
	"image"
	"image/color"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
)

// newTestServer returns a server with default export options.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	srv, err := NewServer(Config{
		CORSOrigin:  "*",
		MaxUploadMB: 5,
		TimeoutSec:  30,
		Export:      export.DefaultOptions(),
	})
	require.NoError(t, err)
	return srv
}

// encodePNG renders a solid image as PNG bytes.
func encodePNG(t *testing.T, width, height int, c color.Color) []byte {
	t.Helper()

	img := imaging.New(width, height, c)
	var buf bytes.Buffer
	require.NoError(t, imaging.Encode(&buf, img, imaging.PNG))
	return buf.Bytes()
}

type formFile struct {
	field    string
	filename string
	data     []byte
}

// createMultipartRequest builds a multipart POST to target with files in order.
func createMultipartRequest(t *testing.T, target string, files []formFile, fields map[string][]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, f := range files {
		part, err := writer.CreateFormFile(f.field, f.filename)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	for key, values := range fields {
		for _, v := range values {
			require.NoError(t, writer.WriteField(key, v))
		}
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, body []byte) image.Image {
	t.Helper()

	img, _, err := image.Decode(bytes.NewReader(body))
	require.NoError(t, err)
	return img
}
