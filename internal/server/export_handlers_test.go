package server

import (
	"bytes"
	"encoding/json"
	"image"
	"image/gif"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/MeKo-Tech/imgmerge/internal/pdf"
	"github.com/MeKo-Tech/imgmerge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoSquares(t *testing.T) []formFile {
	t.Helper()
	return []formFile{
		{field: "images", filename: "red.png", data: encodePNG(t, 100, 100, testutil.Red)},
		{field: "images", filename: "blue.png", data: encodePNG(t, 100, 100, testutil.Blue)},
	}
}

func TestServer_ExportHandler_Stacked(t *testing.T) {
	server := newTestServer(t)

	req := createMultipartRequest(t, "/export", twoSquares(t), map[string][]string{"format": {"jpg"}})
	w := httptest.NewRecorder()
	server.exportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/jpeg", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "export.jpg")
	assert.Equal(t, "2", w.Header().Get("X-Export-Count"))

	img := decodeBody(t, w.Body.Bytes())
	assert.Equal(t, image.Pt(100, 200), img.Bounds().Size())
	testutil.AssertColorNear(t, testutil.Red, testutil.PixelAt(img, 50, 50), 24)
	testutil.AssertColorNear(t, testutil.Blue, testutil.PixelAt(img, 50, 150), 24)
}

func TestServer_ExportHandler_AnimatedWithRotations(t *testing.T) {
	server := newTestServer(t)

	files := []formFile{
		{field: "images", filename: "wide.png", data: encodePNG(t, 60, 20, testutil.Red)},
		{field: "images", filename: "square.png", data: encodePNG(t, 20, 20, testutil.Green)},
	}
	req := createMultipartRequest(t, "/export", files, map[string][]string{
		"format":    {"gif"},
		"rotations": {"90,0"},
	})
	w := httptest.NewRecorder()
	server.exportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "image/gif", w.Header().Get("Content-Type"))

	g, err := gif.DecodeAll(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	require.Len(t, g.Image, 2)
	assert.Equal(t, 20, g.Config.Width)
	assert.Equal(t, 60, g.Config.Height)
	assert.Equal(t, []int{50, 50}, g.Delay)
}

func TestServer_ExportHandler_Document(t *testing.T) {
	server := newTestServer(t)

	req := createMultipartRequest(t, "/export", twoSquares(t), map[string][]string{"format": {"pdf"}})
	w := httptest.NewRecorder()
	server.exportHandler(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))

	pages, err := pdf.PageCount(bytes.NewReader(w.Body.Bytes()), "")
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestServer_ExportHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		files          []formFile
		fields         map[string][]string
		expectedStatus int
		expectedType   string
		errorContains  string
	}{
		{
			name:           "no images",
			fields:         map[string][]string{"format": {"gif"}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "empty_queue",
		},
		{
			name:           "no images and unknown format",
			fields:         map[string][]string{"format": {"tiff"}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "empty_queue",
		},
		{
			name: "unknown format",
			files: []formFile{
				{field: "images", filename: "a.png", data: []byte("unused")},
			},
			fields:         map[string][]string{"format": {"tiff"}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "unsupported_format",
		},
		{
			name: "corrupt image",
			files: []formFile{
				{field: "images", filename: "good.png", data: nil},
				{field: "images", filename: "broken.png", data: []byte("not an image")},
			},
			fields:         map[string][]string{"format": {"jpg"}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "decode_error",
			errorContains:  "broken.png",
		},
		{
			name: "unsupported extension",
			files: []formFile{
				{field: "images", filename: "notes.txt", data: []byte("hello")},
			},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "decode_error",
			errorContains:  "notes.txt",
		},
		{
			name: "invalid rotation",
			files: []formFile{
				{field: "images", filename: "a.png", data: []byte("unused")},
			},
			fields:         map[string][]string{"rotations": {"45"}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "invalid_request",
		},
		{
			name: "too many rotations",
			files: []formFile{
				{field: "images", filename: "a.png", data: []byte("unused")},
			},
			fields:         map[string][]string{"rotations": {"90", "180"}},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "invalid_request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)

			files := make([]formFile, len(tt.files))
			copy(files, tt.files)
			for i := range files {
				if files[i].data == nil {
					files[i].data = encodePNG(t, 10, 10, testutil.Red)
				}
			}

			req := createMultipartRequest(t, "/export", files, tt.fields)
			w := httptest.NewRecorder()
			server.exportHandler(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.False(t, response.Success)
			assert.Equal(t, tt.expectedType, response.ErrorType)
			assert.NotEmpty(t, response.RequestID)
			if tt.errorContains != "" {
				assert.Contains(t, response.Error, tt.errorContains)
			}
		})
	}
}

func TestServer_ExportHandler_NotMultipart(t *testing.T) {
	server := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/export", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	server.exportHandler(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServer_ExportHandler_UploadTooLarge(t *testing.T) {
	server := newTestServer(t)
	server.maxUploadMB = 1

	files := []formFile{{field: "images", filename: "big.png", data: bytes.Repeat([]byte{0x42}, 2*1024*1024)}}
	req := createMultipartRequest(t, "/export", files, nil)
	w := httptest.NewRecorder()
	server.exportHandler(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}

func TestServer_ExportHandler_MethodNotAllowed(t *testing.T) {
	server := newTestServer(t)

	w := httptest.NewRecorder()
	server.exportHandler(w, httptest.NewRequest(http.MethodGet, "/export", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServer_PreviewHandler(t *testing.T) {
	tests := []struct {
		name     string
		fields   map[string][]string
		wantSize image.Point
	}{
		{"default box", nil, image.Pt(400, 200)},
		{"rotated", map[string][]string{"rotation": {"90"}}, image.Pt(200, 400)},
		{"custom box", map[string][]string{"max_width": {"100"}, "max_height": {"100"}}, image.Pt(100, 50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t)

			files := []formFile{{field: "image", filename: "wide.png", data: encodePNG(t, 800, 400, testutil.Green)}}
			req := createMultipartRequest(t, "/preview", files, tt.fields)
			w := httptest.NewRecorder()
			server.previewHandler(w, req)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantSize, decodeBody(t, w.Body.Bytes()).Bounds().Size())
		})
	}
}

func TestServer_PreviewHandler_Errors(t *testing.T) {
	server := newTestServer(t)

	t.Run("missing image", func(t *testing.T) {
		req := createMultipartRequest(t, "/preview", nil, map[string][]string{"rotation": {"90"}})
		w := httptest.NewRecorder()
		server.previewHandler(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("bad size", func(t *testing.T) {
		files := []formFile{{field: "image", filename: "a.png", data: encodePNG(t, 10, 10, testutil.Red)}}
		req := createMultipartRequest(t, "/preview", files, map[string][]string{"max_width": {"-5"}})
		w := httptest.NewRecorder()
		server.previewHandler(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("corrupt image", func(t *testing.T) {
		files := []formFile{{field: "image", filename: "bad.jpg", data: []byte("nope")}}
		req := createMultipartRequest(t, "/preview", files, nil)
		w := httptest.NewRecorder()
		server.previewHandler(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var response ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "decode_error", response.ErrorType)
		assert.Contains(t, response.Error, "bad.jpg")
	})
}

func TestParseRotations(t *testing.T) {
	tests := []struct {
		name    string
		values  []string
		count   int
		want    []int
		wantErr bool
	}{
		{"none", nil, 3, []int{0, 0, 0}, false},
		{"comma list", []string{"90, 180,270"}, 3, []int{90, 180, 270}, false},
		{"repeated", []string{"90", "-90"}, 2, []int{90, 270}, false},
		{"short list padded", []string{"180"}, 3, []int{180, 0, 0}, false},
		{"normalized", []string{"450"}, 1, []int{90}, false},
		{"not a number", []string{"left"}, 1, nil, true},
		{"not a quarter turn", []string{"30"}, 1, nil, true},
		{"too many", []string{"0,0,0"}, 2, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseRotations(tt.values, tt.count)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
