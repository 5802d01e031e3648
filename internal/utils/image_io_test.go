package utils

import (
	"bytes"
	"image/gif"
	"testing"

	"github.com/MeKo-Tech/imgmerge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsSupportedImage(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"a.png", true},
		{"a.PNG", true},
		{"dir/b.jpg", true},
		{"b.jpeg", true},
		{"c.bmp", true},
		{"d.webp", true},
		{"e.gif", false},
		{"f.tiff", false},
		{"noext", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSupportedImage(tt.path))
		})
	}
}

func TestLoadImage_SupportedFormats(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.png", "b.jpg", "c.bmp"} {
		t.Run(name, func(t *testing.T) {
			path := testutil.WriteSolidImage(t, dir, name, 30, 20, testutil.Green)

			img, meta, err := LoadImage(path)
			require.NoError(t, err)
			assert.Equal(t, 30, img.Bounds().Dx())
			assert.Equal(t, 20, img.Bounds().Dy())
			assert.Equal(t, path, meta.Path)
			assert.Positive(t, meta.SizeBytes)
			assert.Equal(t, 30, meta.Width)
			assert.Equal(t, 20, meta.Height)
		})
	}
}

func TestLoadImage_Errors(t *testing.T) {
	dir := t.TempDir()
	corrupt := testutil.WriteCorruptImage(t, dir, "bad.png")

	tests := []struct {
		name string
		path string
		op   string
	}{
		{name: "empty path", path: "", op: "load"},
		{name: "unsupported extension", path: "x.gif", op: "load"},
		{name: "missing file", path: dir + "/missing.png", op: "load"},
		{name: "corrupt content", path: corrupt, op: "decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := LoadImage(tt.path)
			require.Error(t, err)
			var ipe *ImageProcessingError
			require.ErrorAs(t, err, &ipe)
			assert.Equal(t, tt.op, ipe.Operation)
		})
	}
}

func TestDecodeImage_RejectsUnsupportedContent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, gif.Encode(&buf, testutil.CreateTestImage(4, 4, testutil.Red), nil))

	_, _, err := DecodeImage(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported content")
}

func TestReadImageMetadata(t *testing.T) {
	path := testutil.WriteSolidImage(t, t.TempDir(), "m.png", 64, 32, testutil.Blue)

	meta, err := ReadImageMetadata(path)
	require.NoError(t, err)
	assert.Equal(t, "png", meta.Format)
	assert.Equal(t, 64, meta.Width)
	assert.Equal(t, 32, meta.Height)
}
