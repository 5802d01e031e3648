package pdf

import (
	"bytes"
	"image"
	"testing"

	"github.com/MeKo-Tech/imgmerge/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPages() []image.Image {
	return []image.Image{
		testutil.CreateTestImage(200, 100, testutil.Red),
		testutil.CreateTestImage(60, 120, testutil.Green),
		testutil.CreateTestImage(80, 80, testutil.Blue),
	}
}

func TestWriteDocument_OnePagePerImage(t *testing.T) {
	for _, enc := range []PageEncoding{PageJPEG, PagePNG} {
		t.Run(string(enc), func(t *testing.T) {
			opts := DefaultDocumentOptions()
			opts.Encoding = enc

			var buf bytes.Buffer
			require.NoError(t, WriteDocument(&buf, testPages(), opts))
			require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))

			n, err := PageCount(bytes.NewReader(buf.Bytes()), "")
			require.NoError(t, err)
			assert.Equal(t, 3, n)
		})
	}
}

func TestWriteDocument_PagesKeepImageProportions(t *testing.T) {
	pages := testPages()

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, pages, DefaultDocumentOptions()))

	sizes, err := PageSizes(bytes.NewReader(buf.Bytes()), "")
	require.NoError(t, err)
	require.Len(t, sizes, len(pages))

	for i, img := range pages {
		b := img.Bounds()
		want := float64(b.Dx()) / float64(b.Dy())
		got := sizes[i].Width / sizes[i].Height
		assert.InDelta(t, want, got, 0.01, "page %d aspect ratio", i+1)
	}
}

func TestWriteDocument_NoPages(t *testing.T) {
	var buf bytes.Buffer
	require.Error(t, WriteDocument(&buf, nil, DefaultDocumentOptions()))
	assert.Zero(t, buf.Len())
}

func TestWriteDocument_UnknownEncoding(t *testing.T) {
	var buf bytes.Buffer
	err := WriteDocument(&buf, testPages(), DocumentOptions{Encoding: "tiff"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown page encoding")
}

func TestWriteDocument_Encrypted(t *testing.T) {
	opts := DefaultDocumentOptions()
	opts.UserPassword = "secret"

	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, testPages(), opts))

	encrypted, err := IsEncrypted(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.True(t, encrypted)

	n, err := PageCount(bytes.NewReader(buf.Bytes()), "secret")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestIsEncrypted_PlainDocument(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, testPages()[:1], DefaultDocumentOptions()))

	encrypted, err := IsEncrypted(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.False(t, encrypted)
}
