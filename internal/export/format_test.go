package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		tag  string
		want Format
	}{
		{"jpg", StackedImage},
		{"JPEG", StackedImage},
		{" stacked ", StackedImage},
		{"gif", AnimatedSequence},
		{"animated", AnimatedSequence},
		{"pdf", MultiPageDocument},
		{"document", MultiPageDocument},
	}

	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseFormat(tt.tag)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("tiff")
	var ferr *UnsupportedFormatError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, "tiff", ferr.Tag)
	assert.Equal(t, "unsupported_format", ErrorType(err))
}

func TestFormatForPath(t *testing.T) {
	f, err := FormatForPath("/tmp/Out.JPEG")
	require.NoError(t, err)
	assert.Equal(t, StackedImage, f)

	f, err = FormatForPath("merged.gif")
	require.NoError(t, err)
	assert.Equal(t, AnimatedSequence, f)

	f, err = FormatForPath("scan.pdf")
	require.NoError(t, err)
	assert.Equal(t, MultiPageDocument, f)

	_, err = FormatForPath("out.png")
	assert.Error(t, err)
}

func TestFormatAttributes(t *testing.T) {
	assert.Equal(t, "gif", AnimatedSequence.String())
	assert.Equal(t, ".pdf", MultiPageDocument.Extension())
	assert.Equal(t, "image/jpeg", StackedImage.ContentType())
	assert.Equal(t, "Animated Sequence", AnimatedSequence.Label())
	assert.False(t, Format(7).Valid())
	assert.Equal(t, "unknown", Format(7).String())
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "", ErrorType(nil))
	assert.Equal(t, "empty_queue", ErrorType(&EmptyQueueError{}))
	assert.Equal(t, "decode_error", ErrorType(&DecodeError{Path: "x"}))
	assert.Equal(t, "write_error", ErrorType(&WriteError{Path: "x"}))
	assert.Equal(t, "internal_error", ErrorType(assert.AnError))
}
