// Package export turns a snapshot of the image queue into one combined file:
// a vertically stacked image, an animated sequence or a multi-page document.
package export

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Format selects the kind of artifact produced by an export.
type Format int

const (
	// StackedImage concatenates all images top to bottom into one JPEG.
	StackedImage Format = iota + 1
	// AnimatedSequence plays the images as frames of a looping GIF.
	AnimatedSequence
	// MultiPageDocument puts each image on its own PDF page.
	MultiPageDocument
)

type formatInfo struct {
	tag         string
	ext         string
	contentType string
	name        string
}

var formats = map[Format]formatInfo{
	StackedImage:      {tag: "jpg", ext: ".jpg", contentType: "image/jpeg", name: "stacked image"},
	AnimatedSequence:  {tag: "gif", ext: ".gif", contentType: "image/gif", name: "animated sequence"},
	MultiPageDocument: {tag: "pdf", ext: ".pdf", contentType: "application/pdf", name: "multi-page document"},
}

var formatAliases = map[string]Format{
	"jpg":      StackedImage,
	"jpeg":     StackedImage,
	"stacked":  StackedImage,
	"gif":      AnimatedSequence,
	"animated": AnimatedSequence,
	"pdf":      MultiPageDocument,
	"document": MultiPageDocument,
}

var titleCaser = cases.Title(language.English)

// AllFormats returns every supported format in a stable order.
func AllFormats() []Format {
	return []Format{StackedImage, AnimatedSequence, MultiPageDocument}
}

// ParseFormat resolves a format tag such as "jpg", "gif" or "pdf".
func ParseFormat(tag string) (Format, error) {
	f, ok := formatAliases[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return 0, &UnsupportedFormatError{Tag: tag}
	}
	return f, nil
}

// FormatForPath infers the format from a destination file extension.
func FormatForPath(path string) (Format, error) {
	lower := strings.ToLower(path)
	for _, f := range AllFormats() {
		if strings.HasSuffix(lower, formats[f].ext) {
			return f, nil
		}
	}
	if strings.HasSuffix(lower, ".jpeg") {
		return StackedImage, nil
	}
	return 0, &UnsupportedFormatError{Tag: path}
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	_, ok := formats[f]
	return ok
}

// String returns the short tag, e.g. "gif".
func (f Format) String() string {
	if info, ok := formats[f]; ok {
		return info.tag
	}
	return "unknown"
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string { return formats[f].ext }

// ContentType returns the MIME type of the encoded artifact.
func (f Format) ContentType() string { return formats[f].contentType }

// Label returns a human readable name, e.g. "Animated Sequence".
func (f Format) Label() string {
	if info, ok := formats[f]; ok {
		return titleCaser.String(info.name)
	}
	return "Unknown"
}
