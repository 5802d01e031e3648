package utils

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// SupportedImageExtensions lists supported file extensions for loading.
var SupportedImageExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".webp"}

// supportedDecoders are the registered image.Decode format names we accept.
var supportedDecoders = map[string]bool{"png": true, "jpeg": true, "bmp": true, "webp": true}

// IsSupportedImage reports whether the path has a supported image extension.
func IsSupportedImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, s := range SupportedImageExtensions {
		if ext == s {
			return true
		}
	}
	return false
}

// ImageMetadata captures lightweight file and pixel information.
type ImageMetadata struct {
	Path      string
	Format    string
	SizeBytes int64
	Width     int
	Height    int
}

// LoadImage opens and decodes an image file, returning the image and metadata.
// Files with an unsupported extension are rejected before they are opened.
func LoadImage(path string) (image.Image, ImageMetadata, error) {
	if err := checkPath(path); err != nil {
		return nil, ImageMetadata{}, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: err}
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return nil, ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: err}
	}

	img, format, err := DecodeImage(f)
	if err != nil {
		return nil, ImageMetadata{}, err
	}

	b := img.Bounds()
	return img, ImageMetadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     b.Dx(),
		Height:    b.Dy(),
	}, nil
}

// DecodeImage decodes image content and rejects formats outside the supported set,
// regardless of what the file was called.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: err}
	}
	if !supportedDecoders[format] {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: fmt.Errorf("unsupported content: %s", format)}
	}
	if b := img.Bounds(); b.Empty() {
		return nil, "", &ImageProcessingError{Operation: "decode", Err: errors.New("image has no pixels")}
	}
	return img, format, nil
}

// ReadImageMetadata returns file size and dimensions without decoding pixel data.
func ReadImageMetadata(path string) (ImageMetadata, error) {
	if err := checkPath(path); err != nil {
		return ImageMetadata{}, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: Reading user-provided image file path is expected
	if err != nil {
		return ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: err}
	}
	defer func() { _ = f.Close() }()

	fi, err := f.Stat()
	if err != nil {
		return ImageMetadata{}, &ImageProcessingError{Operation: "load", Err: err}
	}

	cfg, format, err := image.DecodeConfig(f)
	if err != nil {
		return ImageMetadata{}, &ImageProcessingError{Operation: "decode", Err: err}
	}

	return ImageMetadata{
		Path:      path,
		Format:    format,
		SizeBytes: fi.Size(),
		Width:     cfg.Width,
		Height:    cfg.Height,
	}, nil
}

// SaveImage encodes img to path, picking the codec from the file extension.
func SaveImage(path string, img image.Image, opts ...imaging.EncodeOption) error {
	if err := imaging.Save(img, path, opts...); err != nil {
		return &ImageProcessingError{Operation: "save", Err: err}
	}
	return nil
}

func checkPath(path string) error {
	if path == "" {
		return &ImageProcessingError{Operation: "load", Err: errors.New("empty path")}
	}
	if !IsSupportedImage(path) {
		return &ImageProcessingError{Operation: "load", Err: fmt.Errorf("unsupported format: %q", filepath.Ext(path))}
	}
	return nil
}
