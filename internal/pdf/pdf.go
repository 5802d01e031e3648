// Package pdf builds multi-page documents with one image per page and reads
// basic facts back from them, using pdfcpu.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// Keep pdfcpu from creating a config directory under the user's home.
	model.ConfigPath = "disable"
}

// PageEncoding selects how page images are embedded.
type PageEncoding string

const (
	// PageJPEG embeds pages as DCT-compressed images.
	PageJPEG PageEncoding = "jpeg"
	// PagePNG embeds pages losslessly.
	PagePNG PageEncoding = "png"
)

// DocumentOptions configures WriteDocument.
type DocumentOptions struct {
	Encoding    PageEncoding
	JPEGQuality int
	// UserPassword and OwnerPassword enable AES encryption when either is set.
	UserPassword  string
	OwnerPassword string
}

// DefaultDocumentOptions returns JPEG pages at quality 90, unencrypted.
func DefaultDocumentOptions() DocumentOptions {
	return DocumentOptions{Encoding: PageJPEG, JPEGQuality: 90}
}

// WriteDocument writes a PDF to w with one page per image, in order. Each page
// takes the size of its own image.
func WriteDocument(w io.Writer, pages []image.Image, opts DocumentOptions) error {
	if len(pages) == 0 {
		return errors.New("document needs at least one page")
	}

	readers := make([]io.Reader, 0, len(pages))
	for i, img := range pages {
		data, err := encodePage(img, opts)
		if err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		readers = append(readers, bytes.NewReader(data))
	}

	imp := pdfcpu.DefaultImportConfig()

	if !opts.encrypted() {
		if err := api.ImportImages(nil, w, readers, imp, model.NewDefaultConfiguration()); err != nil {
			return fmt.Errorf("import page images: %w", err)
		}
		return nil
	}

	var plain bytes.Buffer
	if err := api.ImportImages(nil, &plain, readers, imp, model.NewDefaultConfiguration()); err != nil {
		return fmt.Errorf("import page images: %w", err)
	}
	return Encrypt(bytes.NewReader(plain.Bytes()), w, opts.UserPassword, opts.OwnerPassword)
}

func (o DocumentOptions) encrypted() bool {
	return o.UserPassword != "" || o.OwnerPassword != ""
}

func encodePage(img image.Image, opts DocumentOptions) ([]byte, error) {
	var buf bytes.Buffer
	switch opts.Encoding {
	case PagePNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, err
		}
	case PageJPEG, "":
		quality := opts.JPEGQuality
		if quality <= 0 {
			quality = DefaultDocumentOptions().JPEGQuality
		}
		if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown page encoding %q", opts.Encoding)
	}
	return buf.Bytes(), nil
}
