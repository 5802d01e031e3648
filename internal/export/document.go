package export

import (
	"image"
	"io"

	"github.com/MeKo-Tech/imgmerge/internal/pdf"
)

func writeDocument(w io.Writer, images []*image.NRGBA, opts pdf.DocumentOptions) (Summary, error) {
	pages := make([]image.Image, len(images))
	for i, img := range images {
		pages[i] = img
	}
	if err := pdf.WriteDocument(w, pages, opts); err != nil {
		return Summary{}, err
	}
	first := images[0].Bounds()
	return Summary{Count: len(images), Width: first.Dx(), Height: first.Dy()}, nil
}
