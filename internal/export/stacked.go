package export

import (
	"image"
	"image/color"
	"io"

	"github.com/disintegration/imaging"
)

// stackedLayout returns the canvas size for images stacked top to bottom.
func stackedLayout(images []*image.NRGBA) (width, height int) {
	for _, img := range images {
		b := img.Bounds()
		if b.Dx() > width {
			width = b.Dx()
		}
		height += b.Dy()
	}
	return width, height
}

// composeStacked pastes images left-aligned onto a white canvas in order.
func composeStacked(images []*image.NRGBA) *image.NRGBA {
	width, height := stackedLayout(images)
	canvas := imaging.New(width, height, color.White)

	y := 0
	for _, img := range images {
		canvas = imaging.Paste(canvas, img, image.Pt(0, y))
		y += img.Bounds().Dy()
	}
	return canvas
}

func writeStacked(w io.Writer, images []*image.NRGBA, quality int) (Summary, error) {
	canvas := composeStacked(images)
	if err := imaging.Encode(w, canvas, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return Summary{}, err
	}
	b := canvas.Bounds()
	return Summary{Count: len(images), Width: b.Dx(), Height: b.Dy()}, nil
}
