package export

import (
	"image"
	"image/color"
	"image/color/palette"
	"image/draw"
	"image/gif"
	"io"
	"time"

	"github.com/disintegration/imaging"
)

// maxPaletteSize is the largest colour table a GIF frame can carry.
const maxPaletteSize = 256

// buildAnimation turns the processed images into GIF frames. The logical
// screen fits the largest image; smaller frames sit top-left on white.
func buildAnimation(images []*image.NRGBA, delay time.Duration, loopCount int) *gif.GIF {
	width, height := 0, 0
	for _, img := range images {
		b := img.Bounds()
		width = max(width, b.Dx())
		height = max(height, b.Dy())
	}

	// GIF delays are in hundredths of a second.
	delayCS := int(delay / (10 * time.Millisecond))

	g := &gif.GIF{
		LoopCount: loopCount,
		Config:    image.Config{Width: width, Height: height},
	}
	screen := image.Rect(0, 0, width, height)
	for _, img := range images {
		frame := img
		if b := img.Bounds(); b.Dx() != width || b.Dy() != height || b.Min != (image.Point{}) {
			frame = imaging.Paste(imaging.New(width, height, color.White), img, image.Point{})
		}
		g.Image = append(g.Image, palettize(frame, screen))
		g.Delay = append(g.Delay, delayCS)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	return g
}

func writeAnimated(w io.Writer, images []*image.NRGBA, delay time.Duration, loopCount int) (Summary, error) {
	g := buildAnimation(images, delay, loopCount)
	if err := gif.EncodeAll(w, g); err != nil {
		return Summary{}, err
	}
	return Summary{Count: len(g.Image), Width: g.Config.Width, Height: g.Config.Height}, nil
}

// palettize maps img onto a colour table. Frames with few colours get an exact
// palette; richer frames are dithered onto a fixed palette so output stays
// deterministic.
func palettize(img *image.NRGBA, bounds image.Rectangle) *image.Paletted {
	if pal, ok := exactPalette(img); ok {
		p := image.NewPaletted(bounds, pal)
		draw.Draw(p, bounds, img, img.Bounds().Min, draw.Src)
		return p
	}

	p := image.NewPaletted(bounds, palette.Plan9)
	draw.FloydSteinberg.Draw(p, bounds, img, img.Bounds().Min)
	return p
}

// exactPalette returns the distinct colours of img in first-seen order, or
// false if there are more than a GIF frame can hold.
func exactPalette(img *image.NRGBA) (color.Palette, bool) {
	seen := make(map[uint32]struct{}, maxPaletteSize)
	pal := make(color.Palette, 0, maxPaletteSize)

	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := img.Pix[img.PixOffset(b.Min.X, y):img.PixOffset(b.Max.X, y)]
		for i := 0; i < len(row); i += 4 {
			key := uint32(row[i])<<16 | uint32(row[i+1])<<8 | uint32(row[i+2])
			if _, ok := seen[key]; ok {
				continue
			}
			if len(pal) == maxPaletteSize {
				return nil, false
			}
			seen[key] = struct{}{}
			pal = append(pal, color.NRGBA{R: row[i], G: row[i+1], B: row[i+2], A: 0xff})
		}
	}
	return pal, true
}
