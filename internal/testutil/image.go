package testutil

import (
	"image"
	"image/color"
	"image/draw"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Handy fill colours for fixtures.
var (
	Red   = color.NRGBA{R: 220, G: 30, B: 30, A: 255}
	Green = color.NRGBA{R: 30, G: 200, B: 60, A: 255}
	Blue  = color.NRGBA{R: 30, G: 60, B: 220, A: 255}
)

// CreateTestImage creates a solid image with the specified dimensions and color.
func CreateTestImage(width, height int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{c}, image.Point{}, draw.Src)
	return img
}

// CreateLabeledImage creates a solid image with a short label drawn in the top-left
// corner, so that rotations and ordering can be told apart.
func CreateLabeledImage(width, height int, bg color.Color, label string) *image.NRGBA {
	img := CreateTestImage(width, height, bg)
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(2, 13),
	}
	d.DrawString(label)
	return img
}

// CreateQuadrantImage creates an image whose four quadrants are red (top-left),
// green (top-right), blue (bottom-left) and white (bottom-right).
func CreateQuadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			var c color.NRGBA
			switch {
			case x < width/2 && y < height/2:
				c = Red
			case y < height/2:
				c = Green
			case x < width/2:
				c = Blue
			default:
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// CreateTransparentImage creates an image whose pixels all carry the given
// colour at zero alpha.
func CreateTransparentImage(width, height int, c color.NRGBA) *image.NRGBA {
	c.A = 0
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	// draw.Draw would premultiply the colour away, so set pixels directly.
	for y := range height {
		for x := range width {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// WriteImage saves img as dir/name, picking the encoder from the extension,
// and returns the full path.
func WriteImage(t *testing.T, dir, name string, img image.Image) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, imaging.Save(img, path), "failed to write fixture image %s", path)
	return path
}

// WriteSolidImage writes a solid colour fixture and returns its path.
func WriteSolidImage(t *testing.T, dir, name string, width, height int, c color.Color) string {
	t.Helper()
	return WriteImage(t, dir, name, CreateTestImage(width, height, c))
}

// PixelAt returns the 8-bit NRGBA colour of img at (x, y).
func PixelAt(img image.Image, x, y int) color.NRGBA {
	return color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
}

// AssertColorNear fails the test if got differs from want by more than tol on any channel.
func AssertColorNear(t *testing.T, want, got color.NRGBA, tol int, msgAndArgs ...any) {
	t.Helper()

	diff := func(a, b uint8) int {
		d := int(a) - int(b)
		if d < 0 {
			return -d
		}
		return d
	}
	ok := diff(want.R, got.R) <= tol && diff(want.G, got.G) <= tol &&
		diff(want.B, got.B) <= tol && diff(want.A, got.A) <= tol
	require.True(t, ok, append([]any{"want %v got %v (tol %d)", want, got, tol}, msgAndArgs...)...)
}
