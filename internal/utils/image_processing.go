package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// ImageProcessingError represents errors that can occur during image processing.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image processing error in %s: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error { return e.Err }

// ErrInvalidRotation is returned for angles that are not a multiple of 90 degrees.
var ErrInvalidRotation = errors.New("rotation must be a multiple of 90 degrees")

// FlattenRGB converts img to an opaque NRGBA image. The alpha channel is
// dropped and the stored colour values are kept as they are.
func FlattenRGB(img image.Image) (*image.NRGBA, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "flatten", Err: errors.New("input image is nil")}
	}

	out := imaging.Clone(img)
	for i := 3; i < len(out.Pix); i += 4 {
		out.Pix[i] = 0xff
	}
	return out, nil
}

// RotateClockwise rotates img clockwise by degrees, expanding the canvas so
// nothing is cropped. imaging rotates counter-clockwise, so the angles are mirrored.
func RotateClockwise(img image.Image, degrees int) (*image.NRGBA, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "rotate", Err: errors.New("input image is nil")}
	}
	if degrees%90 != 0 {
		return nil, &ImageProcessingError{Operation: "rotate", Err: fmt.Errorf("%w: %d", ErrInvalidRotation, degrees)}
	}

	switch ((degrees % 360) + 360) % 360 {
	case 90:
		return imaging.Rotate270(img), nil
	case 180:
		return imaging.Rotate180(img), nil
	case 270:
		return imaging.Rotate90(img), nil
	default:
		return imaging.Clone(img), nil
	}
}

// FitWithin scales img down to fit inside maxWidth x maxHeight keeping the aspect
// ratio. Images that already fit are returned unscaled.
func FitWithin(img image.Image, maxWidth, maxHeight int) (*image.NRGBA, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "fit", Err: errors.New("input image is nil")}
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, &ImageProcessingError{
			Operation: "fit",
			Err:       fmt.Errorf("invalid target dimensions: %dx%d", maxWidth, maxHeight),
		}
	}

	// Lanczos keeps thumbnails sharp, matching the smooth transform of a preview pane.
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos), nil
}
