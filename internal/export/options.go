package export

import (
	"fmt"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/pdf"
)

// Options tunes the encoders.
type Options struct {
	// JPEGQuality is used for StackedImage output (1-100).
	JPEGQuality int
	// FrameDelay is how long each AnimatedSequence frame is shown.
	FrameDelay time.Duration
	// LoopCount is the GIF loop count; 0 loops forever, -1 plays once.
	LoopCount int
	// Document configures MultiPageDocument output.
	Document pdf.DocumentOptions
	// Atomic writes to a temp file and renames it into place on success.
	Atomic bool
}

// DefaultOptions returns the defaults: JPEG quality 90,
// 500ms frames looping forever, JPEG-backed PDF pages and atomic writes.
func DefaultOptions() Options {
	return Options{
		JPEGQuality: 90,
		FrameDelay:  500 * time.Millisecond,
		LoopCount:   0,
		Document:    pdf.DefaultDocumentOptions(),
		Atomic:      true,
	}
}

// Validate checks the options for values the encoders cannot honour.
func (o Options) Validate() error {
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 {
		return fmt.Errorf("invalid jpeg quality: %d (must be between 1 and 100)", o.JPEGQuality)
	}
	if o.FrameDelay < 10*time.Millisecond {
		return fmt.Errorf("invalid frame delay: %v (must be at least 10ms)", o.FrameDelay)
	}
	if o.LoopCount < -1 {
		return fmt.Errorf("invalid loop count: %d (must be -1 or greater)", o.LoopCount)
	}
	switch o.Document.Encoding {
	case pdf.PageJPEG, pdf.PagePNG:
	default:
		return fmt.Errorf("invalid pdf page encoding: %q (must be jpeg or png)", o.Document.Encoding)
	}
	return nil
}
