package export

import (
	"image"

	"github.com/MeKo-Tech/imgmerge/internal/queue"
	"github.com/MeKo-Tech/imgmerge/internal/utils"
)

// Preview renders one entry the way it will appear in an export, scaled down to
// fit maxWidth x maxHeight. Failures to read the entry come back as *DecodeError.
func Preview(entry queue.Entry, maxWidth, maxHeight int) (*image.NRGBA, error) {
	img, err := processEntry(entry)
	if err != nil {
		return nil, &DecodeError{Path: entry.Path, Err: err}
	}
	return utils.FitWithin(img, maxWidth, maxHeight)
}
