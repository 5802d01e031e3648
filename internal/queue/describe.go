package queue

import (
	"path/filepath"

	"github.com/MeKo-Tech/imgmerge/internal/utils"
	"github.com/dustin/go-humanize"
)

// EntryInfo is a display-oriented view of one entry.
type EntryInfo struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Path     string `json:"path"`
	Rotation int    `json:"rotation"`
	Width    int    `json:"width,omitempty"`
	Height   int    `json:"height,omitempty"`
	Size     string `json:"size,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Describe reads size and dimensions for each entry. Width and height are
// reported after rotation. Unreadable entries carry an Error instead.
func Describe(entries []Entry) []EntryInfo {
	out := make([]EntryInfo, 0, len(entries))
	for i, e := range entries {
		info := EntryInfo{
			Index:    i,
			Name:     filepath.Base(e.Path),
			Path:     e.Path,
			Rotation: e.Rotation,
		}

		meta, err := utils.ReadImageMetadata(e.Path)
		if err != nil {
			info.Error = err.Error()
			out = append(out, info)
			continue
		}

		info.Width, info.Height = meta.Width, meta.Height
		if e.Rotation == 90 || e.Rotation == 270 {
			info.Width, info.Height = info.Height, info.Width
		}
		info.Size = humanize.Bytes(uint64(meta.SizeBytes)) //nolint:gosec // G115: file sizes are non-negative
		out = append(out, info)
	}
	return out
}
