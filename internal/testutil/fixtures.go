package testutil

import (
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// ImageSpec describes one fixture image to generate.
type ImageSpec struct {
	Name   string
	Width  int
	Height int
	Color  color.Color
}

// WriteImageSet writes each ImageSpec into dir and returns the paths in argument order.
func WriteImageSet(t *testing.T, dir string, specs ...ImageSpec) []string {
	t.Helper()

	paths := make([]string, 0, len(specs))
	for _, s := range specs {
		c := s.Color
		if c == nil {
			c = Red
		}
		paths = append(paths, WriteSolidImage(t, dir, s.Name, s.Width, s.Height, c))
	}
	return paths
}

// WriteCorruptImage writes a file with an image extension but garbage content.
func WriteCorruptImage(t *testing.T, dir, name string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("definitely not an image"), 0o600))
	return path
}

// WriteManifest writes a queue manifest listing the given paths and rotations.
func WriteManifest(t *testing.T, path string, paths []string, rotations []int) {
	t.Helper()

	content := "version: 1\nentries:\n"
	for i, p := range paths {
		rot := 0
		if i < len(rotations) {
			rot = rotations[i]
		}
		content += fmt.Sprintf("  - path: %q\n    rotation: %d\n", p, rot)
	}
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}
