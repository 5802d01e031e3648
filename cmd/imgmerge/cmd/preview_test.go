package cmd

import (
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/imgmerge/internal/testutil"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPreviewFromQueue(t *testing.T) {
	dir := inTempDir(t)
	paths := testutil.WriteImageSet(t, dir,
		testutil.ImageSpec{Name: "wide.png", Width: 200, Height: 100, Color: testutil.Green},
		testutil.ImageSpec{Name: "tall.png", Width: 100, Height: 300, Color: testutil.Blue},
	)
	testutil.WriteManifest(t, filepath.Join(dir, ".imgmerge-queue.yaml"), paths, []int{90, 0})

	stdout, _, err := executeCommand(t, "preview", "--index", "0", "-o", "thumb.png", "--max-width", "50", "--max-height", "50")
	require.NoError(t, err)
	assert.Contains(t, stdout, "thumb.png")

	thumb, err := imaging.Open(filepath.Join(dir, "thumb.png"))
	require.NoError(t, err)
	assert.Equal(t, 25, thumb.Bounds().Dx(), "rotated to 100x200 then fitted")
	assert.Equal(t, 50, thumb.Bounds().Dy())
}

func TestPreviewFileArgument(t *testing.T) {
	dir := inTempDir(t)
	path := testutil.WriteImage(t, dir, "quad.png", testutil.CreateQuadrantImage(40, 40))

	_, _, err := executeCommand(t, "preview", path, "--rotation", "90", "-o", "thumb.png")
	require.NoError(t, err)

	thumb, err := imaging.Open(filepath.Join(dir, "thumb.png"))
	require.NoError(t, err)
	assert.Equal(t, 40, thumb.Bounds().Dx(), "small images are not upscaled")

	// After a clockwise quarter turn the blue bottom-left quadrant is top-left.
	testutil.AssertColorNear(t, testutil.Blue, testutil.PixelAt(thumb, 5, 5), 8)
}

func TestPreviewErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{name: "index out of range", args: []string{"preview", "--index", "3", "-o", "t.png"}, errContains: "out of range"},
		{name: "bad rotation", args: []string{"preview", "a.png", "--rotation", "30", "-o", "t.png"}, errContains: "multiple of 90"},
		{name: "missing file", args: []string{"preview", "ghost.png", "-o", "t.png"}, errContains: "ghost.png"},
		{name: "bad box", args: []string{"preview", "a.png", "--max-width", "0", "-o", "t.png"}, errContains: "invalid target dimensions"},
		{name: "missing output", args: []string{"preview", "a.png"}, errContains: "required flag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := inTempDir(t)
			writeFixtures(t, dir)

			_, _, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)
			assert.NoFileExists(t, filepath.Join(dir, "t.png"))
		})
	}
}
