package cmd

import (
	"encoding/json"
	"image/gif"
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/MeKo-Tech/imgmerge/internal/pdf"
	"github.com/MeKo-Tech/imgmerge/internal/testutil"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixtures writes a.png (20x10 red) and b.png (20x30 blue) into dir.
func writeFixtures(t *testing.T, dir string) []string {
	t.Helper()
	return testutil.WriteImageSet(t, dir,
		testutil.ImageSpec{Name: "a.png", Width: 20, Height: 10, Color: testutil.Red},
		testutil.ImageSpec{Name: "b.png", Width: 20, Height: 30, Color: testutil.Blue},
	)
}

func TestExportPositionalStacked(t *testing.T) {
	dir := inTempDir(t)
	writeFixtures(t, dir)

	stdout, _, err := executeCommand(t, "export", "-o", "out.jpg", "a.png", "b.png")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Exported 2 images")
	assert.Contains(t, stdout, "Stacked Image")

	img, err := imaging.Open(filepath.Join(dir, "out.jpg"))
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestExportRotationSuffix(t *testing.T) {
	dir := inTempDir(t)
	writeFixtures(t, dir)

	_, _, err := executeCommand(t, "export", "--format", "gif", "-o", "anim.gif", "a.png@90")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "anim.gif"))
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)

	require.Len(t, g.Image, 1)
	assert.Equal(t, 10, g.Config.Width)
	assert.Equal(t, 20, g.Config.Height)
}

func TestExportFromManifest(t *testing.T) {
	dir := inTempDir(t)
	paths := writeFixtures(t, dir)
	testutil.WriteManifest(t, filepath.Join(dir, "q.yaml"), paths, []int{0, 90})

	_, _, err := executeCommand(t, "export", "--manifest", "q.yaml", "-o", "album.pdf")
	require.NoError(t, err)

	pages, err := pdf.PageCountFile(filepath.Join(dir, "album.pdf"), "")
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}

func TestExportDirectoryArgument(t *testing.T) {
	dir := inTempDir(t)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "scans"), 0o750))
	writeFixtures(t, filepath.Join(dir, "scans"))

	_, _, err := executeCommand(t, "export", "-o", "out.gif", "scans")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "out.gif"))
	require.NoError(t, err)
	defer f.Close()
	g, err := gif.DecodeAll(f)
	require.NoError(t, err)
	assert.Len(t, g.Image, 2)
}

func TestExportErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{
			name:        "empty queue",
			args:        []string{"export", "--manifest", "none.yaml", "-o", "out.jpg"},
			errContains: "queue is empty",
		},
		{
			name:        "empty queue wins over bad format",
			args:        []string{"export", "--manifest", "none.yaml", "--format", "bmp", "-o", "out.bmp"},
			errContains: "queue is empty",
		},
		{
			name:        "unsupported format",
			args:        []string{"export", "--format", "tiff", "-o", "out.tiff", "a.png"},
			errContains: "unsupported export format",
		},
		{
			name:        "unknown extension",
			args:        []string{"export", "-o", "out.webp", "a.png"},
			errContains: "unsupported export format",
		},
		{
			name:        "missing file",
			args:        []string{"export", "-o", "out.jpg", "a.png", "nope.png"},
			errContains: "nope.png",
		},
		{
			name:        "bad rotation suffix",
			args:        []string{"export", "-o", "out.jpg", "a.png@45"},
			errContains: "multiple of 90",
		},
		{
			name:        "invalid quality",
			args:        []string{"export", "--quality", "0", "-o", "out.jpg", "a.png"},
			errContains: "invalid jpeg quality",
		},
		{
			name:        "missing output",
			args:        []string{"export", "a.png"},
			errContains: "required flag",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := inTempDir(t)
			writeFixtures(t, dir)

			_, _, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)

			for _, name := range []string{"out.jpg", "out.bmp", "out.tiff", "out.webp"} {
				assert.NoFileExists(t, filepath.Join(dir, name))
			}
		})
	}
}

func TestExportJSONResult(t *testing.T) {
	dir := inTempDir(t)
	writeFixtures(t, dir)
	testutil.WriteCorruptImage(t, dir, "broken.png")

	stdout, _, err := executeCommand(t, "export", "--json", "-o", "out.jpg", "a.png", "broken.png")
	require.Error(t, err)

	var res export.Result
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.False(t, res.Success)
	assert.Equal(t, "decode_error", res.ErrorType)
	assert.Contains(t, res.ErrorMessage, "broken.png")

	stdout, _, err = executeCommand(t, "export", "--json", "-o", "out.jpg", "a.png", "b.png")
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(stdout), &res))
	assert.True(t, res.Success)
	assert.Equal(t, 2, res.Count)
	assert.Equal(t, "jpg", res.Format)
}

func TestExportProgressBar(t *testing.T) {
	dir := inTempDir(t)
	writeFixtures(t, dir)

	_, stderr, err := executeCommand(t, "export", "--progress", "-o", "out.jpg", "a.png", "b.png")
	require.NoError(t, err)
	assert.Contains(t, stderr, "2/2")
}

func TestExportEncryptedPDF(t *testing.T) {
	dir := inTempDir(t)
	writeFixtures(t, dir)

	_, _, err := executeCommand(t, "export", "-o", "secret.pdf", "--pdf-password", "hunter2", "a.png", "b.png")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(dir, "secret.pdf"))
	require.NoError(t, err)
	defer f.Close()
	encrypted, err := pdf.IsEncrypted(f)
	require.NoError(t, err)
	assert.True(t, encrypted)
}

func TestParseEntryArg(t *testing.T) {
	tests := []struct {
		arg      string
		path     string
		rotation int
		wantErr  bool
	}{
		{arg: "a.png", path: "a.png"},
		{arg: "a.png@90", path: "a.png", rotation: 90},
		{arg: "a.png@-90", path: "a.png", rotation: 270},
		{arg: "a.png@450", path: "a.png", rotation: 90},
		{arg: "me@home.png", path: "me@home.png"},
		{arg: "@90", path: "@90"},
		{arg: "a.png@45", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			path, rotation, err := parseEntryArg(tt.arg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.rotation, rotation)
		})
	}
}

func TestResolveFormat(t *testing.T) {
	tests := []struct {
		tag, output string
		want        export.Format
		wantErr     bool
	}{
		{tag: "gif", output: "x.jpg", want: export.AnimatedSequence},
		{output: "x.PDF", want: export.MultiPageDocument},
		{output: "x.jpeg", want: export.StackedImage},
		{output: "x.png", wantErr: true},
		{tag: "png", output: "x.jpg", wantErr: true},
	}

	for _, tt := range tests {
		got, err := resolveFormat(tt.tag, tt.output)
		if tt.wantErr {
			assert.Error(t, err, "%s/%s", tt.tag, tt.output)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
