package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/imgmerge/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func listQueue(t *testing.T, manifest string) []queue.EntryInfo {
	t.Helper()

	stdout, _, err := executeCommand(t, "queue", "list", "--json", "--manifest", manifest)
	require.NoError(t, err)

	var infos []queue.EntryInfo
	require.NoError(t, json.Unmarshal([]byte(stdout), &infos))
	return infos
}

func TestQueueWorkflow(t *testing.T) {
	dir := inTempDir(t)
	writeFixtures(t, dir)

	stdout, _, err := executeCommand(t, "queue", "add", "--manifest", "q.yaml", "a.png", "b.png")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added 2 images")

	infos := listQueue(t, "q.yaml")
	require.Len(t, infos, 2)
	assert.Equal(t, "a.png", infos[0].Name)
	assert.True(t, filepath.IsAbs(infos[0].Path))

	stdout, _, err = executeCommand(t, "queue", "rotate", "0", "--manifest", "q.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "90°")

	_, _, err = executeCommand(t, "queue", "rotate", "0", "--step", "-90", "--manifest", "q.yaml")
	require.NoError(t, err)
	_, _, err = executeCommand(t, "queue", "rotate", "0", "--step=-90", "--manifest", "q.yaml")
	require.NoError(t, err)

	infos = listQueue(t, "q.yaml")
	assert.Equal(t, 270, infos[0].Rotation)
	assert.Equal(t, 10, infos[0].Width, "dimensions are reported after rotation")
	assert.Equal(t, 20, infos[0].Height)

	_, _, err = executeCommand(t, "queue", "move", "0", "1", "--manifest", "q.yaml")
	require.NoError(t, err)
	infos = listQueue(t, "q.yaml")
	assert.Equal(t, []string{"b.png", "a.png"}, []string{infos[0].Name, infos[1].Name})
	assert.Equal(t, 270, infos[1].Rotation, "rotation travels with the image")

	stdout, _, err = executeCommand(t, "queue", "remove", "0", "--manifest", "q.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Removed b.png")
	require.Len(t, listQueue(t, "q.yaml"), 1)

	stdout, _, err = executeCommand(t, "queue", "clear", "--manifest", "q.yaml")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Cleared 1 images")
	assert.Empty(t, listQueue(t, "q.yaml"))
}

func TestQueueListTable(t *testing.T) {
	dir := inTempDir(t)
	writeFixtures(t, dir)

	stdout, _, err := executeCommand(t, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Queue is empty")

	_, _, err = executeCommand(t, "queue", "add", "a.png", "b.png")
	require.NoError(t, err)
	require.NoError(t, os.Remove(filepath.Join(dir, "b.png")))

	stdout, _, err = executeCommand(t, "queue", "list")
	require.NoError(t, err)
	assert.Contains(t, stdout, "a.png")
	assert.Contains(t, stdout, "20x10")
	assert.Contains(t, stdout, "b.png")
	assert.Contains(t, strings.ToUpper(stdout), "ROTATION")
	assert.Contains(t, stdout, "ok")
}

func TestQueueAddSkipsUnsupportedFiles(t *testing.T) {
	dir := inTempDir(t)
	writeFixtures(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600))

	stdout, stderr, err := executeCommand(t, "queue", "add", "a.png", "notes.txt")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Added 1 images (1 skipped)")
	assert.Contains(t, stderr, "notes.txt")
}

func TestQueueAddDirectory(t *testing.T) {
	dir := inTempDir(t)
	nested := filepath.Join(dir, "scans", "more")
	require.NoError(t, os.MkdirAll(nested, 0o750))
	writeFixtures(t, filepath.Join(dir, "scans"))
	writeFixtures(t, nested)

	_, _, err := executeCommand(t, "queue", "add", "scans")
	require.NoError(t, err)
	assert.Len(t, listQueue(t, ".imgmerge-queue.yaml"), 2)

	_, _, err = executeCommand(t, "queue", "clear")
	require.NoError(t, err)

	_, _, err = executeCommand(t, "queue", "add", "-r", "--exclude", "b.png", "scans")
	require.NoError(t, err)
	infos := listQueue(t, ".imgmerge-queue.yaml")
	require.Len(t, infos, 2)
	for _, info := range infos {
		assert.Equal(t, "a.png", info.Name)
	}
}

func TestQueueErrors(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		errContains string
	}{
		{name: "remove out of range", args: []string{"queue", "remove", "5"}, errContains: "out of range"},
		{name: "remove bad index", args: []string{"queue", "remove", "first"}, errContains: "invalid index"},
		{name: "move out of range", args: []string{"queue", "move", "0", "9"}, errContains: "out of range"},
		{name: "rotate bad step", args: []string{"queue", "rotate", "0", "--step", "45"}, errContains: "+90 or -90"},
		{name: "add missing path", args: []string{"queue", "add", "ghost.png"}, errContains: "cannot access"},
		{name: "add without args", args: []string{"queue", "add"}, errContains: "requires at least 1 arg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := inTempDir(t)
			writeFixtures(t, dir)
			_, _, err := executeCommand(t, "queue", "add", "a.png")
			require.NoError(t, err)

			_, _, err = executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errContains)

			assert.Len(t, listQueue(t, ".imgmerge-queue.yaml"), 1, "failed edits leave the queue alone")
		})
	}
}

func TestQueueListMissingManifestWritesNothing(t *testing.T) {
	dir := inTempDir(t)

	stdout, _, err := executeCommand(t, "queue", "list", "--manifest", filepath.Join("queues", "q.yaml"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "Queue is empty")

	left, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, left, "listing a missing queue must not create files")
}
