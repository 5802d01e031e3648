package server

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/MeKo-Tech/imgmerge/internal/queue"
)

// upload is one image received from a client, in request order.
type upload struct {
	Filename string
	Rotation int
	Open     func() (io.ReadCloser, error)
}

// workspace is a per-request temp dir holding staged uploads and the artifact.
type workspace struct {
	dir   string
	names []string
}

func newWorkspace() (*workspace, error) {
	dir, err := os.MkdirTemp("", "imgmerge-request-*")
	if err != nil {
		return nil, fmt.Errorf("create request workspace: %w", err)
	}
	return &workspace{dir: dir}, nil
}

func (ws *workspace) Close() error {
	return os.RemoveAll(ws.dir)
}

// stage writes the uploads to disk and returns queue entries pointing at them.
// The staged name keeps the client's extension so format checks behave the
// same as for local files.
func (ws *workspace) stage(uploads []upload) ([]queue.Entry, error) {
	entries := make([]queue.Entry, 0, len(uploads))
	for i, u := range uploads {
		ext := strings.ToLower(filepath.Ext(u.Filename))
		path := filepath.Join(ws.dir, fmt.Sprintf("%04d%s", i, ext))
		if err := copyUpload(path, u); err != nil {
			return nil, fmt.Errorf("stage %q: %w", u.Filename, err)
		}
		ws.names = append(ws.names, u.Filename)
		entries = append(entries, queue.Entry{Path: path, Rotation: u.Rotation})
	}
	return entries, nil
}

// output returns the artifact path for format inside the workspace.
func (ws *workspace) output(format export.Format) string {
	return filepath.Join(ws.dir, "export"+format.Extension())
}

// clientError rewrites staged paths in export errors back to the client's
// filenames.
func (ws *workspace) clientError(err error) error {
	var derr *export.DecodeError
	if errors.As(err, &derr) && derr.Index >= 0 && derr.Index < len(ws.names) {
		derr.Path = ws.names[derr.Index]
	}
	return err
}

func copyUpload(path string, u upload) error {
	src, err := u.Open()
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	dst, err := os.Create(path) //nolint:gosec // G304: path is built inside the request workspace
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		_ = dst.Close()
		return err
	}
	return dst.Close()
}

// parseRotations reads rotations from comma lists or repeated fields. Missing
// trailing values default to 0.
func parseRotations(values []string, count int) ([]int, error) {
	rotations := make([]int, 0, count)
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			deg, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid rotation %q", part)
			}
			if deg%queue.RotationStep != 0 {
				return nil, fmt.Errorf("invalid rotation %d (must be a multiple of %d)", deg, queue.RotationStep)
			}
			rotations = append(rotations, queue.NormalizeRotation(deg))
		}
	}
	if len(rotations) > count {
		return nil, fmt.Errorf("got %d rotations for %d images", len(rotations), count)
	}
	for len(rotations) < count {
		rotations = append(rotations, 0)
	}
	return rotations, nil
}
