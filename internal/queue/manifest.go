package queue

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"gopkg.in/yaml.v3"
)

// ManifestVersion is the manifest schema version written by SaveManifest.
const ManifestVersion = 1

// Manifest is the on-disk form of a queue.
type Manifest struct {
	Version int     `yaml:"version"`
	Entries []Entry `yaml:"entries"`
}

// LoadManifest reads the queue stored at path. A missing file is an empty queue
// and leaves nothing behind on disk. Readers share the lock with each other.
func LoadManifest(path string) (*Queue, error) {
	if path == "" {
		return nil, errors.New("manifest path is empty")
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return New(), nil
	}

	lock := flock.New(path + ".lock")
	if err := lock.RLock(); err != nil {
		return nil, fmt.Errorf("lock manifest %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	return readManifest(path)
}

// SaveManifest writes q to path, replacing any previous manifest.
func SaveManifest(path string, q *Queue) error {
	return withLock(path, func() error {
		return writeManifest(path, q)
	})
}

// UpdateManifest loads the queue at path, applies fn and saves the result while
// holding the lock for the whole cycle. Nothing is written if fn fails.
func UpdateManifest(path string, fn func(q *Queue) error) (*Queue, error) {
	var q *Queue
	err := withLock(path, func() error {
		var err error
		if q, err = readManifest(path); err != nil {
			return err
		}
		if err := fn(q); err != nil {
			return err
		}
		return writeManifest(path, q)
	})
	return q, err
}

// ResolvePaths returns a snapshot with relative entry paths resolved against
// the manifest directory.
func ResolvePaths(manifestPath string, entries []Entry) []Entry {
	base := filepath.Dir(manifestPath)
	out := make([]Entry, len(entries))
	for i, e := range entries {
		if e.Path != "" && !filepath.IsAbs(e.Path) {
			e.Path = filepath.Join(base, e.Path)
		}
		out[i] = e
	}
	return out
}

// withLock runs fn under the exclusive writer lock, creating the manifest
// directory if needed.
func withLock(path string, fn func() error) error {
	if path == "" {
		return errors.New("manifest path is empty")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("create manifest directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("lock manifest %s: %w", path, err)
	}
	defer func() { _ = lock.Unlock() }()

	return fn()
}

func readManifest(path string) (*Queue, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: manifest path is user-provided
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return New(), nil
		}
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Version > ManifestVersion {
		return nil, fmt.Errorf("manifest %s has unsupported version %d", path, m.Version)
	}
	for i, e := range m.Entries {
		if e.Rotation%RotationStep != 0 {
			return nil, fmt.Errorf("manifest %s entry %d: rotation %d is not a multiple of %d",
				path, i, e.Rotation, RotationStep)
		}
	}

	return New(m.Entries...), nil
}

func writeManifest(path string, q *Queue) error {
	data, err := yaml.Marshal(Manifest{Version: ManifestVersion, Entries: q.Snapshot()})
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.yaml")
	if err != nil {
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write manifest %s: %w", path, err)
	}
	return nil
}
