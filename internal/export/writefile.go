package export

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path/filepath"
)

// writeFile runs encode against a file at dest. In atomic mode the data goes to
// a temp file in the same directory and is renamed over dest only on success,
// so a failed export never leaves a partial file behind. Errors that are not
// already typed export errors come back as *WriteError.
func writeFile(dest string, atomic bool, encode func(w io.Writer) error) error {
	if dest == "" {
		return &WriteError{Err: errors.New("destination path is empty")}
	}

	if !atomic {
		return writeDirect(dest, encode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	tmpName := tmp.Name()
	cleanup := func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}

	bw := bufio.NewWriter(tmp)
	if err := encode(bw); err != nil {
		cleanup()
		return withPath(err, dest)
	}
	if err := bw.Flush(); err != nil {
		cleanup()
		return &WriteError{Path: dest, Err: err}
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return &WriteError{Path: dest, Err: err}
	}
	if err := os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // G302: exported artifacts are meant to be shared
		_ = os.Remove(tmpName)
		return &WriteError{Path: dest, Err: err}
	}
	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return &WriteError{Path: dest, Err: err}
	}
	return nil
}

// writeDirect encodes straight into dest. On failure the partial file is removed.
func writeDirect(dest string, encode func(w io.Writer) error) error {
	f, err := os.Create(dest) //nolint:gosec // G304: destination is chosen by the caller
	if err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	bw := bufio.NewWriter(f)
	if err := encode(bw); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return withPath(err, dest)
	}
	if err := bw.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(dest)
		return &WriteError{Path: dest, Err: err}
	}
	if err := f.Close(); err != nil {
		return &WriteError{Path: dest, Err: err}
	}
	return nil
}

// withPath fills in the destination on write errors raised by the encoders.
func withPath(err error, dest string) error {
	var we *WriteError
	if errors.As(err, &we) && we.Path == "" {
		we.Path = dest
	}
	return err
}
