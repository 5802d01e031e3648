package pdf

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// PageSize is a page's media box size in points.
type PageSize struct {
	Width  float64
	Height float64
}

// PageCount returns the number of pages in the PDF read from rs.
func PageCount(rs io.ReadSeeker, password string) (int, error) {
	n, err := api.PageCount(rs, readConfig(password, password))
	if err != nil {
		return 0, fmt.Errorf("count pages: %w", err)
	}
	return n, nil
}

// PageCountFile returns the number of pages in the PDF at path.
func PageCountFile(path, password string) (int, error) {
	f, err := os.Open(path) //nolint:gosec // G304: reading a caller-provided document
	if err != nil {
		return 0, err
	}
	defer func() { _ = f.Close() }()
	return PageCount(f, password)
}

// PageSizes returns the size of every page in order.
func PageSizes(rs io.ReadSeeker, password string) ([]PageSize, error) {
	dims, err := api.PageDims(rs, readConfig(password, password))
	if err != nil {
		return nil, fmt.Errorf("read page sizes: %w", err)
	}
	out := make([]PageSize, len(dims))
	for i, d := range dims {
		out[i] = PageSize{Width: d.Width, Height: d.Height}
	}
	return out, nil
}

// IsEncrypted reports whether the document at rs cannot be opened without a password.
func IsEncrypted(rs io.ReadSeeker) (bool, error) {
	_, err := api.PageCount(rs, readConfig("", ""))
	if err == nil {
		return false, nil
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "encrypt") || strings.Contains(msg, "password") || strings.Contains(msg, "decrypt") {
		return true, nil
	}
	return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
}
