package queue

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/MeKo-Tech/imgmerge/internal/utils"
)

// DiscoverOptions controls how directories are expanded into image paths.
type DiscoverOptions struct {
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string
}

// Discover expands args into image paths. Files are kept in argument order,
// directories contribute their supported images sorted by path.
func Discover(args []string, opts DiscoverOptions) ([]string, error) {
	var out []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if !info.IsDir() {
			if shouldIncludeFile(arg, opts) {
				out = append(out, arg)
			}
			continue
		}

		files, err := discoverInDirectory(arg, opts)
		if err != nil {
			return nil, err
		}
		out = append(out, files...)
	}

	return out, nil
}

func discoverInDirectory(dir string, opts DiscoverOptions) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if !opts.Recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}
		if utils.IsSupportedImage(path) && shouldIncludeFile(path, opts) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}

	sort.Strings(files)
	return files, nil
}

// shouldIncludeFile applies exclude patterns first, then include patterns if any.
func shouldIncludeFile(path string, opts DiscoverOptions) bool {
	if matchesAnyPattern(path, opts.ExcludePatterns) {
		return false
	}
	if len(opts.IncludePatterns) == 0 {
		return true
	}
	return matchesAnyPattern(path, opts.IncludePatterns)
}

func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
