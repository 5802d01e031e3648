package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/imgmerge/internal/queue"
	"github.com/MeKo-Tech/imgmerge/internal/testutil"
	"github.com/MeKo-Tech/imgmerge/internal/utils"
)

// sampleImage is one generated file, relative to the output directory.
type sampleImage struct {
	name string
	img  image.Image
}

func main() {
	// Set up structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		outDir   = flag.String("out", "", "output directory (default: <project root>/testdata)")
		manifest = flag.Bool("manifest", true, "also write a queue manifest listing the pages")
		verbose  = flag.Bool("v", false, "Verbose output")
		help     = flag.Bool("h", false, "Show help")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Generate sample images for trying out imgmerge exports.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s                   # Write into testdata/\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -out /tmp/samples # Write somewhere else\n", os.Args[0])
	}

	flag.Parse()

	if *help {
		flag.Usage()
		return
	}

	dir := *outDir
	if dir == "" {
		root, err := testutil.GetProjectRoot()
		if err != nil {
			slog.Error("Failed to find project root", "error", err)
			os.Exit(1)
		}
		dir = filepath.Join(root, "testdata")
	}

	if *verbose {
		slog.Info("Options", "out", dir, "manifest", *manifest)
	}

	written, err := generate(dir, *manifest)
	if err != nil {
		slog.Error("Failed to generate sample data", "error", err)
		os.Exit(1)
	}

	slog.Info("Sample data generation completed", "files", len(written), "dir", dir)
}

// samples returns the generated set: numbered pages of differing sizes, a
// landscape and portrait pair for rotation, and a transparent PNG whose hidden
// colour shows up once alpha is dropped.
func samples() []sampleImage {
	pageColors := []color.NRGBA{testutil.Red, testutil.Green, testutil.Blue}

	var out []sampleImage
	for i, c := range pageColors {
		out = append(out, sampleImage{
			name: fmt.Sprintf("images/pages/page_%02d.png", i+1),
			img:  testutil.CreateLabeledImage(240+40*i, 320, c, fmt.Sprintf("Page %d", i+1)),
		})
	}

	out = append(out,
		sampleImage{name: "images/rotation/landscape.jpg", img: testutil.CreateQuadrantImage(320, 200)},
		sampleImage{name: "images/rotation/portrait.jpg", img: testutil.CreateQuadrantImage(200, 320)},
		sampleImage{
			name: "images/alpha/transparent.png",
			img:  testutil.CreateTransparentImage(160, 160, testutil.Blue),
		},
	)
	return out
}

// generate writes every sample below dir and returns the written paths. With
// withManifest set, the pages are also queued in dir/queue.yaml.
func generate(dir string, withManifest bool) ([]string, error) {
	var written, pages []string

	for _, s := range samples() {
		path := filepath.Join(dir, s.name)
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", s.name, err)
		}
		if err := utils.SaveImage(path, s.img); err != nil {
			return nil, fmt.Errorf("failed to save %s: %w", s.name, err)
		}
		slog.Debug("Wrote sample image", "path", path)
		written = append(written, path)

		if filepath.Base(filepath.Dir(path)) == "pages" {
			pages = append(pages, path)
		}
	}

	if withManifest {
		manifestPath := filepath.Join(dir, "queue.yaml")
		q := queue.New()
		q.Add(pages...)
		if err := queue.SaveManifest(manifestPath, q); err != nil {
			return nil, fmt.Errorf("failed to write manifest: %w", err)
		}
		written = append(written, manifestPath)
	}

	return written, nil
}
