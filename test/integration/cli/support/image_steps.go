package support

import (
	"fmt"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/imgmerge/internal/testutil"
	"github.com/cucumber/godog"
	"github.com/disintegration/imaging"
)

var namedColors = map[string]color.NRGBA{
	"red":   testutil.Red,
	"green": testutil.Green,
	"blue":  testutil.Blue,
	"white": {R: 255, G: 255, B: 255, A: 255},
}

func lookupColor(name string) (color.NRGBA, error) {
	c, ok := namedColors[name]
	if !ok {
		return color.NRGBA{}, fmt.Errorf("unknown colour %q", name)
	}
	return c, nil
}

func (testCtx *TestContext) ensureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o750)
}

func (testCtx *TestContext) aColoredImage(colorName, name string, width, height int) error {
	c, err := lookupColor(colorName)
	if err != nil {
		return err
	}
	path := testCtx.Path(name)
	if err := testCtx.ensureDir(path); err != nil {
		return err
	}
	return imaging.Save(testutil.CreateTestImage(width, height, c), path)
}

func (testCtx *TestContext) anImage(name string, width, height int) error {
	return testCtx.aColoredImage("red", name, width, height)
}

// aQuadrantImage writes an image whose quadrants are red, green, blue and white
// (top-left, top-right, bottom-left, bottom-right).
func (testCtx *TestContext) aQuadrantImage(name string, size int) error {
	path := testCtx.Path(name)
	if err := testCtx.ensureDir(path); err != nil {
		return err
	}
	return imaging.Save(testutil.CreateQuadrantImage(size, size), path)
}

func (testCtx *TestContext) aCorruptImage(name string) error {
	path := testCtx.Path(name)
	if err := testCtx.ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("definitely not an image"), 0o600)
}

func (testCtx *TestContext) aTextFile(name string) error {
	path := testCtx.Path(name)
	if err := testCtx.ensureDir(path); err != nil {
		return err
	}
	return os.WriteFile(path, []byte("just some notes"), 0o600)
}

func (testCtx *TestContext) theImageShouldBe(name string, width, height int) error {
	img, err := imaging.Open(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", name, err)
	}
	if b := img.Bounds(); b.Dx() != width || b.Dy() != height {
		return fmt.Errorf("%s is %dx%d, want %dx%d", name, b.Dx(), b.Dy(), width, height)
	}
	return nil
}

func (testCtx *TestContext) thePixelShouldBe(x, y int, name, colorName string) error {
	want, err := lookupColor(colorName)
	if err != nil {
		return err
	}
	img, err := imaging.Open(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("cannot open %s: %w", name, err)
	}
	got := testutil.PixelAt(img, x, y)
	if !near(want.R, got.R) || !near(want.G, got.G) || !near(want.B, got.B) {
		return fmt.Errorf("pixel %d,%d of %s is %v, want %s %v", x, y, name, got, colorName, want)
	}
	return nil
}

// near tolerates JPEG and palette quantisation error.
func near(a, b uint8) bool {
	d := int(a) - int(b)
	return d >= -24 && d <= 24
}

func (testCtx *TestContext) decodeGIF(name string) (*gif.GIF, error) {
	f, err := os.Open(testCtx.Path(name))
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return gif.DecodeAll(f)
}

func (testCtx *TestContext) theGIFShouldHaveFrames(name string, frames int) error {
	g, err := testCtx.decodeGIF(name)
	if err != nil {
		return fmt.Errorf("cannot decode %s: %w", name, err)
	}
	if len(g.Image) != frames {
		return fmt.Errorf("%s has %d frames, want %d", name, len(g.Image), frames)
	}
	return nil
}

func (testCtx *TestContext) theGIFShouldLoopForeverWithDelay(name string, delayMS int) error {
	g, err := testCtx.decodeGIF(name)
	if err != nil {
		return fmt.Errorf("cannot decode %s: %w", name, err)
	}
	if g.LoopCount != 0 {
		return fmt.Errorf("%s loop count is %d, want 0 (forever)", name, g.LoopCount)
	}
	for i, d := range g.Delay {
		if d*10 != delayMS {
			return fmt.Errorf("frame %d of %s has delay %dms, want %dms", i, name, d*10, delayMS)
		}
	}
	return nil
}

func (testCtx *TestContext) theGIFShouldBe(name string, width, height int) error {
	g, err := testCtx.decodeGIF(name)
	if err != nil {
		return fmt.Errorf("cannot decode %s: %w", name, err)
	}
	if g.Config.Width != width || g.Config.Height != height {
		return fmt.Errorf("%s canvas is %dx%d, want %dx%d", name, g.Config.Width, g.Config.Height, width, height)
	}
	return nil
}

// RegisterImageSteps registers fixture and image assertion steps.
func (testCtx *TestContext) RegisterImageSteps(sc *godog.ScenarioContext) {
	sc.Step(`^an image "([^"]*)" of (\d+)x(\d+) pixels$`, testCtx.anImage)
	sc.Step(`^a (red|green|blue|white) image "([^"]*)" of (\d+)x(\d+) pixels$`, testCtx.aColoredImage)
	sc.Step(`^a quadrant image "([^"]*)" of (\d+) pixels square$`, testCtx.aQuadrantImage)
	sc.Step(`^a corrupt image "([^"]*)"$`, testCtx.aCorruptImage)
	sc.Step(`^a text file "([^"]*)"$`, testCtx.aTextFile)

	sc.Step(`^the image "([^"]*)" should be (\d+)x(\d+) pixels$`, testCtx.theImageShouldBe)
	sc.Step(`^the pixel at (\d+),(\d+) of "([^"]*)" should be (red|green|blue|white)$`, testCtx.thePixelShouldBe)
	sc.Step(`^the GIF "([^"]*)" should have (\d+) frames?$`, testCtx.theGIFShouldHaveFrames)
	sc.Step(`^the GIF "([^"]*)" should loop forever with a delay of (\d+)ms$`, testCtx.theGIFShouldLoopForeverWithDelay)
	sc.Step(`^the GIF "([^"]*)" should be (\d+)x(\d+) pixels$`, testCtx.theGIFShouldBe)
}
