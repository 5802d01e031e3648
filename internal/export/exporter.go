package export

import (
	"fmt"
	"image"
	"io"
	"log/slog"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/queue"
	"github.com/MeKo-Tech/imgmerge/internal/utils"
)

// Exporter runs exports with a fixed set of encoder options. It holds no
// per-export state, so one Exporter may serve concurrent callers as long as
// each call gets its own progress callback.
type Exporter struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Exporter. Invalid options are rejected up front.
func New(opts Options) (*Exporter, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Exporter{opts: opts, logger: slog.Default()}, nil
}

// WithLogger replaces the logger used for export events.
func (e *Exporter) WithLogger(logger *slog.Logger) *Exporter {
	if logger != nil {
		e.logger = logger
	}
	return e
}

// Options returns the encoder options.
func (e *Exporter) Options() Options { return e.opts }

// Export processes entries in order and writes one artifact to dest. It never
// returns an error; failures are described by the Result. The queue the
// entries came from is never touched.
func (e *Exporter) Export(entries []queue.Entry, format Format, dest string, progress ProgressCallback) Result {
	start := time.Now()
	if progress == nil {
		progress = NoOpProgressCallback{}
	}

	// Nothing is created at dest unless there is something valid to write.
	var summary Summary
	err := precheck(entries, format)
	if err != nil {
		progress.OnError(0, err)
	} else {
		err = writeFile(dest, e.opts.Atomic, func(w io.Writer) error {
			var werr error
			summary, werr = e.write(w, entries, format, progress)
			return werr
		})
	}

	res := e.finish(format, dest, len(entries), summary, err, time.Since(start))
	if res.Success {
		res.OutputPath = dest
	}
	return res
}

// Write processes entries and encodes the artifact straight to w. Unlike
// Export it returns a typed error and creates no file, for callers that keep
// the result in memory or stream it.
func (e *Exporter) Write(w io.Writer, entries []queue.Entry, format Format, progress ProgressCallback) (Summary, error) {
	start := time.Now()
	if progress == nil {
		progress = NoOpProgressCallback{}
	}
	summary, err := e.write(w, entries, format, progress)
	e.finish(format, "", len(entries), summary, err, time.Since(start))
	return summary, err
}

// finish logs and records metrics for one export attempt.
func (e *Exporter) finish(format Format, dest string, entries int, summary Summary, err error, took time.Duration) Result {
	var res Result
	if err != nil {
		res = failed(format, err, took)
		e.logger.Warn("export failed",
			"format", format.String(), "destination", dest, "entries", entries, "error", err)
	} else {
		res = Result{
			Success:  true,
			Format:   format.String(),
			Count:    summary.Count,
			Width:    summary.Width,
			Height:   summary.Height,
			Bytes:    summary.Bytes,
			Duration: took,
		}
		e.logger.Info("export finished",
			"format", res.Format, "destination", dest, "entries", res.Count,
			"width", res.Width, "height", res.Height, "bytes", res.Bytes, "duration", res.Duration)
	}
	observe(res)
	return res
}

func (e *Exporter) write(w io.Writer, entries []queue.Entry, format Format, progress ProgressCallback) (Summary, error) {
	if err := precheck(entries, format); err != nil {
		progress.OnError(0, err)
		return Summary{}, err
	}

	images, err := e.load(entries, progress)
	if err != nil {
		return Summary{}, err
	}

	cw := &countingWriter{w: w}
	var summary Summary
	switch format {
	case StackedImage:
		summary, err = writeStacked(cw, images, e.opts.JPEGQuality)
	case AnimatedSequence:
		summary, err = writeAnimated(cw, images, e.opts.FrameDelay, e.opts.LoopCount)
	case MultiPageDocument:
		summary, err = writeDocument(cw, images, e.opts.Document)
	}
	if err != nil {
		err = &WriteError{Err: err}
		progress.OnError(0, err)
		return Summary{}, err
	}

	summary.Bytes = cw.n
	progress.OnComplete()
	return summary, nil
}

// precheck rejects exports that cannot succeed. An empty queue is reported
// before an unknown format.
func precheck(entries []queue.Entry, format Format) error {
	if len(entries) == 0 {
		return &EmptyQueueError{}
	}
	if !format.Valid() {
		return &UnsupportedFormatError{Tag: format.String()}
	}
	return nil
}

// load decodes, flattens and rotates each entry in queue order.
func (e *Exporter) load(entries []queue.Entry, progress ProgressCallback) ([]*image.NRGBA, error) {
	progress.OnStart(len(entries))

	images := make([]*image.NRGBA, 0, len(entries))
	for i, entry := range entries {
		img, err := processEntry(entry)
		if err != nil {
			derr := &DecodeError{Index: i, Path: entry.Path, Err: err}
			progress.OnError(i+1, derr)
			return nil, derr
		}
		e.logger.Debug("entry processed",
			"index", i, "path", entry.Path, "rotation", entry.Rotation,
			"width", img.Bounds().Dx(), "height", img.Bounds().Dy())
		images = append(images, img)
		progress.OnProgress(i+1, len(entries))
	}
	return images, nil
}

// processEntry decodes one entry, drops transparency and applies its rotation.
func processEntry(entry queue.Entry) (*image.NRGBA, error) {
	if entry.Rotation%queue.RotationStep != 0 {
		return nil, fmt.Errorf("%w: %d", utils.ErrInvalidRotation, entry.Rotation)
	}

	src, _, err := utils.LoadImage(entry.Path)
	if err != nil {
		return nil, err
	}
	img, err := utils.FlattenRGB(src)
	if err != nil {
		return nil, err
	}
	if queue.NormalizeRotation(entry.Rotation) == 0 {
		return img, nil
	}
	return utils.RotateClockwise(img, entry.Rotation)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
