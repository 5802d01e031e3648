package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/imgmerge/internal/config"
	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/MeKo-Tech/imgmerge/internal/pdf"
	"github.com/MeKo-Tech/imgmerge/internal/queue"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// exportCmd represents the export command.
var exportCmd = &cobra.Command{
	Use:   "export [files...]",
	Short: "Export the queue as a stacked JPEG, animated GIF or PDF",
	Long: `Export merges images into one output file.

Without file arguments the persisted queue manifest is exported. Files given
on the command line are exported in argument order instead; append @90, @180
or @270 to rotate a file clockwise. Directories contribute their images
sorted by name.

The format is taken from --format, or inferred from the output extension.

Examples:
  imgmerge export -o album.pdf
  imgmerge export --format gif --frame-delay 200 -o anim.gif
  imgmerge export -o strip.jpg first.png second.jpg@90 scans/`,
	SilenceUsage: true,
	RunE:         runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	output, _ := cmd.Flags().GetString("output")
	formatTag, _ := cmd.Flags().GetString("format")
	asJSON, _ := cmd.Flags().GetBool("json")

	exporter, err := export.New(exportOptionsFromFlags(cmd, cfg))
	if err != nil {
		return err
	}

	entries, err := collectEntries(cmd, cfg, args)
	if err != nil {
		return err
	}

	format, err := resolveFormat(formatTag, output)
	if err != nil && len(entries) > 0 {
		// An empty queue takes precedence and is reported by the exporter.
		return err
	}

	slog.Debug("Starting export", "format", format.String(), "images", len(entries), "output", output)

	var progress export.ProgressCallback = export.NewLogProgressCallback(slog.Default(), slog.LevelDebug)
	if show, _ := cmd.Flags().GetBool("progress"); show {
		progress = export.NewConsoleProgressCallback(cmd.ErrOrStderr(), "Exporting ")
	}

	res := exporter.Export(entries, format, output, progress)

	if asJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal result: %w", err)
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	}
	if !res.Success {
		return errors.New(res.ErrorMessage)
	}
	if !asJSON {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Exported %d images to %s (%s, %dx%d, %s)\n",
			res.Count, res.OutputPath, format.Label(), res.Width, res.Height,
			humanize.Bytes(uint64(res.Bytes))) //nolint:gosec // G115: byte counts are non-negative
	}
	return nil
}

// exportOptionsFromFlags applies export flag overrides on top of the configuration.
func exportOptionsFromFlags(cmd *cobra.Command, cfg *config.Config) export.Options {
	opts := cfg.ToExportOptions()

	if cmd.Flags().Changed("quality") {
		opts.JPEGQuality, _ = cmd.Flags().GetInt("quality")
	}
	if cmd.Flags().Changed("frame-delay") {
		ms, _ := cmd.Flags().GetInt("frame-delay")
		opts.FrameDelay = time.Duration(ms) * time.Millisecond
	}
	if cmd.Flags().Changed("loop-count") {
		opts.LoopCount, _ = cmd.Flags().GetInt("loop-count")
	}
	if cmd.Flags().Changed("pdf-encoding") {
		enc, _ := cmd.Flags().GetString("pdf-encoding")
		opts.Document.Encoding = pdf.PageEncoding(strings.ToLower(enc))
	}
	if cmd.Flags().Changed("pdf-password") {
		opts.Document.UserPassword, _ = cmd.Flags().GetString("pdf-password")
	}
	if cmd.Flags().Changed("pdf-owner-password") {
		opts.Document.OwnerPassword, _ = cmd.Flags().GetString("pdf-owner-password")
	}
	if cmd.Flags().Changed("atomic") {
		opts.Atomic, _ = cmd.Flags().GetBool("atomic")
	}

	return opts
}

// resolveFormat prefers an explicit tag and falls back to the output extension.
func resolveFormat(tag, output string) (export.Format, error) {
	if tag != "" {
		return export.ParseFormat(tag)
	}
	return export.FormatForPath(output)
}

// collectEntries builds the export list from positional arguments, or from the
// queue manifest when there are none.
func collectEntries(cmd *cobra.Command, cfg *config.Config, args []string) ([]queue.Entry, error) {
	if len(args) == 0 {
		manifest := cfg.Queue.Manifest
		q, err := queue.LoadManifest(manifest)
		if err != nil {
			return nil, err
		}
		return queue.ResolvePaths(manifest, q.Snapshot()), nil
	}

	recursive := cfg.Queue.Recursive
	if cmd.Flags().Changed("recursive") {
		recursive, _ = cmd.Flags().GetBool("recursive")
	}

	var entries []queue.Entry
	for _, arg := range args {
		path, rotation, err := parseEntryArg(arg)
		if err != nil {
			return nil, err
		}

		// Plain files go through unchecked so that unreadable ones surface as
		// decode errors with their queue position.
		info, statErr := os.Stat(path)
		if statErr != nil || !info.IsDir() {
			entries = append(entries, queue.Entry{Path: path, Rotation: rotation})
			continue
		}

		files, err := queue.Discover([]string{path}, queue.DiscoverOptions{Recursive: recursive})
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			entries = append(entries, queue.Entry{Path: f, Rotation: rotation})
		}
	}
	return entries, nil
}

// parseEntryArg splits an optional "@degrees" rotation suffix from a path.
// A suffix that is not a number is treated as part of the file name.
func parseEntryArg(arg string) (string, int, error) {
	idx := strings.LastIndex(arg, "@")
	if idx <= 0 {
		return arg, 0, nil
	}
	degrees, err := strconv.Atoi(arg[idx+1:])
	if err != nil {
		return arg, 0, nil
	}
	if degrees%queue.RotationStep != 0 {
		return "", 0, fmt.Errorf("invalid rotation %d in %q (must be a multiple of %d)", degrees, arg, queue.RotationStep)
	}
	return arg[:idx], queue.NormalizeRotation(degrees), nil
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringP("output", "o", "", "output file path (required)")
	exportCmd.Flags().StringP("format", "f", "", "output format: jpg, gif or pdf (default: from output extension)")
	exportCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories of directory arguments")
	exportCmd.Flags().Int("quality", 90, "JPEG quality for stacked output (1-100)")
	exportCmd.Flags().Int("frame-delay", 500, "GIF frame delay in milliseconds")
	exportCmd.Flags().Int("loop-count", 0, "GIF loop count (0 = forever, -1 = play once)")
	exportCmd.Flags().String("pdf-encoding", "jpeg", "PDF page image encoding: jpeg or png")
	exportCmd.Flags().String("pdf-password", "", "encrypt the PDF with this user password")
	exportCmd.Flags().String("pdf-owner-password", "", "PDF owner password")
	exportCmd.Flags().Bool("atomic", true, "write to a temporary file and rename it into place")
	exportCmd.Flags().Bool("progress", false, "show a progress bar on stderr")
	exportCmd.Flags().Bool("json", false, "print the export result as JSON")

	_ = exportCmd.MarkFlagRequired("output")
}
