package cmd

import (
	"fmt"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/MeKo-Tech/imgmerge/internal/queue"
	"github.com/MeKo-Tech/imgmerge/internal/utils"
	"github.com/spf13/cobra"
)

// previewCmd renders a thumbnail of one image with its rotation applied.
var previewCmd = &cobra.Command{
	Use:   "preview [file]",
	Short: "Write a scaled thumbnail of one queued image",
	Long: `Preview writes a thumbnail of one image as it will appear in an export:
transparency flattened, rotation applied, scaled to fit the bounding box.

Without a file argument the image at --index in the queue is used.

Examples:
  imgmerge preview --index 2 -o thumb.png
  imgmerge preview photo.jpg --rotation 90 -o thumb.png --max-width 200`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		output, _ := cmd.Flags().GetString("output")

		maxWidth := cfg.Preview.MaxWidth
		if cmd.Flags().Changed("max-width") {
			maxWidth, _ = cmd.Flags().GetInt("max-width")
		}
		maxHeight := cfg.Preview.MaxHeight
		if cmd.Flags().Changed("max-height") {
			maxHeight, _ = cmd.Flags().GetInt("max-height")
		}

		var entry queue.Entry
		if len(args) == 1 {
			rotation, _ := cmd.Flags().GetInt("rotation")
			if rotation%queue.RotationStep != 0 {
				return fmt.Errorf("invalid rotation %d (must be a multiple of %d)", rotation, queue.RotationStep)
			}
			entry = queue.Entry{Path: args[0], Rotation: queue.NormalizeRotation(rotation)}
		} else {
			index, _ := cmd.Flags().GetInt("index")
			manifest := cfg.Queue.Manifest
			q, err := queue.LoadManifest(manifest)
			if err != nil {
				return err
			}
			e, err := q.At(index)
			if err != nil {
				return err
			}
			entry = queue.ResolvePaths(manifest, []queue.Entry{e})[0]
		}

		thumb, err := export.Preview(entry, maxWidth, maxHeight)
		if err != nil {
			return err
		}
		if err := utils.SaveImage(output, thumb); err != nil {
			return err
		}

		b := thumb.Bounds()
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Preview written to %s (%dx%d)\n", output, b.Dx(), b.Dy())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(previewCmd)
	previewCmd.Flags().StringP("output", "o", "", "output image path (required)")
	previewCmd.Flags().IntP("index", "i", 0, "queue index of the image to preview")
	previewCmd.Flags().Int("rotation", 0, "clockwise rotation for a file argument")
	previewCmd.Flags().Int("max-width", 400, "maximum thumbnail width")
	previewCmd.Flags().Int("max-height", 400, "maximum thumbnail height")

	_ = previewCmd.MarkFlagRequired("output")
}
