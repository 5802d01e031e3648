package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/MeKo-Tech/imgmerge/internal/queue"
	"github.com/spf13/cobra"
)

// queueCmd groups the commands that edit the persisted queue manifest.
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Manage the ordered image queue",
	Long: `The queue is an ordered list of images with a per-image rotation. It is
stored in a YAML manifest (see --manifest) and exported with "imgmerge export".

Indexes are zero-based, as shown by "imgmerge queue list".`,
}

var queueAddCmd = &cobra.Command{
	Use:          "add <path>...",
	Short:        "Append images or directories of images to the queue",
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()

		recursive := cfg.Queue.Recursive
		if cmd.Flags().Changed("recursive") {
			recursive, _ = cmd.Flags().GetBool("recursive")
		}
		include, _ := cmd.Flags().GetStringSlice("include")
		exclude, _ := cmd.Flags().GetStringSlice("exclude")

		paths, err := queue.Discover(args, queue.DiscoverOptions{
			Recursive:       recursive,
			IncludePatterns: include,
			ExcludePatterns: exclude,
		})
		if err != nil {
			return err
		}
		for i, p := range paths {
			if abs, err := filepath.Abs(p); err == nil {
				paths[i] = abs
			}
		}

		var (
			added   int
			skipped []string
		)
		q, err := queue.UpdateManifest(cfg.Queue.Manifest, func(q *queue.Queue) error {
			added, skipped = q.Add(paths...)
			return nil
		})
		if err != nil {
			return err
		}

		for _, s := range skipped {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Skipped %s: not a supported image\n", s)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Added %d images (%d skipped), queue has %d\n", added, len(skipped), q.Len())
		return nil
	},
}

var queueListCmd = &cobra.Command{
	Use:          "list",
	Aliases:      []string{"ls"},
	Short:        "Show the queued images in export order",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := GetConfig()
		manifest := cfg.Queue.Manifest

		q, err := queue.LoadManifest(manifest)
		if err != nil {
			return err
		}
		infos := queue.Describe(queue.ResolvePaths(manifest, q.Snapshot()))

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal queue: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		if len(infos) == 0 {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty")
			return nil
		}

		rows := make([][]string, 0, len(infos))
		for _, info := range infos {
			dims, size, status := "", info.Size, "ok"
			if info.Error != "" {
				status = info.Error
			} else {
				dims = fmt.Sprintf("%dx%d", info.Width, info.Height)
			}
			rows = append(rows, []string{
				strconv.Itoa(info.Index),
				info.Name,
				fmt.Sprintf("%d°", info.Rotation),
				dims,
				size,
				status,
			})
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"#", "Name", "Rotation", "Size", "Bytes", "Status"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
		))
		return nil
	},
}

var queueRemoveCmd = &cobra.Command{
	Use:          "remove <index>",
	Aliases:      []string{"rm"},
	Short:        "Remove one image from the queue",
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}

		var removed queue.Entry
		q, err := queue.UpdateManifest(GetConfig().Queue.Manifest, func(q *queue.Queue) error {
			entry, err := q.At(index)
			if err != nil {
				return err
			}
			removed = entry
			return q.Remove(index)
		})
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Removed %s, queue has %d\n", filepath.Base(removed.Path), q.Len())
		return nil
	},
}

var queueMoveCmd = &cobra.Command{
	Use:          "move <from> <to>",
	Aliases:      []string{"mv"},
	Short:        "Move an image to another position in the queue",
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		to, err := parseIndex(args[1])
		if err != nil {
			return err
		}

		_, err = queue.UpdateManifest(GetConfig().Queue.Manifest, func(q *queue.Queue) error {
			return q.Move(from, to)
		})
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Moved image %d to position %d\n", from, to)
		return nil
	},
}

var queueRotateCmd = &cobra.Command{
	Use:   "rotate <index>",
	Short: "Rotate one queued image by a quarter turn",
	Long: `Rotate adds a quarter turn to the stored rotation of one image. The image
file itself is not modified; the rotation is applied during export.

Examples:
  imgmerge queue rotate 0
  imgmerge queue rotate 3 --step -90`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := parseIndex(args[0])
		if err != nil {
			return err
		}
		step, _ := cmd.Flags().GetInt("step")

		var rotation int
		_, err = queue.UpdateManifest(GetConfig().Queue.Manifest, func(q *queue.Queue) error {
			r, err := q.Rotate(index, step)
			rotation = r
			return err
		})
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Image %d rotation is now %d°\n", index, rotation)
		return nil
	},
}

var queueClearCmd = &cobra.Command{
	Use:          "clear",
	Short:        "Remove every image from the queue",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		var removed int
		_, err := queue.UpdateManifest(GetConfig().Queue.Manifest, func(q *queue.Queue) error {
			removed = q.Len()
			q.Clear()
			return nil
		})
		if err != nil {
			return err
		}

		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d images from the queue\n", removed)
		return nil
	},
}

func parseIndex(s string) (int, error) {
	index, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q: must be a number", s)
	}
	return index, nil
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueAddCmd, queueListCmd, queueRemoveCmd, queueMoveCmd, queueRotateCmd, queueClearCmd)

	queueAddCmd.Flags().BoolP("recursive", "r", false, "descend into subdirectories")
	queueAddCmd.Flags().StringSlice("include", nil, "only add files matching these glob patterns")
	queueAddCmd.Flags().StringSlice("exclude", nil, "skip files matching these glob patterns")

	queueListCmd.Flags().Bool("json", false, "print the queue as JSON")

	queueRotateCmd.Flags().Int("step", queue.RotationStep, "rotation step in degrees: 90 (clockwise) or -90")
}
