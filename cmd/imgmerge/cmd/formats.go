package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/MeKo-Tech/imgmerge/internal/export"
	"github.com/spf13/cobra"
)

type formatRow struct {
	Tag         string `json:"tag"`
	Extension   string `json:"extension"`
	ContentType string `json:"content_type"`
	Label       string `json:"label"`
}

// formatsCmd lists the export formats.
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported export formats",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all := export.AllFormats()
		list := make([]formatRow, 0, len(all))
		for _, f := range all {
			list = append(list, formatRow{
				Tag:         f.String(),
				Extension:   f.Extension(),
				ContentType: f.ContentType(),
				Label:       f.Label(),
			})
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			data, err := json.MarshalIndent(list, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to marshal formats: %w", err)
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		}

		rows := make([][]string, 0, len(list))
		for _, f := range list {
			rows = append(rows, []string{f.Tag, f.Extension, f.ContentType, f.Label})
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), renderTable(
			[]string{"Format", "Extension", "Content-Type", "Description"},
			rows,
			nil,
		))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
	formatsCmd.Flags().Bool("json", false, "print formats as JSON")
}
