package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/MeKo-Tech/imgmerge/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const maskedSecret = "********"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or create the configuration file",
}

var configShowCmd = &cobra.Command{
	Use:          "show",
	Short:        "Print the resolved configuration",
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := *GetConfig()
		if cfg.Export.PDFUserPassword != "" {
			cfg.Export.PDFUserPassword = maskedSecret
		}
		if cfg.Export.PDFOwnerPassword != "" {
			cfg.Export.PDFOwnerPassword = maskedSecret
		}

		format, _ := cmd.Flags().GetString("format")
		var (
			data []byte
			err  error
		)
		switch format {
		case "yaml", "yml":
			data, err = yaml.Marshal(cfg)
		case "json":
			data, err = json.MarshalIndent(cfg, "", "  ")
			data = append(data, '\n')
		default:
			return fmt.Errorf("unsupported output format: %s (must be yaml or json)", format)
		}
		if err != nil {
			return fmt.Errorf("failed to marshal configuration: %w", err)
		}

		if sources, _ := cmd.Flags().GetBool("sources"); sources {
			GetConfigLoader().PrintConfigInfo(cmd.ErrOrStderr())
		}
		_, _ = cmd.OutOrStdout().Write(data)
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a configuration file with default values",
	Long: `Init writes every setting with its default value, ready for editing.
The default file name is imgmerge.yaml in the current directory.`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		filename := config.ConfigFileName + ".yaml"
		if len(args) == 1 {
			filename = args[0]
		}

		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(filename); err == nil && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", filename)
		} else if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}

		if err := config.GenerateDefaultConfigFile(filename); err != nil {
			return fmt.Errorf("failed to write configuration: %w", err)
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote default configuration to %s\n", filename)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configInitCmd)

	configShowCmd.Flags().String("format", "yaml", "output format: yaml or json")
	configShowCmd.Flags().Bool("sources", false, "also print the config file and search paths to stderr")
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")
}
