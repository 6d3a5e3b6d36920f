package main

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ucicrawl/ucicrawl/internal/config"
)

//go:embed templates/ucicrawl.yaml
var configTemplate embed.FS

// configFileName is the default configuration file name.
const configFileName = config.DefaultConfigFile

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize a new ucicrawl configuration file",
		Long: `Initialize creates a new .ucicrawl configuration file in the current directory.

The generated file documents every setting with its default value:
- Seeds and the allowed domains
- Politeness delay, workers and timeouts
- Page admission bounds and near-duplicate detection
- Report defaults

Examples:
  # Create .ucicrawl in current directory
  ucicrawl init

  # Create config file at a specific path
  ucicrawl init -o ~/.config/ucicrawl/config.yaml

  # Force overwrite existing file
  ucicrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", configFileName,
		"Output file path for the configuration")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite existing configuration file")

	return cmd
}

// runInitCmd executes the init command.
func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}

	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	content, err := configTemplate.ReadFile("templates/ucicrawl.yaml")
	if err != nil {
		return fmt.Errorf("failed to read config template: %w", err)
	}

	dir := filepath.Dir(outputPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	if err := os.WriteFile(outputPath, content, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to change settings such as:")
	fmt.Fprintln(out, "  - Seed URLs and allowed domains")
	fmt.Fprintln(out, "  - Politeness delay and number of workers")
	fmt.Fprintln(out, "  - Page admission and near-duplicate thresholds")
	fmt.Fprintln(out, "\nCommand line flags always override values from the file.")

	return nil
}
