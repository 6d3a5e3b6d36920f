package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ucicrawl/ucicrawl/internal/config"
	"github.com/ucicrawl/ucicrawl/internal/database"
	"github.com/ucicrawl/ucicrawl/internal/model"
	"github.com/ucicrawl/ucicrawl/internal/report"
	"github.com/ucicrawl/ucicrawl/internal/tokenizer"
)

// NewReportCmd creates the report command.
func NewReportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize the collected pages",
		Long: `Report summarizes the pages stored by previous crawls:
- The number of unique pages
- The longest page in terms of words
- The most common words, stop words excluded
- The number of pages per subdomain of the report domain

Examples:
  # Plain text report of the stored crawl
  ucicrawl report

  # Markdown report written to a file
  ucicrawl report --markdown -o report.md

  # JSON report built from a results file instead of the database
  ucicrawl report --json --from-results results.txt

  # Word frequencies of a local text file
  ucicrawl report --words notes.txt`,
		Args: cobra.NoArgs,
		RunE: runReportCmd,
	}

	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Int(config.FlagTop, config.DefaultTopWords,
		"Number of most common words to list")
	cmd.Flags().String(config.FlagDomain, config.DefaultReportDomain,
		"Domain whose subdomains are counted (empty counts every host)")
	cmd.Flags().String(config.FlagDBDir, config.XDGDataDir(),
		"Directory of the crawl database")
	cmd.Flags().String("from-results", "",
		"Build the report from a results file instead of the database")
	cmd.Flags().String("words", "",
		"Print the word frequencies of a local text file and exit")
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .ucicrawl in current or home directory)")

	return cmd
}

// runReportCmd executes the report command.
func runReportCmd(cmd *cobra.Command, _ []string) error {
	wordsFile, err := cmd.Flags().GetString("words")
	if err != nil {
		return err
	}
	if wordsFile != "" {
		return printWordFrequencies(cmd.OutOrStdout(), wordsFile)
	}

	cfg, err := buildReportConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.ValidateReport(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	fromResults, err := cmd.Flags().GetString("from-results")
	if err != nil {
		return err
	}

	var snap model.Snapshot
	if fromResults != "" {
		snap, err = loadResults(fromResults)
	} else {
		snap, err = loadStoredSnapshot(cmd, cfg.DBDir)
	}
	if err != nil {
		return err
	}

	summary := report.Summarize(snap, report.Options{
		TopWords: cfg.TopWords,
		Domain:   cfg.ReportDomain,
	})
	return outputReport(cmd.OutOrStdout(), cfg, summary)
}

// buildReportConfig creates a Config from the report flags and the
// configuration file.
func buildReportConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}
	if cfg.TopWords, err = flags.GetInt(config.FlagTop); err != nil {
		return nil, err
	}
	if cfg.ReportDomain, err = flags.GetString(config.FlagDomain); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString(config.FlagDBDir); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}

	if err := applyConfigFile(cmd, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadStoredSnapshot reads the corpus statistics from the crawl database.
func loadStoredSnapshot(cmd *cobra.Command, dbDir string) (model.Snapshot, error) {
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	snap, _, err := db.LoadSnapshot(cmd.Context())
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to load stored pages: %w", err)
	}
	return snap, nil
}

// loadResults reads a results file written by a crawl checkpoint.
func loadResults(path string) (model.Snapshot, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided results path is intentional
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to open results file: %w", err)
	}
	defer f.Close()

	snap, err := report.ReadResults(f)
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return snap, nil
}

// printWordFrequencies tokenizes a local file and prints its word counts.
func printWordFrequencies(out io.Writer, path string) error {
	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	tokens, err := tokenizer.Tokenize(f)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	return tokenizer.WriteFrequencies(out, tokenizer.ComputeWordFrequencies(tokens))
}

// outputReport renders the summary to the report file or to stdout.
func outputReport(stdout io.Writer, cfg *config.Config, summary *report.Summary) error {
	output := stdout
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	writer, err := report.NewWriter(cfg.ReportFormat(), output)
	if err != nil {
		return err
	}
	_, err = writer.Write(summary)
	return err
}
