package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	ucilog "github.com/ucicrawl/ucicrawl/internal/log"
)

// NewRootCmd creates the root command for ucicrawl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ucicrawl",
		Short: "Polite web crawler for the UCI academic domains",
		Long: `ucicrawl crawls the ics.uci.edu, cs.uci.edu, informatics.uci.edu and
stat.uci.edu web sites. It honours robots.txt and per-host delays, skips
near-duplicate pages and records word statistics for every page it keeps.

Crawl state lives in a SQLite database, so an interrupted crawl resumes
where it stopped. Use 'ucicrawl report' to summarize what was collected.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-log", false, "Write logs as JSON lines")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewReportCmd())
	cmd.AddCommand(NewRunsCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// getJSONLogFlag retrieves the json-log flag from the command or its parent.
func getJSONLogFlag(cmd *cobra.Command) bool {
	jsonLog, err := cmd.Flags().GetBool("json-log")
	if err != nil {
		jsonLog, err = cmd.Root().PersistentFlags().GetBool("json-log")
		if err != nil {
			return false
		}
	}
	return jsonLog
}

// setupLogger creates the redacting logger for the command's flags.
// Logs go to the command's error stream so reports on stdout stay clean.
func setupLogger(cmd *cobra.Command) *slog.Logger {
	w := cmd.ErrOrStderr()
	if getJSONLogFlag(cmd) {
		return ucilog.NewJSONLogger(w, getVerboseFlag(cmd))
	}
	return ucilog.NewLogger(w, getVerboseFlag(cmd))
}
