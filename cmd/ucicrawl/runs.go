package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ucicrawl/ucicrawl/internal/config"
	"github.com/ucicrawl/ucicrawl/internal/database"
)

// NewRunsCmd creates the runs command.
func NewRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List the recorded crawl runs",
		Long: `Runs lists every crawl recorded in the database with its start and end
time, the number of workers and the size of the corpus when it ended.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dbDir, err := cmd.Flags().GetString(config.FlagDBDir)
			if err != nil {
				return err
			}

			db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer db.Close()

			return listRuns(cmd.Context(), cmd.OutOrStdout(), db)
		},
	}

	cmd.Flags().String(config.FlagDBDir, config.XDGDataDir(),
		"Directory of the crawl database")

	return cmd
}

// listRuns prints all crawl runs, most recent first.
func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB) error {
	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fmt.Errorf("failed to list crawl runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl runs recorded.")
		fmt.Fprintln(out, "\nUse 'ucicrawl crawl' to start crawling.")
		return nil
	}

	fmt.Fprintf(out, "Crawl runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-8s  %-19s  %-19s  %-7s  %s\n", "ID", "Started", "Finished", "Workers", "Pages")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 70))

	for _, run := range runs {
		finished := "running"
		if !run.FinishedAt.IsZero() {
			finished = run.FinishedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(out, "  %-8s  %-19s  %-19s  %-7d  %d\n",
			shortID(run.ID),
			run.StartedAt.Format("2006-01-02 15:04:05"),
			finished,
			run.Workers,
			run.PagesAccepted,
		)
	}

	return nil
}

// shortID returns the first block of a run UUID.
func shortID(id string) string {
	if i := strings.IndexByte(id, '-'); i > 0 {
		return id[:i]
	}
	return id
}
