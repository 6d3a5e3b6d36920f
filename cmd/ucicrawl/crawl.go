package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ucicrawl/ucicrawl/internal/config"
	"github.com/ucicrawl/ucicrawl/internal/corpus"
	"github.com/ucicrawl/ucicrawl/internal/crawler"
	"github.com/ucicrawl/ucicrawl/internal/database"
	"github.com/ucicrawl/ucicrawl/internal/fetcher"
	"github.com/ucicrawl/ucicrawl/internal/frontier"
	"github.com/ucicrawl/ucicrawl/internal/metrics"
	"github.com/ucicrawl/ucicrawl/internal/model"
	"github.com/ucicrawl/ucicrawl/internal/report"
	"github.com/ucicrawl/ucicrawl/internal/robots"
	"github.com/ucicrawl/ucicrawl/internal/simhash"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [seed-url...]",
		Short: "Crawl the UCI academic web sites",
		Long: `Crawl downloads pages inside the allowed domains, starting from the seed URLs.

For every page it:
- Checks robots.txt and waits out the per-host politeness delay
- Extracts visible words and follows links that stay in scope
- Skips pages that are too short, too long or near-duplicates of pages
  already collected

The frontier and the collected pages are stored in a SQLite database, so an
interrupted crawl continues where it stopped. Seeds are only queued when the
stored frontier is empty or --restart is given.

Examples:
  # Crawl from the default seeds
  ucicrawl crawl

  # Crawl a single department with eight workers
  ucicrawl crawl -w 8 https://www.stat.uci.edu

  # Start over, discarding the stored frontier and pages
  ucicrawl crawl --restart

  # Route all requests through a caching proxy and expose metrics
  ucicrawl crawl --proxy http://127.0.0.1:3128 --metrics-addr 127.0.0.1:9090`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Politeness and transport flags
	cmd.Flags().IntP(config.FlagWorkers, "w", config.DefaultWorkers,
		"Number of concurrent workers")
	cmd.Flags().Duration(config.FlagDelay, config.DefaultDelay,
		"Per-host delay when robots.txt sets no crawl-delay")
	cmd.Flags().Duration(config.FlagTimeout, config.DefaultTimeout,
		"Timeout for each download")
	cmd.Flags().Int64(config.FlagMaxBodySize, config.DefaultMaxBodySize,
		"Maximum response body size in bytes")
	cmd.Flags().String(config.FlagUserAgent, config.DefaultUserAgent,
		"User-Agent header sent with every request")
	cmd.Flags().String(config.FlagProxy, "",
		"Proxy or cache server (http://, https:// or socks5://host:port)")

	// Page admission flags
	cmd.Flags().Int(config.FlagMinTokens, config.DefaultMinUniqueTokens,
		"Minimum number of distinct words of an accepted page")
	cmd.Flags().Int(config.FlagMaxTokens, config.DefaultMaxUniqueTokens,
		"Maximum number of distinct words of an accepted page (0 = no limit)")
	cmd.Flags().Int(config.FlagThreshold, simhash.DefaultThreshold,
		"Largest fingerprint distance treated as a near duplicate")
	cmd.Flags().Int(config.FlagNGram, simhash.DefaultNGram,
		"Number of consecutive words in one fingerprint feature")
	cmd.Flags().Int(config.FlagBits, simhash.DefaultBits,
		"Fingerprint width in bits")

	// State and output flags
	cmd.Flags().String(config.FlagDBDir, config.XDGDataDir(),
		"Directory of the crawl database")
	cmd.Flags().Bool("restart", false,
		"Discard the stored frontier and pages and start from the seeds")
	cmd.Flags().String(config.FlagResults, config.DefaultResultsFile,
		"Results file rewritten at every checkpoint")
	cmd.Flags().Int(config.FlagCheckpointEvery, config.DefaultCheckpointEvery,
		"Rewrite the results file every N accepted pages")
	cmd.Flags().Int(config.FlagTop, config.DefaultTopWords,
		"Number of common words written to the results file")
	cmd.Flags().String(config.FlagMetricsAddr, "",
		"Serve Prometheus metrics on this address (e.g., 127.0.0.1:9090)")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .ucicrawl in current or home directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildCrawlConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cmd)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal, finishing in-flight pages...")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), logger)
}

// buildCrawlConfig creates a Config from defaults, the configuration file
// and the command line, in increasing order of precedence.
func buildCrawlConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	var err error
	if cfg.Workers, err = flags.GetInt(config.FlagWorkers); err != nil {
		return nil, err
	}
	if cfg.DefaultDelay, err = flags.GetDuration(config.FlagDelay); err != nil {
		return nil, err
	}
	if cfg.Timeout, err = flags.GetDuration(config.FlagTimeout); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64(config.FlagMaxBodySize); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString(config.FlagUserAgent); err != nil {
		return nil, err
	}
	if cfg.Proxy, err = flags.GetString(config.FlagProxy); err != nil {
		return nil, err
	}
	if cfg.MinUniqueTokens, err = flags.GetInt(config.FlagMinTokens); err != nil {
		return nil, err
	}
	if cfg.MaxUniqueTokens, err = flags.GetInt(config.FlagMaxTokens); err != nil {
		return nil, err
	}
	if cfg.HammingThreshold, err = flags.GetInt(config.FlagThreshold); err != nil {
		return nil, err
	}
	if cfg.NGram, err = flags.GetInt(config.FlagNGram); err != nil {
		return nil, err
	}
	if cfg.FingerprintBits, err = flags.GetInt(config.FlagBits); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString(config.FlagDBDir); err != nil {
		return nil, err
	}
	if cfg.Restart, err = flags.GetBool("restart"); err != nil {
		return nil, err
	}
	if cfg.ResultsFile, err = flags.GetString(config.FlagResults); err != nil {
		return nil, err
	}
	if cfg.CheckpointEvery, err = flags.GetInt(config.FlagCheckpointEvery); err != nil {
		return nil, err
	}
	if cfg.TopWords, err = flags.GetInt(config.FlagTop); err != nil {
		return nil, err
	}
	if cfg.MetricsAddr, err = flags.GetString(config.FlagMetricsAddr); err != nil {
		return nil, err
	}
	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)
	cfg.JSONLog = getJSONLogFlag(cmd)

	// Positional seeds win over the file; without them the file's seeds
	// are used, then the defaults.
	cfg.Seeds = nil
	for _, arg := range args {
		if s := strings.TrimSpace(arg); s != "" {
			cfg.Seeds = append(cfg.Seeds, s)
		}
	}

	if err := applyConfigFile(cmd, cfg); err != nil {
		return nil, err
	}
	if len(cfg.Seeds) == 0 {
		cfg.Seeds = config.DefaultSeeds()
	}
	return cfg, nil
}

// applyConfigFile loads the configuration file, if any, into cfg.
// If the user explicitly specified a path, a missing file is an error;
// otherwise the standard locations are searched silently.
func applyConfigFile(cmd *cobra.Command, cfg *config.Config) error {
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath == "" {
		if explicitConfigPath {
			return fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
		}
		return nil
	}

	file, err := config.LoadConfigFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config file %s: %w", configPath, err)
	}
	file.Apply(cfg, cmd.Flags().Changed)
	return nil
}

// runCrawl wires the crawl components together and runs one crawl.
func runCrawl(ctx context.Context, cfg *config.Config, out io.Writer, logger *slog.Logger) error {
	validator := cfg.Validator()
	logger.Info("starting crawl",
		"seeds", cfg.Seeds,
		"domains", validator.Domains(),
		"workers", cfg.Workers,
		"restart", cfg.Restart,
		"dbDir", cfg.DBDir,
	)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()
	logger.Debug("database opened", "path", db.Path())

	if cfg.Restart {
		if err := db.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset database: %w", err)
		}
	}

	hasher, err := cfg.Hasher()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	c := corpus.New(corpus.Options{
		MinUniqueTokens:  cfg.MinUniqueTokens,
		MaxUniqueTokens:  cfg.MaxUniqueTokens,
		HammingThreshold: cfg.HammingThreshold,
	})
	if !cfg.Restart {
		snap, prints, err := db.LoadSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("failed to load stored pages: %w", err)
		}
		c.Restore(snap, prints)
	}

	f, err := frontier.Open(ctx, frontier.WithStore(db))
	if err != nil {
		return fmt.Errorf("failed to open frontier: %w", err)
	}
	if f.Known() == 0 {
		for _, seed := range cfg.Seeds {
			if err := f.Add(ctx, seed); err != nil {
				return fmt.Errorf("failed to queue seed %s: %w", seed, err)
			}
		}
	} else {
		logger.Info("resuming crawl",
			"queued", f.Len(),
			"completed", f.Completed(),
			"pages", c.Len(),
		)
	}

	fetch, err := fetcher.New(
		fetcher.WithTimeout(cfg.Timeout),
		fetcher.WithMaxBodySize(cfg.MaxBodySize),
		fetcher.WithUserAgent(cfg.UserAgent),
		fetcher.WithProxy(cfg.Proxy),
	)
	if err != nil {
		return fmt.Errorf("failed to create fetcher: %w", err)
	}
	if err := fetch.CheckProxy(ctx); err != nil {
		return fmt.Errorf("proxy check failed: %w (make sure the proxy is running at %s)", err, cfg.Proxy)
	}

	gate := robots.NewGate(
		robots.WithHTTPClient(fetch.Client()),
		robots.WithUserAgent(fetch.UserAgent()),
		robots.WithDefaultDelay(cfg.DefaultDelay),
		robots.WithLogger(logger),
	)

	processor := crawler.NewProcessor(c, validator, hasher, gate.DelayFor, logger)

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		metricsCtx, stopMetrics := context.WithCancel(ctx)
		defer stopMetrics()
		go func() {
			if err := m.Serve(metricsCtx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	runID, err := db.StartRun(ctx, cfg.Workers, cfg.Seeds)
	if err != nil {
		return fmt.Errorf("failed to record crawl run: %w", err)
	}

	cr := crawler.New(f, fetch, gate, processor, c,
		crawler.WithWorkers(cfg.Workers),
		crawler.WithCheckpoint(cfg.CheckpointEvery, resultsCheckpoint(cfg.ResultsFile, cfg.TopWords)),
		crawler.WithPageStore(db, runID),
		crawler.WithMetrics(m),
		crawler.WithLogger(logger),
	)

	stats, runErr := cr.Run(ctx)

	if err := db.FinishRun(context.WithoutCancel(ctx), runID, c.Len()); err != nil {
		logger.Error("failed to finish crawl run", "run", runID, "error", err)
	}

	printStats(out, stats, c.Len(), cfg.ResultsFile)

	if runErr != nil {
		return fmt.Errorf("crawl failed: %w", runErr)
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		fmt.Fprintln(out, "\nCrawl interrupted; run 'ucicrawl crawl' again to resume.")
	}
	return nil
}

// resultsCheckpoint returns a checkpoint that rewrites the results file.
// The file is replaced atomically so a reader never sees a partial file.
func resultsCheckpoint(path string, topK int) crawler.CheckpointFunc {
	return func(_ context.Context, snap model.Snapshot) error {
		if path == "" {
			return nil
		}
		return writeFileAtomic(path, func(w io.Writer) error {
			return report.WriteResults(w, snap, topK)
		})
	}
}

// writeFileAtomic writes a temporary file next to path and renames it
// into place.
func writeFileAtomic(path string, write func(io.Writer) error) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if err := write(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

// printStats prints the summary of one crawl run.
func printStats(out io.Writer, stats crawler.Stats, corpusSize int, resultsFile string) {
	fmt.Fprintf(out, "Crawl finished in %s\n\n", stats.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(out, "  %-18s %d\n", "Downloaded:", stats.Downloaded)
	fmt.Fprintf(out, "  %-18s %d\n", "Accepted:", stats.Accepted)
	fmt.Fprintf(out, "  %-18s %d\n", "Robots denied:", stats.RobotsDenied)

	reasons := make([]model.Reason, 0, len(stats.Rejected))
	for r := range stats.Rejected {
		if r != model.ReasonRobotsDenied {
			reasons = append(reasons, r)
		}
	}
	sort.Slice(reasons, func(i, j int) bool { return reasons[i] < reasons[j] })
	for _, r := range reasons {
		fmt.Fprintf(out, "  %-18s %d\n", "Rejected "+r.String()+":", stats.Rejected[r])
	}

	fmt.Fprintf(out, "  %-18s %d\n", "Pages in corpus:", corpusSize)
	if resultsFile != "" {
		fmt.Fprintf(out, "\nResults written to %s\n", resultsFile)
	}
}
