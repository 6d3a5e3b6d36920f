package config

import (
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"

	"github.com/ucicrawl/ucicrawl/internal/simhash"
	"github.com/ucicrawl/ucicrawl/internal/urlnorm"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "ucicrawl"

	// DefaultWorkers is the number of concurrent crawl workers. Requests to
	// one host are spaced by the politeness delay no matter how many workers
	// run, so extra workers only help when the frontier spans several hosts.
	DefaultWorkers = 4

	// DefaultDelay is the pause between two requests to the same host when
	// robots.txt does not declare a crawl-delay.
	DefaultDelay = 500 * time.Millisecond

	// DefaultMinUniqueTokens rejects navigation stubs and empty pages.
	DefaultMinUniqueTokens = 50

	// DefaultMaxUniqueTokens rejects data dumps and generated listings.
	DefaultMaxUniqueTokens = 10000

	// DefaultTimeout bounds a single page download.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultCheckpointEvery is the number of accepted pages between two
	// rewrites of the results file.
	DefaultCheckpointEvery = 25

	// DefaultTopWords is the number of common words listed in reports.
	DefaultTopWords = 50

	// DefaultUserAgent identifies the crawler to web servers and is the
	// agent name matched against robots.txt groups.
	DefaultUserAgent = "ucicrawl/1.0 (+https://github.com/ucicrawl/ucicrawl)"

	// DefaultReportDomain is the domain whose subdomains reports count.
	DefaultReportDomain = "ics.uci.edu"

	// DefaultResultsFile is the checkpoint results file name.
	DefaultResultsFile = "results.txt"

	// DefaultReportFormat is the report format used without --json or --markdown.
	DefaultReportFormat = "text"
)

// Config holds all configuration options for ucicrawl.
// This struct is populated from defaults, the configuration file and CLI
// flags, in that order, and passed through the application explicitly.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, ReportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Seeds are the start URLs. They are only queued when the frontier is
	// empty or the crawl is restarted.
	Seeds []string

	// Workers is the number of concurrent crawl workers.
	Workers int

	// DefaultDelay is the per-host delay used without a robots.txt crawl-delay.
	DefaultDelay time.Duration

	// MinUniqueTokens and MaxUniqueTokens bound the number of distinct
	// tokens an accepted page may have. MaxUniqueTokens 0 means unbounded.
	MinUniqueTokens int
	MaxUniqueTokens int

	// HammingThreshold is the largest fingerprint distance still considered
	// a near duplicate.
	HammingThreshold int

	// NGram is the number of consecutive tokens in one simhash feature.
	NGram int

	// FingerprintBits is the simhash fingerprint width.
	FingerprintBits int

	// Timeout bounds a single download.
	Timeout time.Duration

	// MaxBodySize is the maximum response body size in bytes to read.
	// Larger responses are truncated.
	MaxBodySize int64

	UserAgent string

	// Proxy is an optional http://, https:// or socks5:// proxy (or cache
	// server) all page downloads go through.
	Proxy string

	// AllowedDomains are the host suffixes the crawl stays inside.
	AllowedDomains []string

	// DeniedExtensions are path extensions that are never downloaded.
	DeniedExtensions []string

	// DBDir is the directory of the SQLite database holding the frontier,
	// accepted pages and crawl history.
	// Defaults to XDG data directory (~/.local/share/ucicrawl on Linux).
	DBDir string

	// Restart discards the stored frontier and corpus before crawling.
	Restart bool

	// ResultsFile is rewritten every CheckpointEvery accepted pages and at
	// the end of the crawl.
	ResultsFile     string
	CheckpointEvery int

	// MetricsAddr, when set, serves Prometheus metrics on this address.
	MetricsAddr string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches the log output to JSON lines.
	JSONLog bool

	// ConfigFilePath is the path to the configuration file.
	// If empty, the standard locations are searched (see FindConfigFile).
	ConfigFilePath string

	// ReportDomain restricts the report's subdomain histogram.
	ReportDomain string

	// TopWords is the number of common words listed in reports and in the
	// results file.
	TopWords int

	// JSONReport and MarkdownReport select the report format.
	// They are mutually exclusive; neither means plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string
}

// DefaultSeeds returns the root page of every default allowed domain.
func DefaultSeeds() []string {
	seeds := make([]string, 0, len(urlnorm.DefaultAllowedDomains))
	for _, d := range urlnorm.DefaultAllowedDomains {
		seeds = append(seeds, "https://www"+d)
	}
	return seeds
}

// NewConfig creates a new Config with default values.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (e.g., workers, bounds).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		Seeds:            DefaultSeeds(),
		Workers:          DefaultWorkers,
		DefaultDelay:     DefaultDelay,
		MinUniqueTokens:  DefaultMinUniqueTokens,
		MaxUniqueTokens:  DefaultMaxUniqueTokens,
		HammingThreshold: simhash.DefaultThreshold,
		NGram:            simhash.DefaultNGram,
		FingerprintBits:  simhash.DefaultBits,
		Timeout:          DefaultTimeout,
		MaxBodySize:      DefaultMaxBodySize,
		UserAgent:        DefaultUserAgent,
		AllowedDomains:   append([]string(nil), urlnorm.DefaultAllowedDomains...),
		DeniedExtensions: append([]string(nil), urlnorm.DefaultDeniedExtensions...),
		DBDir:            XDGDataDir(),
		ResultsFile:      DefaultResultsFile,
		CheckpointEvery:  DefaultCheckpointEvery,
		ReportDomain:     DefaultReportDomain,
		TopWords:         DefaultTopWords,
	}
}

// XDGDataDir returns the XDG data directory for ucicrawl.
// On Linux: ~/.local/share/ucicrawl
// On macOS: ~/Library/Application Support/ucicrawl
// On Windows: %LOCALAPPDATA%\ucicrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for ucicrawl.
// On Linux: ~/.config/ucicrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validator builds the URL validator for the configured scope.
func (c *Config) Validator() *urlnorm.Validator {
	return urlnorm.NewValidator(c.AllowedDomains, c.DeniedExtensions)
}

// Hasher builds the simhash hasher for the configured fingerprint shape.
func (c *Config) Hasher() (*simhash.Hasher, error) {
	return simhash.New(c.NGram, c.FingerprintBits)
}

// ReportFormat returns the selected report format name.
func (c *Config) ReportFormat() string {
	switch {
	case c.JSONReport:
		return "json"
	case c.MarkdownReport:
		return "markdown"
	default:
		return DefaultReportFormat
	}
}

// Validate checks if the configuration is valid for a crawl.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate at the config level rather than at each
// point of use to fail fast and provide clear error messages upfront.
// We return the first error found because fixing one error often makes
// others irrelevant.
func (c *Config) Validate() error {
	if len(c.AllowedDomains) == 0 {
		return ErrNoAllowedDomains
	}
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	v := c.Validator()
	for _, seed := range c.Seeds {
		if !v.IsValid(strings.TrimSpace(seed)) {
			return &SeedError{Seed: seed}
		}
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.DefaultDelay < 0 {
		return ErrInvalidDelay
	}
	if c.MinUniqueTokens < 0 || c.MaxUniqueTokens < 0 ||
		(c.MaxUniqueTokens > 0 && c.MinUniqueTokens > c.MaxUniqueTokens) {
		return ErrInvalidTokenBounds
	}
	if c.NGram <= 0 {
		return ErrInvalidNGram
	}
	if c.FingerprintBits <= 0 || c.FingerprintBits > simhash.MaxBits {
		return ErrInvalidFingerprintBits
	}
	if c.HammingThreshold < 0 || c.HammingThreshold > c.FingerprintBits {
		return ErrInvalidThreshold
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxBodySize <= 0 {
		return ErrInvalidMaxBodySize
	}
	if c.CheckpointEvery < 0 {
		return ErrInvalidCheckpoint
	}
	if c.TopWords < 0 {
		return ErrInvalidTopWords
	}
	return nil
}

// ValidateReport checks the options the report command uses.
func (c *Config) ValidateReport() error {
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.TopWords < 0 {
		return ErrInvalidTopWords
	}
	return nil
}

// SeedError reports a seed URL that falls outside the crawl scope.
type SeedError struct {
	Seed string
}

func (e *SeedError) Error() string {
	if u, err := url.Parse(e.Seed); err == nil && u.Host != "" {
		return ErrInvalidSeed.Error() + ": " + e.Seed + " (host " + u.Hostname() + ")"
	}
	return ErrInvalidSeed.Error() + ": " + e.Seed
}

// Unwrap lets errors.Is match ErrInvalidSeed.
func (e *SeedError) Unwrap() error {
	return ErrInvalidSeed
}
