package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ucicrawl/ucicrawl/internal/config"
	"github.com/ucicrawl/ucicrawl/internal/crawler"
	"github.com/ucicrawl/ucicrawl/internal/model"
	"github.com/ucicrawl/ucicrawl/internal/report"
)

// words returns n distinct words sharing prefix.
func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("%s%c%c", prefix, 'a'+i/26, 'a'+i%26)
	}
	return strings.Join(parts, " ")
}

// newTestSite serves a two page site: / links /about, /about links back.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", http.NotFound)
	mux.HandleFunc("/{$}", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><head><title>Home</title></head><body><p>%s</p><a href="/about">About</a></body></html>`,
			words("home", 20))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<html><body><p>%s</p><a href="/">Home</a></body></html>`,
			words("about", 30))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// writeTestConfig writes a configuration file that allows only the test
// server's host.
func writeTestConfig(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "allowed_domains:\n  - 127.0.0.1\ndelay: 0s\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestNewCrawlCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCrawlCmd()
	tests := []struct {
		name      string
		shorthand string
		defValue  string
	}{
		{name: config.FlagWorkers, shorthand: "w", defValue: "4"},
		{name: config.FlagDelay, defValue: "500ms"},
		{name: config.FlagMinTokens, defValue: "50"},
		{name: config.FlagMaxTokens, defValue: "10000"},
		{name: config.FlagThreshold, defValue: "5"},
		{name: config.FlagNGram, defValue: "3"},
		{name: config.FlagBits, defValue: "64"},
		{name: config.FlagTimeout, defValue: "30s"},
		{name: config.FlagProxy, defValue: ""},
		{name: "restart", defValue: "false"},
		{name: config.FlagResults, defValue: config.DefaultResultsFile},
		{name: config.FlagCheckpointEvery, defValue: "25"},
		{name: "config", shorthand: "c", defValue: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			flag := cmd.Flags().Lookup(tt.name)
			if flag == nil {
				t.Fatalf("expected %s flag", tt.name)
			}
			if flag.Shorthand != tt.shorthand {
				t.Errorf("shorthand = %q, want %q", flag.Shorthand, tt.shorthand)
			}
			if flag.DefValue != tt.defValue {
				t.Errorf("default = %q, want %q", flag.DefValue, tt.defValue)
			}
		})
	}
}

func TestBuildCrawlConfig(t *testing.T) {
	t.Parallel()

	t.Run("positional seeds", func(t *testing.T) {
		t.Parallel()
		cmd := NewCrawlCmd()
		cmdCfg := writeTestConfig(t)
		if err := cmd.ParseFlags([]string{"--config", cmdCfg, "-w", "7"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildCrawlConfig(cmd, []string{" http://127.0.0.1/start ", ""})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(cfg.Seeds) != 1 || cfg.Seeds[0] != "http://127.0.0.1/start" {
			t.Errorf("seeds = %v", cfg.Seeds)
		}
		if cfg.Workers != 7 {
			t.Errorf("workers = %d, want 7", cfg.Workers)
		}
		if cfg.DefaultDelay != 0 {
			t.Errorf("delay = %s, want the file's 0s", cfg.DefaultDelay)
		}
		if len(cfg.AllowedDomains) != 1 || cfg.AllowedDomains[0] != "127.0.0.1" {
			t.Errorf("allowed domains = %v", cfg.AllowedDomains)
		}
	})

	t.Run("flag beats file", func(t *testing.T) {
		t.Parallel()
		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"--config", writeTestConfig(t), "--delay", "2s"}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		cfg, err := buildCrawlConfig(cmd, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.DefaultDelay.String() != "2s" {
			t.Errorf("delay = %s, want 2s", cfg.DefaultDelay)
		}
		if len(cfg.Seeds) != len(config.DefaultSeeds()) {
			t.Errorf("expected default seeds, got %v", cfg.Seeds)
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()
		cmd := NewCrawlCmd()
		missing := filepath.Join(t.TempDir(), "nope.yaml")
		if err := cmd.ParseFlags([]string{"--config", missing}); err != nil {
			t.Fatalf("failed to parse flags: %v", err)
		}

		_, err := buildCrawlConfig(cmd, nil)
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestCrawlInvalidConfig(t *testing.T) {
	t.Parallel()

	dbDir := t.TempDir()
	_, err := execute(t, "crawl",
		"--config", writeTestConfig(t),
		"--db-dir", dbDir,
		"--workers", "0",
		"http://127.0.0.1/",
	)
	if !errors.Is(err, config.ErrInvalidWorkers) {
		t.Fatalf("expected ErrInvalidWorkers, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(dbDir, "ucicrawl.db")); !os.IsNotExist(statErr) {
		t.Error("expected no database to be created for an invalid configuration")
	}
}

func TestCrawlOffDomainSeed(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "crawl",
		"--config", writeTestConfig(t),
		"--db-dir", t.TempDir(),
		"https://example.com/",
	)
	if !errors.Is(err, config.ErrInvalidSeed) {
		t.Fatalf("expected ErrInvalidSeed, got %v", err)
	}
}

func TestCrawlEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	cfgPath := writeTestConfig(t)
	dbDir := t.TempDir()
	results := filepath.Join(t.TempDir(), "out", "results.txt")

	out, err := execute(t, "crawl",
		"--config", cfgPath,
		"--db-dir", dbDir,
		"--results", results,
		"--min-tokens", "10",
		"--workers", "2",
		srv.URL+"/",
	)
	if err != nil {
		t.Fatalf("crawl failed: %v", err)
	}
	if got := statValue(out, "Accepted:"); got != "2" {
		t.Errorf("accepted = %q, want 2:\n%s", got, out)
	}
	if got := statValue(out, "Pages in corpus:"); got != "2" {
		t.Errorf("pages in corpus = %q, want 2:\n%s", got, out)
	}

	f, err := os.Open(results)
	if err != nil {
		t.Fatalf("results file not written: %v", err)
	}
	defer f.Close()
	snap, err := report.ReadResults(f)
	if err != nil {
		t.Fatalf("results file does not parse: %v", err)
	}
	want := map[string]int{srv.URL + "/": 22, srv.URL + "/about": 31}
	if len(snap.Pages) != len(want) {
		t.Fatalf("pages = %v, want %v", snap.Pages, want)
	}
	for u, n := range want {
		if snap.Pages[u] != n {
			t.Errorf("pages[%s] = %d, want %d", u, snap.Pages[u], n)
		}
	}

	t.Run("report", func(t *testing.T) {
		out, err := execute(t, "report", "--db-dir", dbDir, "--domain", "", "--top", "3")
		if err != nil {
			t.Fatalf("report failed: %v", err)
		}
		for _, line := range []string{
			"TOP 3 COMMON WORDS:",
			"Number of unique pages: 2",
			"The longest page in terms of number of words is " + srv.URL + "/about with 31 words.",
			"The number of crawled subdomains is 1.",
		} {
			if !strings.Contains(out, line) {
				t.Errorf("expected %q in report:\n%s", line, out)
			}
		}
	})

	t.Run("resume does not refetch", func(t *testing.T) {
		out, err := execute(t, "crawl",
			"--config", cfgPath,
			"--db-dir", dbDir,
			"--results", results,
			"--min-tokens", "10",
			srv.URL+"/",
		)
		if err != nil {
			t.Fatalf("second crawl failed: %v", err)
		}
		if got := statValue(out, "Downloaded:"); got != "0" {
			t.Errorf("downloaded = %q, want nothing fetched again:\n%s", got, out)
		}
		if got := statValue(out, "Pages in corpus:"); got != "2" {
			t.Errorf("pages in corpus = %q, want the restored 2:\n%s", got, out)
		}
	})

	t.Run("runs", func(t *testing.T) {
		out, err := execute(t, "runs", "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("runs failed: %v", err)
		}
		if !strings.Contains(out, "Crawl runs (2):") {
			t.Errorf("unexpected runs output:\n%s", out)
		}
		if strings.Contains(out, "running") {
			t.Errorf("expected every run to be finished:\n%s", out)
		}
	})
}

func TestResultsCheckpoint(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.txt")
	if err := os.WriteFile(path, []byte("stale"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	snap := model.NewSnapshot()
	snap.Pages["https://www.ics.uci.edu/"] = 12
	snap.Words["research"] = 4

	checkpoint := resultsCheckpoint(path, 10)
	if err := checkpoint(context.Background(), snap); err != nil {
		t.Fatalf("checkpoint failed: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read results: %v", err)
	}
	want := "WORD COUNTS\nhttps://www.ics.uci.edu/: 12\n\nWORD FREQUENCIES\nresearch: 4\n"
	if string(got) != want {
		t.Errorf("results = %q, want %q", got, want)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("failed to list dir: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected temporary files to be removed, found %d entries", len(entries))
	}

	if err := resultsCheckpoint("", 10)(context.Background(), snap); err != nil {
		t.Errorf("empty path should disable the checkpoint, got %v", err)
	}
}

// statValue returns the value printed after label in printStats output.
func statValue(out, label string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := strings.CutPrefix(line, label); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func TestPrintStats(t *testing.T) {
	t.Parallel()

	stats := crawler.Stats{
		Downloaded:   5,
		Accepted:     3,
		RobotsDenied: 1,
		Rejected: map[model.Reason]int{
			model.ReasonNearDuplicate: 1,
			model.ReasonBadStatus:     1,
			model.ReasonRobotsDenied:  1,
		},
	}

	var buf bytes.Buffer
	printStats(&buf, stats, 3, "results.txt")
	out := buf.String()

	tests := []struct {
		label string
		want  string
	}{
		{label: "Downloaded:", want: "5"},
		{label: "Accepted:", want: "3"},
		{label: "Robots denied:", want: "1"},
		{label: "Rejected bad_status:", want: "1"},
		{label: "Rejected near_duplicate:", want: "1"},
		{label: "Pages in corpus:", want: "3"},
	}
	for _, tt := range tests {
		if got := statValue(out, tt.label); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.label, got, tt.want)
		}
	}

	if !strings.Contains(out, "Results written to results.txt") {
		t.Errorf("expected results file to be named:\n%s", out)
	}
	if strings.Contains(out, "Rejected robots_denied") {
		t.Errorf("robots denials should only be listed once:\n%s", out)
	}
	if strings.Index(out, "bad_status") > strings.Index(out, "near_duplicate") {
		t.Errorf("rejections should be listed in reason order:\n%s", out)
	}
}

func TestCrawlSharesUserAgentAndScope(t *testing.T) {
	t.Parallel()

	robotsAgent := make(chan string, 1)
	mux := http.NewServeMux()
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		select {
		case robotsAgent <- r.UserAgent():
		default:
		}
		http.NotFound(w, r)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, "<html><body><p>%s</p></body></html>", words("solo", 20))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	var stdout, stderr bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"crawl",
		"--config", writeTestConfig(t),
		"--db-dir", t.TempDir(),
		"--results", "",
		"--min-tokens", "10",
		"--user-agent", "scope-test/2.0",
		srv.URL + "/",
	})
	if err := root.Execute(); err != nil {
		t.Fatalf("crawl failed: %v", err)
	}

	select {
	case ua := <-robotsAgent:
		if ua != "scope-test/2.0" {
			t.Errorf("robots.txt User-Agent = %q, want scope-test/2.0", ua)
		}
	default:
		t.Error("robots.txt was never requested")
	}
	if !strings.Contains(stderr.String(), "domains=[.127.0.0.1]") {
		t.Errorf("expected the normalized crawl scope in the log:\n%s", stderr.String())
	}
}
