package config

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/ucicrawl/ucicrawl/internal/urlnorm"
)

// TestNewConfig verifies that NewConfig returns a Config with all expected default values.
// Changes to defaults must be intentional; these tests fail when they drift.
func TestNewConfig(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	t.Run("crawl defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.Workers != 4 {
			t.Errorf("expected Workers to be 4, got %d", cfg.Workers)
		}
		if cfg.DefaultDelay != 500*time.Millisecond {
			t.Errorf("expected DefaultDelay to be 500ms, got %v", cfg.DefaultDelay)
		}
		if cfg.Timeout != 30*time.Second {
			t.Errorf("expected Timeout to be 30s, got %v", cfg.Timeout)
		}
		if cfg.MaxBodySize != 10*1024*1024 {
			t.Errorf("expected MaxBodySize to be 10MB, got %d", cfg.MaxBodySize)
		}
		if cfg.CheckpointEvery != 25 {
			t.Errorf("expected CheckpointEvery to be 25, got %d", cfg.CheckpointEvery)
		}
		if cfg.ResultsFile != "results.txt" {
			t.Errorf("expected ResultsFile to be results.txt, got %q", cfg.ResultsFile)
		}
	})

	t.Run("admission defaults", func(t *testing.T) {
		t.Parallel()
		if cfg.MinUniqueTokens != 50 || cfg.MaxUniqueTokens != 10000 {
			t.Errorf("expected token band [50, 10000], got [%d, %d]", cfg.MinUniqueTokens, cfg.MaxUniqueTokens)
		}
		if cfg.HammingThreshold != 5 || cfg.NGram != 3 || cfg.FingerprintBits != 64 {
			t.Errorf("unexpected simhash defaults: threshold=%d ngram=%d bits=%d",
				cfg.HammingThreshold, cfg.NGram, cfg.FingerprintBits)
		}
	})

	t.Run("scope defaults", func(t *testing.T) {
		t.Parallel()
		if !slices.Equal(cfg.AllowedDomains, urlnorm.DefaultAllowedDomains) {
			t.Errorf("unexpected AllowedDomains: %v", cfg.AllowedDomains)
		}
		want := []string{
			"https://www.ics.uci.edu",
			"https://www.cs.uci.edu",
			"https://www.informatics.uci.edu",
			"https://www.stat.uci.edu",
		}
		if !slices.Equal(cfg.Seeds, want) {
			t.Errorf("Seeds = %v, want %v", cfg.Seeds, want)
		}
		if cfg.ReportDomain != "ics.uci.edu" {
			t.Errorf("expected ReportDomain ics.uci.edu, got %q", cfg.ReportDomain)
		}
	})

	t.Run("defaults do not alias package lists", func(t *testing.T) {
		t.Parallel()
		other := NewConfig()
		other.AllowedDomains[0] = ".example.com"
		if urlnorm.DefaultAllowedDomains[0] == ".example.com" {
			t.Error("modifying a config must not change the package defaults")
		}
	})

	t.Run("database lives in the XDG data dir", func(t *testing.T) {
		t.Parallel()
		if cfg.DBDir != XDGDataDir() {
			t.Errorf("expected DBDir %q, got %q", XDGDataDir(), cfg.DBDir)
		}
	})

	t.Run("defaults are valid", func(t *testing.T) {
		t.Parallel()
		if err := cfg.Validate(); err != nil {
			t.Errorf("expected default config to be valid, got %v", err)
		}
	})
}

// TestConfigValidate tests the Validate method with various configurations.
// Each test case breaks exactly one validation rule.
func TestConfigValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"no allowed domains", func(c *Config) { c.AllowedDomains = nil }, ErrNoAllowedDomains},
		{"no seeds", func(c *Config) { c.Seeds = nil }, ErrNoSeeds},
		{"off-domain seed", func(c *Config) { c.Seeds = []string{"https://www.google.com"} }, ErrInvalidSeed},
		{"non-http seed", func(c *Config) { c.Seeds = []string{"ftp://www.ics.uci.edu"} }, ErrInvalidSeed},
		{"zero workers", func(c *Config) { c.Workers = 0 }, ErrInvalidWorkers},
		{"negative delay", func(c *Config) { c.DefaultDelay = -time.Second }, ErrInvalidDelay},
		{"zero delay", func(c *Config) { c.DefaultDelay = 0 }, nil},
		{"negative min tokens", func(c *Config) { c.MinUniqueTokens = -1 }, ErrInvalidTokenBounds},
		{"min above max", func(c *Config) { c.MinUniqueTokens = 200; c.MaxUniqueTokens = 100 }, ErrInvalidTokenBounds},
		{"unbounded max", func(c *Config) { c.MaxUniqueTokens = 0 }, nil},
		{"zero ngram", func(c *Config) { c.NGram = 0 }, ErrInvalidNGram},
		{"too many bits", func(c *Config) { c.FingerprintBits = 65 }, ErrInvalidFingerprintBits},
		{"threshold above bits", func(c *Config) { c.FingerprintBits = 8; c.HammingThreshold = 9 }, ErrInvalidThreshold},
		{"negative threshold", func(c *Config) { c.HammingThreshold = -1 }, ErrInvalidThreshold},
		{"zero timeout", func(c *Config) { c.Timeout = 0 }, ErrInvalidTimeout},
		{"zero body size", func(c *Config) { c.MaxBodySize = 0 }, ErrInvalidMaxBodySize},
		{"negative checkpoint", func(c *Config) { c.CheckpointEvery = -1 }, ErrInvalidCheckpoint},
		{"checkpoint only at end", func(c *Config) { c.CheckpointEvery = 0 }, nil},
		{"negative top words", func(c *Config) { c.TopWords = -1 }, ErrInvalidTopWords},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := NewConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("expected nil error, got %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

// TestSeedError tests the seed error message.
func TestSeedError(t *testing.T) {
	t.Parallel()

	err := error(&SeedError{Seed: "https://evil.example.com/x"})
	if !strings.Contains(err.Error(), "host evil.example.com") {
		t.Errorf("expected host in message, got %q", err)
	}
	if !errors.Is(err, ErrInvalidSeed) {
		t.Error("expected SeedError to match ErrInvalidSeed")
	}

	err = &SeedError{Seed: "not a url"}
	if !strings.HasSuffix(err.Error(), ": not a url") {
		t.Errorf("unexpected message %q", err)
	}
}

// TestValidateReport tests report option validation.
func TestValidateReport(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.Seeds = nil // seeds are irrelevant for reports
	if err := cfg.ValidateReport(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}

	cfg.JSONReport = true
	cfg.MarkdownReport = true
	if err := cfg.ValidateReport(); !errors.Is(err, ErrConflictingReportFormats) {
		t.Errorf("expected ErrConflictingReportFormats, got %v", err)
	}

	cfg.MarkdownReport = false
	cfg.TopWords = -5
	if err := cfg.ValidateReport(); !errors.Is(err, ErrInvalidTopWords) {
		t.Errorf("expected ErrInvalidTopWords, got %v", err)
	}
}

// TestReportFormat tests format selection from the report flags.
func TestReportFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		json, markdown bool
		want           string
	}{
		{false, false, "text"},
		{true, false, "json"},
		{false, true, "markdown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()

			cfg := &Config{JSONReport: tt.json, MarkdownReport: tt.markdown}
			if got := cfg.ReportFormat(); got != tt.want {
				t.Errorf("ReportFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestConfigBuilders tests the validator and hasher built from a config.
func TestConfigBuilders(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()
	cfg.AllowedDomains = []string{"example.edu"}
	cfg.DeniedExtensions = []string{"pdf"}

	v := cfg.Validator()
	if !v.IsValid("https://www.example.edu/page") {
		t.Error("expected configured domain to be allowed")
	}
	if v.IsValid("https://www.ics.uci.edu/") {
		t.Error("default domains must be replaced")
	}
	if v.IsValid("https://www.example.edu/paper.pdf") {
		t.Error("expected configured extension to be denied")
	}

	cfg.FingerprintBits = 16
	h, err := cfg.Hasher()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fp, ok := h.Compute(strings.Fields("one two three four"))
	if !ok {
		t.Fatal("expected a fingerprint")
	}
	if len(h.Format(fp)) != 16 {
		t.Errorf("expected a 16 bit fingerprint, got %q", h.Format(fp))
	}

	cfg.NGram = 0
	if _, err := cfg.Hasher(); err == nil {
		t.Error("expected error for invalid n-gram")
	}
}

// TestXDGDirs tests XDG directory functions.
func TestXDGDirs(t *testing.T) {
	t.Parallel()

	if dir := XDGDataDir(); !strings.HasSuffix(dir, AppName) {
		t.Errorf("expected data dir ending in %q, got %q", AppName, dir)
	}
	if dir := XDGConfigDir(); !strings.HasSuffix(dir, AppName) {
		t.Errorf("expected config dir ending in %q, got %q", AppName, dir)
	}
}
