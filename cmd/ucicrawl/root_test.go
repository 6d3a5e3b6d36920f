package main

import (
	"bytes"
	"strings"
	"testing"
)

// TestNewRootCmd tests the root command creation.
func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "ucicrawl" {
			t.Errorf("expected use 'ucicrawl', got %q", cmd.Use)
		}
	})

	t.Run("has descriptions", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has version", func(t *testing.T) {
		t.Parallel()
		if cmd.Version == "" {
			t.Error("expected non-empty version")
		}
	})

	t.Run("has logging flags", func(t *testing.T) {
		t.Parallel()
		flag := cmd.PersistentFlags().Lookup("verbose")
		if flag == nil {
			t.Fatal("expected verbose flag")
		}
		if flag.Shorthand != "v" {
			t.Errorf("expected shorthand 'v', got %q", flag.Shorthand)
		}
		if flag.DefValue != "false" {
			t.Errorf("expected default 'false', got %q", flag.DefValue)
		}
		if cmd.PersistentFlags().Lookup("json-log") == nil {
			t.Error("expected json-log flag")
		}
	})

	t.Run("has subcommands", func(t *testing.T) {
		t.Parallel()
		want := map[string]bool{
			"crawl": false, "report": false, "runs": false, "init": false, "version": false,
		}
		for _, sub := range cmd.Commands() {
			if _, ok := want[sub.Name()]; ok {
				want[sub.Name()] = true
			}
		}
		for name, found := range want {
			if !found {
				t.Errorf("expected %s subcommand", name)
			}
		}
	})

	t.Run("silences usage and errors", func(t *testing.T) {
		t.Parallel()
		if !cmd.SilenceUsage {
			t.Error("expected SilenceUsage to be true")
		}
		if !cmd.SilenceErrors {
			t.Error("expected SilenceErrors to be true")
		}
	})
}

func TestSetupLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		wantDebug bool
		wantJSON  bool
	}{
		{name: "default", args: []string{"version"}},
		{name: "verbose", args: []string{"version", "-v"}, wantDebug: true},
		{name: "json", args: []string{"version", "--json-log"}, wantJSON: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := NewRootCmd()
			var stdout, stderr bytes.Buffer
			root.SetOut(&stdout)
			root.SetErr(&stderr)
			root.SetArgs(tt.args)
			if err := root.Execute(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			sub, _, err := root.Find(tt.args)
			if err != nil {
				t.Fatalf("failed to find command: %v", err)
			}
			logger := setupLogger(sub)
			logger.Debug("debug line")
			logger.Info("info line")

			got := stderr.String()
			if strings.Contains(got, "debug line") != tt.wantDebug {
				t.Errorf("debug output = %v, want %v: %q", !tt.wantDebug, tt.wantDebug, got)
			}
			if !strings.Contains(got, "info line") {
				t.Errorf("expected info line, got %q", got)
			}
			if strings.HasPrefix(got, "{") != tt.wantJSON {
				t.Errorf("JSON output = %v, want %v: %q", !tt.wantJSON, tt.wantJSON, got)
			}
		})
	}
}
