package report

import (
	"bytes"
	"errors"
	"maps"
	"strings"
	"testing"

	"github.com/ucicrawl/ucicrawl/internal/model"
)

// TestWriteResults tests the checkpoint results file layout.
func TestWriteResults(t *testing.T) {
	t.Parallel()

	snap := model.Snapshot{
		Pages: map[string]int{
			"https://www.ics.uci.edu/b": 10,
			"https://www.ics.uci.edu/a": 10,
			"https://www.ics.uci.edu/c": 99,
		},
		Words: map[string]int{"alpha": 1, "beta": 5, "gamma": 5},
	}

	var buf bytes.Buffer
	if err := WriteResults(&buf, snap, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "WORD COUNTS\n" +
		"https://www.ics.uci.edu/c: 99\n" +
		"https://www.ics.uci.edu/a: 10\n" +
		"https://www.ics.uci.edu/b: 10\n" +
		"\nWORD FREQUENCIES\n" +
		"beta: 5\n" +
		"gamma: 5\n"
	if got := buf.String(); got != want {
		t.Errorf("unexpected results file:\n%s\nwant:\n%s", got, want)
	}
}

// TestReadResults tests parsing results files.
func TestReadResults(t *testing.T) {
	t.Parallel()

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		snap := model.Snapshot{
			Pages: map[string]int{
				"https://www.ics.uci.edu/":                  120,
				"https://www.stat.uci.edu/events?q=a: b":    7,
				"http://vision.ics.uci.edu/papers/2020.htm": 300,
			},
			Words: map[string]int{"research": 9, "data": 3},
		}

		var buf bytes.Buffer
		if err := WriteResults(&buf, snap, 0); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		got, err := ReadResults(&buf)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !maps.Equal(got.Pages, snap.Pages) {
			t.Errorf("Pages = %v, want %v", got.Pages, snap.Pages)
		}
		if !maps.Equal(got.Words, snap.Words) {
			t.Errorf("Words = %v, want %v", got.Words, snap.Words)
		}
	})

	t.Run("accepts CRLF line endings", func(t *testing.T) {
		t.Parallel()

		got, err := ReadResults(strings.NewReader("WORD COUNTS\r\nhttp://a.ics.uci.edu/: 4\r\n\r\nWORD FREQUENCIES\r\nword: 2\r\n"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got.Pages["http://a.ics.uci.edu/"] != 4 || got.Words["word"] != 2 {
			t.Errorf("unexpected snapshot: %+v", got)
		}
	})

	t.Run("empty input", func(t *testing.T) {
		t.Parallel()

		got, err := ReadResults(strings.NewReader(""))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(got.Pages) != 0 || len(got.Words) != 0 {
			t.Errorf("expected empty snapshot, got %+v", got)
		}
	})

	tests := []struct {
		name  string
		input string
	}{
		{"entry before header", "http://a.ics.uci.edu/: 4\n"},
		{"missing separator", "WORD COUNTS\nhttp://a.ics.uci.edu/ 4\n"},
		{"non numeric count", "WORD COUNTS\nhttp://a.ics.uci.edu/: four\n"},
		{"negative count", "WORD FREQUENCIES\nword: -1\n"},
		{"empty key", "WORD FREQUENCIES\n: 3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadResults(strings.NewReader(tt.input))
			if !errors.Is(err, ErrMalformedResults) {
				t.Errorf("expected ErrMalformedResults, got %v", err)
			}
		})
	}
}
