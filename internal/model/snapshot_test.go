package model

import (
	"reflect"
	"testing"
)

// TestSortWordCounts tests report ordering of word counts.
func TestSortWordCounts(t *testing.T) {
	t.Parallel()

	t.Run("descending count then ascending word", func(t *testing.T) {
		t.Parallel()

		counts := []WordCount{
			{Word: "beta", Count: 2},
			{Word: "alpha", Count: 2},
			{Word: "gamma", Count: 5},
			{Word: "delta", Count: 1},
		}
		SortWordCounts(counts)

		want := []WordCount{
			{Word: "gamma", Count: 5},
			{Word: "alpha", Count: 2},
			{Word: "beta", Count: 2},
			{Word: "delta", Count: 1},
		}
		if !reflect.DeepEqual(counts, want) {
			t.Errorf("got %v, want %v", counts, want)
		}
	})

	t.Run("empty slice is fine", func(t *testing.T) {
		t.Parallel()

		var counts []WordCount
		SortWordCounts(counts)
		if len(counts) != 0 {
			t.Errorf("expected empty, got %v", counts)
		}
	})
}

// TestSnapshotTopWords tests truncation of the word table.
func TestSnapshotTopWords(t *testing.T) {
	t.Parallel()

	s := NewSnapshot()
	s.Words["a"] = 3
	s.Words["b"] = 1
	s.Words["c"] = 3

	t.Run("k limits result", func(t *testing.T) {
		t.Parallel()

		got := s.TopWords(2)
		want := []WordCount{{Word: "a", Count: 3}, {Word: "c", Count: 3}}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("zero k returns everything", func(t *testing.T) {
		t.Parallel()

		if got := s.TopWords(0); len(got) != 3 {
			t.Errorf("expected 3 entries, got %d", len(got))
		}
	})
}

// TestSnapshotPagesByWords tests ordering of the page table.
func TestSnapshotPagesByWords(t *testing.T) {
	t.Parallel()

	s := NewSnapshot()
	s.Pages["http://a.ics.uci.edu/"] = 10
	s.Pages["http://b.ics.uci.edu/"] = 30

	got := s.PagesByWords()
	if len(got) != 2 || got[0].Word != "http://b.ics.uci.edu/" {
		t.Errorf("expected longest page first, got %v", got)
	}
}

// TestResponseStatusClasses tests the status helpers.
func TestResponseStatusClasses(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   int
		success  bool
		redirect bool
	}{
		{200, true, false},
		{204, true, false},
		{301, false, true},
		{399, false, true},
		{404, false, false},
		{0, false, false},
	}

	for _, tt := range tests {
		r := &Response{Status: tt.status}
		if r.IsSuccess() != tt.success {
			t.Errorf("status %d: IsSuccess = %v, want %v", tt.status, r.IsSuccess(), tt.success)
		}
		if r.IsRedirect() != tt.redirect {
			t.Errorf("status %d: IsRedirect = %v, want %v", tt.status, r.IsRedirect(), tt.redirect)
		}
	}
}

// TestResponseBaseURL tests base URL selection.
func TestResponseBaseURL(t *testing.T) {
	t.Parallel()

	r := &Response{URL: "http://a.ics.uci.edu/x"}
	if r.BaseURL() != "http://a.ics.uci.edu/x" {
		t.Errorf("expected requested URL, got %q", r.BaseURL())
	}

	r.FinalURL = "http://b.ics.uci.edu/y"
	if r.BaseURL() != "http://b.ics.uci.edu/y" {
		t.Errorf("expected final URL, got %q", r.BaseURL())
	}
}
