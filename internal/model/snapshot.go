package model

import "sort"

// WordCount is a single word and how often it occurred.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// SortWordCounts orders counts by descending count, breaking ties by
// ascending lexicographic word order. The slice is sorted in place.
func SortWordCounts(counts []WordCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Word < counts[j].Word
	})
}

// Snapshot is a copy of the corpus statistics taken at a checkpoint.
// It is safe to read without holding any corpus lock.
type Snapshot struct {
	// Pages maps URL to the number of words on the page.
	Pages map[string]int `json:"pages"`

	// Words maps a non-stop-word token to its cumulative count.
	Words map[string]int `json:"words"`
}

// NewSnapshot returns an empty snapshot with allocated maps.
func NewSnapshot() Snapshot {
	return Snapshot{
		Pages: make(map[string]int),
		Words: make(map[string]int),
	}
}

// PagesByWords returns the page table ordered by descending word count,
// ties broken by URL.
func (s Snapshot) PagesByWords() []WordCount {
	out := make([]WordCount, 0, len(s.Pages))
	for u, n := range s.Pages {
		out = append(out, WordCount{Word: u, Count: n})
	}
	SortWordCounts(out)
	return out
}

// TopWords returns at most k entries of the word table in report order.
// A non-positive k returns all entries.
func (s Snapshot) TopWords(k int) []WordCount {
	out := make([]WordCount, 0, len(s.Words))
	for w, n := range s.Words {
		out = append(out, WordCount{Word: w, Count: n})
	}
	SortWordCounts(out)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out
}
