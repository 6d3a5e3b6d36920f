package corpus

import (
	"maps"
	"sync"

	"github.com/ucicrawl/ucicrawl/internal/model"
	"github.com/ucicrawl/ucicrawl/internal/simhash"
	"github.com/ucicrawl/ucicrawl/internal/tokenizer"
)

// Options bounds which pages are admitted.
type Options struct {
	// MinUniqueTokens rejects pages with fewer distinct tokens.
	MinUniqueTokens int

	// MaxUniqueTokens rejects pages with more distinct tokens.
	// Zero disables the upper bound.
	MaxUniqueTokens int

	// HammingThreshold is the largest fingerprint distance still treated
	// as a near duplicate.
	HammingThreshold int
}

// DefaultOptions returns the admission bounds used by the CLI.
func DefaultOptions() Options {
	return Options{
		MinUniqueTokens:  50,
		MaxUniqueTokens:  10000,
		HammingThreshold: simhash.DefaultThreshold,
	}
}

// Candidate is a downloaded page waiting for admission.
type Candidate struct {
	URL string

	// Words is the total number of tokens on the page.
	Words int

	// Frequencies counts every token on the page, stop words included.
	Frequencies map[string]int

	// Fingerprint is only meaningful when HasFingerprint is true.
	Fingerprint    simhash.Fingerprint
	HasFingerprint bool
}

// NewCandidate derives the frequency table and fingerprint from tokens.
// Build candidates before calling Admit so hashing runs outside the lock.
func NewCandidate(url string, tokens []string, h *simhash.Hasher) Candidate {
	c := Candidate{
		URL:         url,
		Words:       len(tokens),
		Frequencies: tokenizer.ComputeWordFrequencies(tokens),
	}
	if h != nil {
		c.Fingerprint, c.HasFingerprint = h.Compute(tokens)
	}
	return c
}

// Unique returns the number of distinct tokens on the page.
func (c Candidate) Unique() int {
	return len(c.Frequencies)
}

// Verdict is the result of Admit.
type Verdict struct {
	// Reason is model.ReasonNone for an accepted page.
	Reason model.Reason

	// DuplicateOf is the URL of the accepted page a near duplicate matched.
	DuplicateOf string
}

// Accepted reports whether the page was recorded.
func (v Verdict) Accepted() bool {
	return v.Reason == model.ReasonNone
}

type fingerprintEntry struct {
	url string
	fp  simhash.Fingerprint
}

// Corpus is the shared crawl state. It is safe for concurrent use.
type Corpus struct {
	opts Options

	mu     sync.Mutex
	pages  map[string]int
	words  map[string]int
	prints []fingerprintEntry
}

// New creates an empty Corpus.
func New(opts Options) *Corpus {
	return &Corpus{
		opts:  opts,
		pages: make(map[string]int),
		words: make(map[string]int),
	}
}

// Admit decides whether c joins the corpus and, if so, records it.
// Checks run in this order: already recorded, unique-token band, near
// duplicate. A rejected candidate leaves the corpus unchanged.
func (c *Corpus) Admit(cand Candidate) Verdict {
	unique := cand.Unique()

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.pages[cand.URL]; ok {
		return Verdict{Reason: model.ReasonAlreadyVisited}
	}
	if unique < c.opts.MinUniqueTokens {
		return Verdict{Reason: model.ReasonTooFewTokens}
	}
	if c.opts.MaxUniqueTokens > 0 && unique > c.opts.MaxUniqueTokens {
		return Verdict{Reason: model.ReasonTooManyTokens}
	}
	if cand.HasFingerprint {
		for _, e := range c.prints {
			if simhash.IsNearDuplicate(cand.Fingerprint, e.fp, c.opts.HammingThreshold) {
				return Verdict{Reason: model.ReasonNearDuplicate, DuplicateOf: e.url}
			}
		}
	}

	c.pages[cand.URL] = cand.Words
	for word, n := range cand.Frequencies {
		if !tokenizer.IsStopWord(word) {
			c.words[word] += n
		}
	}
	if cand.HasFingerprint {
		c.prints = append(c.prints, fingerprintEntry{url: cand.URL, fp: cand.Fingerprint})
	}
	return Verdict{}
}

// Seen reports whether url has been accepted.
func (c *Corpus) Seen(url string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pages[url]
	return ok
}

// Len returns the number of accepted pages.
func (c *Corpus) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

// Snapshot returns a deep copy of the page and word tables.
func (c *Corpus) Snapshot() model.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return model.Snapshot{
		Pages: maps.Clone(c.pages),
		Words: maps.Clone(c.words),
	}
}

// Restore replaces the corpus contents with a previously saved state.
// fingerprints maps page URL to its fingerprint; pages without a
// fingerprint are simply absent from the map.
func (c *Corpus) Restore(snap model.Snapshot, fingerprints map[string]simhash.Fingerprint) {
	pages := make(map[string]int, len(snap.Pages))
	maps.Copy(pages, snap.Pages)
	words := make(map[string]int, len(snap.Words))
	maps.Copy(words, snap.Words)

	prints := make([]fingerprintEntry, 0, len(fingerprints))
	for u, fp := range fingerprints {
		prints = append(prints, fingerprintEntry{url: u, fp: fp})
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages = pages
	c.words = words
	c.prints = prints
}
