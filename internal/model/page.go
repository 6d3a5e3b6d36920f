package model

import "time"

// PageRecord is a page that was accepted into the corpus.
// A record is created on the first successful visit and never updated.
type PageRecord struct {
	// URL is the fragment-free URL of the page.
	URL string `json:"url"`

	// Words is the total number of tokens on the page.
	Words int `json:"words"`

	// UniqueWords is the number of distinct tokens on the page.
	UniqueWords int `json:"unique_words"`

	// Fingerprint is the simhash of the page rendered as a bit string.
	Fingerprint string `json:"fingerprint,omitempty"`

	// FetchedAt is when the page was accepted.
	FetchedAt time.Time `json:"fetched_at"`
}
