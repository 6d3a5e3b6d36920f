package report

import (
	"sort"
	"strings"

	"github.com/ucicrawl/ucicrawl/internal/model"
	"github.com/ucicrawl/ucicrawl/internal/urlnorm"
)

// DefaultTopWords is the number of words listed in a report.
const DefaultTopWords = 50

// DefaultDomain is the domain whose subdomains are counted.
const DefaultDomain = "ics.uci.edu"

// Options controls Summarize.
type Options struct {
	// TopWords is the number of most common words to keep.
	// Zero or less keeps every word.
	TopWords int

	// Domain restricts the subdomain histogram to hosts under it.
	// An empty Domain counts every host.
	Domain string
}

// DefaultOptions returns the options used when the CLI is given none.
func DefaultOptions() Options {
	return Options{
		TopWords: DefaultTopWords,
		Domain:   DefaultDomain,
	}
}

// PageCount is a page and its number of words.
type PageCount struct {
	URL   string `json:"url"`
	Words int    `json:"words"`
}

// SubdomainCount is the number of unique pages found on one subdomain.
type SubdomainCount struct {
	// Subdomain is "http://" followed by the host without a leading "www.".
	Subdomain string `json:"subdomain"`
	Pages     int    `json:"pages"`
}

// Summary holds the figures a crawl report answers.
type Summary struct {
	UniquePages int               `json:"unique_pages"`
	Longest     PageCount         `json:"longest"`
	TopWords    []model.WordCount `json:"top_words"`
	Domain      string            `json:"domain,omitempty"`
	Subdomains  []SubdomainCount  `json:"subdomains"`
}

// HasPages reports whether the summary covers at least one page.
func (s *Summary) HasPages() bool {
	return s.UniquePages > 0
}

// Summarize computes the report figures for snap.
// Ties for the longest page go to the lexicographically smallest URL, so
// the result does not depend on map iteration order.
func Summarize(snap model.Snapshot, opts Options) *Summary {
	s := &Summary{
		UniquePages: len(snap.Pages),
		TopWords:    snap.TopWords(opts.TopWords),
		Domain:      opts.Domain,
		Subdomains:  make([]SubdomainCount, 0),
	}

	if pages := snap.PagesByWords(); len(pages) > 0 {
		s.Longest = PageCount{URL: pages[0].Word, Words: pages[0].Count}
	}

	counts := make(map[string]int)
	for u := range snap.Pages {
		host := urlnorm.Subdomain(u)
		if host == "" || !underDomain(host, opts.Domain) {
			continue
		}
		counts["http://"+host]++
	}
	for sub, n := range counts {
		s.Subdomains = append(s.Subdomains, SubdomainCount{Subdomain: sub, Pages: n})
	}
	sort.Slice(s.Subdomains, func(i, j int) bool {
		return s.Subdomains[i].Subdomain < s.Subdomains[j].Subdomain
	})
	return s
}

// underDomain reports whether host is domain or one of its subdomains.
func underDomain(host, domain string) bool {
	domain = strings.ToLower(strings.TrimPrefix(domain, "."))
	if domain == "" {
		return true
	}
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// sortByPages orders subdomains by descending page count, ties by name.
func sortByPages(subs []SubdomainCount) {
	sort.Slice(subs, func(i, j int) bool {
		if subs[i].Pages != subs[j].Pages {
			return subs[i].Pages > subs[j].Pages
		}
		return subs[i].Subdomain < subs[j].Subdomain
	})
}
