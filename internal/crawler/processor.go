package crawler

import (
	"context"
	"log/slog"
	"time"

	"github.com/ucicrawl/ucicrawl/internal/corpus"
	"github.com/ucicrawl/ucicrawl/internal/model"
	"github.com/ucicrawl/ucicrawl/internal/simhash"
	"github.com/ucicrawl/ucicrawl/internal/tokenizer"
	"github.com/ucicrawl/ucicrawl/internal/urlnorm"
)

// DelayFunc returns the politeness delay for the host of a URL.
type DelayFunc func(ctx context.Context, url string) time.Duration

// Result is what the Processor made of one response.
type Result struct {
	// Links are the discovered in-scope URLs, fragment-free and without
	// duplicates, in document order.
	Links []string

	Outcome model.Outcome
	Reason  model.Reason

	// DuplicateOf is the accepted page a near duplicate matched.
	DuplicateOf string

	// Delay is how long the worker should pause before its next request.
	Delay time.Duration

	// Title is the page's <title> text, if it was parsed.
	Title string

	// Page is set for accepted pages.
	Page *model.PageRecord

	// Words holds the non-stop-word frequencies of an accepted page.
	Words map[string]int
}

// Processor turns a downloaded response into links and corpus updates.
// It is safe for concurrent use as long as its collaborators are.
type Processor struct {
	corpus    *corpus.Corpus
	validator *urlnorm.Validator
	hasher    *simhash.Hasher
	delay     DelayFunc
	logger    *slog.Logger
}

// NewProcessor creates a Processor. A nil hasher uses simhash.Default and a
// nil delay function reports zero delay.
func NewProcessor(c *corpus.Corpus, v *urlnorm.Validator, h *simhash.Hasher, delay DelayFunc, logger *slog.Logger) *Processor {
	if h == nil {
		h = simhash.Default()
	}
	if delay == nil {
		delay = func(context.Context, string) time.Duration { return 0 }
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{corpus: c, validator: v, hasher: h, delay: delay, logger: logger}
}

// Process classifies resp, the response for url.
//
// Transitions, in order:
//   - transport failure: rejected, no links
//   - status outside [200, 400): rejected, no links
//   - url already in the corpus: rejected, no links
//   - 3xx: rejected, links (including the Location target) harvested
//   - 2xx: links harvested, page offered to the corpus
//
// A page rejected by the corpus as a near duplicate or for its size still
// returns its links, so a mirrored page cannot starve the frontier.
func (p *Processor) Process(ctx context.Context, url string, resp *model.Response) Result {
	res := Result{Outcome: model.OutcomeRejected, Delay: p.delay(ctx, url)}

	switch {
	case resp == nil || resp.Err != nil:
		res.Reason = model.ReasonTransport
		return res
	case !resp.IsSuccess() && !resp.IsRedirect():
		res.Reason = model.ReasonBadStatus
		return res
	case p.corpus.Seen(url):
		res.Reason = model.ReasonAlreadyVisited
		return res
	}

	parsed, err := ParsePage(resp.Content)
	if err != nil {
		p.logger.Debug("unparseable page", "url", url, "error", err)
		parsed = &ParseResult{}
	}

	res.Title = parsed.Title
	hrefs := parsed.Hrefs
	if resp.IsRedirect() && resp.Location != "" {
		hrefs = append([]string{resp.Location}, hrefs...)
	}
	res.Links = p.links(resp.BaseURL(), hrefs)

	if resp.IsRedirect() {
		res.Reason = model.ReasonRedirect
		return res
	}

	cand := corpus.NewCandidate(url, parsed.Tokens, p.hasher)
	verdict := p.corpus.Admit(cand)
	if !verdict.Accepted() {
		res.Reason = verdict.Reason
		res.DuplicateOf = verdict.DuplicateOf
		if verdict.Reason == model.ReasonAlreadyVisited {
			res.Links = nil
		}
		return res
	}

	res.Outcome = model.OutcomeAccepted
	res.Reason = model.ReasonNone
	res.Page = &model.PageRecord{
		URL:         url,
		Words:       cand.Words,
		UniqueWords: cand.Unique(),
		FetchedAt:   time.Now(),
	}
	if cand.HasFingerprint {
		res.Page.Fingerprint = p.hasher.Format(cand.Fingerprint)
	}
	res.Words = make(map[string]int, len(cand.Frequencies))
	for w, n := range cand.Frequencies {
		if !tokenizer.IsStopWord(w) {
			res.Words[w] = n
		}
	}
	return res
}

// links resolves and validates hrefs against base, dropping duplicates.
func (p *Processor) links(base string, hrefs []string) []string {
	out := make([]string, 0, len(hrefs))
	seen := make(map[string]struct{}, len(hrefs))
	for _, href := range hrefs {
		abs, ok := urlnorm.Resolve(base, href)
		if !ok || !p.validator.IsValid(abs) {
			continue
		}
		if _, dup := seen[abs]; dup {
			continue
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
	}
	return out
}
