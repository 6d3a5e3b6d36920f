package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ucicrawl/ucicrawl/internal/corpus"
	"github.com/ucicrawl/ucicrawl/internal/frontier"
	"github.com/ucicrawl/ucicrawl/internal/metrics"
	"github.com/ucicrawl/ucicrawl/internal/model"
)

// ErrFrontier wraps frontier failures, the only errors that end a crawl early.
var ErrFrontier = errors.New("frontier failed")

// ErrNoResponse marks a Downloader that returned no response at all.
var ErrNoResponse = errors.New("downloader returned no response")

// Downloader fetches one URL. It must report transport failures in
// Response.Err rather than panicking or blocking forever.
type Downloader interface {
	Download(ctx context.Context, url string) *model.Response
}

// Politeness decides whether and when a URL may be requested.
type Politeness interface {
	CanFetch(ctx context.Context, url string) bool
	DelayFor(ctx context.Context, url string) time.Duration
	Wait(ctx context.Context, url string) error
	Pause(ctx context.Context, d time.Duration) error
}

// PageStore persists accepted pages.
type PageStore interface {
	SavePage(ctx context.Context, runID string, page model.PageRecord, words map[string]int) error
}

// CheckpointFunc receives a corpus snapshot every few accepted pages and once
// more when the crawl ends.
type CheckpointFunc func(ctx context.Context, snap model.Snapshot) error

// Stats are the counters of one crawl run.
type Stats struct {
	Downloaded   int
	Accepted     int
	RobotsDenied int
	Rejected     map[model.Reason]int
	Elapsed      time.Duration
}

// Crawler is the worker pool for one crawl run.
type Crawler struct {
	frontier  frontier.Frontier
	fetcher   Downloader
	gate      Politeness
	processor *Processor
	corpus    *corpus.Corpus

	workers         int
	checkpointEvery int
	checkpoint      CheckpointFunc
	pages           PageStore
	runID           string
	metrics         *metrics.Metrics
	logger          *slog.Logger

	downloaded   atomic.Int64
	accepted     atomic.Int64
	robotsDenied atomic.Int64
	rejected     [model.NumReasons]atomic.Int64

	// checkpointMu serializes checkpoint writes.
	checkpointMu sync.Mutex
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithWorkers sets the number of concurrent workers.
func WithWorkers(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithCheckpoint calls fn after every n accepted pages and at the end of
// the run. n <= 0 only checkpoints at the end.
func WithCheckpoint(n int, fn CheckpointFunc) Option {
	return func(c *Crawler) {
		c.checkpointEvery = n
		c.checkpoint = fn
	}
}

// WithPageStore persists every accepted page under runID.
func WithPageStore(store PageStore, runID string) Option {
	return func(c *Crawler) {
		c.pages = store
		c.runID = runID
	}
}

// WithMetrics records crawl progress in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Crawler) {
		c.metrics = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a Crawler.
//
// Design decision: The collaborators are passed in rather than built here
// so tests can run the real worker loop against httptest servers and
// in-memory stores.
func New(f frontier.Frontier, d Downloader, gate Politeness, p *Processor, c *corpus.Corpus, opts ...Option) *Crawler {
	cr := &Crawler{
		frontier:  f,
		fetcher:   d,
		gate:      gate,
		processor: p,
		corpus:    c,
		workers:   1,
		logger:    slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cr)
	}
	return cr
}

// Run crawls until the frontier is exhausted or ctx is cancelled. It returns
// an error wrapping ErrFrontier if the frontier failed; cancellation is not
// an error.
func (c *Crawler) Run(ctx context.Context) (Stats, error) {
	start := time.Now()
	c.logger.Info("crawl started", "workers", c.workers, "queued", c.frontier.Len())

	g, gctx := errgroup.WithContext(ctx)
	for id := range c.workers {
		g.Go(func() error {
			return c.work(gctx, id)
		})
	}
	err := g.Wait()

	if c.checkpoint != nil {
		c.writeCheckpoint(context.WithoutCancel(ctx))
	}

	stats := c.Stats()
	stats.Elapsed = time.Since(start)
	c.logger.Info("crawl finished",
		"downloaded", stats.Downloaded,
		"accepted", stats.Accepted,
		"robots_denied", stats.RobotsDenied,
		"elapsed", stats.Elapsed.Round(time.Millisecond),
	)
	return stats, err
}

// Stats returns a copy of the current counters.
func (c *Crawler) Stats() Stats {
	s := Stats{
		Downloaded:   int(c.downloaded.Load()),
		Accepted:     int(c.accepted.Load()),
		RobotsDenied: int(c.robotsDenied.Load()),
		Rejected:     make(map[model.Reason]int),
	}
	for r := range c.rejected {
		if n := c.rejected[r].Load(); n > 0 {
			s.Rejected[model.Reason(r)] = int(n)
		}
	}
	return s
}

func (c *Crawler) work(ctx context.Context, id int) error {
	logger := c.logger.With("worker", id)
	for {
		if ctx.Err() != nil {
			return nil
		}
		u, ok, err := c.frontier.Next(ctx)
		if err != nil {
			return fmt.Errorf("%w: next: %w", ErrFrontier, err)
		}
		if !ok {
			return nil
		}
		if err := c.visit(ctx, logger, u); err != nil {
			return err
		}
	}
}

// visit runs one iteration of the worker loop for u.
func (c *Crawler) visit(ctx context.Context, logger *slog.Logger, u string) error {
	if !c.gate.CanFetch(ctx, u) {
		c.robotsDenied.Add(1)
		c.rejected[model.ReasonRobotsDenied].Add(1)
		c.metrics.ObserveRobotsDenied()
		logger.Debug("disallowed by robots.txt", "url", u)
		return c.complete(context.WithoutCancel(ctx), u)
	}

	if err := c.gate.Wait(ctx, u); err != nil {
		// Only cancellation ends up here. The URL stays pending in the
		// store and is retried by the next run.
		return nil
	}

	started := time.Now()
	resp := c.fetcher.Download(ctx, u)
	if resp == nil {
		resp = &model.Response{URL: u, Err: ErrNoResponse}
	}
	c.downloaded.Add(1)
	c.metrics.ObserveDownload(resp.Status, time.Since(started))
	if resp.Err != nil {
		logger.Warn("download failed", "url", u, "error", resp.Err)
	}

	// Everything after the download runs to completion even during
	// shutdown, so the page's effects are recorded all or nothing.
	record := context.WithoutCancel(ctx)

	res := c.processor.Process(record, u, resp)
	for _, link := range res.Links {
		if err := c.frontier.Add(record, link); err != nil {
			return fmt.Errorf("%w: add: %w", ErrFrontier, err)
		}
	}
	c.metrics.SetFrontierLength(c.frontier.Len())
	c.metrics.ObserveOutcome(res.Outcome.String(), res.Reason.String())

	if res.Outcome == model.OutcomeAccepted {
		c.recordAccepted(record, logger, res)
	} else {
		c.rejected[res.Reason].Add(1)
		logger.Debug("page rejected",
			"url", u,
			"status", resp.Status,
			"reason", res.Reason.String(),
			"duplicate_of", res.DuplicateOf,
			"links", len(res.Links),
		)
	}

	if err := c.complete(record, u); err != nil {
		return err
	}

	// Pause is only cut short by shutdown, which the loop check handles.
	_ = c.gate.Pause(ctx, res.Delay) //nolint:errcheck // see above
	return nil
}

func (c *Crawler) recordAccepted(ctx context.Context, logger *slog.Logger, res Result) {
	n := c.accepted.Add(1)
	logger.Info("page accepted",
		"url", res.Page.URL,
		"title", res.Title,
		"words", res.Page.Words,
		"links", len(res.Links),
		"accepted", n,
	)

	if c.pages != nil {
		if err := c.pages.SavePage(ctx, c.runID, *res.Page, res.Words); err != nil {
			logger.Warn("failed to persist page", "url", res.Page.URL, "error", err)
		}
	}

	if c.checkpoint != nil && c.checkpointEvery > 0 && n%int64(c.checkpointEvery) == 0 {
		c.writeCheckpoint(ctx)
	}
}

func (c *Crawler) writeCheckpoint(ctx context.Context) {
	c.checkpointMu.Lock()
	defer c.checkpointMu.Unlock()

	if err := c.checkpoint(ctx, c.corpus.Snapshot()); err != nil {
		c.logger.Warn("checkpoint failed", "error", err)
	}
}

func (c *Crawler) complete(ctx context.Context, u string) error {
	if err := c.frontier.MarkComplete(ctx, u); err != nil {
		return fmt.Errorf("%w: complete: %w", ErrFrontier, err)
	}
	return nil
}
