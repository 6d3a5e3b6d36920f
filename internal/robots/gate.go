package robots

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is the agent name matched against robots.txt groups when
// no other is configured.
const DefaultUserAgent = "ucicrawl"

// maxRobotsSize bounds how much of a robots.txt body is read.
const maxRobotsSize = 512 * 1024

// ErrInvalidURL is returned when a URL has no scheme or host.
var ErrInvalidURL = errors.New("invalid URL")

// policy is the cached robots.txt outcome for one scheme://host.
type policy struct {
	group *robotstxt.Group
	delay time.Duration
}

// allows reports whether the policy permits the request path.
func (p *policy) allows(path string) bool {
	if p.group == nil {
		return true
	}
	return p.group.Test(path)
}

// Gate answers politeness questions for the crawler workers.
// It is safe for concurrent use.
type Gate struct {
	client       *http.Client
	userAgent    string
	defaultDelay time.Duration
	logger       *slog.Logger

	mu       sync.RWMutex
	policies map[string]*policy
	limiters map[string]*rate.Limiter

	fetches singleflight.Group
}

// Option configures a Gate.
type Option func(*Gate)

// WithHTTPClient sets the client used to download robots.txt.
func WithHTTPClient(client *http.Client) Option {
	return func(g *Gate) {
		if client != nil {
			g.client = client
		}
	}
}

// WithUserAgent sets the agent name used for group matching and requests.
func WithUserAgent(ua string) Option {
	return func(g *Gate) {
		if ua != "" {
			g.userAgent = ua
		}
	}
}

// WithDefaultDelay sets the delay used when robots.txt has no crawl-delay.
func WithDefaultDelay(d time.Duration) Option {
	return func(g *Gate) {
		if d >= 0 {
			g.defaultDelay = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gate) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// NewGate creates a Gate. Without options it uses a 10 second HTTP client,
// DefaultUserAgent and a 500ms default delay.
func NewGate(opts ...Option) *Gate {
	g := &Gate{
		client:       &http.Client{Timeout: 10 * time.Second},
		userAgent:    DefaultUserAgent,
		defaultDelay: 500 * time.Millisecond,
		logger:       slog.New(slog.DiscardHandler),
		policies:     make(map[string]*policy),
		limiters:     make(map[string]*rate.Limiter),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// CanFetch reports whether robots.txt permits fetching rawURL.
// URLs without a scheme or host are never fetchable.
func (g *Gate) CanFetch(ctx context.Context, rawURL string) bool {
	u, key, err := splitURL(rawURL)
	if err != nil {
		return false
	}
	p := g.policyFor(ctx, key)

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	return p.allows(path)
}

// DelayFor returns the delay to keep between requests to the host of rawURL:
// the robots.txt crawl-delay when one is declared, otherwise the default.
func (g *Gate) DelayFor(ctx context.Context, rawURL string) time.Duration {
	_, key, err := splitURL(rawURL)
	if err != nil {
		return g.defaultDelay
	}
	return g.policyFor(ctx, key).delay
}

// DefaultDelay returns the configured fallback delay.
func (g *Gate) DefaultDelay() time.Duration {
	return g.defaultDelay
}

// Wait blocks until a request to the host of rawURL may be sent. Requests to
// one host are spaced by that host's delay no matter how many workers share it.
func (g *Gate) Wait(ctx context.Context, rawURL string) error {
	_, key, err := splitURL(rawURL)
	if err != nil {
		return err
	}
	delay := g.policyFor(ctx, key).delay
	if delay <= 0 {
		return nil
	}
	return g.limiterFor(key, delay).Wait(ctx)
}

// Pause sleeps for d or until ctx is done. It returns ctx.Err() when the
// sleep was cut short.
func (g *Gate) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (g *Gate) limiterFor(key string, delay time.Duration) *rate.Limiter {
	g.mu.Lock()
	defer g.mu.Unlock()
	lim, ok := g.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Every(delay), 1)
		g.limiters[key] = lim
	}
	return lim
}

// policyFor returns the cached policy for key, fetching robots.txt on first
// use. Concurrent first lookups share one download.
func (g *Gate) policyFor(ctx context.Context, key string) *policy {
	g.mu.RLock()
	p, ok := g.policies[key]
	g.mu.RUnlock()
	if ok {
		return p
	}

	v, _, _ := g.fetches.Do(key, func() (any, error) {
		p, cacheable := g.fetch(ctx, key)
		if cacheable {
			g.mu.Lock()
			g.policies[key] = p
			g.mu.Unlock()
		}
		return p, nil
	})
	return v.(*policy)
}

// fetch downloads and parses robots.txt for key. The boolean reports whether
// the result may be cached; a lookup aborted by context cancellation is not.
func (g *Gate) fetch(ctx context.Context, key string) (*policy, bool) {
	open := &policy{delay: g.defaultDelay}
	robotsURL := key + "/robots.txt"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		g.logger.Debug("robots.txt request failed", "url", robotsURL, "error", err)
		return open, true
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Debug("robots.txt unreachable, allowing all", "url", robotsURL, "error", err)
		return open, ctx.Err() == nil
	}
	defer resp.Body.Close()

	// robotstxt treats 5xx as "disallow all"; the crawler fails open instead.
	if resp.StatusCode >= http.StatusInternalServerError {
		g.logger.Debug("robots.txt server error, allowing all", "url", robotsURL, "status", resp.StatusCode)
		return open, true
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsSize))
	if err != nil {
		g.logger.Debug("robots.txt read failed, allowing all", "url", robotsURL, "error", err)
		return open, ctx.Err() == nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		g.logger.Debug("robots.txt unparseable, allowing all", "url", robotsURL, "error", err)
		return open, true
	}

	group := data.FindGroup(g.userAgent)
	p := &policy{group: group, delay: g.defaultDelay}
	if group != nil && group.CrawlDelay > 0 {
		p.delay = group.CrawlDelay
	}
	g.logger.Debug("robots.txt loaded", "url", robotsURL, "status", resp.StatusCode, "delay", p.delay)
	return p, true
}

func splitURL(rawURL string) (*url.URL, string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
	}
	return u, strings.ToLower(u.Scheme + "://" + u.Host), nil
}
