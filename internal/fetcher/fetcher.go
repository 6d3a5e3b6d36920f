package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ucicrawl/ucicrawl/internal/model"
)

// Defaults used when no option overrides them.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxBodySize = 10 * 1024 * 1024
	DefaultUserAgent   = "ucicrawl/1.0"
)

// HTTP downloads pages over HTTP(S). It is safe for concurrent use.
type HTTP struct {
	client      *http.Client
	proxy       *url.URL
	userAgent   string
	maxBodySize int64
}

// Option configures an HTTP fetcher.
type Option func(*options)

type options struct {
	timeout     time.Duration
	maxBodySize int64
	userAgent   string
	proxy       string
	transport   http.RoundTripper
}

// WithTimeout bounds each download, including reading the body.
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithMaxBodySize truncates bodies larger than n bytes.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		if n > 0 {
			o.maxBodySize = n
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(o *options) {
		if ua != "" {
			o.userAgent = ua
		}
	}
}

// WithProxy routes requests through a socks5:// or http:// proxy.
// An empty string means a direct connection.
func WithProxy(raw string) Option {
	return func(o *options) {
		o.proxy = raw
	}
}

// WithTransport replaces the underlying round tripper. It takes precedence
// over WithProxy and is mainly useful in tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// New creates an HTTP fetcher.
func New(opts ...Option) (*HTTP, error) {
	o := options{
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(&o)
	}

	var proxyURL *url.URL
	if o.proxy != "" {
		u, err := parseProxy(o.proxy)
		if err != nil {
			return nil, err
		}
		proxyURL = u
	}

	rt := o.transport
	if rt == nil {
		transport, err := newTransport(proxyURL)
		if err != nil {
			return nil, err
		}
		rt = transport
	}

	return &HTTP{
		client: &http.Client{
			Transport: &userAgentTransport{base: rt, userAgent: o.userAgent},
			Timeout:   o.timeout,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		proxy:       proxyURL,
		userAgent:   o.userAgent,
		maxBodySize: o.maxBodySize,
	}, nil
}

// Download fetches rawURL. It never fails for HTTP status codes; transport
// failures are reported in Response.Err with Status 0.
//
// Design decision: The request runs on a context detached from ctx's
// cancellation. A download that already started is allowed to finish (it is
// still bounded by the client timeout) so that a shutdown never leaves a page
// half processed.
func (c *HTTP) Download(ctx context.Context, rawURL string) *model.Response {
	out := &model.Response{URL: rawURL}

	req, err := http.NewRequestWithContext(context.WithoutCancel(ctx), http.MethodGet, rawURL, nil)
	if err != nil {
		out.Err = fmt.Errorf("build request: %w", err)
		return out
	}

	resp, err := c.client.Do(req)
	if err != nil {
		out.Err = err
		return out
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize))
	if err != nil {
		out.Err = fmt.Errorf("read body: %w", err)
		return out
	}

	out.Status = resp.StatusCode
	out.ContentType = resp.Header.Get("Content-Type")
	out.Content = body
	if resp.Request != nil && resp.Request.URL != nil {
		out.FinalURL = resp.Request.URL.String()
	}
	if loc, err := resp.Location(); err == nil {
		out.Location = loc.String()
	}
	return out
}

// UserAgent returns the User-Agent sent with every request.
func (c *HTTP) UserAgent() string {
	return c.userAgent
}

// Client returns the underlying HTTP client. The robots gate shares it so
// robots.txt is fetched through the same proxy. Unlike page downloads the
// client does not follow redirects, which robots.txt lookups tolerate: a
// redirected robots.txt is treated as missing.
func (c *HTTP) Client() *http.Client {
	return c.client
}

// userAgentTransport sets the User-Agent header on every request.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
