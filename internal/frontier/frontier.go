package frontier

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bits-and-blooms/bloom/v3"

	"github.com/ucicrawl/ucicrawl/internal/urlnorm"
)

// ErrStore wraps failures of the persistent store.
var ErrStore = errors.New("frontier store failed")

// Frontier is the work queue consumed by crawl workers.
type Frontier interface {
	// Next blocks until a URL is available. ok is false once the frontier is
	// exhausted or ctx is done.
	Next(ctx context.Context) (url string, ok bool, err error)

	// Add queues url unless it was ever seen before.
	Add(ctx context.Context, url string) error

	// MarkComplete records that url has been fully processed.
	MarkComplete(ctx context.Context, url string) error

	// Len returns the number of queued URLs.
	Len() int
}

// Store persists frontier state so an interrupted crawl can resume.
type Store interface {
	// LoadFrontier returns every URL that was queued but never completed,
	// in insertion order, and every completed URL.
	LoadFrontier(ctx context.Context) (pending, completed []string, err error)

	// SaveQueued records a newly discovered URL.
	SaveQueued(ctx context.Context, url string) error

	// SaveCompleted records that url was processed.
	SaveCompleted(ctx context.Context, url string) error
}

type state uint8

const (
	stateQueued state = iota + 1
	stateInFlight
	stateCompleted
)

const (
	defaultExpectedURLs  = 1_000_000
	defaultFalsePositive = 0.01
)

// Memory is an in-process Frontier with optional persistence.
// It is safe for concurrent use.
type Memory struct {
	store Store

	mu       sync.Mutex
	queue    []string
	states   map[string]state
	inFlight int
	done     int
	// filter is a negative cache in front of states: a miss means the URL
	// was never added.
	filter *bloom.BloomFilter
	// changed is closed and replaced whenever the queue or in-flight
	// count changes, waking blocked Next calls.
	changed chan struct{}
}

// Option configures a Memory frontier.
type Option func(*config)

type config struct {
	store         Store
	expectedURLs  uint
	falsePositive float64
}

// WithStore persists every state change to s.
func WithStore(s Store) Option {
	return func(c *config) {
		c.store = s
	}
}

// WithExpectedURLs sizes the bloom filter.
func WithExpectedURLs(n uint) Option {
	return func(c *config) {
		if n > 0 {
			c.expectedURLs = n
		}
	}
}

// NewMemory creates an empty frontier.
func NewMemory(opts ...Option) *Memory {
	cfg := config{expectedURLs: defaultExpectedURLs, falsePositive: defaultFalsePositive}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Memory{
		store:   cfg.store,
		states:  make(map[string]state),
		filter:  bloom.NewWithEstimates(cfg.expectedURLs, cfg.falsePositive),
		changed: make(chan struct{}),
	}
}

// Open creates a frontier and restores it from its store, if any.
// URLs that were in flight when the previous run stopped come back queued.
func Open(ctx context.Context, opts ...Option) (*Memory, error) {
	f := NewMemory(opts...)
	if f.store == nil {
		return f, nil
	}

	pending, completed, err := f.store.LoadFrontier(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load: %w", ErrStore, err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range completed {
		f.remember(u, stateCompleted)
		f.done++
	}
	for _, u := range pending {
		if _, ok := f.states[u]; ok {
			continue
		}
		f.remember(u, stateQueued)
		f.queue = append(f.queue, u)
	}
	return f, nil
}

// Next implements Frontier.
func (f *Memory) Next(ctx context.Context) (string, bool, error) {
	for {
		f.mu.Lock()
		if len(f.queue) > 0 {
			u := f.queue[0]
			f.queue[0] = ""
			f.queue = f.queue[1:]
			f.states[u] = stateInFlight
			f.inFlight++
			f.mu.Unlock()
			return u, true, nil
		}
		if f.inFlight == 0 {
			f.mu.Unlock()
			return "", false, nil
		}
		wait := f.changed
		f.mu.Unlock()

		select {
		case <-ctx.Done():
			return "", false, nil
		case <-wait:
		}
	}
}

// Add implements Frontier. The fragment is stripped before the URL is keyed.
func (f *Memory) Add(ctx context.Context, rawURL string) error {
	u := urlnorm.StripFragment(rawURL)
	if u == "" {
		return nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.filter.TestString(u) {
		if _, ok := f.states[u]; ok {
			return nil
		}
	}
	if f.store != nil {
		if err := f.store.SaveQueued(ctx, u); err != nil {
			return fmt.Errorf("%w: save %s: %w", ErrStore, u, err)
		}
	}
	f.remember(u, stateQueued)
	f.queue = append(f.queue, u)
	f.notify()
	return nil
}

// MarkComplete implements Frontier. Completing a URL that was never handed
// out by Next still records it, so it can never be queued afterwards.
func (f *Memory) MarkComplete(ctx context.Context, rawURL string) error {
	u := urlnorm.StripFragment(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	prev := f.states[u]
	if prev == stateCompleted {
		return nil
	}
	if f.store != nil {
		if err := f.store.SaveCompleted(ctx, u); err != nil {
			return fmt.Errorf("%w: complete %s: %w", ErrStore, u, err)
		}
	}
	switch prev {
	case stateInFlight:
		f.inFlight--
	case stateQueued:
		f.dropQueued(u)
	}
	f.remember(u, stateCompleted)
	f.done++
	f.notify()
	return nil
}

// Len implements Frontier.
func (f *Memory) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// InFlight returns the number of URLs handed out but not completed.
func (f *Memory) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Completed returns the number of completed URLs.
func (f *Memory) Completed() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.done
}

// Known returns the number of distinct URLs ever added.
func (f *Memory) Known() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.states)
}

func (f *Memory) remember(u string, s state) {
	f.states[u] = s
	f.filter.AddString(u)
}

func (f *Memory) dropQueued(u string) {
	for i, q := range f.queue {
		if q == u {
			f.queue = append(f.queue[:i], f.queue[i+1:]...)
			return
		}
	}
}

// notify wakes every goroutine blocked in Next. Callers hold mu.
func (f *Memory) notify() {
	close(f.changed)
	f.changed = make(chan struct{})
}
