// Package metrics exposes crawl progress as Prometheus metrics.
//
// All collectors live on a private registry, so several crawlers (or tests)
// in one process never collide on the global default registry. Every method
// is safe to call on a nil *Metrics, which is how metrics are disabled.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ucicrawl"

// shutdownTimeout bounds how long Serve waits for in-flight scrapes.
const shutdownTimeout = 5 * time.Second

// Metrics holds the crawler's collectors.
type Metrics struct {
	Registry *prometheus.Registry

	PagesDownloaded  *prometheus.CounterVec
	PageOutcomes     *prometheus.CounterVec
	RobotsDenied     prometheus.Counter
	FetchErrors      prometheus.Counter
	FrontierLength   prometheus.Gauge
	DownloadDuration prometheus.Histogram
}

// New creates and registers all collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		PagesDownloaded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_downloaded_total",
				Help:      "Pages downloaded, by HTTP status class.",
			},
			[]string{"status_class"},
		),
		PageOutcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_outcome_total",
				Help:      "Processed pages, by outcome and rejection reason.",
			},
			[]string{"outcome", "reason"},
		),
		RobotsDenied: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "robots_denied_total",
			Help:      "URLs skipped because robots.txt disallows them.",
		}),
		FetchErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_errors_total",
			Help:      "Downloads that failed below HTTP.",
		}),
		FrontierLength: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frontier_queue_length",
			Help:      "URLs waiting in the frontier.",
		}),
		DownloadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "download_duration_seconds",
			Help:      "Time spent downloading one page.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	m.Registry.MustRegister(
		m.PagesDownloaded,
		m.PageOutcomes,
		m.RobotsDenied,
		m.FetchErrors,
		m.FrontierLength,
		m.DownloadDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveDownload records one download. status 0 means a transport failure.
func (m *Metrics) ObserveDownload(status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.DownloadDuration.Observe(elapsed.Seconds())
	if status == 0 {
		m.FetchErrors.Inc()
		return
	}
	m.PagesDownloaded.WithLabelValues(StatusClass(status)).Inc()
}

// ObserveOutcome records how one page ended.
func (m *Metrics) ObserveOutcome(outcome, reason string) {
	if m == nil {
		return
	}
	m.PageOutcomes.WithLabelValues(outcome, reason).Inc()
}

// ObserveRobotsDenied records a URL skipped by robots.txt.
func (m *Metrics) ObserveRobotsDenied() {
	if m == nil {
		return
	}
	m.RobotsDenied.Inc()
}

// SetFrontierLength records the current queue length.
func (m *Metrics) SetFrontierLength(n int) {
	if m == nil {
		return
	}
	m.FrontierLength.Set(float64(n))
}

// Handler returns the /metrics handler for the private registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}

// Serve exposes /metrics on addr until ctx is done.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	}
}

// StatusClass maps an HTTP status to "2xx", "3xx" and so on.
func StatusClass(status int) string {
	if status < 100 || status > 599 {
		return "other"
	}
	return strconv.Itoa(status/100) + "xx"
}
