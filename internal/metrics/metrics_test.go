package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestStatusClass tests status code bucketing.
func TestStatusClass(t *testing.T) {
	t.Parallel()

	tests := map[int]string{
		200: "2xx",
		204: "2xx",
		301: "3xx",
		404: "4xx",
		503: "5xx",
		0:   "other",
		999: "other",
	}
	for status, want := range tests {
		if got := StatusClass(status); got != want {
			t.Errorf("StatusClass(%d) = %q, want %q", status, got, want)
		}
	}
}

// TestObserve tests counter updates.
func TestObserve(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveDownload(200, 10*time.Millisecond)
	m.ObserveDownload(200, 20*time.Millisecond)
	m.ObserveDownload(404, time.Millisecond)
	m.ObserveDownload(0, time.Second)
	m.ObserveOutcome("rejected", "near_duplicate")
	m.ObserveRobotsDenied()
	m.SetFrontierLength(7)

	if got := testutil.ToFloat64(m.PagesDownloaded.WithLabelValues("2xx")); got != 2 {
		t.Errorf("2xx downloads = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.PagesDownloaded.WithLabelValues("4xx")); got != 1 {
		t.Errorf("4xx downloads = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FetchErrors); got != 1 {
		t.Errorf("fetch errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PageOutcomes.WithLabelValues("rejected", "near_duplicate")); got != 1 {
		t.Errorf("near duplicate outcomes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RobotsDenied); got != 1 {
		t.Errorf("robots denied = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.FrontierLength); got != 7 {
		t.Errorf("frontier length = %v, want 7", got)
	}
	if n := testutil.CollectAndCount(m.DownloadDuration); n != 1 {
		t.Errorf("expected one histogram series, got %d", n)
	}
}

// TestNilMetrics tests that a nil collector is a no-op.
func TestNilMetrics(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.ObserveDownload(200, time.Second)
	m.ObserveOutcome("accepted", "none")
	m.ObserveRobotsDenied()
	m.SetFrontierLength(1)
}

// TestHandler tests the exposition endpoint.
func TestHandler(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveRobotsDenied()

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if !strings.Contains(string(body), "ucicrawl_robots_denied_total 1") {
		t.Errorf("metrics output missing robots counter:\n%s", body)
	}
}

// TestServe tests that Serve stops with its context.
func TestServe(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close()

	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, addr) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/metrics")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("metrics server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not stop")
	}
}
