package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hyperifyio/readinglist/internal/cache"
)

func TestGet_SendsUserAgent(t *testing.T) {
	var ua atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua.Store(r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>ok</body></html>"))
	}))
	defer srv.Close()

	c := &Client{UserAgent: "readinglist-test", PerRequestTimeout: 2 * time.Second}
	resp, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ContentType == "" || len(resp.Body) == 0 {
		t.Fatalf("expected content type and body")
	}
	if got := ua.Load(); got != "readinglist-test" {
		t.Fatalf("user agent = %v", got)
	}
}

func TestGet_NoRetryOn5xx(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second}
	_, err := c.Get(context.Background(), srv.URL)
	if !errors.Is(err, ErrStatus) {
		t.Fatalf("expected ErrStatus, got %v", err)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected exactly one attempt, got %d", n)
	}
}

func TestGet_TimeoutIsReported(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := &Client{PerRequestTimeout: 50 * time.Millisecond}
	_, err := c.Get(context.Background(), srv.URL)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
	if !IsTimeout(err) {
		t.Fatalf("expected IsTimeout, got %v", err)
	}
}

func TestGet_Conditional304_UsesCache(t *testing.T) {
	var calls int32
	etag := `"abc123"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "text/html")
		if n == 1 {
			w.Header().Set("ETag", etag)
			_, _ = w.Write([]byte("first"))
			return
		}
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		_, _ = w.Write([]byte("unexpected"))
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second, Cache: &cache.Documents{Dir: t.TempDir()}}
	r1, err := c.Get(context.Background(), srv.URL)
	if err != nil || string(r1.Body) != "first" {
		t.Fatalf("first get: %v", err)
	}
	r2, err := c.Get(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("second get error: %v", err)
	}
	if string(r2.Body) != "first" || !r2.FromCache {
		t.Fatalf("expected cached body, got %q fromCache=%v", r2.Body, r2.FromCache)
	}
}

func TestGet_FreshCacheSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF"))
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second, Cache: &cache.Documents{Dir: t.TempDir()}, CacheMaxAge: time.Hour}
	for i := 0; i < 3; i++ {
		if _, err := c.Get(context.Background(), srv.URL); err != nil {
			t.Fatalf("get %d: %v", i, err)
		}
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one network call, got %d", n)
	}
}

func TestGet_RejectsNonHTTP(t *testing.T) {
	c := &Client{PerRequestTimeout: time.Second}
	if _, err := c.Get(context.Background(), "file:///etc/hosts"); err == nil {
		t.Fatalf("expected error for non-http scheme")
	}
}

func TestGet_ContentTypeGating(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	c := &Client{PerRequestTimeout: 2 * time.Second, AllowedTypes: []string{"text/html"}}
	if _, err := c.Get(context.Background(), srv.URL); err == nil {
		t.Fatalf("expected error for unsupported content type")
	}
	c.AllowedTypes = nil
	if _, err := c.Get(context.Background(), srv.URL); err != nil {
		t.Fatalf("expected any type allowed, got %v", err)
	}
}

func TestIsTimeout(t *testing.T) {
	if IsTimeout(nil) || IsTimeout(errors.New("boom")) {
		t.Fatalf("false positives")
	}
	if !IsTimeout(context.DeadlineExceeded) {
		t.Fatalf("deadline should be timeout")
	}
}
