package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/readinglist/internal/cache"
)

// ErrStatus is wrapped by errors for non-2xx responses.
var ErrStatus = errors.New("unexpected status")

// Response is a fetched document body.
type Response struct {
	URL         string
	ContentType string
	Body        []byte
	FromCache   bool
}

// Client issues single-attempt GETs with a declared identity and a per
// request timeout. Failures are never retried: a failed document stays
// missing until the next run.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// PerRequestTimeout bounds each request, including reading the body.
	PerRequestTimeout time.Duration
	// Optional on-disk cache for bodies and validators.
	Cache *cache.Documents
	// CacheMaxAge serves cached bodies younger than this without touching
	// the network. Zero means always revalidate.
	CacheMaxAge time.Duration
	// BypassCache fetches fresh (no conditional headers) but still saves.
	BypassCache bool
	// RedirectMaxHops caps redirect following. Zero means default (5).
	RedirectMaxHops int
	// AllowedTypes restricts accepted Content-Type prefixes. Empty allows all.
	AllowedTypes []string

	Log zerolog.Logger
}

func (c *Client) getHTTPClient() *http.Client {
	if c.HTTPClient != nil {
		// Clone to attach our redirect policy without mutating caller's client
		base := *c.HTTPClient
		base.CheckRedirect = c.checkRedirectFunc()
		return &base
	}
	return &http.Client{Timeout: c.PerRequestTimeout, CheckRedirect: c.checkRedirectFunc()}
}

// Get fetches rawURL, consulting the cache first when configured.
func (c *Client) Get(ctx context.Context, rawURL string) (*Response, error) {
	var etag, lastMod string
	if c.Cache != nil && !c.BypassCache {
		if meta, err := c.Cache.LoadMeta(ctx, rawURL); err == nil && meta != nil {
			if meta.Fresh(time.Now().UTC(), c.CacheMaxAge) {
				if body, err := c.Cache.LoadBody(ctx, rawURL); err == nil {
					c.Log.Debug().Str("url", rawURL).Msg("cache hit")
					return &Response{URL: rawURL, ContentType: meta.ContentType, Body: body, FromCache: true}, nil
				}
			}
			etag = meta.ETag
			lastMod = meta.LastModified
		}
	}

	resp, status, newEtag, newLastMod, err := c.tryOnce(ctx, rawURL, etag, lastMod)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotModified && c.Cache != nil {
		body, err := c.Cache.LoadBody(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("304 without cached body: %w", err)
		}
		meta, _ := c.Cache.LoadMeta(ctx, rawURL)
		ct := resp.ContentType
		if meta != nil && ct == "" {
			ct = meta.ContentType
		}
		return &Response{URL: rawURL, ContentType: ct, Body: body, FromCache: true}, nil
	}
	if c.Cache != nil && status == http.StatusOK {
		if err := c.Cache.Save(ctx, rawURL, resp.ContentType, newEtag, newLastMod, resp.Body); err != nil {
			c.Log.Warn().Err(err).Str("url", rawURL).Msg("cache save failed")
		}
	}
	return resp, nil
}

func (c *Client) tryOnce(ctx context.Context, rawURL, etag, lastMod string) (*Response, int, string, string, error) {
	if c.PerRequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.PerRequestTimeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, 0, "", "", fmt.Errorf("new request: %w", err)
	}
	// Reject non-HTTP(S) schemes early
	if !isHTTPScheme(req.URL) {
		return nil, 0, "", "", fmt.Errorf("unsupported URL scheme: %q", req.URL.String())
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	if etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastMod != "" {
		req.Header.Set("If-Modified-Since", lastMod)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, 0, "", "", err
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if resp.StatusCode == http.StatusNotModified {
		return &Response{URL: rawURL, ContentType: contentType}, resp.StatusCode, "", "", nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, resp.StatusCode, "", "", fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}
	if !c.allowed(contentType) {
		return nil, resp.StatusCode, "", "", fmt.Errorf("unsupported content type: %s", contentType)
	}
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, "", "", fmt.Errorf("read body: %w", err)
	}
	return &Response{URL: rawURL, ContentType: contentType, Body: b}, resp.StatusCode, resp.Header.Get("ETag"), resp.Header.Get("Last-Modified"), nil
}

// IsTimeout reports whether err came from a request deadline.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func (c *Client) checkRedirectFunc() func(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= max {
			return errors.New("too many redirects")
		}
		if !isHTTPScheme(req.URL) {
			return errors.New("redirect to unsupported scheme")
		}
		if c.UserAgent != "" {
			req.Header.Set("User-Agent", c.UserAgent)
		}
		return nil
	}
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func (c *Client) allowed(ct string) bool {
	if len(c.AllowedTypes) == 0 {
		return true
	}
	ct = strings.ToLower(strings.TrimSpace(ct))
	for _, p := range c.AllowedTypes {
		if strings.HasPrefix(ct, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
