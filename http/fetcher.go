// Package http provides net/http implementations of the libdoc crawl
// collaborators: a static page fetcher and a sitemap reader.
package http

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/fwojciec/libdoc"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default per-page timeout.
const DefaultFetchTimeout = 15 * time.Second

// DefaultUserAgent identifies the crawler to documentation sites.
const DefaultUserAgent = "libdoc/1.0 (+https://github.com/fwojciec/libdoc)"

// maxBodyBytes bounds how much of a response is read.
const maxBodyBytes = 10 << 20

// Ensure Fetcher implements libdoc.Fetcher at compile time.
var _ libdoc.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML pages using plain HTTP requests.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent overrides DefaultUserAgent.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the page at url and returns its body decoded to UTF-8.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", libdoc.Errorf(libdoc.EINVALID, "Invalid URL: %s", url)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp.StatusCode, url); err != nil {
		return "", err
	}

	contentType := resp.Header.Get("Content-Type")
	if !isHTML(contentType) {
		return "", libdoc.Errorf(libdoc.EINVALID, "Unsupported content type %q for %s", contentType, url)
	}

	body, err := charset.NewReader(io.LimitReader(resp.Body, maxBodyBytes), contentType)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", url, err)
	}
	b, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

func checkStatus(code int, url string) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound || code == http.StatusGone:
		return libdoc.Errorf(libdoc.ENOTFOUND, "HTTP %d for %s", code, url)
	case code == http.StatusTooManyRequests || code >= 500:
		return libdoc.Errorf(libdoc.EUNAVAILABLE, "HTTP %d for %s", code, url)
	default:
		return libdoc.Errorf(libdoc.EINVALID, "HTTP %d for %s", code, url)
	}
}

// isHTML reports whether a Content-Type header denotes an HTML document.
// A missing header is accepted since many static hosts omit it.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "text/html" || mediaType == "application/xhtml+xml"
}
