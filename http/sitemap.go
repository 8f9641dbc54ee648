package http

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/libdoc"
)

// DefaultMaxSitemaps caps the sitemap documents read by one discovery.
const DefaultMaxSitemaps = 20

// maxIndexDepth bounds how deeply sitemap indexes may nest.
const maxIndexDepth = 3

var _ libdoc.SitemapService = (*SitemapService)(nil)

// SitemapService seeds crawls from robots.txt and sitemap.xml.
type SitemapService struct {
	client      *http.Client
	userAgent   string
	maxSitemaps int
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, a client with DefaultFetchTimeout is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}
	return &SitemapService{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxSitemaps: DefaultMaxSitemaps,
	}
}

// DiscoverURLs implements libdoc.SitemapService. The result is never nil.
//
// Sitemaps are optional: a missing, unreadable or malformed sitemap adds
// nothing and is not an error. Only context errors are returned, plus
// EINVALID for a baseURL that is not an absolute http(s) URL.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, limit int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return nil, libdoc.Errorf(libdoc.EINVALID, "Invalid sitemap base URL %q.", baseURL)
	}

	d := &discovery{
		svc:      s,
		host:     base.Host,
		prefix:   strings.TrimSuffix(base.Path, "/"),
		limit:    limit,
		urls:     []string{},
		seen:     map[string]bool{},
		sitemaps: map[string]bool{},
	}

	// Sitemaps live at the root of the host whatever the base path.
	root := &url.URL{Scheme: base.Scheme, Host: base.Host}
	for _, loc := range s.sitemapLocations(ctx, root) {
		if err := d.read(ctx, loc, 0); err != nil {
			return nil, err
		}
		if d.full() {
			break
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.urls, nil
}

// sitemapLocations returns the Sitemap directives of robots.txt, or the
// conventional /sitemap.xml when there are none.
func (s *SitemapService) sitemapLocations(ctx context.Context, root *url.URL) []string {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	if body, err := s.get(ctx, robots); err == nil {
		defer body.Close()
		var locs []string
		sc := bufio.NewScanner(body)
		for sc.Scan() {
			key, value, ok := strings.Cut(strings.TrimSpace(sc.Text()), ":")
			if ok && strings.EqualFold(strings.TrimSpace(key), "sitemap") {
				if loc := strings.TrimSpace(value); loc != "" {
					locs = append(locs, loc)
				}
			}
		}
		if len(locs) > 0 {
			return locs
		}
	}
	return []string{root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()}
}

// discovery accumulates the page URLs of one DiscoverURLs call.
type discovery struct {
	svc    *SitemapService
	host   string
	prefix string
	limit  int

	urls     []string
	seen     map[string]bool
	sitemaps map[string]bool
}

func (d *discovery) full() bool {
	return d.limit > 0 && len(d.urls) >= d.limit
}

// read collects the pages of the sitemap at loc, following indexes.
func (d *discovery) read(ctx context.Context, loc string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.full() || depth > maxIndexDepth || d.sitemaps[loc] || len(d.sitemaps) >= d.svc.maxSitemaps {
		return nil
	}
	d.sitemaps[loc] = true

	root, err := d.svc.document(ctx, loc)
	if err != nil {
		return ctx.Err()
	}

	switch root.Tag {
	case "sitemapindex":
		for _, child := range locations(root, "sitemap") {
			if err := d.read(ctx, child, depth+1); err != nil {
				return err
			}
		}
	case "urlset":
		for _, u := range locations(root, "url") {
			d.add(u)
			if d.full() {
				break
			}
		}
	}
	return nil
}

// add records u when it lies on the base host under the base path. The
// prefix respects path boundaries: /docs matches /docs and /docs/intro but
// not /documentation.
func (d *discovery) add(u string) {
	parsed, err := url.Parse(u)
	if err != nil || !strings.EqualFold(parsed.Host, d.host) || d.seen[u] {
		return
	}
	if d.prefix != "" {
		p := strings.TrimSuffix(parsed.Path, "/")
		if p != d.prefix && !strings.HasPrefix(p, d.prefix+"/") {
			return
		}
	}
	d.seen[u] = true
	d.urls = append(d.urls, u)
}

// locations returns the trimmed <loc> text of every tag child of root.
func locations(root *etree.Element, tag string) []string {
	var locs []string
	for _, el := range root.SelectElements(tag) {
		if loc := el.SelectElement("loc"); loc != nil {
			if v := strings.TrimSpace(loc.Text()); v != "" {
				locs = append(locs, v)
			}
		}
	}
	return locs
}

// document fetches and parses a sitemap, gunzipping .gz sitemaps.
func (s *SitemapService) document(ctx context.Context, loc string) (*etree.Element, error) {
	body, err := s.get(ctx, loc)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	var r io.Reader = io.LimitReader(body, maxBodyBytes)
	if strings.HasSuffix(strings.ToLower(loc), ".gz") {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("gunzip sitemap %s: %w", loc, err)
		}
		defer zr.Close()
		r = io.LimitReader(zr, maxBodyBytes)
	}

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", loc, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("empty sitemap %s", loc)
	}
	return doc.Root(), nil
}

// get issues a GET and returns the body of a 2xx response.
func (s *SitemapService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := checkStatus(resp.StatusCode, target); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp.Body, nil
}
