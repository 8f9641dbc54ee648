package crawl_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/libdoc"
	"github.com/fwojciec/libdoc/crawl"
	"github.com/fwojciec/libdoc/goquery"
	libdochttp "github.com/fwojciec/libdoc/http"
	"github.com/fwojciec/libdoc/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// site is an in-memory website: each path maps to the links found on it.
type site struct {
	mu      sync.Mutex
	links   map[string][]string
	fail    map[string]error
	fetched []string
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (string, error) {
			s.mu.Lock()
			s.fetched = append(s.fetched, url)
			s.mu.Unlock()
			if err, ok := s.fail[url]; ok {
				return "", err
			}
			if _, ok := s.links[url]; !ok {
				return "", libdoc.Errorf(libdoc.ENOTFOUND, "404")
			}
			return url, nil
		},
	}
}

func (s *site) linkExtractor() *mock.LinkExtractor {
	return &mock.LinkExtractor{
		ExtractLinksFn: func(html string, baseURL string) ([]string, error) {
			return s.links[html], nil
		},
	}
}

func (s *site) fetchedURLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.fetched...)
}

func newScraper(s *site) *crawl.Scraper {
	return &crawl.Scraper{
		Fetcher: s.fetcher(),
		Links:   s.linkExtractor(),
		Extractor: &mock.Extractor{
			ExtractFn: func(html string) (*libdoc.ExtractResult, error) {
				return &libdoc.ExtractResult{Title: "Title of " + html, ContentHTML: html}, nil
			},
		},
		Converter: &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				return "# Page\n\n" + strings.Repeat("content of "+html+" ", 3), nil
			},
		},
		Concurrency: 3,
		RetryDelays: []time.Duration{},
	}
}

func pageURLs(pages []*libdoc.Page) []string {
	urls := make([]string, len(pages))
	for i, p := range pages {
		urls[i] = p.URL
	}
	return urls
}

func TestScraper_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("follows same-host links breadth-first", func(t *testing.T) {
		t.Parallel()

		s := &site{links: map[string][]string{
			"https://docs.example.com/":       {"https://docs.example.com/a", "https://docs.example.com/b", "https://other.com/x"},
			"https://docs.example.com/a":      {"https://docs.example.com/a/deep"},
			"https://docs.example.com/b":      {},
			"https://docs.example.com/a/deep": {},
		}}

		res, err := newScraper(s).Crawl(context.Background(), "https://docs.example.com", libdoc.CrawlOptions{MaxPages: 10, MaxDepth: 2})

		require.NoError(t, err)
		assert.Equal(t, []string{
			"https://docs.example.com/",
			"https://docs.example.com/a",
			"https://docs.example.com/b",
			"https://docs.example.com/a/deep",
		}, pageURLs(res.Pages))
		assert.NotContains(t, s.fetchedURLs(), "https://other.com/x")
		assert.Equal(t, 2, res.Pages[3].Depth)
		assert.Equal(t, "Title of https://docs.example.com/a", res.Pages[1].Title)
	})

	t.Run("visits at most maxPages distinct URLs despite cycles", func(t *testing.T) {
		t.Parallel()

		s := &site{links: map[string][]string{
			"https://x.com/":  {"https://x.com/a", "https://x.com/b", "https://x.com/"},
			"https://x.com/a": {"https://x.com/", "https://x.com/b", "https://x.com/c"},
			"https://x.com/b": {"https://x.com/a/", "https://x.com/c?ref=b"},
			"https://x.com/c": {"https://x.com/"},
		}}

		res, err := newScraper(s).Crawl(context.Background(), "https://x.com/", libdoc.CrawlOptions{MaxPages: 3, MaxDepth: 5})

		require.NoError(t, err)
		fetched := s.fetchedURLs()
		assert.Len(t, fetched, 3)
		assert.ElementsMatch(t, fetched, uniq(fetched), "no URL fetched twice")
		assert.Len(t, res.Pages, 3)
	})

	t.Run("does not enqueue links beyond maxDepth", func(t *testing.T) {
		t.Parallel()

		s := &site{links: map[string][]string{
			"https://x.com/":    {"https://x.com/one"},
			"https://x.com/one": {"https://x.com/two"},
			"https://x.com/two": {},
		}}

		res, err := newScraper(s).Crawl(context.Background(), "https://x.com/", libdoc.CrawlOptions{MaxPages: 10, MaxDepth: 1})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://x.com/", "https://x.com/one"}, pageURLs(res.Pages))
		assert.NotContains(t, s.fetchedURLs(), "https://x.com/two")
	})

	t.Run("records failing pages as skipped and continues", func(t *testing.T) {
		t.Parallel()

		s := &site{
			links: map[string][]string{
				"https://x.com/":  {"https://x.com/a", "https://x.com/b", "https://x.com/c"},
				"https://x.com/a": {},
				"https://x.com/b": {},
				"https://x.com/c": {},
			},
			fail: map[string]error{
				"https://x.com/a": libdoc.Errorf(libdoc.EUNAVAILABLE, "unexpected status 503"),
			},
		}

		res, err := newScraper(s).Crawl(context.Background(), "https://x.com/", libdoc.CrawlOptions{MaxPages: 10, MaxDepth: 2})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://x.com/", "https://x.com/b", "https://x.com/c"}, pageURLs(res.Pages))
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, "https://x.com/a", res.Skipped[0].URL)
		assert.Equal(t, libdoc.EUNAVAILABLE, libdoc.ErrorCode(res.Skipped[0].Err))
	})

	t.Run("skips pages with too little content but follows their links", func(t *testing.T) {
		t.Parallel()

		s := &site{links: map[string][]string{
			"https://x.com/":     {"https://x.com/real"},
			"https://x.com/real": {},
		}}
		scraper := newScraper(s)
		scraper.Converter = &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				if html == "https://x.com/" {
					return "Redirecting…", nil
				}
				return strings.Repeat("useful text ", 10), nil
			},
		}

		res, err := scraper.Crawl(context.Background(), "https://x.com/", libdoc.CrawlOptions{})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://x.com/real"}, pageURLs(res.Pages))
		require.Len(t, res.Skipped, 1)
		assert.Equal(t, "https://x.com/", res.Skipped[0].URL)
	})

	t.Run("caps oversized pages", func(t *testing.T) {
		t.Parallel()

		s := &site{links: map[string][]string{"https://x.com/": {}}}
		scraper := newScraper(s)
		scraper.Converter = &mock.Converter{
			ConvertFn: func(html string) (string, error) {
				return strings.Repeat("é", libdoc.MaxPageChars+100), nil
			},
		}

		res, err := scraper.Crawl(context.Background(), "https://x.com/", libdoc.CrawlOptions{})

		require.NoError(t, err)
		require.Len(t, res.Pages, 1)
		assert.Equal(t, libdoc.MaxPageChars, len([]rune(res.Pages[0].Content)))
	})

	t.Run("seeds sitemap URLs at depth one", func(t *testing.T) {
		t.Parallel()

		s := &site{links: map[string][]string{
			"https://x.com/docs/":        {},
			"https://x.com/docs/install": {},
		}}
		scraper := newScraper(s)
		scraper.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, limit int) ([]string, error) {
				assert.Equal(t, "https://x.com/docs/", baseURL)
				assert.Equal(t, 30, limit)
				return []string{"https://x.com/docs/install", "https://elsewhere.com/docs"}, nil
			},
		}

		res, err := scraper.Crawl(context.Background(), "https://x.com/docs/", libdoc.CrawlOptions{})

		require.NoError(t, err)
		assert.Equal(t, []string{"https://x.com/docs/", "https://x.com/docs/install"}, pageURLs(res.Pages))
		assert.Equal(t, 1, res.Pages[1].Depth)
	})

	t.Run("continues when sitemap discovery fails", func(t *testing.T) {
		t.Parallel()

		s := &site{links: map[string][]string{"https://x.com/": {}}}
		scraper := newScraper(s)
		scraper.Sitemaps = &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, limit int) ([]string, error) {
				return nil, errors.New("no sitemap")
			},
		}

		res, err := scraper.Crawl(context.Background(), "https://x.com/", libdoc.CrawlOptions{})

		require.NoError(t, err)
		assert.Len(t, res.Pages, 1)
	})

	t.Run("waits on the rate limiter per host", func(t *testing.T) {
		t.Parallel()

		s := &site{links: map[string][]string{"https://x.com/": {}}}
		var hosts []string
		var mu sync.Mutex
		scraper := newScraper(s)
		scraper.RateLimiter = &mock.DomainLimiter{
			WaitFn: func(ctx context.Context, domain string) error {
				mu.Lock()
				hosts = append(hosts, domain)
				mu.Unlock()
				return nil
			},
		}

		_, err := scraper.Crawl(context.Background(), "https://x.com/", libdoc.CrawlOptions{})

		require.NoError(t, err)
		assert.Equal(t, []string{"x.com"}, hosts)
	})

	t.Run("resolves relative links against directory pages", func(t *testing.T) {
		t.Parallel()

		pages := map[string]string{
			"/docs/":             `<html><body><a href="install.html">Install</a> <a href="api/#top">API</a></body></html>`,
			"/docs/install.html": `<html><body><p>Install it.</p></body></html>`,
			"/docs/api/":         `<html><body><p>Reference.</p></body></html>`,
		}
		var mu sync.Mutex
		var hits []string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			hits = append(hits, r.URL.Path)
			mu.Unlock()
			body, ok := pages[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)

		scraper := newScraper(&site{})
		scraper.Fetcher = libdochttp.NewFetcher()
		scraper.Links = goquery.NewLinkExtractor()

		res, err := scraper.Crawl(context.Background(), srv.URL+"/docs/#intro", libdoc.CrawlOptions{MaxPages: 10, MaxDepth: 2})

		require.NoError(t, err)
		assert.Empty(t, res.Skipped)
		assert.Equal(t, []string{
			srv.URL + "/docs/",
			srv.URL + "/docs/install.html",
			srv.URL + "/docs/api/",
		}, pageURLs(res.Pages))
		mu.Lock()
		defer mu.Unlock()
		assert.ElementsMatch(t, []string{"/docs/", "/docs/install.html", "/docs/api/"}, hits)
	})

	t.Run("rejects invalid seed", func(t *testing.T) {
		t.Parallel()

		_, err := newScraper(&site{}).Crawl(context.Background(), "ftp://x.com", libdoc.CrawlOptions{})

		assert.Equal(t, libdoc.EINVALID, libdoc.ErrorCode(err))
	})
}

func uniq(ss []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, s := range ss {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
