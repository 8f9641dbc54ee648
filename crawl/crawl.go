// Package crawl provides a bounded breadth-first documentation crawler.
// It coordinates fetching, link discovery, extraction and markdown
// conversion of the pages of a single host.
package crawl

import (
	"context"
	"log/slog"
	"net/url"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fwojciec/libdoc"
	"golang.org/x/sync/errgroup"
)

var _ libdoc.Scraper = (*Scraper)(nil)

// Crawl defaults.
const (
	DefaultMaxPages    = 30
	DefaultMaxDepth    = 2
	DefaultConcurrency = 4

	// MinPageChars is the smallest amount of markdown a page must yield to
	// be kept. Shorter pages are usually redirects or empty shells.
	MinPageChars = 50
)

const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.01
	drainTimeout              = 5 * time.Second
)

// Scraper crawls a documentation site breadth-first. Fetches run on a
// bounded worker pool while a single coordinator owns the frontier, so
// visited-set updates and enqueueing are serialized.
type Scraper struct {
	Fetcher   libdoc.Fetcher
	Extractor libdoc.Extractor
	Converter libdoc.Converter
	Links     libdoc.LinkExtractor

	// Sitemaps optionally seeds the frontier with sitemap URLs at depth 1.
	Sitemaps libdoc.SitemapService

	// RateLimiter optionally throttles requests per host.
	RateLimiter libdoc.DomainLimiter

	Logger      *slog.Logger
	Concurrency int

	// RetryDelays overrides DefaultRetryDelays. An empty non-nil slice
	// disables retries.
	RetryDelays []time.Duration
}

// pageResult holds the outcome of processing a single URL.
type pageResult struct {
	seq   int
	url   string
	depth int
	page  *libdoc.Page
	links []string
	err   error
}

// Crawl implements libdoc.Scraper. Zero values in opts select
// DefaultMaxPages and DefaultMaxDepth.
func (s *Scraper) Crawl(ctx context.Context, seedURL string, opts libdoc.CrawlOptions) (*libdoc.CrawlResult, error) {
	seed := CleanURL(seedURL)
	if seed == "" {
		return nil, libdoc.Errorf(libdoc.EINVALID, "Invalid seed URL: %q", seedURL)
	}
	// The host is compared in normalized form.
	parsed, err := url.Parse(NormalizeURL(seed))
	if err != nil {
		return nil, libdoc.Errorf(libdoc.EINVALID, "Invalid seed URL: %q", seedURL)
	}
	host := parsed.Host

	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	maxDepth := opts.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	frontier := NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate)
	frontier.Push(libdoc.QueuedURL{URL: seed})
	s.seedFromSitemap(ctx, frontier, seed, host, maxPages)

	var results []pageResult
	handle := func(res pageResult) {
		if res.depth < maxDepth {
			for _, link := range res.links {
				if !SameHost(link, host) {
					continue
				}
				frontier.Push(libdoc.QueuedURL{URL: link, Depth: res.depth + 1})
			}
		}
		results = append(results, res)
	}

	s.walk(ctx, frontier, maxPages, maxDepth, handle)

	sort.Slice(results, func(i, j int) bool { return results[i].seq < results[j].seq })
	out := &libdoc.CrawlResult{}
	for _, res := range results {
		if res.err != nil {
			s.logger().Warn("skipped page", "url", res.url, "err", res.err)
			out.Skipped = append(out.Skipped, libdoc.SkippedPage{URL: res.url, Err: res.err})
			continue
		}
		out.Pages = append(out.Pages, res.page)
	}
	return out, ctx.Err()
}

func (s *Scraper) seedFromSitemap(ctx context.Context, frontier *Frontier, seed, host string, limit int) {
	if s.Sitemaps == nil {
		return
	}
	urls, err := s.Sitemaps.DiscoverURLs(ctx, seed, limit)
	if err != nil {
		s.logger().Warn("sitemap discovery failed", "url", seed, "err", err)
		return
	}
	for _, u := range urls {
		if SameHost(u, host) {
			frontier.Push(libdoc.QueuedURL{URL: u, Depth: 1})
		}
	}
}

// walk dispatches frontier entries to the worker pool until the frontier is
// exhausted or maxPages URLs have been dispatched. handle runs on the
// calling goroutine only.
func (s *Scraper) walk(ctx context.Context, frontier *Frontier, maxPages, maxDepth int, handle func(pageResult)) {
	concurrency := s.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	type job struct {
		seq int
		q   libdoc.QueuedURL
	}
	workCh := make(chan job, concurrency)
	resultCh := make(chan pageResult)

	var g errgroup.Group
	for range concurrency {
		g.Go(func() error {
			for j := range workCh {
				res := s.process(ctx, j.q, maxDepth)
				res.seq = j.seq
				select {
				case resultCh <- res:
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(resultCh)
	}()

	dispatched := 0
	pending := 0
	var next *job

	pop := func() {
		if next != nil || dispatched >= maxPages {
			return
		}
		if q, ok := frontier.Pop(); ok {
			next = &job{seq: dispatched, q: q}
		}
	}
	pop()

loop:
	for next != nil || pending > 0 {
		if ctx.Err() != nil {
			break
		}

		if next != nil {
			select {
			case <-ctx.Done():
				break loop
			case workCh <- *next:
				dispatched++
				pending++
				next = nil
			case res := <-resultCh:
				pending--
				handle(res)
			}
		} else {
			select {
			case <-ctx.Done():
				break loop
			case res := <-resultCh:
				pending--
				handle(res)
			}
		}

		pop()
	}

	close(workCh)

	timeout := time.After(drainTimeout)
	for {
		select {
		case res, ok := <-resultCh:
			if !ok {
				return
			}
			handle(res)
		case <-timeout:
			return
		}
	}
}

// process fetches a single URL and converts it to a page.
func (s *Scraper) process(ctx context.Context, q libdoc.QueuedURL, maxDepth int) pageResult {
	res := pageResult{url: q.URL, depth: q.Depth}

	if s.RateLimiter != nil {
		u, err := url.Parse(q.URL)
		if err != nil {
			res.err = err
			return res
		}
		if err := s.RateLimiter.Wait(ctx, u.Host); err != nil {
			res.err = err
			return res
		}
	}

	delays := s.RetryDelays
	if delays == nil {
		delays = DefaultRetryDelays()
	}
	html, err := FetchWithRetryDelays(ctx, q.URL, s.Fetcher.Fetch, s.Logger, delays)
	if err != nil {
		res.err = err
		return res
	}

	// Links are followed even from pages that are later skipped for lack of
	// content; index pages are often little more than navigation.
	if q.Depth < maxDepth && s.Links != nil {
		links, err := s.Links.ExtractLinks(html, q.URL)
		if err != nil {
			s.logger().Debug("link extraction failed", "url", q.URL, "err", err)
		}
		res.links = links
	}

	extracted, err := s.Extractor.Extract(html)
	if err != nil {
		res.err = err
		return res
	}

	markdown, err := s.Converter.Convert(extracted.ContentHTML)
	if err != nil {
		res.err = err
		return res
	}
	markdown = strings.TrimSpace(markdown)
	if utf8.RuneCountInString(markdown) < MinPageChars {
		res.err = libdoc.Errorf(libdoc.EINVALID, "page has too little content")
		return res
	}

	title := strings.TrimSpace(extracted.Title)
	if title == "" {
		title = q.URL
	}

	res.page = &libdoc.Page{
		URL:     q.URL,
		Title:   title,
		Content: capRunes(markdown, libdoc.MaxPageChars),
		Depth:   q.Depth,
	}
	return res
}

func (s *Scraper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// capRunes truncates s to at most n runes.
func capRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
