package mock

import (
	"context"

	"github.com/fwojciec/libdoc"
)

// Compile-time interface verification.
var (
	_ libdoc.Scraper        = (*Scraper)(nil)
	_ libdoc.SitemapService = (*SitemapService)(nil)
	_ libdoc.PageStore      = (*PageStore)(nil)
	_ libdoc.DomainLimiter  = (*DomainLimiter)(nil)
)

// Scraper is a mock implementation of libdoc.Scraper.
type Scraper struct {
	CrawlFn func(ctx context.Context, seedURL string, opts libdoc.CrawlOptions) (*libdoc.CrawlResult, error)
}

func (s *Scraper) Crawl(ctx context.Context, seedURL string, opts libdoc.CrawlOptions) (*libdoc.CrawlResult, error) {
	return s.CrawlFn(ctx, seedURL, opts)
}

// SitemapService is a mock implementation of libdoc.SitemapService.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, limit int) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, limit int) ([]string, error) {
	return s.DiscoverURLsFn(ctx, baseURL, limit)
}

// PageStore is a mock implementation of libdoc.PageStore.
type PageStore struct {
	SaveFn   func(ctx context.Context, page *libdoc.Page) error
	CommitFn func() error
	AbortFn  func() error
}

func (s *PageStore) Save(ctx context.Context, page *libdoc.Page) error {
	return s.SaveFn(ctx, page)
}

func (s *PageStore) Commit() error {
	return s.CommitFn()
}

func (s *PageStore) Abort() error {
	return s.AbortFn()
}

// DomainLimiter is a mock implementation of libdoc.DomainLimiter.
type DomainLimiter struct {
	WaitFn func(ctx context.Context, domain string) error
}

func (l *DomainLimiter) Wait(ctx context.Context, domain string) error {
	return l.WaitFn(ctx, domain)
}
