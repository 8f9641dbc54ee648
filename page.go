package libdoc

import "context"

// Page represents a crawled documentation page.
type Page struct {
	URL     string
	Title   string
	Content string // Markdown
	Depth   int
}

// MaxPageChars caps the markdown kept for a single page.
const MaxPageChars = 200_000

// CrawlOptions bounds a crawl.
type CrawlOptions struct {
	// MaxPages caps the number of pages fetched, failures included.
	MaxPages int

	// MaxDepth is the largest link distance from the seed that is fetched.
	// The seed has depth 0.
	MaxDepth int
}

// SkippedPage records a page that could not be fetched or converted.
type SkippedPage struct {
	URL string
	Err error
}

// CrawlResult holds the outcome of a crawl in fetch order.
type CrawlResult struct {
	Pages   []*Page
	Skipped []SkippedPage
}

// Scraper crawls a documentation site restricted to the seed's host.
type Scraper interface {
	// Crawl fetches pages breadth-first from seedURL. Individual page
	// failures are recorded in CrawlResult.Skipped and never abort the crawl.
	Crawl(ctx context.Context, seedURL string, opts CrawlOptions) (*CrawlResult, error)
}

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs finds URLs from a site's sitemap that share baseURL's host
	// and path prefix. It first checks robots.txt for sitemap directives,
	// then falls back to /sitemap.xml. Sitemap indexes are resolved
	// recursively. At most limit URLs are returned when limit > 0.
	DiscoverURLs(ctx context.Context, baseURL string, limit int) ([]string, error)
}

// PageStore persists pages to storage with atomic semantics.
// Save writes to a temporary location; Commit makes changes permanent;
// Abort discards pending changes.
type PageStore interface {
	Save(ctx context.Context, page *Page) error
	Commit() error
	Abort() error
}
