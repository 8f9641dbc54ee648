package libdoc

import "context"

// QueuedURL is a frontier entry with its link distance from the seed.
type QueuedURL struct {
	URL   string
	Depth int
}

// URLFrontier is a first-in first-out crawl queue with deduplication.
type URLFrontier interface {
	// Push enqueues the URL unless it was seen before and reports whether it
	// was added.
	Push(u QueuedURL) bool

	// Pop returns the oldest queued URL.
	// Returns false if the frontier is empty.
	Pop() (QueuedURL, bool)

	// Len returns the number of URLs in the queue.
	Len() int

	// Seen returns true if the URL has been processed or queued.
	Seen(url string) bool
}

// LinkExtractor extracts absolute same-host HTTP links from HTML.
type LinkExtractor interface {
	// ExtractLinks parses HTML and returns links in document order.
	// The baseURL is used to resolve relative URLs.
	ExtractLinks(html string, baseURL string) ([]string, error)
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
