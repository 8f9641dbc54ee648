package crawl

import (
	"sync"

	"github.com/fwojciec/libdoc"
	"github.com/fwojciec/libdoc/bloom"
)

// Compile-time interface verification.
var _ libdoc.URLFrontier = (*Frontier)(nil)

// Frontier is an in-memory breadth-first URL queue with a visited set.
// URLs are deduplicated by their normalized form but queued as given, minus
// the fragment. The exact visited set decides; the Bloom filter only spares
// the map lookup for keys it has never seen, so a new URL is never dropped.
// It is safe for concurrent use.
type Frontier struct {
	mu      sync.Mutex
	filter  *bloom.Filter
	visited map[string]struct{}
	queue   []libdoc.QueuedURL
}

// NewFrontier creates a new Frontier sized for n expected URLs
// with the given false positive rate for the Bloom pre-check.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		filter:  bloom.NewFilter(n, fpRate),
		visited: make(map[string]struct{}, n),
	}
}

// Push adds a URL to the back of the queue.
// Returns false if the URL is not crawlable or has already been seen.
func (f *Frontier) Push(u libdoc.QueuedURL) bool {
	key := NormalizeURL(u.URL)
	if key == "" {
		return false
	}
	u.URL = CleanURL(u.URL)

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.filter.TestAndAdd(key) {
		if _, ok := f.visited[key]; ok {
			return false
		}
	}
	f.visited[key] = struct{}{}

	f.queue = append(f.queue, u)
	return true
}

// Pop returns the oldest queued URL.
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (libdoc.QueuedURL, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return libdoc.QueuedURL{}, false
	}
	u := f.queue[0]
	f.queue[0] = libdoc.QueuedURL{}
	f.queue = f.queue[1:]
	return u, true
}

// Len returns the number of URLs in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen returns true if the URL has been processed or queued.
func (f *Frontier) Seen(rawURL string) bool {
	key := NormalizeURL(rawURL)
	if key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen(key)
}

func (f *Frontier) seen(key string) bool {
	if !f.filter.Test(key) {
		return false
	}
	_, ok := f.visited[key]
	return ok
}
