package libdoc

import "context"

// Fetcher retrieves HTML from URLs.
type Fetcher interface {
	// Fetch returns the HTML body of the page at url. Non-2xx responses and
	// non-HTML content are errors: ENOTFOUND for 404/410, EUNAVAILABLE for
	// 429 and 5xx, EINVALID for other statuses and content types.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases resources held by the fetcher.
	Close() error
}

// Retryable reports whether a failed fetch may succeed when retried.
func Retryable(err error) bool {
	switch ErrorCode(err) {
	case ENOTFOUND, EINVALID:
		return false
	}
	return err != nil
}
