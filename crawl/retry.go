package crawl

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/libdoc"
)

// FetchFunc is the signature for a fetch function.
type FetchFunc func(ctx context.Context, url string) (string, error)

// DefaultRetryDelays returns the backoff delays for fetch retries: 1s, 2s, 4s.
func DefaultRetryDelays() []time.Duration {
	return []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second}
}

// FetchWithRetryDelays calls fetch until it succeeds, returns a permanent
// error (see libdoc.Retryable) or the delays are exhausted. The logger, if
// provided, receives one record per retry.
func FetchWithRetryDelays(ctx context.Context, url string, fetch FetchFunc, logger *slog.Logger, delays []time.Duration) (string, error) {
	maxAttempts := len(delays) + 1

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		html, err := fetch(ctx, url)
		if err == nil {
			return html, nil
		}
		lastErr = err

		if !libdoc.Retryable(err) || attempt >= maxAttempts-1 {
			break
		}

		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		if logger != nil {
			logger.Debug("retrying fetch", "url", url, "attempt", attempt+2, "err", err)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(delays[attempt]):
		}
	}

	return "", lastErr
}
