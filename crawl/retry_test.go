package crawl_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/fwojciec/libdoc"
	"github.com/fwojciec/libdoc/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchWithRetryDelays(t *testing.T) {
	t.Parallel()

	noDelays := []time.Duration{0, 0, 0}

	t.Run("returns first success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(ctx context.Context, url string) (string, error) {
			calls++
			if calls < 3 {
				return "", libdoc.Errorf(libdoc.EUNAVAILABLE, "503")
			}
			return "<html>ok</html>", nil
		}

		html, err := crawl.FetchWithRetryDelays(context.Background(), "https://x.com", fetch, nil, noDelays)

		require.NoError(t, err)
		assert.Equal(t, "<html>ok</html>", html)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after all delays", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(ctx context.Context, url string) (string, error) {
			calls++
			return "", errors.New("connection reset")
		}

		_, err := crawl.FetchWithRetryDelays(context.Background(), "https://x.com", fetch, nil, noDelays)

		assert.EqualError(t, err, "connection reset")
		assert.Equal(t, 4, calls)
	})

	t.Run("does not retry permanent errors", func(t *testing.T) {
		t.Parallel()

		calls := 0
		fetch := func(ctx context.Context, url string) (string, error) {
			calls++
			return "", libdoc.Errorf(libdoc.ENOTFOUND, "404")
		}

		_, err := crawl.FetchWithRetryDelays(context.Background(), "https://x.com", fetch, nil, noDelays)

		assert.Equal(t, libdoc.ENOTFOUND, libdoc.ErrorCode(err))
		assert.Equal(t, 1, calls)
	})

	t.Run("stops when context is canceled", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		fetch := func(ctx context.Context, url string) (string, error) {
			cancel()
			return "", errors.New("timeout")
		}

		_, err := crawl.FetchWithRetryDelays(ctx, "https://x.com", fetch, nil, []time.Duration{time.Hour})

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("logs retries", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		fetch := func(ctx context.Context, url string) (string, error) {
			return "", errors.New("boom")
		}

		_, _ = crawl.FetchWithRetryDelays(context.Background(), "https://x.com", fetch, logger, []time.Duration{0})

		assert.Contains(t, buf.String(), "retrying fetch")
		assert.Contains(t, buf.String(), "attempt=2")
	})
}
