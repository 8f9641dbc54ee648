package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/libdoc/mock"
	libslog "github.com/fwojciec/libdoc/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingSitemapService_DiscoverURLs(t *testing.T) {
	t.Parallel()

	t.Run("logs discovery with count and limit", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, limit int) ([]string, error) {
				assert.Equal(t, 30, limit)
				return []string{"https://example.com/a", "https://example.com/b"}, nil
			},
		}

		svc := libslog.NewLoggingSitemapService(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		urls, err := svc.DiscoverURLs(context.Background(), "https://example.com", 30)

		require.NoError(t, err)
		assert.Len(t, urls, 2)
		output := buf.String()
		assert.Contains(t, output, "sitemap discovery")
		assert.Contains(t, output, "url=https://example.com")
		assert.Contains(t, output, "limit=30")
		assert.Contains(t, output, "count=2")
	})

	t.Run("logs error on failure", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		inner := &mock.SitemapService{
			DiscoverURLsFn: func(ctx context.Context, baseURL string, limit int) ([]string, error) {
				return nil, errors.New("connection failed")
			},
		}

		svc := libslog.NewLoggingSitemapService(inner, slog.New(slog.NewTextHandler(&buf, nil)))
		_, err := svc.DiscoverURLs(context.Background(), "https://example.com", 0)

		require.Error(t, err)
		output := buf.String()
		assert.Contains(t, output, "level=WARN")
		assert.Contains(t, output, "err=\"connection failed\"")
	})
}
