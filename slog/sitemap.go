package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService wraps a SitemapService with logging.
type LoggingSitemapService struct {
	next   libdoc.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService creates a new LoggingSitemapService.
func NewLoggingSitemapService(next libdoc.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped service and logs the URL count.
func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, baseURL string, limit int) (urls []string, err error) {
	defer func(begin time.Time) {
		s.logger.Log(ctx, levelFor(slog.LevelInfo, err), "sitemap discovery",
			"url", baseURL,
			"limit", limit,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, baseURL, limit)
}
