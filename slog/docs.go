package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.DocsService = (*LoggingDocsService)(nil)

// LoggingDocsService wraps a DocsService with one record per tool call.
type LoggingDocsService struct {
	next   libdoc.DocsService
	logger *slog.Logger
}

// NewLoggingDocsService creates a new LoggingDocsService.
func NewLoggingDocsService(next libdoc.DocsService, logger *slog.Logger) *LoggingDocsService {
	return &LoggingDocsService{next: next, logger: logger}
}

func (s *LoggingDocsService) ResolveLibrary(ctx context.Context, name string) (repos []*libdoc.Repository, err error) {
	defer func(begin time.Time) {
		s.logger.Log(ctx, levelFor(slog.LevelInfo, err), "resolve library",
			"name", name,
			"candidates", len(repos),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ResolveLibrary(ctx, name)
}

func (s *LoggingDocsService) QueryDocs(ctx context.Context, id libdoc.LibraryID, query string, opts libdoc.QueryOptions) (res *libdoc.QueryResult, err error) {
	defer func(begin time.Time) {
		var results, cached int
		if res != nil {
			results = len(res.Results)
			for _, st := range res.Stages {
				if st.Cached {
					cached++
				}
			}
		}
		s.logger.Log(ctx, levelFor(slog.LevelInfo, err), "query docs",
			"library", id.String(),
			"query", query,
			"deep", opts.Deep,
			"results", results,
			"cached_stages", cached,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.QueryDocs(ctx, id, query, opts)
}
