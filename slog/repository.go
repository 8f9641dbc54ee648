package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.RepositoryService = (*LoggingRepositoryService)(nil)

// LoggingRepositoryService wraps a RepositoryService with logging.
type LoggingRepositoryService struct {
	next   libdoc.RepositoryService
	logger *slog.Logger
}

// NewLoggingRepositoryService creates a new LoggingRepositoryService.
func NewLoggingRepositoryService(next libdoc.RepositoryService, logger *slog.Logger) *LoggingRepositoryService {
	return &LoggingRepositoryService{next: next, logger: logger}
}

func (s *LoggingRepositoryService) SearchRepositories(ctx context.Context, query string, limit int) (repos []*libdoc.Repository, err error) {
	defer func(begin time.Time) {
		s.logger.Log(ctx, levelFor(slog.LevelInfo, err), "search repositories",
			"query", query,
			"count", len(repos),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.SearchRepositories(ctx, query, limit)
}

func (s *LoggingRepositoryService) GetReadme(ctx context.Context, id libdoc.LibraryID) (f *libdoc.DocFile, err error) {
	defer func(begin time.Time) {
		size := 0
		if f != nil {
			size = len(f.Content)
		}
		s.logger.Log(ctx, levelFor(slog.LevelInfo, err), "get readme",
			"library", id.String(),
			"bytes", size,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetReadme(ctx, id)
}

func (s *LoggingRepositoryService) ListDocsTree(ctx context.Context, id libdoc.LibraryID) (files []*libdoc.DocFile, err error) {
	defer func(begin time.Time) {
		s.logger.Log(ctx, levelFor(slog.LevelInfo, err), "list docs tree",
			"library", id.String(),
			"files", len(files),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.ListDocsTree(ctx, id)
}

func (s *LoggingRepositoryService) GetHomepageURL(ctx context.Context, id libdoc.LibraryID) (u string, err error) {
	defer func(begin time.Time) {
		s.logger.Log(ctx, levelFor(slog.LevelInfo, err), "get homepage",
			"library", id.String(),
			"url", u,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.GetHomepageURL(ctx, id)
}
