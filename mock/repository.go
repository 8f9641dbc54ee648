package mock

import (
	"context"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.RepositoryService = (*RepositoryService)(nil)

// RepositoryService is a mock implementation of libdoc.RepositoryService.
type RepositoryService struct {
	SearchRepositoriesFn func(ctx context.Context, query string, limit int) ([]*libdoc.Repository, error)
	GetReadmeFn          func(ctx context.Context, id libdoc.LibraryID) (*libdoc.DocFile, error)
	ListDocsTreeFn       func(ctx context.Context, id libdoc.LibraryID) ([]*libdoc.DocFile, error)
	GetHomepageURLFn     func(ctx context.Context, id libdoc.LibraryID) (string, error)
}

func (s *RepositoryService) SearchRepositories(ctx context.Context, query string, limit int) ([]*libdoc.Repository, error) {
	return s.SearchRepositoriesFn(ctx, query, limit)
}

func (s *RepositoryService) GetReadme(ctx context.Context, id libdoc.LibraryID) (*libdoc.DocFile, error) {
	return s.GetReadmeFn(ctx, id)
}

func (s *RepositoryService) ListDocsTree(ctx context.Context, id libdoc.LibraryID) ([]*libdoc.DocFile, error) {
	return s.ListDocsTreeFn(ctx, id)
}

func (s *RepositoryService) GetHomepageURL(ctx context.Context, id libdoc.LibraryID) (string, error) {
	return s.GetHomepageURLFn(ctx, id)
}
