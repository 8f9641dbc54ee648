package mock

import (
	"context"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.DocsService = (*DocsService)(nil)

// DocsService is a mock implementation of libdoc.DocsService.
type DocsService struct {
	ResolveLibraryFn func(ctx context.Context, name string) ([]*libdoc.Repository, error)
	QueryDocsFn      func(ctx context.Context, id libdoc.LibraryID, query string, opts libdoc.QueryOptions) (*libdoc.QueryResult, error)
}

func (s *DocsService) ResolveLibrary(ctx context.Context, name string) ([]*libdoc.Repository, error) {
	return s.ResolveLibraryFn(ctx, name)
}

func (s *DocsService) QueryDocs(ctx context.Context, id libdoc.LibraryID, query string, opts libdoc.QueryOptions) (*libdoc.QueryResult, error) {
	return s.QueryDocsFn(ctx, id, query, opts)
}
