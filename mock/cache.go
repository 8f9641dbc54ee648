package mock

import (
	"context"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.ContentCache = (*ContentCache)(nil)

// ContentCache is a mock implementation of libdoc.ContentCache.
type ContentCache struct {
	GetFn            func(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace, item string) (*libdoc.CachedDocument, error)
	PutFn            func(ctx context.Context, doc *libdoc.CachedDocument) error
	SaveEmbeddingsFn func(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace, m *libdoc.EmbeddingMatrix) error
	LoadEmbeddingsFn func(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace) (*libdoc.EmbeddingMatrix, error)
	PurgeFn          func(ctx context.Context, lib libdoc.LibraryID) error
	LibrariesFn      func(ctx context.Context) ([]libdoc.LibraryID, error)
}

func (c *ContentCache) Get(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace, item string) (*libdoc.CachedDocument, error) {
	return c.GetFn(ctx, lib, ns, item)
}

func (c *ContentCache) Put(ctx context.Context, doc *libdoc.CachedDocument) error {
	return c.PutFn(ctx, doc)
}

func (c *ContentCache) SaveEmbeddings(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace, m *libdoc.EmbeddingMatrix) error {
	return c.SaveEmbeddingsFn(ctx, lib, ns, m)
}

func (c *ContentCache) LoadEmbeddings(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace) (*libdoc.EmbeddingMatrix, error) {
	return c.LoadEmbeddingsFn(ctx, lib, ns)
}

func (c *ContentCache) Purge(ctx context.Context, lib libdoc.LibraryID) error {
	return c.PurgeFn(ctx, lib)
}

func (c *ContentCache) Libraries(ctx context.Context) ([]libdoc.LibraryID, error) {
	return c.LibrariesFn(ctx)
}
