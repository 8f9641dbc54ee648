// Package fs provides file-based storage for documentation: a content cache
// with TTL expiry and embedding payloads, and an atomic page store for
// crawl output.
package fs

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.ContentCache = (*Cache)(nil)

// Cache implements libdoc.ContentCache on the local filesystem.
//
// Layout:
//
//	root/owner/repo/namespace/item         markdown with YAML frontmatter
//	root/owner/repo/namespace/_embeddings.bin
//	root/owner/repo/namespace/_chunk_ids.json
type Cache struct {
	root   string
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// CacheOption configures a Cache.
type CacheOption func(*Cache)

// WithTTL sets how long documents stay fresh.
func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithLogger sets the logger used to report unreadable entries.
func WithLogger(logger *slog.Logger) CacheOption {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) CacheOption {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache returns a cache rooted at dir.
func NewCache(dir string, opts ...CacheOption) *Cache {
	c := &Cache{
		root:   dir,
		ttl:    libdoc.DefaultCacheTTL,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Root returns the cache directory.
func (c *Cache) Root() string {
	return c.root
}

func (c *Cache) libraryDir(lib libdoc.LibraryID) string {
	return filepath.Join(c.root, lib.Owner, lib.Repo)
}

func (c *Cache) namespaceDir(lib libdoc.LibraryID, ns libdoc.Namespace) string {
	return filepath.Join(c.libraryDir(lib), string(ns))
}

// itemPath maps an item to a file path inside the namespace directory.
func (c *Cache) itemPath(lib libdoc.LibraryID, ns libdoc.Namespace, item string) (string, error) {
	if err := ValidateItem(item); err != nil {
		return "", err
	}
	return filepath.Join(c.namespaceDir(lib, ns), filepath.FromSlash(item)), nil
}

// ValidateItem rejects item names that would escape the namespace directory
// or collide with embedding files.
func ValidateItem(item string) error {
	if item == "" {
		return libdoc.Errorf(libdoc.EINVALID, "document item required")
	}
	if strings.Contains(item, "\\") || strings.HasPrefix(item, "/") || path.Clean(item) != item {
		return libdoc.Errorf(libdoc.EINVALID, "invalid item name %q", item)
	}
	for _, seg := range strings.Split(item, "/") {
		if seg == ".." || seg == "." {
			return libdoc.Errorf(libdoc.EINVALID, "invalid item name %q", item)
		}
	}
	if item == embeddingsFile || item == chunkIDsFile {
		return libdoc.Errorf(libdoc.EINVALID, "item name %q is reserved", item)
	}
	return nil
}

// Get returns a fresh document.
func (c *Cache) Get(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace, item string) (*libdoc.CachedDocument, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	p, err := c.itemPath(lib, ns, item)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s/%s not cached", lib, ns, item)
	} else if err != nil {
		c.logger.Warn("unreadable cache entry", "library", lib.String(), "namespace", ns, "item", item, "err", err)
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s/%s unreadable", lib, ns, item)
	}

	fm, content, err := decodeDocument(data)
	if err != nil {
		c.logger.Warn("corrupt cache entry", "library", lib.String(), "namespace", ns, "item", item, "err", err)
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s/%s corrupt", lib, ns, item)
	}

	doc := &libdoc.CachedDocument{
		Library:   lib,
		Namespace: ns,
		Item:      item,
		Content:   content,
		SourceURL: fm.Source,
		FetchedAt: fm.Fetched,
	}
	if !doc.Fresh(c.now(), c.ttl) {
		c.logger.Debug("cache entry expired", "library", lib.String(), "namespace", ns, "item", item, "fetched", fm.Fetched)
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s/%s expired", lib, ns, item)
	}
	return doc, nil
}

// Put stores the document and stamps FetchedAt with the current time.
func (c *Cache) Put(ctx context.Context, doc *libdoc.CachedDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}
	p, err := c.itemPath(doc.Library, doc.Namespace, doc.Item)
	if err != nil {
		return err
	}

	doc.FetchedAt = c.now().UTC()
	data, err := encodeDocument(frontmatter{Source: doc.SourceURL, Fetched: doc.FetchedAt}, doc.Content)
	if err != nil {
		return libdoc.Errorf(libdoc.EINTERNAL, "encode %s: %v", doc.Item, err)
	}
	if err := writeFileAtomic(p, data); err != nil {
		if cerr := itemConflict(c.namespaceDir(doc.Library, doc.Namespace), doc.Item); cerr != nil {
			return cerr
		}
		return libdoc.Errorf(libdoc.ESTORAGE, "cache write failed for %s %s/%s: %v", doc.Library, doc.Namespace, doc.Item, err)
	}
	return nil
}

// itemConflict returns EINVALID when item cannot exist in the namespace
// because a stored document occupies one of its parent directories, or a
// directory occupies its own path. Web pages such as /a and /a.md/b map to
// such items.
func itemConflict(nsDir, item string) error {
	parts := strings.Split(item, "/")
	p := nsDir
	for i, part := range parts {
		p = filepath.Join(p, part)
		fi, err := os.Stat(p)
		if err != nil {
			return nil
		}
		last := i == len(parts)-1
		if !last && !fi.IsDir() {
			return libdoc.Errorf(libdoc.EINVALID, "item %q is nested under document %q", item, path.Join(parts[:i+1]...))
		}
		if last && fi.IsDir() {
			return libdoc.Errorf(libdoc.EINVALID, "item %q is a directory of other items", item)
		}
	}
	return nil
}

// Purge removes everything cached for the library.
func (c *Cache) Purge(ctx context.Context, lib libdoc.LibraryID) error {
	if lib.IsZero() {
		return libdoc.Errorf(libdoc.EINVALID, "library required")
	}
	if err := os.RemoveAll(c.libraryDir(lib)); err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "purge %s: %v", lib, err)
	}
	// Drop the owner directory once its last repository is gone.
	_ = os.Remove(filepath.Join(c.root, lib.Owner))
	return nil
}

// Libraries lists libraries with a cache directory, sorted by path.
func (c *Cache) Libraries(ctx context.Context) ([]libdoc.LibraryID, error) {
	owners, err := os.ReadDir(c.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	} else if err != nil {
		return nil, libdoc.Errorf(libdoc.ESTORAGE, "list cache: %v", err)
	}

	var libs []libdoc.LibraryID
	for _, o := range owners {
		if !o.IsDir() {
			continue
		}
		repos, err := os.ReadDir(filepath.Join(c.root, o.Name()))
		if err != nil {
			c.logger.Warn("unreadable cache directory", "owner", o.Name(), "err", err)
			continue
		}
		for _, r := range repos {
			if !r.IsDir() {
				continue
			}
			id, err := libdoc.ParseLibraryID(o.Name() + "/" + r.Name())
			if err != nil {
				continue
			}
			libs = append(libs, id)
		}
	}
	sort.Slice(libs, func(i, j int) bool { return libs[i].Path() < libs[j].Path() })
	return libs, nil
}
