package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.ContentCache = (*Cache)(nil)

// Cache implements libdoc.ContentCache using SQLite. Each write is a single
// statement, so readers never see a partially stored document.
type Cache struct {
	db     *DB
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

// NewCache creates a new Cache on an open database.
func NewCache(db *DB, opts ...CacheOption) *Cache {
	c := &Cache{
		db:     db,
		ttl:    libdoc.DefaultCacheTTL,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns a fresh document.
func (c *Cache) Get(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace, item string) (*libdoc.CachedDocument, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}

	doc := &libdoc.CachedDocument{Library: lib, Namespace: ns, Item: item}
	var hash, fetchedAt string
	err := c.db.QueryRowContext(ctx, `
		SELECT source_url, content, content_hash, fetched_at
		FROM documents
		WHERE owner = ? AND repo = ? AND namespace = ? AND item = ?
	`, lib.Owner, lib.Repo, string(ns), item).Scan(&doc.SourceURL, &doc.Content, &hash, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s/%s not cached", lib, ns, item)
	} else if err != nil {
		c.logger.Warn("unreadable cache entry", "library", lib.String(), "namespace", ns, "item", item, "err", err)
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s/%s unreadable", lib, ns, item)
	}

	if doc.FetchedAt, err = parseTime(fetchedAt, "fetched_at"); err != nil || hash != libdoc.ContentHash(doc.Content) {
		c.logger.Warn("corrupt cache entry", "library", lib.String(), "namespace", ns, "item", item, "err", err)
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s/%s corrupt", lib, ns, item)
	}
	if !doc.Fresh(c.now(), c.ttl) {
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s/%s expired", lib, ns, item)
	}
	return doc, nil
}

// Put stores the document and stamps FetchedAt with the current time.
func (c *Cache) Put(ctx context.Context, doc *libdoc.CachedDocument) error {
	if err := doc.Validate(); err != nil {
		return err
	}

	doc.FetchedAt = c.now().UTC()
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO documents (owner, repo, namespace, item, source_url, content, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (owner, repo, namespace, item) DO UPDATE SET
			source_url = excluded.source_url,
			content = excluded.content,
			content_hash = excluded.content_hash,
			fetched_at = excluded.fetched_at
	`, doc.Library.Owner, doc.Library.Repo, string(doc.Namespace), doc.Item,
		doc.SourceURL, doc.Content, libdoc.ContentHash(doc.Content), formatTime(doc.FetchedAt))
	if err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "cache write failed for %s %s/%s: %v", doc.Library, doc.Namespace, doc.Item, err)
	}
	return nil
}

// SaveEmbeddings stores the matrix payload and identifier table in one row.
func (c *Cache) SaveEmbeddings(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace, m *libdoc.EmbeddingMatrix) error {
	if err := ns.Validate(); err != nil {
		return err
	}
	payload, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	ids, err := json.Marshal(m.IDs)
	if err != nil {
		return libdoc.Errorf(libdoc.EINTERNAL, "encode chunk ids: %v", err)
	}

	_, err = c.db.ExecContext(ctx, `
		INSERT INTO embeddings (owner, repo, namespace, chunk_ids, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner, repo, namespace) DO UPDATE SET
			chunk_ids = excluded.chunk_ids,
			payload = excluded.payload
	`, lib.Owner, lib.Repo, string(ns), string(ids), payload)
	if err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "cache write failed for %s %s embeddings: %v", lib, ns, err)
	}
	return nil
}

// LoadEmbeddings returns the matrix of a namespace. Missing or undecodable
// rows are reported as ENOTFOUND.
func (c *Cache) LoadEmbeddings(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace) (*libdoc.EmbeddingMatrix, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}

	var ids string
	var payload []byte
	err := c.db.QueryRowContext(ctx, `
		SELECT chunk_ids, payload
		FROM embeddings
		WHERE owner = ? AND repo = ? AND namespace = ?
	`, lib.Owner, lib.Repo, string(ns)).Scan(&ids, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s embeddings not cached", lib, ns)
	}

	m := &libdoc.EmbeddingMatrix{}
	if err == nil {
		err = json.Unmarshal([]byte(ids), &m.IDs)
	}
	if err == nil {
		err = m.UnmarshalBinary(payload)
	}
	if err != nil {
		c.logger.Warn("discarding embedding cache", "library", lib.String(), "namespace", ns, "err", err)
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s embeddings unreadable", lib, ns)
	}
	return m, nil
}

// Purge removes everything cached for the library.
func (c *Cache) Purge(ctx context.Context, lib libdoc.LibraryID) error {
	if lib.IsZero() {
		return libdoc.Errorf(libdoc.EINVALID, "library required")
	}
	err := c.db.WithTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{"documents", "embeddings"} {
			if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE owner = ? AND repo = ?`, lib.Owner, lib.Repo); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "purge %s: %v", lib, err)
	}
	return nil
}

// Libraries lists libraries with cached documents, sorted by path.
func (c *Cache) Libraries(ctx context.Context) ([]libdoc.LibraryID, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT DISTINCT owner, repo FROM documents
		UNION
		SELECT DISTINCT owner, repo FROM embeddings
		ORDER BY owner, repo
	`)
	if err != nil {
		return nil, libdoc.Errorf(libdoc.ESTORAGE, "list cache: %v", err)
	}
	defer rows.Close()

	var libs []libdoc.LibraryID
	for rows.Next() {
		var id libdoc.LibraryID
		if err := rows.Scan(&id.Owner, &id.Repo); err != nil {
			return nil, libdoc.Errorf(libdoc.ESTORAGE, "list cache: %v", err)
		}
		libs = append(libs, id)
	}
	if err := rows.Err(); err != nil {
		return nil, libdoc.Errorf(libdoc.ESTORAGE, "list cache: %v", err)
	}
	return libs, nil
}
