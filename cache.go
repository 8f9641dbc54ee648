package libdoc

import (
	"context"
	"time"
)

// Namespace partitions cached content of a library by source.
type Namespace string

// Cache namespaces.
const (
	NamespaceReadme Namespace = "readme"
	NamespaceDocs   Namespace = "docs"
	NamespaceWeb    Namespace = "web"
)

// Namespaces lists all namespaces in pipeline stage order.
var Namespaces = []Namespace{NamespaceReadme, NamespaceDocs, NamespaceWeb}

// Validate returns an error if the namespace is unknown.
func (ns Namespace) Validate() error {
	switch ns {
	case NamespaceReadme, NamespaceDocs, NamespaceWeb:
		return nil
	}
	return Errorf(EINVALID, "unknown namespace %q", string(ns))
}

// DefaultCacheTTL is how long cached documents stay fresh.
const DefaultCacheTTL = 7 * 24 * time.Hour

// CachedDocument is a document stored in the content cache.
type CachedDocument struct {
	Library   LibraryID
	Namespace Namespace

	// Item names the document within its namespace, e.g. "guide/install.md".
	Item string

	Content   string
	SourceURL string
	FetchedAt time.Time
}

// Validate returns an error if the document cannot be stored.
func (d *CachedDocument) Validate() error {
	if d.Library.IsZero() {
		return Errorf(EINVALID, "document library required")
	}
	if err := d.Namespace.Validate(); err != nil {
		return err
	}
	if d.Item == "" {
		return Errorf(EINVALID, "document item required")
	}
	return nil
}

// Fresh reports whether the document was fetched less than ttl before now.
func (d *CachedDocument) Fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(d.FetchedAt) < ttl
}

// EmbeddingMatrix holds one normalized vector per chunk, index-aligned with
// the identifier table.
type EmbeddingMatrix struct {
	// Model names the embedder that produced the vectors.
	Model string
	Dim   int
	IDs   []string

	// Data holds len(IDs)*Dim values in row-major order.
	Data []float32
}

// NewEmbeddingMatrix builds a matrix from ids and equally sized vectors.
func NewEmbeddingMatrix(model string, ids []string, vectors [][]float32) (*EmbeddingMatrix, error) {
	if len(ids) != len(vectors) {
		return nil, Errorf(EINVALID, "embedding matrix has %d ids and %d vectors", len(ids), len(vectors))
	}
	m := &EmbeddingMatrix{Model: model, IDs: ids}
	for i, v := range vectors {
		if i == 0 {
			m.Dim = len(v)
			m.Data = make([]float32, 0, len(ids)*len(v))
		}
		if len(v) != m.Dim {
			return nil, Errorf(EINVALID, "embedding row %d has dimension %d, want %d", i, len(v), m.Dim)
		}
		m.Data = append(m.Data, v...)
	}
	return m, nil
}

// Rows returns the number of vectors.
func (m *EmbeddingMatrix) Rows() int {
	return len(m.IDs)
}

// Row returns the i-th vector. The returned slice aliases the matrix.
func (m *EmbeddingMatrix) Row(i int) []float32 {
	return m.Data[i*m.Dim : (i+1)*m.Dim]
}

// Validate returns an error if the matrix and identifier table are misaligned.
func (m *EmbeddingMatrix) Validate() error {
	if m.Dim < 0 {
		return Errorf(EINVALID, "negative embedding dimension")
	}
	if len(m.Data) != len(m.IDs)*m.Dim {
		return Errorf(EINVALID, "embedding matrix has %d values for %d rows of %d", len(m.Data), len(m.IDs), m.Dim)
	}
	return nil
}

// ContentCache persists fetched documents and chunk embeddings.
//
// Reads never fail because of the storage layer: unreadable, expired or
// corrupt entries are reported as ENOTFOUND. Writes report ESTORAGE.
type ContentCache interface {
	// Get returns a fresh document.
	// Returns ENOTFOUND if the document is missing, expired or unreadable.
	Get(ctx context.Context, lib LibraryID, ns Namespace, item string) (*CachedDocument, error)

	// Put stores the document, stamping FetchedAt with the current time.
	// Readers never observe a partially written document.
	Put(ctx context.Context, doc *CachedDocument) error

	// SaveEmbeddings stores the embedding matrix of a namespace.
	SaveEmbeddings(ctx context.Context, lib LibraryID, ns Namespace, m *EmbeddingMatrix) error

	// LoadEmbeddings returns the embedding matrix of a namespace.
	// Returns ENOTFOUND if it is missing, corrupt or of an unknown format.
	LoadEmbeddings(ctx context.Context, lib LibraryID, ns Namespace) (*EmbeddingMatrix, error)

	// Purge removes everything cached for the library.
	Purge(ctx context.Context, lib LibraryID) error

	// Libraries lists libraries with cached content.
	Libraries(ctx context.Context) ([]LibraryID, error)
}
