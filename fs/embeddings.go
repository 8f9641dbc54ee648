package fs

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"github.com/fwojciec/libdoc"
)

const (
	embeddingsFile = "_embeddings.bin"
	chunkIDsFile   = "_chunk_ids.json"
)

// SaveEmbeddings writes the binary matrix payload and the identifier table
// as JSON. The payload carries a fingerprint of the table, so a torn pair of
// writes is detected on load.
func (c *Cache) SaveEmbeddings(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace, m *libdoc.EmbeddingMatrix) error {
	if err := ns.Validate(); err != nil {
		return err
	}
	if err := m.Validate(); err != nil {
		return err
	}

	ids, err := json.Marshal(m.IDs)
	if err != nil {
		return libdoc.Errorf(libdoc.EINTERNAL, "encode chunk ids: %v", err)
	}
	dir := c.namespaceDir(lib, ns)
	if err := writeFileAtomic(filepath.Join(dir, chunkIDsFile), ids); err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "cache write failed for %s %s embeddings: %v", lib, ns, err)
	}
	payload, err := m.MarshalBinary()
	if err != nil {
		return err
	}
	if err := writeFileAtomic(filepath.Join(dir, embeddingsFile), payload); err != nil {
		return libdoc.Errorf(libdoc.ESTORAGE, "cache write failed for %s %s embeddings: %v", lib, ns, err)
	}
	return nil
}

// LoadEmbeddings reads the matrix of a namespace. Missing, corrupt or
// mismatched files are reported as ENOTFOUND.
func (c *Cache) LoadEmbeddings(ctx context.Context, lib libdoc.LibraryID, ns libdoc.Namespace) (*libdoc.EmbeddingMatrix, error) {
	if err := ns.Validate(); err != nil {
		return nil, err
	}
	dir := c.namespaceDir(lib, ns)

	payload, err := os.ReadFile(filepath.Join(dir, embeddingsFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s embeddings not cached", lib, ns)
	}
	corrupt := func(err error) (*libdoc.EmbeddingMatrix, error) {
		c.logger.Warn("discarding embedding cache", "library", lib.String(), "namespace", ns, "err", err)
		return nil, libdoc.Errorf(libdoc.ENOTFOUND, "%s %s embeddings unreadable", lib, ns)
	}
	if err != nil {
		return corrupt(err)
	}

	rawIDs, err := os.ReadFile(filepath.Join(dir, chunkIDsFile))
	if err != nil {
		return corrupt(err)
	}
	var ids []string
	if err := json.Unmarshal(rawIDs, &ids); err != nil {
		return corrupt(err)
	}

	m := &libdoc.EmbeddingMatrix{IDs: ids}
	if err := m.UnmarshalBinary(payload); err != nil {
		return corrupt(err)
	}
	return m, nil
}
