package libdoc_test

import (
	"testing"
	"time"

	"github.com/fwojciec/libdoc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamespace_Validate(t *testing.T) {
	t.Parallel()

	for _, ns := range libdoc.Namespaces {
		assert.NoError(t, ns.Validate())
	}
	err := libdoc.Namespace("blog").Validate()
	assert.Equal(t, libdoc.EINVALID, libdoc.ErrorCode(err))
}

func TestCachedDocument_Validate(t *testing.T) {
	t.Parallel()

	lib := libdoc.LibraryID{Owner: "a", Repo: "b"}

	assert.NoError(t, (&libdoc.CachedDocument{Library: lib, Namespace: libdoc.NamespaceDocs, Item: "x.md"}).Validate())
	assert.Error(t, (&libdoc.CachedDocument{Namespace: libdoc.NamespaceDocs, Item: "x.md"}).Validate())
	assert.Error(t, (&libdoc.CachedDocument{Library: lib, Namespace: "nope", Item: "x.md"}).Validate())
	assert.Error(t, (&libdoc.CachedDocument{Library: lib, Namespace: libdoc.NamespaceDocs}).Validate())
}

func TestCachedDocument_Fresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	doc := &libdoc.CachedDocument{FetchedAt: now.Add(-time.Hour)}

	assert.True(t, doc.Fresh(now, 2*time.Hour))
	assert.False(t, doc.Fresh(now, time.Hour))
}

func TestNewEmbeddingMatrix(t *testing.T) {
	t.Parallel()

	t.Run("packs rows in order", func(t *testing.T) {
		t.Parallel()

		m, err := libdoc.NewEmbeddingMatrix("test", []string{"a", "b"}, [][]float32{{1, 0}, {0, 1}})

		require.NoError(t, err)
		assert.Equal(t, 2, m.Rows())
		assert.Equal(t, 2, m.Dim)
		assert.Equal(t, []float32{0, 1}, m.Row(1))
		assert.NoError(t, m.Validate())
	})

	t.Run("rejects ragged rows", func(t *testing.T) {
		t.Parallel()

		_, err := libdoc.NewEmbeddingMatrix("test", []string{"a", "b"}, [][]float32{{1, 0}, {1}})

		assert.Equal(t, libdoc.EINVALID, libdoc.ErrorCode(err))
	})

	t.Run("rejects misaligned id table", func(t *testing.T) {
		t.Parallel()

		_, err := libdoc.NewEmbeddingMatrix("test", []string{"a"}, [][]float32{{1}, {2}})

		assert.Equal(t, libdoc.EINVALID, libdoc.ErrorCode(err))
	})

	t.Run("empty matrix is valid", func(t *testing.T) {
		t.Parallel()

		m, err := libdoc.NewEmbeddingMatrix("test", nil, nil)

		require.NoError(t, err)
		assert.Equal(t, 0, m.Rows())
		assert.NoError(t, m.Validate())
	})
}
