package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/libdoc/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedder_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, gemini.DefaultEmbedModel, gemini.NewEmbedder(nil, "").Name())
	assert.Equal(t, "gemini-embedding-001", gemini.NewEmbedder(nil, "gemini-embedding-001").Name())
}

func TestEmbedder_Embed_EmptyInput(t *testing.T) {
	t.Parallel()

	vectors, err := gemini.NewEmbedder(nil, "").Embed(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, vectors)
}
