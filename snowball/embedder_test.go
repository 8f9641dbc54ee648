package snowball_test

import (
	"context"
	"math"
	"testing"

	"github.com/fwojciec/libdoc"
	"github.com/fwojciec/libdoc/snowball"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

func TestEmbedder_Embed(t *testing.T) {
	t.Parallel()

	e := snowball.NewEmbedder(0)

	t.Run("returns unit vectors of the configured dimension", func(t *testing.T) {
		t.Parallel()

		vectors, err := e.Embed(context.Background(), []string{
			"How do I install the package?",
			"Configuring the logger with structured output",
		})

		require.NoError(t, err)
		require.Len(t, vectors, 2)
		for _, v := range vectors {
			assert.Len(t, v, snowball.DefaultDimensions)
			assert.InDelta(t, 1.0, norm(v), 1e-5)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		a, err := e.Embed(context.Background(), []string{"routing middleware"})
		require.NoError(t, err)
		b, err := e.Embed(context.Background(), []string{"routing middleware"})
		require.NoError(t, err)

		assert.Equal(t, a, b)
	})

	t.Run("ranks related text above unrelated text", func(t *testing.T) {
		t.Parallel()

		vectors, err := e.Embed(context.Background(), []string{
			"how do I install it",
			"Installation: run go get to install the module.",
			"The router matches request paths against registered patterns.",
		})
		require.NoError(t, err)

		related := libdoc.Dot(vectors[0], vectors[1])
		unrelated := libdoc.Dot(vectors[0], vectors[2])
		assert.Greater(t, related, unrelated)
	})

	t.Run("text without terms embeds to a zero vector", func(t *testing.T) {
		t.Parallel()

		vectors, err := e.Embed(context.Background(), []string{"the of and ---"})

		require.NoError(t, err)
		assert.Zero(t, norm(vectors[0]))
	})

	t.Run("honours cancellation", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := e.Embed(ctx, []string{"text"})

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestEmbedder_Name(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "snowball-384", snowball.NewEmbedder(0).Name())
	assert.Equal(t, "snowball-64", snowball.NewEmbedder(64).Name())
}

func TestTerms(t *testing.T) {
	t.Parallel()

	t.Run("stems inflections to a shared root", func(t *testing.T) {
		t.Parallel()

		a := snowball.Terms("installing")
		b := snowball.Terms("installed")

		require.Len(t, a, 1)
		require.Len(t, b, 1)
		assert.Equal(t, a[0], b[0])
	})

	t.Run("drops stop words and single letters", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, snowball.Terms("the a of x to"))
	})

	t.Run("splits on punctuation", func(t *testing.T) {
		t.Parallel()

		assert.Len(t, snowball.Terms("config.yaml,server/port"), 4)
	})
}
