package libdoc

import (
	"context"
	"math"
)

// Embedder converts texts to dense vectors.
type Embedder interface {
	// Embed returns one vector per text, in input order. All vectors share
	// the same dimension.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Name identifies the model. Vectors from different models are not comparable.
	Name() string
}

// TokenCounter counts tokens in text.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}

// Asker answers a question using ranked documentation chunks as context.
type Asker interface {
	Ask(ctx context.Context, question string, results []SearchResult) (string, error)
}

// Normalize scales v in place to unit L2 norm. A zero vector is left unchanged.
func Normalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
	return v
}

// Dot returns the dot product of a and b over their common length.
func Dot(a, b []float32) float32 {
	n := min(len(a), len(b))
	var sum float32
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}

// Ranker embeds text and ranks chunks against a query vector.
type Ranker interface {
	// Model returns the name of the embedding model, loading it if needed.
	Model(ctx context.Context) (string, error)

	// Embed returns one unit-norm vector per text.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Rank scores chunks by dot product with query and returns the best k
	// in non-increasing score order. Ties keep input order.
	Rank(query []float32, chunks []*Chunk, k int) []SearchResult
}
