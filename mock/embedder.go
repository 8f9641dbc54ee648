package mock

import (
	"context"

	"github.com/fwojciec/libdoc"
)

var (
	_ libdoc.Embedder     = (*Embedder)(nil)
	_ libdoc.TokenCounter = (*TokenCounter)(nil)
	_ libdoc.Asker        = (*Asker)(nil)
)

// Embedder is a mock implementation of libdoc.Embedder.
type Embedder struct {
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
	NameFn  func() string
}

func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return e.EmbedFn(ctx, texts)
}

func (e *Embedder) Name() string {
	return e.NameFn()
}

// TokenCounter is a mock implementation of libdoc.TokenCounter.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (c *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	return c.CountTokensFn(ctx, text)
}

// Asker is a mock implementation of libdoc.Asker.
type Asker struct {
	AskFn func(ctx context.Context, question string, results []libdoc.SearchResult) (string, error)
}

func (a *Asker) Ask(ctx context.Context, question string, results []libdoc.SearchResult) (string, error) {
	return a.AskFn(ctx, question, results)
}

var _ libdoc.Ranker = (*Ranker)(nil)

// Ranker is a mock implementation of libdoc.Ranker.
type Ranker struct {
	ModelFn func(ctx context.Context) (string, error)
	EmbedFn func(ctx context.Context, texts []string) ([][]float32, error)
	RankFn  func(query []float32, chunks []*libdoc.Chunk, k int) []libdoc.SearchResult
}

func (r *Ranker) Model(ctx context.Context) (string, error) {
	return r.ModelFn(ctx)
}

func (r *Ranker) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	return r.EmbedFn(ctx, texts)
}

func (r *Ranker) Rank(query []float32, chunks []*libdoc.Chunk, k int) []libdoc.SearchResult {
	return r.RankFn(query, chunks, k)
}
