// Package rank embeds chunks on a dedicated worker pool and ranks them by
// cosine similarity.
package rank

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/libdoc"
	"golang.org/x/sync/errgroup"
)

// Defaults.
const (
	DefaultBatchSize = 32
	DefaultWorkers   = 2
)

var _ libdoc.Ranker = (*Ranker)(nil)

// LoadFunc creates the embedding model. It is called at most once per
// successful load.
type LoadFunc func(ctx context.Context) (libdoc.Embedder, error)

// Ranker lazily loads an embedding model on first use and runs all
// inference on its own workers, so callers only block on a result channel.
type Ranker struct {
	load   LoadFunc
	logger *slog.Logger

	batchSize int
	workers   int

	model  atomic.Pointer[modelHolder]
	loadMu sync.Mutex

	jobs      chan job
	startOnce sync.Once
	closeOnce sync.Once
	done      chan struct{}
	wg        sync.WaitGroup
}

type modelHolder struct {
	embedder libdoc.Embedder
}

type job struct {
	ctx   context.Context
	model libdoc.Embedder
	texts []string
	out   chan<- jobResult
}

type jobResult struct {
	vectors [][]float32
	err     error
}

// Option configures a Ranker.
type Option func(*Ranker)

// WithBatchSize sets how many texts are sent to the model at once.
func WithBatchSize(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

// WithWorkers sets the number of inference workers.
func WithWorkers(n int) Option {
	return func(r *Ranker) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithLogger sets the logger used to report model loading.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Ranker) {
		r.logger = logger
	}
}

// NewRanker returns a Ranker that loads its model with load on first use.
func NewRanker(load LoadFunc, opts ...Option) *Ranker {
	r := &Ranker{
		load:      load,
		logger:    slog.New(slog.DiscardHandler),
		batchSize: DefaultBatchSize,
		workers:   DefaultWorkers,
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// NewStaticRanker returns a Ranker around an already constructed embedder.
func NewStaticRanker(e libdoc.Embedder, opts ...Option) *Ranker {
	return NewRanker(func(context.Context) (libdoc.Embedder, error) { return e, nil }, opts...)
}

// embedder returns the loaded model, loading it if this is the first call.
// Concurrent first callers wait for a single load; a failed load is retried
// by the next caller.
func (r *Ranker) embedder(ctx context.Context) (libdoc.Embedder, error) {
	if h := r.model.Load(); h != nil {
		return h.embedder, nil
	}

	r.loadMu.Lock()
	defer r.loadMu.Unlock()
	if h := r.model.Load(); h != nil {
		return h.embedder, nil
	}

	start := time.Now()
	e, err := r.load(ctx)
	if err != nil {
		r.logger.Warn("embedding model load failed", "err", err)
		return nil, err
	}
	r.model.Store(&modelHolder{embedder: e})
	r.logger.Info("embedding model loaded", "model", e.Name(), "duration", time.Since(start))
	return e, nil
}

// Model implements libdoc.Ranker.
func (r *Ranker) Model(ctx context.Context) (string, error) {
	e, err := r.embedder(ctx)
	if err != nil {
		return "", err
	}
	return e.Name(), nil
}

// Embed implements libdoc.Ranker. Texts are split into batches which are
// processed by the worker pool; the returned vectors keep input order.
func (r *Ranker) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	e, err := r.embedder(ctx)
	if err != nil {
		return nil, err
	}
	r.start()

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	for lo := 0; lo < len(texts); lo += r.batchSize {
		hi := min(lo+r.batchSize, len(texts))
		g.Go(func() error {
			vectors, err := r.submit(gctx, e, texts[lo:hi])
			if err != nil {
				return err
			}
			if len(vectors) != hi-lo {
				return libdoc.Errorf(libdoc.EINTERNAL, "embedder returned %d vectors for %d texts", len(vectors), hi-lo)
			}
			for i, v := range vectors {
				out[lo+i] = libdoc.Normalize(v)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// submit hands a batch to the pool and waits for its result.
func (r *Ranker) submit(ctx context.Context, e libdoc.Embedder, texts []string) ([][]float32, error) {
	ch := make(chan jobResult, 1)
	select {
	case r.jobs <- job{ctx: ctx, model: e, texts: texts, out: ch}:
	case <-r.done:
		return nil, libdoc.Errorf(libdoc.EINVALID, "Ranker is closed.")
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case res := <-ch:
		return res.vectors, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (r *Ranker) start() {
	r.startOnce.Do(func() {
		r.jobs = make(chan job)
		for range r.workers {
			r.wg.Add(1)
			go r.work()
		}
	})
}

func (r *Ranker) work() {
	defer r.wg.Done()
	for {
		select {
		case <-r.done:
			return
		case j := <-r.jobs:
			if err := j.ctx.Err(); err != nil {
				j.out <- jobResult{err: err}
				continue
			}
			vectors, err := j.model.Embed(j.ctx, j.texts)
			j.out <- jobResult{vectors: vectors, err: err}
		}
	}
}

// Close stops the workers. Embed calls after Close fail.
func (r *Ranker) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
		r.start()
		r.wg.Wait()
	})
	return nil
}

// Rank implements libdoc.Ranker. Chunks without an embedding score zero.
// A non-positive k selects libdoc.DefaultTopK.
func (r *Ranker) Rank(query []float32, chunks []*libdoc.Chunk, k int) []libdoc.SearchResult {
	return Rank(query, chunks, k)
}

// Rank scores every chunk against query and returns the top k results.
func Rank(query []float32, chunks []*libdoc.Chunk, k int) []libdoc.SearchResult {
	if k <= 0 {
		k = libdoc.DefaultTopK
	}
	results := make([]libdoc.SearchResult, len(chunks))
	for i, c := range chunks {
		results[i] = libdoc.SearchResult{Chunk: c, Score: libdoc.Dot(query, c.Embedding)}
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results
}
