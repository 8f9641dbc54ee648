package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/libdoc"
)

var _ libdoc.Embedder = (*LoggingEmbedder)(nil)

// LoggingEmbedder wraps an Embedder with debug logging of batch sizes.
type LoggingEmbedder struct {
	next   libdoc.Embedder
	logger *slog.Logger
}

// NewLoggingEmbedder creates a new LoggingEmbedder.
func NewLoggingEmbedder(next libdoc.Embedder, logger *slog.Logger) *LoggingEmbedder {
	return &LoggingEmbedder{next: next, logger: logger}
}

func (e *LoggingEmbedder) Embed(ctx context.Context, texts []string) (vectors [][]float32, err error) {
	defer func(begin time.Time) {
		e.logger.Log(ctx, levelFor(slog.LevelDebug, err), "embed",
			"model", e.next.Name(),
			"texts", len(texts),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return e.next.Embed(ctx, texts)
}

func (e *LoggingEmbedder) Name() string {
	return e.next.Name()
}
