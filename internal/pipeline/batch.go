package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/phishscan/internal/model"
)

// DefaultConcurrency is the number of URLs scored at once by a BatchProcessor.
const DefaultConcurrency = 10

// Scorer scores a single URL. *Aggregator implements it.
type Scorer interface {
	ScoreURL(ctx context.Context, raw string) (*model.AggregateResult, error)
}

// BatchResult is the outcome for one URL of a batch.
type BatchResult struct {
	// Index is the position of URL in the input.
	Index int
	// URL is the input as given.
	URL string
	// Result is set when scoring succeeded.
	Result *model.AggregateResult
	// Err is set when scoring failed.
	Err error
}

// BatchProcessor scores many URLs concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	scorer      Scorer
	concurrency int
	logger      *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of concurrent scorings.
// Non-positive values keep the default.
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor.
func NewBatchProcessor(scorer Scorer, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		scorer:      scorer,
		concurrency: DefaultConcurrency,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// ScoreAll scores urls and returns one BatchResult per input, in input
// order. Per-URL failures are recorded in BatchResult.Err and do not stop
// the batch. The returned error is non-nil only when ctx was cancelled;
// URLs not started by then carry the context error.
func (bp *BatchProcessor) ScoreAll(ctx context.Context, urls []string) ([]BatchResult, error) {
	results := make([]BatchResult, len(urls))
	err := bp.run(ctx, urls, func(r BatchResult) {
		results[r.Index] = r
	})
	return results, err
}

// ScoreAllWithCallback scores urls and calls callback as each one
// completes. callback is called from worker goroutines and must be safe
// for concurrent use.
func (bp *BatchProcessor) ScoreAllWithCallback(ctx context.Context, urls []string, callback func(BatchResult)) error {
	return bp.run(ctx, urls, callback)
}

func (bp *BatchProcessor) run(ctx context.Context, urls []string, callback func(BatchResult)) error {
	bp.logger.Info("starting batch scoring",
		"total_urls", len(urls),
		"concurrency", bp.concurrency,
	)
	startTime := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for i, raw := range urls {
		if err := gctx.Err(); err != nil {
			callback(BatchResult{Index: i, URL: raw, Err: err})
			continue
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				callback(BatchResult{Index: i, URL: raw, Err: err})
				return nil
			}

			res, err := bp.scorer.ScoreURL(gctx, raw)
			if err != nil {
				bp.logger.Warn("scoring failed",
					"url", raw,
					"index", i+1,
					"error", err,
				)
			}
			callback(BatchResult{Index: i, URL: raw, Result: res, Err: err})
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // per-URL errors are reported through callback

	bp.logger.Info("batch scoring complete",
		"total_urls", len(urls),
		"elapsed", time.Since(startTime),
	)
	return ctx.Err()
}
