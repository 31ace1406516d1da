package embedding

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	// DefaultBatchSize is how many texts are embedded per batch.
	DefaultBatchSize = 10
	// DefaultBatchPause is the pause between batches. Throttling policy for
	// upstream rate limits, not a correctness requirement.
	DefaultBatchPause = 200 * time.Millisecond
)

// BatchConfig tunes bulk embedding generation.
type BatchConfig struct {
	BatchSize int
	Pause     time.Duration
}

// GenerateBatch embeds texts in fixed-size batches with a short pause between
// batches. Within a batch, texts fan out concurrently through the cache; a
// single failure aborts the whole run. Results are positionally aligned with
// the input.
func (c *Cache) GenerateBatch(ctx context.Context, texts []string, computeFn ComputeFunc, cfg BatchConfig) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	pause := cfg.Pause
	if pause <= 0 {
		pause = DefaultBatchPause
	}

	vectors := make([][]float32, len(texts))
	for start := 0; start < len(texts); start += batchSize {
		if start > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(pause):
			}
		}

		end := start + batchSize
		if end > len(texts) {
			end = len(texts)
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				vec, err := c.GetOrCompute(gctx, texts[i], computeFn)
				if err != nil {
					return fmt.Errorf("embedding text %d: %w", i, err)
				}
				vectors[i] = vec
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	return vectors, nil
}
