package pool

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// runParallel executes tasks across ncpu local worker goroutines. Workers
// pull task indices from a shared channel, so completion order is arbitrary,
// but each outcome is written to the slot owned by its task index, so result
// assembly restores original task ordering regardless of internal
// reordering. A failure (or panic) inside one task is captured into that
// task's Outcome only; other in-flight tasks are unaffected.
func (p *Pool[T, R]) runParallel(ctx context.Context, logger *zap.Logger, tf taskFunc[T, R], tasks []T, ncpu int) (Results[T, R], error) {
	results := newResults[T, R](tasks)
	if len(tasks) == 0 {
		return results, nil
	}

	bar := p.newProgressBar(len(tasks))
	numWorkers := max(min(ncpu, len(tasks)), 1)

	g, gctx := errgroup.WithContext(ctx)
	taskChan := make(chan int, numWorkers)

	for range numWorkers {
		g.Go(func() error {
			for idx := range taskChan {
				if p.conf.rateLimiter != nil {
					if err := p.conf.rateLimiter.Wait(gctx); err != nil {
						return err
					}
				}

				start := time.Now()
				value, err := invokeSafely(gctx, tf.invoke, tasks[idx])
				elapsed := time.Since(start)

				// Workers own disjoint index slots, so no lock is needed.
				results[idx].Value = value
				results[idx].Err = captureFailure(idx, err)
				results[idx].Elapsed = elapsed
				p.observe(bar, logger, idx, elapsed, results[idx].Err)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer close(taskChan)
		for i := range tasks {
			select {
			case taskChan <- i:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		fillNotRun(results, err)
		return results, err
	}

	finishProgress(bar)
	return results, nil
}
