package pool

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// runSerial iterates the task slice strictly in submission order on the
// calling goroutine. A failing task is captured and the loop continues; the
// batch never aborts early because one task failed. Cancellation is honored
// between tasks: completed outcomes are kept, the rest are marked not run.
func (p *Pool[T, R]) runSerial(ctx context.Context, logger *zap.Logger, tf taskFunc[T, R], tasks []T) (Results[T, R], error) {
	results := newResults[T, R](tasks)
	bar := p.newProgressBar(len(tasks))

	for i, task := range tasks {
		if err := ctx.Err(); err != nil {
			fillNotRun(results, err)
			return results, err
		}

		start := time.Now()
		value, err := invokeSafely(ctx, tf.invoke, task)
		elapsed := time.Since(start)

		results[i].Value = value
		results[i].Err = captureFailure(i, err)
		results[i].Elapsed = elapsed
		p.observe(bar, logger, i, elapsed, results[i].Err)
	}

	finishProgress(bar)
	return results, nil
}
