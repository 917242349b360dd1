package pool

import (
	"context"
	"fmt"
	"runtime"
)

// invokeSafely executes one task invocation with panic recovery. A panic in
// the callable is converted to an error so a single task cannot crash the
// batch or its worker goroutine.
func invokeSafely[T, R any](ctx context.Context, fn ProcessFunc[T, R], task T) (result R, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("task panic: %v\nstack trace:\n%s", r, buf[:n])
		}
	}()

	return fn(ctx, task)
}

// captureFailure wraps a task-logic failure for storage in an Outcome.
func captureFailure(index int, err error) error {
	if err == nil {
		return nil
	}
	return &TaskExecutionError{Index: index, Err: err}
}

// fillNotRun marks every slot whose task never executed with the batch
// abort cause, keeping the one-entry-per-task invariant on cancellation.
func fillNotRun[T, R any](results Results[T, R], cause error) {
	for i := range results {
		if results[i].Err == errNotRun {
			results[i].Err = fmt.Errorf("task %d not run: %w", i, cause)
		}
	}
}
