package pool_test

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ezpool/ezpool/pool"
)

func TestPMap_ResultsMatchedByIndex(t *testing.T) {
	p, err := pool.New[int, int](pool.WithMode(pool.ModeParallel))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Close()

	// Early tasks sleep longest so completion order is the reverse of
	// submission order. Outcomes must still line up with their tasks.
	tasks := []int{1, 2, 3, 4, 5}
	results, err := p.PMap(context.Background(), func(ctx context.Context, n int) (int, error) {
		time.Sleep(time.Duration(len(tasks)-n) * 10 * time.Millisecond)
		return n * n, nil
	}, tasks, len(tasks))
	if err != nil {
		t.Fatalf("PMap failed: %v", err)
	}

	if len(results) != len(tasks) {
		t.Fatalf("expected %d outcomes, got %d", len(tasks), len(results))
	}
	for i, n := range tasks {
		if results[i].Index != i {
			t.Errorf("outcome %d: expected index %d, got %d", i, i, results[i].Index)
		}
		if results[i].Value != n*n {
			t.Errorf("task %d: expected %d, got %d", n, n*n, results[i].Value)
		}
	}
}

func TestPMap_FailureIsolation(t *testing.T) {
	p, err := pool.New[any, int](pool.WithMode(pool.ModeParallel), pool.WithNCPU(2))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Close()

	tasks := []any{0, 1, "x", 3}
	results, err := p.Map(context.Background(), func(ctx context.Context, task any) (int, error) {
		n, ok := task.(int)
		if !ok {
			return 0, fmt.Errorf("non-numeric input %v", task)
		}
		return n + 1, nil
	}, tasks)
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}

	failed := results.Failed()
	if len(failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failed))
	}
	if failed[0].Index != 2 {
		t.Errorf("expected failure at index 2, got %d", failed[0].Index)
	}
	var taskErr *pool.TaskExecutionError
	if !errors.As(failed[0].Err, &taskErr) {
		t.Errorf("expected TaskExecutionError, got %T", failed[0].Err)
	}
}

func TestPMap_PanicRecovered(t *testing.T) {
	p, err := pool.New[int, int](pool.WithMode(pool.ModeParallel))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Close()

	results, err := p.PMap(context.Background(), func(ctx context.Context, n int) (int, error) {
		if n%2 == 0 {
			panic("even input")
		}
		return n, nil
	}, []int{1, 2, 3, 4}, 4)
	if err != nil {
		t.Fatalf("PMap failed: %v", err)
	}

	for _, o := range results {
		if o.Task%2 == 0 && o.Ok() {
			t.Errorf("task %d: expected captured panic", o.Task)
		}
		if o.Task%2 == 1 && !o.Ok() {
			t.Errorf("task %d: expected success, got %v", o.Task, o.Err)
		}
	}
}

func TestPMap_EmptyTasks(t *testing.T) {
	p, err := pool.New[int, int](pool.WithMode(pool.ModeParallel))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Close()

	results, err := p.PMap(context.Background(), func(ctx context.Context, n int) (int, error) {
		return n, nil
	}, nil, 4)
	if err != nil {
		t.Fatalf("PMap failed: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no outcomes, got %d", len(results))
	}
}

func TestPMap_WorkerCountClampedToTasks(t *testing.T) {
	p, err := pool.New[int, int](pool.WithMode(pool.ModeParallel))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Close()

	var inFlight, peak atomic.Int32
	results, err := p.PMap(context.Background(), func(ctx context.Context, n int) (int, error) {
		cur := inFlight.Add(1)
		defer inFlight.Add(-1)
		for {
			old := peak.Load()
			if cur <= old || peak.CompareAndSwap(old, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		return n, nil
	}, []int{1, 2}, 16)
	if err != nil {
		t.Fatalf("PMap failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(results))
	}
	if peak.Load() > 2 {
		t.Errorf("expected at most 2 concurrent tasks, observed %d", peak.Load())
	}
}

func TestPMap_CancelledContextCapturedPerTask(t *testing.T) {
	p, err := pool.New[int, int](pool.WithMode(pool.ModeParallel), pool.WithNCPU(2))
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	tasks := []int{1, 2, 3, 4}
	results, _ := p.PMap(ctx, func(c context.Context, n int) (int, error) {
		<-c.Done()
		return 0, c.Err()
	}, tasks, 2)

	if len(results) != len(tasks) {
		t.Fatalf("expected %d outcomes, got %d", len(tasks), len(results))
	}
	for _, o := range results {
		if o.Ok() {
			t.Errorf("task %d: expected failure after cancellation", o.Index)
			continue
		}
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("task %d: expected cancellation cause, got %v", o.Index, o.Err)
		}
	}
}

func TestPMap_RateLimitAppliesBetweenTasks(t *testing.T) {
	p, err := pool.New[int, int](
		pool.WithMode(pool.ModeParallel),
		pool.WithNCPU(4),
		pool.WithRateLimit(100, 1),
	)
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Close()

	start := time.Now()
	results, err := p.Map(context.Background(), func(ctx context.Context, n int) (int, error) {
		return n, nil
	}, []int{1, 2, 3, 4, 5})
	if err != nil {
		t.Fatalf("Map failed: %v", err)
	}
	if len(results.Failed()) != 0 {
		t.Fatalf("expected no failures, got %d", len(results.Failed()))
	}
	// 5 tasks at 100/s with burst 1 need at least ~40ms.
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("expected rate limiting to slow the batch, finished in %v", elapsed)
	}
}
