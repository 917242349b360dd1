package worker

import (
	"context"
	"fmt"
)

// Echo returns the task payload unchanged. Registered under "echo".
func Echo(ctx context.Context, task any) (any, error) {
	return task, nil
}

// Fib computes the n-th Fibonacci number naively. Deliberately CPU-bound;
// useful for exercising parallel and distributed dispatch. Registered under
// "fib".
func Fib(ctx context.Context, n int) (int, error) {
	if n < 0 {
		return 0, fmt.Errorf("fib undefined for %d", n)
	}
	return fib(n), nil
}

func fib(n int) int {
	if n < 2 {
		return n
	}
	return fib(n-1) + fib(n-2)
}

// EchoWorker implements pool.Worker[any, any] for the "echo" worker type.
type EchoWorker struct{}

func (EchoWorker) Name() string { return "echo" }

func (EchoWorker) Run(ctx context.Context, task any) (any, error) {
	return Echo(ctx, task)
}

// FibWorker implements pool.Worker[int, int] for the "fib" worker type.
type FibWorker struct{}

func (FibWorker) Name() string { return "fib" }

func (FibWorker) Run(ctx context.Context, n int) (int, error) {
	return Fib(ctx, n)
}

// RegisterBuiltins adds the echo and fib worker types to a registry. The
// daemon CLI serves these out of the box.
func RegisterBuiltins(r *Registry) error {
	if err := Register(r, EchoWorker{}.Name(), Echo); err != nil {
		return err
	}
	return Register(r, FibWorker{}.Name(), Fib)
}
