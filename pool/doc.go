// Package pool provides a single task-submission abstraction that can run a
// batch of independent tasks in one of three interchangeable modes: serial
// execution on the calling goroutine, parallel execution across local worker
// goroutines, or distributed execution against remote worker endpoints
// reachable over gRPC.
//
// The primary type is Pool[T, R], a configurable facade which maps a task
// function over a slice of tasks of type T and returns one Outcome per task,
// with failures captured as values rather than raised to the caller.
//
// # Basic Usage
//
//	ctx := context.Background()
//	p, err := pool.New[int, int](pool.WithMode(pool.ModeParallel), pool.WithNCPU(4))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
//
//	results, err := p.Map(ctx, func(ctx context.Context, n int) (int, error) {
//	    return n * 2, nil
//	}, []int{1, 2, 3, 4})
//
// # Execution Modes
//
//   - ModeSerial: tasks run strictly in submission order on the calling
//     goroutine. Fully deterministic, no concurrency.
//   - ModeParallel: tasks run across a pool of local worker goroutines.
//     Workers may complete out of order; results are matched back to their
//     originating task by index.
//   - ModeDistributed: tasks are assigned round-robin (task index modulo
//     worker count) to remote worker endpoints named by
//     "grpc:<name>@<host>:<port>" URIs. One dispatch goroutine per endpoint
//     keeps multiple endpoints in flight while each endpoint's connection
//     only ever carries one call at a time.
//
// Mode-fixed shortcuts SMap, PMap and DMap are equivalent to Map with the
// corresponding mode, for callers who know their mode at call time rather
// than at construction time.
//
// # Failure Semantics
//
// A failing task never aborts the batch. Every per-task failure (the task's
// own logic returning an error, a panic inside the callable, or a network
// fault talking to a remote endpoint) is captured in that task's Outcome,
// and the returned Results always holds exactly one entry per submitted task.
// Configuration and worker-adaptation problems are different: they mean the
// batch cannot proceed at all, so Map returns a ConfigurationError or
// InvalidWorkerError before any task executes.
//
// Distributed calls are at-most-once: a network failure after the remote side
// has already executed the task still yields a captured
// RemoteCommunicationError locally, even though remote work happened. Callers
// that need idempotence must provide it in the task function itself.
//
// # Task Functions
//
// Map accepts three shapes of task function:
//
//   - a plain func(context.Context, T) (R, error), usable in serial and
//     parallel modes only
//   - a Worker[T, R] implementation, whose Name identifies the worker type
//     registered at remote endpoints in distributed mode
//   - a Ref[T, R], naming a remote worker type with no local implementation,
//     usable in distributed mode only
//
// # Resource Lifetime
//
// Remote connections are resolved once per Pool lifetime and reused across
// every task routed to them. Close releases them deterministically and is
// safe to call more than once.
package pool
