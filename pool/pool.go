package pool

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ezpool/ezpool/internal/rpc"
)

// Pool is the caller-facing facade over the three execution backends. It
// owns backend resources (remote worker connections), selects a backend per
// call, and returns the same Results shape regardless of mode so calling
// code never branches on how tasks were executed.
//
// Type parameters:
//   - T: The input task type
//   - R: The result type
type Pool[T any, R any] struct {
	conf *config

	mu      sync.Mutex
	handles map[string]*rpc.Handle // endpoint URI -> handle, resolved once per Pool lifetime
	closed  bool
}

// New creates a Pool with the given options, validating the mode/parameter
// combination eagerly: an unsatisfiable configuration (for example
// distributed mode with an explicitly empty worker list) is a
// ConfigurationError here, before any task ever executes.
//
// Default configuration: mode = ModeSerial, ncpu = 1, no call timeout, no
// rate limit, progress reporting off, nop logger.
//
// Example:
//
//	p, err := pool.New[int, int](
//	    pool.WithMode(pool.ModeDistributed),
//	    pool.WithWorkers("grpc:fib@localhost:21000", "grpc:fib@remote:21000"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer p.Close()
func New[T any, R any](opts ...Option) (*Pool[T, R], error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Pool[T, R]{
		conf:    cfg,
		handles: make(map[string]*rpc.Handle),
	}, nil
}

// Map executes the task batch with the backend selected by the configured
// mode and blocks until every task has completed or failed. The returned
// Results holds exactly one Outcome per task in submission order; per-task
// failures are captured inside the outcomes, never raised.
//
// fun must be a func(context.Context, T) (R, error), a Worker[T, R], or (in
// distributed mode) a Worker or Ref naming a remote worker type. The
// returned error is non-nil only for fatal problems: configuration or
// worker-adaptation errors detected before any task runs, or context
// cancellation. In the latter case the partial Results are still returned,
// with never-run tasks captured as failures wrapping the context error.
func (p *Pool[T, R]) Map(ctx context.Context, fun any, tasks []T) (Results[T, R], error) {
	switch p.conf.mode {
	case ModeSerial:
		return p.SMap(ctx, fun, tasks)
	case ModeParallel:
		return p.PMap(ctx, fun, tasks, p.conf.ncpu)
	case ModeDistributed:
		return p.DMap(ctx, fun, tasks, p.conf.workers...)
	default:
		return nil, &ConfigurationError{Reason: fmt.Sprintf("unknown mode %q", p.conf.mode)}
	}
}

// SMap runs the batch in serial mode regardless of the configured mode:
// strictly in submission order, on the calling goroutine, one task at a
// time. Deterministic and fully ordered.
func (p *Pool[T, R]) SMap(ctx context.Context, fun any, tasks []T) (Results[T, R], error) {
	tf, err := resolveTaskFunc[T, R](fun, ModeSerial)
	if err != nil {
		return nil, err
	}
	return p.runSerial(ctx, p.batchLogger(ModeSerial, len(tasks)), tf, tasks)
}

// PMap runs the batch in parallel mode across ncpu local worker goroutines,
// regardless of the configured mode. ncpu <= 0 falls back to the configured
// value.
func (p *Pool[T, R]) PMap(ctx context.Context, fun any, tasks []T, ncpu int) (Results[T, R], error) {
	if ncpu <= 0 {
		ncpu = p.conf.ncpu
	}
	tf, err := resolveTaskFunc[T, R](fun, ModeParallel)
	if err != nil {
		return nil, err
	}
	return p.runParallel(ctx, p.batchLogger(ModeParallel, len(tasks)), tf, tasks, ncpu)
}

// DMap runs the batch in distributed mode against the given worker endpoint
// URIs, regardless of the configured mode. When no URIs are passed here or
// configured with WithWorkers, the well-known local DefaultWorkerEndpoint is
// used. Remote calls are at most once: a communication failure after the
// remote side already executed a task still captures a failure locally.
func (p *Pool[T, R]) DMap(ctx context.Context, fun any, tasks []T, workers ...string) (Results[T, R], error) {
	if len(workers) == 0 {
		workers = p.conf.workers
	}
	if len(workers) == 0 {
		workers = []string{DefaultWorkerEndpoint}
	}

	tf, err := resolveTaskFunc[T, R](fun, ModeDistributed)
	if err != nil {
		return nil, err
	}
	return p.runDistributed(ctx, p.batchLogger(ModeDistributed, len(tasks)), tf, tasks, workers)
}

// Close releases every remote connection the pool resolved. It is
// deterministic and idempotent; it must be called on all exit paths when the
// pool was used in distributed mode.
func (p *Pool[T, R]) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true

	var firstErr error
	for uri, h := range p.handles {
		if err := h.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close handle %s: %w", uri, err)
		}
		delete(p.handles, uri)
	}
	return firstErr
}

// batchLogger tags every log line of one Map call with a batch ID, the mode
// and the batch size.
func (p *Pool[T, R]) batchLogger(mode Mode, total int) *zap.Logger {
	return p.conf.logger.With(
		zap.String("batch", uuid.NewString()),
		zap.String("mode", string(mode)),
		zap.Int("tasks", total),
	)
}
