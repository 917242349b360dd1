package pool

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ezpool/ezpool/internal/rpc"
)

// runDistributed assigns each task to a remote handle by round-robin (task
// index modulo pool size) and drives one dispatch goroutine per handle:
// tasks routed to the same endpoint run sequentially in index order on that
// endpoint's connection, while distinct endpoints stay in flight
// concurrently. A handle is never shared across concurrent calls.
//
// Network or remote faults are captured per task: an unreachable endpoint
// fails only the tasks assigned to it, without retrying against a different
// handle and without aborting the remaining batch. Delivery is at most once.
func (p *Pool[T, R]) runDistributed(ctx context.Context, logger *zap.Logger, tf taskFunc[T, R], tasks []T, workers []string) (Results[T, R], error) {
	handles, err := p.resolveHandles(workers)
	if err != nil {
		return nil, err
	}

	if err := p.checkCapabilities(ctx, logger, handles, tf.worker); err != nil {
		return nil, err
	}

	results := newResults[T, R](tasks)
	if len(tasks) == 0 {
		return results, nil
	}

	bar := p.newProgressBar(len(tasks))

	var g errgroup.Group
	for h, handle := range handles {
		g.Go(func() error {
			for idx := h; idx < len(tasks); idx += len(handles) {
				if err := ctx.Err(); err != nil {
					return err
				}
				if p.conf.rateLimiter != nil {
					if err := p.conf.rateLimiter.Wait(ctx); err != nil {
						return err
					}
				}

				start := time.Now()
				value, err := p.callRemote(ctx, handle, tf.worker, idx, tasks[idx])
				elapsed := time.Since(start)

				results[idx].Value = value
				results[idx].Err = err
				results[idx].Elapsed = elapsed
				p.observe(bar, logger, idx, elapsed, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		fillNotRun(results, err)
		return results, err
	}

	finishProgress(bar)
	return results, nil
}

// callRemote performs one blocking remote invocation and maps its failure
// modes: transport and deadline faults become RemoteCommunicationError, a
// task-logic failure reported by the worker becomes TaskExecutionError, and
// an undecodable result payload is a communication fault.
func (p *Pool[T, R]) callRemote(ctx context.Context, handle *rpc.Handle, worker string, index int, task T) (R, error) {
	var value R

	payload, err := rpc.Marshal(task)
	if err != nil {
		return value, &TaskExecutionError{Index: index, Err: fmt.Errorf("encode task: %w", err)}
	}

	callCtx := ctx
	if p.conf.callTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, p.conf.callTimeout)
		defer cancel()
	}

	reply, err := handle.Run(callCtx, worker, int64(index), payload)
	if err != nil {
		return value, &RemoteCommunicationError{
			Endpoint: handle.Endpoint(),
			Timeout:  rpc.IsTimeout(err),
			Err:      err,
		}
	}

	if reply.Error != "" {
		return value, &TaskExecutionError{Index: index, Err: fmt.Errorf("remote worker %q: %s", worker, reply.Error)}
	}

	if err := rpc.Unmarshal(reply.Payload, &value); err != nil {
		return value, &RemoteCommunicationError{
			Endpoint: handle.Endpoint(),
			Err:      fmt.Errorf("decode result: %w", err),
		}
	}

	return value, nil
}

// resolveHandles returns the handles for the given endpoint URIs, dialing
// each URI at most once per Pool lifetime. A malformed URI is a fatal
// configuration problem; an unreachable endpoint is not detected here, since
// connections are established lazily on first use.
func (p *Pool[T, R]) resolveHandles(workers []string) ([]*rpc.Handle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, &ConfigurationError{Reason: "pool is closed"}
	}

	handles := make([]*rpc.Handle, 0, len(workers))
	for _, uri := range workers {
		if h, ok := p.handles[uri]; ok {
			handles = append(handles, h)
			continue
		}
		h, err := rpc.Dial(uri)
		if err != nil {
			return nil, &ConfigurationError{Reason: err.Error()}
		}
		p.handles[uri] = h
		handles = append(handles, h)
	}
	return handles, nil
}

// checkCapabilities performs the capability handshake before any task is
// dispatched. An endpoint that answers but does not host the requested
// worker type makes the whole batch unrunnable and is fatal. An endpoint
// that cannot be reached is left in the pool: its tasks will be captured as
// communication failures while tasks on reachable endpoints proceed.
func (p *Pool[T, R]) checkCapabilities(ctx context.Context, logger *zap.Logger, handles []*rpc.Handle, worker string) error {
	for _, h := range handles {
		describeCtx := ctx
		if p.conf.callTimeout > 0 {
			var cancel context.CancelFunc
			describeCtx, cancel = context.WithTimeout(ctx, p.conf.callTimeout)
			defer cancel()
		}

		reply, err := h.Describe(describeCtx, worker)
		if err != nil {
			logger.Warn("endpoint unreachable during capability check",
				zap.String("endpoint", h.Endpoint()),
				zap.Error(err),
			)
			continue
		}
		if !reply.Supported {
			return &ConfigurationError{
				Reason: fmt.Sprintf("endpoint %s does not host worker type %q (hosts: %v)",
					h.Endpoint(), worker, reply.Workers),
			}
		}
	}
	return nil
}
