// Package worker hosts the server side of distributed execution: a registry
// of worker types, typed registration helpers, and the gRPC daemon that
// serves registered workers to remote pools.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"

	"github.com/ezpool/ezpool/internal/rpc"
)

// Handler executes one wire-encoded task payload and returns the
// wire-encoded result.
type Handler func(ctx context.Context, payload []byte) ([]byte, error)

// Registry maps worker type names to handlers. A daemon serves exactly the
// worker types its registry holds; the pool's capability handshake queries
// them before dispatching any task.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

// Register wires a typed task function into the registry under name. The
// returned handler decodes the incoming payload into T, runs fn, and encodes
// the R result; a panic inside fn is recovered into an error so one task
// cannot take the daemon down.
func Register[T, R any](r *Registry, name string, fn func(ctx context.Context, task T) (R, error)) error {
	if name == "" {
		return fmt.Errorf("worker: name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("worker: nil function for %q", name)
	}

	handler := func(ctx context.Context, payload []byte) ([]byte, error) {
		var task T
		if err := rpc.Unmarshal(payload, &task); err != nil {
			return nil, fmt.Errorf("decode task: %w", err)
		}

		result, err := runSafely(ctx, fn, task)
		if err != nil {
			return nil, err
		}

		out, err := rpc.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return out, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.handlers[name]; dup {
		return fmt.Errorf("worker: %q already registered", name)
	}
	r.handlers[name] = handler
	return nil
}

// Lookup returns the handler registered under name.
func (r *Registry) Lookup(name string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[name]
	return h, ok
}

// Names returns the registered worker type names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runSafely[T, R any](ctx context.Context, fn func(context.Context, T) (R, error), task T) (result R, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			err = fmt.Errorf("worker panic: %v\nstack trace:\n%s", rec, buf[:n])
		}
	}()

	return fn(ctx, task)
}
