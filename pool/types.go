package pool

import (
	"context"
	"fmt"
)

// Mode selects which execution backend a Pool drives.
type Mode string

const (
	// ModeSerial runs tasks in submission order on the calling goroutine.
	ModeSerial Mode = "serial"
	// ModeParallel runs tasks across local worker goroutines.
	ModeParallel Mode = "parallel"
	// ModeDistributed runs tasks against remote worker endpoints over gRPC.
	ModeDistributed Mode = "distributed"
)

// DefaultWorkerEndpoint is the well-known local endpoint used by distributed
// mode when no worker URIs are supplied.
const DefaultWorkerEndpoint = "grpc:worker@localhost:21000"

// ParseMode converts a mode string such as "serial" into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSerial, ModeParallel, ModeDistributed:
		return Mode(s), nil
	default:
		return "", &ConfigurationError{Reason: fmt.Sprintf("unknown mode %q", s)}
	}
}

// ProcessFunc is a function type that defines how individual tasks are
// processed. It takes a context for cancellation/timeout control and a task
// of type T, returning a result of type R. A returned error is captured into
// the task's Outcome; it never aborts the rest of the batch.
//
// Type parameters:
//   - T: The type of input task to be processed
//   - R: The type of result produced after processing
type ProcessFunc[T any, R any] func(ctx context.Context, task T) (R, error)

// Worker is the contract a unit of remote or parallel computation must
// expose: one entry operation taking a single task payload and returning one
// result value or an error. Implementations may hold per-instance state
// (loaded models, caches) initialized once and reused across task
// invocations.
//
// Name identifies the worker type. In distributed mode it must match a
// worker type registered and already listening at each target endpoint; the
// worker is never instantiated locally there.
type Worker[T any, R any] interface {
	Name() string
	Run(ctx context.Context, task T) (R, error)
}

// Ref names a worker type that exists only at remote endpoints. It carries
// no local implementation, so it is usable exclusively in distributed mode.
//
//	results, err := p.DMap(ctx, pool.Ref[int, int]("fib"), tasks)
type Ref[T any, R any] string
