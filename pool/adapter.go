package pool

import (
	"context"
	"fmt"
)

type funcKind uint8

const (
	kindFunc funcKind = iota
	kindWorker
	kindRemote
)

// taskFunc is the uniform invocation shape every backend drives: the three
// accepted task-function variants (plain function, Worker implementation,
// remote Ref) are resolved into it exactly once, before any task executes.
type taskFunc[T, R any] struct {
	kind   funcKind
	invoke ProcessFunc[T, R] // nil for kindRemote
	worker string            // worker type name, set for kindWorker and kindRemote
}

// resolveTaskFunc adapts fun to the selected mode. A Worker implementation
// is adapted to a callable via its Run method for local modes; in
// distributed mode only its Name travels, since the worker type already runs
// at the remote endpoints.
func resolveTaskFunc[T, R any](fun any, mode Mode) (taskFunc[T, R], error) {
	var tf taskFunc[T, R]

	switch f := fun.(type) {
	case nil:
		return tf, &InvalidWorkerError{Mode: mode, Reason: "task function is nil"}
	case ProcessFunc[T, R]:
		tf = taskFunc[T, R]{kind: kindFunc, invoke: f}
	case func(context.Context, T) (R, error):
		tf = taskFunc[T, R]{kind: kindFunc, invoke: f}
	case Worker[T, R]:
		if f.Name() == "" {
			return tf, &InvalidWorkerError{Mode: mode, Reason: "worker has an empty name"}
		}
		tf = taskFunc[T, R]{kind: kindWorker, invoke: f.Run, worker: f.Name()}
	case Ref[T, R]:
		if f == "" {
			return tf, &InvalidWorkerError{Mode: mode, Reason: "worker reference is empty"}
		}
		tf = taskFunc[T, R]{kind: kindRemote, worker: string(f)}
	default:
		return tf, &InvalidWorkerError{
			Mode:   mode,
			Reason: fmt.Sprintf("unsupported task function type %T", fun),
		}
	}

	if mode == ModeDistributed && tf.kind == kindFunc {
		return tf, &InvalidWorkerError{
			Mode:   mode,
			Reason: "a plain function cannot be invoked remotely; pass a Worker or a Ref naming a registered worker type",
		}
	}

	if mode != ModeDistributed && tf.kind == kindRemote {
		return tf, &InvalidWorkerError{
			Mode:   mode,
			Reason: fmt.Sprintf("Ref %q has no local implementation", tf.worker),
		}
	}

	return tf, nil
}
