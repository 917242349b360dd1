package pool

import (
	"errors"
	"fmt"
)

// errNotRun marks outcome slots whose task never executed. It only escapes
// into an Outcome when the batch is cancelled mid-flight.
var errNotRun = errors.New("task not run")

// ConfigurationError reports an invalid mode/parameter combination. It is
// returned eagerly from New or from a Map entry point, before any task
// executes, because it means the batch cannot proceed at all.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "pool: invalid configuration: " + e.Reason
}

// InvalidWorkerError reports a task function that cannot be adapted to the
// selected mode, for example a plain function handed to distributed mode,
// or a value of an unsupported type. Like ConfigurationError it is fatal and
// surfaces before any task executes.
type InvalidWorkerError struct {
	Mode   Mode
	Reason string
}

func (e *InvalidWorkerError) Error() string {
	return fmt.Sprintf("pool: task function not usable in %s mode: %s", e.Mode, e.Reason)
}

// TaskExecutionError wraps a failure raised by the task's own logic,
// including panics recovered inside a backend. It is captured into the
// task's Outcome and is never fatal to the batch.
type TaskExecutionError struct {
	Index int
	Err   error
}

func (e *TaskExecutionError) Error() string {
	return fmt.Sprintf("pool: task %d failed: %v", e.Index, e.Err)
}

func (e *TaskExecutionError) Unwrap() error { return e.Err }

// RemoteCommunicationError wraps a network, timeout or remote-side transport
// fault in distributed mode. It is captured into the affected task's Outcome;
// tasks assigned to other endpoints are unaffected.
type RemoteCommunicationError struct {
	Endpoint string
	Timeout  bool
	Err      error
}

func (e *RemoteCommunicationError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("pool: call to %s timed out: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("pool: call to %s failed: %v", e.Endpoint, e.Err)
}

func (e *RemoteCommunicationError) Unwrap() error { return e.Err }
