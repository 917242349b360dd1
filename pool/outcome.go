package pool

import "time"

// Outcome represents the result of executing a single task: either a success
// value or a captured failure, plus the task's identity and timing. Failures
// are stored as ordinary values; callers inspect Err (or Ok) per task instead
// of handling a raised error for a subset of the batch.
//
// Fields:
//   - Index: the task's position in the submitted slice; task identity is
//     established by position, not payload equality, so duplicate payloads
//     keep distinct outcomes
//   - Task: the submitted payload, echoed back for task-keyed consumption
//   - Value: the result produced by the task (only valid when Err is nil)
//   - Err: the captured failure, if any (TaskExecutionError or
//     RemoteCommunicationError)
//   - Elapsed: per-task wall-clock duration
type Outcome[T any, R any] struct {
	Index   int
	Task    T
	Value   R
	Err     error
	Elapsed time.Duration
}

// Ok reports whether the task produced a value.
func (o Outcome[T, R]) Ok() bool { return o.Err == nil }

// Results is the batch return mapping: exactly one Outcome per submitted
// task, in submission order, regardless of which backend produced them or
// how many tasks failed.
type Results[T any, R any] []Outcome[T, R]

// newResults pre-sizes the mapping with one slot per task so the one-entry-
// per-task invariant holds structurally. Slots start as not-run failures and
// are overwritten as tasks complete.
func newResults[T, R any](tasks []T) Results[T, R] {
	rs := make(Results[T, R], len(tasks))
	for i, task := range tasks {
		rs[i] = Outcome[T, R]{Index: i, Task: task, Err: errNotRun}
	}
	return rs
}

// Values returns the success values in submission order, skipping failed
// tasks.
func (rs Results[T, R]) Values() []R {
	vals := make([]R, 0, len(rs))
	for _, o := range rs {
		if o.Ok() {
			vals = append(vals, o.Value)
		}
	}
	return vals
}

// Failed returns the outcomes of tasks that did not produce a value, in
// submission order.
func (rs Results[T, R]) Failed() []Outcome[T, R] {
	var failed []Outcome[T, R]
	for _, o := range rs {
		if !o.Ok() {
			failed = append(failed, o)
		}
	}
	return failed
}

// FirstErr returns the captured failure of the earliest failed task, or nil
// when every task succeeded.
func (rs Results[T, R]) FirstErr() error {
	for _, o := range rs {
		if !o.Ok() {
			return o.Err
		}
	}
	return nil
}
