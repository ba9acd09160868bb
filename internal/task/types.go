package task

import (
	"context"
	"time"
)

// State represents the execution state of a task.
type State string

const (
	// StateWaiting indicates the task has been created but not started.
	StateWaiting State = "waiting"

	// StateRunning indicates the payload is executing.
	StateRunning State = "running"

	// StateFinished indicates the payload returned without error.
	StateFinished State = "finished"

	// StateFailed indicates the payload returned an error or panicked.
	StateFailed State = "failed"

	// StateSkipped is never entered by a Task itself. Schedulers report it
	// through an Observer for tasks they will not dispatch because a
	// dependency did not finish.
	StateSkipped State = "skipped"
)

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if this state represents a final state.
func (s State) IsTerminal() bool {
	return s == StateFinished || s == StateFailed || s == StateSkipped
}

// Func is a unit of work. Arguments are bound by capture when the task is
// created; the scheduler supplies only the context.
type Func[T any] func(ctx context.Context) (T, error)

// Runnable is the type-erased view of a task used by schedulers.
type Runnable interface {
	// ID returns the stable identifier of the task.
	ID() string

	// Name returns a human-readable name for diagnostics.
	Name() string

	// State returns the current state.
	State() State

	// Execute runs the task if it is waiting and reports state changes to
	// obs, which may be nil. It has the same semantics as Run.
	Execute(ctx context.Context, obs Observer) (any, error)

	// Done returns a channel that is closed once the task settles.
	Done() <-chan struct{}

	// Timing returns when the payload started and when it settled.
	// Zero values mean the event has not happened.
	Timing() (started, settled time.Time)
}
