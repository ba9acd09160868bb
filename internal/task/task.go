package task

import (
	"context"
	"reflect"
	"runtime"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Iron-Ham/parallelf/internal/errors"
)

// Task is an at-most-once unit of work producing a value of type T.
// All methods are safe for concurrent use.
type Task[T any] struct {
	id   string
	name string
	fn   Func[T]

	mu          sync.Mutex
	state       State
	result      T
	err         error
	started     time.Time
	settled     time.Time
	invocations int
	done        chan struct{}
}

// New creates a waiting task. The name doubles as the task ID; an empty name
// gets a generated "task-<uuid>" ID and a display name derived from the
// payload's function symbol.
func New[T any](name string, fn Func[T]) *Task[T] {
	return newTask(name, funcName(fn), fn)
}

// Bind creates a waiting task that calls fn with arg when run. The argument
// is captured now, so later changes to the caller's variable do not leak in.
func Bind[A, T any](name string, fn func(context.Context, A) (T, error), arg A) *Task[T] {
	var payload Func[T]
	if fn != nil {
		payload = func(ctx context.Context) (T, error) { return fn(ctx, arg) }
	}
	return newTask(name, funcName(fn), payload)
}

// Action creates a task for work that produces no value.
func Action(name string, fn func(ctx context.Context) error) *Task[struct{}] {
	var payload Func[struct{}]
	if fn != nil {
		payload = func(ctx context.Context) (struct{}, error) { return struct{}{}, fn(ctx) }
	}
	return newTask(name, funcName(fn), payload)
}

func newTask[T any](name, symbol string, fn Func[T]) *Task[T] {
	id := name
	if id == "" {
		id = "task-" + uuid.NewString()
	}
	display := name
	if display == "" {
		display = symbol
	}
	if display == "" {
		display = id
	}
	return &Task[T]{
		id:    id,
		name:  display,
		fn:    fn,
		state: StateWaiting,
		done:  make(chan struct{}),
	}
}

// funcName returns the short symbol name of a function value, e.g.
// "main.fetchURL", or "" when it cannot be determined.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := f.Name()
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// ID returns the task's stable identifier.
func (t *Task[T]) ID() string { return t.id }

// Name returns the task's display name.
func (t *Task[T]) Name() string { return t.name }

// String returns the display name, with the ID when they differ.
func (t *Task[T]) String() string {
	if t.name == t.id {
		return t.name
	}
	return t.name + " (" + t.id + ")"
}

// State returns the current state.
func (t *Task[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done returns a channel that is closed once the task has finished or failed.
func (t *Task[T]) Done() <-chan struct{} {
	return t.done
}

// Timing returns when the payload started and when it settled.
func (t *Task[T]) Timing() (started, settled time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started, t.settled
}

// Invocations returns how many times the payload has been called: 0 or 1.
func (t *Task[T]) Invocations() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.invocations
}

// Result returns the stored success value. ok is false until the task has
// finished successfully.
func (t *Task[T]) Result() (value T, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.result, t.state == StateFinished
}

// Err returns the stored failure cause, or nil if the task has not failed.
func (t *Task[T]) Err() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.err
}

// Run executes the task.
//
//   - waiting: the payload is invoked exactly once; its value, or its error
//     wrapped in a PayloadError, is stored and returned.
//   - running: returns a StateError wrapping errors.ErrAlreadyRunning at once.
//   - finished or failed: returns the stored value or cause again.
func (t *Task[T]) Run(ctx context.Context) (T, error) {
	return t.run(ctx, nil)
}

// Execute implements Runnable.
func (t *Task[T]) Execute(ctx context.Context, obs Observer) (any, error) {
	v, err := t.run(ctx, obs)
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (t *Task[T]) run(ctx context.Context, obs Observer) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	t.mu.Lock()
	switch t.state {
	case StateRunning:
		t.mu.Unlock()
		var zero T
		return zero, errors.NewStateError("run", errors.ErrAlreadyRunning).WithTaskID(t.id)
	case StateFinished, StateFailed:
		res, err := t.result, t.err
		t.mu.Unlock()
		return res, err
	}
	t.state = StateRunning
	t.started = time.Now()
	t.invocations++
	t.mu.Unlock()

	notify(obs, t.id, StateWaiting, StateRunning)

	res, err := t.invoke(ctx)

	t.mu.Lock()
	to := StateFinished
	if err != nil {
		to = StateFailed
		t.err = err
	} else {
		t.result = res
	}
	t.state = to
	t.settled = time.Now()
	close(t.done)
	t.mu.Unlock()

	notify(obs, t.id, StateRunning, to)
	return res, err
}

// invoke calls the payload, converting errors and panics into PayloadErrors.
func (t *Task[T]) invoke(ctx context.Context) (res T, err error) {
	var zero T
	if t.fn == nil {
		return zero, errors.NewPayloadError(t.id, errors.NewValidationError("task has no payload"))
	}

	defer func() {
		if r := recover(); r != nil {
			res = zero
			err = errors.NewPanicError(t.id, r, debug.Stack())
		}
	}()

	res, err = t.fn(ctx)
	if err != nil {
		return zero, errors.NewPayloadError(t.id, err)
	}
	return res, nil
}

// Ensure Task satisfies Runnable at compile time.
var _ Runnable = (*Task[any])(nil)
