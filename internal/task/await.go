package task

import (
	"context"

	"github.com/Iron-Ham/parallelf/internal/errors"
)

// ExecuteOrWait executes r, or, if another caller is already running it,
// waits for that run to settle and returns the stored result. Schedulers use
// it so that a task shared with another scheduler still yields a settled
// outcome instead of an "already running" refusal.
func ExecuteOrWait(ctx context.Context, r Runnable, obs Observer) (any, error) {
	v, err := r.Execute(ctx, obs)
	if !runningElsewhere(err) {
		return v, err
	}
	<-r.Done()
	return r.Execute(ctx, obs)
}

// runningElsewhere reports whether err is the refusal for a task that is
// already running, as opposed to a payload failure that happens to wrap one.
func runningElsewhere(err error) bool {
	se, ok := err.(*errors.StateError)
	return ok && errors.Is(se, errors.ErrAlreadyRunning)
}
