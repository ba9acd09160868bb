// Package task provides the atomic unit of scheduled work.
//
// A [Task] wraps a payload, a closure with its arguments already bound, and
// owns a monotonic state machine:
//
//	waiting -> running -> finished
//	waiting -> running -> failed
//
// A task executes at most once. The first caller of [Task.Run] wins the
// waiting-to-running transition and invokes the payload; a concurrent caller
// gets a StateError wrapping errors.ErrAlreadyRunning without blocking; any
// caller after settlement gets the stored result or failure cause back.
//
// Schedulers work with the type-erased [Runnable] interface so that tasks with
// different result types can share one queue or list. State changes are
// reported to an [Observer], which is how logging and the event bus learn
// about task progress.
//
// Usage:
//
//	fetch := task.Bind("fetch", fetchURL, "https://example.com")
//	body, err := fetch.Run(ctx)
//
//	// Later calls return the same result without re-fetching.
//	body, err = fetch.Run(ctx)
package task
