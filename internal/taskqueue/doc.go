// Package taskqueue provides an unordered batch scheduler.
//
// A [TaskQueue] collects tasks with [TaskQueue.Push] and runs everything
// collected so far with [TaskQueue.Exec]. Exec atomically takes the pending
// batch and leaves the queue empty, so tasks pushed while a batch is running
// (even by the batch's own tasks) wait for the next Exec. Every task in a
// batch runs in its own goroutine; Exec returns once all of them settle.
//
// A failing task never stops its siblings. Exec does not return an error:
// each task's fate is in the returned [report.Report].
//
// [TaskQueue.ExecDetached] takes the snapshot the same way but returns a
// [Joinable] handle immediately, for callers that want to keep pushing while
// the batch runs.
//
// Usage:
//
//	q := taskqueue.New(taskqueue.WithObserver(logging.NewTaskObserver(logger)))
//	q.Push(task.Bind("a", fetch, urlA))
//	q.Push(task.Bind("b", fetch, urlB))
//
//	rep := q.Exec(ctx)
//	if !rep.OK() {
//	    return rep.Err()
//	}
package taskqueue
