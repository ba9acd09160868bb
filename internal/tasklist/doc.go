// Package tasklist provides a dependency-graph scheduler.
//
// A [TaskList] is a directed acyclic graph of tasks. [TaskList.Append]
// registers a task together with the tasks it depends on; those must already
// be registered, so edges always point backwards and the graph cannot gain a
// cycle through ordinary appends. The one way to ask for a cycle is to
// re-append a registered task with new dependencies, which is rejected with a
// CycleError when it would close one and a StateError otherwise.
//
// Draining runs the graph with maximal concurrency: every node whose
// dependencies have all finished is dispatched in its own goroutine, and
// each completion unlocks its dependents. When a node fails, every node that
// transitively depends on it is marked skipped without running, with a
// DependencyError naming the failure. Unrelated branches keep running.
//
// There are two drains:
//
//   - [TaskList.Flush] runs the nodes appended since the previous drain and
//     leaves the list open. Later appends may depend on already settled
//     nodes.
//   - [TaskList.Finish] freezes the list, runs whatever is left and returns
//     a report covering every node ever appended.
//
// Appends are refused while a drain is in progress.
//
// Usage:
//
//	list := tasklist.New()
//	fetch := task.Bind("fetch", fetchURL, url)
//	parse := task.Bind("parse", parseBody, opts)
//	_ = list.Append(fetch)
//	_ = list.Append(parse, fetch)
//
//	rep, err := list.Finish(ctx)
package tasklist
