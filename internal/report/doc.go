// Package report describes how a drain went.
//
// Every scheduler drain (TaskQueue.Exec, TaskList.Flush, TaskList.Finish)
// returns a [Report] holding one [Outcome] per settled task, in scheduling
// order. An outcome is finished, failed or skipped; failed and skipped
// outcomes carry their cause (a PayloadError or a DependencyError).
//
// [Report.Stats] summarizes how much real parallelism a drain achieved,
// [Render] produces the terminal summary and [Save] exports a report to
// disk as JSON.
package report
