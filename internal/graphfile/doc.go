// Package graphfile loads task graphs declared in YAML or HCL files and turns
// them into runnable schedulers.
//
// A graph file declares named tasks, each with an action and the names of the
// tasks it depends on. Declaration order does not matter; [Graph.Order]
// returns a topological order and [Graph.BuildList] appends in that order.
//
// YAML:
//
//	tasks:
//	  - name: fetch
//	    action: exec
//	    command: [curl, -sS, https://example.com]
//	  - name: report
//	    action: print
//	    message: fetched
//	    depends_on: [fetch]
//
// HCL, where env.NAME reads an environment variable:
//
//	task "fetch" {
//	  action  = "exec"
//	  command = ["curl", "-sS", "https://example.com"]
//	}
//
//	task "report" {
//	  action     = "print"
//	  message    = "fetched for ${env.USER}"
//	  depends_on = ["fetch"]
//	}
//
// Actions:
//
//   - print: writes message to the run's output.
//   - sleep: waits for duration, or until the run is canceled.
//   - fail: always fails with message.
//   - exec: runs command (argv form, no shell) and fails on a non-zero exit.
package graphfile
