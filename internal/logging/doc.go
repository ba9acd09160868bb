// Package logging provides structured logging for parallelf runs.
//
// This package wraps Go's log/slog to write JSON-formatted logs that can be
// filtered and exported after a run. Schedulers never log on their own: a
// run wires [NewTaskObserver] into its TaskQueue or TaskList, and every task
// state change becomes a log record.
//
// # Features
//
//   - JSON-formatted structured logging via slog (text for interactive stderr)
//   - Configurable log levels (DEBUG, INFO, WARN, ERROR)
//   - Context propagation (run ID, task ID)
//   - Size-based log rotation with optional gzip compression
//   - Log aggregation, filtering and export (JSON, text, CSV)
//
// # Basic Usage
//
//	logger, err := logging.NewLogger(dir, "INFO")
//	if err != nil {
//	    return err
//	}
//	defer logger.Close()
//
//	runLog := logger.WithRun(runID)
//	list := tasklist.New(tasklist.WithObserver(logging.NewTaskObserver(runLog)))
//
// # Reading Logs Back
//
//	entries, err := logging.AggregateLogs(dir)
//	failed := logging.FilterLogs(entries, logging.LogFilter{Level: "WARN"})
//	err = logging.WriteEntries(os.Stdout, failed, "text")
package logging
