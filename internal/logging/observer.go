package logging

import "github.com/Iron-Ham/parallelf/internal/task"

// TaskObserver logs task state changes.
type TaskObserver struct {
	logger *Logger
}

// NewTaskObserver returns an observer that logs every state change:
// starts at DEBUG, completions at INFO, failures and skips at WARN.
func NewTaskObserver(logger *Logger) *TaskObserver {
	if logger == nil {
		logger = NopLogger()
	}
	return &TaskObserver{logger: logger}
}

// OnStateChange implements task.Observer.
func (o *TaskObserver) OnStateChange(id string, from, to task.State) {
	l := o.logger.WithTask(id)
	switch to {
	case task.StateRunning:
		l.Debug("task started", "from", from.String())
	case task.StateFinished:
		l.Info("task finished")
	case task.StateFailed:
		l.Warn("task failed")
	case task.StateSkipped:
		l.Warn("task skipped", "from", from.String())
	default:
		l.Debug("task state changed", "from", from.String(), "to", to.String())
	}
}

var _ task.Observer = (*TaskObserver)(nil)
