package event

import "github.com/Iron-Ham/parallelf/internal/task"

// TaskObserver publishes task state changes on a bus.
type TaskObserver struct {
	bus *Bus
}

// NewTaskObserver returns an observer that turns every task state change
// into a TaskStateChangedEvent on bus.
func NewTaskObserver(bus *Bus) *TaskObserver {
	return &TaskObserver{bus: bus}
}

// OnStateChange implements task.Observer.
func (o *TaskObserver) OnStateChange(id string, from, to task.State) {
	if o == nil || o.bus == nil {
		return
	}
	o.bus.Publish(NewTaskStateChangedEvent(id, from, to))
}

var _ task.Observer = (*TaskObserver)(nil)
