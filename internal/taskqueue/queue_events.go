package taskqueue

import (
	"context"

	"github.com/google/uuid"

	"github.com/Iron-Ham/parallelf/internal/event"
	"github.com/Iron-Ham/parallelf/internal/report"
	"github.com/Iron-Ham/parallelf/internal/task"
)

// EventQueue wraps a TaskQueue and publishes batch lifecycle events on an
// event bus. Per-task events come from giving the wrapped queue an
// event.TaskObserver.
type EventQueue struct {
	q   *TaskQueue
	bus *event.Bus
}

// NewEventQueue creates an EventQueue that publishes on bus.
func NewEventQueue(q *TaskQueue, bus *event.Bus) *EventQueue {
	return &EventQueue{q: q, bus: bus}
}

// Push adds a task to the pending batch.
func (eq *EventQueue) Push(t task.Runnable) {
	eq.q.Push(t)
}

// Len returns the number of pending tasks.
func (eq *EventQueue) Len() int {
	return eq.q.Len()
}

// Exec runs the pending batch, publishing a BatchStartedEvent before and a
// BatchSettledEvent after.
func (eq *EventQueue) Exec(ctx context.Context) *report.Report {
	batch := eq.q.snapshot()
	id := eq.started(len(batch))
	rep := eq.q.execBatch(ctx, batch)
	eq.settled(id, rep)
	return rep
}

// ExecDetached runs the pending batch in the background, publishing the
// same events as Exec.
func (eq *EventQueue) ExecDetached(ctx context.Context) *Joinable {
	batch := eq.q.snapshot()
	id := eq.started(len(batch))
	j := &Joinable{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.rep = eq.q.execBatch(ctx, batch)
		eq.settled(id, j.rep)
	}()
	return j
}

func (eq *EventQueue) started(size int) string {
	id := "batch-" + uuid.NewString()
	eq.bus.Publish(event.NewBatchStartedEvent(id, size))
	return id
}

func (eq *EventQueue) settled(id string, rep *report.Report) {
	c := rep.Counts()
	eq.bus.Publish(event.NewBatchSettledEvent(id, c.Finished, c.Failed, rep.Settled.Sub(rep.Started)))
}

// Ensure the batch event types satisfy the Event interface at compile time.
var (
	_ event.Event = event.BatchStartedEvent{}
	_ event.Event = event.BatchSettledEvent{}
)
