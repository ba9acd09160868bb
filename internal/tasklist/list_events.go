package tasklist

import (
	"context"

	"github.com/Iron-Ham/parallelf/internal/event"
	"github.com/Iron-Ham/parallelf/internal/report"
	"github.com/Iron-Ham/parallelf/internal/task"
)

// EventList wraps a TaskList and publishes graph lifecycle events on an
// event bus: GraphFrozenEvent when Finish closes the list and
// GraphSettledEvent after every drain.
type EventList struct {
	l   *TaskList
	bus *event.Bus
}

// NewEventList creates an EventList that publishes on bus.
func NewEventList(l *TaskList, bus *event.Bus) *EventList {
	return &EventList{l: l, bus: bus}
}

// List returns the wrapped TaskList.
func (el *EventList) List() *TaskList {
	return el.l
}

// Append registers a task; see TaskList.Append.
func (el *EventList) Append(t task.Runnable, deps ...task.Runnable) error {
	return el.l.Append(t, deps...)
}

// Flush drains newly appended nodes and publishes a GraphSettledEvent.
func (el *EventList) Flush(ctx context.Context) (*report.Report, error) {
	rep, err := el.l.Flush(ctx)
	if err != nil {
		return nil, err
	}
	el.publishSettled(false, rep)
	return rep, nil
}

// FinishNode drains id and its unsettled ancestors, then publishes a
// GraphSettledEvent for them.
func (el *EventList) FinishNode(ctx context.Context, id string) (*report.Report, error) {
	rep, err := el.l.FinishNode(ctx, id)
	if err != nil {
		return nil, err
	}
	el.publishSettled(false, rep)
	return rep, nil
}

// Finish freezes the list, publishing a GraphFrozenEvent before the final
// drain starts and a GraphSettledEvent once it returns.
func (el *EventList) Finish(ctx context.Context) (*report.Report, error) {
	batch, err := el.l.beginDrain("finish", true)
	if err != nil {
		return nil, err
	}
	el.bus.Publish(event.NewGraphFrozenEvent(el.l.Len()))
	rep := el.l.finishDrain(ctx, batch)
	el.publishSettled(true, rep)
	return rep, nil
}

func (el *EventList) publishSettled(final bool, rep *report.Report) {
	c := rep.Counts()
	el.bus.Publish(event.NewGraphSettledEvent(final, c.Finished, c.Failed, c.Skipped, rep.Settled.Sub(rep.Started)))
}

// Ensure the graph event types satisfy the Event interface at compile time.
var (
	_ event.Event = event.GraphFrozenEvent{}
	_ event.Event = event.GraphSettledEvent{}
)
