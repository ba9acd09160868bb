package taskqueue

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/Iron-Ham/parallelf/internal/event"
	"github.com/Iron-Ham/parallelf/internal/task"
)

type eventCollector struct {
	mu     sync.Mutex
	events []event.Event
}

func (c *eventCollector) handler(e event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func (c *eventCollector) findByType(eventType string) []event.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var found []event.Event
	for _, e := range c.events {
		if e.EventType() == eventType {
			found = append(found, e)
		}
	}
	return found
}

func TestEventQueue_Exec(t *testing.T) {
	bus := event.NewBus()
	col := &eventCollector{}
	bus.SubscribeAll(col.handler)

	eq := NewEventQueue(New(WithObserver(event.NewTaskObserver(bus))), bus)
	eq.Push(task.Action("ok", func(context.Context) error { return nil }))
	eq.Push(task.Action("ko", func(context.Context) error { return fmt.Errorf("no") }))
	if eq.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", eq.Len())
	}

	rep := eq.Exec(context.Background())
	if rep.Len() != 2 {
		t.Fatalf("report has %d outcomes, want 2", rep.Len())
	}

	started := col.findByType(event.TypeBatchStarted)
	if len(started) != 1 {
		t.Fatalf("got %d batch.started events, want 1", len(started))
	}
	bs := started[0].(event.BatchStartedEvent)
	if bs.Size != 2 {
		t.Errorf("BatchStartedEvent.Size = %d, want 2", bs.Size)
	}

	settled := col.findByType(event.TypeBatchSettled)
	if len(settled) != 1 {
		t.Fatalf("got %d batch.settled events, want 1", len(settled))
	}
	bd := settled[0].(event.BatchSettledEvent)
	if bd.BatchID != bs.BatchID {
		t.Errorf("settled BatchID = %q, want %q", bd.BatchID, bs.BatchID)
	}
	if bd.Finished != 1 || bd.Failed != 1 {
		t.Errorf("settled counts = %d/%d, want 1/1", bd.Finished, bd.Failed)
	}

	if got := len(col.findByType(event.TypeTaskStateChanged)); got != 4 {
		t.Errorf("got %d task.state_changed events, want 4", got)
	}
}

func TestEventQueue_ExecDetached(t *testing.T) {
	bus := event.NewBus()
	col := &eventCollector{}
	bus.SubscribeAll(col.handler)

	eq := NewEventQueue(New(), bus)
	eq.Push(task.Action("one", func(context.Context) error { return nil }))

	j := eq.ExecDetached(context.Background())
	j.Join()

	if got := len(col.findByType(event.TypeBatchStarted)); got != 1 {
		t.Errorf("got %d batch.started events, want 1", got)
	}
	if got := len(col.findByType(event.TypeBatchSettled)); got != 1 {
		t.Errorf("got %d batch.settled events, want 1", got)
	}
}
