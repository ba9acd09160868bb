package event

import (
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/parallelf/internal/task"
)

func TestBus_Subscribe(t *testing.T) {
	bus := NewBus()

	called := false
	id := bus.Subscribe("test.event", func(e Event) {
		called = true
	})

	if id == "" {
		t.Error("Subscribe should return a non-empty ID")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", bus.SubscriptionCount())
	}
	if called {
		t.Error("Handler should not be called until an event is published")
	}
}

func TestBus_SubscriptionIDsAreUnique(t *testing.T) {
	bus := NewBus()
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := bus.Subscribe("test.event", func(Event) {})
		if seen[id] {
			t.Fatalf("duplicate subscription ID %q", id)
		}
		seen[id] = true
	}
}

func TestBus_Publish(t *testing.T) {
	bus := NewBus()

	var received Event
	bus.Subscribe(TypeTaskStateChanged, func(e Event) {
		received = e
	})

	bus.Publish(NewTaskStateChangedEvent("fetch", task.StateWaiting, task.StateRunning))

	if received == nil {
		t.Fatal("Handler should have received the event")
	}
	sc, ok := received.(TaskStateChangedEvent)
	if !ok {
		t.Fatalf("received %T, want TaskStateChangedEvent", received)
	}
	if sc.TaskID != "fetch" || sc.From != task.StateWaiting || sc.To != task.StateRunning {
		t.Errorf("event = %+v, want fetch waiting->running", sc)
	}
}

func TestBus_PublishOrder(t *testing.T) {
	bus := NewBus()

	var order []string
	bus.SubscribeAll(func(Event) { order = append(order, "all") })
	bus.Subscribe("test.event", func(Event) { order = append(order, "first") })
	bus.Subscribe("test.event", func(Event) { order = append(order, "second") })

	bus.Publish(newBaseEvent("test.event"))

	want := []string{"first", "second", "all"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestBus_PublishNoMatchingHandlers(t *testing.T) {
	bus := NewBus()

	bus.Subscribe("other.event", func(e Event) {
		t.Error("Handler should not be called for non-matching event type")
	})

	bus.Publish(newBaseEvent("test.event"))
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()

	called := false
	keep := bus.Subscribe("test.event", func(Event) {})
	id := bus.Subscribe("test.event", func(e Event) {
		called = true
	})

	if !bus.Unsubscribe(id) {
		t.Error("Unsubscribe should return true when subscription exists")
	}
	if bus.Unsubscribe(id) {
		t.Error("Unsubscribe should return false the second time")
	}
	if bus.SubscriptionCount() != 1 {
		t.Errorf("SubscriptionCount() = %d, want 1", bus.SubscriptionCount())
	}

	bus.Publish(newBaseEvent("test.event"))
	if called {
		t.Error("Unsubscribed handler should not be called")
	}
	if !bus.Unsubscribe(keep) {
		t.Error("remaining subscription should still be removable")
	}
}

func TestBus_HandlerPanicRecovery(t *testing.T) {
	bus := NewBus()

	secondCalled := false
	bus.Subscribe("test.event", func(Event) { panic("handler exploded") })
	bus.Subscribe("test.event", func(Event) { secondCalled = true })

	bus.Publish(newBaseEvent("test.event"))

	if !secondCalled {
		t.Error("A panicking handler should not stop delivery to later handlers")
	}
}

func TestBus_Clear(t *testing.T) {
	bus := NewBus()
	bus.Subscribe("a", func(Event) {})
	bus.SubscribeAll(func(Event) {})

	bus.Clear()

	if bus.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d after Clear, want 0", bus.SubscriptionCount())
	}
}

func TestBus_ConcurrentPublish(t *testing.T) {
	bus := NewBus()

	var mu sync.Mutex
	count := 0
	bus.SubscribeAll(func(Event) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Publish(newBaseEvent("test.event"))
			bus.Subscribe("noise", func(Event) {})
		}()
	}
	wg.Wait()

	if count != 50 {
		t.Errorf("handled %d events, want 50", count)
	}
}

func TestEventConstructors(t *testing.T) {
	before := time.Now()

	tests := []struct {
		event Event
		want  string
	}{
		{NewTaskStateChangedEvent("t", task.StateRunning, task.StateFailed), TypeTaskStateChanged},
		{NewBatchStartedEvent("b1", 3), TypeBatchStarted},
		{NewBatchSettledEvent("b1", 2, 1, time.Second), TypeBatchSettled},
		{NewGraphFrozenEvent(4), TypeGraphFrozen},
		{NewGraphSettledEvent(true, 3, 1, 0, time.Second), TypeGraphSettled},
		{NewFileChangedEvent("graph.yaml", "WRITE"), TypeFileChanged},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if tt.event.EventType() != tt.want {
				t.Errorf("EventType() = %q, want %q", tt.event.EventType(), tt.want)
			}
			if tt.event.Timestamp().Before(before) {
				t.Error("Timestamp() should be set at construction")
			}
		})
	}
}

func TestTaskObserver(t *testing.T) {
	bus := NewBus()

	var got []TaskStateChangedEvent
	bus.Subscribe(TypeTaskStateChanged, func(e Event) {
		got = append(got, e.(TaskStateChangedEvent))
	})

	var obs task.Observer = NewTaskObserver(bus)
	obs.OnStateChange("build", task.StateWaiting, task.StateRunning)
	obs.OnStateChange("build", task.StateRunning, task.StateFinished)

	if len(got) != 2 {
		t.Fatalf("received %d events, want 2", len(got))
	}
	if got[1].To != task.StateFinished {
		t.Errorf("second event To = %s, want finished", got[1].To)
	}
}

func TestTaskObserver_NilBus(t *testing.T) {
	var obs *TaskObserver
	obs.OnStateChange("x", task.StateWaiting, task.StateRunning)

	NewTaskObserver(nil).OnStateChange("x", task.StateWaiting, task.StateRunning)
}
