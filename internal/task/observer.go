package task

import (
	"log"
	"runtime/debug"
)

// Observer receives task state changes. Implementations must be safe for
// concurrent use: schedulers call them from many goroutines.
type Observer interface {
	OnStateChange(id string, from, to State)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(id string, from, to State)

// OnStateChange calls f(id, from, to).
func (f ObserverFunc) OnStateChange(id string, from, to State) {
	f(id, from, to)
}

// Observers fans a state change out to several observers in order.
// Nil entries are ignored.
type Observers []Observer

// OnStateChange notifies every observer. A panicking observer is logged and
// does not prevent delivery to the rest.
func (o Observers) OnStateChange(id string, from, to State) {
	for _, obs := range o {
		notify(obs, id, from, to)
	}
}

// Notify delivers a state change to obs, tolerating a nil observer and
// recovering from observer panics.
func Notify(obs Observer, id string, from, to State) {
	notify(obs, id, from, to)
}

func notify(obs Observer, id string, from, to State) {
	if obs == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("ERROR: task observer panicked for %s (%s -> %s): %v\n%s",
				id, from, to, r, debug.Stack())
		}
	}()
	obs.OnStateChange(id, from, to)
}
