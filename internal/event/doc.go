// Package event provides a pub-sub event bus that lets the schedulers report
// progress without depending on whoever consumes it.
//
// Schedulers publish task and drain lifecycle events; the CLI subscribes the
// logger and its progress printer. Neither side imports the other.
//
// # Main Types
//
//   - [Event]: Interface that all events must implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub event dispatcher with thread-safe operations
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Task Events:
//   - [TaskStateChangedEvent]: A task moved between states
//
// Drain Events:
//   - [BatchStartedEvent]: A TaskQueue snapshot began executing
//   - [BatchSettledEvent]: Every task in a TaskQueue snapshot settled
//   - [GraphFrozenEvent]: A TaskList stopped accepting appends
//   - [GraphSettledEvent]: A TaskList drain (flush or finish) completed
//
// Watch Events:
//   - [FileChangedEvent]: A watched graph file changed on disk
//
// # Thread Safety
//
// The [Bus] type is safe for concurrent use. Handlers are called
// synchronously on the publishing goroutine, which for task events is the
// task's own goroutine, so handlers must be safe for concurrent use too. A
// panicking handler will not prevent other handlers from being called.
//
// # Basic Usage
//
//	bus := event.NewBus()
//
//	bus.Subscribe(event.TypeTaskStateChanged, func(e event.Event) {
//	    sc := e.(event.TaskStateChangedEvent)
//	    log.Printf("%s: %s -> %s", sc.TaskID, sc.From, sc.To)
//	})
//
//	list := tasklist.New(tasklist.WithObserver(event.NewTaskObserver(bus)))
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - task.state_changed
//   - batch.started, batch.settled
//   - graph.frozen, graph.settled
//   - file.changed
package event
