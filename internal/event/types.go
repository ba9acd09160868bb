package event

import (
	"time"

	"github.com/Iron-Ham/parallelf/internal/task"
)

// Event is the interface that all events must implement.
type Event interface {
	// EventType returns a string identifier for this event type.
	// Convention: "category.action" (e.g., "task.state_changed").
	EventType() string

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Event type identifiers.
const (
	TypeTaskStateChanged = "task.state_changed"
	TypeBatchStarted     = "batch.started"
	TypeBatchSettled     = "batch.settled"
	TypeGraphFrozen      = "graph.frozen"
	TypeGraphSettled     = "graph.settled"
	TypeFileChanged      = "file.changed"
)

// baseEvent provides common fields for all events.
// Embed this in concrete event types to satisfy the Event interface.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// -----------------------------------------------------------------------------
// Task Events
// -----------------------------------------------------------------------------

// TaskStateChangedEvent is emitted on every task state transition, including
// the scheduler-reported move to skipped.
type TaskStateChangedEvent struct {
	baseEvent
	TaskID string
	From   task.State
	To     task.State
}

// NewTaskStateChangedEvent creates a TaskStateChangedEvent.
func NewTaskStateChangedEvent(taskID string, from, to task.State) TaskStateChangedEvent {
	return TaskStateChangedEvent{
		baseEvent: newBaseEvent(TypeTaskStateChanged),
		TaskID:    taskID,
		From:      from,
		To:        to,
	}
}

// -----------------------------------------------------------------------------
// Drain Events
// -----------------------------------------------------------------------------

// BatchStartedEvent is emitted when a queue snapshot starts executing.
type BatchStartedEvent struct {
	baseEvent
	BatchID string // Identifies the snapshot across started/settled events
	Size    int    // Number of tasks in the snapshot
}

// NewBatchStartedEvent creates a BatchStartedEvent.
func NewBatchStartedEvent(batchID string, size int) BatchStartedEvent {
	return BatchStartedEvent{
		baseEvent: newBaseEvent(TypeBatchStarted),
		BatchID:   batchID,
		Size:      size,
	}
}

// BatchSettledEvent is emitted when every task of a queue snapshot settled.
type BatchSettledEvent struct {
	baseEvent
	BatchID  string
	Finished int
	Failed   int
	Duration time.Duration
}

// NewBatchSettledEvent creates a BatchSettledEvent.
func NewBatchSettledEvent(batchID string, finished, failed int, duration time.Duration) BatchSettledEvent {
	return BatchSettledEvent{
		baseEvent: newBaseEvent(TypeBatchSettled),
		BatchID:   batchID,
		Finished:  finished,
		Failed:    failed,
		Duration:  duration,
	}
}

// GraphFrozenEvent is emitted when Finish closes a task list to appends.
type GraphFrozenEvent struct {
	baseEvent
	Nodes int // Nodes registered at the time of freezing
}

// NewGraphFrozenEvent creates a GraphFrozenEvent.
func NewGraphFrozenEvent(nodes int) GraphFrozenEvent {
	return GraphFrozenEvent{
		baseEvent: newBaseEvent(TypeGraphFrozen),
		Nodes:     nodes,
	}
}

// GraphSettledEvent is emitted when a task list drain returns.
type GraphSettledEvent struct {
	baseEvent
	Final    bool // True for Finish, false for Flush
	Finished int
	Failed   int
	Skipped  int
	Duration time.Duration
}

// NewGraphSettledEvent creates a GraphSettledEvent.
func NewGraphSettledEvent(final bool, finished, failed, skipped int, duration time.Duration) GraphSettledEvent {
	return GraphSettledEvent{
		baseEvent: newBaseEvent(TypeGraphSettled),
		Final:     final,
		Finished:  finished,
		Failed:    failed,
		Skipped:   skipped,
		Duration:  duration,
	}
}

// -----------------------------------------------------------------------------
// Watch Events
// -----------------------------------------------------------------------------

// FileChangedEvent is emitted after a debounced change to a watched file.
type FileChangedEvent struct {
	baseEvent
	Path string
	Op   string // fsnotify operation, e.g. "WRITE" or "CREATE"
}

// NewFileChangedEvent creates a FileChangedEvent.
func NewFileChangedEvent(path, op string) FileChangedEvent {
	return FileChangedEvent{
		baseEvent: newBaseEvent(TypeFileChanged),
		Path:      path,
		Op:        op,
	}
}
