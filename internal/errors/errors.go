// Package errors defines the error types returned and recorded by parallelf.
//
// Scheduling errors explain why a task or a scheduler refused or lost work:
//   - StateError: an operation was invoked in a state that forbids it
//   - CycleError: a dependency edge would close a cycle
//   - DependencyError: a task was skipped instead of run
//   - PayloadError: a task's own unit of work failed or panicked
//
// Input errors describe bad requests: NotFoundError, AlreadyExistsError,
// ValidationError and TimeoutError.
//
// Every type carries a Severity, which callers use to choose a log level:
//
//	switch errors.GetSeverity(err) {
//	case errors.SeverityCritical, errors.SeverityError:
//	    logger.Error("task did not finish", "error", err)
//	default:
//	    logger.Warn("task did not finish", "error", err)
//	}
//
// Match sentinels with Is and types with As:
//
//	if errors.Is(err, errors.ErrDependencyCycle) { ... }
//
//	var skipped *errors.DependencyError
//	if errors.As(err, &skipped) { ... }
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Re-exported so callers need only this package.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity ranks how serious an error is.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarning
	SeverityError
	// SeverityCritical marks panics.
	SeverityCritical
)

var severityNames = [...]string{"debug", "info", "warning", "error", "critical"}

func (s Severity) String() string {
	if s < 0 || int(s) >= len(severityNames) {
		return "unknown"
	}
	return severityNames[s]
}

// Task sentinels.
var (
	ErrAlreadyRunning = New("already running")
	ErrTaskFailed     = New("task failed")
	ErrTaskPanicked   = New("task panicked")
)

// Scheduler sentinels.
var (
	ErrGraphFrozen      = New("graph is frozen")
	ErrDrainInProgress  = New("drain in progress")
	ErrAlreadyAppended  = New("task already appended")
	ErrAlreadyFinished  = New("task list already finished")
	ErrDependencyCycle  = New("dependency cycle detected")
	ErrDependencyFailed = New("dependency failed")
)

// Context sentinels, see ContextCause.
var (
	ErrCanceled = New("operation canceled")
	ErrTimeout  = New("operation timed out")
)

// ErrInvalidInput is matched by every ValidationError.
var ErrInvalidInput = New("invalid input")

// ContextCause classifies a context error: deadlines match ErrTimeout,
// anything else matches ErrCanceled. The context error stays in the chain.
func ContextCause(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", ErrCanceled, err)
}

// baseError holds what every error in this package shares.
type baseError struct {
	message  string
	cause    error
	severity Severity
}

func (e *baseError) Unwrap() error      { return e.cause }
func (e *baseError) Severity() Severity { return e.severity }

// scoped returns kind, tagged with the task ID when there is one.
func scoped(kind, taskID string) string {
	if taskID == "" {
		return kind
	}
	return kind + " [task=" + taskID + "]"
}

// StateError reports an operation invoked against an object whose state
// forbids it, such as running a task that is already running or appending
// to a finished task list.
//
//	errors.NewStateError("append", errors.ErrGraphFrozen).WithTaskID("deploy")
//	// state error [task=deploy]: append: graph is frozen
type StateError struct {
	baseError
	Op     string
	TaskID string
}

// NewStateError creates a StateError for op, caused by cause.
func NewStateError(op string, cause error) *StateError {
	return &StateError{
		baseError: baseError{message: op, cause: cause, severity: SeverityError},
		Op:        op,
	}
}

// WithTaskID records the task the operation was about.
func (e *StateError) WithTaskID(id string) *StateError {
	e.TaskID = id
	return e
}

func (e *StateError) Error() string {
	s := scoped("state error", e.TaskID) + ": " + e.Op
	if e.cause != nil {
		s += ": " + e.cause.Error()
	}
	return s
}

// CycleError reports that adding dependency edges would create a cycle.
// Path lists task IDs along the cycle and is closed on its first task.
//
//	errors.NewCycleError([]string{"a", "b", "a"})
//	// cycle error: a -> b -> a: dependency cycle detected
type CycleError struct {
	baseError
	Path []string
}

// NewCycleError creates a CycleError for path.
func NewCycleError(path []string) *CycleError {
	return &CycleError{
		baseError: baseError{
			message:  strings.Join(path, " -> "),
			cause:    ErrDependencyCycle,
			severity: SeverityError,
		},
		Path: path,
	}
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return "cycle error: " + e.cause.Error()
	}
	return "cycle error: " + e.message + ": " + e.cause.Error()
}

// DependencyError is the outcome cause of a task that never ran.
//
// There are two reasons a task is skipped. When ancestors failed, Causes
// holds their IDs, Chain is the path from the first failure down to the
// task, and the error matches ErrDependencyFailed. When the drain's context
// ended first, Causes is empty and the error matches the ContextCause of the
// context error instead (ErrCanceled or ErrTimeout, plus the context error).
//
//	errors.NewDependencyError("report", []string{"fetch"}, []string{"fetch", "parse", "report"})
//	// dependency error [task=report]: skipped after fetch failed (fetch -> parse -> report)
type DependencyError struct {
	baseError
	TaskID string
	Causes []string
	Chain  []string
}

// NewDependencyError creates a DependencyError for a task skipped after the
// tasks in causes failed.
func NewDependencyError(taskID string, causes, chain []string) *DependencyError {
	return &DependencyError{
		baseError: baseError{
			message:  "skipped after " + strings.Join(causes, ", ") + " failed",
			severity: SeverityWarning,
		},
		TaskID: taskID,
		Causes: causes,
		Chain:  chain,
	}
}

// WithCause records why a skip without failed ancestors happened, usually
// the ContextCause of a canceled drain.
func (e *DependencyError) WithCause(cause error) *DependencyError {
	e.cause = cause
	if len(e.Causes) == 0 && cause != nil {
		e.message = "skipped: " + cause.Error()
	}
	return e
}

func (e *DependencyError) Error() string {
	s := scoped("dependency error", e.TaskID) + ": " + e.message
	if len(e.Chain) > 1 {
		s += " (" + strings.Join(e.Chain, " -> ") + ")"
	}
	return s
}

// Is matches ErrDependencyFailed when failed ancestors caused the skip.
func (e *DependencyError) Is(target error) bool {
	return target == ErrDependencyFailed && len(e.Causes) > 0
}

// PayloadError wraps the error returned, or the panic raised, by a task's
// unit of work. It is stored as the task's failure cause and never escapes a
// scheduler drain as a call error. It matches ErrTaskFailed.
//
//	errors.NewPayloadError("fetch", io.ErrUnexpectedEOF)
//	// payload error [task=fetch]: unexpected EOF
type PayloadError struct {
	baseError
	TaskID string
	Panic  any
	Stack  string
}

// NewPayloadError creates a PayloadError for the task's returned error.
func NewPayloadError(taskID string, cause error) *PayloadError {
	return &PayloadError{
		baseError: baseError{message: "task failed", cause: cause, severity: SeverityError},
		TaskID:    taskID,
	}
}

// NewPanicError creates a PayloadError for a payload that panicked with
// value. The stack is the one captured during recovery.
func NewPanicError(taskID string, value any, stack []byte) *PayloadError {
	e := NewPayloadError(taskID, fmt.Errorf("%w: %v", ErrTaskPanicked, value))
	e.Panic = value
	e.Stack = string(stack)
	e.severity = SeverityCritical
	return e
}

func (e *PayloadError) Error() string {
	detail := e.message
	if e.cause != nil {
		detail = e.cause.Error()
	}
	return scoped("payload error", e.TaskID) + ": " + detail
}

func (e *PayloadError) Is(target error) bool {
	return target == ErrTaskFailed
}

// NotFoundError reports a reference to something that does not exist.
//
//	errors.NewNotFoundError("dependency", "build") // dependency 'build' not found
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:  fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity: SeverityWarning,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause records the underlying error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

func (e *NotFoundError) Error() string { return withCause(e.message, e.cause) }

// AlreadyExistsError reports a name that is already taken.
//
//	errors.NewAlreadyExistsError("task", "build") // task 'build' already exists
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates an AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:  fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity: SeverityWarning,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause records the underlying error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

func (e *AlreadyExistsError) Error() string { return withCause(e.message, e.cause) }

// ValidationError reports invalid input. It always matches ErrInvalidInput.
//
//	errors.NewValidationError("unknown action").WithField("build.action").WithValue("compile")
//	// validation error: build.action: unknown action (got: compile)
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{baseError: baseError{message: message, severity: SeverityWarning}}
}

// WithField names the offending field.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue records the offending value.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause records the underlying error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

func (e *ValidationError) Error() string {
	var sb strings.Builder
	sb.WriteString("validation error: ")
	if e.Field != "" {
		sb.WriteString(e.Field + ": ")
	}
	sb.WriteString(e.message)
	if e.Value != nil {
		fmt.Fprintf(&sb, " (got: %v)", e.Value)
	}
	return withCause(sb.String(), e.cause)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// TimeoutError reports an operation cut short by its time limit. It
// matches ErrTimeout.
//
//	errors.NewTimeoutError("run", 30*time.Second) // timeout error: run (timeout: 30s)
type TimeoutError struct {
	baseError
	Operation string
	Duration  time.Duration
}

// NewTimeoutError creates a TimeoutError.
func NewTimeoutError(operation string, duration time.Duration) *TimeoutError {
	return &TimeoutError{
		baseError: baseError{
			message:  fmt.Sprintf("timeout error: %s (timeout: %s)", operation, duration),
			severity: SeverityWarning,
		},
		Operation: operation,
		Duration:  duration,
	}
}

// WithCause records what the timeout interrupted.
func (e *TimeoutError) WithCause(cause error) *TimeoutError {
	e.cause = cause
	return e
}

func (e *TimeoutError) Error() string { return withCause(e.message, e.cause) }

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func withCause(msg string, cause error) string {
	if cause == nil {
		return msg
	}
	return msg + ": " + cause.Error()
}

// GetSeverity returns the severity of the first error in err's chain that
// has one, SeverityError for other errors and SeverityDebug for nil.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}
	var s interface{ Severity() Severity }
	if As(err, &s) {
		return s.Severity()
	}
	return SeverityError
}

// Wrapf adds formatted context to err, returning nil for a nil err.
//
//	errors.Wrapf(err, "invalid graph %s", path)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
