package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"
)

// -----------------------------------------------------------------------------
// Severity Tests
// -----------------------------------------------------------------------------

func TestSeverity_String(t *testing.T) {
	tests := []struct {
		severity Severity
		want     string
	}{
		{SeverityDebug, "debug"},
		{SeverityInfo, "info"},
		{SeverityWarning, "warning"},
		{SeverityError, "error"},
		{SeverityCritical, "critical"},
		{Severity(99), "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.severity.String(); got != tt.want {
				t.Errorf("Severity.String() = %q, want %q", got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// StateError Tests
// -----------------------------------------------------------------------------

func TestNewStateError(t *testing.T) {
	err := NewStateError("run", ErrAlreadyRunning)

	if err.Op != "run" {
		t.Errorf("Op = %q, want %q", err.Op, "run")
	}
	if err.cause != ErrAlreadyRunning {
		t.Errorf("cause = %v, want %v", err.cause, ErrAlreadyRunning)
	}
	if err.Severity() != SeverityError {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityError)
	}
}

func TestStateError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *StateError
		want string
	}{
		{
			name: "with cause",
			err:  NewStateError("append", ErrGraphFrozen),
			want: "state error: append: graph is frozen",
		},
		{
			name: "with task id",
			err:  NewStateError("run", ErrAlreadyRunning).WithTaskID("fetch"),
			want: "state error [task=fetch]: run: already running",
		},
		{
			name: "without cause",
			err:  NewStateError("finish", nil),
			want: "state error: finish",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStateError_Is(t *testing.T) {
	err := NewStateError("append", ErrGraphFrozen)

	var se *StateError
	if !As(Wrapf(err, "task %s", "deploy"), &se) || se.Op != "append" {
		t.Error("As(*StateError) should find the append error")
	}
	if !Is(err, ErrGraphFrozen) {
		t.Error("Is(ErrGraphFrozen) = false, want true")
	}
	if Is(err, ErrAlreadyRunning) {
		t.Error("Is(ErrAlreadyRunning) = true, want false")
	}
}

// -----------------------------------------------------------------------------
// CycleError Tests
// -----------------------------------------------------------------------------

func TestCycleError(t *testing.T) {
	err := NewCycleError([]string{"a", "b", "a"})

	want := "cycle error: a -> b -> a: dependency cycle detected"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrDependencyCycle) {
		t.Error("Is(ErrDependencyCycle) = false, want true")
	}
	if len(err.Path) != 3 {
		t.Errorf("len(Path) = %d, want 3", len(err.Path))
	}
}

func TestCycleError_EmptyPath(t *testing.T) {
	err := NewCycleError(nil)
	if got := err.Error(); got != "cycle error: dependency cycle detected" {
		t.Errorf("Error() = %q", got)
	}
}

// -----------------------------------------------------------------------------
// DependencyError Tests
// -----------------------------------------------------------------------------

func TestDependencyError(t *testing.T) {
	err := NewDependencyError("report", []string{"fetch"}, []string{"fetch", "parse", "report"})

	want := "dependency error [task=report]: skipped after fetch failed (fetch -> parse -> report)"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrDependencyFailed) {
		t.Error("Is(ErrDependencyFailed) = false, want true")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}
}

func TestDependencyError_WithCause(t *testing.T) {
	err := NewDependencyError("report", nil, nil).WithCause(ContextCause(context.Canceled))

	if !Is(err, context.Canceled) {
		t.Error("Is(context.Canceled) = false, want true")
	}
	if !Is(err, ErrCanceled) {
		t.Error("Is(ErrCanceled) = false, want true")
	}
	if Is(err, ErrDependencyFailed) {
		t.Error("Is(ErrDependencyFailed) = true, want false for a cancellation skip")
	}
	want := "dependency error [task=report]: skipped: operation canceled: context canceled"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestDependencyError_CausesDecideMatch(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantFailed bool
		wantCancel bool
		wantTime   bool
	}{
		{
			name:       "failed ancestor",
			err:        NewDependencyError("b", []string{"a"}, []string{"a", "b"}),
			wantFailed: true,
		},
		{
			name:       "canceled drain",
			err:        NewDependencyError("b", nil, nil).WithCause(ContextCause(context.Canceled)),
			wantCancel: true,
		},
		{
			name:     "expired deadline",
			err:      NewDependencyError("b", nil, nil).WithCause(ContextCause(context.DeadlineExceeded)),
			wantTime: true,
		},
		{
			name:       "failed ancestor wrapped",
			err:        fmt.Errorf("outcome: %w", NewDependencyError("c", []string{"a", "b"}, nil)),
			wantFailed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, ErrDependencyFailed); got != tt.wantFailed {
				t.Errorf("Is(ErrDependencyFailed) = %v, want %v", got, tt.wantFailed)
			}
			if got := Is(tt.err, ErrCanceled); got != tt.wantCancel {
				t.Errorf("Is(ErrCanceled) = %v, want %v", got, tt.wantCancel)
			}
			if got := Is(tt.err, ErrTimeout); got != tt.wantTime {
				t.Errorf("Is(ErrTimeout) = %v, want %v", got, tt.wantTime)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// PayloadError Tests
// -----------------------------------------------------------------------------

func TestPayloadError(t *testing.T) {
	err := NewPayloadError("fetch", io.ErrUnexpectedEOF)

	if got, want := err.Error(), "payload error [task=fetch]: unexpected EOF"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, io.ErrUnexpectedEOF) {
		t.Error("Is(io.ErrUnexpectedEOF) = false, want true")
	}
	if !Is(err, ErrTaskFailed) {
		t.Error("Is(ErrTaskFailed) = false, want true")
	}
	if Unwrap(err) != io.ErrUnexpectedEOF {
		t.Errorf("Unwrap() = %v, want %v", Unwrap(err), io.ErrUnexpectedEOF)
	}
}

func TestNewPanicError(t *testing.T) {
	err := NewPanicError("fetch", "boom", []byte("goroutine 1 [running]"))

	if !Is(err, ErrTaskPanicked) {
		t.Error("Is(ErrTaskPanicked) = false, want true")
	}
	if err.Panic != "boom" {
		t.Errorf("Panic = %v, want %q", err.Panic, "boom")
	}
	if !strings.Contains(err.Stack, "goroutine") {
		t.Errorf("Stack = %q, want goroutine trace", err.Stack)
	}
	if err.Severity() != SeverityCritical {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityCritical)
	}
}

// -----------------------------------------------------------------------------
// Semantic Error Tests
// -----------------------------------------------------------------------------

func TestNotFoundError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *NotFoundError
		want string
	}{
		{
			name: "basic error",
			err:  NewNotFoundError("dependency", "build"),
			want: "dependency 'build' not found",
		},
		{
			name: "with cause",
			err:  NewNotFoundError("graph file", "/tmp/g.yaml").WithCause(fmt.Errorf("IO error")),
			want: "graph file '/tmp/g.yaml' not found: IO error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestAlreadyExistsError_Error(t *testing.T) {
	err := NewAlreadyExistsError("task", "build")
	if got, want := err.Error(), "task 'build' already exists"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "message only",
			err:  NewValidationError("name is required"),
			want: "validation error: name is required",
		},
		{
			name: "with field and value",
			err:  NewValidationError("unknown action").WithField("tasks.build.action").WithValue("compile"),
			want: "validation error: tasks.build.action: unknown action (got: compile)",
		},
		{
			name: "with cause",
			err:  NewValidationError("bad duration").WithCause(fmt.Errorf("parse error")),
			want: "validation error: bad duration: parse error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidationError_Is(t *testing.T) {
	err := NewValidationError("bad")
	if !Is(err, ErrInvalidInput) {
		t.Error("Is(ErrInvalidInput) = false, want true")
	}
}

func TestTimeoutError(t *testing.T) {
	err := NewTimeoutError("run graph", 30*time.Second)

	if got, want := err.Error(), "timeout error: run graph (timeout: 30s)"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !Is(err, ErrTimeout) {
		t.Error("Is(ErrTimeout) = false, want true")
	}
	if err.Severity() != SeverityWarning {
		t.Errorf("Severity() = %v, want %v", err.Severity(), SeverityWarning)
	}

	wrapped := NewTimeoutError("run", time.Second).WithCause(context.DeadlineExceeded)
	if !Is(wrapped, context.DeadlineExceeded) {
		t.Error("Is(context.DeadlineExceeded) = false, want true")
	}
}

// -----------------------------------------------------------------------------
// Classification Tests
// -----------------------------------------------------------------------------

func TestContextCause(t *testing.T) {
	if ContextCause(nil) != nil {
		t.Error("ContextCause(nil) should return nil")
	}

	tests := []struct {
		name     string
		err      error
		sentinel error
		other    error
		want     string
	}{
		{"canceled", context.Canceled, ErrCanceled, ErrTimeout, "operation canceled: context canceled"},
		{"deadline", context.DeadlineExceeded, ErrTimeout, ErrCanceled, "operation timed out: context deadline exceeded"},
		{"wrapped deadline", fmt.Errorf("drain: %w", context.DeadlineExceeded), ErrTimeout, ErrCanceled, "operation timed out: drain: context deadline exceeded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ContextCause(tt.err)
			if !Is(got, tt.sentinel) {
				t.Errorf("Is(%v) = false, want true", tt.sentinel)
			}
			if Is(got, tt.other) {
				t.Errorf("Is(%v) = true, want false", tt.other)
			}
			if !Is(got, tt.err) {
				t.Error("context error should stay in the chain")
			}
			if got.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", got.Error(), tt.want)
			}
		})
	}
}

func TestGetSeverity(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Severity
	}{
		{"nil error", nil, SeverityDebug},
		{"dependency error", NewDependencyError("b", []string{"a"}, nil), SeverityWarning},
		{"panic error", NewPanicError("a", "boom", nil), SeverityCritical},
		{"wrapped timeout", Wrapf(NewTimeoutError("run", time.Second), "graph %s", "g"), SeverityWarning},
		{"standard error", errors.New("plain"), SeverityError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetSeverity(tt.err); got != tt.want {
				t.Errorf("GetSeverity() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWrapf(t *testing.T) {
	if Wrapf(nil, "task %s", "deploy") != nil {
		t.Error("Wrapf(nil) should return nil")
	}
	base := NewStateError("append", ErrGraphFrozen)
	wrapped := Wrapf(base, "task %s", "deploy")
	if got, want := wrapped.Error(), "task deploy: state error: append: graph is frozen"; got != want {
		t.Errorf("Wrapf() = %q, want %q", got, want)
	}

	var extracted *StateError
	if !As(wrapped, &extracted) {
		t.Fatal("As() should extract StateError from chain")
	}
	if !Is(wrapped, ErrGraphFrozen) {
		t.Error("Should find ErrGraphFrozen in chain")
	}
}

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrAlreadyRunning,
		ErrTaskFailed,
		ErrTaskPanicked,
		ErrGraphFrozen,
		ErrDrainInProgress,
		ErrAlreadyAppended,
		ErrAlreadyFinished,
		ErrDependencyCycle,
		ErrDependencyFailed,
		ErrTimeout,
		ErrCanceled,
		ErrInvalidInput,
	}

	for i, err1 := range sentinels {
		for j, err2 := range sentinels {
			if i != j && Is(err1, err2) {
				t.Errorf("Sentinel error %v should not match %v", err1, err2)
			}
		}
	}
}
