package report

import (
	"time"

	"github.com/Iron-Ham/parallelf/internal/errors"
	"github.com/Iron-Ham/parallelf/internal/task"
)

// Status is the terminal status of a task within a drain.
type Status string

const (
	// StatusFinished means the payload returned normally.
	StatusFinished Status = "finished"

	// StatusFailed means the payload returned an error or panicked.
	StatusFailed Status = "failed"

	// StatusSkipped means the task never ran because a dependency did not
	// finish or the drain was cancelled.
	StatusSkipped Status = "skipped"
)

// String returns the string representation of the status.
func (s Status) String() string {
	return string(s)
}

// Outcome is the settled result of one task.
type Outcome struct {
	ID     string
	Name   string
	Status Status

	// Result is the payload's value for finished tasks.
	Result any

	// Err is the PayloadError of a failed task or the DependencyError of a
	// skipped one.
	Err error

	// Causes lists the IDs of the failed tasks that led to a skip.
	Causes []string

	StartedAt time.Time
	SettledAt time.Time
}

// Duration returns how long the payload ran. Skipped tasks report zero.
func (o Outcome) Duration() time.Duration {
	if o.StartedAt.IsZero() || o.SettledAt.IsZero() {
		return 0
	}
	return o.SettledAt.Sub(o.StartedAt)
}

// Ran reports whether the payload was invoked.
func (o Outcome) Ran() bool {
	return o.Status == StatusFinished || o.Status == StatusFailed
}

// FromTask builds the outcome of a task that was executed, given the value
// and error its Execute call returned.
func FromTask(t task.Runnable, result any, err error) Outcome {
	started, settled := t.Timing()
	o := Outcome{
		ID:        t.ID(),
		Name:      t.Name(),
		Status:    StatusFinished,
		Result:    result,
		StartedAt: started,
		SettledAt: settled,
	}
	if err != nil {
		o.Status = StatusFailed
		o.Result = nil
		o.Err = err
	}
	return o
}

// Skipped builds the outcome of a task that was never dispatched.
func Skipped(t task.Runnable, cause *errors.DependencyError) Outcome {
	o := Outcome{
		ID:     t.ID(),
		Name:   t.Name(),
		Status: StatusSkipped,
	}
	if cause != nil {
		o.Err = cause
		o.Causes = append([]string(nil), cause.Causes...)
	}
	return o
}

// Report collects the outcomes of one drain.
type Report struct {
	Outcomes []Outcome
	Started  time.Time
	Settled  time.Time
}

// New creates a report for a drain that began at started and has just
// settled.
func New(started time.Time, outcomes []Outcome) *Report {
	if outcomes == nil {
		outcomes = []Outcome{}
	}
	return &Report{
		Outcomes: outcomes,
		Started:  started,
		Settled:  time.Now(),
	}
}

// Len returns the number of outcomes.
func (r *Report) Len() int {
	return len(r.Outcomes)
}

// Get returns the first outcome for the given task ID.
func (r *Report) Get(id string) (Outcome, bool) {
	for _, o := range r.Outcomes {
		if o.ID == id {
			return o, true
		}
	}
	return Outcome{}, false
}

// Succeeded returns the finished outcomes.
func (r *Report) Succeeded() []Outcome {
	return r.filter(StatusFinished)
}

// Failed returns the failed outcomes.
func (r *Report) Failed() []Outcome {
	return r.filter(StatusFailed)
}

// Skipped returns the skipped outcomes.
func (r *Report) Skipped() []Outcome {
	return r.filter(StatusSkipped)
}

func (r *Report) filter(s Status) []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == s {
			out = append(out, o)
		}
	}
	return out
}

// OK reports whether every task finished.
func (r *Report) OK() bool {
	for _, o := range r.Outcomes {
		if o.Status != StatusFinished {
			return false
		}
	}
	return true
}

// Err joins the causes of every failed and skipped task, or returns nil when
// all tasks finished.
func (r *Report) Err() error {
	var errs []error
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, o.Err)
		}
	}
	return errors.Join(errs...)
}

// Counts tallies outcomes by status.
type Counts struct {
	Total    int `json:"total"`
	Finished int `json:"finished"`
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"`
}

// Counts returns the per-status tallies.
func (r *Report) Counts() Counts {
	c := Counts{Total: len(r.Outcomes)}
	for _, o := range r.Outcomes {
		switch o.Status {
		case StatusFinished:
			c.Finished++
		case StatusFailed:
			c.Failed++
		case StatusSkipped:
			c.Skipped++
		}
	}
	return c
}
