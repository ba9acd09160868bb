// Package testutil provides testing utilities for parallelf tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/parallelf/internal/task"
)

// ExecutionRecord is the start and end time of one payload run.
type ExecutionRecord struct {
	Start time.Time
	End   time.Time
}

// Recorder records when payloads start and end so tests can check ordering
// and overlap. It is safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records map[string]*ExecutionRecord
	calls   map[string]int
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{
		records: make(map[string]*ExecutionRecord),
		calls:   make(map[string]int),
	}
}

func (r *Recorder) start(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[name] = &ExecutionRecord{Start: time.Now()}
	r.calls[name]++
}

func (r *Recorder) end(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if rec, ok := r.records[name]; ok {
		rec.End = time.Now()
	}
}

// Sleeper returns a task that sleeps for d, honoring ctx, and returns its
// name.
func (r *Recorder) Sleeper(name string, d time.Duration) *task.Task[string] {
	return task.New(name, func(ctx context.Context) (string, error) {
		r.start(name)
		defer r.end(name)
		select {
		case <-time.After(d):
			return name, nil
		case <-ctx.Done():
			return "", ctx.Err()
		}
	})
}

// Failer returns a task that sleeps for d and then fails with err.
func (r *Recorder) Failer(name string, d time.Duration, err error) *task.Task[string] {
	return task.New(name, func(context.Context) (string, error) {
		r.start(name)
		defer r.end(name)
		time.Sleep(d)
		return "", err
	})
}

// Record returns the execution record for name.
func (r *Recorder) Record(name string) (ExecutionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[name]
	if !ok {
		return ExecutionRecord{}, false
	}
	return *rec, true
}

// Calls returns how many times the payload named name started.
func (r *Recorder) Calls(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[name]
}

// Started returns the names of every payload that started, in start order.
func (r *Recorder) Started() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.records))
	for name := range r.records {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return r.records[names[i]].Start.Before(r.records[names[j]].Start)
	})
	return names
}

// AssertBefore fails the test unless first ended no later than second
// started.
func (r *Recorder) AssertBefore(t *testing.T, first, second string) {
	t.Helper()
	a, okA := r.Record(first)
	b, okB := r.Record(second)
	if !okA || !okB {
		t.Errorf("missing execution record for %q or %q", first, second)
		return
	}
	if b.Start.Before(a.End) {
		t.Errorf("%q started at %v before %q ended at %v", second, b.Start, first, a.End)
	}
}

// AssertOverlap fails the test unless the two payloads ran at the same time.
func (r *Recorder) AssertOverlap(t *testing.T, a, b string) {
	t.Helper()
	ra, okA := r.Record(a)
	rb, okB := r.Record(b)
	if !okA || !okB {
		t.Errorf("missing execution record for %q or %q", a, b)
		return
	}
	if !ra.Start.Before(rb.End) || !rb.Start.Before(ra.End) {
		t.Errorf("%q [%v, %v] and %q [%v, %v] did not overlap",
			a, ra.Start, ra.End, b, rb.Start, rb.End)
	}
}

// WriteFile writes content to name inside a fresh temporary directory and
// returns the full path.
func WriteFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}
