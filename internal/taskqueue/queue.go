package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/parallelf/internal/report"
	"github.com/Iron-Ham/parallelf/internal/task"
)

// TaskQueue is an unordered collection of tasks that run as one concurrent
// batch. All methods are safe for concurrent use.
type TaskQueue struct {
	mu      sync.Mutex
	pending []task.Runnable
	obs     task.Observer
}

// Option configures a TaskQueue.
type Option func(*TaskQueue)

// WithObserver reports every state change of every task the queue executes
// to obs. Repeated options add observers.
func WithObserver(obs task.Observer) Option {
	return func(q *TaskQueue) {
		if obs == nil {
			return
		}
		if q.obs == nil {
			q.obs = obs
			return
		}
		q.obs = task.Observers{q.obs, obs}
	}
}

// New creates an empty queue.
func New(opts ...Option) *TaskQueue {
	q := &TaskQueue{}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Push adds a task to the pending batch. The same task may be pushed more
// than once; it still runs at most once and every entry reports its outcome.
// Nil tasks are ignored.
func (q *TaskQueue) Push(t task.Runnable) {
	if t == nil {
		return
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending = append(q.pending, t)
}

// Len returns the number of pending tasks.
func (q *TaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Exec runs the pending batch and blocks until every task in it settles.
// Outcomes are reported in push order. An empty batch returns an empty
// report immediately.
func (q *TaskQueue) Exec(ctx context.Context) *report.Report {
	return q.execBatch(ctx, q.snapshot())
}

// ExecDetached takes the pending batch and runs it in the background. The
// snapshot is taken before ExecDetached returns.
func (q *TaskQueue) ExecDetached(ctx context.Context) *Joinable {
	batch := q.snapshot()
	j := &Joinable{done: make(chan struct{})}
	go func() {
		defer close(j.done)
		j.rep = q.execBatch(ctx, batch)
	}()
	return j
}

// snapshot takes the pending batch and leaves the queue empty.
func (q *TaskQueue) snapshot() []task.Runnable {
	q.mu.Lock()
	defer q.mu.Unlock()
	batch := q.pending
	q.pending = nil
	return batch
}

func (q *TaskQueue) execBatch(ctx context.Context, batch []task.Runnable) *report.Report {
	if ctx == nil {
		ctx = context.Background()
	}
	started := time.Now()
	outcomes := make([]report.Outcome, len(batch))

	var wg conc.WaitGroup
	for i, t := range batch {
		wg.Go(func() {
			v, err := task.ExecuteOrWait(ctx, t, q.obs)
			outcomes[i] = report.FromTask(t, v, err)
		})
	}
	wg.Wait()

	return report.New(started, outcomes)
}

// Joinable is a handle on a batch started by ExecDetached.
type Joinable struct {
	done chan struct{}
	rep  *report.Report
}

// Join blocks until the batch settles and returns its report.
func (j *Joinable) Join() *report.Report {
	<-j.done
	return j.rep
}

// Done returns a channel that is closed once the batch settles.
func (j *Joinable) Done() <-chan struct{} {
	return j.done
}
