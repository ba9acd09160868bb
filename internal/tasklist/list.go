package tasklist

import (
	"context"
	"sync"
	"time"

	"github.com/Iron-Ham/parallelf/internal/errors"
	"github.com/Iron-Ham/parallelf/internal/report"
	"github.com/Iron-Ham/parallelf/internal/task"
)

// TaskList schedules tasks in dependency order. All methods are safe for
// concurrent use.
type TaskList struct {
	mu        sync.Mutex
	nodes     map[string]*node
	order     []*node // append order, which is also a topological order
	undrained []*node
	draining  bool
	frozen    bool
	firstRun  time.Time
	obs       task.Observer
}

// Option configures a TaskList.
type Option func(*TaskList)

// WithObserver reports every state change of every node to obs, including
// the move to skipped for nodes that never run. Repeated options add
// observers.
func WithObserver(obs task.Observer) Option {
	return func(l *TaskList) {
		if obs == nil {
			return
		}
		if l.obs == nil {
			l.obs = obs
			return
		}
		l.obs = task.Observers{l.obs, obs}
	}
}

// New creates an empty task list.
func New(opts ...Option) *TaskList {
	l := &TaskList{nodes: make(map[string]*node)}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Append registers t so that it runs only after every task in deps has
// finished. Each dependency must already be registered.
//
// Appending a task that is already registered fails: with a CycleError when
// one of deps transitively depends on t (or is t), otherwise with a
// StateError wrapping errors.ErrAlreadyAppended. Either way the graph is
// left unchanged.
func (l *TaskList) Append(t task.Runnable, deps ...task.Runnable) error {
	if t == nil {
		return errors.NewValidationError("task must not be nil").WithField("task")
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return errors.NewStateError("append", errors.ErrGraphFrozen).WithTaskID(t.ID())
	}
	if l.draining {
		return errors.NewStateError("append", errors.ErrDrainInProgress).WithTaskID(t.ID())
	}

	depNodes := make([]*node, 0, len(deps))
	seen := make(map[*node]bool, len(deps))
	for _, d := range deps {
		if d == nil {
			return errors.NewValidationError("dependency must not be nil").WithField("deps")
		}
		dn, ok := l.nodes[d.ID()]
		if !ok || dn.t != d {
			return errors.NewNotFoundError("dependency", d.ID())
		}
		if !seen[dn] {
			seen[dn] = true
			depNodes = append(depNodes, dn)
		}
	}

	if existing, ok := l.nodes[t.ID()]; ok {
		if existing.t != t {
			return errors.NewStateError("append", errors.NewAlreadyExistsError("task", t.ID())).WithTaskID(t.ID())
		}
		if path := cycleThrough(existing, depNodes); path != nil {
			return errors.NewCycleError(path)
		}
		return errors.NewStateError("append", errors.ErrAlreadyAppended).WithTaskID(t.ID())
	}

	n := &node{t: t, deps: depNodes}
	for _, dn := range depNodes {
		dn.dependents = append(dn.dependents, n)
	}
	l.nodes[t.ID()] = n
	l.order = append(l.order, n)
	l.undrained = append(l.undrained, n)
	return nil
}

// Flush runs every node appended since the previous drain and blocks until
// they settle. The returned report covers only those nodes. Dependencies
// settled by an earlier drain count as satisfied when they finished; a
// dependency that failed or was skipped earlier makes its new dependents
// skipped.
func (l *TaskList) Flush(ctx context.Context) (*report.Report, error) {
	batch, err := l.beginDrain("flush", false)
	if err != nil {
		return nil, err
	}
	started := time.Now()
	outcomes := l.drain(ctx, batch)
	l.endDrain()
	return report.New(started, outcomes), nil
}

// Finish closes the list to further appends, runs every node that has not
// settled and blocks until the whole graph settles. The returned report
// covers every node ever appended, in append order. Finish may only be
// called once.
func (l *TaskList) Finish(ctx context.Context) (*report.Report, error) {
	batch, err := l.beginDrain("finish", true)
	if err != nil {
		return nil, err
	}
	return l.finishDrain(ctx, batch), nil
}

// FinishNode runs the node registered as id together with every ancestor
// that has not settled, and blocks until they settle. Other appended nodes
// stay queued for the next Flush or Finish, and the list stays open to
// appends. The returned report covers the drained nodes in append order; for
// a node that already settled it holds only that node's outcome.
func (l *TaskList) FinishNode(ctx context.Context, id string) (*report.Report, error) {
	batch, done, err := l.beginNodeDrain(id)
	if err != nil {
		return nil, err
	}
	if done != nil {
		return report.New(time.Now(), []report.Outcome{done.outcome}), nil
	}
	started := time.Now()
	outcomes := l.drain(ctx, batch)
	l.endDrain()
	return report.New(started, outcomes), nil
}

// beginNodeDrain takes the undrained nodes id depends on, id included. It
// returns the node itself instead when it has already settled.
func (l *TaskList) beginNodeDrain(id string) ([]*node, *node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return nil, nil, errors.NewStateError("finish node", errors.ErrAlreadyFinished).WithTaskID(id)
	}
	if l.draining {
		return nil, nil, errors.NewStateError("finish node", errors.ErrDrainInProgress).WithTaskID(id)
	}
	target, ok := l.nodes[id]
	if !ok {
		return nil, nil, errors.NewNotFoundError("task", id)
	}
	if target.state.settled() {
		return nil, target, nil
	}

	want := map[*node]bool{target: true}
	stack := []*node{target}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, d := range n.deps {
			if !want[d] && !d.state.settled() {
				want[d] = true
				stack = append(stack, d)
			}
		}
	}

	var batch, rest []*node
	for _, n := range l.undrained {
		if want[n] {
			batch = append(batch, n)
		} else {
			rest = append(rest, n)
		}
	}
	l.undrained = rest
	l.draining = true
	if l.firstRun.IsZero() {
		l.firstRun = time.Now()
	}
	return batch, nil, nil
}

func (l *TaskList) finishDrain(ctx context.Context, batch []*node) *report.Report {
	started := time.Now()
	l.drain(ctx, batch)
	l.endDrain()

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.firstRun.IsZero() {
		started = l.firstRun
	}
	outcomes := make([]report.Outcome, len(l.order))
	for i, n := range l.order {
		outcomes[i] = n.outcome
	}
	return report.New(started, outcomes)
}

// beginDrain takes the undrained nodes and marks a drain in progress.
// A final drain also freezes the list.
func (l *TaskList) beginDrain(op string, final bool) ([]*node, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.frozen {
		return nil, errors.NewStateError(op, errors.ErrAlreadyFinished)
	}
	if l.draining {
		return nil, errors.NewStateError(op, errors.ErrDrainInProgress)
	}
	if final {
		l.frozen = true
	}
	l.draining = true
	if l.firstRun.IsZero() {
		l.firstRun = time.Now()
	}
	batch := l.undrained
	l.undrained = nil
	return batch, nil
}

func (l *TaskList) endDrain() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.draining = false
}

// Len returns the number of registered nodes.
func (l *TaskList) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.order)
}

// Pending returns the number of nodes waiting for the next drain.
func (l *TaskList) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.undrained)
}

// Frozen reports whether Finish has been called.
func (l *TaskList) Frozen() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.frozen
}

// Outcome returns the outcome of a node settled by a completed drain.
func (l *TaskList) Outcome(id string) (report.Outcome, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.nodes[id]
	if !ok || l.draining || !n.state.settled() {
		return report.Outcome{}, false
	}
	return n.outcome, true
}

// Dependencies returns the IDs of the direct dependencies of a node.
func (l *TaskList) Dependencies(id string) ([]string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, ok := l.nodes[id]
	if !ok {
		return nil, false
	}
	ids := make([]string, len(n.deps))
	for i, d := range n.deps {
		ids[i] = d.id()
	}
	return ids, true
}
