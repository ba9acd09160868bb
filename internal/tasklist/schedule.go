package tasklist

import (
	"context"

	"github.com/sourcegraph/conc"

	"github.com/Iron-Ham/parallelf/internal/errors"
	"github.com/Iron-Ham/parallelf/internal/report"
	"github.com/Iron-Ham/parallelf/internal/task"
)

type completion struct {
	n      *node
	result any
	err    error
}

// scheduler runs one drain. Only the goroutine calling run touches node
// state; payload goroutines report back over done.
type scheduler struct {
	ctx     context.Context
	obs     task.Observer
	done    chan completion
	wg      conc.WaitGroup
	running int
}

// drain runs batch to completion and returns the outcomes in batch order.
// Batch is in append order, so every dependency precedes its dependents.
func (l *TaskList) drain(ctx context.Context, batch []*node) []report.Outcome {
	if ctx == nil {
		ctx = context.Background()
	}
	s := &scheduler{
		ctx:  ctx,
		obs:  l.obs,
		done: make(chan completion, len(batch)),
	}
	s.run(batch)

	outcomes := make([]report.Outcome, len(batch))
	for i, n := range batch {
		outcomes[i] = n.outcome
	}
	return outcomes
}

func (s *scheduler) run(batch []*node) {
	for _, n := range batch {
		n.inDrain = true
	}
	defer func() {
		for _, n := range batch {
			n.inDrain = false
		}
	}()

	var ready []*node
	for _, n := range batch {
		if n.state == nodeSkipped {
			continue
		}
		n.waiting = 0
		var blocked *node
		for _, d := range n.deps {
			switch d.state {
			case nodeFinished:
			case nodeFailed, nodeSkipped:
				if blocked == nil {
					blocked = d
				}
			default:
				n.waiting++
			}
		}
		if blocked != nil {
			s.skip(n, blocked)
			continue
		}
		if n.waiting == 0 {
			ready = append(ready, n)
		}
	}

	for _, n := range ready {
		s.dispatch(n)
	}

	for s.running > 0 {
		c := <-s.done
		s.running--
		s.settle(c)
	}
	s.wg.Wait()

	// Anything still pending was never dispatched because the context ended.
	for _, n := range batch {
		if n.state == nodePending {
			s.cancel(n)
		}
	}
}

func (s *scheduler) dispatch(n *node) {
	if s.ctx.Err() != nil {
		return
	}
	n.state = nodeRunning
	s.running++
	s.wg.Go(func() {
		v, err := task.ExecuteOrWait(s.ctx, n.t, s.obs)
		s.done <- completion{n: n, result: v, err: err}
	})
}

func (s *scheduler) settle(c completion) {
	n := c.n
	n.outcome = report.FromTask(n.t, c.result, c.err)
	if c.err != nil {
		n.state = nodeFailed
		s.propagate(n)
		return
	}

	n.state = nodeFinished
	for _, d := range n.dependents {
		if d.state != nodePending || !d.inDrain {
			continue
		}
		d.waiting--
		if d.waiting == 0 {
			s.dispatch(d)
		}
	}
}

// skip marks n skipped because of via, then propagates.
func (s *scheduler) skip(n, via *node) {
	n.skip = skipError(n, via)
	s.markSkipped(n)
	s.propagate(n)
}

// skipError builds the cause for n not running because via did not finish.
// When via was itself skipped by cancellation there is no failed root, so
// the cancellation cause is carried forward instead.
func skipError(n, via *node) *errors.DependencyError {
	causes := append([]string(nil), via.rootCauses()...)
	chain := append(append([]string(nil), via.chain()...), n.id())
	e := errors.NewDependencyError(n.id(), causes, chain)
	if len(causes) == 0 && via.skip != nil {
		e = e.WithCause(via.skip.Unwrap())
	}
	return e
}

// propagate marks every pending transitive dependent of from as skipped.
// A dependent that is already skipped gains from's root causes, and is walked
// again only when that grows its cause set so its own skipped descendants
// see the new causes too. Cause sets only grow, so the walk terminates.
func (s *scheduler) propagate(from *node) {
	queue := []*node{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range cur.dependents {
			switch d.state {
			case nodePending:
				if !d.inDrain {
					// Left for the drain that picks d up.
					continue
				}
				d.skip = skipError(d, cur)
				s.markSkipped(d)
				queue = append(queue, d)
			case nodeSkipped:
				if d.skip != nil {
					had := d.skip.Causes
					causes := appendUnique(append([]string(nil), had...), cur.rootCauses()...)
					if len(causes) != len(had) {
						d.skip = errors.NewDependencyError(d.id(), causes, d.skip.Chain)
						d.outcome = report.Skipped(d.t, d.skip)
						queue = append(queue, d)
					}
				}
			}
		}
	}
}

// cancel marks n skipped because the drain's context ended before it could
// be dispatched. The skip matches ErrCanceled, or ErrTimeout for a deadline.
func (s *scheduler) cancel(n *node) {
	n.skip = errors.NewDependencyError(n.id(), nil, nil).WithCause(errors.ContextCause(s.ctx.Err()))
	s.markSkipped(n)
}

func (s *scheduler) markSkipped(n *node) {
	n.state = nodeSkipped
	n.outcome = report.Skipped(n.t, n.skip)
	task.Notify(s.obs, n.id(), task.StateWaiting, task.StateSkipped)
}
