package tasklist

import (
	"github.com/Iron-Ham/parallelf/internal/errors"
	"github.com/Iron-Ham/parallelf/internal/report"
	"github.com/Iron-Ham/parallelf/internal/task"
)

// nodeState tracks a node through a drain. It mirrors the task state, plus
// skipped for nodes the scheduler decided not to run.
type nodeState int

const (
	nodePending nodeState = iota
	nodeRunning
	nodeFinished
	nodeFailed
	nodeSkipped
)

func (s nodeState) settled() bool {
	return s == nodeFinished || s == nodeFailed || s == nodeSkipped
}

type node struct {
	t          task.Runnable
	deps       []*node
	dependents []*node

	state nodeState

	// waiting counts dependencies that have not finished yet. Only
	// meaningful during a drain.
	waiting int
	// inDrain marks the nodes of the running drain. A targeted drain leaves
	// other pending nodes alone.
	inDrain bool

	skip    *errors.DependencyError
	outcome report.Outcome
}

func (n *node) id() string {
	return n.t.ID()
}

// rootCauses returns the IDs of the failed tasks responsible for n not
// finishing: n itself when it failed, its recorded causes when skipped.
func (n *node) rootCauses() []string {
	switch n.state {
	case nodeFailed:
		return []string{n.id()}
	case nodeSkipped:
		if n.skip != nil {
			return n.skip.Causes
		}
	}
	return nil
}

// chain returns the dependency path from the originating failure to n.
func (n *node) chain() []string {
	if n.state == nodeSkipped && n.skip != nil && len(n.skip.Chain) > 0 {
		return n.skip.Chain
	}
	return []string{n.id()}
}

// pathTo searches forward from n along dependent edges and returns the
// node IDs from n to target inclusive, or nil if target is unreachable.
func pathTo(from, target *node) []string {
	if from == target {
		return []string{from.id()}
	}
	parent := map[*node]*node{from: nil}
	queue := []*node{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range cur.dependents {
			if _, seen := parent[d]; seen {
				continue
			}
			parent[d] = cur
			if d == target {
				var rev []string
				for p := d; p != nil; p = parent[p] {
					rev = append(rev, p.id())
				}
				path := make([]string, len(rev))
				for i, id := range rev {
					path[len(rev)-1-i] = id
				}
				return path
			}
			queue = append(queue, d)
		}
	}
	return nil
}

// cycleThrough reports the cycle that adding the edges existing -> deps
// would create, in prerequisite order and closed on existing. It returns nil
// when no dependency is reachable from existing.
func cycleThrough(existing *node, deps []*node) []string {
	for _, dep := range deps {
		if path := pathTo(existing, dep); path != nil {
			return append(path, existing.id())
		}
	}
	return nil
}

func appendUnique(ids []string, more ...string) []string {
	for _, id := range more {
		found := false
		for _, have := range ids {
			if have == id {
				found = true
				break
			}
		}
		if !found {
			ids = append(ids, id)
		}
	}
	return ids
}
