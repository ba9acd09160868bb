package graphfile

import (
	"container/heap"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/parallelf/internal/errors"
)

// Action names.
const (
	ActionPrint = "print"
	ActionSleep = "sleep"
	ActionFail  = "fail"
	ActionExec  = "exec"
)

// ValidActions returns the list of supported actions.
func ValidActions() []string {
	return []string{ActionPrint, ActionSleep, ActionFail, ActionExec}
}

// TaskSpec is one declared task.
type TaskSpec struct {
	Name      string   `yaml:"name"`
	Action    string   `yaml:"action"`
	Message   string   `yaml:"message,omitempty"`
	Duration  string   `yaml:"duration,omitempty"`
	Command   []string `yaml:"command,omitempty"`
	DependsOn []string `yaml:"depends_on,omitempty"`
}

// SleepDuration parses Duration. Only meaningful for sleep tasks.
func (s TaskSpec) SleepDuration() (time.Duration, error) {
	return time.ParseDuration(s.Duration)
}

// Graph is a parsed graph file.
type Graph struct {
	// Path is the file the graph was loaded from, if any.
	Path  string
	Tasks []TaskSpec
}

// Lookup returns the task named name.
func (g *Graph) Lookup(name string) (TaskSpec, bool) {
	for _, t := range g.Tasks {
		if t.Name == name {
			return t, true
		}
	}
	return TaskSpec{}, false
}

// Validate checks names, actions, action arguments and dependencies, and
// rejects cycles. It returns the first problem found.
func (g *Graph) Validate() error {
	seen := make(map[string]bool, len(g.Tasks))
	for i, t := range g.Tasks {
		if strings.TrimSpace(t.Name) == "" {
			return errors.NewValidationError("task name must not be empty").
				WithField(fmt.Sprintf("tasks[%d].name", i))
		}
		if seen[t.Name] {
			return errors.NewAlreadyExistsError("task", t.Name)
		}
		seen[t.Name] = true
		if err := t.validateAction(); err != nil {
			return err
		}
	}

	for _, t := range g.Tasks {
		for _, dep := range t.DependsOn {
			if !seen[dep] {
				return errors.NewNotFoundError("dependency", dep).
					WithCause(fmt.Errorf("required by task %q", t.Name))
			}
		}
	}

	_, err := g.Order()
	return err
}

func (t TaskSpec) validateAction() error {
	field := func(name string) string { return t.Name + "." + name }

	switch t.Action {
	case ActionPrint, ActionFail:
		return nil
	case ActionSleep:
		d, err := t.SleepDuration()
		if err != nil {
			return errors.NewValidationError("invalid duration").
				WithField(field("duration")).WithValue(t.Duration).WithCause(err)
		}
		if d < 0 {
			return errors.NewValidationError("duration must be non-negative").
				WithField(field("duration")).WithValue(t.Duration)
		}
		return nil
	case ActionExec:
		if len(t.Command) == 0 || t.Command[0] == "" {
			return errors.NewValidationError("exec tasks need a command").
				WithField(field("command"))
		}
		return nil
	default:
		return errors.NewValidationError("unknown action, must be one of: " + strings.Join(ValidActions(), ", ")).
			WithField(field("action")).WithValue(t.Action)
	}
}

// Order returns the task names in a topological order: every task comes
// after all of its dependencies. Among tasks that are ready at the same time,
// declaration order wins. A cycle is reported as a CycleError whose path
// starts and ends at the same task. Unknown dependencies are ignored here;
// Validate reports them.
func (g *Graph) Order() ([]string, error) {
	index := make(map[string]int, len(g.Tasks))
	for i, t := range g.Tasks {
		index[t.Name] = i
	}

	waiting := make([]int, len(g.Tasks))
	dependents := make([][]int, len(g.Tasks))
	for i, t := range g.Tasks {
		for _, dep := range slices.Compact(slices.Sorted(slices.Values(t.DependsOn))) {
			j, ok := index[dep]
			if !ok {
				continue
			}
			waiting[i]++
			dependents[j] = append(dependents[j], i)
		}
	}

	// Indices ascend, so the initial slice is already a valid min-heap.
	ready := &indexHeap{}
	for i := range g.Tasks {
		if waiting[i] == 0 {
			*ready = append(*ready, i)
		}
	}

	order := make([]string, 0, len(g.Tasks))
	for ready.Len() > 0 {
		i := heap.Pop(ready).(int)
		order = append(order, g.Tasks[i].Name)
		for _, d := range dependents[i] {
			waiting[d]--
			if waiting[d] == 0 {
				heap.Push(ready, d)
			}
		}
	}

	if len(order) < len(g.Tasks) {
		return nil, errors.NewCycleError(g.findCycle(index, waiting))
	}
	return order, nil
}

// indexHeap is a min-heap of declaration indices.
type indexHeap []int

func (h indexHeap) Len() int           { return len(h) }
func (h indexHeap) Less(i, j int) bool { return h[i] < h[j] }
func (h indexHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *indexHeap) Push(x any)        { *h = append(*h, x.(int)) }
func (h *indexHeap) Pop() any {
	old := *h
	x := old[len(old)-1]
	*h = old[:len(old)-1]
	return x
}

// findCycle walks dependency edges among the tasks left unresolved by Order
// until a task repeats. Every unresolved task has at least one unresolved
// dependency, so the walk always closes.
func (g *Graph) findCycle(index map[string]int, waiting []int) []string {
	start := -1
	for i, w := range waiting {
		if w > 0 {
			start = i
			break
		}
	}
	if start < 0 {
		return nil
	}

	pos := map[int]int{}
	var path []int
	for cur := start; ; {
		if p, ok := pos[cur]; ok {
			names := make([]string, 0, len(path)-p+1)
			for _, i := range path[p:] {
				names = append(names, g.Tasks[i].Name)
			}
			return append(names, g.Tasks[cur].Name)
		}
		pos[cur] = len(path)
		path = append(path, cur)

		next := -1
		for _, dep := range g.Tasks[cur].DependsOn {
			if j, ok := index[dep]; ok && waiting[j] > 0 {
				next = j
				break
			}
		}
		if next < 0 {
			return nil
		}
		cur = next
	}
}
