package graphfile

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Iron-Ham/parallelf/internal/errors"
	"github.com/Iron-Ham/parallelf/internal/task"
	"github.com/Iron-Ham/parallelf/internal/tasklist"
	"github.com/Iron-Ham/parallelf/internal/taskqueue"
)

// BuildOptions configures the tasks built from a graph.
type BuildOptions struct {
	// Out receives print messages and exec stdout, one "[task] line" per
	// line. Nil discards output.
	Out io.Writer
	// Dir is the working directory for exec tasks. Empty means the
	// directory of the graph file, or the process working directory.
	Dir string
}

// Appender is satisfied by *tasklist.TaskList and *tasklist.EventList.
type Appender interface {
	Append(t task.Runnable, deps ...task.Runnable) error
}

// Pusher is satisfied by *taskqueue.TaskQueue and *taskqueue.EventQueue.
type Pusher interface {
	Push(t task.Runnable)
}

// lockedWriter serializes writes from concurrently running tasks.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeLines(name, text string) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		fmt.Fprintf(lw.w, "[%s] %s\n", name, sc.Text())
	}
}

// NewTasks builds one fresh task per declared task, keyed by name.
func (g *Graph) NewTasks(opts BuildOptions) map[string]task.Runnable {
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	lw := &lockedWriter{w: out}

	dir := opts.Dir
	if dir == "" && g.Path != "" {
		dir = filepath.Dir(g.Path)
	}

	tasks := make(map[string]task.Runnable, len(g.Tasks))
	for _, spec := range g.Tasks {
		tasks[spec.Name] = spec.newTask(lw, dir)
	}
	return tasks
}

func (s TaskSpec) newTask(lw *lockedWriter, dir string) task.Runnable {
	switch s.Action {
	case ActionPrint:
		return task.New(s.Name, func(context.Context) (string, error) {
			lw.writeLines(s.Name, s.Message)
			return s.Message, nil
		})
	case ActionSleep:
		return task.New(s.Name, func(ctx context.Context) (time.Duration, error) {
			d, err := s.SleepDuration()
			if err != nil {
				return 0, err
			}
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return d, nil
			case <-ctx.Done():
				return 0, ctx.Err()
			}
		})
	case ActionFail:
		return task.Action(s.Name, func(context.Context) error {
			msg := s.Message
			if msg == "" {
				msg = "task failed"
			}
			return errors.New(msg)
		})
	case ActionExec:
		return task.New(s.Name, func(ctx context.Context) (string, error) {
			return s.runCommand(ctx, lw, dir)
		})
	default:
		return task.Action(s.Name, func(context.Context) error {
			return errors.NewValidationError("unknown action").WithField(s.Name + ".action").WithValue(s.Action)
		})
	}
}

func (s TaskSpec) runCommand(ctx context.Context, lw *lockedWriter, dir string) (string, error) {
	if len(s.Command) == 0 {
		return "", errors.NewValidationError("exec tasks need a command").WithField(s.Name + ".command")
	}
	cmd := exec.CommandContext(ctx, s.Command[0], s.Command[1:]...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	lw.writeLines(s.Name, stdout.String())
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("%s: %w: %s", s.Command[0], err, msg)
		}
		return "", fmt.Errorf("%s: %w", s.Command[0], err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// AppendTo builds the graph's tasks and appends them to l in topological
// order with their declared dependencies. It returns the tasks by name.
func (g *Graph) AppendTo(l Appender, opts BuildOptions) (map[string]task.Runnable, error) {
	order, err := g.Order()
	if err != nil {
		return nil, err
	}
	tasks := g.NewTasks(opts)
	for _, name := range order {
		spec, _ := g.Lookup(name)
		deps := make([]task.Runnable, 0, len(spec.DependsOn))
		for _, dep := range spec.DependsOn {
			t, ok := tasks[dep]
			if !ok {
				return nil, errors.NewNotFoundError("dependency", dep)
			}
			deps = append(deps, t)
		}
		if err := l.Append(tasks[name], deps...); err != nil {
			return nil, errors.Wrapf(err, "failed to append task %s", name)
		}
	}
	return tasks, nil
}

// BuildList returns a new TaskList holding the graph.
func (g *Graph) BuildList(opts BuildOptions, listOpts ...tasklist.Option) (*tasklist.TaskList, error) {
	l := tasklist.New(listOpts...)
	if _, err := g.AppendTo(l, opts); err != nil {
		return nil, err
	}
	return l, nil
}

// PushTo builds the graph's tasks and pushes all of them to q in
// declaration order, ignoring dependencies.
func (g *Graph) PushTo(q Pusher, opts BuildOptions) map[string]task.Runnable {
	tasks := g.NewTasks(opts)
	for _, spec := range g.Tasks {
		q.Push(tasks[spec.Name])
	}
	return tasks
}

// BuildQueue returns a new TaskQueue holding every task of the graph as a
// single batch. Dependencies are ignored.
func (g *Graph) BuildQueue(opts BuildOptions, queueOpts ...taskqueue.Option) *taskqueue.TaskQueue {
	q := taskqueue.New(queueOpts...)
	g.PushTo(q, opts)
	return q
}
