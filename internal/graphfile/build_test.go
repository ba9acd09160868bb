package graphfile

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/parallelf/internal/errors"
	"github.com/Iron-Ham/parallelf/internal/report"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestGraph_BuildList(t *testing.T) {
	g := &Graph{Tasks: []TaskSpec{
		{Name: "announce", Action: ActionPrint, Message: "all done", DependsOn: []string{"echo", "nap"}},
		{Name: "echo", Action: ActionExec, Command: []string{"echo", "hello"}},
		{Name: "nap", Action: ActionSleep, Duration: "5ms"},
	}}
	var out syncBuffer

	l, err := g.BuildList(BuildOptions{Out: &out})
	if err != nil {
		t.Fatalf("BuildList() error = %v", err)
	}
	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	deps, _ := l.Dependencies("announce")
	if len(deps) != 2 {
		t.Errorf("Dependencies(announce) = %v", deps)
	}

	rep, err := l.Finish(context.Background())
	if err != nil {
		t.Fatalf("Finish() error = %v", err)
	}
	if !rep.OK() {
		t.Fatalf("report not OK: %v", rep.Err())
	}

	echo, _ := rep.Get("echo")
	if echo.Result != "hello" {
		t.Errorf("echo result = %v, want hello", echo.Result)
	}
	nap, _ := rep.Get("nap")
	if nap.Result != 5*time.Millisecond {
		t.Errorf("nap result = %v, want 5ms", nap.Result)
	}

	text := out.String()
	if !strings.Contains(text, "[echo] hello\n") || !strings.Contains(text, "[announce] all done\n") {
		t.Errorf("output = %q", text)
	}
	if strings.Index(text, "[echo]") > strings.Index(text, "[announce]") {
		t.Errorf("announce printed before its dependency: %q", text)
	}
}

func TestGraph_BuildList_FailureSkipsDependents(t *testing.T) {
	g := &Graph{Tasks: []TaskSpec{
		{Name: "broken", Action: ActionFail, Message: "boom"},
		{Name: "after", Action: ActionPrint, Message: "never", DependsOn: []string{"broken"}},
		{Name: "side", Action: ActionPrint, Message: "fine"},
	}}
	var out syncBuffer
	l, err := g.BuildList(BuildOptions{Out: &out})
	if err != nil {
		t.Fatal(err)
	}
	rep, _ := l.Finish(context.Background())

	c := rep.Counts()
	if c.Finished != 1 || c.Failed != 1 || c.Skipped != 1 {
		t.Errorf("Counts() = %+v", c)
	}
	broken, _ := rep.Get("broken")
	if broken.Err == nil || !strings.Contains(broken.Err.Error(), "boom") {
		t.Errorf("broken.Err = %v", broken.Err)
	}
	after, _ := rep.Get("after")
	if after.Status != report.StatusSkipped {
		t.Errorf("after.Status = %v, want skipped", after.Status)
	}
	if strings.Contains(out.String(), "never") {
		t.Error("skipped task printed output")
	}
}

func TestGraph_BuildList_Cycle(t *testing.T) {
	g := &Graph{Tasks: []TaskSpec{spec("a", "b"), spec("b", "a")}}
	if _, err := g.BuildList(BuildOptions{}); !errors.Is(err, errors.ErrDependencyCycle) {
		t.Errorf("BuildList() error = %v, want cycle", err)
	}
}

func TestGraph_BuildQueue(t *testing.T) {
	g := &Graph{Tasks: []TaskSpec{
		{Name: "a", Action: ActionSleep, Duration: "20ms"},
		{Name: "b", Action: ActionSleep, Duration: "20ms", DependsOn: []string{"a"}},
		{Name: "c", Action: ActionFail},
	}}
	q := g.BuildQueue(BuildOptions{})
	if q.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", q.Len())
	}

	rep := q.Exec(context.Background())
	c := rep.Counts()
	if c.Finished != 2 || c.Failed != 1 || c.Skipped != 0 {
		t.Errorf("Counts() = %+v, dependencies should be ignored", c)
	}
	if st := rep.Stats(); st.Peak < 2 {
		t.Errorf("Peak = %d, want a and b to overlap", st.Peak)
	}
	failed, _ := rep.Get("c")
	if failed.Err == nil || !strings.Contains(failed.Err.Error(), "task failed") {
		t.Errorf("c.Err = %v, want default message", failed.Err)
	}
}

func TestSleepHonorsCancellation(t *testing.T) {
	g := &Graph{Tasks: []TaskSpec{{Name: "long", Action: ActionSleep, Duration: "1h"}}}
	tasks := g.NewTasks(BuildOptions{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := tasks["long"].Execute(ctx, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Execute() error = %v, want deadline exceeded", err)
	}
	if time.Since(start) > time.Second {
		t.Error("sleep did not stop on cancellation")
	}
}

func TestExecFailure(t *testing.T) {
	g := &Graph{Tasks: []TaskSpec{
		{Name: "missing", Action: ActionExec, Command: []string{"parallelf-no-such-binary"}},
		{Name: "nonzero", Action: ActionExec, Command: []string{"ls", "/parallelf/does/not/exist"}},
	}}
	tasks := g.NewTasks(BuildOptions{})

	for name, tk := range tasks {
		t.Run(name, func(t *testing.T) {
			if _, err := tk.Execute(context.Background(), nil); err == nil {
				t.Error("Execute() should fail")
			}
		})
	}
}

func TestExecUsesGraphDir(t *testing.T) {
	dir := t.TempDir()
	g := &Graph{
		Path:  dir + "/graph.yaml",
		Tasks: []TaskSpec{{Name: "pwd", Action: ActionExec, Command: []string{"pwd"}}},
	}
	v, err := g.NewTasks(BuildOptions{})["pwd"].Execute(context.Background(), nil)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if !strings.HasSuffix(v.(string), dir[strings.LastIndex(dir, "/"):]) {
		t.Errorf("pwd = %q, want %q", v, dir)
	}
}
