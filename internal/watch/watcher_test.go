package watch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Iron-Ham/parallelf/internal/event"
)

func newTestWatcher(t *testing.T, debounce time.Duration, bus *event.Bus) *Watcher {
	t.Helper()
	w, err := New(debounce, bus)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	writeFile(t, path, "tasks: []\n")

	w := newTestWatcher(t, 50*time.Millisecond, nil)
	if err := w.Add(path); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	got := make(chan []Change, 4)
	w.SetChangeCallback(func(c []Change) { got <- c })
	w.Start()

	// a burst of writes is coalesced into one batch
	for i := 0; i < 5; i++ {
		writeFile(t, path, "tasks: []\n# edit\n")
	}

	select {
	case changes := <-got:
		if len(changes) != 1 {
			t.Fatalf("got %d changes, want 1", len(changes))
		}
		if filepath.Base(changes[0].Path) != "graph.yaml" {
			t.Errorf("Path = %q", changes[0].Path)
		}
		if changes[0].Op == "" {
			t.Error("Op should be set")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	select {
	case extra := <-got:
		t.Errorf("burst reported more than once: %v", extra)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_IgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.yaml")
	other := filepath.Join(dir, "notes.txt")
	writeFile(t, path, "x")

	w := newTestWatcher(t, 0, nil)
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}
	got := make(chan []Change, 4)
	w.SetChangeCallback(func(c []Change) { got <- c })
	w.Start()

	writeFile(t, other, "unrelated")

	select {
	case c := <-got:
		t.Errorf("unexpected change for sibling file: %v", c)
	case <-time.After(200 * time.Millisecond):
	}
}

func TestWatcher_PublishesEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "graph.hcl")
	writeFile(t, path, "")

	bus := event.NewBus()
	var mu sync.Mutex
	var paths []string
	seen := make(chan struct{}, 1)
	bus.Subscribe(event.TypeFileChanged, func(e event.Event) {
		fc := e.(event.FileChangedEvent)
		mu.Lock()
		paths = append(paths, fc.Path)
		mu.Unlock()
		select {
		case seen <- struct{}{}:
		default:
		}
	})

	w := newTestWatcher(t, 20*time.Millisecond, bus)
	if err := w.Add(path); err != nil {
		t.Fatal(err)
	}
	w.Start()
	writeFile(t, path, "task \"a\" {}\n")

	select {
	case <-seen:
	case <-time.After(5 * time.Second):
		t.Fatal("no FileChangedEvent published")
	}
	mu.Lock()
	defer mu.Unlock()
	if filepath.Base(paths[0]) != "graph.hcl" {
		t.Errorf("event path = %q", paths[0])
	}
}

func TestWatcher_Add(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.yaml")
	b := filepath.Join(dir, "b.yaml")
	writeFile(t, a, "")
	writeFile(t, b, "")

	w := newTestWatcher(t, 0, nil)
	if err := w.Add(b); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(a); err != nil {
		t.Fatal(err)
	}
	if err := w.Add(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Add() of a missing file should fail")
	}

	files := w.Files()
	if len(files) != 2 || filepath.Base(files[0]) != "a.yaml" {
		t.Errorf("Files() = %v", files)
	}
	if len(w.dirs) != 1 {
		t.Errorf("watched dirs = %d, want 1", len(w.dirs))
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := New(0, nil)
	if err != nil {
		t.Fatal(err)
	}
	w.Start()
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() = %v", err)
	}
	select {
	case <-w.Done():
	case <-time.After(time.Second):
		t.Error("watch loop did not exit")
	}
}
