// Package watch reports changes to a set of files, coalescing bursts of
// filesystem events into a single notification.
package watch

import (
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/Iron-Ham/parallelf/internal/event"
)

// Change is one file that changed during a debounce window.
type Change struct {
	Path string
	Op   string // last fsnotify op seen for the file, e.g. "WRITE"
	At   time.Time
}

// Watcher watches individual files. It watches each file's directory rather
// than the file itself so that editors which save by writing a temporary
// file and renaming it over the original are still seen.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	bus      *event.Bus

	// absolute path -> watched
	files map[string]bool
	dirs  map[string]bool

	onChange func([]Change)
	onError  func(error)

	mu       sync.RWMutex
	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// New creates a Watcher that waits for debounce of quiet before reporting.
// Changes are also published on bus as FileChangedEvents when bus is not nil.
func New(debounce time.Duration, bus *event.Bus) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		watcher:  fw,
		debounce: debounce,
		bus:      bus,
		files:    make(map[string]bool),
		dirs:     make(map[string]bool),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// SetChangeCallback sets the function called with each batch of changes.
// It runs on the watch goroutine, so it should return quickly.
func (w *Watcher) SetChangeCallback(cb func([]Change)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onChange = cb
}

// SetErrorCallback sets the function called with watcher errors.
func (w *Watcher) SetErrorCallback(cb func(error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = cb
}

// Add starts watching path. The file must exist.
func (w *Watcher) Add(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(abs); err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	dir := filepath.Dir(abs)
	if !w.dirs[dir] {
		if err := w.watcher.Add(dir); err != nil {
			return err
		}
		w.dirs[dir] = true
	}
	w.files[abs] = true
	return nil
}

// Files returns the watched files, sorted.
func (w *Watcher) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	files := make([]string, 0, len(w.files))
	for f := range w.files {
		files = append(files, f)
	}
	sort.Strings(files)
	return files
}

// Start begins watching in a background goroutine.
func (w *Watcher) Start() {
	go w.watchLoop()
}

// Stop stops the watcher and releases its resources. It is safe to call
// more than once. Use Done to wait for the loop to exit.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		err = w.watcher.Close()
	})
	return err
}

// Done is closed when the watch loop exits.
func (w *Watcher) Done() <-chan struct{} {
	return w.done
}

func (w *Watcher) watchLoop() {
	defer close(w.done)

	debounceTimer := time.NewTimer(0)
	<-debounceTimer.C

	pending := make(map[string]Change)

	for {
		select {
		case <-w.stopCh:
			debounceTimer.Stop()
			return

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if !w.watching(ev.Name) {
				continue
			}
			pending[ev.Name] = Change{Path: ev.Name, Op: opName(ev.Op), At: time.Now()}
			if w.debounce <= 0 {
				w.flush(pending)
				pending = make(map[string]Change)
				continue
			}
			debounceTimer.Reset(w.debounce)

		case <-debounceTimer.C:
			w.flush(pending)
			pending = make(map[string]Change)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.mu.RLock()
			cb := w.onError
			w.mu.RUnlock()
			if cb != nil {
				cb(err)
			}
		}
	}
}

func (w *Watcher) watching(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.files[abs]
}

func (w *Watcher) flush(pending map[string]Change) {
	if len(pending) == 0 {
		return
	}
	changes := make([]Change, 0, len(pending))
	for _, c := range pending {
		changes = append(changes, c)
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })

	if w.bus != nil {
		for _, c := range changes {
			w.bus.Publish(event.NewFileChangedEvent(c.Path, c.Op))
		}
	}

	w.mu.RLock()
	cb := w.onChange
	w.mu.RUnlock()
	if cb != nil {
		cb(changes)
	}
}

// opName picks the most significant op when fsnotify reports several.
func opName(op fsnotify.Op) string {
	switch {
	case op.Has(fsnotify.Remove):
		return fsnotify.Remove.String()
	case op.Has(fsnotify.Rename):
		return fsnotify.Rename.String()
	case op.Has(fsnotify.Create):
		return fsnotify.Create.String()
	default:
		return fsnotify.Write.String()
	}
}
