package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/Iron-Ham/parallelf/internal/event"
	"github.com/Iron-Ham/parallelf/internal/task"
)

// progress prints one line per task state change for --verbose.
type progress struct {
	mu      sync.Mutex
	w       io.Writer
	started map[string]time.Time

	running  lipgloss.Style
	finished lipgloss.Style
	failed   lipgloss.Style
	skipped  lipgloss.Style
}

func newProgress(w io.Writer, color bool) *progress {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return &progress{
		w:        w,
		started:  make(map[string]time.Time),
		running:  r.NewStyle().Foreground(lipgloss.Color("#60A5FA")),
		finished: r.NewStyle().Foreground(lipgloss.Color("#10B981")),
		failed:   r.NewStyle().Foreground(lipgloss.Color("#F87171")),
		skipped:  r.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
	}
}

func (p *progress) subscribe(bus *event.Bus) string {
	return bus.Subscribe(event.TypeTaskStateChanged, func(e event.Event) {
		ev := e.(event.TaskStateChangedEvent)
		p.print(ev.TaskID, ev.To, ev.Timestamp())
	})
}

func (p *progress) print(id string, to task.State, at time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch to {
	case task.StateRunning:
		p.started[id] = at
		fmt.Fprintf(p.w, "%s %s\n", p.running.Render("▶"), id)
	case task.StateFinished:
		fmt.Fprintf(p.w, "%s %s %s\n", p.finished.Render("✓"), id, p.since(id, at))
	case task.StateFailed:
		fmt.Fprintf(p.w, "%s %s %s\n", p.failed.Render("✗"), id, p.since(id, at))
	case task.StateSkipped:
		fmt.Fprintf(p.w, "%s %s skipped\n", p.skipped.Render("-"), id)
	}
}

func (p *progress) since(id string, at time.Time) string {
	start, ok := p.started[id]
	if !ok {
		return ""
	}
	delete(p.started, id)
	return "(" + elapsed(at.Sub(start)) + ")"
}
