package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	finishedColor = lipgloss.Color("#10B981") // Green
	failedColor   = lipgloss.Color("#F87171") // Red
	skippedColor  = lipgloss.Color("#F59E0B") // Amber
	mutedColor    = lipgloss.Color("#9CA3AF") // Gray
	titleColor    = lipgloss.Color("#A78BFA") // Purple
)

const (
	ruleWidth    = 50
	maxNameWidth = 32
	maxErrWidth  = 72
)

// RenderOptions controls terminal rendering.
type RenderOptions struct {
	// Color enables ANSI styling.
	Color bool

	// Title is printed above the outcome table. Defaults to "RUN SUMMARY".
	Title string

	// Stats appends the run statistics line.
	Stats bool
}

type palette struct {
	title    lipgloss.Style
	muted    lipgloss.Style
	finished lipgloss.Style
	failed   lipgloss.Style
	skipped  lipgloss.Style
}

func newPalette(color bool) palette {
	r := lipgloss.NewRenderer(io.Discard)
	if color {
		r.SetColorProfile(termenv.TrueColor)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return palette{
		title:    r.NewStyle().Bold(true).Foreground(titleColor),
		muted:    r.NewStyle().Foreground(mutedColor),
		finished: r.NewStyle().Foreground(finishedColor),
		failed:   r.NewStyle().Foreground(failedColor).Bold(true),
		skipped:  r.NewStyle().Foreground(skippedColor),
	}
}

func (p palette) status(s Status) (lipgloss.Style, string) {
	switch s {
	case StatusFinished:
		return p.finished, "✓"
	case StatusFailed:
		return p.failed, "✗"
	default:
		return p.skipped, "-"
	}
}

// Render formats a report as a human-readable table.
func Render(r *Report, opts RenderOptions) string {
	p := newPalette(opts.Color)
	title := opts.Title
	if title == "" {
		title = "RUN SUMMARY"
	}

	nameWidth := 4
	for _, o := range r.Outcomes {
		if w := lipgloss.Width(o.Name); w > nameWidth {
			nameWidth = w
		}
	}
	if nameWidth > maxNameWidth {
		nameWidth = maxNameWidth
	}
	nameCol := lipgloss.NewStyle().Width(nameWidth + 2)
	statusCol := lipgloss.NewStyle().Width(10)
	durCol := lipgloss.NewStyle().Width(10)

	var b strings.Builder
	b.WriteString(p.title.Render(title))
	b.WriteString("\n")
	b.WriteString(p.muted.Render(strings.Repeat("─", ruleWidth)))
	b.WriteString("\n")

	if len(r.Outcomes) == 0 {
		b.WriteString(p.muted.Render("No tasks were scheduled."))
		b.WriteString("\n")
	}

	for _, o := range r.Outcomes {
		style, mark := p.status(o.Status)
		dur := ""
		if o.Ran() {
			dur = o.Duration().Round(time.Millisecond).String()
		}
		line := style.Render(mark) + " " +
			nameCol.Render(truncateCells(o.Name, nameWidth)) +
			style.Render(statusCol.Render(o.Status.String())) +
			p.muted.Render(durCol.Render(dur))
		if o.Err != nil {
			line += p.muted.Render(truncate(detail(o), maxErrWidth))
		}
		b.WriteString(strings.TrimRight(line, " "))
		b.WriteString("\n")
	}

	b.WriteString(p.muted.Render(strings.Repeat("─", ruleWidth)))
	b.WriteString("\n")
	c := r.Counts()
	summary := fmt.Sprintf("%d tasks: %d finished, %d failed, %d skipped",
		c.Total, c.Finished, c.Failed, c.Skipped)
	if r.OK() {
		b.WriteString(p.finished.Render(summary))
	} else {
		b.WriteString(p.failed.Render(summary))
	}
	b.WriteString("\n")

	if opts.Stats {
		b.WriteString(p.muted.Render(r.Stats().String()))
		b.WriteString("\n")
	}
	return b.String()
}

// detail is the one-line reason shown next to a failed or skipped task.
func detail(o Outcome) string {
	if o.Status == StatusSkipped && len(o.Causes) > 0 {
		return "after " + strings.Join(o.Causes, ", ") + " failed"
	}
	msg := o.Err.Error()
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return msg
}
