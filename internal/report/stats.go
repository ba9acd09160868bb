package report

import (
	"fmt"
	"sort"
	"time"
)

// Stats summarizes how busy a drain kept its goroutines.
type Stats struct {
	// Busy is the sum of every payload's run time.
	Busy time.Duration `json:"busy"`

	// Wall is the time from the start of the drain until it settled.
	Wall time.Duration `json:"wall"`

	// Parallelism is Busy / Wall: 1.0 means the work was effectively
	// sequential, higher means payloads overlapped.
	Parallelism float64 `json:"parallelism"`

	// Peak is the largest number of payloads that were running at once.
	Peak int `json:"peak"`
}

// Stats computes run statistics from the outcome timings.
func (r *Report) Stats() Stats {
	var s Stats
	if !r.Started.IsZero() && r.Settled.After(r.Started) {
		s.Wall = r.Settled.Sub(r.Started)
	}

	type edge struct {
		at    time.Time
		delta int
	}
	var edges []edge
	for _, o := range r.Outcomes {
		d := o.Duration()
		if d <= 0 && !o.Ran() {
			continue
		}
		s.Busy += d
		edges = append(edges, edge{o.StartedAt, 1}, edge{o.SettledAt, -1})
	}

	// Settles sort before starts at the same instant so back-to-back tasks
	// do not count as overlapping.
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].at.Equal(edges[j].at) {
			return edges[i].delta < edges[j].delta
		}
		return edges[i].at.Before(edges[j].at)
	})
	running := 0
	for _, e := range edges {
		running += e.delta
		if running > s.Peak {
			s.Peak = running
		}
	}

	if s.Wall > 0 {
		s.Parallelism = float64(s.Busy) / float64(s.Wall)
	}
	return s
}

// String returns a one-line summary.
func (s Stats) String() string {
	return fmt.Sprintf("busy %s, wall %s, parallelism %.2fx, peak %d",
		s.Busy.Round(time.Millisecond), s.Wall.Round(time.Millisecond), s.Parallelism, s.Peak)
}
