package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Iron-Ham/parallelf/internal/errors"
)

// FileName is the name of the exported report inside the report directory.
const FileName = "report.json"

// Document is the serializable form of a Report. Payload results that
// cannot be encoded as JSON are stored as their fmt representation.
type Document struct {
	Started  time.Time         `json:"started"`
	Settled  time.Time         `json:"settled"`
	OK       bool              `json:"ok"`
	Counts   Counts            `json:"counts"`
	Stats    Stats             `json:"stats"`
	Outcomes []OutcomeDocument `json:"outcomes"`
}

// OutcomeDocument is the serializable form of an Outcome.
type OutcomeDocument struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Status     Status          `json:"status"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	Causes     []string        `json:"causes,omitempty"`
	StartedAt  *time.Time      `json:"started_at,omitempty"`
	SettledAt  *time.Time      `json:"settled_at,omitempty"`
	DurationMS int64           `json:"duration_ms"`
}

// Document converts the report into its serializable form.
func (r *Report) Document() Document {
	doc := Document{
		Started:  r.Started,
		Settled:  r.Settled,
		OK:       r.OK(),
		Counts:   r.Counts(),
		Stats:    r.Stats(),
		Outcomes: make([]OutcomeDocument, 0, len(r.Outcomes)),
	}
	for _, o := range r.Outcomes {
		od := OutcomeDocument{
			ID:         o.ID,
			Name:       o.Name,
			Status:     o.Status,
			Result:     encodeResult(o.Result),
			Causes:     o.Causes,
			DurationMS: o.Duration().Milliseconds(),
		}
		if o.Err != nil {
			od.Error = o.Err.Error()
		}
		if !o.StartedAt.IsZero() {
			t := o.StartedAt
			od.StartedAt = &t
		}
		if !o.SettledAt.IsZero() {
			t := o.SettledAt
			od.SettledAt = &t
		}
		doc.Outcomes = append(doc.Outcomes, od)
	}
	return doc
}

func encodeResult(v any) json.RawMessage {
	if v == nil {
		return nil
	}
	if _, empty := v.(struct{}); empty {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(fmt.Sprint(v))
	}
	return data
}

// MarshalJSON encodes the report as a Document.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}

// Save writes the report to report.json in dir. The write is atomic: data
// is written to a temporary file first, then renamed into place. A file
// lock is held during the operation so concurrent runs sharing a report
// directory do not interleave.
func Save(dir string, r *Report) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create report directory: %w", err)
	}

	fl := NewFileLock(dir)
	if err := fl.Lock(); err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := json.MarshalIndent(r.Document(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	target := filepath.Join(dir, FileName)
	tmp := target + ".tmp"

	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}

	if err := os.Rename(tmp, target); err != nil {
		_ = os.Remove(tmp) // best-effort cleanup
		return fmt.Errorf("rename temp file: %w", err)
	}

	return nil
}

// Load reads a previously saved report document from dir.
func Load(dir string) (*Document, error) {
	fl := NewFileLock(dir)
	if err := fl.Lock(); err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	defer func() { _ = fl.Unlock() }()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	if doc.Outcomes == nil {
		doc.Outcomes = []OutcomeDocument{}
	}
	return &doc, nil
}

// Report rebuilds a Report from a saved document so it can be rendered
// again. Results come back as their JSON text and errors as plain messages.
func (d *Document) Report() *Report {
	r := &Report{
		Outcomes: make([]Outcome, 0, len(d.Outcomes)),
		Started:  d.Started,
		Settled:  d.Settled,
	}
	for _, od := range d.Outcomes {
		o := Outcome{
			ID:     od.ID,
			Name:   od.Name,
			Status: od.Status,
			Causes: od.Causes,
		}
		if len(od.Result) > 0 {
			o.Result = string(od.Result)
		}
		if od.Error != "" {
			o.Err = errors.New(od.Error)
		}
		if od.StartedAt != nil {
			o.StartedAt = *od.StartedAt
		}
		if od.SettledAt != nil {
			o.SettledAt = *od.SettledAt
		}
		r.Outcomes = append(r.Outcomes, o)
	}
	return r
}
