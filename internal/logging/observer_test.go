package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/Iron-Ham/parallelf/internal/task"
)

func TestTaskObserver(t *testing.T) {
	tests := []struct {
		from, to  task.State
		wantLevel string
		wantMsg   string
	}{
		{task.StateWaiting, task.StateRunning, "DEBUG", "task started"},
		{task.StateRunning, task.StateFinished, "INFO", "task finished"},
		{task.StateRunning, task.StateFailed, "WARN", "task failed"},
		{task.StateWaiting, task.StateSkipped, "WARN", "task skipped"},
	}

	for _, tt := range tests {
		t.Run(string(tt.to), func(t *testing.T) {
			var buf bytes.Buffer
			obs := NewTaskObserver(NewWriterLogger(&buf, LevelDebug, FormatJSON))
			obs.OnStateChange("build", tt.from, tt.to)

			recs := parseRecords(t, buf.String())
			if len(recs) != 1 {
				t.Fatalf("got %d records, want 1", len(recs))
			}
			if recs[0]["level"] != tt.wantLevel {
				t.Errorf("level = %v, want %s", recs[0]["level"], tt.wantLevel)
			}
			if recs[0]["msg"] != tt.wantMsg {
				t.Errorf("msg = %v, want %s", recs[0]["msg"], tt.wantMsg)
			}
			if recs[0]["task_id"] != "build" {
				t.Errorf("task_id = %v, want build", recs[0]["task_id"])
			}
		})
	}
}

func TestTaskObserver_RealTask(t *testing.T) {
	var buf bytes.Buffer
	obs := NewTaskObserver(NewWriterLogger(&buf, LevelDebug, FormatJSON))

	tk := task.New("greet", func(_ context.Context) (string, error) { return "hi", nil })
	if _, err := tk.Execute(context.Background(), obs); err != nil {
		t.Fatal(err)
	}
	if recs := parseRecords(t, buf.String()); len(recs) != 2 {
		t.Errorf("got %d records, want 2", len(recs))
	}
}

func TestTaskObserver_NilLogger(t *testing.T) {
	NewTaskObserver(nil).OnStateChange("x", task.StateWaiting, task.StateRunning)
}
