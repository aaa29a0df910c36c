package audit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/orchid/internal/bus"
	"github.com/ShayCichocki/orchid/pkg/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "audit.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpen_MigratesIdempotently(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.db")

	store, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() error = %v", err)
	}
	store.Close()

	// Reopening must not re-apply migrations.
	store, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() error = %v", err)
	}
	store.Close()
}

func TestRecordMessage_RoundTrip(t *testing.T) {
	store := openTestStore(t)

	msg := models.NewMessage(models.MessageTaskCompleted, "orchestrator", map[string]any{
		"task_id":   "task-1",
		"worker_id": "claude",
	})
	if err := store.RecordMessage(msg); err != nil {
		t.Fatalf("RecordMessage() error = %v", err)
	}

	records, err := store.Messages("", 10)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.ID != msg.ID {
		t.Errorf("ID = %s, want %s", rec.ID, msg.ID)
	}
	if rec.Type != string(models.MessageTaskCompleted) {
		t.Errorf("Type = %s, want task_completed", rec.Type)
	}
	if rec.TaskID != "task-1" {
		t.Errorf("TaskID = %s, want task-1", rec.TaskID)
	}
}

func TestMessages_FilterByTask(t *testing.T) {
	store := openTestStore(t)

	for _, taskID := range []string{"task-1", "task-2", "task-1"} {
		msg := models.NewMessage(models.MessageTaskStarted, "orchestrator", map[string]any{"task_id": taskID})
		if err := store.RecordMessage(msg); err != nil {
			t.Fatalf("RecordMessage() error = %v", err)
		}
	}

	records, err := store.Messages("task-1", 10)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2 for task-1", len(records))
	}
}

func TestRecordMessage_DuplicateIDIgnored(t *testing.T) {
	store := openTestStore(t)

	msg := models.NewMessage(models.MessageTaskStarted, "orchestrator", nil)
	if err := store.RecordMessage(msg); err != nil {
		t.Fatalf("first RecordMessage() error = %v", err)
	}
	if err := store.RecordMessage(msg); err != nil {
		t.Fatalf("duplicate RecordMessage() error = %v", err)
	}

	records, err := store.Messages("", 10)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1 after duplicate insert", len(records))
	}
}

func TestRecordWorkflow_RoundTrip(t *testing.T) {
	store := openTestStore(t)

	result := &models.WorkflowResult{
		WorkflowID:       "wf-1",
		State:            models.WorkflowCompleted,
		Degraded:         true,
		TotalSteps:       3,
		Parallelized:     true,
		EstimatedMinutes: 45,
		OverallProgress:  0.75,
		StartedAt:        time.Now().Add(-time.Minute),
		FinishedAt:       time.Now(),
	}
	if err := store.RecordWorkflow(result); err != nil {
		t.Fatalf("RecordWorkflow() error = %v", err)
	}

	records, err := store.Workflows()
	if err != nil {
		t.Fatalf("Workflows() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("len(records) = %d, want 1", len(records))
	}
	rec := records[0]
	if rec.ID != "wf-1" || rec.State != "completed" {
		t.Errorf("record = %+v, want wf-1/completed", rec)
	}
	if !rec.Degraded || !rec.Parallelized {
		t.Error("degraded/parallelized flags lost in round trip")
	}
	if rec.TotalSteps != 3 || rec.EstimatedMinutes != 45 {
		t.Errorf("numeric fields lost: %+v", rec)
	}
}

func TestRecordWorkflow_MissingID(t *testing.T) {
	store := openTestStore(t)
	if err := store.RecordWorkflow(&models.WorkflowResult{}); err == nil {
		t.Error("RecordWorkflow() error = nil, want error for missing ID")
	}
}

func TestAttach_RecordsBusTraffic(t *testing.T) {
	store := openTestStore(t)
	b := bus.New()
	defer b.Close()

	store.Attach(b)
	b.Publish(models.NewMessage(models.MessageTaskAssigned, "orchestrator", map[string]any{"task_id": "task-1"}))
	b.Publish(models.NewMessage(models.MessageSystemEvent, "orchestrator", map[string]any{"event": "workflow_started"}))
	b.Flush()

	records, err := store.Messages("", 10)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d, want 2", len(records))
	}

	store.Detach(b)
	b.Publish(models.NewMessage(models.MessageTaskAssigned, "orchestrator", nil))
	b.Flush()

	records, err = store.Messages("", 10)
	if err != nil {
		t.Fatalf("Messages() error = %v", err)
	}
	if len(records) != 2 {
		t.Errorf("len(records) = %d after Detach, want still 2", len(records))
	}
}
