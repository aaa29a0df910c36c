package tracker

import (
	"errors"
	"sync"
	"testing"

	"github.com/ShayCichocki/orchid/pkg/models"
)

func task(id string, deps ...string) *models.SubTask {
	return &models.SubTask{
		ID:           id,
		Description:  "task " + id,
		Dependencies: deps,
		Complexity:   models.ComplexityMedium,
		Status:       models.TaskStatusPending,
	}
}

func addAll(t *testing.T, tr *Tracker, tasks ...*models.SubTask) {
	t.Helper()
	for _, task := range tasks {
		if err := tr.AddTask(task); err != nil {
			t.Fatalf("AddTask(%s) error = %v", task.ID, err)
		}
	}
}

func runToCompletion(t *testing.T, tr *Tracker, taskID string) {
	t.Helper()
	if err := tr.Assign(taskID, "w1"); err != nil {
		t.Fatalf("Assign(%s) error = %v", taskID, err)
	}
	if err := tr.Start(taskID); err != nil {
		t.Fatalf("Start(%s) error = %v", taskID, err)
	}
	if err := tr.Complete(taskID, "done"); err != nil {
		t.Fatalf("Complete(%s) error = %v", taskID, err)
	}
}

func TestLifecycle_HappyPath(t *testing.T) {
	tr := New()
	addAll(t, tr, task("t1"))

	runToCompletion(t, tr, "t1")

	got := tr.Get("t1")
	if got.Status != models.TaskStatusCompleted {
		t.Errorf("status = %s, want completed", got.Status)
	}
	if got.Progress != 1 {
		t.Errorf("progress = %f, want 1", got.Progress)
	}
	if got.Result != "done" {
		t.Errorf("result = %v, want done", got.Result)
	}
	if got.AssignedAt.IsZero() || got.StartedAt.IsZero() || got.CompletedAt.IsZero() {
		t.Error("expected all transition timestamps to be stamped")
	}
}

func TestTransition_Guards(t *testing.T) {
	tests := []struct {
		name string
		run  func(tr *Tracker) error
	}{
		{"start before assign", func(tr *Tracker) error {
			return tr.Start("t1")
		}},
		{"complete before start", func(tr *Tracker) error {
			_ = tr.Assign("t1", "w1")
			return tr.Complete("t1", nil)
		}},
		{"block from pending", func(tr *Tracker) error {
			return tr.Block("t1", nil)
		}},
		{"block from assigned", func(tr *Tracker) error {
			_ = tr.Assign("t1", "w1")
			return tr.Block("t1", nil)
		}},
		{"complete twice", func(tr *Tracker) error {
			_ = tr.Assign("t1", "w1")
			_ = tr.Start("t1")
			_ = tr.Complete("t1", nil)
			return tr.Complete("t1", nil)
		}},
		{"reopen completed task", func(tr *Tracker) error {
			_ = tr.Assign("t1", "w1")
			_ = tr.Start("t1")
			_ = tr.Complete("t1", nil)
			return tr.Start("t1")
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := New()
			addAll(t, tr, task("t1"))
			if err := tt.run(tr); !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestFail_FromAssignedAndInProgress(t *testing.T) {
	tr := New()
	addAll(t, tr, task("t1"), task("t2"))

	_ = tr.Assign("t1", "w1")
	if err := tr.Fail("t1", "dispatch error"); err != nil {
		t.Errorf("Fail from assigned error = %v", err)
	}

	_ = tr.Assign("t2", "w1")
	_ = tr.Start("t2")
	if err := tr.Fail("t2", "worker error"); err != nil {
		t.Errorf("Fail from in_progress error = %v", err)
	}

	if got := tr.Get("t2").Error; got != "worker error" {
		t.Errorf("error reason = %q, want %q", got, "worker error")
	}
}

func TestUnknownAndDuplicateTasks(t *testing.T) {
	tr := New()
	addAll(t, tr, task("t1"))

	if err := tr.Assign("ghost", "w1"); !errors.Is(err, ErrUnknownTask) {
		t.Errorf("Assign(ghost) error = %v, want ErrUnknownTask", err)
	}
	if err := tr.AddTask(task("t1")); !errors.Is(err, ErrDuplicateTask) {
		t.Errorf("duplicate AddTask error = %v, want ErrDuplicateTask", err)
	}
}

func TestGetReadyTasks_DependencyGating(t *testing.T) {
	tr := New()
	addAll(t, tr,
		task("t1"),
		task("t2", "t1"),
		task("t3", "t1"),
		task("t4", "t2", "t3"),
	)

	ready := readyIDs(tr)
	if len(ready) != 1 || ready[0] != "t1" {
		t.Fatalf("initial ready = %v, want [t1]", ready)
	}

	runToCompletion(t, tr, "t1")
	ready = readyIDs(tr)
	if len(ready) != 2 || ready[0] != "t2" || ready[1] != "t3" {
		t.Fatalf("ready after t1 = %v, want [t2 t3]", ready)
	}

	runToCompletion(t, tr, "t2")
	ready = readyIDs(tr)
	if len(ready) != 1 || ready[0] != "t3" {
		t.Fatalf("ready after t2 = %v, want [t3]", ready)
	}

	runToCompletion(t, tr, "t3")
	ready = readyIDs(tr)
	if len(ready) != 1 || ready[0] != "t4" {
		t.Fatalf("ready after t3 = %v, want [t4]", ready)
	}
}

func TestGetReadyTasks_FailedDependencyBlocksDependents(t *testing.T) {
	tr := New()
	addAll(t, tr,
		task("t1"),
		task("t2", "t1"),
	)

	_ = tr.Assign("t1", "w1")
	_ = tr.Start("t1")
	_ = tr.Fail("t1", "boom")

	// t2 must never become ready; the resulting deadlock is the caller's to
	// observe.
	if ready := readyIDs(tr); len(ready) != 0 {
		t.Errorf("ready after failed dependency = %v, want none", ready)
	}
}

func TestGetReadyTasks_BlockedDependencyBlocksDependents(t *testing.T) {
	tr := New()
	addAll(t, tr,
		task("t1"),
		task("t2", "t1"),
	)

	_ = tr.Assign("t1", "w1")
	_ = tr.Start("t1")
	_ = tr.Block("t1", []string{"which environment?"})

	if ready := readyIDs(tr); len(ready) != 0 {
		t.Errorf("ready after blocked dependency = %v, want none", ready)
	}
	if got := tr.Get("t1").Questions; len(got) != 1 {
		t.Errorf("questions = %v, want 1 entry", got)
	}
}

func TestOverallProgress(t *testing.T) {
	tr := New()
	if got := tr.OverallProgress(); got != 0 {
		t.Errorf("empty tracker progress = %f, want 0", got)
	}

	addAll(t, tr, task("t1"), task("t2"))
	_ = tr.Assign("t1", "w1")
	_ = tr.Start("t1")
	_ = tr.UpdateProgress("t1", 0.5)

	if got := tr.OverallProgress(); got != 0.25 {
		t.Errorf("OverallProgress() = %f, want 0.25", got)
	}

	_ = tr.Complete("t1", nil)
	if got := tr.OverallProgress(); got != 0.5 {
		t.Errorf("OverallProgress() = %f, want 0.5", got)
	}
}

func TestUpdateProgress_Clamped(t *testing.T) {
	tr := New()
	addAll(t, tr, task("t1"))
	_ = tr.Assign("t1", "w1")
	_ = tr.Start("t1")

	_ = tr.UpdateProgress("t1", 1.5)
	if got := tr.Get("t1").Progress; got != 1 {
		t.Errorf("progress = %f, want clamped to 1", got)
	}
	_ = tr.UpdateProgress("t1", -0.5)
	if got := tr.Get("t1").Progress; got != 0 {
		t.Errorf("progress = %f, want clamped to 0", got)
	}
}

func TestStats(t *testing.T) {
	tr := New()
	addAll(t, tr, task("t1"), task("t2"), task("t3"))

	runToCompletion(t, tr, "t1")
	_ = tr.Assign("t2", "w1")
	_ = tr.Start("t2")
	_ = tr.Fail("t2", "boom")

	stats := tr.Stats()
	if stats.Total != 3 || stats.Completed != 1 || stats.Failed != 1 || stats.Pending != 1 {
		t.Errorf("Stats() = %+v, want total 3, completed 1, failed 1, pending 1", stats)
	}
}

func TestConcurrentTransitions(t *testing.T) {
	tr := New()
	const n = 50
	for i := 0; i < n; i++ {
		addAll(t, tr, task(taskID(i)))
	}

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			_ = tr.Assign(id, "w1")
			_ = tr.Start(id)
			_ = tr.UpdateProgress(id, 0.5)
			_ = tr.Complete(id, nil)
		}(taskID(i))
	}
	wg.Wait()

	stats := tr.Stats()
	if stats.Completed != n {
		t.Errorf("Completed = %d, want %d", stats.Completed, n)
	}
	if got := tr.OverallProgress(); got != 1 {
		t.Errorf("OverallProgress() = %f, want 1", got)
	}
}

func taskID(i int) string {
	return "t" + string(rune('a'+i%26)) + string(rune('0'+i/26))
}

func readyIDs(tr *Tracker) []string {
	var ids []string
	for _, task := range tr.GetReadyTasks() {
		ids = append(ids, task.ID)
	}
	return ids
}
