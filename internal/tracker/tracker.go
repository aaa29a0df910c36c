// Package tracker owns the runtime state of every subtask in a workflow.
// It is the single point of truth for task status; no other component
// mutates a tracked task directly.
package tracker

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// ErrUnknownTask indicates an operation referenced a task never added to the
// tracker.
var ErrUnknownTask = errors.New("unknown task")

// ErrInvalidTransition indicates a state change the task lifecycle forbids,
// e.g. completing a task that never started.
var ErrInvalidTransition = errors.New("invalid task state transition")

// ErrDuplicateTask indicates AddTask was called twice for the same ID.
var ErrDuplicateTask = errors.New("task already tracked")

// TrackedTask wraps a SubTask with its runtime state machine:
// Pending -> Assigned -> InProgress -> {Completed | Failed | Blocked}.
// Blocked is reachable only from InProgress. Fields are owned by the Tracker;
// callers receive copies.
type TrackedTask struct {
	// Task is the underlying subtask definition.
	Task *models.SubTask `json:"task"`
	// Status is the current lifecycle state.
	Status models.TaskStatus `json:"status"`
	// WorkerID is the worker the task was assigned to, if any.
	WorkerID string `json:"worker_id,omitempty"`
	// Progress is the completion fraction in [0,1].
	Progress float64 `json:"progress"`
	// Result is the worker output recorded on completion.
	Result any `json:"result,omitempty"`
	// Error is the failure reason recorded on failure.
	Error string `json:"error,omitempty"`
	// Questions are the clarifications requested when the task blocked.
	Questions []string `json:"questions,omitempty"`
	// AssignedAt is when the task was assigned.
	AssignedAt time.Time `json:"assigned_at,omitzero"`
	// StartedAt is when the worker started.
	StartedAt time.Time `json:"started_at,omitzero"`
	// CompletedAt is when the task reached a terminal state.
	CompletedAt time.Time `json:"completed_at,omitzero"`
}

// Stats summarizes tracked task counts by status.
type Stats struct {
	Total      int `json:"total"`
	Pending    int `json:"pending"`
	Assigned   int `json:"assigned"`
	InProgress int `json:"in_progress"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Blocked    int `json:"blocked"`
}

// Tracker holds all TrackedTask entries for one workflow. All methods are
// safe for concurrent use; workers executing in parallel report through the
// same instance.
type Tracker struct {
	mu    sync.RWMutex
	tasks map[string]*TrackedTask
	// order preserves AddTask order for deterministic listings.
	order []string
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{tasks: make(map[string]*TrackedTask)}
}

// AddTask registers a subtask in Pending state. The subtask set is fixed at
// decomposition time, so AddTask rejects duplicates.
func (t *Tracker) AddTask(task *models.SubTask) error {
	if task == nil || task.ID == "" {
		return fmt.Errorf("add task: missing task ID")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.tasks[task.ID]; exists {
		return fmt.Errorf("add task %s: %w", task.ID, ErrDuplicateTask)
	}
	t.tasks[task.ID] = &TrackedTask{
		Task:   task,
		Status: models.TaskStatusPending,
	}
	t.order = append(t.order, task.ID)
	return nil
}

// Assign moves a Pending task to Assigned and records the worker.
func (t *Tracker) Assign(taskID, workerID string) error {
	return t.transition(taskID, models.TaskStatusAssigned, func(tt *TrackedTask) {
		tt.WorkerID = workerID
		tt.AssignedAt = time.Now()
	})
}

// Start moves an Assigned task to InProgress.
func (t *Tracker) Start(taskID string) error {
	return t.transition(taskID, models.TaskStatusInProgress, func(tt *TrackedTask) {
		tt.StartedAt = time.Now()
	})
}

// UpdateProgress records progress for an InProgress task. Values are clamped
// to [0,1].
func (t *Tracker) UpdateProgress(taskID string, progress float64) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tt, ok := t.tasks[taskID]
	if !ok {
		return fmt.Errorf("update progress %s: %w", taskID, ErrUnknownTask)
	}
	if tt.Status != models.TaskStatusInProgress {
		return fmt.Errorf("update progress %s in %s: %w", taskID, tt.Status, ErrInvalidTransition)
	}

	if progress < 0 {
		progress = 0
	}
	if progress > 1 {
		progress = 1
	}
	tt.Progress = progress
	return nil
}

// Complete moves an InProgress task to Completed and records the result.
func (t *Tracker) Complete(taskID string, result any) error {
	return t.transition(taskID, models.TaskStatusCompleted, func(tt *TrackedTask) {
		tt.Result = result
		tt.Progress = 1
		tt.CompletedAt = time.Now()
	})
}

// Fail moves an Assigned or InProgress task to Failed with a reason.
func (t *Tracker) Fail(taskID, reason string) error {
	return t.transition(taskID, models.TaskStatusFailed, func(tt *TrackedTask) {
		tt.Error = reason
		tt.CompletedAt = time.Now()
	})
}

// Block moves an InProgress task to Blocked, recording the worker's
// clarification questions.
func (t *Tracker) Block(taskID string, questions []string) error {
	return t.transition(taskID, models.TaskStatusBlocked, func(tt *TrackedTask) {
		tt.Questions = questions
		tt.CompletedAt = time.Now()
	})
}

// validTransitions maps a target status to the statuses it may come from.
var validTransitions = map[models.TaskStatus][]models.TaskStatus{
	models.TaskStatusAssigned:   {models.TaskStatusPending},
	models.TaskStatusInProgress: {models.TaskStatusAssigned},
	models.TaskStatusCompleted:  {models.TaskStatusInProgress},
	models.TaskStatusFailed:     {models.TaskStatusAssigned, models.TaskStatusInProgress},
	models.TaskStatusBlocked:    {models.TaskStatusInProgress},
}

func (t *Tracker) transition(taskID string, to models.TaskStatus, apply func(*TrackedTask)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	tt, ok := t.tasks[taskID]
	if !ok {
		return fmt.Errorf("transition %s: %w", taskID, ErrUnknownTask)
	}

	allowed := false
	for _, from := range validTransitions[to] {
		if tt.Status == from {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("task %s: %s -> %s: %w", taskID, tt.Status, to, ErrInvalidTransition)
	}

	tt.Status = to
	tt.Task.Status = to
	apply(tt)
	return nil
}

// Get returns a copy of the tracked task, or nil if unknown.
func (t *Tracker) Get(taskID string) *TrackedTask {
	t.mu.RLock()
	defer t.mu.RUnlock()

	tt, ok := t.tasks[taskID]
	if !ok {
		return nil
	}
	cp := *tt
	return &cp
}

// GetReadyTasks returns every Pending task whose entire dependency set is
// Completed, in AddTask order. Tasks with a failed or blocked dependency are
// never returned; the resulting deadlock is a caller-visible condition, not
// auto-resolved here.
func (t *Tracker) GetReadyTasks() []*models.SubTask {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var ready []*models.SubTask
	for _, id := range t.order {
		tt := t.tasks[id]
		if tt.Status != models.TaskStatusPending {
			continue
		}

		satisfied := true
		for _, depID := range tt.Task.Dependencies {
			dep, ok := t.tasks[depID]
			if !ok || dep.Status != models.TaskStatusCompleted {
				satisfied = false
				break
			}
		}
		if satisfied {
			ready = append(ready, tt.Task)
		}
	}
	return ready
}

// OverallProgress is the mean of per-task progress values, 0 with no tasks.
func (t *Tracker) OverallProgress() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if len(t.tasks) == 0 {
		return 0
	}
	sum := 0.0
	for _, tt := range t.tasks {
		sum += tt.Progress
	}
	return sum / float64(len(t.tasks))
}

// Statuses returns every task ID mapped to its current status.
func (t *Tracker) Statuses() map[string]models.TaskStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make(map[string]models.TaskStatus, len(t.tasks))
	for id, tt := range t.tasks {
		out[id] = tt.Status
	}
	return out
}

// Stats returns task counts by status.
func (t *Tracker) Stats() Stats {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := Stats{Total: len(t.tasks)}
	for _, tt := range t.tasks {
		switch tt.Status {
		case models.TaskStatusPending:
			stats.Pending++
		case models.TaskStatusAssigned:
			stats.Assigned++
		case models.TaskStatusInProgress:
			stats.InProgress++
		case models.TaskStatusCompleted:
			stats.Completed++
		case models.TaskStatusFailed:
			stats.Failed++
		case models.TaskStatusBlocked:
			stats.Blocked++
		}
	}
	return stats
}

// Size returns the number of tracked tasks.
func (t *Tracker) Size() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.tasks)
}
