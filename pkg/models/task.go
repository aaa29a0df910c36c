package models

import "time"

// TaskStatus represents the current state of a tracked subtask.
type TaskStatus string

const (
	// TaskStatusPending indicates the task has not been assigned yet.
	TaskStatusPending TaskStatus = "pending"
	// TaskStatusAssigned indicates the task has been handed to a worker.
	TaskStatusAssigned TaskStatus = "assigned"
	// TaskStatusInProgress indicates the worker has started the task.
	TaskStatusInProgress TaskStatus = "in_progress"
	// TaskStatusCompleted indicates the task finished successfully.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusFailed indicates the task failed.
	TaskStatusFailed TaskStatus = "failed"
	// TaskStatusBlocked indicates the worker needs clarification before it can proceed.
	TaskStatusBlocked TaskStatus = "blocked"
)

// Valid returns true if the status is a known value.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusAssigned, TaskStatusInProgress,
		TaskStatusCompleted, TaskStatusFailed, TaskStatusBlocked:
		return true
	default:
		return false
	}
}

// Terminal returns true if no further transitions are allowed from this status.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusFailed, TaskStatusBlocked:
		return true
	default:
		return false
	}
}

// SubTask represents a unit of work produced by decomposition.
// The set of subtasks for a workflow is fixed at decomposition time;
// scheduling uses Dependencies, never ParentID (lineage is informational).
type SubTask struct {
	// ID is the unique identifier for this subtask within a workflow.
	ID string `json:"id"`
	// ParentID is the ID of the parent task in the decomposition tree, if any.
	ParentID string `json:"parent_id,omitempty"`
	// Description is what the worker is asked to do.
	Description string `json:"description"`
	// Dependencies lists subtask IDs that must complete before this one.
	Dependencies []string `json:"dependencies,omitempty"`
	// Domain is the domain tag assigned by the analyzer (e.g. "development").
	Domain string `json:"domain"`
	// Complexity is the estimated complexity tier.
	Complexity Complexity `json:"complexity"`
	// Status is the current state of the subtask.
	Status TaskStatus `json:"status"`
	// CreatedAt is when the subtask was created.
	CreatedAt time.Time `json:"created_at"`
}

// DependsOn returns true if the subtask declares a dependency on the given ID.
func (t *SubTask) DependsOn(id string) bool {
	for _, dep := range t.Dependencies {
		if dep == id {
			return true
		}
	}
	return false
}
