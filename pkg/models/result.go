package models

import (
	"time"

	"github.com/google/uuid"
)

// WorkerStatus is the outcome reported by a worker for a single task.
type WorkerStatus string

const (
	// WorkerStatusCompleted indicates the worker finished the task.
	WorkerStatusCompleted WorkerStatus = "completed"
	// WorkerStatusClarificationNeeded indicates the worker cannot proceed
	// without answers to its questions.
	WorkerStatusClarificationNeeded WorkerStatus = "clarification_needed"
	// WorkerStatusError indicates the worker failed.
	WorkerStatusError WorkerStatus = "error"
)

// WorkerResult is the structured outcome a worker returns for one task.
// The coordinator never inspects the internal structure of Output.
type WorkerResult struct {
	// Status is the outcome kind.
	Status WorkerStatus `json:"status"`
	// Output is the worker's product, opaque to the coordinator.
	Output any `json:"output,omitempty"`
	// Metadata carries worker-specific details (model, tokens, timings).
	Metadata map[string]any `json:"metadata,omitempty"`
	// Questions holds clarification questions when Status is clarification_needed.
	Questions []string `json:"questions,omitempty"`
	// Message holds the error description when Status is error.
	Message string `json:"message,omitempty"`
}

// Result records one worker output for one task. Owned by the result
// aggregator; several results may exist per task across dispatches.
type Result struct {
	// ID is the unique result identifier.
	ID string `json:"id"`
	// TaskID is the subtask this result belongs to.
	TaskID string `json:"task_id"`
	// WorkerID identifies the worker that produced the output.
	WorkerID string `json:"worker_id"`
	// Output is the worker's product, opaque to the coordinator.
	Output any `json:"output,omitempty"`
	// Metadata carries worker-specific details.
	Metadata map[string]any `json:"metadata,omitempty"`
	// Timestamp is when the result was recorded.
	Timestamp time.Time `json:"timestamp"`
}

// NewResult constructs a Result with a fresh ID and timestamp.
func NewResult(taskID, workerID string, output any, metadata map[string]any) Result {
	return Result{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		WorkerID:  workerID,
		Output:    output,
		Metadata:  metadata,
		Timestamp: time.Now(),
	}
}

// WorkflowState is the lifecycle state of a whole workflow run.
type WorkflowState string

const (
	// WorkflowIdle means no workflow has started.
	WorkflowIdle WorkflowState = "idle"
	// WorkflowPlanning means analysis, decomposition, and planning are running.
	WorkflowPlanning WorkflowState = "planning"
	// WorkflowExecuting means execution steps are being dispatched.
	WorkflowExecuting WorkflowState = "executing"
	// WorkflowCompleted means every step finished.
	WorkflowCompleted WorkflowState = "completed"
	// WorkflowFailed means planning or execution aborted.
	WorkflowFailed WorkflowState = "failed"
)

// WorkflowResult is the aggregated outcome of one orchestrated workflow.
type WorkflowResult struct {
	// WorkflowID is the unique identifier of the run.
	WorkflowID string `json:"workflow_id"`
	// State is the final workflow state.
	State WorkflowState `json:"state"`
	// Degraded is true when at least one task failed or blocked.
	Degraded bool `json:"degraded"`
	// TotalSteps is the number of execution steps in the plan.
	TotalSteps int `json:"total_steps"`
	// Parallelized is true when the plan contained at least one parallel step.
	Parallelized bool `json:"parallelized"`
	// CriticalPath is the id sequence of the longest weighted dependency chain.
	CriticalPath []string `json:"critical_path,omitempty"`
	// EstimatedMinutes is the planner's summed duration estimate.
	EstimatedMinutes int `json:"estimated_minutes"`
	// OverallProgress is the mean per-task progress in [0,1].
	OverallProgress float64 `json:"overall_progress"`
	// TaskStatuses maps each subtask ID to its final status.
	TaskStatuses map[string]TaskStatus `json:"task_statuses"`
	// Results holds every recorded worker result, ordered by timestamp.
	Results []Result `json:"results,omitempty"`
	// StartedAt is when execution began.
	StartedAt time.Time `json:"started_at"`
	// FinishedAt is when the workflow settled.
	FinishedAt time.Time `json:"finished_at"`
}
