package orchestrator

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ShayCichocki/orchid/internal/aggregator"
	"github.com/ShayCichocki/orchid/internal/bus"
	"github.com/ShayCichocki/orchid/internal/tracker"
	"github.com/ShayCichocki/orchid/pkg/models"
)

// ResultFormat selects the rendering of GetResults.
type ResultFormat string

const (
	// FormatSummary renders one line per task.
	FormatSummary ResultFormat = "summary"
	// FormatDetailed renders every result with worker and timestamp.
	FormatDetailed ResultFormat = "detailed"
	// FormatJSON renders the raw summaries as indented JSON.
	FormatJSON ResultFormat = "json"
)

// Progress is a point-in-time snapshot of a running or finished workflow.
type Progress struct {
	// WorkflowID identifies the run the snapshot belongs to.
	WorkflowID string `json:"workflow_id"`
	// State is the workflow lifecycle state at snapshot time.
	State models.WorkflowState `json:"state"`
	// OverallProgress is the mean per-task progress in [0,1].
	OverallProgress float64 `json:"overall_progress"`
	// Tasks holds per-status task counts.
	Tasks tracker.Stats `json:"tasks"`
	// Results holds aggregator counters.
	Results aggregator.Stats `json:"results"`
	// Bus holds event bus counters.
	Bus bus.Stats `json:"bus"`
}

// GetProgress reports the current workflow snapshot. Safe to call from
// another goroutine while ExecuteTask runs.
func (o *Orchestrator) GetProgress() Progress {
	tasks, results := o.snapshot()
	return Progress{
		WorkflowID:      o.WorkflowID(),
		State:           o.State(),
		OverallProgress: tasks.OverallProgress(),
		Tasks:           tasks.Stats(),
		Results:         results.Stats(),
		Bus:             o.events.Stats(),
	}
}

// GetTaskStatus returns a copy of one task's tracked state, or an error for
// an unknown ID.
func (o *Orchestrator) GetTaskStatus(taskID string) (*tracker.TrackedTask, error) {
	tasks, _ := o.snapshot()
	tracked := tasks.Get(taskID)
	if tracked == nil {
		return nil, fmt.Errorf("get task status %s: %w", taskID, tracker.ErrUnknownTask)
	}
	return tracked, nil
}

// GetResults renders the aggregated results for the given tasks. An empty
// taskIDs slice covers every task that has results. An unknown format falls
// back to summary.
func (o *Orchestrator) GetResults(taskIDs []string, format ResultFormat) (string, error) {
	_, results := o.snapshot()

	if len(taskIDs) == 0 {
		seen := make(map[string]bool)
		for _, result := range results.Results() {
			if !seen[result.TaskID] {
				seen[result.TaskID] = true
				taskIDs = append(taskIDs, result.TaskID)
			}
		}
	}

	workflow := results.AggregateWorkflow(taskIDs)

	switch format {
	case FormatJSON:
		data, err := json.MarshalIndent(workflow, "", "  ")
		if err != nil {
			return "", fmt.Errorf("render results: %w", err)
		}
		return string(data), nil

	case FormatDetailed:
		return renderDetailed(workflow), nil

	default:
		return renderSummary(workflow), nil
	}
}

func renderSummary(workflow aggregator.WorkflowSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d results across %d tasks (%d workers)\n",
		workflow.TotalResults, len(workflow.TaskSummaries), len(workflow.WorkerIDs))
	for _, task := range workflow.TaskSummaries {
		fmt.Fprintf(&b, "  %s: %d result(s) from %s\n",
			task.TaskID, len(task.Results), strings.Join(task.WorkerIDs, ", "))
	}
	return b.String()
}

func renderDetailed(workflow aggregator.WorkflowSummary) string {
	var b strings.Builder
	for _, task := range workflow.TaskSummaries {
		fmt.Fprintf(&b, "task %s\n", task.TaskID)
		for _, result := range task.Results {
			fmt.Fprintf(&b, "  [%s] %s: %v\n",
				result.Timestamp.Format("15:04:05"), result.WorkerID, result.Output)
		}
	}
	if b.Len() == 0 {
		return "no results\n"
	}
	return b.String()
}
