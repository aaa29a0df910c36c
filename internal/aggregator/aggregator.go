// Package aggregator collects worker results and folds them into per-task
// and workflow-level summaries.
package aggregator

import (
	"sort"
	"sync"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// TaskSummary is the fold of all results recorded for one task.
type TaskSummary struct {
	// TaskID is the task the summary covers.
	TaskID string `json:"task_id"`
	// Results are ordered by timestamp, oldest first.
	Results []models.Result `json:"results"`
	// WorkerIDs are the distinct workers that reported, in first-seen order.
	WorkerIDs []string `json:"worker_ids"`
}

// WorkflowSummary is the fold across a set of tasks.
type WorkflowSummary struct {
	// TaskSummaries holds one entry per requested task that has results,
	// in the order the tasks were requested.
	TaskSummaries []TaskSummary `json:"task_summaries"`
	// TotalResults counts every result across the requested tasks.
	TotalResults int `json:"total_results"`
	// WorkerIDs are the distinct workers involved, in first-seen order.
	WorkerIDs []string `json:"worker_ids"`
}

// Stats is a snapshot of aggregator counters.
type Stats struct {
	// TotalResults counts every recorded result.
	TotalResults int `json:"total_results"`
	// TasksWithResults counts tasks having at least one result.
	TasksWithResults int `json:"tasks_with_results"`
}

// Aggregator stores results indexed by task. AddResult is safe to call from
// concurrently running workers.
type Aggregator struct {
	mu sync.RWMutex
	// byTask maps task ID to its recorded results in arrival order.
	byTask map[string][]models.Result
}

// New creates an empty Aggregator.
func New() *Aggregator {
	return &Aggregator{byTask: make(map[string][]models.Result)}
}

// AddResult records one worker output for a task and returns the result ID.
func (a *Aggregator) AddResult(taskID, workerID string, output any, metadata map[string]any) string {
	result := models.NewResult(taskID, workerID, output, metadata)

	a.mu.Lock()
	a.byTask[taskID] = append(a.byTask[taskID], result)
	a.mu.Unlock()

	return result.ID
}

// AggregateTask folds all results for one task, sorted by timestamp.
// Returns an empty summary when the task has no results.
func (a *Aggregator) AggregateTask(taskID string) TaskSummary {
	a.mu.RLock()
	results := make([]models.Result, len(a.byTask[taskID]))
	copy(results, a.byTask[taskID])
	a.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Timestamp.Before(results[j].Timestamp)
	})

	return TaskSummary{
		TaskID:    taskID,
		Results:   results,
		WorkerIDs: distinctWorkers(results),
	}
}

// AggregateWorkflow folds results across the given tasks, reporting the
// total result count and the distinct workers involved.
func (a *Aggregator) AggregateWorkflow(taskIDs []string) WorkflowSummary {
	summary := WorkflowSummary{}
	seen := make(map[string]bool)

	for _, taskID := range taskIDs {
		taskSummary := a.AggregateTask(taskID)
		if len(taskSummary.Results) == 0 {
			continue
		}
		summary.TaskSummaries = append(summary.TaskSummaries, taskSummary)
		summary.TotalResults += len(taskSummary.Results)
		for _, workerID := range taskSummary.WorkerIDs {
			if !seen[workerID] {
				seen[workerID] = true
				summary.WorkerIDs = append(summary.WorkerIDs, workerID)
			}
		}
	}
	return summary
}

// Results returns every recorded result across all tasks, ordered by
// timestamp.
func (a *Aggregator) Results() []models.Result {
	a.mu.RLock()
	var all []models.Result
	for _, results := range a.byTask {
		all = append(all, results...)
	}
	a.mu.RUnlock()

	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.Before(all[j].Timestamp)
	})
	return all
}

// Stats returns a snapshot of aggregator counters.
func (a *Aggregator) Stats() Stats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := Stats{TasksWithResults: len(a.byTask)}
	for _, results := range a.byTask {
		stats.TotalResults += len(results)
	}
	return stats
}

func distinctWorkers(results []models.Result) []string {
	seen := make(map[string]bool, len(results))
	var workers []string
	for _, result := range results {
		if !seen[result.WorkerID] {
			seen[result.WorkerID] = true
			workers = append(workers, result.WorkerID)
		}
	}
	return workers
}
