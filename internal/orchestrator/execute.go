package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ShayCichocki/orchid/internal/graph"
	"github.com/ShayCichocki/orchid/internal/planner"
	"github.com/ShayCichocki/orchid/pkg/models"
)

// ExecuteTask runs the full pipeline for one natural-language request:
// analyze, decompose, build the dependency graph, plan, then dispatch every
// subtask to the worker step by step. Steps run in plan order; tasks within a
// step run concurrently unless the orchestrator was configured sequential.
//
// A planning failure (cycle, unknown dependency) aborts before any dispatch
// and leaves the workflow Failed. During execution a failed or blocked task
// does not stop its step siblings; tasks depending on it are skipped and the
// workflow finishes degraded.
func (o *Orchestrator) ExecuteTask(ctx context.Context, description string, taskContext map[string]any) (*models.WorkflowResult, error) {
	workflowID, err := o.beginWorkflow()
	if err != nil {
		return nil, err
	}
	startedAt := time.Now()

	o.logger.Log("workflow %s: planning %q", workflowID, description)
	o.publishSystemEvent("workflow_planning", map[string]any{
		"workflow_id": workflowID,
		"description": description,
	})

	analysis := o.analyzer.Analyze(description)
	o.logger.Log("workflow %s: complexity=%s domains=%v", workflowID, analysis.Complexity, analysis.Domains)

	decomposition, err := o.decomposer.Decompose(analysis, o.maxDepth)
	if err != nil {
		return o.failPlanning(workflowID, startedAt, fmt.Errorf("decompose: %w", err))
	}

	g, err := graph.Build(decomposition.Subtasks)
	if err != nil {
		return o.failPlanning(workflowID, startedAt, fmt.Errorf("build dependency graph: %w", err))
	}

	plan, err := planner.CreatePlan(g, decomposition.Subtasks)
	if err != nil {
		return o.failPlanning(workflowID, startedAt, fmt.Errorf("create plan: %w", err))
	}

	tasks, _ := o.snapshot()
	for _, subtask := range decomposition.Subtasks {
		if err := tasks.AddTask(subtask); err != nil {
			return o.failPlanning(workflowID, startedAt, fmt.Errorf("register task: %w", err))
		}
	}

	o.mu.Lock()
	o.graph = g
	o.plan = plan
	o.state = models.WorkflowExecuting
	o.mu.Unlock()

	o.logger.Log("workflow %s: %d tasks in %d steps, estimated %d minutes",
		workflowID, len(decomposition.Subtasks), plan.TotalSteps, plan.EstimatedDurationMinutes)
	o.publishSystemEvent("workflow_started", map[string]any{
		"workflow_id":       workflowID,
		"total_tasks":       len(decomposition.Subtasks),
		"total_steps":       plan.TotalSteps,
		"estimated_minutes": plan.EstimatedDurationMinutes,
		"critical_path":     plan.CriticalPath,
	})

	for _, step := range plan.Steps {
		if ctx.Err() != nil {
			break
		}
		o.executeStep(ctx, step, taskContext)
	}

	result := o.finishWorkflow(workflowID, plan, startedAt, ctx.Err())
	o.events.Flush()
	return result, ctx.Err()
}

// executeStep dispatches every runnable task of one step and waits for all of
// them before returning. Tasks whose dependencies did not complete are left
// pending; everything else runs, concurrently unless sequential mode is on.
func (o *Orchestrator) executeStep(ctx context.Context, step planner.ExecutionStep, taskContext map[string]any) {
	tasks, _ := o.snapshot()

	runnable := make(map[string]bool)
	for _, task := range tasks.GetReadyTasks() {
		runnable[task.ID] = true
	}

	var wg sync.WaitGroup
	for _, taskID := range step.TaskIDs {
		if !runnable[taskID] {
			o.logger.Log("task %s: skipped, dependency not completed", taskID)
			continue
		}
		if o.sequential || !step.CanParallelize {
			o.executeTask(ctx, taskID, taskContext)
			continue
		}
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			o.executeTask(ctx, id, taskContext)
		}(taskID)
	}
	wg.Wait()
}

// executeTask drives one subtask through its lifecycle against the worker.
func (o *Orchestrator) executeTask(ctx context.Context, taskID string, taskContext map[string]any) {
	tasks, results := o.snapshot()
	tracked := tasks.Get(taskID)
	if tracked == nil {
		return
	}
	task := tracked.Task
	workerID := o.worker.ID()

	if err := tasks.Assign(taskID, workerID); err != nil {
		o.logger.Log("task %s: assign: %v", taskID, err)
		return
	}
	o.events.Publish(models.NewMessage(models.MessageTaskAssigned, senderID, map[string]any{
		"task_id":     taskID,
		"worker_id":   workerID,
		"description": task.Description,
	}))

	if ctx.Err() != nil {
		_ = tasks.Fail(taskID, ctx.Err().Error())
		o.publishTaskFailed(taskID, workerID, ctx.Err().Error())
		return
	}

	if err := tasks.Start(taskID); err != nil {
		o.logger.Log("task %s: start: %v", taskID, err)
		return
	}
	o.events.Publish(models.NewMessage(models.MessageTaskStarted, senderID, map[string]any{
		"task_id":   taskID,
		"worker_id": workerID,
	}))

	workerResult, err := o.worker.Execute(ctx, task.Description, o.workerContext(task, taskContext))
	if err != nil {
		o.logger.Log("task %s: worker error: %v", taskID, err)
		_ = tasks.Fail(taskID, err.Error())
		o.publishTaskFailed(taskID, workerID, err.Error())
		return
	}
	if workerResult == nil {
		reason := "worker returned no result"
		_ = tasks.Fail(taskID, reason)
		o.publishTaskFailed(taskID, workerID, reason)
		return
	}

	switch workerResult.Status {
	case models.WorkerStatusCompleted:
		resultID := results.AddResult(taskID, workerID, workerResult.Output, workerResult.Metadata)
		_ = tasks.Complete(taskID, workerResult.Output)
		o.events.Publish(models.NewMessage(models.MessageTaskCompleted, senderID, map[string]any{
			"task_id":   taskID,
			"worker_id": workerID,
			"result_id": resultID,
		}))

	case models.WorkerStatusClarificationNeeded:
		o.logger.Log("task %s: blocked, questions=%v", taskID, workerResult.Questions)
		_ = tasks.Block(taskID, workerResult.Questions)
		o.publishSystemEvent("task_blocked", map[string]any{
			"task_id":   taskID,
			"worker_id": workerID,
			"questions": workerResult.Questions,
		})

	default:
		reason := workerResult.Message
		if reason == "" {
			reason = fmt.Sprintf("worker reported status %s", workerResult.Status)
		}
		_ = tasks.Fail(taskID, reason)
		o.publishTaskFailed(taskID, workerID, reason)
	}
}

// workerContext assembles the context map handed to the worker: the caller's
// context enriched with task identity and the outputs of completed
// dependencies.
func (o *Orchestrator) workerContext(task *models.SubTask, taskContext map[string]any) map[string]any {
	tasks, _ := o.snapshot()

	merged := make(map[string]any, len(taskContext)+4)
	for k, v := range taskContext {
		merged[k] = v
	}
	merged["task_id"] = task.ID
	merged["domain"] = task.Domain
	merged["complexity"] = string(task.Complexity)

	deps := make(map[string]any, len(task.Dependencies))
	for _, depID := range task.Dependencies {
		if dep := tasks.Get(depID); dep != nil && dep.Status == models.TaskStatusCompleted {
			deps[depID] = dep.Result
		}
	}
	if len(deps) > 0 {
		merged["dependency_results"] = deps
	}
	return merged
}

// failPlanning settles a workflow that never reached execution.
func (o *Orchestrator) failPlanning(workflowID string, startedAt time.Time, err error) (*models.WorkflowResult, error) {
	o.setState(models.WorkflowFailed)
	o.logger.Log("workflow %s: planning failed: %v", workflowID, err)
	o.publishSystemEvent("workflow_failed", map[string]any{
		"workflow_id": workflowID,
		"error":       err.Error(),
	})
	o.events.Flush()

	return &models.WorkflowResult{
		WorkflowID: workflowID,
		State:      models.WorkflowFailed,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}, err
}

// finishWorkflow folds tracker and aggregator state into the final result
// and settles the workflow state. A run where nothing completed fails; a run
// with partial failures or blocked tasks completes degraded.
func (o *Orchestrator) finishWorkflow(workflowID string, plan *planner.ExecutionPlan, startedAt time.Time, runErr error) *models.WorkflowResult {
	tasks, results := o.snapshot()
	stats := tasks.Stats()

	degraded := stats.Failed > 0 || stats.Blocked > 0 || stats.Pending > 0
	state := models.WorkflowCompleted
	if runErr != nil || (stats.Completed == 0 && stats.Total > 0) {
		state = models.WorkflowFailed
	}
	o.setState(state)

	event := "workflow_completed"
	if state == models.WorkflowFailed {
		event = "workflow_failed"
	}
	o.logger.Log("workflow %s: %s (completed=%d failed=%d blocked=%d pending=%d)",
		workflowID, event, stats.Completed, stats.Failed, stats.Blocked, stats.Pending)
	o.publishSystemEvent(event, map[string]any{
		"workflow_id": workflowID,
		"degraded":    degraded,
		"completed":   stats.Completed,
		"failed":      stats.Failed,
		"blocked":     stats.Blocked,
	})

	return &models.WorkflowResult{
		WorkflowID:       workflowID,
		State:            state,
		Degraded:         degraded,
		TotalSteps:       plan.TotalSteps,
		Parallelized:     plan.CanParallelize,
		CriticalPath:     plan.CriticalPath,
		EstimatedMinutes: plan.EstimatedDurationMinutes,
		OverallProgress:  tasks.OverallProgress(),
		TaskStatuses:     tasks.Statuses(),
		Results:          results.Results(),
		StartedAt:        startedAt,
		FinishedAt:       time.Now(),
	}
}

func (o *Orchestrator) publishTaskFailed(taskID, workerID, reason string) {
	o.events.Publish(models.NewMessage(models.MessageTaskFailed, senderID, map[string]any{
		"task_id":   taskID,
		"worker_id": workerID,
		"error":     reason,
	}))
}

func (o *Orchestrator) publishSystemEvent(event string, payload map[string]any) {
	if payload == nil {
		payload = map[string]any{}
	}
	payload["event"] = event
	o.events.Publish(models.NewMessage(models.MessageSystemEvent, senderID, payload))
}
