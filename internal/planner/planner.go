// Package planner converts a dependency graph into an ordered execution plan.
package planner

import (
	"errors"
	"fmt"

	"github.com/ShayCichocki/orchid/internal/graph"
	"github.com/ShayCichocki/orchid/pkg/models"
)

// ErrCyclicGraph indicates a plan was requested for a graph with cycles.
var ErrCyclicGraph = errors.New("cannot plan a cyclic dependency graph")

// ExecutionStep is one scheduling step: a set of task IDs whose dependencies
// are all satisfied by earlier steps.
type ExecutionStep struct {
	// StepNumber is the 1-based position of the step in the plan.
	StepNumber int `json:"step_number"`
	// TaskIDs are the tasks executable in this step.
	TaskIDs []string `json:"task_ids"`
	// CanParallelize is true when the step holds more than one task.
	CanParallelize bool `json:"can_parallelize"`
}

// ExecutionPlan is the ordered list of steps for one workflow.
type ExecutionPlan struct {
	// Steps are executed in order; tasks within a step may run concurrently.
	Steps []ExecutionStep `json:"steps"`
	// TotalSteps is len(Steps).
	TotalSteps int `json:"total_steps"`
	// CanParallelize is true when any step holds more than one task.
	CanParallelize bool `json:"can_parallelize"`
	// EstimatedDurationMinutes sums per-task complexity weights.
	EstimatedDurationMinutes int `json:"estimated_duration_minutes"`
	// CriticalPath is the ID sequence of the longest weighted root-to-leaf
	// dependency chain.
	CriticalPath []string `json:"critical_path,omitempty"`
	// Err records why planning was refused (cyclic graph). A plan with a
	// non-nil Err has zero steps and must not be executed.
	Err error `json:"-"`
}

// CreatePlan builds an execution plan from a dependency graph. Each parallel
// group becomes one step in ascending depth order. A cyclic graph yields an
// empty plan carrying ErrCyclicGraph; planning never silently proceeds.
func CreatePlan(g *graph.DependencyGraph, subtasks []*models.SubTask) (*ExecutionPlan, error) {
	if g == nil {
		return nil, fmt.Errorf("create plan: nil graph")
	}
	if g.HasCycles() {
		plan := &ExecutionPlan{Err: ErrCyclicGraph}
		return plan, ErrCyclicGraph
	}

	plan := &ExecutionPlan{}
	for i, group := range g.ParallelGroups() {
		step := ExecutionStep{
			StepNumber:     i + 1,
			TaskIDs:        group,
			CanParallelize: len(group) > 1,
		}
		if step.CanParallelize {
			plan.CanParallelize = true
		}
		plan.Steps = append(plan.Steps, step)
	}
	plan.TotalSteps = len(plan.Steps)

	for _, task := range subtasks {
		plan.EstimatedDurationMinutes += task.Complexity.Weight()
	}

	plan.CriticalPath = CriticalPath(g)
	return plan, nil
}

// CriticalPath returns the ID sequence of the longest complexity-weighted
// path from a root to a leaf, computed by longest-path DP over the
// topological order. Returns nil for an empty or cyclic graph.
func CriticalPath(g *graph.DependencyGraph) []string {
	order := g.ExecutionOrder()
	if len(order) == 0 {
		return nil
	}

	// dist[v] is the weight of the heaviest path ending at v, counting the
	// weights of every node before v on the path.
	dist := make(map[string]int, len(order))
	predecessor := make(map[string]string, len(order))

	for _, u := range order {
		weight := g.Task(u).Complexity.Weight()
		for _, v := range g.Dependents(u) {
			if candidate := dist[u] + weight; candidate > dist[v] {
				dist[v] = candidate
				predecessor[v] = u
			}
		}
	}

	// The path end is the heaviest node including its own weight; ties go to
	// the earliest node in topological order.
	end := ""
	best := -1
	for _, id := range order {
		total := dist[id] + g.Task(id).Complexity.Weight()
		if total > best {
			best = total
			end = id
		}
	}

	// Backtrack from the end to a root with no recorded predecessor.
	var reversed []string
	for id := end; ; {
		reversed = append(reversed, id)
		prev, ok := predecessor[id]
		if !ok {
			break
		}
		id = prev
	}

	path := make([]string, len(reversed))
	for i, id := range reversed {
		path[len(reversed)-1-i] = id
	}
	return path
}

// PathWeight sums the complexity weights along a path of task IDs.
func PathWeight(g *graph.DependencyGraph, path []string) int {
	total := 0
	for _, id := range path {
		if task := g.Task(id); task != nil {
			total += task.Complexity.Weight()
		}
	}
	return total
}
