// Package graph builds the dependency DAG used for task scheduling.
package graph

import (
	"errors"
	"fmt"
	"sync"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// ErrCycleDetected indicates a circular dependency was found in the task set.
var ErrCycleDetected = errors.New("circular dependency detected")

// ErrUnknownDependency indicates a task depends on an ID that is not part of
// the same decomposition batch. This is a decomposer contract violation and
// is rejected before any graph structure is built.
var ErrUnknownDependency = errors.New("dependency references unknown task")

// DependencyGraph is a derived, recomputable view over a fixed subtask set.
// Tasks are nodes; edges point from a dependency to its dependents.
//
// Invariant: when HasCycles reports true, ExecutionOrder and ParallelGroups
// are empty and no execution plan may be built from the graph.
type DependencyGraph struct {
	mu sync.RWMutex
	// nodes maps task ID to the task itself.
	nodes map[string]*models.SubTask
	// order preserves the insertion order of the original subtask list.
	// It is the stable tie-break for equal-depth tasks.
	order []string
	// dependents maps task ID to the IDs of tasks that depend on it.
	dependents map[string][]string
	// inDegree counts unmet dependencies per task.
	inDegree map[string]int
	// hasCycles is set when cycle detection finds a back edge.
	hasCycles bool
	// cycleErr describes the cycle when hasCycles is set.
	cycleErr error
	// executionOrder is a valid topological order (empty on cycles).
	executionOrder []string
	// parallelGroups holds one ID set per BFS depth level (empty on cycles).
	parallelGroups [][]string
}

// Build constructs the dependency graph from a subtask slice.
//
// A dependency naming an ID outside the slice fails fast with
// ErrUnknownDependency. A cyclic dependency returns the graph with
// HasCycles set alongside ErrCycleDetected; the graph carries no
// execution order or parallel groups in that case.
//
// Build is deterministic: the same subtask list always yields the same graph.
func Build(subtasks []*models.SubTask) (*DependencyGraph, error) {
	g := &DependencyGraph{
		nodes:      make(map[string]*models.SubTask, len(subtasks)),
		dependents: make(map[string][]string, len(subtasks)),
		inDegree:   make(map[string]int, len(subtasks)),
	}

	// First pass: register all tasks as nodes.
	for _, task := range subtasks {
		g.nodes[task.ID] = task
		g.order = append(g.order, task.ID)
		g.inDegree[task.ID] = 0
	}

	// Second pass: validate references and build edges.
	for _, task := range subtasks {
		for _, depID := range task.Dependencies {
			if _, exists := g.nodes[depID]; !exists {
				return nil, fmt.Errorf("task %s: %w: %s", task.ID, ErrUnknownDependency, depID)
			}
			g.dependents[depID] = append(g.dependents[depID], task.ID)
			g.inDegree[task.ID]++
		}
	}

	if g.detectCycle() {
		g.hasCycles = true
		g.cycleErr = ErrCycleDetected
		return g, ErrCycleDetected
	}

	g.computeSchedule()
	return g, nil
}

// detectCycle runs an iterative DFS with an explicit stack. Recursion depth
// would track the longest dependency chain, which is unbounded input.
func (g *DependencyGraph) detectCycle() bool {
	const (
		white = 0 // unvisited
		gray  = 1 // on the active stack
		black = 2 // fully processed
	)

	colors := make(map[string]int, len(g.nodes))

	type frame struct {
		id   string
		next int // index into dependents[id] to visit next
	}

	for _, start := range g.order {
		if colors[start] != white {
			continue
		}

		stack := []frame{{id: start}}
		colors[start] = gray

		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			deps := g.dependents[top.id]

			if top.next < len(deps) {
				next := deps[top.next]
				top.next++

				switch colors[next] {
				case gray:
					// Back edge into the active stack.
					return true
				case white:
					colors[next] = gray
					stack = append(stack, frame{id: next})
				}
				continue
			}

			colors[top.id] = black
			stack = stack[:len(stack)-1]
		}
	}

	return false
}

// computeSchedule fills executionOrder (Kahn's algorithm) and parallelGroups
// (BFS depth levels) in one pass. Each round dequeues every task whose
// dependencies were all dequeued in earlier rounds; a round is a depth level.
// Within a round, tasks keep the insertion order of the original slice.
func (g *DependencyGraph) computeSchedule() {
	remaining := make(map[string]int, len(g.inDegree))
	for id, deg := range g.inDegree {
		remaining[id] = deg
	}

	emitted := make(map[string]bool, len(g.nodes))

	for len(g.executionOrder) < len(g.nodes) {
		var group []string
		for _, id := range g.order {
			if !emitted[id] && remaining[id] == 0 {
				group = append(group, id)
			}
		}
		if len(group) == 0 {
			// Unreachable on an acyclic graph; detectCycle runs first.
			return
		}

		for _, id := range group {
			emitted[id] = true
			for _, dependent := range g.dependents[id] {
				remaining[dependent]--
			}
		}

		g.parallelGroups = append(g.parallelGroups, group)
		g.executionOrder = append(g.executionOrder, group...)
	}
}

// HasCycles returns true if the subtask set contained a circular dependency.
func (g *DependencyGraph) HasCycles() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.hasCycles
}

// Err returns the structural error recorded at build time, if any.
func (g *DependencyGraph) Err() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cycleErr
}

// ExecutionOrder returns a valid topological order: every task appears after
// all of its dependencies. Empty when the graph has cycles.
func (g *DependencyGraph) ExecutionOrder() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.executionOrder))
	copy(out, g.executionOrder)
	return out
}

// ParallelGroups returns one ID set per dependency depth, shallowest first.
// Tasks in the same group have no direct or transitive edge between them and
// are eligible for concurrent dispatch. Empty when the graph has cycles.
func (g *DependencyGraph) ParallelGroups() [][]string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([][]string, len(g.parallelGroups))
	for i, group := range g.parallelGroups {
		out[i] = make([]string, len(group))
		copy(out[i], group)
	}
	return out
}

// Task returns the subtask for an ID, or nil if not present.
func (g *DependencyGraph) Task(id string) *models.SubTask {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id]
}

// Size returns the number of tasks in the graph.
func (g *DependencyGraph) Size() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// Dependencies returns the IDs the given task depends on.
func (g *DependencyGraph) Dependencies(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	task := g.nodes[id]
	if task == nil {
		return nil
	}
	out := make([]string, len(task.Dependencies))
	copy(out, task.Dependencies)
	return out
}

// Dependents returns the IDs of tasks that depend on the given task.
func (g *DependencyGraph) Dependents(id string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]string, len(g.dependents[id]))
	copy(out, g.dependents[id])
	return out
}

// Roots returns the IDs with no dependencies, in insertion order.
func (g *DependencyGraph) Roots() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var roots []string
	for _, id := range g.order {
		if g.inDegree[id] == 0 {
			roots = append(roots, id)
		}
	}
	return roots
}
