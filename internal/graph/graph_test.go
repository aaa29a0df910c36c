package graph

import (
	"errors"
	"reflect"
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

func TestBuild_DiamondGraph(t *testing.T) {
	// Scenario: t1 fans out to t2/t3, which join at t4.
	subtasks := []*models.SubTask{
		task("t1"),
		task("t2", "t1"),
		task("t3", "t1"),
		task("t4", "t2", "t3"),
	}

	g, err := Build(subtasks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if g.HasCycles() {
		t.Fatal("HasCycles() = true, want false")
	}

	wantGroups := [][]string{{"t1"}, {"t2", "t3"}, {"t4"}}
	if got := g.ParallelGroups(); !reflect.DeepEqual(got, wantGroups) {
		t.Errorf("ParallelGroups() = %v, want %v", got, wantGroups)
	}

	assertTopological(t, g.ExecutionOrder(), subtasks)
}

func TestBuild_CycleDetected(t *testing.T) {
	subtasks := []*models.SubTask{
		task("t1", "t3"),
		task("t2", "t1"),
		task("t3", "t2"),
	}

	g, err := Build(subtasks)
	if !errors.Is(err, ErrCycleDetected) {
		t.Fatalf("Build() error = %v, want ErrCycleDetected", err)
	}
	if g == nil {
		t.Fatal("Build() graph = nil, want graph with cycle flag")
	}
	if !g.HasCycles() {
		t.Error("HasCycles() = false, want true")
	}
	if len(g.ExecutionOrder()) != 0 {
		t.Errorf("ExecutionOrder() = %v, want empty on cyclic graph", g.ExecutionOrder())
	}
	if len(g.ParallelGroups()) != 0 {
		t.Errorf("ParallelGroups() = %v, want empty on cyclic graph", g.ParallelGroups())
	}
	if !errors.Is(g.Err(), ErrCycleDetected) {
		t.Errorf("Err() = %v, want ErrCycleDetected", g.Err())
	}
}

func TestBuild_SelfDependencyIsACycle(t *testing.T) {
	_, err := Build([]*models.SubTask{task("t1", "t1")})
	if !errors.Is(err, ErrCycleDetected) {
		t.Errorf("Build() error = %v, want ErrCycleDetected", err)
	}
}

func TestBuild_UnknownDependencyFailsFast(t *testing.T) {
	subtasks := []*models.SubTask{
		task("t1"),
		task("t2", "ghost"),
	}

	g, err := Build(subtasks)
	if !errors.Is(err, ErrUnknownDependency) {
		t.Fatalf("Build() error = %v, want ErrUnknownDependency", err)
	}
	if g != nil {
		t.Error("Build() returned a graph for an invalid task set")
	}
}

func TestBuild_Idempotent(t *testing.T) {
	subtasks := []*models.SubTask{
		task("t1"),
		task("t2", "t1"),
		task("t3", "t1"),
		task("t4", "t2", "t3"),
	}

	first, err := Build(subtasks)
	if err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	second, err := Build(subtasks)
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}

	if !reflect.DeepEqual(first.ExecutionOrder(), second.ExecutionOrder()) {
		t.Errorf("execution order differs: %v vs %v", first.ExecutionOrder(), second.ExecutionOrder())
	}
	if !reflect.DeepEqual(first.ParallelGroups(), second.ParallelGroups()) {
		t.Errorf("parallel groups differ: %v vs %v", first.ParallelGroups(), second.ParallelGroups())
	}
}

func TestBuild_SequentialChain(t *testing.T) {
	subtasks := []*models.SubTask{
		task("t1"),
		task("t2", "t1"),
		task("t3", "t2"),
	}

	g, err := Build(subtasks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// Every group is a singleton: a depth level with one node is a valid
	// sequential step.
	wantGroups := [][]string{{"t1"}, {"t2"}, {"t3"}}
	if got := g.ParallelGroups(); !reflect.DeepEqual(got, wantGroups) {
		t.Errorf("ParallelGroups() = %v, want %v", got, wantGroups)
	}
}

func TestBuild_EqualDepthKeepsInsertionOrder(t *testing.T) {
	subtasks := []*models.SubTask{
		task("b"),
		task("a"),
		task("c"),
	}

	g, err := Build(subtasks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	wantGroups := [][]string{{"b", "a", "c"}}
	if got := g.ParallelGroups(); !reflect.DeepEqual(got, wantGroups) {
		t.Errorf("ParallelGroups() = %v, want %v", got, wantGroups)
	}
}

func TestBuild_EmptyInput(t *testing.T) {
	g, err := Build(nil)
	if err != nil {
		t.Fatalf("Build(nil) error = %v", err)
	}
	if g.Size() != 0 {
		t.Errorf("Size() = %d, want 0", g.Size())
	}
	if len(g.ExecutionOrder()) != 0 || len(g.ParallelGroups()) != 0 {
		t.Error("empty graph should have no order or groups")
	}
}

func TestDependents(t *testing.T) {
	subtasks := []*models.SubTask{
		task("t1"),
		task("t2", "t1"),
		task("t3", "t1"),
	}

	g, err := Build(subtasks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"t2", "t3"}
	if got := g.Dependents("t1"); !reflect.DeepEqual(got, want) {
		t.Errorf("Dependents(t1) = %v, want %v", got, want)
	}
	if got := g.Dependents("t3"); len(got) != 0 {
		t.Errorf("Dependents(t3) = %v, want empty", got)
	}
}

func TestRoots(t *testing.T) {
	subtasks := []*models.SubTask{
		task("t1"),
		task("t2"),
		task("t3", "t1", "t2"),
	}

	g, err := Build(subtasks)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	want := []string{"t1", "t2"}
	if got := g.Roots(); !reflect.DeepEqual(got, want) {
		t.Errorf("Roots() = %v, want %v", got, want)
	}
}

// assertTopological verifies every task appears after all its dependencies.
func assertTopological(t *testing.T, order []string, subtasks []*models.SubTask) {
	t.Helper()

	position := make(map[string]int, len(order))
	for i, id := range order {
		position[id] = i
	}
	if len(position) != len(subtasks) {
		t.Fatalf("order %v does not cover all %d tasks", order, len(subtasks))
	}
	for _, task := range subtasks {
		for _, dep := range task.Dependencies {
			if position[dep] >= position[task.ID] {
				t.Errorf("task %s at %d appears before its dependency %s at %d",
					task.ID, position[task.ID], dep, position[dep])
			}
		}
	}
}
