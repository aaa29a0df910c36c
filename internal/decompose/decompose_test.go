package decompose

import (
	"testing"

	"github.com/ShayCichocki/orchid/internal/analyzer"
	"github.com/ShayCichocki/orchid/pkg/models"
)

func TestDecompose_SimpleTaskIsNotSplit(t *testing.T) {
	a := analyzer.New()
	analysis := a.Analyze("Create a simple Python function")
	if analysis.RequiresDecomposition {
		t.Fatalf("analysis.RequiresDecomposition = true, want false")
	}

	d := New()
	dec, err := d.Decompose(analysis, 0)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	if len(dec.Subtasks) != 1 {
		t.Fatalf("len(Subtasks) = %d, want 1", len(dec.Subtasks))
	}
	if dec.Subtasks[0] != dec.Root {
		t.Error("single subtask is not the root task")
	}
	if len(dec.Subtasks[0].Dependencies) != 0 {
		t.Errorf("root dependencies = %v, want none", dec.Subtasks[0].Dependencies)
	}
}

func TestDecompose_DevelopmentTemplate(t *testing.T) {
	a := analyzer.New()
	analysis := a.Analyze("Build a complete web application with authentication, database, and deployment")

	d := New()
	dec, err := d.Decompose(analysis, 0)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	if len(dec.Subtasks) <= 1 {
		t.Fatalf("len(Subtasks) = %d, want > 1", len(dec.Subtasks))
	}

	// Phases form a strict sequential chain.
	for i, task := range dec.Subtasks {
		if i == 0 {
			if len(task.Dependencies) != 0 {
				t.Errorf("first phase %s has dependencies %v, want none", task.ID, task.Dependencies)
			}
			continue
		}
		want := dec.Subtasks[i-1].ID
		if len(task.Dependencies) != 1 || task.Dependencies[0] != want {
			t.Errorf("phase %s dependencies = %v, want [%s]", task.ID, task.Dependencies, want)
		}
	}
}

func TestDecompose_UniqueIDsAndNoDanglingRefs(t *testing.T) {
	a := analyzer.New()
	descriptions := []string{
		"Build a complete web application with authentication, database, and deployment",
		"Implement the login endpoint",
		"Deploy the service with docker and kubernetes",
		"Research and compare three caching strategies",
	}

	for _, desc := range descriptions {
		t.Run(desc, func(t *testing.T) {
			d := New()
			dec, err := d.Decompose(a.Analyze(desc), 0)
			if err != nil {
				t.Fatalf("Decompose() error = %v", err)
			}

			ids := make(map[string]bool, len(dec.Subtasks))
			for _, task := range dec.Subtasks {
				if ids[task.ID] {
					t.Errorf("duplicate subtask ID %s", task.ID)
				}
				ids[task.ID] = true
			}
			for _, task := range dec.Subtasks {
				for _, dep := range task.Dependencies {
					if !ids[dep] {
						t.Errorf("task %s depends on %s, which is not in the set", task.ID, dep)
					}
				}
			}
		})
	}
}

func TestDecompose_GenericFallback(t *testing.T) {
	// A medium-complexity task in a domain with no template.
	analysis := &models.TaskAnalysis{
		Description:           "organize the quarterly offsite",
		Complexity:            models.ComplexityMedium,
		Domains:               []string{"general"},
		RequiresDecomposition: true,
		Requirements:          []string{"book the venue", "plan the agenda", "invite the team"},
	}

	d := New()
	dec, err := d.Decompose(analysis, 0)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	if len(dec.Subtasks) != 3 {
		t.Fatalf("len(Subtasks) = %d, want 3", len(dec.Subtasks))
	}
	if dec.Subtasks[0].Description != "book the venue" {
		t.Errorf("first subtask = %q, want %q", dec.Subtasks[0].Description, "book the venue")
	}
	// Sequential chain, same as templates.
	if len(dec.Subtasks[2].Dependencies) != 1 || dec.Subtasks[2].Dependencies[0] != dec.Subtasks[1].ID {
		t.Errorf("third subtask dependencies = %v, want [%s]", dec.Subtasks[2].Dependencies, dec.Subtasks[1].ID)
	}
}

func TestDecompose_GenericFallbackCapsFragments(t *testing.T) {
	analysis := &models.TaskAnalysis{
		Description:           "many fragments",
		Complexity:            models.ComplexityMedium,
		Domains:               []string{"general"},
		RequiresDecomposition: true,
		Requirements: []string{
			"one", "two", "three", "four", "five", "six", "seven",
		},
	}

	d := New()
	dec, err := d.Decompose(analysis, 0)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}
	if len(dec.Subtasks) != maxGenericSubtasks {
		t.Errorf("len(Subtasks) = %d, want %d", len(dec.Subtasks), maxGenericSubtasks)
	}
}

func TestDecompose_TreeMapsParentsToChildren(t *testing.T) {
	a := analyzer.New()
	d := New()
	dec, err := d.Decompose(a.Analyze("Implement the login endpoint"), 0)
	if err != nil {
		t.Fatalf("Decompose() error = %v", err)
	}

	children := dec.Tree[dec.Root.ID]
	if len(children) != len(dec.Subtasks) {
		t.Fatalf("root children = %v, want %d entries", children, len(dec.Subtasks))
	}
	for _, task := range dec.Subtasks {
		if _, ok := dec.Tree[task.ID]; !ok {
			t.Errorf("tree missing entry for task %s", task.ID)
		}
	}
}

func TestDecompose_NilAnalysis(t *testing.T) {
	d := New()
	if _, err := d.Decompose(nil, 0); err == nil {
		t.Error("Decompose(nil) error = nil, want error")
	}
}
