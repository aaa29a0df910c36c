// Package decompose turns a task analysis into a tree of subtasks using
// domain templates.
package decompose

import (
	"fmt"
	"sync"
	"time"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// DefaultMaxDepth bounds decomposition depth when the caller passes zero.
const DefaultMaxDepth = 3

// maxGenericSubtasks caps how many requirement fragments the generic
// strategy turns into subtasks.
const maxGenericSubtasks = 5

// Decomposition is the output of Decompose. The subtask set is fixed for the
// lifetime of the workflow; no task is created after decomposition.
type Decomposition struct {
	// Root is the task representing the whole request.
	Root *models.SubTask
	// Subtasks are the schedulable tasks, root included when it is the only one.
	Subtasks []*models.SubTask
	// Tree maps every task ID to its direct children by ParentID.
	// Informational only; scheduling uses Dependencies.
	Tree map[string][]string
}

// Decomposer splits analyzed tasks into phase subtasks. Safe for concurrent
// use; the template set may be swapped while workflows run.
type Decomposer struct {
	mu        sync.RWMutex
	templates map[string]Template
}

// New creates a Decomposer with the built-in domain templates.
func New() *Decomposer {
	return &Decomposer{templates: BuiltinTemplates()}
}

// NewWithTemplates creates a Decomposer using the given templates keyed by
// domain. Domains without an entry fall back to the generic strategy.
func NewWithTemplates(templates map[string]Template) *Decomposer {
	if templates == nil {
		templates = BuiltinTemplates()
	}
	return &Decomposer{templates: templates}
}

// SetTemplates replaces the template set. Used by the config watcher when a
// template file changes on disk.
func (d *Decomposer) SetTemplates(templates map[string]Template) {
	if templates == nil {
		return
	}
	d.mu.Lock()
	d.templates = templates
	d.mu.Unlock()
}

func (d *Decomposer) template(domain string) (Template, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	tmpl, ok := d.templates[domain]
	return tmpl, ok
}

// Decompose produces the subtask set for an analysis. When the analysis does
// not require decomposition the root itself is the single subtask. maxDepth
// bounds nesting for template-driven expansion; the built-in templates emit a
// single level, so it only constrains custom recursive templates. Zero or
// negative maxDepth selects DefaultMaxDepth.
//
// Guarantees: subtask IDs are unique within the returned set and every
// dependency references an ID in the same set.
func (d *Decomposer) Decompose(analysis *models.TaskAnalysis, maxDepth int) (*Decomposition, error) {
	if analysis == nil {
		return nil, fmt.Errorf("decompose: nil analysis")
	}
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	now := time.Now()
	root := &models.SubTask{
		ID:          "task-0",
		Description: analysis.Description,
		Domain:      analysis.PrimaryDomain(),
		Complexity:  analysis.Complexity,
		Status:      models.TaskStatusPending,
		CreatedAt:   now,
	}

	if !analysis.RequiresDecomposition {
		return &Decomposition{
			Root:     root,
			Subtasks: []*models.SubTask{root},
			Tree:     map[string][]string{root.ID: nil},
		}, nil
	}

	var subtasks []*models.SubTask
	if tmpl, ok := d.template(analysis.PrimaryDomain()); ok {
		subtasks = expandTemplate(tmpl, analysis, root, now)
	} else {
		subtasks = expandGeneric(analysis, root, now)
	}

	tree := buildTree(root, subtasks)
	return &Decomposition{Root: root, Subtasks: subtasks, Tree: tree}, nil
}

// expandTemplate emits one subtask per template phase, each depending on the
// previous phase.
func expandTemplate(tmpl Template, analysis *models.TaskAnalysis, root *models.SubTask, now time.Time) []*models.SubTask {
	subtasks := make([]*models.SubTask, 0, len(tmpl.Phases))
	var prevID string

	for i, phase := range tmpl.Phases {
		task := &models.SubTask{
			ID:          fmt.Sprintf("task-%d", i+1),
			ParentID:    root.ID,
			Description: fmt.Sprintf("%s: %s", phase.Description, analysis.Description),
			Domain:      tmpl.Domain,
			Complexity:  phase.Complexity,
			Status:      models.TaskStatusPending,
			CreatedAt:   now,
		}
		if prevID != "" {
			task.Dependencies = []string{prevID}
		}
		subtasks = append(subtasks, task)
		prevID = task.ID
	}
	return subtasks
}

// expandGeneric slices the analyzer's requirement fragments into sequential
// subtasks, capped at maxGenericSubtasks. With no usable fragments the whole
// description becomes one subtask.
func expandGeneric(analysis *models.TaskAnalysis, root *models.SubTask, now time.Time) []*models.SubTask {
	fragments := analysis.Requirements
	if len(fragments) > maxGenericSubtasks {
		fragments = fragments[:maxGenericSubtasks]
	}
	if len(fragments) == 0 {
		fragments = []string{analysis.Description}
	}

	subtasks := make([]*models.SubTask, 0, len(fragments))
	var prevID string

	for i, fragment := range fragments {
		task := &models.SubTask{
			ID:          fmt.Sprintf("task-%d", i+1),
			ParentID:    root.ID,
			Description: fragment,
			Domain:      analysis.PrimaryDomain(),
			Complexity:  models.ComplexityMedium,
			Status:      models.TaskStatusPending,
			CreatedAt:   now,
		}
		if prevID != "" {
			task.Dependencies = []string{prevID}
		}
		subtasks = append(subtasks, task)
		prevID = task.ID
	}
	return subtasks
}

// buildTree maps every task ID to its direct children.
func buildTree(root *models.SubTask, subtasks []*models.SubTask) map[string][]string {
	tree := make(map[string][]string, len(subtasks)+1)
	tree[root.ID] = nil
	for _, task := range subtasks {
		if _, ok := tree[task.ID]; !ok {
			tree[task.ID] = nil
		}
		if task.ParentID != "" {
			tree[task.ParentID] = append(tree[task.ParentID], task.ID)
		}
	}
	return tree
}
