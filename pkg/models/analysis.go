package models

// Complexity represents the estimated complexity tier of a task.
type Complexity string

const (
	// ComplexitySimple is for single-step tasks that need no decomposition.
	ComplexitySimple Complexity = "simple"
	// ComplexityMedium is for tasks with a handful of distinct steps.
	ComplexityMedium Complexity = "medium"
	// ComplexityComplex is for multi-phase tasks spanning several domains.
	ComplexityComplex Complexity = "complex"
)

// Valid returns true if the complexity is a known value.
func (c Complexity) Valid() bool {
	switch c {
	case ComplexitySimple, ComplexityMedium, ComplexityComplex:
		return true
	default:
		return false
	}
}

// Weight returns the estimated duration in minutes for a task of this
// complexity. Unknown values fall back to the medium weight.
func (c Complexity) Weight() int {
	switch c {
	case ComplexitySimple:
		return 5
	case ComplexityComplex:
		return 30
	default:
		return 15
	}
}

// TaskAnalysis is the immutable result of classifying a raw task description.
// Produced once per workflow and consumed by the decomposer.
type TaskAnalysis struct {
	// Description is the raw task text that was analyzed.
	Description string `json:"description"`
	// Complexity is the classified complexity tier.
	Complexity Complexity `json:"complexity"`
	// Domains is the ranked list of domain tags, highest score first.
	// Always contains at least one entry ("general" when nothing matched).
	Domains []string `json:"domains"`
	// RequiresDecomposition is true when the task should be split into subtasks.
	RequiresDecomposition bool `json:"requires_decomposition"`
	// EstimatedSubtasks is a rough count of subtasks decomposition will produce.
	EstimatedSubtasks int `json:"estimated_subtasks"`
	// Requirements holds requirement fragments extracted from the description.
	Requirements []string `json:"requirements,omitempty"`
}

// PrimaryDomain returns the highest-scored domain tag.
func (a *TaskAnalysis) PrimaryDomain() string {
	if len(a.Domains) == 0 {
		return "general"
	}
	return a.Domains[0]
}
