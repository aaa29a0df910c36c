package decompose

import "github.com/ShayCichocki/orchid/pkg/models"

// Phase is one step in a domain template. Each phase becomes a subtask that
// depends on the previous phase (strict chain, no fan-out in the built-ins).
type Phase struct {
	// Name is the short phase label used in the generated description.
	Name string `yaml:"name"`
	// Description is the phase instruction, prefixed to the root description.
	Description string `yaml:"description"`
	// Complexity is the estimated complexity for this phase.
	Complexity models.Complexity `yaml:"complexity"`
}

// Template is a fixed ordered phase sequence for one domain.
type Template struct {
	// Domain is the analyzer domain tag this template applies to.
	Domain string `yaml:"domain"`
	// Phases are emitted in order, each depending on the previous one.
	Phases []Phase `yaml:"phases"`
}

// BuiltinTemplates returns the default domain templates keyed by domain.
// Loaded template files (see internal/config) override entries by domain.
func BuiltinTemplates() map[string]Template {
	templates := map[string]Template{
		"development": {
			Domain: "development",
			Phases: []Phase{
				{Name: "requirements", Description: "Gather and document requirements for", Complexity: models.ComplexityMedium},
				{Name: "design", Description: "Design the architecture and interfaces for", Complexity: models.ComplexityMedium},
				{Name: "implementation", Description: "Implement", Complexity: models.ComplexityComplex},
				{Name: "testing", Description: "Write and run tests for", Complexity: models.ComplexityMedium},
				{Name: "documentation", Description: "Document the finished work for", Complexity: models.ComplexitySimple},
			},
		},
		"devops": {
			Domain: "devops",
			Phases: []Phase{
				{Name: "environment", Description: "Prepare the target environment for", Complexity: models.ComplexityMedium},
				{Name: "pipeline", Description: "Set up the build and release pipeline for", Complexity: models.ComplexityComplex},
				{Name: "deployment", Description: "Deploy", Complexity: models.ComplexityMedium},
				{Name: "verification", Description: "Verify the deployment of", Complexity: models.ComplexitySimple},
			},
		},
		"data": {
			Domain: "data",
			Phases: []Phase{
				{Name: "modeling", Description: "Model the schema and data flows for", Complexity: models.ComplexityMedium},
				{Name: "ingestion", Description: "Build ingestion and transformation for", Complexity: models.ComplexityComplex},
				{Name: "validation", Description: "Validate data quality for", Complexity: models.ComplexityMedium},
			},
		},
		"research": {
			Domain: "research",
			Phases: []Phase{
				{Name: "survey", Description: "Survey existing approaches for", Complexity: models.ComplexityMedium},
				{Name: "evaluation", Description: "Evaluate and compare candidates for", Complexity: models.ComplexityMedium},
				{Name: "summary", Description: "Summarize findings and recommendations for", Complexity: models.ComplexitySimple},
			},
		},
		"writing": {
			Domain: "writing",
			Phases: []Phase{
				{Name: "outline", Description: "Outline the structure of", Complexity: models.ComplexitySimple},
				{Name: "draft", Description: "Write the first draft of", Complexity: models.ComplexityMedium},
				{Name: "revision", Description: "Revise and polish", Complexity: models.ComplexitySimple},
			},
		},
		"testing": {
			Domain: "testing",
			Phases: []Phase{
				{Name: "plan", Description: "Plan test scenarios and coverage for", Complexity: models.ComplexityMedium},
				{Name: "implementation", Description: "Implement the tests for", Complexity: models.ComplexityMedium},
				{Name: "report", Description: "Run the suite and report results for", Complexity: models.ComplexitySimple},
			},
		},
	}
	return templates
}
