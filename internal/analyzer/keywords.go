// Package analyzer classifies raw task descriptions into a complexity tier
// and a ranked list of domains.
package analyzer

// ComplexityKeywords is the single source of truth for complexity
// classification. The analyzer and the CLI plan renderer both consult it so
// classification stays consistent everywhere a description is shown.
type ComplexityKeywords struct {
	// Complex keywords force the complex tier regardless of other signals.
	Complex []string

	// Simple keywords suppress the medium tier when no complex signal is present.
	Simple []string

	// ActionVerbs are counted; more than three distinct verbs implies complex,
	// at least one (absent simple keywords) implies medium.
	ActionVerbs []string
}

// DefaultComplexityKeywords returns the authoritative keyword sets.
var DefaultComplexityKeywords = ComplexityKeywords{
	Complex: []string{
		"complete",
		"full",
		"entire",
		"end-to-end",
		"production",
		"scalable",
		"distributed",
		"microservice",
		"architecture",
		"migrate",
		"overhaul",
	},

	Simple: []string{
		"simple",
		"small",
		"quick",
		"minor",
		"single",
		"typo",
		"rename",
		"tiny",
	},

	ActionVerbs: []string{
		"create",
		"build",
		"implement",
		"design",
		"develop",
		"deploy",
		"test",
		"write",
		"configure",
		"integrate",
		"install",
		"optimize",
		"refactor",
		"analyze",
		"document",
	},
}

// DomainVocabulary holds the scoring keywords for one domain.
type DomainVocabulary struct {
	// Name is the domain tag emitted in the analysis.
	Name string
	// Keywords each add one point when found in the description.
	Keywords []string
	// Priority keywords add a bonus on top of their keyword point, breaking
	// ties between domains that score the same raw hit count.
	Priority []string
}

// priorityBonus is the extra score a priority keyword contributes.
const priorityBonus = 2

// DefaultDomainVocabularies returns the built-in domain vocabularies in
// declaration order. Order matters: it is the stable tie-break when two
// domains score identically.
var DefaultDomainVocabularies = []DomainVocabulary{
	{
		Name: "development",
		Keywords: []string{
			"code", "program", "function", "class", "api", "app",
			"application", "software", "implement", "bug", "feature",
			"frontend", "backend", "web", "library",
		},
		Priority: []string{"implement", "code", "application"},
	},
	{
		Name: "devops",
		Keywords: []string{
			"deploy", "deployment", "docker", "kubernetes", "ci", "cd",
			"pipeline", "infrastructure", "server", "cloud", "monitoring",
			"container", "release",
		},
		Priority: []string{"deploy", "deployment", "infrastructure"},
	},
	{
		Name: "data",
		Keywords: []string{
			"data", "database", "sql", "query", "schema", "etl",
			"analytics", "dataset", "pipeline", "warehouse", "migration",
		},
		Priority: []string{"database", "data"},
	},
	{
		Name: "research",
		Keywords: []string{
			"research", "investigate", "explore", "compare", "evaluate",
			"study", "survey", "benchmark", "analyze", "review",
		},
		Priority: []string{"research", "investigate"},
	},
	{
		Name: "writing",
		Keywords: []string{
			"write", "document", "documentation", "article", "blog",
			"readme", "report", "summary", "draft", "edit",
		},
		Priority: []string{"documentation", "write"},
	},
	{
		Name: "testing",
		Keywords: []string{
			"test", "testing", "qa", "verify", "validation", "coverage",
			"regression", "unit", "integration",
		},
		Priority: []string{"test", "testing"},
	},
}

// GeneralDomain is the fallback domain when no vocabulary scores positively.
const GeneralDomain = "general"
