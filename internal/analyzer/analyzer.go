package analyzer

import (
	"sort"
	"strings"

	"github.com/ShayCichocki/orchid/pkg/models"
)

// Analyzer classifies task descriptions. It never fails: malformed or empty
// input produces a best-effort simple/general analysis.
type Analyzer struct {
	complexity   ComplexityKeywords
	vocabularies []DomainVocabulary
}

// New creates an Analyzer with the default keyword sets.
func New() *Analyzer {
	return &Analyzer{
		complexity:   DefaultComplexityKeywords,
		vocabularies: DefaultDomainVocabularies,
	}
}

// Analyze classifies the description into a complexity tier and ranked
// domains, and extracts requirement fragments for the decomposer.
func (a *Analyzer) Analyze(description string) *models.TaskAnalysis {
	lower := strings.ToLower(description)

	complexity := a.classifyComplexity(lower)
	domains := a.scoreDomains(lower)
	requirements := extractRequirements(description)
	requiresDecomposition := complexity == models.ComplexityMedium || complexity == models.ComplexityComplex

	return &models.TaskAnalysis{
		Description:           description,
		Complexity:            complexity,
		Domains:               domains,
		RequiresDecomposition: requiresDecomposition,
		EstimatedSubtasks:     estimateSubtasks(complexity, requirements),
		Requirements:          requirements,
	}
}

// classifyComplexity applies the tier rules in order:
// any complex keyword or more than three distinct action verbs -> complex,
// at least one action verb and no simple keyword -> medium,
// otherwise -> simple.
func (a *Analyzer) classifyComplexity(lower string) models.Complexity {
	for _, kw := range a.complexity.Complex {
		if strings.Contains(lower, kw) {
			return models.ComplexityComplex
		}
	}

	verbs := 0
	for _, verb := range a.complexity.ActionVerbs {
		if strings.Contains(lower, verb) {
			verbs++
		}
	}
	if verbs > 3 {
		return models.ComplexityComplex
	}

	hasSimple := false
	for _, kw := range a.complexity.Simple {
		if strings.Contains(lower, kw) {
			hasSimple = true
			break
		}
	}
	if verbs >= 1 && !hasSimple {
		return models.ComplexityMedium
	}

	return models.ComplexitySimple
}

// scoreDomains ranks domains by keyword hit count plus priority bonuses.
// Ties keep vocabulary declaration order; a positive score is required to
// appear at all, and "general" is the fallback when nothing scores.
func (a *Analyzer) scoreDomains(lower string) []string {
	type scored struct {
		name  string
		score int
	}

	var hits []scored
	for _, vocab := range a.vocabularies {
		score := 0
		for _, kw := range vocab.Keywords {
			if strings.Contains(lower, kw) {
				score++
			}
		}
		for _, kw := range vocab.Priority {
			if strings.Contains(lower, kw) {
				score += priorityBonus
			}
		}
		if score > 0 {
			hits = append(hits, scored{name: vocab.Name, score: score})
		}
	}

	if len(hits) == 0 {
		return []string{GeneralDomain}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].score > hits[j].score
	})

	domains := make([]string, len(hits))
	for i, h := range hits {
		domains[i] = h.name
	}
	return domains
}

// estimateSubtasks is a rough count used for progress hints only; the
// decomposer decides the real subtask set.
func estimateSubtasks(complexity models.Complexity, requirements []string) int {
	switch complexity {
	case models.ComplexitySimple:
		return 1
	case models.ComplexityComplex:
		if len(requirements) > 5 {
			return 5
		}
		if len(requirements) > 3 {
			return len(requirements)
		}
		return 5
	default:
		return 3
	}
}

// requirementSeparators split a description into candidate fragments.
var requirementSeparators = []string{". ", "; ", ", ", " and ", " then ", "\n"}

// extractRequirements slices the description into trimmed fragments. Short
// fragments (under three characters) are noise and dropped.
func extractRequirements(description string) []string {
	fragments := []string{description}
	for _, sep := range requirementSeparators {
		var next []string
		for _, frag := range fragments {
			next = append(next, strings.Split(frag, sep)...)
		}
		fragments = next
	}

	var requirements []string
	for _, frag := range fragments {
		cleaned := strings.Trim(strings.TrimSpace(frag), ".,;")
		if len(cleaned) < 3 {
			continue
		}
		requirements = append(requirements, cleaned)
	}
	return requirements
}
