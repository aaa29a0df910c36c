package models

import "testing"

func TestComplexity_Weight(t *testing.T) {
	tests := []struct {
		name       string
		complexity Complexity
		want       int
	}{
		{"simple weighs 5", ComplexitySimple, 5},
		{"medium weighs 15", ComplexityMedium, 15},
		{"complex weighs 30", ComplexityComplex, 30},
		{"unknown falls back to medium", Complexity("huge"), 15},
		{"empty falls back to medium", Complexity(""), 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.complexity.Weight(); got != tt.want {
				t.Errorf("Complexity(%q).Weight() = %d, want %d", tt.complexity, got, tt.want)
			}
		})
	}
}

func TestComplexity_Valid(t *testing.T) {
	tests := []struct {
		complexity Complexity
		want       bool
	}{
		{ComplexitySimple, true},
		{ComplexityMedium, true},
		{ComplexityComplex, true},
		{Complexity(""), false},
		{Complexity("trivial"), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.complexity), func(t *testing.T) {
			if got := tt.complexity.Valid(); got != tt.want {
				t.Errorf("Complexity(%q).Valid() = %v, want %v", tt.complexity, got, tt.want)
			}
		})
	}
}

func TestTaskAnalysis_PrimaryDomain(t *testing.T) {
	tests := []struct {
		name    string
		domains []string
		want    string
	}{
		{"first domain wins", []string{"development", "devops"}, "development"},
		{"single domain", []string{"research"}, "research"},
		{"no domains falls back to general", nil, "general"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &TaskAnalysis{Domains: tt.domains}
			if got := a.PrimaryDomain(); got != tt.want {
				t.Errorf("PrimaryDomain() = %q, want %q", got, tt.want)
			}
		})
	}
}
