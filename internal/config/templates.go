package config

import (
	"fmt"
	"os"

	yaml "go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/orchid/internal/decompose"
)

// templateFile is the on-disk shape of a domain template file.
type templateFile struct {
	Templates []decompose.Template `yaml:"templates"`
}

// LoadTemplates reads a domain template file and merges it over the built-in
// templates: a file entry replaces the built-in template for its domain, and
// new domains are added. Built-ins stay untouched for domains the file does
// not mention.
func LoadTemplates(path string) (map[string]decompose.Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read templates %s: %w", path, err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse templates %s: %w", path, err)
	}

	merged := decompose.BuiltinTemplates()
	for _, tmpl := range file.Templates {
		if tmpl.Domain == "" {
			return nil, fmt.Errorf("parse templates %s: template without a domain", path)
		}
		if len(tmpl.Phases) == 0 {
			return nil, fmt.Errorf("parse templates %s: domain %s has no phases", path, tmpl.Domain)
		}
		for i, phase := range tmpl.Phases {
			if phase.Description == "" {
				return nil, fmt.Errorf("parse templates %s: domain %s phase %d has no description", path, tmpl.Domain, i+1)
			}
			if !phase.Complexity.Valid() {
				return nil, fmt.Errorf("parse templates %s: domain %s phase %d: unknown complexity %q", path, tmpl.Domain, i+1, phase.Complexity)
			}
		}
		merged[tmpl.Domain] = tmpl
	}
	return merged, nil
}
