// Package truthfile implements the business truth-file rules: required
// fields per lifecycle stage, the quote-to-order conversion gate, canonical
// folder paths, product count continuity and communication patterns.
package truthfile

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRulesYAML []byte

// Rules is the configurable part of the truth file.
type Rules struct {
	Version       string              `yaml:"version" json:"version"`
	Required      []string            `yaml:"required" json:"required"`
	Stages        map[string][]string `yaml:"stages" json:"stages"`
	Conversion    []string            `yaml:"conversion" json:"conversion"`
	DeliveryTypes []string            `yaml:"deliveryTypes" json:"deliveryTypes"`
	Paths         PathRules           `yaml:"paths" json:"paths"`
	Folders       []string            `yaml:"folders" json:"folders"`
}

// PathRules holds the document library roots.
type PathRules struct {
	ActiveRoot    string `yaml:"activeRoot" json:"activeRoot"`
	CompletedRoot string `yaml:"completedRoot" json:"completedRoot"`
	MonthRoot     string `yaml:"monthRoot" json:"monthRoot"`
}

// DefaultRules returns the built-in rules.
func DefaultRules() *Rules {
	rules, err := ParseRules(defaultRulesYAML)
	if err != nil {
		// Embedded at build time; unreachable unless the file is broken.
		panic(fmt.Sprintf("truthfile: embedded rules: %v", err))
	}
	return rules
}

// ParseRules decodes YAML on top of an empty rule set and validates it.
func ParseRules(data []byte) (*Rules, error) {
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// LoadRules reads a YAML file and overlays it onto the defaults. Keys absent
// from the file keep their default value. An empty path returns the defaults.
func LoadRules(path string) (*Rules, error) {
	rules := DefaultRules()
	if path == "" {
		return rules, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("parse rules %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("rules %s: %w", path, err)
	}
	return rules, nil
}

// Validate checks the rule set is usable.
func (r *Rules) Validate() error {
	if len(r.Required) == 0 && len(r.Stages) == 0 {
		return fmt.Errorf("rules: no required fields configured")
	}
	if len(r.DeliveryTypes) == 0 {
		return fmt.Errorf("rules: no delivery types configured")
	}
	if r.Paths.ActiveRoot == "" || r.Paths.MonthRoot == "" {
		return fmt.Errorf("rules: activeRoot and monthRoot are required")
	}
	return nil
}

// RequiredFor returns the required field list for a stage, falling back to
// the global list.
func (r *Rules) RequiredFor(stage string) []string {
	if fields, ok := r.Stages[stage]; ok && len(fields) > 0 {
		return fields
	}
	return r.Required
}
