package analyze

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// rulesFile is the YAML shape of a user-provided detection table. A rule with
// a start expression becomes a MultilineRule; otherwise patterns are required
// and it becomes a SimpleRule.
type rulesFile struct {
	Rules []ruleSpec `yaml:"rules"`
}

type ruleSpec struct {
	Type         string   `yaml:"type"`
	Label        string   `yaml:"label"`
	Icon         string   `yaml:"icon"`
	Patterns     []string `yaml:"patterns"`
	Start        string   `yaml:"start"`
	Continuation string   `yaml:"continuation"`
	Collapse     bool     `yaml:"collapse"`
	MaxShow      int      `yaml:"max_show"`
}

// LoadRules reads a rule table from a YAML file. A missing file falls back to
// the built-in table; a present but broken file is an error, since silently
// ignoring a user's rules would be worse than refusing to start.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("read rules file: %w", err)
	}

	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse rules file: %w", err)
	}
	if len(file.Rules) == 0 {
		return DefaultRules(), nil
	}

	rules := make([]Rule, 0, len(file.Rules))
	for _, spec := range file.Rules {
		rule, err := compileRule(spec)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Type, err)
		}
		rules = append(rules, rule)
	}
	if err := Validate(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

func compileRule(spec ruleSpec) (Rule, error) {
	meta := RuleMeta{
		Type:     spec.Type,
		Label:    spec.Label,
		Icon:     spec.Icon,
		Collapse: spec.Collapse,
		MaxShow:  spec.MaxShow,
	}
	if meta.Label == "" {
		meta.Label = meta.Type
	}

	if spec.Start != "" {
		if len(spec.Patterns) > 0 {
			return nil, fmt.Errorf("start and patterns are mutually exclusive")
		}
		start, err := regexp.Compile(spec.Start)
		if err != nil {
			return nil, fmt.Errorf("compile start: %w", err)
		}
		rule := &MultilineRule{RuleMeta: meta, Start: start}
		if spec.Continuation != "" {
			cont, err := regexp.Compile(spec.Continuation)
			if err != nil {
				return nil, fmt.Errorf("compile continuation: %w", err)
			}
			rule.Continuation = cont
		}
		return rule, nil
	}

	if len(spec.Patterns) == 0 {
		return nil, fmt.Errorf("needs patterns or start")
	}
	patterns := make([]*regexp.Regexp, 0, len(spec.Patterns))
	for _, p := range spec.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("compile pattern %q: %w", p, err)
		}
		patterns = append(patterns, re)
	}
	return &SimpleRule{RuleMeta: meta, Patterns: patterns}, nil
}
