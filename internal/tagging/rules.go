package tagging

import (
	"fmt"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Rule pairs a regex pattern with the tag applied when the pattern matches.
type Rule struct {
	Pattern string `yaml:"pattern"`
	Tag     string `yaml:"tag"`
}

type compiledRule struct {
	pattern *regexp.Regexp
	tag     string
}

// DefaultRules returns the built-in rule set used when no rules file exists.
func DefaultRules() []Rule {
	return []Rule{
		{Pattern: "screenshot", Tag: "#screenshot"},
		{Pattern: "meeting", Tag: "#meeting"},
		{Pattern: "reminder|remind", Tag: "#reminder"},
		{Pattern: "todo|task", Tag: "#task"},
		{Pattern: `\.pdf\b`, Tag: "#document"},
		{Pattern: `receipt|invoice`, Tag: "#finance"},
		{Pattern: `recipe|ingredients`, Tag: "#recipe"},
	}
}

// LoadRules reads a YAML rules file. A missing file falls back to the
// defaults; a present but unparseable file is an error.
func LoadRules(path string) ([]Rule, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultRules(), nil
		}
		return nil, fmt.Errorf("read tagging rules %s: %w", path, err)
	}
	var doc struct {
		Rules []Rule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse tagging rules %s: %w", path, err)
	}
	return doc.Rules, nil
}

// compileRules drops rules with invalid patterns instead of failing the run.
func compileRules(rules []Rule, logger *slog.Logger) []compiledRule {
	compiled := make([]compiledRule, 0, len(rules))
	for _, rule := range rules {
		re, err := regexp.Compile("(?i)" + rule.Pattern)
		if err != nil {
			if logger != nil {
				logger.Warn("skipping invalid tagging rule",
					slog.String("pattern", rule.Pattern),
					slog.Any("error", err))
			}
			continue
		}
		compiled = append(compiled, compiledRule{pattern: re, tag: rule.Tag})
	}
	return compiled
}
