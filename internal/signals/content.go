package signals

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trustscope/trustscope/internal/score"
)

//go:embed rules.yaml
var defaultRules []byte

// RuleFile is the YAML layout of a content rule pack
type RuleFile struct {
	Flags []struct {
		Name     string   `yaml:"name"`
		Patterns []string `yaml:"patterns"`
	} `yaml:"flags"`
}

type flagRule struct {
	name     string
	patterns []*regexp.Regexp
}

// ContentAnalyzer flags suspicious phrases in page or posting text
type ContentAnalyzer struct {
	rules []flagRule
}

// NewContentAnalyzer loads the rule pack at path, or the built-in pack when path is empty
func NewContentAnalyzer(path string) (*ContentAnalyzer, error) {
	data := defaultRules
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read content rules: %w", err)
		}
	}
	return ParseContentRules(data)
}

// ParseContentRules compiles a YAML rule pack
func ParseContentRules(data []byte) (*ContentAnalyzer, error) {
	var file RuleFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse content rules: %w", err)
	}

	a := &ContentAnalyzer{}
	for _, f := range file.Flags {
		if f.Name == "" {
			return nil, fmt.Errorf("content rule without a name")
		}
		r := flagRule{name: f.Name}
		for _, p := range f.Patterns {
			re, err := regexp.Compile("(?i)" + p)
			if err != nil {
				return nil, fmt.Errorf("compile pattern for %s: %w", f.Name, err)
			}
			r.patterns = append(r.patterns, re)
		}
		a.rules = append(a.rules, r)
	}
	return a, nil
}

func (a *ContentAnalyzer) Name() string { return score.SignalContentFlags }

// Collect reports matched flags in rule pack order
func (a *ContentAnalyzer) Collect(ctx context.Context, target Target) (score.SignalValue, error) {
	if strings.TrimSpace(target.Content) == "" {
		return score.SignalValue{}, ErrNoData
	}
	return score.SignalValue{Kind: "content", Flags: a.Match(ExtractText(target.Content))}, nil
}

// Match returns the names of all flags whose patterns occur in text
func (a *ContentAnalyzer) Match(text string) []string {
	flags := make([]string, 0)
	for _, r := range a.rules {
		for _, re := range r.patterns {
			if re.MatchString(text) {
				flags = append(flags, r.name)
				break
			}
		}
	}
	return flags
}
