// Package categories files ingredient names under shopping categories using
// an ordered keyword table.
package categories

import (
	_ "embed"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/angelmondragon/larder-backend/internal/ingredients"
	"github.com/angelmondragon/larder-backend/pkg/enums"
)

//go:embed rules.yaml
var defaultRules []byte

// Rule maps keywords to a category. Keywords match any substring of a name;
// Words must equal one whole word of it.
type Rule struct {
	Category enums.Category `yaml:"category"`
	Keywords []string       `yaml:"keywords"`
	Words    []string       `yaml:"words"`
}

type ruleSet struct {
	Rules []Rule `yaml:"rules"`
}

// Classifier evaluates rules in declaration order; the first match wins.
type Classifier struct {
	rules []Rule
}

// New validates and normalizes the rules.
func New(rules []Rule) (*Classifier, error) {
	normalized := make([]Rule, 0, len(rules))
	for i, rule := range rules {
		if !rule.Category.IsValid() || rule.Category == enums.CategoryOther {
			return nil, fmt.Errorf("rule %d: invalid category %q", i, rule.Category)
		}
		r := Rule{Category: rule.Category}
		for _, kw := range rule.Keywords {
			if kw = fold(strings.TrimSpace(kw)); kw != "" {
				r.Keywords = append(r.Keywords, kw)
			}
		}
		for _, w := range rule.Words {
			if w = fold(strings.TrimSpace(w)); w != "" {
				r.Words = append(r.Words, w)
			}
		}
		if len(r.Keywords) == 0 && len(r.Words) == 0 {
			return nil, fmt.Errorf("rule %d (%s): no keywords", i, rule.Category)
		}
		normalized = append(normalized, r)
	}
	return &Classifier{rules: normalized}, nil
}

// Load decodes a YAML rule table.
func Load(r io.Reader) (*Classifier, error) {
	var set ruleSet
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&set); err != nil {
		return nil, fmt.Errorf("decode category rules: %w", err)
	}
	return New(set.Rules)
}

// LoadFile reads a YAML rule table from disk. An empty path yields Default.
func LoadFile(path string) (*Classifier, error) {
	if path == "" {
		return Default(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open category rules: %w", err)
	}
	defer f.Close()
	return Load(f)
}

var (
	defaultOnce       sync.Once
	defaultClassifier *Classifier
)

// Default returns the classifier built from the embedded rule table.
func Default() *Classifier {
	defaultOnce.Do(func() {
		c, err := Load(strings.NewReader(string(defaultRules)))
		if err != nil {
			panic(fmt.Sprintf("embedded category rules: %v", err))
		}
		defaultClassifier = c
	})
	return defaultClassifier
}

// Classify uses the default rule table.
func Classify(name string) enums.Category {
	return Default().Classify(name)
}

// Classify never fails; names matching no rule are Other.
func (c *Classifier) Classify(name string) enums.Category {
	if c == nil {
		return enums.CategoryOther
	}
	lowered := fold(strings.TrimSpace(name))
	if lowered == "" {
		return enums.CategoryOther
	}
	words := strings.FieldsFunc(lowered, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, rule := range c.rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lowered, kw) {
				return rule.Category
			}
		}
		for _, w := range rule.Words {
			for _, candidate := range words {
				if candidate == w {
					return rule.Category
				}
			}
		}
	}
	return enums.CategoryOther
}

// fold lower-cases s with Turkish casing and then drops the dotted/dotless i
// distinction, so "ISPANAK", "Ispanak" and "ıspanak" compare equal.
func fold(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case 'ı':
			return 'i'
		case '\u0307':
			return -1
		}
		return r
	}, ingredients.Lower(s))
}

// Categories lists the rule categories in evaluation order.
func (c *Classifier) Categories() []enums.Category {
	out := make([]enums.Category, 0, len(c.rules))
	for _, rule := range c.rules {
		out = append(out, rule.Category)
	}
	return out
}
