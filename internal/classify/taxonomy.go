package classify

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Category groups related classes with the keywords that point at them.
type Category struct {
	Group       string   `yaml:"group"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Classes     []string `yaml:"classes"`
	Keywords    []string `yaml:"keywords"`
}

// Taxonomy is the ordered category list used for keyword scoring.
type Taxonomy struct {
	Categories []Category

	classRe   map[string]*regexp.Regexp
	keywordRe map[string]*regexp.Regexp
}

// ParseTaxonomy decodes a YAML category list.
func ParseTaxonomy(data []byte) (*Taxonomy, error) {
	var cats []Category
	if err := yaml.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	if len(cats) == 0 {
		return nil, fmt.Errorf("parsing taxonomy: no categories")
	}
	t := &Taxonomy{
		Categories: cats,
		classRe:    make(map[string]*regexp.Regexp),
		keywordRe:  make(map[string]*regexp.Regexp),
	}
	for _, c := range cats {
		for _, class := range c.Classes {
			if _, ok := t.classRe[class]; !ok {
				t.classRe[class] = classNamePattern(class)
			}
		}
		for _, kw := range c.Keywords {
			if _, ok := t.keywordRe[kw]; !ok {
				t.keywordRe[kw] = regexp.MustCompile(`\b` + regexp.QuoteMeta(kw) + `\b`)
			}
		}
	}
	return t, nil
}

// classNamePattern matches a class name written compactly or split at its
// camel-case humps ("UserRequest", "user request"), plural allowed.
func classNamePattern(class string) *regexp.Regexp {
	forms := []string{regexp.QuoteMeta(strings.ToLower(class))}
	if split := splitCamel(class); split != strings.ToLower(class) {
		forms = append(forms, regexp.QuoteMeta(split))
	}
	return regexp.MustCompile(`\b(?:` + strings.Join(forms, "|") + `)(?:s|es)?\b`)
}

func splitCamel(s string) string {
	var b strings.Builder
	runes := []rune(s)
	for i, r := range runes {
		if i > 0 && r >= 'A' && r <= 'Z' && runes[i-1] >= 'a' && runes[i-1] <= 'z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return strings.ToLower(b.String())
}

// DefaultTaxonomy returns the embedded taxonomy.
func DefaultTaxonomy() *Taxonomy {
	t, err := ParseTaxonomy(defaultTaxonomy)
	if err != nil {
		panic(err)
	}
	return t
}

const (
	scoreClassName   = 60
	scorePerWord     = 15
	scoreExactPhrase = 30
)

type scored struct {
	class    string
	category string
	score    int
}

// best scores every class against q (lowercased) and returns the highest.
// Classes listed in several categories keep their best score.
func (t *Taxonomy) best(q string) (scored, bool) {
	trimmed := strings.TrimSpace(q)
	var top scored
	found := false
	for _, c := range t.Categories {
		kwScore := 0
		for _, kw := range c.Keywords {
			if !t.keywordRe[kw].MatchString(q) {
				continue
			}
			kwScore += len(strings.Fields(kw)) * scorePerWord
			if kw == trimmed {
				kwScore += scoreExactPhrase
			}
		}
		for _, class := range c.Classes {
			score := kwScore
			if t.classRe[class].MatchString(q) {
				score += scoreClassName
			}
			if score > 0 && (!found || score > top.score) {
				top = scored{class: class, category: c.Name, score: score}
				found = true
			}
		}
	}
	return top, found
}
