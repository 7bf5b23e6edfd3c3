package domain

import (
	"fmt"
	"strings"
)

type Operator string

const (
	OpEqual        Operator = "="
	OpNotEqual     Operator = "!="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpLike         Operator = "LIKE"
	OpIn           Operator = "IN"
	OpIsNull       Operator = "IS NULL"
)

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

type Action string

const (
	ActionList    Action = "list"
	ActionCount   Action = "count"
	ActionGroup   Action = "group"
	ActionCompare Action = "compare"
	ActionStats   Action = "stats"
)

// Predicate is one filter condition on a remote class field.
type Predicate struct {
	Field    string
	Operator Operator
	// Value holds the literal for scalar operators. LIKE values carry
	// their own wildcards.
	Value string
	// Values holds the members of an IN list.
	Values []string

	DisplayName string
	Confidence  Confidence

	// NeedsValueDiscovery marks a literal that was guessed from the user's
	// wording and has not been checked against values the remote holds.
	NeedsValueDiscovery bool

	// Source tags which matcher produced the predicate.
	Source string
}

// Members returns every literal the predicate compares against.
func (p Predicate) Members() []string {
	if p.Operator == OpIn {
		return p.Values
	}
	if p.Operator == OpIsNull {
		return nil
	}
	return []string{p.Value}
}

// Describe renders the predicate for human disclosure.
func (p Predicate) Describe() string {
	label := p.DisplayName
	if label == "" {
		label = p.Field
	}
	switch p.Operator {
	case OpIn:
		return fmt.Sprintf("%s in (%s)", label, strings.Join(p.Values, ", "))
	case OpIsNull:
		return label + " is empty"
	default:
		return fmt.Sprintf("%s %s %s", label, p.Operator, p.Value)
	}
}

type Ordering struct {
	Field      string
	Descending bool
}

// QueryIntent is the structured reading of one natural-language request.
type QueryIntent struct {
	Action          Action
	Filters         []Predicate
	Grouping        string
	Comparison      bool
	ComparisonTerms *[2]string
	SLAAnalysis     bool
	Ordering        *Ordering

	// Notes are disclosures about filters that were skipped, remapped,
	// dropped or corrected on the way to the final query.
	Notes []string
}

// Unverified returns the filters still waiting on value discovery.
func (qi QueryIntent) Unverified() []Predicate {
	var out []Predicate
	for _, p := range qi.Filters {
		if p.NeedsValueDiscovery {
			out = append(out, p)
		}
	}
	return out
}

// AddNote appends a disclosure line.
func (qi *QueryIntent) AddNote(format string, args ...any) {
	qi.Notes = append(qi.Notes, fmt.Sprintf(format, args...))
}

type OutputFormat string

const (
	FormatDetailed OutputFormat = "detailed"
	FormatSummary  OutputFormat = "summary"
	FormatTable    OutputFormat = "table"
	FormatJSON     OutputFormat = "json"
)

// ValidOutputFormats lists the accepted format selectors in display order.
var ValidOutputFormats = []OutputFormat{FormatDetailed, FormatSummary, FormatTable, FormatJSON}

// ParseOutputFormat accepts a case-insensitive selector. Empty means detailed.
func ParseOutputFormat(s string) (OutputFormat, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return FormatDetailed, nil
	}
	for _, f := range ValidOutputFormats {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown output format %q (want detailed, summary, table or json)", s)
}
