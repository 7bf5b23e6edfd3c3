// Package entity holds the per-class configuration records that steer
// extraction, comparison and formatting for well-known iTop classes.
package entity

import (
	"sort"

	"github.com/alexanderramin/itopnl/internal/domain"
)

type Family string

const (
	FamilyTickets Family = "tickets"
	FamilyAssets  Family = "assets"
	FamilyPeople  Family = "people"
	FamilyGeneric Family = "generic"
)

// Term maps one trigger phrase to a literal.
type Term struct {
	Phrase string
	Value  string
}

// ExtraRule is a declarative class-specific filter. Terms are tried in
// order; with Single the first hit wins, otherwise every hit is collected
// and several distinct values become one IN predicate.
type ExtraRule struct {
	Name     string
	Field    string
	Operator domain.Operator
	Terms    []Term
	Single   bool
	// Requires lists phrases that must all appear for the rule to apply.
	Requires []string
	// Excludes lists phrases that disable the rule.
	Excludes []string
	Label    string
}

// NamedFilter matches a quoted name after one of its keywords, as in
// organization "Demo", and filters Field with LIKE.
type NamedFilter struct {
	Keywords []string
	Field    string
	Label    string
}

// SLAFields names the deadline flags on SLA-tracked classes. A "passed"
// flag of "yes" means the deadline was breached.
type SLAFields struct {
	ResolvePassed    string
	ResponsePassed   string
	ResolveDeadline  string
	ResponseDeadline string
}

// Profile configures how queries against one class are read and shown.
type Profile struct {
	Class  string
	Title  string
	Family Family
	Emoji  string

	// Nouns are words that name objects of the class; a status word in
	// front of one ("closed tickets") is read as a status filter.
	Nouns []string

	StatusField string
	// StatusValues maps a status concept to the literal values it covers.
	// Nil means the class has no known table.
	StatusValues map[string][]string
	// StatusAnywhere lets a status word apply without an adjacent noun.
	StatusAnywhere bool

	PriorityField string
	CreatedField  string
	UpdatedField  string
	SLA           *SLAFields

	NamedFilters []NamedFilter
	// TeamPhrases enables unquoted team phrases ("assigned to network team").
	TeamPhrases bool
	Extras      []ExtraRule

	// GroupFields maps a grouping concept to the class field.
	GroupFields map[string]string

	// DetailFields is the output field list for detailed listings; empty
	// means every field ("*+").
	DetailFields []string
	// DetailLimit caps rendered detail rows; zero means no cap.
	DetailLimit int
	// HighlightFields are shown for each record in detailed listings of
	// classes without a dedicated layout.
	HighlightFields []string
	// SplitByFinalClass renders detailed results grouped by finalclass.
	SplitByFinalClass bool

	// PriorityDelegate names the class that takes over queries carrying
	// priority wording, for classes without a priority field.
	PriorityDelegate string
	// DelegateNouns are rewritten to the delegate's wording.
	DelegateNouns map[string]string

	// ClosedSides and OpenSides define the closed-vs-open comparison.
	ClosedSides []domain.Predicate
	OpenSides   []domain.Predicate

	ToolName        string
	ToolDescription string

	Generic bool
}

// HasStatusTable reports whether the class carries an explicit status table.
func (p *Profile) HasStatusTable() bool { return len(p.StatusValues) > 0 }

// StatusConcepts returns the table keys in sorted order.
func (p *Profile) StatusConcepts() []string {
	out := make([]string, 0, len(p.StatusValues))
	for k := range p.StatusValues {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// StatusRange returns every literal value the status table can produce.
func (p *Profile) StatusRange() map[string]bool {
	out := make(map[string]bool)
	for _, vals := range p.StatusValues {
		for _, v := range vals {
			out[v] = true
		}
	}
	return out
}

// GroupField resolves a grouping concept to a field, falling back to the
// shared defaults.
func (p *Profile) GroupField(concept string) (string, bool) {
	if f, ok := p.GroupFields[concept]; ok {
		return f, true
	}
	if concept == "status" && p.StatusField != "" {
		return p.StatusField, true
	}
	f, ok := defaultGroupFields[concept]
	return f, ok
}

var defaultGroupFields = map[string]string{
	"status":       "status",
	"priority":     "priority",
	"organization": "org_name",
	"team":         "team_name",
	"agent":        "agent_name",
	"type":         "finalclass",
	"caller":       "caller_name",
	"location":     "location_name",
}

// Registry resolves class names to profiles.
type Registry struct {
	profiles map[string]*Profile
	order    []string
}

// NewRegistry builds a registry over the given profiles in listing order.
func NewRegistry(profiles ...*Profile) *Registry {
	r := &Registry{profiles: make(map[string]*Profile, len(profiles))}
	for _, p := range profiles {
		r.profiles[p.Class] = p
		r.order = append(r.order, p.Class)
	}
	return r
}

// DefaultRegistry returns the built-in profiles.
func DefaultRegistry() *Registry {
	return NewRegistry(builtinProfiles()...)
}

// Lookup returns the profile for class, or a generic profile when the
// class has no dedicated configuration.
func (r *Registry) Lookup(class string) *Profile {
	if p, ok := r.profiles[class]; ok {
		return p
	}
	return genericProfile(class)
}

// Known reports whether class has a dedicated profile.
func (r *Registry) Known(class string) bool {
	_, ok := r.profiles[class]
	return ok
}

// All returns dedicated profiles in registration order.
func (r *Registry) All() []*Profile {
	out := make([]*Profile, 0, len(r.order))
	for _, c := range r.order {
		out = append(out, r.profiles[c])
	}
	return out
}
