// Package extract reads filters, grouping and comparison structure out of
// a natural-language query for one class.
package extract

import (
	"regexp"
	"strings"
	"time"

	"github.com/alexanderramin/itopnl/internal/classify"
	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
	"github.com/alexanderramin/itopnl/internal/schema"
)

// Input is what every matcher sees. Text is lowercased; Raw keeps the
// caller's casing for quoted names.
type Input struct {
	Raw     string
	Text    string
	Profile *entity.Profile
	Now     time.Time
}

// matcher yields at most one predicate and has no side effects.
type matcher struct {
	name  string
	match func(in Input) (domain.Predicate, bool)
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithClock fixes the time used for relative date phrases.
func WithClock(now func() time.Time) Option {
	return func(e *Extractor) {
		if now != nil {
			e.now = now
		}
	}
}

// Extractor turns query text into a QueryIntent.
type Extractor struct {
	now func() time.Time
}

func New(opts ...Option) *Extractor {
	e := &Extractor{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var (
	slaAnalysisRe = regexp.MustCompile(`\bsla\b|\bon time\b|\boverdue\b|\bbreach`)
	newestRe      = regexp.MustCompile(`\b(?:latest|newest|most recent|recent)\b`)
	oldestRe      = regexp.MustCompile(`\boldest\b`)
	// "by caller 'Ann'" names a filter, so it must not read as grouping.
	quotedByRe = regexp.MustCompile(`\b(?:by|per)\s+[a-z]+\s+(?:"[^"]*"|'[^']*')`)
)

// Extract builds the intent for query against profile. When s is not
// empty, filters on fields the class lacks are remapped to a similar field
// or dropped, with a note either way.
func (e *Extractor) Extract(query string, profile *entity.Profile, s domain.ClassSchema) domain.QueryIntent {
	in := Input{
		Raw:     strings.TrimSpace(query),
		Text:    strings.ToLower(strings.TrimSpace(query)),
		Profile: profile,
		Now:     e.now(),
	}

	intent := domain.QueryIntent{
		Action:      classify.ActionOf(quotedByRe.ReplaceAllString(in.Text, "")),
		SLAAnalysis: slaAnalysisRe.MatchString(in.Text),
	}

	for _, m := range matchersFor(profile) {
		if p, ok := m.match(in); ok {
			if p.Source == "" {
				p.Source = m.name
			}
			intent.Filters = append(intent.Filters, p)
		}
	}
	if word, ok := unmappedStatus(in); ok {
		intent.AddNote("status %q is not a known %s status; no status filter applied", word, profile.Class)
	}

	if g, ok := detectGrouping(in); ok {
		intent.Grouping = g
		if intent.Action == domain.ActionList {
			intent.Action = domain.ActionGroup
		}
	}

	if intent.Action == domain.ActionCompare {
		intent.Comparison = true
		if terms, ok := comparisonTerms(in.Text); ok {
			intent.ComparisonTerms = &terms
		}
	}

	field := profile.CreatedField
	if field == "" {
		field = "start_date"
	}
	switch {
	case newestRe.MatchString(in.Text):
		intent.Ordering = &domain.Ordering{Field: field, Descending: true}
	case oldestRe.MatchString(in.Text):
		intent.Ordering = &domain.Ordering{Field: field}
	}

	applySchema(&intent, s)
	return intent
}

// applySchema reconciles filter and grouping fields with the discovered
// schema. An empty schema leaves everything untouched.
func applySchema(intent *domain.QueryIntent, s domain.ClassSchema) {
	if s.Empty() {
		return
	}
	kept := intent.Filters[:0]
	for _, p := range intent.Filters {
		if s.HasField(p.Field) {
			kept = append(kept, p)
			continue
		}
		candidates := s.FieldNames
		if p.Operator == domain.OpLike {
			candidates = schema.WithoutIDFields(candidates)
		}
		if f, _, ok := schema.FindSemanticallySimilarField(p.Field, candidates); ok {
			intent.AddNote("filter field %s is not on %s; using %s", p.Field, s.ClassName, f)
			p.Field = f
			kept = append(kept, p)
			continue
		}
		intent.AddNote("dropped filter %s: %s has no such field", p.Describe(), s.ClassName)
	}
	intent.Filters = kept

	if intent.Grouping != "" && !s.HasField(intent.Grouping) {
		if f, _, ok := schema.FindSemanticallySimilarField(intent.Grouping, s.FieldNames); ok {
			intent.AddNote("grouping field %s is not on %s; using %s", intent.Grouping, s.ClassName, f)
			intent.Grouping = f
		} else {
			intent.AddNote("cannot group by %s: %s has no such field", intent.Grouping, s.ClassName)
			intent.Grouping = ""
		}
	}
	if intent.Ordering != nil && !s.HasField(intent.Ordering.Field) {
		intent.Ordering = nil
	}
}

func matchersFor(p *entity.Profile) []matcher {
	ms := []matcher{
		{name: "priority", match: matchPriority},
		{name: "status", match: matchStatus},
	}
	for _, nf := range p.NamedFilters {
		ms = append(ms, matcher{name: "named:" + nf.Label, match: namedFilterMatcher(nf)})
	}
	if p.TeamPhrases {
		ms = append(ms, matcher{name: "team", match: matchTeamPhrase})
	}
	ms = append(ms,
		matcher{name: "updated", match: matchNotUpdated},
		matcher{name: "time", match: matchCreatedWindow},
	)
	for _, r := range p.Extras {
		ms = append(ms, matcher{name: "extra:" + r.Name, match: extraMatcher(r)})
	}
	return ms
}
