package discovery

import (
	"context"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/metrics"
)

// Correction records one literal replaced by a discovered value.
type Correction struct {
	Field string
	From  string
	To    string
	Kind  MatchKind
}

// Unresolved is a flagged predicate discovery could not settle.
type Unresolved struct {
	Predicate domain.Predicate
	Reason    string
}

// Report summarizes one Resolve pass.
type Report struct {
	Corrections []Correction
	Unresolved  []Unresolved
	// Profiles holds the value profiles fetched, keyed by field.
	Profiles map[string]domain.FieldValueProfile
}

// Resolve runs discovery for every flagged filter of intent. A predicate
// whose members all map onto sampled values is rewritten and marked
// verified; the rest stay flagged and are listed as unresolved. Each field
// is sampled once per pass.
func (e *Engine) Resolve(ctx context.Context, class string, intent *domain.QueryIntent, limit int) Report {
	rep := Report{Profiles: map[string]domain.FieldValueProfile{}}
	failed := map[string]string{}

	for i := range intent.Filters {
		p := &intent.Filters[i]
		if !p.NeedsValueDiscovery {
			continue
		}

		if reason, ok := failed[p.Field]; ok {
			rep.Unresolved = append(rep.Unresolved, Unresolved{Predicate: *p, Reason: reason})
			continue
		}
		prof, ok := rep.Profiles[p.Field]
		if !ok {
			var err error
			prof, err = e.DiscoverValues(ctx, class, p.Field, limit)
			if err != nil {
				e.logger.WarnContext(ctx, "value_discovery_failed", "class", class, "field", p.Field, "error", err.Error())
				failed[p.Field] = "value discovery failed: " + err.Error()
				rep.Unresolved = append(rep.Unresolved, Unresolved{Predicate: *p, Reason: failed[p.Field]})
				continue
			}
			rep.Profiles[p.Field] = prof
		}
		if len(prof.Values) == 0 {
			rep.Unresolved = append(rep.Unresolved, Unresolved{Predicate: *p, Reason: "no values sampled for " + p.Field})
			continue
		}

		members := p.Members()
		resolved := make([]string, 0, len(members))
		var pending []Correction
		best := MatchExact
		for _, m := range members {
			v, kind := FindBestValueMatch(m, prof.Values)
			metrics.RecordValueMatch(string(kind))
			if kind == MatchNone {
				resolved = nil
				break
			}
			if kind != MatchExact {
				best = kind
			}
			if v != m {
				pending = append(pending, Correction{Field: p.Field, From: m, To: v, Kind: kind})
			}
			resolved = append(resolved, v)
		}
		if resolved == nil {
			rep.Unresolved = append(rep.Unresolved, Unresolved{Predicate: *p, Reason: "no matching value among " + p.Field + " values"})
			continue
		}

		if p.Operator == domain.OpIn {
			p.Values = dedupe(resolved)
		} else {
			p.Value = resolved[0]
		}
		p.NeedsValueDiscovery = false
		p.Source = "discovered"
		p.Confidence = domain.ConfidenceMedium
		if best == MatchExact {
			p.Confidence = domain.ConfidenceHigh
		}
		for _, c := range pending {
			intent.AddNote("%s '%s' matched stored value '%s' (%s)", c.Field, c.From, c.To, c.Kind)
		}
		rep.Corrections = append(rep.Corrections, pending...)
	}
	return rep
}

func dedupe(vals []string) []string {
	seen := make(map[string]bool, len(vals))
	out := vals[:0]
	for _, v := range vals {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
