package discovery

import "strings"

// MatchKind says how a user term was mapped onto a remote value.
type MatchKind string

const (
	MatchExact     MatchKind = "exact"
	MatchSubstring MatchKind = "substring"
	MatchSynonym   MatchKind = "synonym"
	MatchNone      MatchKind = "none"
)

// synonymGroups are tried in order, so a term in several groups prefers
// the earlier one.
var synonymGroups = [][]string{
	{"active", "production", "enabled", "on", "running", "ongoing", "live", "in production"},
	{"inactive", "obsolete", "disabled", "off", "stopped", "retired", "decommissioned"},
	{"open", "ongoing", "new", "assigned", "pending", "active"},
	{"closed", "resolved", "done", "completed", "finished", "implemented"},
	{"pending", "waiting", "on hold", "waiting_for_approval"},
	{"stock", "spare", "in stock", "available"},
	{"implementation", "deploying", "in progress"},
	{"yes", "true", "y"},
	{"no", "false", "n"},
}

// FindBestValueMatch maps term onto one of values: an exact
// case-insensitive match first, then containment in either direction,
// then the synonym groups. Without a match the term comes back unchanged
// with MatchNone.
func FindBestValueMatch(term string, values []string) (string, MatchKind) {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" || len(values) == 0 {
		return term, MatchNone
	}

	for _, v := range values {
		if strings.ToLower(v) == t {
			return v, MatchExact
		}
	}
	for _, v := range values {
		lv := strings.ToLower(v)
		if lv == "" {
			continue
		}
		if (strings.Contains(lv, t) && !negates(lv, t)) || (strings.Contains(t, lv) && !negates(t, lv)) {
			return v, MatchSubstring
		}
	}
	for _, group := range synonymGroups {
		if !contains(group, t) {
			continue
		}
		for _, v := range values {
			if contains(group, strings.ToLower(v)) {
				return v, MatchSynonym
			}
		}
	}
	return term, MatchNone
}

var negationPrefixes = []string{"in", "un", "non", "non-", "not ", "not_", "dis"}

// negates reports whether outer is inner with a negating prefix, as in
// "inactive" for "active".
func negates(outer, inner string) bool {
	i := strings.Index(outer, inner)
	for _, p := range negationPrefixes {
		if i >= len(p) && outer[i-len(p):i] == p {
			return true
		}
	}
	return false
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}
