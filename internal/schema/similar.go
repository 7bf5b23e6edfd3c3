package schema

import "strings"

// fieldAliases maps user vocabulary to the usual iTop field names.
var fieldAliases = map[string][]string{
	"state":        {"status", "operational_status"},
	"status":       {"status", "operational_status"},
	"organization": {"org_name", "organization_name"},
	"organisation": {"org_name", "organization_name"},
	"org":          {"org_name"},
	"company":      {"org_name"},
	"team":         {"team_name", "owner_friendlyname"},
	"agent":        {"agent_name"},
	"assignee":     {"agent_name"},
	"caller":       {"caller_name"},
	"requester":    {"caller_name"},
	"created":      {"start_date", "creation_date"},
	"start_date":   {"creation_date", "move2production"},
	"opened":       {"start_date"},
	"updated":      {"last_update"},
	"last_update":  {"last_update"},
	"closed":       {"close_date"},
	"resolved":     {"resolution_date"},
	"type":         {"finalclass", "type"},
	"location":     {"location_name"},
	"owner":        {"owner_friendlyname"},
	"os":           {"osfamily_name"},
	"criticality":  {"business_criticity"},
	"title":        {"title", "name"},
	"name":         {"name", "friendlyname"},
}

// genericTokens are too common to link two field names on their own.
var genericTokens = map[string]bool{"name": true, "friendlyname": true, "id": true, "list": true}

const (
	scoreExact   = 1.0
	scoreAlias   = 0.9
	scorePartial = 0.6
)

// FindSemanticallySimilarField maps a user term or guessed field name to
// an existing field. It tries an exact match, then the alias table, then
// shared underscore-separated tokens.
func FindSemanticallySimilarField(term string, fields []string) (string, float64, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" || len(fields) == 0 {
		return "", 0, false
	}
	present := make(map[string]string, len(fields))
	for _, f := range fields {
		present[strings.ToLower(f)] = f
	}

	if f, ok := present[term]; ok {
		return f, scoreExact, true
	}
	for _, alias := range fieldAliases[term] {
		if f, ok := present[alias]; ok {
			return f, scoreAlias, true
		}
	}

	termTokens := strings.Split(term, "_")
	for _, f := range fields {
		for _, tok := range strings.Split(strings.ToLower(f), "_") {
			if len(tok) < 3 || genericTokens[tok] {
				continue
			}
			for _, tt := range termTokens {
				if len(tt) >= 3 && !genericTokens[tt] && (strings.HasPrefix(tok, tt) || strings.HasPrefix(tt, tok)) {
					return f, scorePartial, true
				}
			}
		}
	}
	return "", 0, false
}

// WithoutIDFields drops id and foreign-key fields. Text matches such as
// LIKE filters must not land on them.
func WithoutIDFields(fields []string) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "id" || strings.HasSuffix(f, "_id") {
			continue
		}
		out = append(out, f)
	}
	return out
}
