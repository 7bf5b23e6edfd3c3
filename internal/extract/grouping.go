package extract

import (
	"regexp"
	"strings"
)

// groupConcepts maps grouping wording to profile grouping concepts.
var groupConcepts = map[string]string{
	"status": "status", "state": "status", "statuses": "status",
	"priority": "priority", "priorities": "priority",
	"organization": "organization", "organisation": "organization", "org": "organization",
	"company": "organization", "customer": "organization",
	"team": "team", "teams": "team",
	"agent": "agent", "assignee": "agent", "agents": "agent",
	"type": "type", "category": "type", "class": "type", "kind": "type",
	"caller": "caller", "requester": "caller",
	"location": "location", "site": "location",
	"os": "os", "operating system": "os",
	"criticality": "criticality",
	"brand":       "brand", "manufacturer": "brand", "vendor": "brand",
	"model": "model",
	"rack":  "rack",
	"host":  "host", "virtual host": "host", "hypervisor": "host",
	"function": "function", "role": "function",
	"parent":         "parent",
	"delivery model": "delivery model",
	"user":           "user",
	"owner":          "owner",
}

var (
	groupByRe = regexp.MustCompile(`\b(?:group(?:ed)? by|breakdown by|break down by|split by|per|by)\s+([a-z]+)(?:\s+([a-z]+))?`)
	wiseRe    = regexp.MustCompile(`\b([a-z]+)[\s-]wise\b`)
)

// detectGrouping finds a "by <concept>" or "<concept> wise" phrase and
// resolves it through the profile. Phrases followed by a quoted name
// ("by caller 'Ann'") are filters, not groupings.
func detectGrouping(in Input) (string, bool) {
	for _, idx := range groupByRe.FindAllStringSubmatchIndex(in.Text, -1) {
		first := in.Text[idx[2]:idx[3]]
		rest := strings.TrimSpace(in.Text[idx[3]:])
		if strings.HasPrefix(rest, `"`) || strings.HasPrefix(rest, `'`) {
			continue
		}
		if idx[4] >= 0 {
			two := first + " " + in.Text[idx[4]:idx[5]]
			if f, ok := resolveGroup(in, two); ok {
				return f, true
			}
		}
		if f, ok := resolveGroup(in, first); ok {
			return f, true
		}
	}
	if m := wiseRe.FindStringSubmatch(in.Text); m != nil {
		return resolveGroup(in, m[1])
	}
	return "", false
}

func resolveGroup(in Input, word string) (string, bool) {
	concept, ok := groupConcepts[word]
	if !ok {
		return "", false
	}
	return in.Profile.GroupField(concept)
}

var (
	versusRe  = regexp.MustCompile(`\b(?:(not)\s+)?([a-z_]+)\s+(?:vs\.?|versus|v/s|compared to)\s+(?:(not)\s+)?([a-z_]+)`)
	compareRe = regexp.MustCompile(`\bcompare\s+(?:the\s+)?(?:(not)\s+)?([a-z_]+)\s+(?:and|with|to|against)\s+(?:(not)\s+)?([a-z_]+)`)
)

// comparisonTerms pulls the two sides out of "x vs y" or "compare x and y".
func comparisonTerms(q string) ([2]string, bool) {
	for _, re := range []*regexp.Regexp{versusRe, compareRe} {
		m := re.FindStringSubmatch(q)
		if m == nil {
			continue
		}
		left, right := m[2], m[4]
		if m[1] != "" {
			left = "not " + left
		}
		if m[3] != "" {
			right = "not " + right
		}
		return [2]string{left, right}, true
	}
	return [2]string{}, false
}
