package classify

import (
	"regexp"
	"strings"

	"github.com/alexanderramin/itopnl/internal/domain"
)

var (
	comparisonRe = regexp.MustCompile(`\b(?:vs\.?|versus|compared to|compare|comparison)(?:\s|$)|\bv/s\b`)
	countRe      = regexp.MustCompile(`\b(?:count|how many|number of|total)\b`)
	statsRe      = regexp.MustCompile(`\b(?:stats|statistics)\b`)
)

var groupingWords = []string{
	"group by", "grouped by", "breakdown", "break down", "summary", "distribution",
	"org wise", "organization wise", "status wise", "priority wise", "team wise",
	"by organization", "by org", "by status", "by priority", "by team", "by agent",
	"by type", "by caller", "by location", "by brand", "by os", "by criticality",
	"by owner", "by rack", "by host", "by function", "by parent", "by user",
}

// ActionOf reads the requested action from a lowercased query.
// Comparison beats count, count beats grouping, grouping beats stats.
func ActionOf(q string) domain.Action {
	switch {
	case comparisonRe.MatchString(q):
		return domain.ActionCompare
	case countRe.MatchString(q):
		return domain.ActionCount
	case has(q, groupingWords...):
		return domain.ActionGroup
	case statsRe.MatchString(q):
		return domain.ActionStats
	default:
		return domain.ActionList
	}
}

// IsComparison reports whether q asks to compare two populations.
func IsComparison(q string) bool {
	return comparisonRe.MatchString(strings.ToLower(q))
}
