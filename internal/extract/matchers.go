package extract

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
)

const (
	dateLayout     = "2006-01-02 00:00:00"
	datetimeLayout = "2006-01-02 15:04:05"
)

func phraseRe(phrase string) *regexp.Regexp {
	return compiled(`\b` + regexp.QuoteMeta(phrase) + `(?:s|es)?\b`)
}

type priorityTerm struct {
	re    *regexp.Regexp
	value string
}

var priorityTerms = func() []priorityTerm {
	table := []struct{ phrase, value string }{
		{"critical", "1"}, {"urgent", "1"}, {"p1", "1"}, {"priority 1", "1"}, {"highest priority", "1"},
		{"high", "2"}, {"high priority", "2"}, {"p2", "2"}, {"priority 2", "2"},
		{"medium", "3"}, {"medium priority", "3"}, {"normal", "3"}, {"p3", "3"}, {"priority 3", "3"},
		{"low", "4"}, {"low priority", "4"}, {"p4", "4"}, {"priority 4", "4"},
	}
	out := make([]priorityTerm, len(table))
	for i, t := range table {
		out[i] = priorityTerm{re: regexp.MustCompile(`\b` + regexp.QuoteMeta(t.phrase) + `\b`), value: t.value}
	}
	return out
}()

// MentionsPriority reports whether text uses any priority wording.
func MentionsPriority(text string) bool {
	lower := strings.ToLower(text)
	for _, t := range priorityTerms {
		if t.re.MatchString(lower) {
			return true
		}
	}
	return false
}

// matchPriority maps priority wording onto the fixed 1..4 scale. Several
// distinct levels become one IN predicate.
func matchPriority(in Input) (domain.Predicate, bool) {
	field := in.Profile.PriorityField
	if field == "" {
		return domain.Predicate{}, false
	}
	seen := map[string]bool{}
	var vals []string
	for _, t := range priorityTerms {
		if t.re.MatchString(in.Text) && !seen[t.value] {
			seen[t.value] = true
			vals = append(vals, t.value)
		}
	}
	if len(vals) == 0 {
		return domain.Predicate{}, false
	}
	sort.Strings(vals)
	p := domain.Predicate{
		Field:       field,
		DisplayName: "priority",
		Confidence:  domain.ConfidenceHigh,
	}
	if len(vals) == 1 {
		p.Operator, p.Value = domain.OpEqual, vals[0]
	} else {
		p.Operator, p.Values = domain.OpIn, vals
	}
	return p, true
}

// statusSynonyms maps user wording to status concepts used as keys in
// per-class status tables.
var statusSynonyms = map[string]string{
	"new":         "new",
	"open":        "open",
	"opened":      "open",
	"ongoing":     "open",
	"active":      "active",
	"in progress": "open",
	"unresolved":  "open",
	"closed":      "closed",
	"completed":   "completed",
	"done":        "closed",
	"resolved":    "resolved",
	"fixed":       "resolved",
	"pending":     "pending",
	"waiting":     "waiting",
	"on hold":     "pending",
	"assigned":    "assigned",
	"escalated":   "escalated",
	"approved":    "approved",
	"rejected":    "rejected",
	"implemented": "implemented",
	"inactive":    "inactive",
	"obsolete":    "obsolete",
	"production":  "production",
	"stock":       "stock",
}

// conceptFallbacks are tried when a class table lacks the first concept.
var conceptFallbacks = map[string][]string{
	"completed": {"closed"},
	"waiting":   {"pending"},
	"active":    {"open"},
	"open":      {"active"},
	"done":      {"closed"},
}

// assetStatusWords only make sense for configuration items.
var assetStatusWords = map[string]bool{"production": true, "stock": true, "obsolete": true, "inactive": true}

var genericNouns = []string{"ticket", "request", "user request", "incident", "change", "problem", "issue", "case", "item", "record", "object"}

// patterns holds compiled matchers keyed by source. Profile tables are
// static, so the set stays small.
var patterns sync.Map

func compiled(pattern string) *regexp.Regexp {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp)
	}
	re, _ := patterns.LoadOrStore(pattern, regexp.MustCompile(pattern))
	return re.(*regexp.Regexp)
}

type statusHit struct {
	word    string
	negated bool
}

// findStatusWord locates a status word. Classes with StatusAnywhere accept
// table keys (or any known word when they have no table) anywhere;
// others need the word right before an entity noun.
func findStatusWord(in Input) (statusHit, bool) {
	p := in.Profile
	var words []string
	if p.StatusAnywhere && p.HasStatusTable() {
		for _, k := range p.StatusConcepts() {
			if !strings.Contains(k, "_") {
				words = append(words, k)
			}
		}
	} else {
		for w := range statusSynonyms {
			if p.HasStatusTable() && assetStatusWords[w] {
				continue
			}
			words = append(words, w)
		}
	}
	// Longest first so "in progress" wins over shorter overlaps.
	sort.Slice(words, func(i, j int) bool {
		if len(words[i]) != len(words[j]) {
			return len(words[i]) > len(words[j])
		}
		return words[i] < words[j]
	})
	alts := make([]string, len(words))
	for i, w := range words {
		alts[i] = regexp.QuoteMeta(w)
	}

	pattern := `\b(not\s+)?(` + strings.Join(alts, "|") + `)\b`
	if !p.StatusAnywhere {
		nouns := p.Nouns
		if len(nouns) == 0 {
			nouns = genericNouns
		}
		nounAlts := make([]string, len(nouns))
		for i, n := range nouns {
			nounAlts[i] = regexp.QuoteMeta(n)
		}
		pattern = `\b(not\s+)?(` + strings.Join(alts, "|") + `)\s+(?:` + strings.Join(nounAlts, "|") + `)(?:s|es)?\b`
	}
	re := compiled(pattern)
	m := re.FindStringSubmatch(in.Text)
	if m == nil {
		return statusHit{}, false
	}
	return statusHit{word: m[2], negated: m[1] != ""}, true
}

// resolveConcept finds the table key for a status word.
func resolveConcept(p *entity.Profile, hit statusHit) (string, bool) {
	concept := hit.word
	if c, ok := statusSynonyms[hit.word]; ok {
		concept = c
	}
	candidates := append([]string{hit.word, concept}, conceptFallbacks[concept]...)
	for _, c := range candidates {
		if hit.negated {
			c = "not_" + c
		}
		if _, ok := p.StatusValues[c]; ok {
			return c, true
		}
	}
	return "", false
}

// matchStatus only emits values from the class status table. Classes
// without a table get the user's word as an unverified guess.
func matchStatus(in Input) (domain.Predicate, bool) {
	p := in.Profile
	if p.StatusField == "" {
		return domain.Predicate{}, false
	}
	hit, ok := findStatusWord(in)
	if !ok {
		return domain.Predicate{}, false
	}

	if !p.HasStatusTable() {
		op := domain.OpEqual
		if hit.negated {
			op = domain.OpNotEqual
		}
		return domain.Predicate{
			Field:               p.StatusField,
			Operator:            op,
			Value:               hit.word,
			DisplayName:         hit.word + " status",
			Confidence:          domain.ConfidenceLow,
			NeedsValueDiscovery: true,
		}, true
	}

	concept, ok := resolveConcept(p, hit)
	if !ok {
		return domain.Predicate{}, false
	}
	vals := p.StatusValues[concept]
	pred := domain.Predicate{
		Field:       p.StatusField,
		DisplayName: strings.ReplaceAll(concept, "_", " ") + " status",
		Confidence:  domain.ConfidenceHigh,
	}
	if len(vals) == 1 {
		pred.Operator, pred.Value = domain.OpEqual, vals[0]
	} else {
		pred.Operator, pred.Values = domain.OpIn, append([]string(nil), vals...)
	}
	return pred, true
}

// unmappedStatus reports a status word the class table cannot express.
func unmappedStatus(in Input) (string, bool) {
	p := in.Profile
	if !p.HasStatusTable() || p.StatusField == "" {
		return "", false
	}
	hit, ok := findStatusWord(in)
	if !ok {
		return "", false
	}
	if _, ok := resolveConcept(p, hit); ok {
		return "", false
	}
	if hit.negated {
		return "not " + hit.word, true
	}
	return hit.word, true
}

func namedFilterMatcher(nf entity.NamedFilter) func(Input) (domain.Predicate, bool) {
	alts := make([]string, len(nf.Keywords))
	for i, k := range nf.Keywords {
		alts[i] = regexp.QuoteMeta(k)
	}
	re := compiled(`(?i)\b(?:` + strings.Join(alts, "|") + `)\s+(?:named\s+|called\s+)?(?:"([^"]+)"|'([^']+)')`)
	return func(in Input) (domain.Predicate, bool) {
		m := re.FindStringSubmatch(in.Raw)
		if m == nil {
			return domain.Predicate{}, false
		}
		name := strings.TrimSpace(m[1] + m[2])
		if name == "" {
			return domain.Predicate{}, false
		}
		return domain.Predicate{
			Field:       nf.Field,
			Operator:    domain.OpLike,
			Value:       "%" + name + "%",
			DisplayName: fmt.Sprintf("%s contains '%s'", nf.Label, name),
			Confidence:  domain.ConfidenceMedium,
		}, true
	}
}

var (
	quotedTeamRe  = regexp.MustCompile(`\bteam\s+["']`)
	teamPhraseRes = []*regexp.Regexp{
		regexp.MustCompile(`\bassigned to (?:the )?([a-z0-9][\w-]*(?:\s+[\w-]+)?)\s+team\b`),
		regexp.MustCompile(`\b(?:for|from|by|of) (?:the )?([a-z0-9][\w-]*(?:\s+[\w-]+)?)\s+team\b`),
		regexp.MustCompile(`\b([a-z0-9][\w-]*)\s+team\b`),
	}
)

var teamStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "by": true, "to": true, "in": true, "on": true,
	"with": true, "from": true, "tickets": true, "ticket": true, "user": true, "requests": true,
	"request": true, "incidents": true, "incident": true, "show": true, "me": true, "my": true,
	"our": true, "all": true, "a": true, "an": true, "this": true, "that": true, "any": true,
	"each": true, "every": true, "assigned": true, "same": true, "their": true, "per": true,
}

// matchTeamPhrase reads unquoted team names such as "assigned to the
// network team". A quoted team is left to the named-filter matcher.
func matchTeamPhrase(in Input) (domain.Predicate, bool) {
	if quotedTeamRe.MatchString(in.Text) {
		return domain.Predicate{}, false
	}
	for _, re := range teamPhraseRes {
		for _, m := range re.FindAllStringSubmatch(in.Text, -1) {
			name := cleanTeamName(m[1])
			if name == "" {
				continue
			}
			return domain.Predicate{
				Field:       "team_name",
				Operator:    domain.OpLike,
				Value:       "%" + name + "%",
				DisplayName: fmt.Sprintf("team contains '%s'", name),
				Confidence:  domain.ConfidenceMedium,
			}, true
		}
	}
	return domain.Predicate{}, false
}

func cleanTeamName(s string) string {
	words := strings.Fields(s)
	for len(words) > 0 && teamStopwords[words[0]] {
		words = words[1:]
	}
	for _, w := range words {
		if teamStopwords[w] {
			return ""
		}
	}
	name := strings.Join(words, " ")
	if len(name) <= 2 {
		return ""
	}
	return name
}

var (
	notUpdatedRe = regexp.MustCompile(`\bnot (?:been )?updated (?:in|for|since) (?:the )?(?:last |past )?(\d+)\s*(hours?|hrs?|days?|weeks?)\b`)
	lastNRe      = regexp.MustCompile(`\b(?:last|past) (\d+)\s*(hours?|hrs?|days?|weeks?)\b`)
	olderThanRe  = regexp.MustCompile(`\bolder than (\d+)\s*(hours?|hrs?|days?|weeks?)\b`)
)

func span(n int, unit string) time.Duration {
	switch {
	case strings.HasPrefix(unit, "h"):
		return time.Duration(n) * time.Hour
	case strings.HasPrefix(unit, "w"):
		return time.Duration(n) * 7 * 24 * time.Hour
	default:
		return time.Duration(n) * 24 * time.Hour
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// matchNotUpdated handles "not updated in N hours": the record's last
// update must be at or before the cutoff.
func matchNotUpdated(in Input) (domain.Predicate, bool) {
	field := in.Profile.UpdatedField
	if field == "" {
		return domain.Predicate{}, false
	}
	m := notUpdatedRe.FindStringSubmatch(in.Text)
	if m == nil {
		return domain.Predicate{}, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return domain.Predicate{}, false
	}
	cutoff := in.Now.Add(-span(n, m[2]))
	return domain.Predicate{
		Field:       field,
		Operator:    domain.OpLessEqual,
		Value:       cutoff.Format(datetimeLayout),
		DisplayName: fmt.Sprintf("not updated in %d %s", n, m[2]),
		Confidence:  domain.ConfidenceHigh,
	}, true
}

// matchCreatedWindow handles relative creation windows. Day-based windows
// start at midnight; hour-based windows keep the clock time.
func matchCreatedWindow(in Input) (domain.Predicate, bool) {
	field := in.Profile.CreatedField
	if field == "" || notUpdatedRe.MatchString(in.Text) {
		return domain.Predicate{}, false
	}
	pred := func(op domain.Operator, value, label string) (domain.Predicate, bool) {
		return domain.Predicate{
			Field:       field,
			Operator:    op,
			Value:       value,
			DisplayName: label,
			Confidence:  domain.ConfidenceHigh,
		}, true
	}
	now := in.Now

	if m := olderThanRe.FindStringSubmatch(in.Text); m != nil {
		n, _ := strconv.Atoi(m[1])
		return pred(domain.OpLessEqual, now.Add(-span(n, m[2])).Format(datetimeLayout), "older than "+m[1]+" "+m[2])
	}
	if m := lastNRe.FindStringSubmatch(in.Text); m != nil {
		n, _ := strconv.Atoi(m[1])
		cutoff := now.Add(-span(n, m[2]))
		if strings.HasPrefix(m[2], "h") {
			return pred(domain.OpGreaterEqual, cutoff.Format(datetimeLayout), "last "+m[1]+" "+m[2])
		}
		return pred(domain.OpGreaterEqual, cutoff.Format(dateLayout), "last "+m[1]+" "+m[2])
	}

	switch {
	case strings.Contains(in.Text, "today"):
		return pred(domain.OpGreaterEqual, startOfDay(now).Format(dateLayout), "today")
	case strings.Contains(in.Text, "yesterday"):
		return pred(domain.OpGreaterEqual, now.AddDate(0, 0, -1).Format(dateLayout), "since yesterday")
	case strings.Contains(in.Text, "this week"), strings.Contains(in.Text, "past week"), strings.Contains(in.Text, "last week"):
		return pred(domain.OpGreaterEqual, now.AddDate(0, 0, -7).Format(dateLayout), "this week")
	case strings.Contains(in.Text, "this month"), strings.Contains(in.Text, "past month"), strings.Contains(in.Text, "last month"):
		return pred(domain.OpGreaterEqual, now.AddDate(0, 0, -30).Format(dateLayout), "this month")
	case strings.Contains(in.Text, "24 hours"):
		return pred(domain.OpGreaterEqual, now.Add(-24*time.Hour).Format(datetimeLayout), "last 24 hours")
	case strings.Contains(in.Text, "48 hours"):
		return pred(domain.OpGreaterEqual, now.Add(-48*time.Hour).Format(datetimeLayout), "last 48 hours")
	}
	return domain.Predicate{}, false
}

func extraMatcher(r entity.ExtraRule) func(Input) (domain.Predicate, bool) {
	terms := make([]*regexp.Regexp, len(r.Terms))
	for i, t := range r.Terms {
		terms[i] = phraseRe(t.Phrase)
	}
	return func(in Input) (domain.Predicate, bool) {
		for _, req := range r.Requires {
			if !strings.Contains(in.Text, req) {
				return domain.Predicate{}, false
			}
		}
		for _, ex := range r.Excludes {
			if strings.Contains(in.Text, ex) {
				return domain.Predicate{}, false
			}
		}

		var vals []string
		seen := map[string]bool{}
		for i, re := range terms {
			if !re.MatchString(in.Text) || seen[r.Terms[i].Value] {
				continue
			}
			seen[r.Terms[i].Value] = true
			vals = append(vals, r.Terms[i].Value)
			if r.Single {
				break
			}
		}
		if len(vals) == 0 {
			return domain.Predicate{}, false
		}

		p := domain.Predicate{
			Field:       r.Field,
			Operator:    r.Operator,
			Value:       vals[0],
			DisplayName: r.Label,
			Confidence:  domain.ConfidenceHigh,
		}
		if len(vals) > 1 && r.Operator == domain.OpEqual {
			p.Operator, p.Value, p.Values = domain.OpIn, "", vals
		}
		return p, true
	}
}
