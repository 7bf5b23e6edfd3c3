// Package classify picks the remote class a natural-language query is
// about, using ordered override rules and then keyword scoring.
package classify

import (
	"regexp"
	"strings"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/metrics"
)

// FallbackClass is returned when nothing in the query points at a class.
const FallbackClass = "UserRequest"

// FallbackConfidence marks a fallback detection.
const FallbackConfidence = 0.1

// RoughIntent is what detection learns besides the class.
type RoughIntent struct {
	Action   domain.Action
	Rule     string
	Category string
	Fallback bool
	Hints    []string
}

// Detection is the outcome of class detection. Confidence is in [0, 1].
type Detection struct {
	Class      string
	Confidence float64
	Rough      RoughIntent
}

// rule is one ordered override. The first rule that matches decides.
type rule struct {
	name       string
	class      string
	confidence float64
	hint       string
	match      func(q string) bool
}

func has(q string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(q, w) {
			return true
		}
	}
	return false
}

var slaWordRe = regexp.MustCompile(`\bslas?\b`)

var defaultRules = []rule{
	{
		name: "network_device_location", class: "NetworkDevice", confidence: 0.95, hint: "include_relationships",
		match: func(q string) bool { return has(q, "network device") && has(q, "location") },
	},
	{
		name: "software_on_server", class: "Server", confidence: 0.95, hint: "include_relationships",
		match: func(q string) bool { return has(q, "software", "application") && has(q, "server") },
	},
	{
		name: "sla_support", class: "UserRequest", confidence: 0.95, hint: "time_analysis",
		match: func(q string) bool {
			return (slaWordRe.MatchString(q) || has(q, "support ticket")) && !has(q, "change")
		},
	},
	{
		name: "contact_service_manager", class: "Contact", confidence: 0.95, hint: "role_filter",
		match: func(q string) bool { return has(q, "contact") && has(q, "service manager") },
	},
	{
		name: "generic_tickets", class: "Ticket", confidence: 0.90, hint: "generic_tickets",
		match: func(q string) bool {
			return has(q, "tickets") && !has(q, "support", "user request")
		},
	},
	{
		name: "team_tickets", class: "UserRequest", confidence: 0.90, hint: "team_filter",
		match: func(q string) bool {
			return has(q, "team") && has(q, "ticket", "user request", "support", "assigned")
		},
	},
}

// Detector classifies queries. It holds no mutable state.
type Detector struct {
	rules    []rule
	taxonomy *Taxonomy
}

// NewDetector creates a Detector over the given taxonomy, or the embedded
// default when tax is nil.
func NewDetector(tax *Taxonomy) *Detector {
	if tax == nil {
		tax = DefaultTaxonomy()
	}
	return &Detector{rules: defaultRules, taxonomy: tax}
}

// Detect always returns exactly one class.
func (d *Detector) Detect(query string) Detection {
	q := strings.ToLower(strings.TrimSpace(query))
	action := ActionOf(q)

	for _, r := range d.rules {
		if r.match(q) {
			metrics.RecordDetection(r.name, r.class)
			return Detection{
				Class:      r.class,
				Confidence: r.confidence,
				Rough:      RoughIntent{Action: action, Rule: r.name, Hints: []string{r.hint}},
			}
		}
	}

	if top, ok := d.taxonomy.best(q); ok {
		metrics.RecordDetection("taxonomy", top.class)
		conf := float64(top.score) / 100
		if conf > 1 {
			conf = 1
		}
		return Detection{
			Class:      top.class,
			Confidence: conf,
			Rough:      RoughIntent{Action: action, Rule: "taxonomy", Category: top.category},
		}
	}

	metrics.RecordDetection("fallback", FallbackClass)
	return Detection{
		Class:      FallbackClass,
		Confidence: FallbackConfidence,
		Rough:      RoughIntent{Action: action, Rule: "fallback", Fallback: true, Hints: []string{"fallback"}},
	}
}
