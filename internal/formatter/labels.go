package formatter

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/alexanderramin/itopnl/internal/entity"
)

var titleCaser = cases.Title(language.English)

var fieldLabels = map[string]string{
	"org_name":           "Organization",
	"caller_name":        "Caller",
	"agent_name":         "Agent",
	"team_name":          "Team",
	"start_date":         "Created",
	"last_update":        "Updated",
	"close_date":         "Closed",
	"resolution_date":    "Resolved",
	"finalclass":         "Type",
	"business_criticity": "Criticality",
	"operational_status": "Status",
	"sla_tto_passed":     "SLA Response",
	"sla_ttr_passed":     "SLA Resolution",
	"tto_deadline":       "Response Deadline",
	"ttr_deadline":       "Resolution Deadline",
	"osfamily_name":      "OS",
	"osversion_name":     "OS Version",
	"move2production":    "In Production Since",
	"friendlyname":       "Name",
	"ref":                "Ref",
	"id":                 "ID",
}

// FieldLabel turns a field name into a display label.
func FieldLabel(field string) string {
	if l, ok := fieldLabels[field]; ok {
		return l
	}
	f := strings.TrimSuffix(field, "_friendlyname")
	f = strings.TrimSuffix(f, "_name")
	return titleCaser.String(strings.ReplaceAll(f, "_", " "))
}

// Title renders a term as a heading, e.g. "open/ongoing" as "Open/Ongoing".
func Title(s string) string {
	return titleCaser.String(s)
}

// Noun is the plural used in counts for p.
func Noun(p *entity.Profile) string {
	if p == nil {
		return "records"
	}
	if p.Generic {
		return p.Class + " records"
	}
	return strings.ToLower(p.Title)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
