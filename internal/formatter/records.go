package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
)

// Detail sections in display order. Fields not listed fall into the
// class extras at the end.
var detailSections = [][]string{
	{"status", "operational_status", "priority", "urgency", "impact", "business_criticity"},
	{"caller_name", "agent_name", "user_friendlyname", "manager_name", "function", "email", "phone"},
	{"org_name", "team_name", "owner_friendlyname", "location_name", "rack_name", "virtualhost_name"},
	{"start_date", "last_update", "resolution_date", "close_date", "end_date", "move2production"},
}

var slaFields = []string{"sla_tto_passed", "sla_ttr_passed", "tto_deadline", "ttr_deadline"}

var identityFields = map[string]bool{"id": true, "ref": true, "friendlyname": true, "name": true, "title": true}

func recordTitle(r domain.Record) string {
	ref := r.Get("ref")
	name := r.Get("title")
	if name == "" {
		name = r.Get("friendlyname")
	}
	if name == "" {
		name = r.Get("name")
	}
	switch {
	case ref != "" && name != "":
		return ref + " · " + name
	case ref != "":
		return ref
	case name != "":
		return name
	default:
		return r.Class + "::" + r.Key
	}
}

// detailBlock renders one numbered record with fields in section order.
func detailBlock(n int, r domain.Record, p *entity.Profile, sla bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s\n", n, Bold(recordTitle(r)))

	done := map[string]bool{}
	for f := range identityFields {
		done[f] = true
	}
	write := func(field string) {
		if done[field] {
			return
		}
		done[field] = true
		v := r.Get(field)
		if v == "" {
			return
		}
		fmt.Fprintf(&b, "   %s: %s\n", FieldLabel(field), fieldValue(field, v))
	}

	allowed := detailAllowed(p)
	for _, section := range detailSections {
		for _, f := range section {
			if allowed(f) {
				write(f)
			}
		}
	}
	if sla {
		for _, f := range slaFields {
			write(f)
		}
	} else {
		for _, f := range slaFields {
			done[f] = true
		}
	}
	for _, f := range extraFields(r, p) {
		write(f)
	}
	if strings.EqualFold(r.Get("outage"), "yes") {
		b.WriteString("   " + WarningMarker + " planned outage\n")
	}
	return b.String()
}

// detailAllowed limits section fields to the profile's detail or
// highlight lists when it has one.
func detailAllowed(p *entity.Profile) func(string) bool {
	list := p.DetailFields
	if len(list) == 0 {
		list = p.HighlightFields
	}
	if len(list) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]bool, len(list))
	for _, f := range list {
		set[f] = true
	}
	return func(f string) bool { return set[f] }
}

func extraFields(r domain.Record, p *entity.Profile) []string {
	list := p.DetailFields
	if len(list) == 0 {
		list = p.HighlightFields
	}
	if len(list) > 0 {
		return list
	}
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fieldValue(field, v string) string {
	switch field {
	case "priority":
		return PriorityIndicator(v)
	case "sla_tto_passed", "sla_ttr_passed":
		return SLAIndicator(v)
	case "status", "operational_status":
		return StatusPill(v)
	default:
		return truncate(strings.ReplaceAll(v, "\n", " "), 200)
	}
}

// summaryLine lists every non-empty field of r on one line.
func summaryLine(r domain.Record) string {
	keys := make([]string, 0, len(r.Fields))
	for k := range r.Fields {
		if r.Get(k) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + truncate(r.Get(k), 60)
	}
	return fmt.Sprintf("• %s: %s", recordTitle(r), strings.Join(parts, ", "))
}

// recordTable renders the union of fields across records, identity
// fields first.
func recordTable(records []domain.Record) string {
	seen := map[string]bool{}
	var fields []string
	for _, r := range records {
		for k := range r.Fields {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	sort.Slice(fields, func(i, j int) bool {
		a, c := identityRank(fields[i]), identityRank(fields[j])
		if a != c {
			return a < c
		}
		return fields[i] < fields[j]
	})

	rows := make([][]string, len(records))
	for i, r := range records {
		row := make([]string, len(fields))
		for j, f := range fields {
			row[j] = r.Get(f)
		}
		rows[i] = row
	}
	return RenderTable(fields, rows)
}

func identityRank(f string) int {
	switch f {
	case "id":
		return 0
	case "ref":
		return 1
	case "friendlyname", "name", "title":
		return 2
	default:
		return 3
	}
}
