package service

import (
	"strings"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
)

// outputFields picks the core/get output field list. Counts only need ids
// and the grouping field; listings use the class layout, or every field
// when the class has none. Fields the schema lacks are left out.
func outputFields(p *entity.Profile, intent domain.QueryIntent, s domain.ClassSchema) string {
	fields := []string{"id"}
	if intent.Action == domain.ActionCount {
		if intent.Grouping != "" {
			fields = append(fields, intent.Grouping)
		}
		return strings.Join(fields, ",")
	}
	if len(p.DetailFields) == 0 {
		return "*+"
	}

	fields = append(fields, p.DetailFields...)
	if intent.SLAAnalysis && p.SLA != nil {
		fields = append(fields, p.SLA.ResolvePassed, p.SLA.ResponsePassed, p.SLA.ResolveDeadline, p.SLA.ResponseDeadline)
	}
	if intent.Grouping != "" {
		fields = append(fields, intent.Grouping)
	}
	if intent.Ordering != nil {
		fields = append(fields, intent.Ordering.Field)
	}

	seen := make(map[string]bool, len(fields))
	out := fields[:0]
	for _, f := range fields {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		if f != "id" && !s.HasField(f) {
			continue
		}
		out = append(out, f)
	}
	return strings.Join(out, ",")
}
