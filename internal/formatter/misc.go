package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/itopnl/internal/classify"
	"github.com/alexanderramin/itopnl/internal/compare"
	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
	"github.com/alexanderramin/itopnl/internal/itop"
)

// FormatError renders err as a failure response.
func FormatError(err error) string {
	return fmt.Sprintf("%s Error: %v", ErrorMarker, err)
}

// FormatWarning renders a titled warning response.
func FormatWarning(title, body string) string {
	return fmt.Sprintf("%s %s: %s", WarningMarker, title, body)
}

// FormatUnknownClass explains that a ticket class is missing from the
// remote data model.
func FormatUnknownClass(class string, err error) string {
	return FormatWarning(class+" class not available",
		fmt.Sprintf("the %s class may not be configured in this iTop instance.\n\nError: %v\n\nSuggestion: query the generic Ticket class instead (for example \"tickets ...\") or ask your iTop administrator.", class, err))
}

// FormatComparison renders both sides of a comparison with their OQL.
func FormatComparison(rep *compare.Report, p *entity.Profile) string {
	var b strings.Builder
	left, right := Title(rep.Sides[0].Label), Title(rep.Sides[1].Label)
	fmt.Fprintf(&b, "%s\n", Header(fmt.Sprintf("🔄 %s comparison: %s vs %s", p.Title, left, right)))
	fmt.Fprintf(&b, "Query: %q\n\n", rep.Query)
	for _, s := range rep.Sides {
		fmt.Fprintf(&b, "OQL for %s: %s\n", Title(s.Label), s.OQL)
	}
	b.WriteString("\n")
	for _, s := range rep.Sides {
		if s.Err != nil {
			fmt.Fprintf(&b, "%s %s: %v\n", ErrorMarker, Title(s.Label), s.Err)
			continue
		}
		fmt.Fprintf(&b, "📊 %s: %d %s\n", Title(s.Label), s.Count, Noun(p))
	}
	fmt.Fprintf(&b, "📊 Total: %d %s\n", rep.Total, Noun(p))
	return b.String()
}

// FormatSchema renders a discovered class schema.
func FormatSchema(s domain.ClassSchema) string {
	if s.Empty() {
		return FormatWarning("No schema", fmt.Sprintf("no %s record could be sampled; the class may be empty or unknown", s.ClassName))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", Header(fmt.Sprintf("📐 %s schema (%d fields)", s.ClassName, len(s.FieldNames))))
	fmt.Fprintf(&b, "Key fields: %s\n", strings.Join(s.KeyFields, ", "))
	fmt.Fprintf(&b, "Display fields: %s\n\n", strings.Join(s.DisplayFields, ", "))
	rows := make([][]string, len(s.FieldNames))
	for i, f := range s.FieldNames {
		rows[i] = []string{f, s.SampleValues[f]}
	}
	b.WriteString(RenderTable([]string{"field", "sample"}, rows))
	return b.String()
}

// ValueMatch is an optional search result shown with a value profile.
type ValueMatch struct {
	Term  string
	Value string
	Kind  string
}

// FormatValueProfile renders the values discovered for one field.
func FormatValueProfile(p domain.FieldValueProfile, m *ValueMatch) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", Header(fmt.Sprintf("🔎 %s.%s values", p.Class, p.Field)))
	fmt.Fprintf(&b, "Sampled %d records, %d distinct values, type %s (confidence %.2f)\n\n",
		p.TotalSampled, len(p.Values), p.FieldType, p.Confidence)
	if len(p.Values) == 0 {
		b.WriteString(Dim("no values found") + "\n")
	}
	for _, v := range p.Values {
		fmt.Fprintf(&b, "  • %s\n", v)
	}
	if m != nil {
		b.WriteString("\n")
		if m.Kind == "none" {
			fmt.Fprintf(&b, "%s no stored value matches %q\n", WarningMarker, m.Term)
		} else {
			fmt.Fprintf(&b, "Best match for %q: %s (%s)\n", m.Term, Bold(m.Value), m.Kind)
		}
	}
	return b.String()
}

// Explanation is a dry run of the pipeline for one query.
type Explanation struct {
	Query     string
	Detection classify.Detection
	Class     string
	Intent    domain.QueryIntent
	OQL       []string
	Schema    domain.ClassSchema
}

// FormatDetection renders how a query was read, without results.
func FormatDetection(e Explanation) string {
	var b strings.Builder
	d := e.Detection
	fmt.Fprintf(&b, "Query: %q\n", e.Query)
	fmt.Fprintf(&b, "Detected class: %s (confidence %.2f", d.Class, d.Confidence)
	switch {
	case d.Rough.Fallback:
		b.WriteString(", fallback")
	case d.Rough.Rule != "":
		fmt.Fprintf(&b, ", rule %s", d.Rough.Rule)
	case d.Rough.Category != "":
		fmt.Fprintf(&b, ", category %s", d.Rough.Category)
	}
	b.WriteString(")\n")
	if e.Class != "" && e.Class != d.Class {
		fmt.Fprintf(&b, "Queried class: %s\n", e.Class)
	}
	fmt.Fprintf(&b, "Action: %s\n", e.Intent.Action)
	if e.Schema.Empty() {
		b.WriteString("Schema: not available\n")
	} else {
		fmt.Fprintf(&b, "Schema: %d fields\n", len(e.Schema.FieldNames))
	}

	if len(e.Intent.Filters) == 0 {
		b.WriteString("Filters: none\n")
	} else {
		b.WriteString("Filters:\n")
		for _, p := range e.Intent.Filters {
			flag := ""
			if p.NeedsValueDiscovery {
				flag = " " + Dim("(unverified)")
			}
			fmt.Fprintf(&b, "  • %s [%s]%s\n", p.Describe(), p.Confidence, flag)
		}
	}
	if e.Intent.Grouping != "" {
		fmt.Fprintf(&b, "Grouping: %s\n", e.Intent.Grouping)
	}
	if e.Intent.ComparisonTerms != nil {
		fmt.Fprintf(&b, "Comparison: %s vs %s\n", e.Intent.ComparisonTerms[0], e.Intent.ComparisonTerms[1])
	}
	if o := e.Intent.Ordering; o != nil {
		dir := "ascending"
		if o.Descending {
			dir = "descending"
		}
		fmt.Fprintf(&b, "Ordering: %s %s\n", o.Field, dir)
	}
	writeNotes(&b, e.Intent.Notes)
	for _, q := range e.OQL {
		fmt.Fprintf(&b, "OQL: %s\n", q)
	}
	return RenderBox("Query plan", strings.TrimRight(b.String(), "\n"))
}

// FormatOperations lists the remote REST operations.
func FormatOperations(ops []itop.Operation) string {
	if len(ops) == 0 {
		return FormatWarning("No operations", "the remote reported no REST operations")
	}
	sorted := append([]itop.Operation(nil), ops...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Verb < sorted[j].Verb })
	rows := make([][]string, len(sorted))
	for i, op := range sorted {
		rows[i] = []string{op.Verb, op.Description, op.Extension}
	}
	return Header(fmt.Sprintf("🛠 iTop REST operations (%d)", len(ops))) + "\n" + RenderTable([]string{"verb", "description", "extension"}, rows)
}
