package formatter

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
)

const groupExamples = 5

// ResultView is everything needed to render one executed query.
type ResultView struct {
	Query   string
	Profile *entity.Profile
	Intent  domain.QueryIntent
	OQL     string
	Result  *domain.QueryResult
	Format  domain.OutputFormat
}

// FormatResult renders a query result. Group actions bucket records by
// the grouping field, count actions report the remote total, and other
// actions list records in the requested format.
func FormatResult(v ResultView) string {
	if v.Format == domain.FormatJSON {
		return formatJSON(v)
	}

	p := v.Profile
	records := sortedRecords(v.Result.Records(), v.Intent.Ordering)
	total := v.Result.Total()

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", Header(fmt.Sprintf("%s %s (%d found)", p.Emoji, p.Title, total)))
	fmt.Fprintf(&b, "Query: %q\n", v.Query)
	fmt.Fprintf(&b, "OQL: %s\n", v.OQL)
	writeNotes(&b, v.Intent.Notes)
	b.WriteString("\n")

	if total == 0 && len(records) == 0 {
		fmt.Fprintf(&b, "🔍 No %s matched.\n", Noun(p))
		return b.String()
	}

	switch {
	case v.Intent.Action == domain.ActionCount && v.Intent.Grouping == "":
		fmt.Fprintf(&b, "📊 Total: %d %s\n", total, Noun(p))
	case v.Intent.Grouping != "":
		writeGroups(&b, p, records, v.Intent.Grouping, v.Intent.Action == domain.ActionCount)
	case v.Intent.Action == domain.ActionStats:
		writeStats(&b, p, records, total)
	default:
		writeListing(&b, v, records)
	}

	if total > len(records) && v.Intent.Action != domain.ActionCount {
		b.WriteString(Dim(fmt.Sprintf("\nShowing %d of %d; raise the limit to see more.", len(records), total)) + "\n")
	}
	return b.String()
}

func writeNotes(b *strings.Builder, notes []string) {
	for _, n := range notes {
		fmt.Fprintf(b, "%s %s\n", WarningMarker, n)
	}
}

func sortedRecords(recs []domain.Record, o *domain.Ordering) []domain.Record {
	if o == nil {
		return recs
	}
	out := append([]domain.Record(nil), recs...)
	sort.SliceStable(out, func(i, j int) bool {
		a, c := out[i].Get(o.Field), out[j].Get(o.Field)
		if o.Descending {
			return a > c
		}
		return a < c
	})
	return out
}

func writeListing(b *strings.Builder, v ResultView, records []domain.Record) {
	switch v.Format {
	case domain.FormatSummary:
		for _, r := range records {
			b.WriteString(summaryLine(r) + "\n")
		}
	case domain.FormatTable:
		b.WriteString(recordTable(records))
	default:
		p := v.Profile
		shown := records
		if p.DetailLimit > 0 && len(shown) > p.DetailLimit {
			shown = shown[:p.DetailLimit]
		}
		if p.SplitByFinalClass {
			writeByFinalClass(b, v, shown)
		} else {
			for i, r := range shown {
				b.WriteString(detailBlock(i+1, r, p, v.Intent.SLAAnalysis))
			}
		}
		if len(shown) < len(records) {
			b.WriteString(Dim(fmt.Sprintf("... and %d more (use the table or summary format to see all)", len(records)-len(shown))) + "\n")
		}
	}
}

func writeByFinalClass(b *strings.Builder, v ResultView, records []domain.Record) {
	var classes []string
	byClass := map[string][]domain.Record{}
	for _, r := range records {
		c := r.Get("finalclass")
		if c == "" {
			c = r.Class
		}
		if _, ok := byClass[c]; !ok {
			classes = append(classes, c)
		}
		byClass[c] = append(byClass[c], r)
	}
	sort.Strings(classes)
	n := 0
	for _, c := range classes {
		fmt.Fprintf(b, "%s\n", Bold(fmt.Sprintf("%s (%d)", c, len(byClass[c]))))
		for _, r := range byClass[c] {
			n++
			b.WriteString(detailBlock(n, r, v.Profile, v.Intent.SLAAnalysis))
		}
	}
}

// writeGroups buckets records by field, sorted by label. Count actions
// list bucket sizes only.
func writeGroups(b *strings.Builder, p *entity.Profile, records []domain.Record, field string, countOnly bool) {
	buckets := map[string][]domain.Record{}
	for _, r := range records {
		label := r.Get(field)
		if label == "" {
			label = "(empty)"
		}
		buckets[label] = append(buckets[label], r)
	}
	labels := make([]string, 0, len(buckets))
	for l := range buckets {
		labels = append(labels, l)
	}
	sort.Strings(labels)

	fmt.Fprintf(b, "Grouped by %s (%d groups)\n\n", FieldLabel(field), len(labels))
	for _, l := range labels {
		group := buckets[l]
		fmt.Fprintf(b, "▸ %s: %d %s\n", Bold(l), len(group), Noun(p))
		if countOnly {
			continue
		}
		for i, r := range group {
			if i == groupExamples {
				b.WriteString(Dim(fmt.Sprintf("    ... and %d more", len(group)-groupExamples)) + "\n")
				break
			}
			fmt.Fprintf(b, "    • %s\n", recordTitle(r))
		}
	}
}

// writeStats prints the total and breakdowns over status and priority.
func writeStats(b *strings.Builder, p *entity.Profile, records []domain.Record, total int) {
	fmt.Fprintf(b, "📊 Total: %d %s\n", total, Noun(p))
	for _, field := range []string{p.StatusField, p.PriorityField} {
		if field == "" {
			continue
		}
		counts := map[string]int{}
		for _, r := range records {
			counts[r.Get(field)]++
		}
		if len(counts) == 1 && counts[""] == len(records) {
			continue
		}
		keys := make([]string, 0, len(counts))
		for k := range counts {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(b, "\nBy %s:\n", FieldLabel(field))
		for _, k := range keys {
			label := k
			if label == "" {
				label = "(empty)"
			}
			fmt.Fprintf(b, "  %s: %d\n", label, counts[k])
		}
	}
}

// formatJSON dumps field maps only, in result order.
func formatJSON(v ResultView) string {
	records := sortedRecords(v.Result.Records(), v.Intent.Ordering)
	out := make([]map[string]any, 0, len(records))
	for _, r := range records {
		out = append(out, r.Fields)
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return FormatError(fmt.Errorf("encode json: %w", err))
	}
	return string(data)
}
