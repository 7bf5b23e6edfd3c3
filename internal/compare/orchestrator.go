// Package compare runs "A vs B" queries as one remote count per side.
package compare

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
	"github.com/alexanderramin/itopnl/internal/itop"
	"github.com/alexanderramin/itopnl/internal/oql"
)

// ErrNoComparison indicates a query whose two sides could not be read.
var ErrNoComparison = errors.New("could not parse comparison query")

type Flow string

const (
	FlowSLA        Flow = "sla"
	FlowCompletion Flow = "completion"
	FlowClosedOpen Flow = "closed_open"
	FlowGeneric    Flow = "generic"
)

// Request describes one comparison.
type Request struct {
	Query   string
	Profile *entity.Profile
	// Terms are the two sides read by the extractor, used by the generic flow.
	Terms *[2]string
	Limit int
}

// Side is one half of a comparison.
type Side struct {
	Label      string
	Predicates []domain.Predicate
	OQL        string
	Count      int
	Err        error
}

// Plan is a comparison ready to execute.
type Plan struct {
	Class        string
	Flow         Flow
	OutputFields string
	Sides        [2]Side
}

// Report is an executed Plan. Total sums the sides that succeeded.
type Report struct {
	Plan
	Query string
	Total int
}

var slaComparisonRes = []*regexp.Regexp{
	regexp.MustCompile(`closed on time.*not closed on time`),
	regexp.MustCompile(`on time (?:vs\.?|versus) not on time`),
	regexp.MustCompile(`closed (?:vs\.?|versus) not closed`),
	regexp.MustCompile(`met sla (?:vs\.?|versus) missed sla`),
	regexp.MustCompile(`sla met (?:vs\.?|versus) sla missed`),
}

var slaWordRe = regexp.MustCompile(`\bsla\b`)

// DetectFlow picks the comparison flow: explicit SLA phrasing on classes
// with SLA fields first, then closed or completed against its negation
// (through the completion table when the class has one), then the generic
// two-term form.
func DetectFlow(query string, p *entity.Profile) Flow {
	q := strings.ToLower(query)
	if p.SLA != nil && slaWordRe.MatchString(q) {
		for _, re := range slaComparisonRes {
			if re.MatchString(q) {
				return FlowSLA
			}
		}
	}
	closedOpen := (strings.Contains(q, "closed") && strings.Contains(q, "not closed")) ||
		(strings.Contains(q, "completed") && strings.Contains(q, "not completed"))
	switch {
	case closedOpen && hasCompletionTable(p):
		return FlowCompletion
	case closedOpen:
		return FlowClosedOpen
	default:
		return FlowGeneric
	}
}

func hasCompletionTable(p *entity.Profile) bool {
	_, a := p.StatusValues["completed"]
	_, b := p.StatusValues["not_completed"]
	return a && b
}

// Orchestrator plans and runs comparisons.
type Orchestrator struct {
	client  itop.Client
	builder *oql.Builder
	logger  *slog.Logger
}

type Option func(*Orchestrator)

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

func NewOrchestrator(client itop.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client:  client,
		builder: oql.NewBuilder(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Plan works out both sides and their OQL without calling the remote.
func (o *Orchestrator) Plan(req Request) (Plan, error) {
	p := req.Profile
	statusField := p.StatusField
	if statusField == "" {
		statusField = "status"
	}
	plan := Plan{
		Class:        p.Class,
		Flow:         DetectFlow(req.Query, p),
		OutputFields: "id," + statusField,
	}

	switch plan.Flow {
	case FlowSLA:
		passed := p.SLA.ResolvePassed
		// A "passed" flag of yes means the resolution deadline was breached.
		plan.Sides[0] = Side{Label: "closed on time", Predicates: []domain.Predicate{
			eq(statusField, "closed", "closed"),
			eq(passed, "no", "SLA not missed"),
		}}
		plan.Sides[1] = Side{Label: "not closed on time", Predicates: []domain.Predicate{
			eq(passed, "yes", "SLA missed"),
		}}
		plan.OutputFields = "id," + statusField + "," + passed

	case FlowCompletion:
		plan.Sides[0] = Side{Label: "completed", Predicates: []domain.Predicate{statusPredicate(statusField, "completed", p.StatusValues["completed"])}}
		plan.Sides[1] = Side{Label: "not completed", Predicates: []domain.Predicate{statusPredicate(statusField, "not completed", p.StatusValues["not_completed"])}}

	case FlowClosedOpen:
		closed := p.ClosedSides
		if len(closed) == 0 {
			closed = []domain.Predicate{eq(statusField, "closed", "closed")}
		}
		open := p.OpenSides
		if len(open) == 0 {
			open = []domain.Predicate{{Field: statusField, Operator: domain.OpNotEqual, Value: "closed", DisplayName: "not closed", Confidence: domain.ConfidenceHigh}}
		}
		plan.Sides[0] = Side{Label: "closed", Predicates: closed}
		plan.Sides[1] = Side{Label: "open/ongoing", Predicates: open}

	default:
		if req.Terms == nil {
			return Plan{}, ErrNoComparison
		}
		for i, term := range req.Terms {
			plan.Sides[i] = Side{Label: term, Predicates: []domain.Predicate{termPredicate(p, statusField, term)}}
		}
	}

	oqls, err := o.builder.BuildAll(p.Class, [][]domain.Predicate{plan.Sides[0].Predicates, plan.Sides[1].Predicates})
	if err != nil {
		return Plan{}, fmt.Errorf("build comparison: %w", err)
	}
	plan.Sides[0].OQL, plan.Sides[1].OQL = oqls[0], oqls[1]
	return plan, nil
}

// Run plans the comparison and counts both sides concurrently. A failed
// side keeps its error in the report; only cancellation fails the run.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Report, error) {
	plan, err := o.Plan(req)
	if err != nil {
		return nil, err
	}
	limit := req.Limit
	if limit < 1 {
		limit = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range plan.Sides {
		side := &plan.Sides[i]
		g.Go(func() error {
			res, err := o.client.Get(gctx, itop.GetRequest{
				Class:        plan.Class,
				Key:          side.OQL,
				OutputFields: plan.OutputFields,
				Limit:        limit,
			})
			if err != nil {
				side.Err = err
				o.logger.WarnContext(gctx, "comparison_side_failed", "class", plan.Class, "side", side.Label, "error", err.Error())
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			side.Count = res.Total()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("comparison: %w", err)
	}

	rep := &Report{Plan: plan, Query: req.Query}
	for _, s := range plan.Sides {
		if s.Err == nil {
			rep.Total += s.Count
		}
	}
	return rep, nil
}

func eq(field, value, label string) domain.Predicate {
	return domain.Predicate{Field: field, Operator: domain.OpEqual, Value: value, DisplayName: label, Confidence: domain.ConfidenceHigh}
}

func statusPredicate(field, label string, vals []string) domain.Predicate {
	if len(vals) == 1 {
		return eq(field, vals[0], label)
	}
	return domain.Predicate{Field: field, Operator: domain.OpIn, Values: append([]string(nil), vals...), DisplayName: label, Confidence: domain.ConfidenceHigh}
}

// termPredicate maps a side term through the status table. An unmapped
// term is used as the literal status value.
func termPredicate(p *entity.Profile, field, term string) domain.Predicate {
	key := strings.ReplaceAll(strings.TrimSpace(term), " ", "_")
	if vals, ok := p.StatusValues[key]; ok && len(vals) > 0 {
		return statusPredicate(field, term, vals)
	}
	if rest, ok := strings.CutPrefix(term, "not "); ok {
		if vals, ok := p.StatusValues[rest]; ok && len(vals) == 1 {
			return domain.Predicate{Field: field, Operator: domain.OpNotEqual, Value: vals[0], DisplayName: term, Confidence: domain.ConfidenceHigh}
		}
		return domain.Predicate{Field: field, Operator: domain.OpNotEqual, Value: rest, DisplayName: term, Confidence: domain.ConfidenceLow}
	}
	return domain.Predicate{Field: field, Operator: domain.OpEqual, Value: term, DisplayName: term, Confidence: domain.ConfidenceLow}
}
