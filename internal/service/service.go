// Package service runs the natural-language query pipeline: class
// detection, schema lookup, filter extraction, value discovery, OQL
// construction, execution and formatting. Every entry point returns
// display text; failures are rendered, never returned.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/alexanderramin/itopnl/internal/classify"
	"github.com/alexanderramin/itopnl/internal/compare"
	"github.com/alexanderramin/itopnl/internal/discovery"
	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/entity"
	"github.com/alexanderramin/itopnl/internal/extract"
	"github.com/alexanderramin/itopnl/internal/formatter"
	"github.com/alexanderramin/itopnl/internal/itop"
	"github.com/alexanderramin/itopnl/internal/metrics"
	"github.com/alexanderramin/itopnl/internal/oql"
	"github.com/alexanderramin/itopnl/internal/schema"
)

const useCaseSmartQuery = "smart_query"

// Request is one natural-language query.
type Request struct {
	Query string
	// ForceClass skips detection and queries this class.
	ForceClass string
	// Limit caps returned records; values below 1 become 1.
	Limit int
	// Format is an output format selector; empty means detailed.
	Format string
}

// Option configures a Service.
type Option func(*Service)

func WithObserver(o UseCaseObserver) Option {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock fixes the time used for relative date phrases.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithRegistry(r *entity.Registry) Option {
	return func(s *Service) {
		if r != nil {
			s.registry = r
		}
	}
}

func WithDetector(d *classify.Detector) Option {
	return func(s *Service) {
		if d != nil {
			s.detector = d
		}
	}
}

// Service wires the pipeline stages around one remote client. It is safe
// for concurrent use.
type Service struct {
	client   itop.Client
	cfg      Config
	registry *entity.Registry
	detector *classify.Detector
	observer UseCaseObserver
	logger   *slog.Logger
	now      func() time.Time

	schemas    *schema.Discoverer
	extractor  *extract.Extractor
	values     *discovery.Engine
	comparator *compare.Orchestrator
}

func New(client itop.Client, cfg Config, opts ...Option) *Service {
	s := &Service{
		client:   client,
		cfg:      cfg,
		registry: entity.DefaultRegistry(),
		observer: NoopUseCaseObserver{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.detector == nil {
		s.detector = classify.NewDetector(nil)
	}
	if s.cfg.Unverified == "" {
		s.cfg.Unverified = PolicyDiscover
	}
	if s.cfg.DiscoveryLimit < 1 {
		s.cfg.DiscoveryLimit = discovery.DefaultLimit
	}
	s.schemas = schema.NewDiscoverer(client, schema.WithLogger(s.logger), schema.WithCacheSize(s.cfg.SchemaCacheSize))
	s.extractor = extract.New(extract.WithClock(s.now))
	s.values = discovery.NewEngine(client, discovery.WithLogger(s.logger))
	s.comparator = compare.NewOrchestrator(client, compare.WithLogger(s.logger))
	return s
}

// Registry returns the class profiles the service reads queries with.
func (s *Service) Registry() *entity.Registry { return s.registry }

// prepared is a query read up to the point where OQL can be built.
type prepared struct {
	query     string
	detection classify.Detection
	profile   *entity.Profile
	schema    domain.ClassSchema
	intent    domain.QueryIntent
	format    domain.OutputFormat
	limit     int
}

func (s *Service) prepare(ctx context.Context, req Request) (*prepared, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return nil, fmt.Errorf("%w: query is empty", ErrInvalidRequest)
	}
	format, err := domain.ParseOutputFormat(req.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	var det classify.Detection
	if force := strings.TrimSpace(req.ForceClass); force != "" {
		if !oql.ValidIdentifier(force) {
			return nil, fmt.Errorf("%w: %w: class %q", ErrInvalidRequest, oql.ErrInvalidIdentifier, force)
		}
		det = classify.Detection{
			Class:      force,
			Confidence: 1,
			Rough:      classify.RoughIntent{Action: classify.ActionOf(strings.ToLower(query)), Rule: "forced"},
		}
	} else {
		det = s.detector.Detect(query)
	}

	p := &prepared{
		query:     query,
		detection: det,
		profile:   s.registry.Lookup(det.Class),
		format:    format,
		limit:     max(req.Limit, 1),
	}

	var delegated string
	if d := p.profile.PriorityDelegate; d != "" && extract.MentionsPriority(query) {
		delegated = p.profile.Class
		query = rewriteNouns(query, p.profile.DelegateNouns)
		p.profile = s.registry.Lookup(d)
	}

	p.schema = s.schemas.Get(ctx, p.profile.Class)
	p.intent = s.extractor.Extract(query, p.profile, p.schema)
	if delegated != "" {
		note := fmt.Sprintf("Showing %s records since the generic %s class has no priority field; Incidents, Problems and Changes need separate queries.",
			p.profile.Class, delegated)
		p.intent.Notes = append([]string{note}, p.intent.Notes...)
	}
	return p, nil
}

// rewriteNouns replaces whole-word nouns, longest first, keeping the rest
// of the query intact.
func rewriteNouns(query string, nouns map[string]string) string {
	keys := make([]string, 0, len(nouns))
	for k := range nouns {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	for _, k := range keys {
		re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(k) + `\b`)
		query = re.ReplaceAllLiteralString(query, nouns[k])
	}
	return query
}

// outcome is what one pipeline run reports to observers and metrics.
type outcome struct {
	class  string
	action domain.Action
	label  string
	err    error
}

// Process answers one natural-language query.
func (s *Service) Process(ctx context.Context, req Request) string {
	start := s.now()
	requestID := uuid.NewString()

	text, out := s.process(ctx, req)

	action := string(out.action)
	if action == "" {
		action = "none"
	}
	metrics.RecordPipelineRun(action, out.label)
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      useCaseSmartQuery,
		RequestID: requestID,
		Duration:  s.now().Sub(start),
		Success:   out.err == nil,
		Err:       out.err,
		Fields: map[string]any{
			"class":   out.class,
			"action":  action,
			"outcome": out.label,
		},
	})
	return text
}

func (s *Service) process(ctx context.Context, req Request) (string, outcome) {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return formatter.FormatError(err), outcome{label: "invalid", err: err}
	}
	out := outcome{class: p.profile.Class, action: p.intent.Action, label: "ok"}

	if p.intent.Action == domain.ActionCompare {
		return s.runComparison(ctx, p, out)
	}

	flagged := len(p.intent.Unverified()) > 0
	if flagged {
		switch s.cfg.Unverified {
		case PolicyAbort:
			out.label, out.err = "aborted", ErrUnverifiedFilters
			return formatter.FormatWarning("Unverified filters", abortMessage(p.intent.Unverified())), out
		case PolicyDrop:
			dropUnverified(&p.intent, "skipped unverified filter %s")
		default:
			s.resolve(ctx, p, s.cfg.DiscoveryLimit)
		}
	}

	builder := oql.NewBuilder(oql.WithUnverified())
	query, err := builder.Build(p.profile.Class, p.intent.Filters)
	if err != nil {
		out.label, out.err = "invalid", err
		return formatter.FormatError(err), out
	}

	fields := outputFields(p.profile, p.intent, p.schema)
	res, err := s.execute(ctx, p, query, fields)
	if err != nil {
		out.label, out.err = "remote_error", err
		if itop.IsUnknownClass(err) && p.profile.Family == entity.FamilyTickets {
			return formatter.FormatUnknownClass(p.profile.Class, err), out
		}
		return formatter.FormatError(err), out
	}

	if res.Total() == 0 && flagged && s.cfg.Unverified == PolicyDiscover {
		if retried, ok := s.correct(ctx, p, builder, query); ok {
			out.label = "corrected"
			query = retried
			res, err = s.execute(ctx, p, query, fields)
			if err != nil {
				out.label, out.err = "remote_error", err
				return formatter.FormatError(err), out
			}
		}
	}
	if res.Total() == 0 && out.label == "ok" {
		out.label = "empty"
	}

	return formatter.FormatResult(formatter.ResultView{
		Query:   p.query,
		Profile: p.profile,
		Intent:  p.intent,
		OQL:     query,
		Result:  res,
		Format:  p.format,
	}), out
}

func (s *Service) execute(ctx context.Context, p *prepared, query, fields string) (*domain.QueryResult, error) {
	s.logger.DebugContext(ctx, "query_execute", "class", p.profile.Class, "oql", query, "output_fields", fields, "limit", p.limit)
	return s.client.Get(ctx, itop.GetRequest{
		Class:        p.profile.Class,
		Key:          query,
		OutputFields: fields,
		Limit:        p.limit,
	})
}

func (s *Service) runComparison(ctx context.Context, p *prepared, out outcome) (string, outcome) {
	rep, err := s.comparator.Run(ctx, compare.Request{
		Query:   p.query,
		Profile: p.profile,
		Terms:   p.intent.ComparisonTerms,
		Limit:   p.limit,
	})
	if errors.Is(err, compare.ErrNoComparison) {
		out.label, out.err = "invalid", err
		return fmt.Sprintf("%s Could not parse comparison query: %q", formatter.ErrorMarker, p.query), out
	}
	if err != nil {
		out.label, out.err = "remote_error", err
		return formatter.FormatError(err), out
	}
	return formatter.FormatComparison(rep, p.profile), out
}

// resolve runs value discovery over the flagged filters and discloses
// what could not be settled.
func (s *Service) resolve(ctx context.Context, p *prepared, limit int) discovery.Report {
	rep := s.values.Resolve(ctx, p.profile.Class, &p.intent, limit)
	for _, u := range rep.Unresolved {
		p.intent.AddNote("filter %s is unverified: %s", u.Predicate.Describe(), u.Reason)
	}
	return rep
}

// correct retries discovery with the widest sample after an empty result,
// then drops filters whose value is still unknown. It reports the new OQL
// when the query changed.
func (s *Service) correct(ctx context.Context, p *prepared, b *oql.Builder, previous string) (string, bool) {
	if len(p.intent.Unverified()) > 0 {
		s.values.Resolve(ctx, p.profile.Class, &p.intent, discovery.MaxSample)
		dropUnverified(&p.intent, "dropped filter %s: no stored value matches")
	}
	query, err := b.Build(p.profile.Class, p.intent.Filters)
	if err != nil || query == previous {
		return "", false
	}
	p.intent.AddNote("no results with the original filters; retried as %s", query)
	return query, true
}

func dropUnverified(intent *domain.QueryIntent, note string) {
	kept := intent.Filters[:0]
	for _, f := range intent.Filters {
		if f.NeedsValueDiscovery {
			intent.AddNote(note, f.Describe())
			continue
		}
		kept = append(kept, f)
	}
	intent.Filters = kept
}

func abortMessage(preds []domain.Predicate) string {
	descs := make([]string, len(preds))
	for i, p := range preds {
		descs[i] = p.Describe()
	}
	return fmt.Sprintf("the query was not run because these filters guess values that were not verified: %s. Rephrase with exact values or use the discover policy.",
		strings.Join(descs, "; "))
}
