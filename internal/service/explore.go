package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/alexanderramin/itopnl/internal/compare"
	"github.com/alexanderramin/itopnl/internal/discovery"
	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/formatter"
	"github.com/alexanderramin/itopnl/internal/oql"
)

// Explain shows how a query would be read and which OQL it would run.
// Only the schema lookup touches the remote; value discovery is skipped,
// so guessed literals show up as unverified.
func (s *Service) Explain(ctx context.Context, req Request) string {
	p, err := s.prepare(ctx, req)
	if err != nil {
		return formatter.FormatError(err)
	}

	var queries []string
	if p.intent.Action == domain.ActionCompare {
		plan, err := s.comparator.Plan(compare.Request{Query: p.query, Profile: p.profile, Terms: p.intent.ComparisonTerms})
		if err != nil {
			p.intent.AddNote("comparison: %v", err)
		} else {
			for _, side := range plan.Sides {
				queries = append(queries, side.OQL)
			}
		}
	} else {
		q, err := oql.NewBuilder(oql.WithUnverified()).Build(p.profile.Class, p.intent.Filters)
		if err != nil {
			return formatter.FormatError(err)
		}
		queries = append(queries, q)
		p.intent.AddNote("output fields: %s", outputFields(p.profile, p.intent, p.schema))
	}

	return formatter.FormatDetection(formatter.Explanation{
		Query:     p.query,
		Detection: p.detection,
		Class:     p.profile.Class,
		Intent:    p.intent,
		OQL:       queries,
		Schema:    p.schema,
	})
}

// DescribeClass shows the discovered schema of class.
func (s *Service) DescribeClass(ctx context.Context, class string) string {
	class = strings.TrimSpace(class)
	if !oql.ValidIdentifier(class) {
		return formatter.FormatError(fmt.Errorf("%w: %w: class %q", ErrInvalidRequest, oql.ErrInvalidIdentifier, class))
	}
	return formatter.FormatSchema(s.schemas.Get(ctx, class))
}

// DiscoverValues samples the stored values of class.field. A non-empty
// search term is matched against them the way filter values are.
func (s *Service) DiscoverValues(ctx context.Context, class, field, search string, limit int) string {
	if limit < 1 {
		limit = s.cfg.DiscoveryLimit
	}
	prof, err := s.values.DiscoverValues(ctx, strings.TrimSpace(class), strings.TrimSpace(field), limit)
	if err != nil {
		return formatter.FormatError(err)
	}
	var match *formatter.ValueMatch
	if search = strings.TrimSpace(search); search != "" {
		v, kind := discovery.FindBestValueMatch(search, prof.Values)
		match = &formatter.ValueMatch{Term: search, Value: v, Kind: string(kind)}
	}
	return formatter.FormatValueProfile(prof, match)
}

// ListOperations shows the REST verbs the remote supports.
func (s *Service) ListOperations(ctx context.Context) string {
	ops, err := s.client.ListOperations(ctx)
	if err != nil {
		return formatter.FormatError(err)
	}
	return formatter.FormatOperations(ops)
}
