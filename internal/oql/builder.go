// Package oql renders predicate lists into iTop OQL select statements.
package oql

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/alexanderramin/itopnl/internal/domain"
)

var (
	// ErrInvalidIdentifier indicates a class or field name that is not a
	// plain OQL identifier.
	ErrInvalidIdentifier = errors.New("invalid oql identifier")

	// ErrUnverifiedPredicate indicates a predicate whose literal was never
	// checked against remote values.
	ErrUnverifiedPredicate = errors.New("predicate value not verified")

	// ErrEmptyInList indicates an IN predicate without members.
	ErrEmptyInList = errors.New("IN predicate has no values")
)

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdentifier reports whether s can be used as a class or field name.
func ValidIdentifier(s string) bool { return identifierRe.MatchString(s) }

// Option configures a Builder.
type Option func(*Builder)

// WithUnverified lets the builder render predicates still flagged for
// value discovery.
func WithUnverified() Option {
	return func(b *Builder) { b.allowUnverified = true }
}

// Builder turns predicate lists into OQL. The zero value is ready to use.
type Builder struct {
	allowUnverified bool
}

func NewBuilder(opts ...Option) *Builder {
	b := &Builder{}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build renders a SELECT for class. Predicates on the same field that are
// equality or membership tests merge into one de-duplicated IN list; other
// operators are rendered one by one. Field order follows first appearance.
func (b *Builder) Build(class string, preds []domain.Predicate) (string, error) {
	if !ValidIdentifier(class) {
		return "", fmt.Errorf("%w: class %q", ErrInvalidIdentifier, class)
	}

	var fields []string
	byField := make(map[string][]domain.Predicate)
	for _, p := range preds {
		if !ValidIdentifier(p.Field) {
			return "", fmt.Errorf("%w: field %q", ErrInvalidIdentifier, p.Field)
		}
		if p.NeedsValueDiscovery && !b.allowUnverified {
			return "", fmt.Errorf("%w: %s", ErrUnverifiedPredicate, p.Describe())
		}
		if _, seen := byField[p.Field]; !seen {
			fields = append(fields, p.Field)
		}
		byField[p.Field] = append(byField[p.Field], p)
	}

	var clauses []string
	for _, field := range fields {
		group := byField[field]
		if len(group) == 1 {
			c, err := renderPredicate(group[0])
			if err != nil {
				return "", err
			}
			clauses = append(clauses, c)
			continue
		}

		var members []string
		for _, p := range group {
			if p.Operator == domain.OpEqual || p.Operator == domain.OpIn {
				members = appendUnique(members, p.Members()...)
				continue
			}
			c, err := renderPredicate(p)
			if err != nil {
				return "", err
			}
			clauses = append(clauses, c)
		}
		switch len(members) {
		case 0:
		case 1:
			clauses = append(clauses, fmt.Sprintf("%s = %s", field, Quote(members[0])))
		default:
			clauses = append(clauses, renderIn(field, members))
		}
	}

	if len(clauses) == 0 {
		return "SELECT " + class, nil
	}
	return "SELECT " + class + " WHERE " + strings.Join(clauses, " AND "), nil
}

// BuildAll renders one query per predicate set, in order.
func (b *Builder) BuildAll(class string, sets [][]domain.Predicate) ([]string, error) {
	out := make([]string, 0, len(sets))
	for i, set := range sets {
		q, err := b.Build(class, set)
		if err != nil {
			return nil, fmt.Errorf("query %d: %w", i+1, err)
		}
		out = append(out, q)
	}
	return out, nil
}

func renderPredicate(p domain.Predicate) (string, error) {
	switch p.Operator {
	case domain.OpIn:
		vals := appendUnique(nil, p.Values...)
		if len(vals) == 0 {
			return "", fmt.Errorf("%w: %s", ErrEmptyInList, p.Field)
		}
		return renderIn(p.Field, vals), nil
	case domain.OpIsNull:
		return fmt.Sprintf("ISNULL(%s)", p.Field), nil
	case domain.OpEqual, domain.OpNotEqual, domain.OpGreater, domain.OpLess,
		domain.OpGreaterEqual, domain.OpLessEqual, domain.OpLike:
		return fmt.Sprintf("%s %s %s", p.Field, p.Operator, Quote(p.Value)), nil
	default:
		return "", fmt.Errorf("unsupported operator %q on %s", p.Operator, p.Field)
	}
}

func renderIn(field string, vals []string) string {
	quoted := make([]string, len(vals))
	for i, v := range vals {
		quoted[i] = Quote(v)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(quoted, ","))
}

var literalEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

// Quote renders s as a single-quoted OQL string literal.
func Quote(s string) string {
	return "'" + literalEscaper.Replace(s) + "'"
}

func appendUnique(dst []string, vals ...string) []string {
	for _, v := range vals {
		dup := false
		for _, d := range dst {
			if d == v {
				dup = true
				break
			}
		}
		if !dup {
			dst = append(dst, v)
		}
	}
	return dst
}
