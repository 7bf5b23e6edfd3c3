// Package discovery samples the values a remote field actually holds and
// maps user vocabulary onto them.
package discovery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/itop"
	"github.com/alexanderramin/itopnl/internal/oql"
)

const (
	// DefaultLimit is the number of distinct values kept per field.
	DefaultLimit = 50
	// MaxSample caps the rows fetched for one discovery.
	MaxSample = 500

	sampleFactor = 3
)

var (
	numericRe = regexp.MustCompile(`^-?\d+(?:\.\d+)?$`)
	dateRe    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}(?:[ T]\d{2}:\d{2}(?::\d{2})?)?$`)
)

var booleanWords = map[string]bool{
	"yes": true, "no": true, "true": true, "false": true,
	"y": true, "n": true, "on": true, "off": true, "0": true, "1": true,
}

// Engine runs value discovery against the remote.
type Engine struct {
	client itop.Client
	logger *slog.Logger
}

type Option func(*Engine)

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func NewEngine(client itop.Client, opts ...Option) *Engine {
	e := &Engine{
		client: client,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SampleSize is the row count fetched to find up to limit distinct values.
func SampleSize(limit int) int {
	if limit < 1 {
		limit = DefaultLimit
	}
	return min(limit*sampleFactor, MaxSample)
}

// DiscoverValues samples field on class and profiles what it finds. The
// distinct values keep first-seen order and are capped at limit.
func (e *Engine) DiscoverValues(ctx context.Context, class, field string, limit int) (domain.FieldValueProfile, error) {
	if !oql.ValidIdentifier(class) {
		return domain.FieldValueProfile{}, fmt.Errorf("%w: class %q", oql.ErrInvalidIdentifier, class)
	}
	if !oql.ValidIdentifier(field) {
		return domain.FieldValueProfile{}, fmt.Errorf("%w: field %q", oql.ErrInvalidIdentifier, field)
	}
	if limit < 1 {
		limit = DefaultLimit
	}

	res, err := e.client.Get(ctx, itop.GetRequest{
		Class:        class,
		Key:          "SELECT " + class,
		OutputFields: "id," + field,
		Limit:        SampleSize(limit),
	})
	if err != nil {
		return domain.FieldValueProfile{}, fmt.Errorf("discover %s.%s: %w", class, field, err)
	}

	profile := domain.FieldValueProfile{Class: class, Field: field}
	var samples []string
	seen := map[string]bool{}
	for _, rec := range res.Records() {
		profile.TotalSampled++
		v := strings.TrimSpace(rec.Get(field))
		if v == "" {
			continue
		}
		samples = append(samples, v)
		if !seen[v] && len(profile.Values) < limit {
			seen[v] = true
			profile.Values = append(profile.Values, v)
		}
	}
	profile.FieldType, profile.Confidence = classifyField(field, samples, distinct(samples))

	e.logger.DebugContext(ctx, "values_discovered",
		"class", class,
		"field", field,
		"sampled", profile.TotalSampled,
		"distinct", len(profile.Values),
		"type", string(profile.FieldType),
	)
	return profile, nil
}

func distinct(samples []string) int {
	seen := make(map[string]bool, len(samples))
	for _, s := range samples {
		seen[s] = true
	}
	return len(seen)
}

// classifyField guesses the field type from sampled values, then from the
// field name when the values are inconclusive.
func classifyField(field string, samples []string, distinctCount int) (domain.FieldType, float64) {
	hint := nameHint(field)
	n := len(samples)
	if n == 0 {
		if hint != domain.FieldUnknown {
			return hint, 0.3
		}
		return domain.FieldUnknown, 0
	}

	var numeric, dates int
	allBool := true
	for _, s := range samples {
		if numericRe.MatchString(s) {
			numeric++
		}
		if dateRe.MatchString(s) {
			dates++
		}
		if !booleanWords[strings.ToLower(s)] {
			allBool = false
		}
	}

	bump := func(t domain.FieldType, c float64) (domain.FieldType, float64) {
		if hint == t {
			c += 0.1
		}
		return t, min(c, 1)
	}

	switch {
	case ratio(numeric, n) >= 0.8:
		return bump(domain.FieldNumeric, ratio(numeric, n))
	case allBool:
		return bump(domain.FieldBoolean, 0.9)
	case ratio(dates, n) >= 0.7:
		return bump(domain.FieldDate, ratio(dates, n))
	case distinctCount <= 20 && n > 10:
		return bump(domain.FieldEnum, 0.6+0.3*(1-ratio(distinctCount, n)))
	case hint != domain.FieldUnknown:
		return hint, 0.6
	default:
		return domain.FieldText, 0.5
	}
}

func nameHint(field string) domain.FieldType {
	f := strings.ToLower(field)
	switch {
	case strings.Contains(f, "status"), strings.Contains(f, "priority"):
		return domain.FieldEnum
	case strings.Contains(f, "date"), strings.Contains(f, "time"):
		return domain.FieldDate
	case f == "id", strings.HasSuffix(f, "_id"), strings.Contains(f, "count"):
		return domain.FieldNumeric
	}
	return domain.FieldUnknown
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
