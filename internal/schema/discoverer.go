// Package schema discovers the field layout of remote classes from a
// sample record and caches it for the life of the process.
package schema

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/itop"
	"github.com/alexanderramin/itopnl/internal/metrics"
)

// DefaultCacheSize is far above the number of classes a typical iTop
// data model exposes, so entries are not evicted in practice.
const DefaultCacheSize = 512

const (
	maxKeyFields     = 5
	maxDisplayFields = 8
	maxSampleLen     = 100
	maxDisplayLen    = 200
)

var keyFieldCandidates = []string{"name", "friendlyname", "title", "status", "id", "ref", "description", "org_name", "caller_name"}

var displayExclusions = []string{"_id", "_list", "html", "description", "solution", "log"}

// Discoverer fetches and caches class schemas.
type Discoverer struct {
	client itop.Client
	cache  *lru.Cache[string, domain.ClassSchema]
	logger *slog.Logger
}

type Option func(*Discoverer)

// WithLogger sets the logger used to report failed discoveries.
func WithLogger(l *slog.Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// WithCacheSize overrides DefaultCacheSize.
func WithCacheSize(n int) Option {
	return func(d *Discoverer) {
		if n > 0 {
			d.cache, _ = lru.New[string, domain.ClassSchema](n)
		}
	}
}

func NewDiscoverer(client itop.Client, opts ...Option) *Discoverer {
	cache, _ := lru.New[string, domain.ClassSchema](DefaultCacheSize)
	d := &Discoverer{
		client: client,
		cache:  cache,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Get returns the schema for class. Failures yield an empty schema, which
// is cached like any other so a broken class is probed once per process.
// Two concurrent first lookups may both fetch; the later write wins.
func (d *Discoverer) Get(ctx context.Context, class string) domain.ClassSchema {
	if s, ok := d.cache.Get(class); ok {
		metrics.RecordSchemaLookup("hit")
		return s
	}

	s := d.discover(ctx, class)
	d.cache.Add(class, s)
	if s.Empty() {
		metrics.RecordSchemaLookup("empty")
	} else {
		metrics.RecordSchemaLookup("miss")
	}
	return s
}

// Cached reports whether class already has a cache entry.
func (d *Discoverer) Cached(class string) bool {
	return d.cache.Contains(class)
}

func (d *Discoverer) discover(ctx context.Context, class string) domain.ClassSchema {
	empty := domain.ClassSchema{ClassName: class}

	res, err := d.client.Get(ctx, itop.GetRequest{
		Class:        class,
		Key:          "SELECT " + class,
		OutputFields: "*+",
		Limit:        1,
	})
	if err != nil {
		d.logger.WarnContext(ctx, "schema_discovery_failed", "class", class, "error", err.Error())
		return empty
	}
	records := res.Records()
	if len(records) == 0 {
		d.logger.InfoContext(ctx, "schema_discovery_empty", "class", class)
		return empty
	}

	return FromRecord(class, records[0])
}

// FromRecord derives a schema from one sample record. Field names keep the
// record's order; records without one fall back to sorted names.
func FromRecord(class string, rec domain.Record) domain.ClassSchema {
	names := fieldNames(rec)

	s := domain.ClassSchema{
		ClassName:    class,
		FieldNames:   names,
		SampleValues: make(map[string]string, len(names)),
	}
	for _, n := range names {
		v := rec.Get(n)
		if len(v) > maxSampleLen {
			v = v[:maxSampleLen]
		}
		s.SampleValues[n] = v
	}

	for _, c := range keyFieldCandidates {
		if len(s.KeyFields) == maxKeyFields {
			break
		}
		if rec.Get(c) != "" {
			s.KeyFields = append(s.KeyFields, c)
		}
	}

	for _, n := range names {
		if len(s.DisplayFields) == maxDisplayFields {
			break
		}
		if excludedFromDisplay(n) {
			continue
		}
		if len(rec.Get(n)) < maxDisplayLen {
			s.DisplayFields = append(s.DisplayFields, n)
		}
	}
	return s
}

func fieldNames(rec domain.Record) []string {
	if len(rec.FieldOrder) == len(rec.Fields) {
		ordered := true
		for _, n := range rec.FieldOrder {
			if _, ok := rec.Fields[n]; !ok {
				ordered = false
				break
			}
		}
		if ordered {
			return append([]string(nil), rec.FieldOrder...)
		}
	}
	names := make([]string, 0, len(rec.Fields))
	for k := range rec.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func excludedFromDisplay(field string) bool {
	for _, ex := range displayExclusions {
		if strings.Contains(field, ex) {
			return true
		}
	}
	return false
}
