package domain

import (
	"fmt"
	"sort"
	"strings"
)

// ClassSchema is the discovered shape of a remote class, taken from one
// sample record. An empty schema means "no schema awareness" and never
// blocks a query.
type ClassSchema struct {
	ClassName     string
	FieldNames    []string
	SampleValues  map[string]string
	KeyFields     []string
	DisplayFields []string
}

func (s ClassSchema) Empty() bool { return len(s.FieldNames) == 0 }

// HasField reports whether the schema lists field. An empty schema
// reports true so callers fall back to unchecked behavior.
func (s ClassSchema) HasField(field string) bool {
	if s.Empty() {
		return true
	}
	for _, f := range s.FieldNames {
		if f == field {
			return true
		}
	}
	return false
}

type FieldType string

const (
	FieldEnum    FieldType = "enum"
	FieldText    FieldType = "text"
	FieldNumeric FieldType = "numeric"
	FieldBoolean FieldType = "boolean"
	FieldDate    FieldType = "date"
	FieldUnknown FieldType = "unknown"
)

// FieldValueProfile summarizes values observed for one field on a class.
type FieldValueProfile struct {
	Class        string
	Field        string
	Values       []string
	TotalSampled int
	FieldType    FieldType
	Confidence   float64
}

// Record is one object returned by the remote.
type Record struct {
	Key    string
	Code   int
	Class  string
	Fields map[string]any
	// FieldOrder lists field names as the remote sent them. It may be nil
	// for records built in memory.
	FieldOrder []string
}

// Get stringifies a field value. Missing or null fields yield "".
func (r Record) Get(field string) string {
	return Stringify(r.Fields[field])
}

// QueryResult is the decoded remote answer for one query.
type QueryResult struct {
	Objects map[string]Record
	// Order holds object keys in the order the remote listed them.
	Order          []string
	RawMessage     string
	ExtractedCount *int
}

// Records returns objects in remote order, falling back to sorted keys.
func (r *QueryResult) Records() []Record {
	if r == nil {
		return nil
	}
	keys := r.Order
	if len(keys) != len(r.Objects) {
		keys = make([]string, 0, len(r.Objects))
		for k := range r.Objects {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	out := make([]Record, 0, len(keys))
	for _, k := range keys {
		if rec, ok := r.Objects[k]; ok {
			out = append(out, rec)
		}
	}
	return out
}

// Total prefers the remote-reported count over the number of records returned.
func (r *QueryResult) Total() int {
	if r == nil {
		return 0
	}
	if r.ExtractedCount != nil && *r.ExtractedCount > 0 {
		return *r.ExtractedCount
	}
	return len(r.Objects)
}

// Stringify renders a decoded JSON value as display text.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%g", t)
	case bool:
		if t {
			return "yes"
		}
		return "no"
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			parts = append(parts, Stringify(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		for _, k := range []string{"friendlyname", "name", "title"} {
			if s, ok := t[k]; ok {
				return Stringify(s)
			}
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}
