package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/itop"
)

// FakeClient is an in-memory itop.Client. Responses are looked up by OQL
// key first, then by class, then handed to Responder.
type FakeClient struct {
	mu    sync.Mutex
	calls []itop.GetRequest

	ByKey      map[string]*domain.QueryResult
	ByClass    map[string]*domain.QueryResult
	Errors     map[string]error
	Responder  func(req itop.GetRequest) (*domain.QueryResult, error)
	Operations []itop.Operation
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		ByKey:   make(map[string]*domain.QueryResult),
		ByClass: make(map[string]*domain.QueryResult),
		Errors:  make(map[string]error),
	}
}

func (f *FakeClient) Get(_ context.Context, req itop.GetRequest) (*domain.QueryResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()

	if err, ok := f.Errors[req.Key]; ok {
		return nil, err
	}
	if err, ok := f.Errors[req.Class]; ok {
		return nil, err
	}
	if res, ok := f.ByKey[req.Key]; ok {
		return res, nil
	}
	if res, ok := f.ByClass[req.Class]; ok {
		return res, nil
	}
	if f.Responder != nil {
		return f.Responder(req)
	}
	return NewResult("Found: 0"), nil
}

func (f *FakeClient) ListOperations(context.Context) ([]itop.Operation, error) {
	return f.Operations, nil
}

// Calls returns a copy of every Get request received so far.
func (f *FakeClient) Calls() []itop.GetRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]itop.GetRequest, len(f.calls))
	copy(out, f.calls)
	return out
}

// Keys returns the OQL keys received, in call order.
func (f *FakeClient) Keys() []string {
	var out []string
	for _, c := range f.Calls() {
		out = append(out, c.Key)
	}
	return out
}

// NewResult builds a QueryResult the way the REST client decodes one.
func NewResult(message string, records ...domain.Record) *domain.QueryResult {
	res := &domain.QueryResult{
		Objects:    make(map[string]domain.Record, len(records)),
		RawMessage: message,
	}
	for _, r := range records {
		key := fmt.Sprintf("%s::%s", r.Class, r.Key)
		res.Objects[key] = r
		res.Order = append(res.Order, key)
	}
	if n, ok := itop.FindCount(message); ok {
		res.ExtractedCount = &n
	}
	return res
}

// NewRecord builds one object of class with the given fields.
func NewRecord(class, key string, fields map[string]any) domain.Record {
	return domain.Record{Key: key, Class: class, Fields: fields}
}

// FieldValues returns records carrying one field, keyed 1..n, for value
// discovery scenarios.
func FieldValues(class, field string, values ...string) []domain.Record {
	out := make([]domain.Record, len(values))
	for i, v := range values {
		out[i] = NewRecord(class, fmt.Sprint(i+1), map[string]any{"id": fmt.Sprint(i + 1), field: v})
	}
	return out
}
