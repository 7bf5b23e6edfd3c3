package schema

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/itopnl/internal/itop"
	"github.com/alexanderramin/itopnl/internal/testutil"
)

func sampleUserRequest() *testutil.FakeClient {
	fake := testutil.NewFakeClient()
	fake.ByClass["UserRequest"] = testutil.NewResult("Found: 1", testutil.NewRecord("UserRequest", "12", map[string]any{
		"ref":                "R-000012",
		"title":              "Cannot print",
		"status":             "assigned",
		"priority":           "2",
		"org_name":           "Demo",
		"caller_name":        "Ann Lee",
		"caller_id":          "4",
		"description":        "<p>The printer on floor 2 is jammed.</p>",
		"functionalcis_list": []any{},
		"public_log":         "",
		"name":               "",
	}))
	return fake
}

func TestDiscoverer_Get_BuildsSchemaFromSample(t *testing.T) {
	fake := sampleUserRequest()
	d := NewDiscoverer(fake)

	s := d.Get(context.Background(), "UserRequest")

	require.False(t, s.Empty())
	assert.Equal(t, "UserRequest", s.ClassName)
	assert.Contains(t, s.FieldNames, "caller_id")
	assert.Equal(t, []string{"title", "status", "ref", "description", "org_name"}, s.KeyFields)
	for _, f := range s.DisplayFields {
		assert.NotContains(t, f, "_id")
		assert.NotContains(t, f, "_list")
		assert.NotContains(t, f, "log")
		assert.NotEqual(t, "description", f)
	}
	assert.LessOrEqual(t, len(s.DisplayFields), 8)

	calls := fake.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, "SELECT UserRequest", calls[0].Key)
	assert.Equal(t, "*+", calls[0].OutputFields)
	assert.Equal(t, 1, calls[0].Limit)
}

func TestDiscoverer_Get_UsesCache(t *testing.T) {
	fake := sampleUserRequest()
	d := NewDiscoverer(fake)

	first := d.Get(context.Background(), "UserRequest")
	second := d.Get(context.Background(), "UserRequest")

	assert.Equal(t, first, second)
	assert.Len(t, fake.Calls(), 1)
	assert.True(t, d.Cached("UserRequest"))
}

func TestDiscoverer_Get_FailureYieldsCachedEmptySchema(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.Errors["Widget"] = &itop.RemoteError{Code: 100, Message: "Unknown class 'Widget'"}
	d := NewDiscoverer(fake)

	s := d.Get(context.Background(), "Widget")
	again := d.Get(context.Background(), "Widget")

	assert.True(t, s.Empty())
	assert.True(t, again.Empty())
	assert.Len(t, fake.Calls(), 1)
}

func TestDiscoverer_Get_NoRecordsYieldsEmptySchema(t *testing.T) {
	d := NewDiscoverer(testutil.NewFakeClient())

	s := d.Get(context.Background(), "Rack")

	assert.True(t, s.Empty())
	assert.True(t, s.HasField("anything"))
}

func TestDiscoverer_Get_ConcurrentCallersAgree(t *testing.T) {
	fake := sampleUserRequest()
	d := NewDiscoverer(fake)

	var wg sync.WaitGroup
	results := make([]int, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = len(d.Get(context.Background(), "UserRequest").FieldNames)
		}(i)
	}
	wg.Wait()

	for _, n := range results {
		assert.Equal(t, results[0], n)
	}
}

func TestFromRecord_TruncatesSampleValues(t *testing.T) {
	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}
	s := FromRecord("PC", testutil.NewRecord("PC", "1", map[string]any{"name": string(long)}))

	assert.Len(t, s.SampleValues["name"], 100)
}

func TestFindSemanticallySimilarField(t *testing.T) {
	fields := []string{"status", "org_name", "team_name", "start_date", "last_update", "caller_name"}

	tests := []struct {
		term  string
		want  string
		score float64
		ok    bool
	}{
		{"status", "status", 1.0, true},
		{"state", "status", 0.9, true},
		{"organization", "org_name", 0.9, true},
		{"updated", "last_update", 0.9, true},
		{"caller", "caller_name", 0.9, true},
		{"team_id", "team_name", 0.6, true},
		{"colour", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got, score, ok := FindSemanticallySimilarField(tt.term, fields)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.InDelta(t, tt.score, score, 0.001)
		})
	}
}

func TestFromRecord_KeepsRecordFieldOrder(t *testing.T) {
	rec := testutil.NewRecord("PC", "1", map[string]any{"name": "pc-01", "status": "production", "brand_name": "Dell", "org_name": "Demo"})
	rec.FieldOrder = []string{"name", "status", "brand_name", "org_name"}

	s := FromRecord("PC", rec)

	assert.Equal(t, []string{"name", "status", "brand_name", "org_name"}, s.FieldNames)
	assert.Equal(t, []string{"name", "status", "brand_name", "org_name"}, s.DisplayFields)
}

func TestFromRecord_SortsWithoutRecordOrder(t *testing.T) {
	s := FromRecord("PC", testutil.NewRecord("PC", "1", map[string]any{"status": "stock", "name": "pc-02"}))

	assert.Equal(t, []string{"name", "status"}, s.FieldNames)
}

func TestWithoutIDFields(t *testing.T) {
	assert.Equal(t, []string{"team_name", "status"}, WithoutIDFields([]string{"id", "team_id", "team_name", "status"}))
}

func TestFindSemanticallySimilarField_EmptyInputs(t *testing.T) {
	_, _, ok := FindSemanticallySimilarField("status", nil)
	assert.False(t, ok)

	_, _, ok = FindSemanticallySimilarField("", []string{"status"})
	assert.False(t, ok)
}
