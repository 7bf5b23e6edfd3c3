package service

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/itopnl/internal/discovery"
	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/itop"
	"github.com/alexanderramin/itopnl/internal/testutil"
)

var fixedNow = time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string { return ansiPattern.ReplaceAllString(s, "") }

type recordingObserver struct {
	mu     sync.Mutex
	events []UseCaseEvent
}

func (r *recordingObserver) ObserveUseCase(_ context.Context, e UseCaseEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func newTestService(client itop.Client, mutate ...func(*Config)) *Service {
	cfg := DefaultConfig()
	for _, m := range mutate {
		m(&cfg)
	}
	return New(client, cfg, WithClock(func() time.Time { return fixedNow }))
}

func lastCall(t *testing.T, fake *testutil.FakeClient) itop.GetRequest {
	t.Helper()
	calls := fake.Calls()
	require.NotEmpty(t, calls)
	return calls[len(calls)-1]
}

func TestProcess_ListAllServersIsUnconditioned(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.ByKey["SELECT Server"] = testutil.NewResult("Found: 1",
		testutil.NewRecord("Server", "3", map[string]any{"name": "web01", "status": "production"}))

	out := stripANSI(newTestService(fake).Process(context.Background(), Request{Query: "list all servers", Limit: 100}))

	call := lastCall(t, fake)
	assert.Equal(t, "SELECT Server", call.Key)
	assert.Equal(t, "*+", call.OutputFields)
	assert.Equal(t, 100, call.Limit)
	assert.Contains(t, out, "OQL: SELECT Server\n")
	assert.Contains(t, out, "web01")
}

func TestProcess_CriticalTicketsDelegateToUserRequests(t *testing.T) {
	fake := testutil.NewFakeClient()

	out := stripANSI(newTestService(fake).Process(context.Background(), Request{Query: "critical tickets", Limit: 10}))

	call := lastCall(t, fake)
	assert.Equal(t, "UserRequest", call.Class)
	assert.Equal(t, "SELECT UserRequest WHERE priority = '1'", call.Key)
	assert.Contains(t, out, "Showing UserRequest records since the generic Ticket class has no priority field")
}

func TestProcess_TeamQueryWithRelativeWindow(t *testing.T) {
	fake := testutil.NewFakeClient()

	newTestService(fake).Process(context.Background(), Request{
		Query: "show me critical tickets assigned to the support team this week",
		Limit: 20,
	})

	call := lastCall(t, fake)
	assert.Equal(t,
		"SELECT UserRequest WHERE priority = '1' AND team_name LIKE '%support%' AND start_date >= '2024-01-08 00:00:00'",
		call.Key)
	assert.Equal(t, "id,ref,title,status,priority,urgency,caller_name,agent_name,org_name,team_name,start_date,last_update", call.OutputFields)
}

func TestProcess_ClampsLimit(t *testing.T) {
	fake := testutil.NewFakeClient()

	newTestService(fake).Process(context.Background(), Request{Query: "list all servers", Limit: 0})

	assert.Equal(t, 1, lastCall(t, fake).Limit)
}

func TestProcess_ForcedClassSkipsDetection(t *testing.T) {
	fake := testutil.NewFakeClient()

	newTestService(fake).Process(context.Background(), Request{Query: "list everything", ForceClass: "Rack", Limit: 5})

	assert.Equal(t, "SELECT Rack", lastCall(t, fake).Key)
}

func TestProcess_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{"empty query", Request{Query: "   "}, "query is empty"},
		{"bad format", Request{Query: "list servers", Format: "xml"}, "unknown output format"},
		{"bad forced class", Request{Query: "list", ForceClass: "Server WHERE 1=1"}, "invalid oql identifier"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := testutil.NewFakeClient()

			out := newTestService(fake).Process(context.Background(), tt.req)

			assert.Regexp(t, `^❌ Error: `, out)
			assert.Contains(t, out, tt.want)
			assert.Empty(t, fake.Calls())
		})
	}
}

func TestProcess_UnknownTicketClassGetsGuidance(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.Errors["Incident"] = &itop.RemoteError{Code: 100, Message: "Unknown class 'Incident'"}

	out := stripANSI(newTestService(fake).Process(context.Background(), Request{Query: "open incidents", ForceClass: "Incident", Limit: 5}))

	assert.Regexp(t, `^⚠️ Incident class not available`, out)
	assert.Contains(t, out, "generic Ticket class")
}

func TestProcess_UnknownAssetClassIsPlainError(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.Errors["Server"] = &itop.RemoteError{Code: 100, Message: "Unknown class 'Server'"}

	out := newTestService(fake).Process(context.Background(), Request{Query: "list all servers", Limit: 5})

	assert.Regexp(t, `^❌ Error: `, out)
}

func TestProcess_TransportErrorIsRendered(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.Errors["SELECT Server"] = itop.ErrTimeout

	out := newTestService(fake).Process(context.Background(), Request{Query: "list all servers", Limit: 5})

	assert.Equal(t, "❌ Error: itop request timed out", out)
}

// functionalCIClient serves status samples for FunctionalCI. Wide samples
// (value discovery at its maximum) also carry "production".
func functionalCIClient(widen bool) *testutil.FakeClient {
	fake := testutil.NewFakeClient()
	fake.Responder = func(req itop.GetRequest) (*domain.QueryResult, error) {
		switch {
		case req.OutputFields == "id,status" && widen && req.Limit == discovery.MaxSample:
			return testutil.NewResult("Found: 2", testutil.FieldValues("FunctionalCI", "status", "obsolete", "production")...), nil
		case req.OutputFields == "id,status":
			return testutil.NewResult("Found: 1", testutil.FieldValues("FunctionalCI", "status", "obsolete")...), nil
		case req.Key == "SELECT FunctionalCI WHERE status = 'production'":
			return testutil.NewResult("Found: 1", testutil.NewRecord("FunctionalCI", "7", map[string]any{"name": "web01", "status": "production"})), nil
		}
		return testutil.NewResult("Found: 0"), nil
	}
	return fake
}

func TestProcess_DiscoverPolicyCorrectsValues(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.Responder = func(req itop.GetRequest) (*domain.QueryResult, error) {
		if req.OutputFields == "id,status" {
			return testutil.NewResult("Found: 3", testutil.FieldValues("FunctionalCI", "status", "production", "stock", "obsolete")...), nil
		}
		return testutil.NewResult("Found: 0"), nil
	}

	out := stripANSI(newTestService(fake).Process(context.Background(), Request{Query: "show active functional cis", ForceClass: "FunctionalCI", Limit: 10}))

	assert.Equal(t, "SELECT FunctionalCI WHERE status = 'production'", lastCall(t, fake).Key)
	assert.Contains(t, out, "status 'active' matched stored value 'production' (synonym)")
}

func TestProcess_DropPolicySkipsUnverifiedFilters(t *testing.T) {
	fake := testutil.NewFakeClient()

	out := stripANSI(newTestService(fake, func(c *Config) { c.Unverified = PolicyDrop }).
		Process(context.Background(), Request{Query: "show active functional cis", ForceClass: "FunctionalCI", Limit: 10}))

	call := lastCall(t, fake)
	assert.Equal(t, "SELECT FunctionalCI", call.Key)
	assert.Equal(t, 10, call.Limit)
	assert.Contains(t, out, "skipped unverified filter")
}

func TestProcess_AbortPolicyRefusesToRun(t *testing.T) {
	fake := testutil.NewFakeClient()

	out := newTestService(fake, func(c *Config) { c.Unverified = PolicyAbort }).
		Process(context.Background(), Request{Query: "show active functional cis", ForceClass: "FunctionalCI", Limit: 10})

	assert.Regexp(t, `^⚠️ Unverified filters: `, out)
	assert.Contains(t, out, "active")
	// Only the schema probe reached the remote.
	require.Len(t, fake.Calls(), 1)
	assert.Equal(t, "*+", fake.Calls()[0].OutputFields)
}

func TestProcess_EmptyResultRetriesWithWiderDiscovery(t *testing.T) {
	fake := functionalCIClient(true)

	out := stripANSI(newTestService(fake).Process(context.Background(), Request{Query: "show active functional cis", ForceClass: "FunctionalCI", Limit: 10}))

	keys := fake.Keys()
	assert.Contains(t, keys, "SELECT FunctionalCI WHERE status = 'active'")
	assert.Equal(t, "SELECT FunctionalCI WHERE status = 'production'", keys[len(keys)-1])
	assert.Contains(t, out, "retried as SELECT FunctionalCI WHERE status = 'production'")
	assert.Contains(t, out, "web01")
}

func TestProcess_EmptyResultDropsValuesStillUnknown(t *testing.T) {
	fake := functionalCIClient(false)

	out := stripANSI(newTestService(fake).Process(context.Background(), Request{Query: "show active functional cis", ForceClass: "FunctionalCI", Limit: 10}))

	call := lastCall(t, fake)
	assert.Equal(t, "SELECT FunctionalCI", call.Key)
	assert.Equal(t, 10, call.Limit)
	assert.Contains(t, out, "dropped filter")
	assert.Contains(t, out, "no stored value matches")
}

func TestProcess_ChangeClosedVersusNotClosed(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.ByKey["SELECT Change WHERE status IN ('implemented','closed')"] = testutil.NewResult("Found: 12")
	fake.ByKey["SELECT Change WHERE status IN ('new','approved','rejected')"] = testutil.NewResult("Found: 5")

	out := stripANSI(newTestService(fake).Process(context.Background(), Request{
		Query:      "closed vs not closed change requests",
		ForceClass: "Change",
		Limit:      100,
	}))

	assert.Contains(t, out, "📊 Completed: 12")
	assert.Contains(t, out, "📊 Not Completed: 5")
	assert.Contains(t, out, "📊 Total: 17")
}

func TestProcess_UnparseableComparison(t *testing.T) {
	fake := testutil.NewFakeClient()

	out := newTestService(fake).Process(context.Background(), Request{Query: "compare servers", ForceClass: "Server", Limit: 5})

	assert.Regexp(t, `^❌ Could not parse comparison query`, out)
}

func TestProcess_ReportsUseCaseEvent(t *testing.T) {
	fake := testutil.NewFakeClient()
	obs := &recordingObserver{}
	svc := New(fake, DefaultConfig(), WithObserver(obs))

	svc.Process(context.Background(), Request{Query: "list all servers", Limit: 5})

	require.Len(t, obs.events, 1)
	e := obs.events[0]
	assert.Equal(t, "smart_query", e.Name)
	assert.True(t, e.Success)
	_, err := uuid.Parse(e.RequestID)
	assert.NoError(t, err)
	assert.Equal(t, "Server", e.Fields["class"])
	assert.Equal(t, "list", e.Fields["action"])
	assert.Equal(t, "empty", e.Fields["outcome"])
}

func TestProcess_FailedRunIsObservedAsFailure(t *testing.T) {
	obs := &recordingObserver{}
	svc := New(testutil.NewFakeClient(), DefaultConfig(), WithObserver(obs))

	svc.Process(context.Background(), Request{Query: ""})

	require.Len(t, obs.events, 1)
	assert.False(t, obs.events[0].Success)
	assert.ErrorIs(t, obs.events[0].Err, ErrInvalidRequest)
}

func TestExplain_ShowsDetectionAndOQLWithoutRunning(t *testing.T) {
	fake := testutil.NewFakeClient()

	out := stripANSI(newTestService(fake).Explain(context.Background(), Request{Query: "critical tickets"}))

	assert.Contains(t, out, "Detected class: Ticket")
	assert.Contains(t, out, "Queried class: UserRequest")
	assert.Contains(t, out, "OQL: SELECT UserRequest WHERE priority = '1'")
	require.Len(t, fake.Calls(), 1)
	assert.Equal(t, "SELECT UserRequest", fake.Calls()[0].Key)
}

func TestExplain_ComparisonListsBothSides(t *testing.T) {
	fake := testutil.NewFakeClient()

	out := stripANSI(newTestService(fake).Explain(context.Background(), Request{Query: "closed vs not closed changes", ForceClass: "Change"}))

	assert.Contains(t, out, "OQL: SELECT Change WHERE status IN ('implemented','closed')")
	assert.Contains(t, out, "OQL: SELECT Change WHERE status IN ('new','approved','rejected')")
}

func TestDescribeClass(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.ByKey["SELECT Person"] = testutil.NewResult("Found: 1",
		testutil.NewRecord("Person", "1", map[string]any{"name": "Lee", "email": "lee@example.com", "org_name": "Demo"}))
	svc := newTestService(fake)

	out := stripANSI(svc.DescribeClass(context.Background(), "Person"))
	assert.Contains(t, out, "Person schema (3 fields)")
	assert.Contains(t, out, "lee@example.com")

	assert.Regexp(t, `^❌ Error: `, svc.DescribeClass(context.Background(), "Person;"))
}

func TestDiscoverValues_MatchesSearchTerm(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.ByClass["Server"] = testutil.NewResult("Found: 3", testutil.FieldValues("Server", "status", "Production", "Stock", "Obsolete")...)

	out := stripANSI(newTestService(fake).DiscoverValues(context.Background(), "Server", "status", "active", 0))

	assert.Contains(t, out, "Best match for \"active\": Production (synonym)")
	assert.Equal(t, "id,status", lastCall(t, fake).OutputFields)
	assert.Equal(t, discovery.SampleSize(50), lastCall(t, fake).Limit)
}

func TestListOperations(t *testing.T) {
	fake := testutil.NewFakeClient()
	fake.Operations = []itop.Operation{{Verb: "core/get", Description: "Search for objects", Extension: "CoreServices"}}

	out := stripANSI(newTestService(fake).ListOperations(context.Background()))

	assert.Contains(t, out, "core/get")
	assert.Contains(t, out, "CoreServices")
}

func TestRewriteNouns(t *testing.T) {
	got := rewriteNouns("Critical Tickets and one ticket", map[string]string{"tickets": "user requests", "ticket": "user request"})

	assert.Equal(t, "Critical user requests and one user request", got)
}
