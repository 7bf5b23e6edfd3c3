package itop

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) Config {
	cfg := DefaultConfig()
	cfg.BaseURL = baseURL
	cfg.User = "admin"
	cfg.Password = "secret"
	return cfg
}

type recordingObserver struct {
	mu     sync.Mutex
	events []CallEvent
}

func (r *recordingObserver) OnCallComplete(_ context.Context, e CallEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func TestClient_Get_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/webservices/rest.php", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "1.4", r.PostForm.Get("version"))
		assert.Equal(t, "admin", r.PostForm.Get("auth_user"))
		assert.Equal(t, "secret", r.PostForm.Get("auth_pwd"))

		var op restOperation
		require.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("json_data")), &op))
		assert.Equal(t, "core/get", op.Operation)
		assert.Equal(t, "UserRequest", op.Class)
		assert.Equal(t, "SELECT UserRequest WHERE priority = '1'", op.Key)
		assert.Equal(t, "id,ref,title", op.OutputFields)
		assert.Equal(t, 5, op.Limit)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"objects":{
			"UserRequest::7":{"code":0,"message":"","class":"UserRequest","key":"7","fields":{"ref":"R-000007","title":"VPN down"}},
			"UserRequest::3":{"code":0,"message":"","class":"UserRequest","key":3,"fields":{"ref":"R-000003","title":"Printer"}}
		},"code":0,"message":"Found: 92"}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	client := NewClient(testConfig(srv.URL), obs)
	res, err := client.Get(context.Background(), GetRequest{
		Class:        "UserRequest",
		Key:          "SELECT UserRequest WHERE priority = '1'",
		OutputFields: "id,ref,title",
		Limit:        5,
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"UserRequest::7", "UserRequest::3"}, res.Order)
	assert.Equal(t, "R-000007", res.Objects["UserRequest::7"].Get("ref"))
	assert.Equal(t, "3", res.Objects["UserRequest::3"].Key)
	require.NotNil(t, res.ExtractedCount)
	assert.Equal(t, 92, *res.ExtractedCount)
	assert.Equal(t, 92, res.Total())

	require.Len(t, obs.events, 1)
	assert.True(t, obs.events[0].Success)
	assert.Equal(t, 2, obs.events[0].Objects)
}

func TestClient_Get_KeepsFieldOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"objects":{"PC::1":{"code":0,"class":"PC","key":"1","fields":{"name":"pc-01","status":"production","brand_name":"Dell"}}},"code":0,"message":"Found: 1"}`))
	}))
	defer srv.Close()

	res, err := NewClient(testConfig(srv.URL), nil).Get(context.Background(), GetRequest{Class: "PC", Key: "SELECT PC"})

	require.NoError(t, err)
	rec := res.Objects["PC::1"]
	assert.Equal(t, []string{"name", "status", "brand_name"}, rec.FieldOrder)
	assert.Equal(t, "Dell", rec.Get("brand_name"))
}

func TestClient_Get_NullObjects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"objects":null,"code":0,"message":"Found: 0"}`))
	}))
	defer srv.Close()

	res, err := NewClient(testConfig(srv.URL), nil).Get(context.Background(), GetRequest{Class: "PC", Key: "SELECT PC"})

	require.NoError(t, err)
	assert.Empty(t, res.Objects)
	assert.Equal(t, 0, res.Total())
}

func TestClient_Get_RemoteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"code":100,"message":"Error: Unknown class 'Widget'"}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	_, err := NewClient(testConfig(srv.URL), obs).Get(context.Background(), GetRequest{Class: "Widget", Key: "SELECT Widget"})

	var remoteErr *RemoteError
	require.ErrorAs(t, err, &remoteErr)
	assert.Equal(t, 100, remoteErr.Code)
	assert.True(t, IsUnknownClass(err))
	require.Len(t, obs.events, 1)
	assert.Equal(t, "REMOTE_100", obs.events[0].ErrorCode)
}

func TestClient_Get_HTTPStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("boom"))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).Get(context.Background(), GetRequest{Class: "PC"})

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.False(t, IsUnknownClass(err))
}

func TestClient_Get_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>login</html>"))
	}))
	defer srv.Close()

	_, err := NewClient(testConfig(srv.URL), nil).Get(context.Background(), GetRequest{Class: "PC"})

	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestClient_Get_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		w.Write([]byte(`{"code":0}`))
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.TimeoutMs = 30

	_, err := NewClient(cfg, nil).Get(context.Background(), GetRequest{Class: "PC"})

	assert.ErrorIs(t, err, ErrTimeout)
}

func TestClient_Get_Unavailable(t *testing.T) {
	_, err := NewClient(testConfig("http://127.0.0.1:1"), nil).Get(context.Background(), GetRequest{Class: "PC"})

	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_ListOperations(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Contains(t, r.PostForm.Get("json_data"), `"operation":"list_operations"`)
		w.Write([]byte(`{"version":"1.4","operations":[
			{"verb":"core/get","description":"Search for objects","extension":"CoreServices"},
			{"verb":"list_operations","description":"List operations","extension":"CoreServices"}
		],"code":0,"message":"Operations: 2"}`))
	}))
	defer srv.Close()

	ops, err := NewClient(testConfig(srv.URL), nil).ListOperations(context.Background())

	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "core/get", ops[0].Verb)
}
