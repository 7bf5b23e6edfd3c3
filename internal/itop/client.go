package itop

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alexanderramin/itopnl/internal/domain"
)

// GetRequest holds the parameters for a core/get call.
type GetRequest struct {
	Class string
	// Key is an OQL query or an object id.
	Key string
	// OutputFields is "*", "*+" or a comma-separated field list.
	OutputFields string
	Limit        int
}

// Operation describes one verb exposed by the REST endpoint.
type Operation struct {
	Verb        string `json:"verb"`
	Description string `json:"description"`
	Extension   string `json:"extension"`
}

// Client provides read access to an iTop instance.
type Client interface {
	// Get runs core/get and returns the decoded objects.
	Get(ctx context.Context, req GetRequest) (*domain.QueryResult, error)

	// ListOperations returns the verbs the endpoint supports.
	ListOperations(ctx context.Context) ([]Operation, error)
}

// restClient implements Client against webservices/rest.php.
type restClient struct {
	cfg      Config
	http     *http.Client
	observer Observer
}

// NewClient creates a Client for the configured endpoint. No retries are
// attempted; each call is bounded by cfg.TimeoutMs.
func NewClient(cfg Config, observer Observer) Client {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &restClient{
		cfg: cfg,
		http: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		observer: observer,
	}
}

type restOperation struct {
	Operation    string `json:"operation"`
	Class        string `json:"class,omitempty"`
	Key          string `json:"key,omitempty"`
	OutputFields string `json:"output_fields,omitempty"`
	Limit        int    `json:"limit,omitempty"`
}

type restObject struct {
	Code    int      `json:"code"`
	Message string   `json:"message"`
	Class   string   `json:"class"`
	Key     any      `json:"key"`
	Fields  fieldMap `json:"fields"`
}

type restResponse struct {
	Code       int            `json:"code"`
	Message    string         `json:"message"`
	Objects    orderedObjects `json:"objects"`
	Operations []Operation    `json:"operations"`
}

func (c *restClient) Get(ctx context.Context, req GetRequest) (*domain.QueryResult, error) {
	op := restOperation{
		Operation:    "core/get",
		Class:        req.Class,
		Key:          req.Key,
		OutputFields: req.OutputFields,
		Limit:        req.Limit,
	}
	if op.OutputFields == "" {
		op.OutputFields = "*"
	}

	resp, err := c.call(ctx, op)
	if err != nil {
		return nil, err
	}

	result := &domain.QueryResult{
		Objects:    make(map[string]domain.Record, len(resp.Objects.items)),
		Order:      make([]string, 0, len(resp.Objects.items)),
		RawMessage: resp.Message,
	}
	for _, item := range resp.Objects.items {
		obj := item.value
		class := obj.Class
		if class == "" {
			class = req.Class
		}
		result.Objects[item.key] = domain.Record{
			Key:        domain.Stringify(obj.Key),
			Code:       obj.Code,
			Class:      class,
			Fields:     obj.Fields.values,
			FieldOrder: obj.Fields.names,
		}
		result.Order = append(result.Order, item.key)
	}
	if n, ok := FindCount(resp.Message); ok {
		result.ExtractedCount = &n
	}
	return result, nil
}

func (c *restClient) ListOperations(ctx context.Context) ([]Operation, error) {
	resp, err := c.call(ctx, restOperation{Operation: "list_operations"})
	if err != nil {
		return nil, err
	}
	return resp.Operations, nil
}

func (c *restClient) call(ctx context.Context, op restOperation) (*restResponse, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(c.cfg.TimeoutMs)*time.Millisecond)
	defer cancel()

	resp, err := c.doRequest(ctx, op)
	if err == nil && resp.Code != 0 {
		err = &RemoteError{Code: resp.Code, Message: resp.Message}
	}
	if err != nil {
		switch {
		case ctx.Err() != nil:
			err = fmt.Errorf("%w: %s", ErrTimeout, op.Operation)
		case isConnectionError(err):
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}

	event := CallEvent{
		Operation: op.Operation,
		Class:     op.Class,
		LatencyMs: time.Since(start).Milliseconds(),
		Success:   err == nil,
		ErrorCode: errorCode(err),
	}
	if resp != nil {
		event.Objects = len(resp.Objects.items)
	}
	c.observer.OnCallComplete(ctx, event)

	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (c *restClient) doRequest(ctx context.Context, op restOperation) (*restResponse, error) {
	data, err := json.Marshal(op)
	if err != nil {
		return nil, fmt.Errorf("marshaling operation: %w", err)
	}

	form := url.Values{}
	form.Set("version", c.cfg.Version)
	form.Set("auth_user", c.cfg.User)
	form.Set("auth_pwd", c.cfg.Password)
	form.Set("json_data", string(data))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.Endpoint(), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	if c.cfg.UserAgent != "" {
		httpReq.Header.Set("User-Agent", c.cfg.UserAgent)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, &HTTPError{StatusCode: httpResp.StatusCode, Body: string(body)}
	}

	var resp restResponse
	if err := json.Unmarshal(bytes.TrimSpace(body), &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &resp, nil
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	return errors.As(err, &netErr)
}

type orderedObject struct {
	key   string
	value restObject
}

// orderedObjects keeps the key order of the "objects" map, which the
// remote emits in query order.
type orderedObjects struct {
	items []orderedObject
}

func (o *orderedObjects) UnmarshalJSON(data []byte) error {
	o.items = nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		// Some versions send [] when nothing matched.
		if delim, ok := tok.(json.Delim); ok && delim == '[' {
			return nil
		}
		return fmt.Errorf("objects: expected object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("objects: expected key, got %v", tok)
		}
		var obj restObject
		if err := dec.Decode(&obj); err != nil {
			return fmt.Errorf("objects[%s]: %w", key, err)
		}
		o.items = append(o.items, orderedObject{key: key, value: obj})
	}
	_, err = dec.Token()
	return err
}

// fieldMap decodes an object's "fields" and remembers their order.
type fieldMap struct {
	names  []string
	values map[string]any
}

func (f *fieldMap) UnmarshalJSON(data []byte) error {
	f.names, f.values = nil, nil
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("fields: expected object, got %v", tok)
	}
	f.values = make(map[string]any)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("fields: expected name, got %v", tok)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("fields[%s]: %w", name, err)
		}
		if _, dup := f.values[name]; !dup {
			f.names = append(f.names, name)
		}
		f.values[name] = v
	}
	_, err = dec.Token()
	return err
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
