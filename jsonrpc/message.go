package jsonrpc

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"

	"github.com/mnehpets/rpcschema/schema"
)

// Version is the only protocol version accepted.
const Version = "2.0"

// Request is a JSON-RPC request or, when HasID is false, a notification.
type Request struct {
	JSONRPC string
	Method  string
	// Params is nil, an array or an object.
	Params any
	// ID is a string, a number or nil. It is only meaningful when HasID is set:
	// a request with HasID set and a nil ID carries an explicit "id": null.
	ID    any
	HasID bool
}

// IsNotification reports whether the request expects no response.
func (r *Request) IsNotification() bool {
	return !r.HasID
}

// Map returns the request in its wire shape.
func (r *Request) Map() map[string]any {
	m := map[string]any{
		"jsonrpc": r.JSONRPC,
		"method":  r.Method,
	}
	if r.Params != nil {
		m["params"] = r.Params
	}
	if r.HasID {
		m["id"] = r.ID
	}
	return m
}

func (r *Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *Request) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	req, rpcErr := ParseRequest(raw)
	if rpcErr != nil {
		return rpcErr
	}
	*r = *req
	return nil
}

// Response is a JSON-RPC response. Exactly one of Result and Error is
// meaningful: a nil Error marks a success, whose Result may itself be nil.
type Response struct {
	JSONRPC string
	Result  any
	Error   *Error
	// ID mirrors the request id, or is nil when it could not be determined.
	ID any
}

func newResult(id, result any) *Response {
	return &Response{JSONRPC: Version, Result: result, ID: id}
}

func newErrorResponse(id any, err *Error) *Response {
	return &Response{JSONRPC: Version, Error: err, ID: id}
}

// Map returns the response in its wire shape. The id member is always
// present, and so is exactly one of result and error.
func (r *Response) Map() map[string]any {
	m := map[string]any{
		"jsonrpc": r.JSONRPC,
		"id":      r.ID,
	}
	if r.Error != nil {
		e := map[string]any{
			"code":    r.Error.Code,
			"message": r.Error.Message,
		}
		if r.Error.Data != nil {
			e["data"] = r.Error.Data
		}
		m["error"] = e
	} else {
		m["result"] = r.Result
	}
	return m
}

func (r *Response) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Map())
}

func (r *Response) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	resp, err := ParseResponse(raw)
	if err != nil {
		return err
	}
	*r = *resp
	return nil
}

// IsBatch reports whether a raw payload is a batch. Any slice is a batch.
func IsBatch(raw any) bool {
	if raw == nil {
		return false
	}
	switch raw.(type) {
	case []any, []*Request, []Request, []map[string]any:
		return true
	}
	k := reflect.TypeOf(raw).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// ParseRequest checks that raw is a well-formed request. Failures are
// InvalidRequest errors whose data lists the issues.
func ParseRequest(raw any) (*Request, *Error) {
	var req Request
	var issues []schema.Issue

	switch v := raw.(type) {
	case *Request:
		if v == nil {
			return nil, invalidRequest(issueAt(nil, "request must be an object"))
		}
		req = *v
	case Request:
		req = v
	case map[string]any:
		req.JSONRPC, _ = v["jsonrpc"].(string)
		if m, ok := v["method"]; ok {
			if req.Method, ok = m.(string); !ok {
				return nil, invalidRequest(issueAt("method", "expected string"))
			}
		}
		req.Params = v["params"]
		req.ID, req.HasID = v["id"]
	default:
		return nil, invalidRequest(issueAt(nil, "request must be an object"))
	}

	if req.JSONRPC != Version {
		issues = append(issues, issueAt("jsonrpc", fmt.Sprintf("expected %q", Version)))
	}
	if req.Method == "" {
		issues = append(issues, issueAt("method", "must not be empty"))
	}
	if !structuredParams(req.Params) {
		issues = append(issues, issueAt("params", "must be an array or an object"))
	}
	if req.HasID && !validID(req.ID) {
		issues = append(issues, issueAt("id", "must be a string, a number or null"))
	}
	if len(issues) > 0 {
		return nil, invalidRequest(issues...)
	}
	return &req, nil
}

// ParseBatch checks that raw is a non-empty array of well-formed requests.
// A single malformed element fails the whole batch.
func ParseBatch(raw any) ([]*Request, *Error) {
	var items []any
	switch v := raw.(type) {
	case []*Request:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	case []Request:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	case []map[string]any:
		items = make([]any, len(v))
		for i := range v {
			items[i] = v[i]
		}
	case []any:
		items = v
	default:
		return nil, invalidRequest(issueAt(nil, "batch must be an array"))
	}
	if len(items) == 0 {
		return nil, invalidRequest(issueAt(nil, "batch must not be empty"))
	}

	reqs := make([]*Request, len(items))
	var issues []schema.Issue
	for i, item := range items {
		req, err := ParseRequest(item)
		if err != nil {
			if data, ok := err.Data.(IssueData); ok {
				for _, is := range data.Issues {
					is.Path = append([]any{i}, is.Path...)
					issues = append(issues, is)
				}
			}
			continue
		}
		reqs[i] = req
	}
	if len(issues) > 0 {
		return nil, invalidRequest(issues...)
	}
	return reqs, nil
}

// ParseResponse checks that raw is a well-formed response. Failures are
// ParseError errors: a malformed response cannot be trusted at all.
func ParseResponse(raw any) (*Response, error) {
	switch v := raw.(type) {
	case *Response:
		if v == nil {
			return nil, malformedResponse(raw, issueAt(nil, "response must be an object"))
		}
		return checkResponse(raw, *v)
	case Response:
		return checkResponse(raw, v)
	case map[string]any:
		return parseResponseMap(v)
	default:
		return nil, malformedResponse(raw, issueAt(nil, "response must be an object"))
	}
}

func checkResponse(raw any, resp Response) (*Response, error) {
	var issues []schema.Issue
	if resp.JSONRPC != Version {
		issues = append(issues, issueAt("jsonrpc", fmt.Sprintf("expected %q", Version)))
	}
	if !validID(resp.ID) {
		issues = append(issues, issueAt("id", "must be a string, a number or null"))
	}
	if len(issues) > 0 {
		return nil, malformedResponse(raw, issues...)
	}
	return &resp, nil
}

func parseResponseMap(m map[string]any) (*Response, error) {
	var issues []schema.Issue
	resp := &Response{}

	resp.JSONRPC, _ = m["jsonrpc"].(string)
	if resp.JSONRPC != Version {
		issues = append(issues, issueAt("jsonrpc", fmt.Sprintf("expected %q", Version)))
	}
	id, hasID := m["id"]
	if !hasID {
		issues = append(issues, issueAt("id", "required"))
	} else if !validID(id) {
		issues = append(issues, issueAt("id", "must be a string, a number or null"))
	}
	resp.ID = id

	result, hasResult := m["result"]
	rawErr, hasError := m["error"]
	switch {
	case hasResult && hasError:
		issues = append(issues, issueAt(nil, "result and error are mutually exclusive"))
	case !hasResult && !hasError:
		issues = append(issues, issueAt(nil, "one of result or error is required"))
	case hasResult:
		resp.Result = result
	default:
		e, errIssues := parseErrorObject(rawErr)
		issues = append(issues, errIssues...)
		resp.Error = e
	}

	if len(issues) > 0 {
		return nil, malformedResponse(m, issues...)
	}
	return resp, nil
}

func parseErrorObject(raw any) (*Error, []schema.Issue) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, []schema.Issue{issueAt("error", "expected object")}
	}
	var issues []schema.Issue
	code, ok := integer(m["code"])
	if !ok {
		issues = append(issues, issueAt("error", "code must be an integer"))
	}
	msg, ok := m["message"].(string)
	if !ok {
		issues = append(issues, issueAt("error", "message must be a string"))
	}
	if len(issues) > 0 {
		return nil, issues
	}
	return &Error{Code: code, Message: msg, Data: m["data"]}, nil
}

func invalidRequest(issues ...schema.Issue) *Error {
	return NewInvalidRequestError("").WithData(IssueData{Issues: issues})
}

func malformedResponse(raw any, issues ...schema.Issue) *Error {
	return NewParseError("malformed response").WithData(IssueData{Issues: issues, Value: raw})
}

func issueAt(key any, msg string) schema.Issue {
	is := schema.Issue{Message: msg, Code: schema.CodeInvalidType}
	if key != nil {
		is.Path = []any{key}
	}
	return is
}

func structuredParams(p any) bool {
	if p == nil {
		return true
	}
	switch p.(type) {
	case []any, map[string]any:
		return true
	case []byte, json.RawMessage:
		return false
	}
	t := reflect.TypeOf(p)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.Struct:
		return true
	}
	return false
}

func validID(id any) bool {
	switch id.(type) {
	case nil, string:
		return true
	}
	_, ok := number(id)
	return ok
}

func number(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

func integer(v any) (int, bool) {
	f, ok := number(v)
	if !ok || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// idKey normalizes an id for correlation: numbers compare by value whatever
// their Go kind, so an id sent as int64 matches one decoded as float64.
func idKey(id any) string {
	switch v := id.(type) {
	case nil:
		return "null"
	case string:
		return "s:" + v
	}
	if n, ok := id.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return "n:" + strconv.FormatInt(i, 10)
		}
	}
	rv := reflect.ValueOf(id)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "n:" + strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "n:" + strconv.FormatUint(rv.Uint(), 10)
	}
	if f, ok := number(id); ok {
		if f == math.Trunc(f) && math.Abs(f) < 1<<63 {
			return "n:" + strconv.FormatInt(int64(f), 10)
		}
		return "n:" + strconv.FormatFloat(f, 'g', -1, 64)
	}
	return fmt.Sprintf("?:%v", id)
}
