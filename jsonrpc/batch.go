package jsonrpc

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
)

// Call is a request prepared by a BatchBuilder. Nothing is sent until the
// batch is.
type Call struct {
	def     Method
	request *Request
	err     error
}

// Request returns the prepared request, or nil if building it failed.
func (c *Call) Request() *Request {
	return c.request
}

// Err returns the error encountered while building the call.
func (c *Call) Err() error {
	return c.err
}

// BatchBuilder prepares the calls of a batch.
type BatchBuilder struct {
	client *Client
}

// Call prepares a request for method. Params are validated according to the
// client's mode.
func (b *BatchBuilder) Call(method string, params any) *Call {
	def, req, err := b.client.build(method, params, true)
	return &Call{def: def, request: req, err: err}
}

// Notify prepares a notification for method.
func (b *BatchBuilder) Notify(method string, params any) *Call {
	def, req, err := b.client.build(method, params, false)
	return &Call{def: def, request: req, err: err}
}

// BatchResult is the outcome of one call in a batch. Failures of one call
// never affect the others.
type BatchResult struct {
	OK    bool
	Value any
	Err   error
}

// Batch sends the calls returned by build as a single batch and returns
// their outcomes under the same keys.
//
// Responses are matched to calls by request id, never by position. A
// response carrying an id that matches no call aborts the whole batch with an
// InvalidRequest error. A call whose response is missing gets an
// InternalError result. Notifications succeed with a nil value once sent.
func (c *Client) Batch(ctx context.Context, build func(b *BatchBuilder) map[string]*Call) (map[string]BatchResult, error) {
	calls := build(&BatchBuilder{client: c})

	results := make(map[string]BatchResult, len(calls))
	byID := make(map[string]string, len(calls))
	reqs := make([]*Request, 0, len(calls))
	for _, key := range slices.Sorted(maps.Keys(calls)) {
		call := calls[key]
		if call == nil {
			return nil, fmt.Errorf("jsonrpc: batch: nil call for %q", key)
		}
		if call.err != nil {
			return nil, call.err
		}
		if call.request.HasID {
			id := idKey(call.request.ID)
			if _, dup := byID[id]; dup {
				return nil, NewInvalidRequestError(fmt.Sprintf("duplicate request id %v", call.request.ID))
			}
			byID[id] = key
		}
		reqs = append(reqs, call.request)
	}
	if len(reqs) == 0 {
		return results, nil
	}

	raw, err := c.send(ctx, reqs)
	if err != nil {
		return nil, err
	}
	for key, call := range calls {
		if !call.request.HasID {
			results[key] = BatchResult{OK: true}
		}
	}
	if len(byID) == 0 {
		return results, nil
	}

	responses, err := parseBatchResponse(raw)
	if err != nil {
		return nil, err
	}
	for _, resp := range responses {
		key, ok := byID[idKey(resp.ID)]
		if !ok {
			return nil, NewInvalidRequestError(fmt.Sprintf("unknown response id %v", resp.ID)).WithData(IssueData{Value: resp.ID})
		}
		if _, seen := results[key]; seen {
			return nil, NewInvalidRequestError(fmt.Sprintf("duplicate response id %v", resp.ID)).WithData(IssueData{Value: resp.ID})
		}
		v, err := c.settle(calls[key].def, resp)
		if err != nil {
			results[key] = BatchResult{Err: err}
		} else {
			results[key] = BatchResult{OK: true, Value: v}
		}
	}
	for _, key := range byID {
		if _, ok := results[key]; !ok {
			results[key] = BatchResult{Err: NewInternalError("no response")}
		}
	}
	return results, nil
}

// parseBatchResponse accepts an array of responses. A single error response
// in place of the array, which servers send when they reject the batch as a
// whole, is returned as that error.
func parseBatchResponse(raw any) ([]*Response, error) {
	if raw == nil {
		return nil, NewParseError("empty batch response")
	}
	if !IsBatch(raw) {
		resp, err := ParseResponse(raw)
		if err != nil {
			return nil, err
		}
		if resp.Error != nil {
			return nil, resp.Error
		}
		return nil, NewParseError("expected batch response").WithData(IssueData{Value: raw})
	}

	rv := reflect.ValueOf(raw)
	out := make([]*Response, rv.Len())
	for i := range out {
		resp, err := ParseResponse(rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out[i] = resp
	}
	return out, nil
}
