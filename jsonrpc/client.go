package jsonrpc

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Transport sends a payload, either a *Request or a []*Request, and returns
// the decoded reply. For notifications the reply may be nil.
//
// Transports own encoding, connection handling and timeouts.
type Transport func(ctx context.Context, payload any) (any, error)

// Mode selects which schemas a Client checks locally.
type Mode struct {
	ValidateParams  bool
	ValidateResults bool
}

// Client invokes the methods of a Registry through a Transport. Only the
// schemas of the registry are used; handlers are ignored.
//
// Clients are immutable. The mode switches return new clients sharing the
// registry and the transport.
type Client struct {
	registry  *Registry
	transport Transport
	mode      Mode
	newID     func() string
}

// NewClient creates a client validating both params and results.
func NewClient(reg *Registry, t Transport) *Client {
	if reg == nil {
		reg = NewRegistry(nil)
	}
	return &Client{
		registry:  reg,
		transport: t,
		mode:      Mode{ValidateParams: true, ValidateResults: true},
		newID:     uuid.NewString,
	}
}

func (c *Client) Registry() *Registry {
	return c.registry
}

func (c *Client) Mode() Mode {
	return c.mode
}

func (c *Client) withMode(m Mode) *Client {
	cc := *c
	cc.mode = m
	return &cc
}

// Raw returns a client that validates neither params nor results, trusting
// the remote side to do so.
func (c *Client) Raw() *Client {
	return c.withMode(Mode{})
}

// RawParams returns a client that skips params validation.
func (c *Client) RawParams() *Client {
	m := c.mode
	m.ValidateParams = false
	return c.withMode(m)
}

// RawResults returns a client that skips result validation.
func (c *Client) RawResults() *Client {
	m := c.mode
	m.ValidateResults = false
	return c.withMode(m)
}

// Validating returns a client that validates both params and results.
func (c *Client) Validating() *Client {
	return c.withMode(Mode{ValidateParams: true, ValidateResults: true})
}

// Call invokes method and returns its result.
//
// Errors are *Error values: MethodNotFound or InvalidParams detected locally
// (nothing is sent), ParseError for a malformed response, the remote error
// as sent by the server, or InternalError for a result failing its schema.
// Transport failures are returned wrapped.
func (c *Client) Call(ctx context.Context, method string, params any) (any, error) {
	def, req, err := c.build(method, params, true)
	if err != nil {
		return nil, err
	}
	raw, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	resp, err := ParseResponse(raw)
	if err != nil {
		return nil, err
	}
	// A server that could not read the request answers with a null id.
	if idKey(resp.ID) != idKey(req.ID) && (resp.Error == nil || resp.ID != nil) {
		return nil, NewParseError("response id mismatch").WithData(IssueData{Value: resp.ID})
	}
	return c.settle(def, resp)
}

// Notify sends method as a notification. Any reply is ignored.
func (c *Client) Notify(ctx context.Context, method string, params any) error {
	_, req, err := c.build(method, params, false)
	if err != nil {
		return err
	}
	_, err = c.send(ctx, req)
	return err
}

// Method returns a function calling the named method.
func (c *Client) Method(name string) func(ctx context.Context, params any) (any, error) {
	return func(ctx context.Context, params any) (any, error) {
		return c.Call(ctx, name, params)
	}
}

func (c *Client) build(method string, params any, withID bool) (Method, *Request, error) {
	def, ok := c.registry.Lookup(method)
	if !ok {
		return Method{}, nil, NewMethodNotFoundError(method)
	}
	if c.mode.ValidateParams {
		checked := Check(def.Params, params)
		if checked.Err != nil {
			return Method{}, nil, checked.Err
		}
		if !checked.OK {
			return Method{}, nil, NewInvalidParamsError("").WithData(IssueData{Issues: checked.Issues, Value: params})
		}
		params = checked.Value
	}
	req := &Request{JSONRPC: Version, Method: method, Params: params}
	if withID {
		req.ID = c.newID()
		req.HasID = true
	}
	return def, req, nil
}

func (c *Client) send(ctx context.Context, payload any) (any, error) {
	if c.transport == nil {
		return nil, fmt.Errorf("jsonrpc: client has no transport")
	}
	raw, err := c.transport(ctx, payload)
	if err != nil {
		return nil, fmt.Errorf("jsonrpc: transport: %w", err)
	}
	return raw, nil
}

// settle turns a well-formed response into the caller's result.
func (c *Client) settle(def Method, resp *Response) (any, error) {
	if resp.Error != nil {
		return nil, resp.Error
	}
	if !c.mode.ValidateResults {
		return resp.Result, nil
	}
	checked := Check(def.Result, resp.Result)
	if checked.Err != nil {
		return nil, checked.Err
	}
	if !checked.OK {
		return nil, NewInternalError("Invalid result").WithData(IssueData{Issues: checked.Issues, Value: resp.Result})
	}
	return checked.Value, nil
}
