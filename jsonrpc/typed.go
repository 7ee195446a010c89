package jsonrpc

import (
	"context"

	"github.com/mnehpets/rpcschema/schema"
)

// Fn adapts a typed function to a Handler. Params that are not already a P
// are converted through encoding/json, so P must match the params' JSON
// shape: a struct or map for named params, a slice or array for positional
// ones.
func Fn[P, R any](fn func(ctx context.Context, params P) (R, error)) Handler {
	return func(ctx context.Context, params any) (any, error) {
		p, ok := params.(P)
		if !ok {
			res := schema.Decode[P]().Validate(params)
			if !res.OK() {
				return nil, NewInvalidParamsError("").WithData(IssueData{Issues: res.Issues, Value: params})
			}
			p = res.Value.(P)
		}
		return fn(ctx, p)
	}
}

// Typed builds a Method whose schemas decode params into P and results into
// R.
func Typed[P, R any](fn func(ctx context.Context, params P) (R, error)) Method {
	return Method{
		Params:  schema.Decode[P](),
		Result:  schema.Decode[R](),
		Handler: Fn(fn),
	}
}

// Invoke calls method through c and converts the result to R.
func Invoke[R any](ctx context.Context, c *Client, method string, params any) (R, error) {
	var zero R
	v, err := c.Call(ctx, method, params)
	if err != nil {
		return zero, err
	}
	if r, ok := v.(R); ok {
		return r, nil
	}
	res := schema.Decode[R]().Validate(v)
	if !res.OK() {
		return zero, NewInternalError("Invalid result").WithData(IssueData{Issues: res.Issues, Value: v})
	}
	return res.Value.(R), nil
}
