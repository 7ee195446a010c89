// Package demo holds the methods served by rpcd.
package demo

import (
	"context"
	"log/slog"
	"time"

	"github.com/mnehpets/rpcschema/jsonrpc"
	"github.com/mnehpets/rpcschema/schema"
	"github.com/mnehpets/rpcschema/schema/jsonschema"
)

// CodeDivisionByZero is returned by divide.
const CodeDivisionByZero = -32000

// MaxSleep bounds the duration accepted by sleep.
const MaxSleep = 10 * time.Second

var userSchema = jsonschema.MustCompile("rpcd://user.json", `{
	"type": "object",
	"properties": {
		"name":  {"type": "string", "minLength": 1},
		"email": {"type": "string", "pattern": "^[^@\\s]+@[^@\\s]+$"},
		"tags":  {"type": "array", "items": {"type": "string"}, "uniqueItems": true}
	},
	"required": ["name", "email"],
	"additionalProperties": false
}`)

func binary() schema.Schema {
	return schema.Tuple(schema.Number(), schema.Number())
}

// Methods returns the demo methods. Notifications sent to log are written to
// logger.
func Methods(logger *slog.Logger) map[string]jsonrpc.Method {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	defs := map[string]jsonrpc.Method{
		"greeting": {
			Params: schema.Tuple(schema.String()),
			Result: schema.String(),
			Handler: func(_ context.Context, params any) (any, error) {
				return "Hello, " + params.([]any)[0].(string) + "!", nil
			},
		},
		"add": {
			Params: binary(),
			Result: schema.Number(),
			Handler: func(_ context.Context, params any) (any, error) {
				p := params.([]any)
				return p[0].(float64) + p[1].(float64), nil
			},
		},
		"divide": {
			Params: schema.Object(map[string]schema.Schema{
				"dividend": schema.Number(),
				"divisor":  schema.Number(),
			}),
			Result: schema.Number(),
			Handler: func(_ context.Context, params any) (any, error) {
				p := params.(map[string]any)
				divisor := p["divisor"].(float64)
				if divisor == 0 {
					return nil, jsonrpc.NewError(CodeDivisionByZero, "division by zero").WithData(p)
				}
				return p["dividend"].(float64) / divisor, nil
			},
		},
		"echo": {
			Params: schema.Any(),
			Result: schema.Any(),
			Handler: func(_ context.Context, params any) (any, error) {
				return params, nil
			},
		},
		"sleep": {
			Params: schema.Tuple(schema.Refine(schema.Int(), func(v any) bool {
				ms := v.(int64)
				return ms >= 0 && time.Duration(ms)*time.Millisecond <= MaxSleep
			}, "must be between 0 and 10000 milliseconds")),
			Result: schema.Int(),
			Handler: func(ctx context.Context, params any) (any, error) {
				ms := params.([]any)[0].(int64)
				t := time.NewTimer(time.Duration(ms) * time.Millisecond)
				defer t.Stop()
				select {
				case <-t.C:
					return ms, nil
				case <-ctx.Done():
					return nil, jsonrpc.NewInternalError("sleep interrupted").WithData(jsonrpc.ErrorData{Message: ctx.Err().Error()})
				}
			},
		},
		"log": {
			Params: schema.Tuple(schema.String()),
			Result: schema.Void(),
			Handler: func(ctx context.Context, params any) (any, error) {
				logger.InfoContext(ctx, params.([]any)[0].(string), slog.String("source", "rpc"))
				return nil, nil
			},
		},
		"user.validate": {
			Params: schema.Tuple(userSchema),
			Result: schema.Object(map[string]schema.Schema{
				"name":  schema.String(),
				"email": schema.String(),
			}),
			Handler: func(_ context.Context, params any) (any, error) {
				user := params.([]any)[0].(map[string]any)
				return map[string]any{"name": user["name"], "email": user["email"]}, nil
			},
		},
		"stats.summarize": jsonrpc.Typed(summarize),
	}
	for name, m := range jsonrpc.Receiver("strings", &Strings{}) {
		defs[name] = m
	}
	return defs
}

// Registry returns the demo methods as a registry.
func Registry(logger *slog.Logger) *jsonrpc.Registry {
	return jsonrpc.NewRegistry(Methods(logger))
}

// Contracts returns the demo method contracts, without handlers, for clients.
func Contracts() *jsonrpc.Registry {
	return Registry(nil).Contracts()
}
