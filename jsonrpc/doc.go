// Package jsonrpc implements JSON-RPC 2.0 (https://www.jsonrpc.org/specification)
// dispatch and invocation over schema-validated method contracts.
//
// The package never touches the wire. Servers take payloads that have already
// been decoded (by json.Unmarshal into an interface{}, by a CBOR decoder, or
// handed over in-process) and return values for the transport to encode.
// Clients hand requests to a Transport function and validate what comes back.
// See the httprpc package for an HTTP transport.
//
// # Methods and registries
//
// A Method pairs a params schema and a result schema, both schema.Schema
// values, with an optional Handler:
//
//	reg := jsonrpc.NewRegistry(map[string]jsonrpc.Method{
//	    "greeting": {
//	        Params: schema.Tuple(schema.String()),
//	        Result: schema.String(),
//	        Handler: func(ctx context.Context, params any) (any, error) {
//	            return "Hello, " + params.([]any)[0].(string) + "!", nil
//	        },
//	    },
//	})
//
// Registries are immutable; Extend returns a new registry in which the new
// definitions win on name collisions. Receiver builds definitions from the
// methods of a struct, and Typed from a generic function.
//
// # Serving
//
//	srv := jsonrpc.NewServer(reg)
//	reply := srv.Request(ctx, payload)
//	if !reply.Empty() {
//	    json.NewEncoder(w).Encode(reply)
//	}
//
// Request handles single requests and batches. It validates the request
// envelope (InvalidRequest), resolves the method (MethodNotFound), validates
// params (InvalidParams), runs the handler, and validates its result
// (InternalError). Handler errors that are not *Error values, and panics,
// become InternalError with the original message in the error data.
// Notifications, requests without an id, are executed but never answered.
// Batch items run concurrently.
//
// # Calling
//
//	c := jsonrpc.NewClient(reg.Contracts(), transport)
//	v, err := c.Call(ctx, "greeting", []any{"Dan"})
//
// A client validates params before sending and results after receiving.
// Raw, RawParams, RawResults and Validating return clients with those checks
// switched off or back on; a client obtained from Server.Client starts raw
// since its server already validates both sides.
//
// Batch sends several calls at once and matches responses to the caller's
// keys by request id:
//
//	res, err := c.Batch(ctx, func(b *jsonrpc.BatchBuilder) map[string]*jsonrpc.Call {
//	    return map[string]*jsonrpc.Call{
//	        "dan": b.Call("greeting", []any{"Dan"}),
//	        "eve": b.Call("greeting", []any{"Eve"}),
//	    }
//	})
//
// # Errors
//
// Standard error codes are defined as constants:
//   - CodeParseError (-32700)
//   - CodeInvalidRequest (-32600)
//   - CodeMethodNotFound (-32601)
//   - CodeInvalidParams (-32602)
//   - CodeInternalError (-32603)
//
// Handlers return *Error for protocol-level or application errors:
//
//	return nil, jsonrpc.NewError(-32000, "division by zero")
//
// Use errors.Is with ErrParse, ErrInvalidRequest, ErrMethodNotFound,
// ErrInvalidParams or ErrInternal to test an error's code.
package jsonrpc
