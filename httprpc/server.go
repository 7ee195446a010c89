// Package httprpc carries JSON-RPC payloads over HTTP POST.
//
// The server side is an endpoint.EndpointFunc wrapping a jsonrpc.Server:
//
//	e := httprpc.NewEndpoint(srv)
//	http.Handle("/rpc", e.Handler(endpoint.AccessLog(logger)))
//
// The client side is a jsonrpc.Transport:
//
//	client := jsonrpc.NewClient(contracts, httprpc.Transport("http://localhost:8080/rpc"))
//
// Request and response bodies are JSON or CBOR, selected by Content-Type.
package httprpc

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/mnehpets/rpcschema/codec"
	"github.com/mnehpets/rpcschema/endpoint"
	"github.com/mnehpets/rpcschema/jsonrpc"
)

// DefaultMaxBodyBytes bounds request bodies unless WithMaxBodyBytes is used.
const DefaultMaxBodyBytes = 1 << 20

// Endpoint serves a jsonrpc.Server.
type Endpoint struct {
	server  *jsonrpc.Server
	logger  *slog.Logger
	maxBody int64
}

// Option configures an Endpoint.
type Option func(*Endpoint)

// WithLogger sets the logger used for undecodable bodies.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Endpoint) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMaxBodyBytes bounds request bodies. Zero or less disables the limit.
func WithMaxBodyBytes(n int64) Option {
	return func(e *Endpoint) { e.maxBody = n }
}

func NewEndpoint(srv *jsonrpc.Server, opts ...Option) *Endpoint {
	e := &Endpoint{
		server:  srv,
		logger:  slog.New(slog.DiscardHandler),
		maxBody: DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handler returns an http.Handler running processors before the endpoint.
func (e *Endpoint) Handler(processors ...endpoint.Processor) http.Handler {
	return endpoint.Handler(e.Endpoint, processors...)
}

// Endpoint implements endpoint.EndpointFunc.
//
// Only POST is accepted. The body is decoded with the codec matching its
// Content-Type; a body that cannot be decoded is answered with a ParseError
// response. A reply with nothing to send, a single notification, is answered
// with 204 No Content.
func (e *Endpoint) Endpoint(w http.ResponseWriter, r *http.Request) (endpoint.Renderer, error) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		return nil, endpoint.Error(http.StatusMethodNotAllowed, "JSON-RPC requires POST method", nil)
	}
	c, ok := codec.ForContentType(r.Header.Get("Content-Type"))
	if !ok {
		return nil, endpoint.Error(http.StatusUnsupportedMediaType, "Content-Type must be application/json or application/cbor", nil)
	}

	body := r.Body
	if e.maxBody > 0 {
		body = http.MaxBytesReader(w, r.Body, e.maxBody)
	}
	payload, err := c.Decode(body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, endpoint.Error(http.StatusRequestEntityTooLarge, "request body too large", err)
		}
		e.logger.DebugContext(r.Context(), "jsonrpc: undecodable body",
			slog.String("codec", c.Name()), slog.String("error", err.Error()))
		return &endpoint.PayloadRenderer{Codec: c, Value: parseError(err)}, nil
	}

	reply := e.server.Request(r.Context(), payload)
	if reply.Empty() {
		return &endpoint.NoContentRenderer{}, nil
	}
	return &endpoint.PayloadRenderer{Codec: c, Value: reply}, nil
}

func parseError(err error) *jsonrpc.Response {
	return &jsonrpc.Response{
		JSONRPC: jsonrpc.Version,
		Error:   jsonrpc.NewParseError("").WithData(jsonrpc.ErrorData{Message: err.Error()}),
	}
}
