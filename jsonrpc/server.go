package jsonrpc

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Observer is notified once per dispatched request or notification. Code is
// 0 for successful calls.
type Observer interface {
	Observe(method string, code int, notification bool, elapsed time.Duration)
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithLogger sets the logger used for handler panics and internal errors.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithObserver registers an Observer, typically a metrics collector.
func WithObserver(o Observer) ServerOption {
	return func(s *Server) { s.observer = o }
}

// WithConcurrency bounds the number of batch items executed at once. Zero,
// the default, means no bound.
func WithConcurrency(n int) ServerOption {
	return func(s *Server) { s.concurrency = n }
}

// Server dispatches JSON-RPC payloads to the handlers of a Registry.
//
// A Server is immutable and safe for concurrent use.
type Server struct {
	registry    *Registry
	logger      *slog.Logger
	observer    Observer
	concurrency int
}

// NewServer creates a server for the methods in reg. Methods without a
// handler are reported as not found.
func NewServer(reg *Registry, opts ...ServerOption) *Server {
	s := &Server{
		registry: reg,
		logger:   slog.New(slog.DiscardHandler),
	}
	if s.registry == nil {
		s.registry = NewRegistry(nil)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the server's methods.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Extend returns a new server with the same options whose registry is
// extended with defs. The receiver is left untouched.
func (s *Server) Extend(defs map[string]Method) *Server {
	c := *s
	c.registry = s.registry.Extend(defs)
	return &c
}

// Client returns a client for this server's methods that sends requests
// through t. Since the server validates params and results itself, the
// client starts in Raw mode.
func (s *Server) Client(t Transport) *Client {
	return NewClient(s.registry, t).Raw()
}

// Reply is the outcome of Server.Request.
type Reply struct {
	Responses []*Response
	// Batch is set when the payload was a well-formed batch, in which case
	// the reply is an array even if Responses is empty.
	Batch bool
}

// Empty reports whether there is nothing to send back, which is the case
// for a single notification.
func (r Reply) Empty() bool {
	return !r.Batch && len(r.Responses) == 0
}

// Payload returns the value to hand to the transport: a *Response, a
// []*Response, or nil when there is nothing to send.
func (r Reply) Payload() any {
	if r.Batch {
		if r.Responses == nil {
			return []*Response{}
		}
		return r.Responses
	}
	if len(r.Responses) == 0 {
		return nil
	}
	return r.Responses[0]
}

func (r Reply) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Payload())
}

// Request processes a decoded payload: a single request or a batch. It never
// fails; every request-level failure is converted to an error response, or
// to silence for notifications.
func (s *Server) Request(ctx context.Context, payload any) Reply {
	if IsBatch(payload) {
		return s.batch(ctx, payload)
	}
	if resp := s.single(ctx, payload); resp != nil {
		return Reply{Responses: []*Response{resp}}
	}
	return Reply{}
}
