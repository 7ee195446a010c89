package jsonrpc

import (
	"context"
	"maps"
	"slices"

	"github.com/mnehpets/rpcschema/schema"
)

// Handler executes a method with already validated params.
type Handler func(ctx context.Context, params any) (any, error)

// Method describes one remote procedure. Without a Handler it is a contract:
// enough to build a client, not a server.
//
// Params should validate to nothing, an array or an object. A nil schema
// accepts any value unchanged.
type Method struct {
	Params  schema.Schema
	Result  schema.Schema
	Handler Handler
}

// Registry is an immutable set of named methods. It is safe for concurrent
// use; Extend and Merge return new registries and never modify the receiver.
type Registry struct {
	methods map[string]Method
}

// NewRegistry creates a registry from defs. The map is copied.
func NewRegistry(defs map[string]Method) *Registry {
	return &Registry{methods: maps.Clone(defs)}
}

// Lookup returns the method registered under name.
func (r *Registry) Lookup(name string) (Method, bool) {
	if r == nil {
		return Method{}, false
	}
	m, ok := r.methods[name]
	return m, ok
}

// Extend returns a registry holding the receiver's methods plus defs. On a
// name collision the definition from defs wins.
func (r *Registry) Extend(defs map[string]Method) *Registry {
	out := make(map[string]Method, r.Len()+len(defs))
	if r != nil {
		maps.Copy(out, r.methods)
	}
	maps.Copy(out, defs)
	return &Registry{methods: out}
}

// Merge is Extend with another registry.
func (r *Registry) Merge(other *Registry) *Registry {
	if other == nil {
		return r.Extend(nil)
	}
	return r.Extend(other.methods)
}

// Names returns the registered method names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return slices.Sorted(maps.Keys(r.methods))
}

func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.methods)
}

// Contracts returns a copy of the registry with every handler removed.
func (r *Registry) Contracts() *Registry {
	out := make(map[string]Method, r.Len())
	if r != nil {
		for name, m := range r.methods {
			m.Handler = nil
			out[name] = m
		}
	}
	return &Registry{methods: out}
}
