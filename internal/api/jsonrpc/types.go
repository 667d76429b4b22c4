package jsonrpc

import (
	"context"
	"encoding/json"
	"sort"
)

// Request is the wire envelope: a method name plus a params array holding
// at most one object.
type Request struct {
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params,omitempty"`
}

// Method handles one RPC method. A nil *Error means success.
type Method func(ctx context.Context, params json.RawMessage) (interface{}, *Error)

// MethodRegistry maps method names to handlers.
type MethodRegistry struct {
	methods map[string]Method
}

// NewMethodRegistry creates an empty registry.
func NewMethodRegistry() *MethodRegistry {
	return &MethodRegistry{methods: make(map[string]Method)}
}

// Register adds a method handler under a name.
func (r *MethodRegistry) Register(name string, method Method) {
	r.methods[name] = method
}

// Get looks up a method handler.
func (r *MethodRegistry) Get(name string) (Method, bool) {
	method, exists := r.methods[name]
	return method, exists
}

// List returns the registered method names, sorted.
func (r *MethodRegistry) List() []string {
	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
