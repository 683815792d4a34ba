package client

import (
	"fmt"
	"sync"

	"github.com/hanpama/gqlclient/internal/graphql"
	"github.com/hanpama/gqlclient/internal/language"
)

// Request is a GraphQL request plus attributes that stay on the client side.
// Attributes are never sent by a transport; interceptors use them to pass
// per-request settings along the chain.
type Request struct {
	*graphql.Request
	attributes graphql.Values

	opOnce sync.Once
	opType language.Operation
}

// NewRequest pairs a transport request with local attributes.
func NewRequest(req *graphql.Request, attributes graphql.Values) *Request {
	return &Request{Request: req, attributes: attributes.Clone()}
}

// Attributes returns a copy of the request attributes.
func (r *Request) Attributes() graphql.Values { return r.attributes.Clone() }

// Attribute returns a single attribute.
func (r *Request) Attribute(key string) (any, bool) { return r.attributes.Get(key) }

// OperationType reports the type of the selected operation, or "" when the
// document cannot be parsed or the operation is ambiguous.
func (r *Request) OperationType() string {
	r.opOnce.Do(func() {
		r.opType, _ = language.OperationType(r.Document(), r.OperationName())
	})
	return string(r.opType)
}

// WithExtension returns a copy of r with an additional protocol extension.
func (r *Request) WithExtension(key string, value any) (*Request, error) {
	exts := r.Extensions()
	exts.Set(key, value)
	return r.rebuild(r.Variables(), exts)
}

// WithVariable returns a copy of r with an additional variable.
func (r *Request) WithVariable(key string, value any) (*Request, error) {
	vars := r.Variables()
	vars.Set(key, value)
	return r.rebuild(vars, r.Extensions())
}

// WithAttribute returns a copy of r with an additional attribute.
func (r *Request) WithAttribute(key string, value any) *Request {
	attrs := r.Attributes()
	attrs.Set(key, value)
	return &Request{Request: r.Request, attributes: attrs}
}

func (r *Request) rebuild(vars, exts graphql.Values) (*Request, error) {
	req, err := graphql.NewRequest(r.Document(), r.OperationName(), vars, exts)
	if err != nil {
		return nil, err
	}
	return &Request{Request: req, attributes: r.attributes.Clone()}, nil
}

func (r *Request) String() string {
	if r == nil || r.Request == nil {
		return "<nil>"
	}
	s := r.Request.String()
	if r.attributes.Len() > 0 {
		s += fmt.Sprintf(", attributes=%v", r.attributes.Map())
	}
	return s
}

func (r *Request) describe() string {
	if r == nil || r.Request == nil {
		return "request"
	}
	if name := r.OperationName(); name != "" {
		return fmt.Sprintf("operation %q", name)
	}
	return "anonymous operation"
}
