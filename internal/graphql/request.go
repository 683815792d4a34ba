package graphql

import (
	"errors"
	"fmt"
)

// ErrEmptyDocument is returned when a request is built without a document.
var ErrEmptyDocument = errors.New("graphql: document is required")

// Request is an immutable GraphQL request as sent over the wire.
type Request struct {
	document      string
	operationName string
	variables     Values
	extensions    Values
}

// NewRequest builds a Request. variables and extensions are copied.
func NewRequest(document, operationName string, variables, extensions Values) (*Request, error) {
	if document == "" {
		return nil, ErrEmptyDocument
	}
	return &Request{
		document:      document,
		operationName: operationName,
		variables:     variables.Clone(),
		extensions:    extensions.Clone(),
	}, nil
}

func (r *Request) Document() string      { return r.document }
func (r *Request) OperationName() string { return r.operationName }

// Variables returns a copy of the request variables.
func (r *Request) Variables() Values { return r.variables.Clone() }

// Extensions returns a copy of the protocol extensions.
func (r *Request) Extensions() Values { return r.extensions.Clone() }

// ToMap returns the request in its transport map form: "query" always,
// "operationName", "variables" and "extensions" only when set.
func (r *Request) ToMap() map[string]any {
	m := map[string]any{"query": r.document}
	if r.operationName != "" {
		m["operationName"] = r.operationName
	}
	if r.variables.Len() > 0 {
		m["variables"] = r.variables.Map()
	}
	if r.extensions.Len() > 0 {
		m["extensions"] = r.extensions.Map()
	}
	return m
}

type wireRequest struct {
	Query         string  `json:"query"`
	OperationName string  `json:"operationName,omitempty"`
	Variables     *Values `json:"variables,omitempty"`
	Extensions    *Values `json:"extensions,omitempty"`
}

// MarshalJSON encodes the map form with variables and extensions in
// insertion order.
func (r *Request) MarshalJSON() ([]byte, error) {
	w := wireRequest{Query: r.document, OperationName: r.operationName}
	if r.variables.Len() > 0 {
		w.Variables = &r.variables
	}
	if r.extensions.Len() > 0 {
		w.Extensions = &r.extensions
	}
	return JSON.Marshal(w)
}

// UnmarshalJSON decodes the map form, keeping key order.
func (r *Request) UnmarshalJSON(b []byte) error {
	var w wireRequest
	if err := JSON.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.Query == "" {
		return ErrEmptyDocument
	}
	*r = Request{document: w.Query, operationName: w.OperationName}
	if w.Variables != nil {
		r.variables = *w.Variables
	}
	if w.Extensions != nil {
		r.extensions = *w.Extensions
	}
	return nil
}

// RequestFromMap is the inverse of ToMap.
func RequestFromMap(m map[string]any) (*Request, error) {
	query, _ := m["query"].(string)
	opName, _ := m["operationName"].(string)
	var vars, exts Values
	if v, ok := m["variables"]; ok && v != nil {
		vm, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("graphql: variables must be an object, got %T", v)
		}
		vars.Merge(vm)
	}
	if v, ok := m["extensions"]; ok && v != nil {
		em, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("graphql: extensions must be an object, got %T", v)
		}
		exts.Merge(em)
	}
	return NewRequest(query, opName, vars, exts)
}

func (r *Request) String() string {
	return fmt.Sprintf("document='%s'%s", r.document, r.describe())
}

func (r *Request) describe() string {
	s := ""
	if r.operationName != "" {
		s += ", operationName='" + r.operationName + "'"
	}
	if r.variables.Len() > 0 {
		s += fmt.Sprintf(", variables=%v", r.variables.Map())
	}
	if r.extensions.Len() > 0 {
		s += fmt.Sprintf(", extensions=%v", r.extensions.Map())
	}
	return s
}
