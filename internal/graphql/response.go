package graphql

import (
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Response is a GraphQL response as received from a transport.
type Response struct {
	Data       any            `json:"data"`
	Errors     gqlerror.List  `json:"errors,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

// IsValid reports whether the response carries data. A response without data
// failed before or during execution and only its errors are meaningful.
func (r *Response) IsValid() bool {
	return r != nil && r.Data != nil
}

// ResponseFromMap builds a Response from its decoded map form.
func ResponseFromMap(m map[string]any) (*Response, error) {
	b, err := JSON.Marshal(m)
	if err != nil {
		return nil, err
	}
	return DecodeResponse(b)
}

// DecodeResponse decodes a JSON response body.
func DecodeResponse(b []byte) (*Response, error) {
	var r Response
	if err := JSON.Unmarshal(b, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// ToMap returns the response in map form.
func (r *Response) ToMap() map[string]any {
	m := map[string]any{"data": r.Data}
	if len(r.Errors) > 0 {
		errs := make([]any, len(r.Errors))
		for i, e := range r.Errors {
			em := map[string]any{"message": e.Message}
			if len(e.Path) > 0 {
				em["path"] = []any(PathFromAST(e.Path))
			}
			if len(e.Locations) > 0 {
				locs := make([]any, len(e.Locations))
				for j, l := range e.Locations {
					locs[j] = map[string]any{"line": l.Line, "column": l.Column}
				}
				em["locations"] = locs
			}
			if len(e.Extensions) > 0 {
				em["extensions"] = e.Extensions
			}
			errs[i] = em
		}
		m["errors"] = errs
	}
	if len(r.Extensions) > 0 {
		m["extensions"] = r.Extensions
	}
	return m
}

// Field is the value at a path of a response together with the errors
// that concern it.
type Field struct {
	Path   Path
	Value  any
	Errors gqlerror.List
}

// HasValue reports whether the field resolved to a non-null value.
func (f *Field) HasValue() bool { return f.Value != nil }

// Field resolves a path expression against the response data.
func (r *Response) Field(path string) (*Field, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return r.FieldAt(p)
}

// FieldAt resolves a structured path. Errors whose path is at, above or
// below p are attached to the field.
func (r *Response) FieldAt(p Path) (*Field, error) {
	value, _, err := lookup(r.Data, p)
	if err != nil {
		return nil, err
	}
	return &Field{Path: p, Value: value, Errors: r.fieldErrors(p)}, nil
}

func (r *Response) fieldErrors(p Path) gqlerror.List {
	if len(p) == 0 {
		return nil
	}
	var out gqlerror.List
	for _, e := range r.Errors {
		ep := PathFromAST(e.Path)
		if len(ep) == 0 {
			continue
		}
		// The error is on an ancestor, on the field itself, or beneath it.
		if p.HasPrefix(ep) || ep.HasPrefix(p) {
			out = append(out, e)
		}
	}
	return out
}
