package client

import (
	"fmt"

	"github.com/hanpama/gqlclient/internal/graphql"
)

// Response is a transport response bound to the request that produced it.
type Response struct {
	*graphql.Response
	request *Request
	decoder Decoder
}

// NewResponse binds resp to req. Interceptors use it to substitute responses.
func NewResponse(req *Request, resp *graphql.Response) *Response {
	if resp == nil {
		resp = &graphql.Response{}
	}
	return &Response{Response: resp, request: req}
}

// Request returns the request the response answers.
func (r *Response) Request() *Request { return r.request }

func (r *Response) withDecoder(d Decoder) *Response {
	if r == nil || r.decoder != nil || d == nil {
		return r
	}
	return &Response{Response: r.Response, request: r.request, decoder: d}
}

func (r *Response) dec() Decoder {
	if r.decoder != nil {
		return r.decoder
	}
	return DefaultDecoder
}

// Field resolves a path such as "project.releases[0].version". An empty path
// selects the whole data value.
func (r *Response) Field(path string) (*ResponseField, error) {
	p, err := graphql.ParsePath(path)
	if err != nil {
		return nil, err
	}
	return r.FieldAt(p)
}

// FieldAt resolves a structured path.
func (r *Response) FieldAt(path graphql.Path) (*ResponseField, error) {
	f, err := r.Response.FieldAt(path)
	if err != nil {
		return nil, err
	}
	return &ResponseField{Field: f, response: r}, nil
}

// ResponseField is a field of a Response together with its scoped errors.
type ResponseField struct {
	*graphql.Field
	response *Response
}

// Response returns the response the field was read from.
func (f *ResponseField) Response() *Response { return f.response }

// IsValid reports whether the response has data and no error is attached to
// the field.
func (f *ResponseField) IsValid() bool {
	return f.response.IsValid() && len(f.Errors) == 0
}

// Decode decodes the field value into target, a non-nil pointer. A null value
// leaves target at its zero value, unless the field is invalid, in which case
// Decode fails with a *FieldAccessError. Target is untouched when decoding
// fails.
func (f *ResponseField) Decode(target any) error {
	if f.Value == nil {
		if !f.IsValid() {
			return f.accessError()
		}
		return decodeFresh(DecoderFunc(func(any, any) error { return nil }), nil, target)
	}
	if err := decodeFresh(f.response.dec(), f.Value, target); err != nil {
		return fmt.Errorf("client: decode field %q: %w", f.Path.String(), err)
	}
	return nil
}

func (f *ResponseField) accessError() *FieldAccessError {
	return &FieldAccessError{Request: f.response.request, Response: f.response, Field: f}
}

// validField resolves path on resp and applies the retrieval rule shared by
// every retrieve spec.
func validField(resp *Response, path string) (*ResponseField, error) {
	f, err := resp.Field(path)
	if err != nil {
		return nil, err
	}
	if !f.IsValid() {
		return nil, f.accessError()
	}
	return f, nil
}
