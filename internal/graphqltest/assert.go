package graphqltest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/tidwall/gjson"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/hanpama/gqlclient/internal/client"
	"github.com/hanpama/gqlclient/internal/graphql"
)

// ErrorFilter selects response errors.
type ErrorFilter func(*gqlerror.Error) bool

// MessageContains matches errors whose message contains s.
func MessageContains(s string) ErrorFilter {
	return func(e *gqlerror.Error) bool { return strings.Contains(e.Message, s) }
}

// AtPath matches errors reported at path, written as "a.b[0].c".
func AtPath(path string) ErrorFilter {
	return func(e *gqlerror.Error) bool { return graphql.PathFromAST(e.Path).String() == path }
}

// ResponseAssert holds a response under test.
type ResponseAssert struct {
	t        testing.TB
	resp     *client.Response
	data     []byte
	expected []bool
}

func newResponseAssert(t testing.TB, resp *client.Response) *ResponseAssert {
	t.Helper()
	data, err := graphql.JSON.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("graphqltest: encode data: %v", err)
	}
	return &ResponseAssert{t: t, resp: resp, data: data, expected: make([]bool, len(resp.Errors))}
}

// Response returns the underlying response.
func (r *ResponseAssert) Response() *client.Response { return r.resp }

// Valid asserts that the response carries data.
func (r *ResponseAssert) Valid() *ResponseAssert {
	r.t.Helper()
	if !r.resp.IsValid() {
		r.t.Fatalf("graphqltest: response has no data, errors: %v", r.resp.Errors)
	}
	return r
}

// Path selects a value of the response data with a gjson path. It first
// fails the test on any error not declared expected.
func (r *ResponseAssert) Path(path string) *PathAssert {
	r.t.Helper()
	r.verifyErrors()
	return &PathAssert{t: r.t, path: path, result: gjson.GetBytes(r.data, path)}
}

// Errors starts assertions on the response errors.
func (r *ResponseAssert) Errors() *ErrorsAssert {
	return &ErrorsAssert{r: r}
}

func (r *ResponseAssert) verifyErrors() {
	r.t.Helper()
	var unexpected []string
	for i, e := range r.resp.Errors {
		if !r.expected[i] {
			unexpected = append(unexpected, e.Error())
		}
	}
	if len(unexpected) > 0 {
		r.t.Fatalf("graphqltest: unexpected errors:\n%s", strings.Join(unexpected, "\n"))
	}
}

// ErrorsAssert marks and checks response errors.
type ErrorsAssert struct {
	r *ResponseAssert
}

// Filter marks errors matching f as expected without requiring any match.
func (a *ErrorsAssert) Filter(f ErrorFilter) *ErrorsAssert {
	for i, e := range a.r.resp.Errors {
		if f(e) {
			a.r.expected[i] = true
		}
	}
	return a
}

// Expect marks errors matching f as expected and fails the test when none
// matches.
func (a *ErrorsAssert) Expect(f ErrorFilter) *ErrorsAssert {
	a.r.t.Helper()
	matched := false
	for i, e := range a.r.resp.Errors {
		if f(e) {
			a.r.expected[i] = true
			matched = true
		}
	}
	if !matched {
		a.r.t.Fatalf("graphqltest: no error matched, errors: %v", a.r.resp.Errors)
	}
	return a
}

// Verify fails the test on any error not declared expected.
func (a *ErrorsAssert) Verify() *ResponseAssert {
	a.r.t.Helper()
	a.r.verifyErrors()
	return a.r
}

// Satisfy passes every error to fn and marks them all expected.
func (a *ErrorsAssert) Satisfy(fn func(gqlerror.List)) *ErrorsAssert {
	fn(a.r.resp.Errors)
	for i := range a.r.expected {
		a.r.expected[i] = true
	}
	return a
}

// PathAssert holds the value at one path.
type PathAssert struct {
	t      testing.TB
	path   string
	result gjson.Result
}

// Exists asserts the path is present, possibly null.
func (p *PathAssert) Exists() *PathAssert {
	p.t.Helper()
	if !p.result.Exists() {
		p.t.Fatalf("graphqltest: no value at %q", p.path)
	}
	return p
}

// HasValue asserts the path is present and not null.
func (p *PathAssert) HasValue() *PathAssert {
	p.t.Helper()
	if !p.result.Exists() || p.result.Type == gjson.Null {
		p.t.Fatalf("graphqltest: expected a value at %q", p.path)
	}
	return p
}

// ValueIsNull asserts the path is absent or null.
func (p *PathAssert) ValueIsNull() *PathAssert {
	p.t.Helper()
	if p.result.Exists() && p.result.Type != gjson.Null {
		p.t.Fatalf("graphqltest: expected null at %q, got %s", p.path, p.result.Raw)
	}
	return p
}

// Matches asserts the value at the path is JSON-equal to expected.
func (p *PathAssert) Matches(expected string) *PathAssert {
	p.t.Helper()
	raw := p.result.Raw
	if raw == "" {
		raw = "null"
	}
	if !assert.JSONEq(p.t, expected, raw, fmt.Sprintf("path %q", p.path)) {
		p.t.FailNow()
	}
	return p
}

// Entity decodes the value at the path into target.
func (p *PathAssert) Entity(target any) *PathAssert {
	p.t.Helper()
	p.HasValue()
	if err := graphql.JSON.UnmarshalFromString(p.result.Raw, target); err != nil {
		p.t.Fatalf("graphqltest: decode %q: %v", p.path, err)
	}
	return p
}

// Len asserts the value at the path is an array of n elements.
func (p *PathAssert) Len(n int) *PathAssert {
	p.t.Helper()
	if !p.result.IsArray() {
		p.t.Fatalf("graphqltest: %q is not a list", p.path)
	}
	if got := len(p.result.Array()); got != n {
		p.t.Fatalf("graphqltest: %q has %d elements, want %d", p.path, got, n)
	}
	return p
}

// Result returns the raw gjson result.
func (p *PathAssert) Result() gjson.Result { return p.result }
