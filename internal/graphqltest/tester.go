// Package graphqltest provides assertions over GraphQL responses for tests.
//
// A Tester executes documents through a client.Client and returns a
// ResponseAssert. Data is inspected with gjson paths such as
// "project.releases.0.version". Any response error that was not declared
// expected with Errors().Expect fails the test at the first data assertion
// or at Errors().Verify.
package graphqltest

import (
	"context"
	"testing"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/client"
)

// Tester executes requests for assertions.
type Tester struct {
	client *client.Client
}

// New returns a Tester backed by c.
func New(c *client.Client) *Tester { return &Tester{client: c} }

// Document starts a request with literal document text.
func (t *Tester) Document(text string) *Request {
	return &Request{spec: t.client.Document(text)}
}

// DocumentName starts a request with a named document.
func (t *Tester) DocumentName(name string) *Request {
	return &Request{spec: t.client.DocumentName(name)}
}

// Request collects request parts; see client.RequestSpec.
type Request struct {
	spec *client.RequestSpec
	ctx  context.Context
}

func (r *Request) OperationName(name string) *Request {
	r.spec.OperationName(name)
	return r
}

func (r *Request) Variable(name string, value any) *Request {
	r.spec.Variable(name, value)
	return r
}

func (r *Request) Variables(vars map[string]any) *Request {
	r.spec.Variables(vars)
	return r
}

func (r *Request) Extension(name string, value any) *Request {
	r.spec.Extension(name, value)
	return r
}

func (r *Request) Attribute(name string, value any) *Request {
	r.spec.Attribute(name, value)
	return r
}

// WithContext sets the context used for execution.
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

func (r *Request) context() context.Context {
	if r.ctx != nil {
		return r.ctx
	}
	return context.Background()
}

// Execute runs the request and fails the test on transport errors.
func (r *Request) Execute(t testing.TB) *ResponseAssert {
	t.Helper()
	resp, err := r.spec.ExecuteSync(r.context())
	if err != nil {
		t.Fatalf("graphqltest: execute: %v", err)
		return nil
	}
	return newResponseAssert(t, resp)
}

// ExecuteSubscription starts a subscription. The stream is closed when the
// test ends.
func (r *Request) ExecuteSubscription(t testing.TB) *Subscription {
	t.Helper()
	s := r.spec.ExecuteSubscription(r.context())
	t.Cleanup(s.Close)
	return &Subscription{t: t, ctx: r.context(), stream: s}
}

// Subscription reads subscription responses one at a time.
type Subscription struct {
	t      testing.TB
	ctx    context.Context
	stream *async.Stream[*client.Response]
}

// Next waits for the next response and fails the test if the stream ended
// or failed.
func (s *Subscription) Next() *ResponseAssert {
	s.t.Helper()
	resp, err := s.stream.Recv(s.ctx)
	if err != nil {
		s.t.Fatalf("graphqltest: subscription: %v", err)
		return nil
	}
	return newResponseAssert(s.t, resp)
}

// Close stops the subscription.
func (s *Subscription) Close() { s.stream.Close() }
