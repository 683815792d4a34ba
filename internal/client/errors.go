package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrIllegalState is returned for subscriptions on a client that was built
// on a blocking transport.
var ErrIllegalState = errors.New("client: subscriptions require a non-blocking transport")

// clientError marks errors raised by the client itself so that the terminal
// chain step does not wrap them again.
type clientError interface {
	error
	clientError()
}

// TransportError wraps any failure of the transport with the request that
// caused it.
type TransportError struct {
	Request *Request
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("client: transport error for %s: %v", e.Request.describe(), e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
func (*TransportError) clientError()    {}

// FieldAccessError is returned when a field is read from a response that has
// no data, or when errors are attached to the field.
type FieldAccessError struct {
	Request  *Request
	Response *Response
	Field    *ResponseField
}

func (e *FieldAccessError) Error() string {
	var msgs []string
	for _, err := range e.Field.Errors {
		msgs = append(msgs, err.Message)
	}
	if !e.Response.IsValid() {
		for _, err := range e.Response.Errors {
			msgs = append(msgs, err.Message)
		}
		if len(msgs) == 0 {
			msgs = append(msgs, "response has no data")
		}
	}
	msgs = dedupe(msgs)
	return fmt.Sprintf("client: invalid field %q: %s", e.Field.Path.String(), strings.Join(msgs, "; "))
}

func (*FieldAccessError) clientError() {}

// TimeoutError is returned when a blocking call on a non-blocking chain does
// not complete within the configured timeout.
type TimeoutError struct {
	Request *Request
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("client: no response within %s for %s", e.Timeout, e.Request.describe())
}

func (e *TimeoutError) Unwrap() error { return context.DeadlineExceeded }
func (*TimeoutError) clientError()    {}

// ResolutionError is returned when a document name cannot be resolved. The
// chain is never invoked in that case.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("client: resolve document %q: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }
func (*ResolutionError) clientError()    {}

// wrapTransportError attaches req to err unless err already is a client error.
func wrapTransportError(req *Request, err error) error {
	if err == nil {
		return nil
	}
	var ce clientError
	if errors.As(err, &ce) {
		return err
	}
	return &TransportError{Request: req, Err: err}
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := in[:0]
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
