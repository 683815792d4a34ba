package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/graphql"
	"github.com/hanpama/gqlclient/internal/reqid"
)

// RequestSpec accumulates the parts of one request. It is not safe for
// concurrent use and is meant to be discarded after a terminal call.
type RequestSpec struct {
	client        *Client
	document      string
	documentName  string
	operationName string
	variables     graphql.Values
	extensions    graphql.Values
	attributes    graphql.Values
}

// OperationName selects the operation to execute in a multi-operation
// document.
func (s *RequestSpec) OperationName(name string) *RequestSpec {
	s.operationName = name
	return s
}

// Variable sets one variable. A later call with the same name overwrites it.
func (s *RequestSpec) Variable(name string, value any) *RequestSpec {
	s.variables.Set(name, value)
	return s
}

// Variables merges vars into the variables set so far.
func (s *RequestSpec) Variables(vars map[string]any) *RequestSpec {
	s.variables.Merge(vars)
	return s
}

// Extension sets one protocol extension.
func (s *RequestSpec) Extension(name string, value any) *RequestSpec {
	s.extensions.Set(name, value)
	return s
}

// Extensions merges exts into the extensions set so far.
func (s *RequestSpec) Extensions(exts map[string]any) *RequestSpec {
	s.extensions.Merge(exts)
	return s
}

// Attribute sets one client-side attribute. Attributes are visible to
// interceptors but never sent.
func (s *RequestSpec) Attribute(name string, value any) *RequestSpec {
	s.attributes.Set(name, value)
	return s
}

// Attributes merges attrs into the attributes set so far.
func (s *RequestSpec) Attributes(attrs map[string]any) *RequestSpec {
	s.attributes.Merge(attrs)
	return s
}

func (s *RequestSpec) build(ctx context.Context) (*Request, error) {
	doc := s.document
	if s.documentName != "" {
		var err error
		doc, err = s.client.source.Document(ctx, s.documentName)
		if err != nil {
			return nil, &ResolutionError{Name: s.documentName, Err: err}
		}
	}
	req, err := graphql.NewRequest(doc, s.operationName, s.variables, s.extensions)
	if err != nil {
		return nil, err
	}
	return NewRequest(req, s.attributes), nil
}

// ExecuteSync executes the request and blocks until the response arrives.
// GraphQL errors in the response are not Go errors; inspect the response or
// use RetrieveSync.
func (s *RequestSpec) ExecuteSync(ctx context.Context) (*Response, error) {
	ctx, _ = reqid.Ensure(ctx)
	req, err := s.build(ctx)
	if err != nil {
		return nil, err
	}
	finish := s.client.observe(ctx, req, events.ModeSync)
	resp, err := s.client.syncChain(ctx, req)
	resp = resp.withDecoder(s.client.decoder)
	finish(errorCount(resp), err)
	return resp, err
}

// Execute executes the request and returns a future for its response.
// Cancelling the future cancels the in-flight call where the transport
// supports it.
func (s *RequestSpec) Execute(ctx context.Context) *async.Future[*Response] {
	ctx, _ = reqid.Ensure(ctx)
	req, err := s.build(ctx)
	if err != nil {
		return async.Failed[*Response](err)
	}
	finish := s.client.observe(ctx, req, events.ModeAsync)
	return async.Then(s.client.chain(ctx, req), func(resp *Response, err error) (*Response, error) {
		resp = resp.withDecoder(s.client.decoder)
		finish(errorCount(resp), err)
		return resp, err
	})
}

// ExecuteSubscription executes the request and streams its responses. The
// stream ends when the server completes the subscription or the consumer
// closes it.
func (s *RequestSpec) ExecuteSubscription(ctx context.Context) *async.Stream[*Response] {
	if s.client.subscription == nil {
		return async.ErrorStream[*Response](ErrIllegalState)
	}
	ctx, _ = reqid.Ensure(ctx)
	req, err := s.build(ctx)
	if err != nil {
		return async.ErrorStream[*Response](err)
	}
	finish := s.client.observe(ctx, req, events.ModeSubscription)
	var (
		once  sync.Once
		count int
		errs  int
	)
	end := func(err error) {
		once.Do(func() { finish(errs, err) })
	}
	stream := s.client.subscription(ctx, req)
	return async.NewStream(func(rctx context.Context) (*Response, error) {
		resp, err := stream.Recv(rctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				end(nil)
			} else {
				end(err)
			}
			return nil, err
		}
		resp = resp.withDecoder(s.client.decoder)
		eventbus.Publish(ctx, events.SubscriptionItem{
			OperationName: req.OperationName(),
			Index:         count,
			ErrorCount:    len(resp.Errors),
		})
		count++
		errs += len(resp.Errors)
		return resp, nil
	}, func() {
		stream.Close()
		end(nil)
	})
}

// RetrieveSync prepares a blocking retrieval of the field at path.
func (s *RequestSpec) RetrieveSync(path string) *RetrieveSyncSpec {
	return &RetrieveSyncSpec{spec: s, path: path}
}

// Retrieve prepares a non-blocking retrieval of the field at path.
func (s *RequestSpec) Retrieve(path string) *RetrieveSpec {
	return &RetrieveSpec{spec: s, path: path}
}

// RetrieveSubscription prepares a retrieval of the field at path from every
// response of a subscription.
func (s *RequestSpec) RetrieveSubscription(path string) *RetrieveSubscriptionSpec {
	return &RetrieveSubscriptionSpec{spec: s, path: path}
}

// observe publishes the start event and returns the matching finish callback.
func (c *Client) observe(ctx context.Context, req *Request, mode string) func(errorCount int, err error) {
	start := time.Now()
	opType := req.OperationType()
	eventbus.Publish(ctx, events.ClientRequestStart{
		Document:      req.Document(),
		OperationName: req.OperationName(),
		OperationType: opType,
		Mode:          mode,
	})
	return func(n int, err error) {
		eventbus.Publish(ctx, events.ClientRequestFinish{
			OperationName: req.OperationName(),
			OperationType: opType,
			Mode:          mode,
			ErrorCount:    n,
			Err:           err,
			Duration:      time.Since(start),
		})
	}
}

func errorCount(resp *Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return len(resp.Errors)
}
