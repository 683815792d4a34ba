package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/document"
	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/graphql"
)

var (
	errNilTransport     = errors.New("client: transport is required")
	errNilResponse      = errors.New("client: transport returned no response")
	errSyncInterceptors = errors.New("client: sync interceptors require a blocking transport")
	errInterceptors     = errors.New("client: interceptors require a non-blocking transport")
)

// Client executes GraphQL requests through an interceptor chain bound to a
// transport. It is safe for concurrent use; per-request state lives in the
// RequestSpec.
type Client struct {
	source       document.Source
	decoder      Decoder
	syncChain    SyncChain
	chain        Chain
	subscription SubscriptionChain
}

// New builds a client on a non-blocking transport. Blocking calls wait on
// the non-blocking chain, bounded by Options.BlockingTimeout.
func New(t Transport, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, errNilTransport
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if len(o.SyncInterceptors) > 0 {
		return nil, errSyncInterceptors
	}
	ic := ChainInterceptors(o.Interceptors...)
	chain := bind(ic, terminal(t))
	return &Client{
		source:       sourceOrDefault(o.DocumentSource),
		decoder:      o.Decoder,
		chain:        chain,
		syncChain:    SyncFromAsync(chain, o.BlockingTimeout),
		subscription: bindSubscription(ic, subscriptionTerminal(t)),
	}, nil
}

// NewSync builds a client on a blocking transport. Non-blocking calls run the
// blocking chain on Options.Scheduler. Subscriptions are not supported and
// fail with ErrIllegalState.
func NewSync(t SyncTransport, opts ...Option) (*Client, error) {
	if t == nil {
		return nil, errNilTransport
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	if len(o.Interceptors) > 0 {
		return nil, errInterceptors
	}
	syncChain := bindSync(ChainSyncInterceptors(o.SyncInterceptors...), syncTerminal(t))
	return &Client{
		source:    sourceOrDefault(o.DocumentSource),
		decoder:   o.Decoder,
		syncChain: syncChain,
		chain:     AsyncFromSync(syncChain, o.Scheduler),
	}, nil
}

func sourceOrDefault(s document.Source) document.Source {
	if s != nil {
		return s
	}
	return document.NewFileSource()
}

// Document starts a request with literal document text.
func (c *Client) Document(text string) *RequestSpec {
	return &RequestSpec{client: c, document: text}
}

// DocumentName starts a request whose document is resolved by name through
// the client's document source when the request is executed.
func (c *Client) DocumentName(name string) *RequestSpec {
	return &RequestSpec{client: c, documentName: name}
}

func syncTerminal(t SyncTransport) SyncChain {
	return func(ctx context.Context, req *Request) (*Response, error) {
		start := time.Now()
		eventbus.Publish(ctx, events.TransportStart{OperationName: req.OperationName(), Mode: events.ModeSync})
		resp, err := t.Execute(ctx, req.Request)
		if err == nil && resp == nil {
			err = errNilResponse
		}
		eventbus.Publish(ctx, events.TransportFinish{
			OperationName: req.OperationName(),
			Mode:          events.ModeSync,
			Err:           err,
			Duration:      time.Since(start),
		})
		if err != nil {
			return nil, wrapTransportError(req, err)
		}
		return NewResponse(req, resp), nil
	}
}

func terminal(t Transport) Chain {
	return func(ctx context.Context, req *Request) *async.Future[*Response] {
		start := time.Now()
		eventbus.Publish(ctx, events.TransportStart{OperationName: req.OperationName(), Mode: events.ModeAsync})
		return async.Then(t.Execute(ctx, req.Request), func(resp *graphql.Response, err error) (*Response, error) {
			if err == nil && resp == nil {
				err = errNilResponse
			}
			eventbus.Publish(ctx, events.TransportFinish{
				OperationName: req.OperationName(),
				Mode:          events.ModeAsync,
				Err:           err,
				Duration:      time.Since(start),
			})
			if err != nil {
				return nil, wrapTransportError(req, err)
			}
			return NewResponse(req, resp), nil
		})
	}
}

func subscriptionTerminal(t Transport) SubscriptionChain {
	return func(ctx context.Context, req *Request) *async.Stream[*Response] {
		start := time.Now()
		eventbus.Publish(ctx, events.TransportStart{OperationName: req.OperationName(), Mode: events.ModeSubscription})
		var once sync.Once
		finish := func(err error) {
			once.Do(func() {
				eventbus.Publish(ctx, events.TransportFinish{
					OperationName: req.OperationName(),
					Mode:          events.ModeSubscription,
					Err:           err,
					Duration:      time.Since(start),
				})
			})
		}
		s := t.ExecuteSubscription(ctx, req.Request)
		return async.NewStream(func(rctx context.Context) (*Response, error) {
			resp, err := s.Recv(rctx)
			if errors.Is(err, io.EOF) {
				finish(nil)
				return nil, io.EOF
			}
			if err == nil && resp == nil {
				err = errNilResponse
			}
			if err != nil {
				finish(err)
				return nil, wrapTransportError(req, err)
			}
			return NewResponse(req, resp), nil
		}, func() {
			s.Close()
			finish(nil)
		})
	}
}
