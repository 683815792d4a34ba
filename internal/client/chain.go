package client

import (
	"context"

	"github.com/hanpama/gqlclient/internal/async"
)

// SyncChain executes a request and blocks until the response is available.
type SyncChain func(ctx context.Context, req *Request) (*Response, error)

// Chain executes a request with a single response.
type Chain func(ctx context.Context, req *Request) *async.Future[*Response]

// SubscriptionChain executes a request with a stream of responses.
type SubscriptionChain func(ctx context.Context, req *Request) *async.Stream[*Response]

// SyncInterceptor observes or modifies requests and responses on a blocking
// chain. It must call next at most once per call, or return a substitute
// response without calling it.
type SyncInterceptor interface {
	Intercept(ctx context.Context, req *Request, next SyncChain) (*Response, error)
}

// SyncInterceptorFunc adapts a function to SyncInterceptor.
type SyncInterceptorFunc func(ctx context.Context, req *Request, next SyncChain) (*Response, error)

func (f SyncInterceptorFunc) Intercept(ctx context.Context, req *Request, next SyncChain) (*Response, error) {
	return f(ctx, req, next)
}

// Interceptor observes or modifies requests and responses on a non-blocking
// chain, for single responses and for subscriptions.
type Interceptor interface {
	Intercept(ctx context.Context, req *Request, next Chain) *async.Future[*Response]
	InterceptSubscription(ctx context.Context, req *Request, next SubscriptionChain) *async.Stream[*Response]
}

// InterceptorFunc adapts a function to Interceptor. Subscriptions pass
// through untouched.
type InterceptorFunc func(ctx context.Context, req *Request, next Chain) *async.Future[*Response]

func (f InterceptorFunc) Intercept(ctx context.Context, req *Request, next Chain) *async.Future[*Response] {
	return f(ctx, req, next)
}

func (f InterceptorFunc) InterceptSubscription(ctx context.Context, req *Request, next SubscriptionChain) *async.Stream[*Response] {
	return next(ctx, req)
}

// SubscriptionInterceptorFunc adapts a function to Interceptor. Single
// response requests pass through untouched.
type SubscriptionInterceptorFunc func(ctx context.Context, req *Request, next SubscriptionChain) *async.Stream[*Response]

func (f SubscriptionInterceptorFunc) Intercept(ctx context.Context, req *Request, next Chain) *async.Future[*Response] {
	return next(ctx, req)
}

func (f SubscriptionInterceptorFunc) InterceptSubscription(ctx context.Context, req *Request, next SubscriptionChain) *async.Stream[*Response] {
	return f(ctx, req, next)
}

// AndThenSync composes two interceptors. a runs first and hands b the rest
// of the chain, so a sees the request before b and the response after b.
func AndThenSync(a, b SyncInterceptor) SyncInterceptor {
	return SyncInterceptorFunc(func(ctx context.Context, req *Request, next SyncChain) (*Response, error) {
		return a.Intercept(ctx, req, func(ctx context.Context, req *Request) (*Response, error) {
			return b.Intercept(ctx, req, next)
		})
	})
}

// AndThen composes two interceptors with the same ordering as AndThenSync.
func AndThen(a, b Interceptor) Interceptor { return composed{a: a, b: b} }

type composed struct{ a, b Interceptor }

func (c composed) Intercept(ctx context.Context, req *Request, next Chain) *async.Future[*Response] {
	return c.a.Intercept(ctx, req, func(ctx context.Context, req *Request) *async.Future[*Response] {
		return c.b.Intercept(ctx, req, next)
	})
}

func (c composed) InterceptSubscription(ctx context.Context, req *Request, next SubscriptionChain) *async.Stream[*Response] {
	return c.a.InterceptSubscription(ctx, req, func(ctx context.Context, req *Request) *async.Stream[*Response] {
		return c.b.InterceptSubscription(ctx, req, next)
	})
}

// ChainSyncInterceptors folds interceptors left to right with AndThenSync.
// It returns nil for an empty list.
func ChainSyncInterceptors(interceptors ...SyncInterceptor) SyncInterceptor {
	var out SyncInterceptor
	for _, i := range interceptors {
		if out == nil {
			out = i
			continue
		}
		out = AndThenSync(out, i)
	}
	return out
}

// ChainInterceptors folds interceptors left to right with AndThen. It returns
// nil for an empty list.
func ChainInterceptors(interceptors ...Interceptor) Interceptor {
	var out Interceptor
	for _, i := range interceptors {
		if out == nil {
			out = i
			continue
		}
		out = AndThen(out, i)
	}
	return out
}

func bindSync(i SyncInterceptor, terminal SyncChain) SyncChain {
	if i == nil {
		return terminal
	}
	return func(ctx context.Context, req *Request) (*Response, error) {
		return i.Intercept(ctx, req, terminal)
	}
}

func bind(i Interceptor, terminal Chain) Chain {
	if i == nil {
		return terminal
	}
	return func(ctx context.Context, req *Request) *async.Future[*Response] {
		return i.Intercept(ctx, req, terminal)
	}
}

func bindSubscription(i Interceptor, terminal SubscriptionChain) SubscriptionChain {
	if i == nil {
		return terminal
	}
	return func(ctx context.Context, req *Request) *async.Stream[*Response] {
		return i.InterceptSubscription(ctx, req, terminal)
	}
}
