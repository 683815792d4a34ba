package interceptors

import (
	"context"
	"slices"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/client"
)

// Extensions adds static protocol extensions to every request. Extensions
// already set on a request win.
type Extensions struct {
	keys   []string
	values map[string]any
}

func NewExtensions(exts map[string]any) *Extensions {
	e := &Extensions{values: make(map[string]any, len(exts))}
	for k, v := range exts {
		e.keys = append(e.keys, k)
		e.values[k] = v
	}
	slices.Sort(e.keys)
	return e
}

func (e *Extensions) apply(req *client.Request) (*client.Request, error) {
	current := req.Extensions()
	for _, k := range e.keys {
		if _, ok := current.Get(k); ok {
			continue
		}
		next, err := req.WithExtension(k, e.values[k])
		if err != nil {
			return nil, err
		}
		req = next
	}
	return req, nil
}

func (e *Extensions) Sync() client.SyncInterceptor {
	return client.SyncInterceptorFunc(func(ctx context.Context, req *client.Request, next client.SyncChain) (*client.Response, error) {
		req, err := e.apply(req)
		if err != nil {
			return nil, err
		}
		return next(ctx, req)
	})
}

func (e *Extensions) Async() client.Interceptor { return extensionsInterceptor{e} }

type extensionsInterceptor struct{ e *Extensions }

func (i extensionsInterceptor) Intercept(ctx context.Context, req *client.Request, next client.Chain) *async.Future[*client.Response] {
	req, err := i.e.apply(req)
	if err != nil {
		return async.Failed[*client.Response](err)
	}
	return next(ctx, req)
}

func (i extensionsInterceptor) InterceptSubscription(ctx context.Context, req *client.Request, next client.SubscriptionChain) *async.Stream[*client.Response] {
	req, err := i.e.apply(req)
	if err != nil {
		return async.ErrorStream[*client.Response](err)
	}
	return next(ctx, req)
}
