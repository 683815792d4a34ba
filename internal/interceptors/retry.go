package interceptors

import (
	"context"
	"errors"

	"github.com/cenkalti/backoff/v5"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/client"
)

// Retry re-executes requests that failed with a *client.TransportError.
// Responses carrying GraphQL errors are returned as they are. Subscriptions
// pass through.
type Retry struct {
	opts  []backoff.RetryOption
	sched async.Scheduler
}

// NewRetry uses an exponential backoff with at most three tries unless opts
// say otherwise.
func NewRetry(opts ...backoff.RetryOption) *Retry {
	base := []backoff.RetryOption{
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
	}
	return &Retry{opts: append(base, opts...), sched: async.Default}
}

// WithScheduler sets the scheduler running the async retry loop.
func (r *Retry) WithScheduler(s async.Scheduler) *Retry {
	r.sched = s
	return r
}

func (r *Retry) Sync() client.SyncInterceptor {
	return client.SyncInterceptorFunc(func(ctx context.Context, req *client.Request, next client.SyncChain) (*client.Response, error) {
		return r.do(ctx, func() (*client.Response, error) { return next(ctx, req) })
	})
}

func (r *Retry) Async() client.Interceptor {
	return client.InterceptorFunc(func(ctx context.Context, req *client.Request, next client.Chain) *async.Future[*client.Response] {
		return async.Go(ctx, r.sched, func(ctx context.Context) (*client.Response, error) {
			return r.do(ctx, func() (*client.Response, error) { return next(ctx, req).Await(ctx) })
		})
	})
}

func (r *Retry) do(ctx context.Context, call func() (*client.Response, error)) (*client.Response, error) {
	resp, err := backoff.Retry(ctx, func() (*client.Response, error) {
		resp, err := call()
		var te *client.TransportError
		if err != nil && !errors.As(err, &te) {
			return resp, backoff.Permanent(err)
		}
		return resp, err
	}, r.opts...)
	var pe *backoff.PermanentError
	if errors.As(err, &pe) {
		err = pe.Err
	}
	return resp, err
}
