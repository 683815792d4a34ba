package interceptors

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/client"
)

// RateLimit waits for the limiter before delegating. A subscription takes
// one token when it opens.
type RateLimit struct {
	limiter *rate.Limiter
}

func NewRateLimit(l *rate.Limiter) *RateLimit { return &RateLimit{limiter: l} }

func (r *RateLimit) Sync() client.SyncInterceptor {
	return client.SyncInterceptorFunc(func(ctx context.Context, req *client.Request, next client.SyncChain) (*client.Response, error) {
		if err := r.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return next(ctx, req)
	})
}

func (r *RateLimit) Async() client.Interceptor { return rateLimitInterceptor{r.limiter} }

type rateLimitInterceptor struct{ limiter *rate.Limiter }

func (i rateLimitInterceptor) Intercept(ctx context.Context, req *client.Request, next client.Chain) *async.Future[*client.Response] {
	if i.limiter.Allow() {
		return next(ctx, req)
	}
	return async.Go(ctx, nil, func(ctx context.Context) (*client.Response, error) {
		if err := i.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return next(ctx, req).Await(ctx)
	})
}

func (i rateLimitInterceptor) InterceptSubscription(ctx context.Context, req *client.Request, next client.SubscriptionChain) *async.Stream[*client.Response] {
	return async.Generate(ctx, func(ctx context.Context, emit func(*client.Response) error) error {
		if err := i.limiter.Wait(ctx); err != nil {
			return err
		}
		return pipe(ctx, next(ctx, req), emit)
	})
}
