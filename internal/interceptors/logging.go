package interceptors

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/client"
	"github.com/hanpama/gqlclient/internal/reqid"
)

// Logging logs one line per request with its outcome and duration, and one
// debug line per subscription item.
type Logging struct {
	logger *zap.Logger
}

func NewLogging(l *zap.Logger) *Logging {
	if l == nil {
		l = zap.NewNop()
	}
	return &Logging{logger: l}
}

func (l *Logging) Sync() client.SyncInterceptor {
	return client.SyncInterceptorFunc(func(ctx context.Context, req *client.Request, next client.SyncChain) (*client.Response, error) {
		done := l.start(ctx, req)
		resp, err := next(ctx, req)
		done(errorCount(resp), err)
		return resp, err
	})
}

func (l *Logging) Async() client.Interceptor { return loggingInterceptor{l} }

type loggingInterceptor struct{ l *Logging }

func (i loggingInterceptor) Intercept(ctx context.Context, req *client.Request, next client.Chain) *async.Future[*client.Response] {
	done := i.l.start(ctx, req)
	return async.Then(next(ctx, req), func(resp *client.Response, err error) (*client.Response, error) {
		done(errorCount(resp), err)
		return resp, err
	})
}

func (i loggingInterceptor) InterceptSubscription(ctx context.Context, req *client.Request, next client.SubscriptionChain) *async.Stream[*client.Response] {
	done := i.l.start(ctx, req)
	items, errs := 0, 0
	log := i.l.logger.With(i.l.fields(ctx, req)...)
	return observeStream(next(ctx, req), func(resp *client.Response) {
		items++
		errs += errorCount(resp)
		log.Debug("graphql subscription item", zap.Int("index", items-1), zap.Int("errors", errorCount(resp)))
	}, func(err error) {
		done(errs, err)
	})
}

func (l *Logging) fields(ctx context.Context, req *client.Request) []zap.Field {
	fs := []zap.Field{
		zap.String("operation", req.OperationName()),
		zap.String("type", req.OperationType()),
	}
	if id, ok := reqid.FromContext(ctx); ok {
		fs = append(fs, zap.Int64("request_id", id))
	}
	return fs
}

func (l *Logging) start(ctx context.Context, req *client.Request) func(errorCount int, err error) {
	start := time.Now()
	log := l.logger.With(l.fields(ctx, req)...)
	log.Debug("graphql request")
	return func(errorCount int, err error) {
		fs := []zap.Field{zap.Duration("duration", time.Since(start)), zap.Int("errors", errorCount)}
		if err != nil {
			log.Warn("graphql request failed", append(fs, zap.Error(err))...)
			return
		}
		log.Info("graphql request", fs...)
	}
}
