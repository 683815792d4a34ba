package client

import (
	"context"
	"time"

	"github.com/hanpama/gqlclient/internal/async"
)

// AsyncFromSync exposes a blocking chain as a non-blocking one. Each call runs
// on sched; a nil sched uses async.Default, which starts a goroutine per call.
func AsyncFromSync(chain SyncChain, sched async.Scheduler) Chain {
	return func(ctx context.Context, req *Request) *async.Future[*Response] {
		return async.Go(ctx, sched, func(ctx context.Context) (*Response, error) {
			return chain(ctx, req)
		})
	}
}

// SyncFromAsync exposes a non-blocking chain as a blocking one. A timeout of
// zero or less waits until the future completes or ctx is done. When the
// timeout elapses first, the in-flight call is cancelled and a *TimeoutError
// is returned.
func SyncFromAsync(chain Chain, timeout time.Duration) SyncChain {
	return func(ctx context.Context, req *Request) (*Response, error) {
		f := chain(ctx, req)
		wait := ctx
		if timeout > 0 {
			var cancel context.CancelFunc
			wait, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		select {
		case <-f.Done():
			return f.Await(context.Background())
		case <-wait.Done():
		}
		// A result that raced the deadline still wins.
		select {
		case <-f.Done():
			return f.Await(context.Background())
		default:
		}
		f.Cancel()
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return nil, &TimeoutError{Request: req, Timeout: timeout}
	}
}
