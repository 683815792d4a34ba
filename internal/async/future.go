package async

import (
	"context"
	"fmt"
)

// Future is a single asynchronously produced value.
//
// A Future completes exactly once. Await may be called any number of times
// from any goroutine.
type Future[T any] struct {
	done   chan struct{}
	value  T
	err    error
	cancel context.CancelFunc
}

func newFuture[T any](cancel context.CancelFunc) *Future[T] {
	return &Future[T]{done: make(chan struct{}), cancel: cancel}
}

func (f *Future[T]) complete(v T, err error) {
	f.value, f.err = v, err
	close(f.done)
}

// Go runs fn on sched and returns a Future for its result. The context passed
// to fn is cancelled when the Future is cancelled or fn returns.
func Go[T any](ctx context.Context, sched Scheduler, fn func(context.Context) (T, error)) *Future[T] {
	if sched == nil {
		sched = Default
	}
	ctx, cancel := context.WithCancel(ctx)
	f := newFuture[T](cancel)
	sched.Go(func() {
		defer cancel()
		if err := ctx.Err(); err != nil {
			var zero T
			f.complete(zero, err)
			return
		}
		v, err := call(ctx, fn)
		f.complete(v, err)
	})
	return f
}

func call[T any](ctx context.Context, fn func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("async: panic: %v", r)
		}
	}()
	return fn(ctx)
}

// Completed returns a Future that already holds v.
func Completed[T any](v T) *Future[T] {
	f := newFuture[T](nil)
	f.complete(v, nil)
	return f
}

// Failed returns a Future that already failed with err.
func Failed[T any](err error) *Future[T] {
	f := newFuture[T](nil)
	var zero T
	f.complete(zero, err)
	return f
}

// Done is closed once the Future has completed.
func (f *Future[T]) Done() <-chan struct{} { return f.done }

// Await blocks until the Future completes or ctx is done. Giving up on ctx
// does not cancel the underlying work; use Cancel for that.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.value, f.err
	default:
	}
	select {
	case <-f.done:
		return f.value, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Cancel signals the producing work that its result is no longer wanted.
func (f *Future[T]) Cancel() {
	if f.cancel != nil {
		f.cancel()
	}
}

// Then returns a Future completed with fn applied to the outcome of f.
// fn runs on the goroutine that observes completion, or inline if f is
// already complete.
func Then[T, U any](f *Future[T], fn func(T, error) (U, error)) *Future[U] {
	g := newFuture[U](f.Cancel)
	select {
	case <-f.done:
		v, err := fn(f.value, f.err)
		g.complete(v, err)
		return g
	default:
	}
	go func() {
		<-f.done
		v, err := fn(f.value, f.err)
		g.complete(v, err)
	}()
	return g
}

// Map transforms a successful value; failures pass through untouched.
func Map[T, U any](f *Future[T], fn func(T) (U, error)) *Future[U] {
	return Then(f, func(v T, err error) (U, error) {
		if err != nil {
			var zero U
			return zero, err
		}
		return fn(v)
	})
}

// Recover lets fn substitute a value for a failure.
func Recover[T any](f *Future[T], fn func(error) (T, error)) *Future[T] {
	return Then(f, func(v T, err error) (T, error) {
		if err != nil {
			return fn(err)
		}
		return v, nil
	})
}
