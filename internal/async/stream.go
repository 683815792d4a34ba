package async

import (
	"context"
	"errors"
	"io"
	"iter"
	"sync"
)

// Stream is a lazy, possibly infinite sequence of values pulled with Recv.
// Recv returns io.EOF once the sequence has ended normally. A terminal error
// is sticky: every later Recv returns it again.
//
// A Stream is meant for a single consumer.
type Stream[T any] struct {
	next  func(ctx context.Context) (T, error)
	close func()

	mu      sync.Mutex
	err     error
	closed  bool
	closeMu sync.Once
}

// NewStream builds a Stream from a pull function and an optional close hook.
// next must return io.EOF when the sequence ends.
func NewStream[T any](next func(ctx context.Context) (T, error), close func()) *Stream[T] {
	return &Stream[T]{next: next, close: close}
}

// Recv returns the next value.
func (s *Stream[T]) Recv(ctx context.Context) (T, error) {
	var zero T
	s.mu.Lock()
	if s.err != nil {
		err := s.err
		s.mu.Unlock()
		return zero, err
	}
	if s.closed {
		s.mu.Unlock()
		return zero, io.EOF
	}
	s.mu.Unlock()

	v, err := s.next(ctx)
	if err != nil {
		s.mu.Lock()
		if s.closed && errors.Is(err, context.Canceled) {
			err = io.EOF
		}
		s.err = err
		s.mu.Unlock()
		s.Close()
		return zero, err
	}
	return v, nil
}

// Close stops the stream and releases the producer. Safe to call repeatedly.
func (s *Stream[T]) Close() {
	s.closeMu.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		if s.close != nil {
			s.close()
		}
	})
}

// All iterates over the remaining values. Iteration stops after the first
// error, which is yielded once; io.EOF is not yielded. Breaking out of the
// loop closes the stream.
func (s *Stream[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		defer s.Close()
		for {
			v, err := s.Recv(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Collect drains the stream into a slice.
func (s *Stream[T]) Collect(ctx context.Context) ([]T, error) {
	var out []T
	for v, err := range s.All(ctx) {
		if err != nil {
			return out, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Generate exposes what producer emits as a Stream. The producer starts on
// its own goroutine at the first Recv; closing the stream before that never
// starts it. emit blocks until the consumer takes the value and fails once
// the stream is closed. The producer's return value becomes the terminal
// error; nil means io.EOF.
func Generate[T any](ctx context.Context, producer func(ctx context.Context, emit func(T) error) error) *Stream[T] {
	ctx, cancel := context.WithCancel(ctx)
	items := make(chan T)
	result := make(chan error, 1)
	var start sync.Once
	run := func() {
		defer close(items)
		err := producer(ctx, func(v T) error {
			select {
			case items <- v:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		if err == nil {
			err = io.EOF
		}
		result <- err
	}
	next := func(rctx context.Context) (T, error) {
		var zero T
		start.Do(func() { go run() })
		select {
		case v, ok := <-items:
			if ok {
				return v, nil
			}
			return zero, <-result
		case <-rctx.Done():
			return zero, rctx.Err()
		}
	}
	return NewStream(next, cancel)
}

// FromSlice returns a finite Stream over items.
func FromSlice[T any](items ...T) *Stream[T] {
	i := 0
	return NewStream(func(ctx context.Context) (T, error) {
		var zero T
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		if i >= len(items) {
			return zero, io.EOF
		}
		v := items[i]
		i++
		return v, nil
	}, nil)
}

// ErrorStream returns a Stream that fails immediately with err.
func ErrorStream[T any](err error) *Stream[T] {
	return NewStream(func(context.Context) (T, error) {
		var zero T
		return zero, err
	}, nil)
}

// Transform maps each value of s through fn. When fn reports keep == false the
// value is skipped. An error from fn ends the stream with that error.
func Transform[T, U any](s *Stream[T], fn func(T) (u U, keep bool, err error)) *Stream[U] {
	return NewStream(func(ctx context.Context) (U, error) {
		var zero U
		for {
			v, err := s.Recv(ctx)
			if err != nil {
				return zero, err
			}
			u, keep, err := fn(v)
			if err != nil {
				return zero, err
			}
			if keep {
				return u, nil
			}
		}
	}, s.Close)
}

// MapStream maps every value of s through fn.
func MapStream[T, U any](s *Stream[T], fn func(T) (U, error)) *Stream[U] {
	return Transform(s, func(v T) (U, bool, error) {
		u, err := fn(v)
		return u, true, err
	})
}
