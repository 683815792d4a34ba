package async

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Scheduler runs tasks on a scheduling context chosen by the implementation.
// Implementations must eventually run every task they accept.
type Scheduler interface {
	Go(task func())
}

// GoroutineScheduler starts one goroutine per task.
type GoroutineScheduler struct{}

func (GoroutineScheduler) Go(task func()) { go task() }

// InlineScheduler runs tasks on the calling goroutine. Useful in tests that
// need deterministic ordering.
type InlineScheduler struct{}

func (InlineScheduler) Go(task func()) { task() }

// BoundedScheduler runs tasks on their own goroutines but admits at most n of
// them at a time. Tasks beyond the limit wait for a free slot.
type BoundedScheduler struct {
	sem *semaphore.Weighted
}

func NewBoundedScheduler(n int64) *BoundedScheduler {
	if n <= 0 {
		n = 1
	}
	return &BoundedScheduler{sem: semaphore.NewWeighted(n)}
}

func (s *BoundedScheduler) Go(task func()) {
	go func() {
		// Acquire with a background context never fails.
		_ = s.sem.Acquire(context.Background(), 1)
		defer s.sem.Release(1)
		task()
	}()
}

// Default is the scheduler used when none is configured.
var Default Scheduler = GoroutineScheduler{}
