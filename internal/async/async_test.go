package async

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFutureGoRunsOnScheduler(t *testing.T) {
	release := make(chan struct{})
	f := Go(context.Background(), GoroutineScheduler{}, func(ctx context.Context) (string, error) {
		<-release
		return "done", nil
	})
	// Go returned while the task is still blocked, so it cannot be running
	// on this goroutine.
	select {
	case <-f.Done():
		t.Fatal("future completed before release")
	default:
	}
	close(release)
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "done", v)
}

func TestFutureInlineScheduler(t *testing.T) {
	f := Go(context.Background(), InlineScheduler{}, func(ctx context.Context) (int, error) {
		return 42, nil
	})
	select {
	case <-f.Done():
	default:
		t.Fatal("inline future should be complete on return")
	}
	v, err := f.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestFutureCancel(t *testing.T) {
	started := make(chan struct{})
	f := Go(context.Background(), nil, func(ctx context.Context) (int, error) {
		close(started)
		<-ctx.Done()
		return 0, ctx.Err()
	})
	<-started
	f.Cancel()
	_, err := f.Await(context.Background())
	require.ErrorIs(t, err, context.Canceled)
}

func TestFutureAwaitContext(t *testing.T) {
	release := make(chan struct{})
	defer close(release)
	f := Go(context.Background(), nil, func(ctx context.Context) (int, error) {
		<-release
		return 1, nil
	})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := f.Await(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFuturePanicBecomesError(t *testing.T) {
	f := Go(context.Background(), InlineScheduler{}, func(ctx context.Context) (int, error) {
		panic("boom")
	})
	_, err := f.Await(context.Background())
	require.ErrorContains(t, err, "boom")
}

func TestFutureMapAndRecover(t *testing.T) {
	m := Map(Completed(2), func(v int) (string, error) { return "v" + string(rune('0'+v)), nil })
	v, err := m.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, "v2", v)

	boom := errors.New("boom")
	r := Recover(Failed[int](boom), func(err error) (int, error) {
		require.ErrorIs(t, err, boom)
		return 7, nil
	})
	n, err := r.Await(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, n)

	skipped := Map(Failed[int](boom), func(int) (int, error) {
		t.Fatal("map must not run on failure")
		return 0, nil
	})
	_, err = skipped.Await(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestBoundedSchedulerLimit(t *testing.T) {
	s := NewBoundedScheduler(2)
	var running, peak atomic.Int32
	futures := make([]*Future[int], 6)
	for i := range futures {
		futures[i] = Go(context.Background(), s, func(ctx context.Context) (int, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return 0, nil
		})
	}
	for _, f := range futures {
		_, err := f.Await(context.Background())
		require.NoError(t, err)
	}
	require.LessOrEqual(t, peak.Load(), int32(2))
}

func TestStreamFromSlice(t *testing.T) {
	got, err := FromSlice(1, 2, 3).Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestStreamStickyError(t *testing.T) {
	boom := errors.New("boom")
	s := ErrorStream[int](boom)
	_, err := s.Recv(context.Background())
	require.ErrorIs(t, err, boom)
	_, err = s.Recv(context.Background())
	require.ErrorIs(t, err, boom)
}

func TestGenerateStopsWhenConsumerCloses(t *testing.T) {
	stopped := make(chan struct{})
	s := Generate(context.Background(), func(ctx context.Context, emit func(int) error) error {
		defer close(stopped)
		for i := 0; ; i++ {
			if err := emit(i); err != nil {
				return err
			}
		}
	})
	for i := 0; i < 3; i++ {
		v, err := s.Recv(context.Background())
		require.NoError(t, err)
		require.Equal(t, i, v)
	}
	s.Close()
	<-stopped
	_, err := s.Recv(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestGenerateStartsOnFirstRecv(t *testing.T) {
	var started atomic.Bool
	s := Generate(context.Background(), func(ctx context.Context, emit func(int) error) error {
		started.Store(true)
		return emit(7)
	})
	time.Sleep(50 * time.Millisecond)
	require.False(t, started.Load(), "producer ran before the first Recv")

	v, err := s.Recv(context.Background())
	require.NoError(t, err)
	require.Equal(t, 7, v)
	require.True(t, started.Load())
	_, err = s.Recv(context.Background())
	require.ErrorIs(t, err, io.EOF)
}

func TestGenerateCloseBeforeRecvNeverStarts(t *testing.T) {
	var started atomic.Bool
	s := Generate(context.Background(), func(ctx context.Context, emit func(int) error) error {
		started.Store(true)
		return nil
	})
	s.Close()
	_, err := s.Recv(context.Background())
	require.ErrorIs(t, err, io.EOF)
	require.False(t, started.Load())
}

func TestGenerateTerminalError(t *testing.T) {
	boom := errors.New("boom")
	s := Generate(context.Background(), func(ctx context.Context, emit func(string) error) error {
		if err := emit("a"); err != nil {
			return err
		}
		return boom
	})
	got, err := s.Collect(context.Background())
	require.ErrorIs(t, err, boom)
	require.Equal(t, []string{"a"}, got)
}

func TestTransformSkipsAndMaps(t *testing.T) {
	s := Transform(FromSlice(1, 2, 3, 4), func(v int) (int, bool, error) {
		return v * 10, v%2 == 0, nil
	})
	got, err := s.Collect(context.Background())
	require.NoError(t, err)
	require.Equal(t, []int{20, 40}, got)
}

func TestAllBreakClosesStream(t *testing.T) {
	closed := false
	s := NewStream(func(ctx context.Context) (int, error) { return 1, nil }, func() { closed = true })
	for v, err := range s.All(context.Background()) {
		require.NoError(t, err)
		require.Equal(t, 1, v)
		break
	}
	require.True(t, closed)
}
