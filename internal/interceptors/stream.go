package interceptors

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/client"
)

// observeStream reports every item of s to onItem and the end of s to onEnd
// exactly once. A consumer close counts as a normal end.
func observeStream(s *async.Stream[*client.Response], onItem func(*client.Response), onEnd func(error)) *async.Stream[*client.Response] {
	var once sync.Once
	end := func(err error) { once.Do(func() { onEnd(err) }) }
	return async.NewStream(func(ctx context.Context) (*client.Response, error) {
		resp, err := s.Recv(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				end(nil)
			} else {
				end(err)
			}
			return nil, err
		}
		if onItem != nil {
			onItem(resp)
		}
		return resp, nil
	}, func() {
		s.Close()
		end(nil)
	})
}

// pipe forwards s to emit until it ends.
func pipe(ctx context.Context, s *async.Stream[*client.Response], emit func(*client.Response) error) error {
	defer s.Close()
	for {
		resp, err := s.Recv(ctx)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := emit(resp); err != nil {
			return err
		}
	}
}

func errorCount(resp *client.Response) int {
	if resp == nil || resp.Response == nil {
		return 0
	}
	return len(resp.Errors)
}
