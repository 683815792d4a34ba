package wstp

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/graphql"
)

// Transport executes GraphQL operations over graphql-transport-ws. All
// operations share one connection, dialed on first use and redialed after
// it closes.
type Transport struct {
	url  string
	opts *Options

	mu   sync.Mutex
	conn *connection
}

// New returns a transport for the WebSocket endpoint at url.
func New(url string, opts ...Option) *Transport {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Transport{url: url, opts: o}
}

func (t *Transport) connect(ctx context.Context) (*connection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn != nil && !t.conn.closed() {
		return t.conn, nil
	}
	c, err := dial(ctx, t.url, t.opts)
	if err != nil {
		return nil, err
	}
	t.conn = c
	return c, nil
}

// Close closes the shared connection, ending every active operation.
func (t *Transport) Close() error {
	t.mu.Lock()
	c := t.conn
	t.conn = nil
	t.mu.Unlock()
	if c == nil {
		return nil
	}
	return c.close()
}

// Execute runs req and completes with the first next message.
func (t *Transport) Execute(ctx context.Context, req *graphql.Request) *async.Future[*graphql.Response] {
	return async.Go(ctx, nil, func(ctx context.Context) (*graphql.Response, error) {
		s := t.ExecuteSubscription(ctx, req)
		defer s.Close()
		resp, err := s.Recv(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, ErrNoResponse
			}
			return nil, err
		}
		return resp, nil
	})
}

// ExecuteSubscription subscribes with req. Closing the stream sends
// complete to the server.
func (t *Transport) ExecuteSubscription(ctx context.Context, req *graphql.Request) *async.Stream[*graphql.Response] {
	return async.Generate(ctx, func(ctx context.Context, emit func(*graphql.Response) error) error {
		conn, err := t.connect(ctx)
		if err != nil {
			return err
		}
		id := uuid.NewString()
		sub, err := conn.subscribe(id, req)
		if err != nil {
			return err
		}
		defer conn.release(id)
		for {
			m, err := conn.next(ctx, sub)
			if err != nil {
				return err
			}
			switch m.Type {
			case typeNext:
				resp, err := graphql.DecodeResponse(m.Payload)
				if err != nil {
					return err
				}
				if err := emit(resp); err != nil {
					return err
				}
			case typeError:
				em := &ErrorMessage{ID: id}
				if err := graphql.JSON.Unmarshal(m.Payload, &em.Errors); err != nil {
					return err
				}
				return em
			case typeComplete:
				return nil
			}
		}
	})
}
