package wstp

import (
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/gqlclient/internal/graphql"
)

func serveHandler(t *testing.T, h graphql.Handler, opts ...HandlerOption) string {
	t.Helper()
	srv := httptest.NewServer(NewHandler(h, opts...))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func ticker(canceled chan<- struct{}) graphql.HandlerFuncs {
	return graphql.HandlerFuncs{
		ExecuteFunc: func(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
			if strings.Contains(req.Document(), "boom") {
				return nil, errors.New("boom")
			}
			return &graphql.Response{Data: map[string]any{"hello": "world"}}, nil
		},
		SubscribeFunc: func(ctx context.Context, req *graphql.Request, send func(*graphql.Response) error) error {
			n := 3
			if strings.Contains(req.Document(), "forever") {
				n = -1
			}
			for i := 0; n < 0 || i < n; i++ {
				if err := send(&graphql.Response{Data: map[string]any{"tick": i}}); err != nil {
					if canceled != nil {
						close(canceled)
					}
					return err
				}
				if n < 0 {
					select {
					case <-ctx.Done():
						if canceled != nil {
							close(canceled)
						}
						return ctx.Err()
					case <-time.After(5 * time.Millisecond):
					}
				}
			}
			return nil
		},
	}
}

func TestHandlerRoundTrip(t *testing.T) {
	url := serveHandler(t, ticker(nil))
	tp := New(url)
	defer tp.Close()

	items, err := tp.ExecuteSubscription(context.Background(), request(t, "subscription { tick }")).Collect(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)
}

func TestHandlerExecuteFallsBackToSingleResponse(t *testing.T) {
	h := ticker(nil)
	h.SubscribeFunc = nil
	tp := New(serveHandler(t, h))
	defer tp.Close()

	resp, err := tp.Execute(context.Background(), request(t, "{ hello }")).Await(context.Background())
	require.NoError(t, err)
	f, err := resp.Field("hello")
	require.NoError(t, err)
	require.Equal(t, "world", f.Value)

	_, err = tp.Execute(context.Background(), request(t, "{ boom }")).Await(context.Background())
	var em *ErrorMessage
	require.ErrorAs(t, err, &em)
	require.Equal(t, "boom", em.Errors[0].Message)
}

func TestHandlerStopsOperationOnComplete(t *testing.T) {
	canceled := make(chan struct{})
	tp := New(serveHandler(t, ticker(canceled)))
	defer tp.Close()

	s := tp.ExecuteSubscription(context.Background(), request(t, "subscription { forever }"))
	_, err := s.Recv(context.Background())
	require.NoError(t, err)
	s.Close()

	select {
	case <-canceled:
	case <-time.After(5 * time.Second):
		t.Fatal("operation kept running after complete")
	}
}

func TestHandlerRejectsInit(t *testing.T) {
	url := serveHandler(t, ticker(nil), WithOnInit(func(_ context.Context, payload map[string]any) error {
		if payload["token"] != "secret" {
			return errors.New("bad token")
		}
		return nil
	}))

	_, err := New(url).Execute(context.Background(), request(t, "{ hello }")).Await(context.Background())
	require.Error(t, err)

	tp := New(url, WithInitPayload(map[string]any{"token": "secret"}))
	defer tp.Close()
	_, err = tp.Execute(context.Background(), request(t, "{ hello }")).Await(context.Background())
	require.NoError(t, err)
}
