package client

import (
	"context"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/graphql"
)

// SyncTransport executes requests with blocking I/O.
type SyncTransport interface {
	Execute(ctx context.Context, req *graphql.Request) (*graphql.Response, error)
}

// Transport executes requests without blocking the caller.
type Transport interface {
	Execute(ctx context.Context, req *graphql.Request) *async.Future[*graphql.Response]
	ExecuteSubscription(ctx context.Context, req *graphql.Request) *async.Stream[*graphql.Response]
}

// SyncTransportFunc adapts a function to SyncTransport.
type SyncTransportFunc func(ctx context.Context, req *graphql.Request) (*graphql.Response, error)

func (f SyncTransportFunc) Execute(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	return f(ctx, req)
}
