package grpctp

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/backoff"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/graphql"
	"github.com/hanpama/gqlclient/internal/reqid"
)

// Transport executes GraphQL requests against the graphql.GraphQL gRPC
// service with per-endpoint connection pooling and deadline propagation.
type Transport struct {
	opts *Options

	mu     sync.RWMutex
	pools  map[string]*connPool
	closed atomic.Bool
}

func New(opts ...Option) *Transport {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	if len(o.DialOptions) == 0 {
		o.DialOptions = []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
			grpc.WithConnectParams(grpc.ConnectParams{Backoff: backoff.DefaultConfig}),
		}
	}
	if o.Scheduler == nil {
		o.Scheduler = async.Default
	}
	return &Transport{
		opts:  o,
		pools: make(map[string]*connPool),
	}
}

// Execute calls the unary Execute method on the scheduler.
func (t *Transport) Execute(ctx context.Context, req *graphql.Request) *async.Future[*graphql.Response] {
	return async.Go(ctx, t.opts.Scheduler, func(ctx context.Context) (*graphql.Response, error) {
		return t.ExecuteSync(ctx, req)
	})
}

// ExecuteSync calls the unary Execute method and blocks for the result.
func (t *Transport) ExecuteSync(ctx context.Context, req *graphql.Request) (resp *graphql.Response, err error) {
	if _, ok := ctx.Deadline(); !ok && t.opts.RPCTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.opts.RPCTimeout)
		defer cancel()
	}
	in, err := encodeRequest(req)
	if err != nil {
		return nil, err
	}
	endpoint, cc, err := t.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer t.returnConn(endpoint, cc)

	finish := t.observe(ctx, "Execute", endpoint)
	out := &structpb.Struct{}
	err = cc.Invoke(outgoing(ctx), executeMethod, in, out)
	finish(err)
	if err != nil {
		return nil, err
	}
	return decodeResponse(out)
}

// ExecuteSubscription opens the server-streaming Subscribe method. Closing
// the stream cancels the call.
func (t *Transport) ExecuteSubscription(ctx context.Context, req *graphql.Request) *async.Stream[*graphql.Response] {
	return async.Generate(ctx, func(ctx context.Context, emit func(*graphql.Response) error) (err error) {
		in, err := encodeRequest(req)
		if err != nil {
			return err
		}
		endpoint, cc, err := t.acquire(ctx)
		if err != nil {
			return err
		}
		defer t.returnConn(endpoint, cc)

		finish := t.observe(ctx, "Subscribe", endpoint)
		defer func() { finish(err) }()

		stream, err := cc.NewStream(outgoing(ctx), &subscribeStream, subscribeMethod)
		if err != nil {
			return err
		}
		if err := stream.SendMsg(in); err != nil {
			return err
		}
		if err := stream.CloseSend(); err != nil {
			return err
		}
		for {
			out := &structpb.Struct{}
			if err := stream.RecvMsg(out); err != nil {
				if errors.Is(err, io.EOF) {
					return nil
				}
				return err
			}
			resp, err := decodeResponse(out)
			if err != nil {
				return err
			}
			if err := emit(resp); err != nil {
				return err
			}
		}
	})
}

func (t *Transport) Close() error {
	if t.closed.Swap(true) {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, p := range t.pools {
		p.close()
	}
	t.pools = map[string]*connPool{}
	return nil
}

func (t *Transport) observe(ctx context.Context, method, endpoint string) func(error) {
	start := time.Now()
	eventbus.Publish(ctx, events.GRPCClientStart{Service: ServiceName, Method: method, Target: endpoint})
	return func(err error) {
		eventbus.Publish(ctx, events.GRPCClientFinish{
			Service:  ServiceName,
			Method:   method,
			Target:   endpoint,
			Code:     status.Code(err),
			Err:      err,
			Duration: time.Since(start),
		})
	}
}

func outgoing(ctx context.Context) context.Context {
	if id, ok := reqid.FromContext(ctx); ok {
		return metadata.AppendToOutgoingContext(ctx, requestIDMetadata, strconv.FormatInt(id, 10))
	}
	return ctx
}

// acquire picks a random endpoint from the provider and takes a connection
// from its pool.
func (t *Transport) acquire(ctx context.Context) (string, *grpc.ClientConn, error) {
	if t.closed.Load() {
		return "", nil, ErrClosed
	}
	if t.opts.Provider == nil {
		return "", nil, ErrNoProvider
	}
	endpoints, err := t.opts.Provider.Endpoints(ctx, ServiceName)
	if err != nil {
		return "", nil, err
	}
	if len(endpoints) == 0 {
		return "", nil, ErrNoEndpoints
	}
	endpoint := endpoints[rand.IntN(len(endpoints))]
	cc, err := t.pool(endpoint).get(ctx)
	if err != nil {
		return "", nil, err
	}
	return endpoint, cc, nil
}

func (t *Transport) pool(endpoint string) *connPool {
	t.mu.RLock()
	p := t.pools[endpoint]
	t.mu.RUnlock()
	if p != nil {
		return p
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if p = t.pools[endpoint]; p == nil {
		p = newConnPool(endpoint, t.opts)
		t.pools[endpoint] = p
	}
	return p
}

func (t *Transport) returnConn(endpoint string, cc *grpc.ClientConn) {
	t.mu.RLock()
	p := t.pools[endpoint]
	t.mu.RUnlock()
	if p != nil {
		p.put(cc)
		return
	}
	_ = cc.Close()
}
