package grpctp

import (
	"context"
	"sync"
	"sync/atomic"

	"google.golang.org/grpc"
)

// connPool keeps up to MaxConnsPerEndpoint idle connections to one endpoint.
type connPool struct {
	endpoint string
	opts     *Options

	mu     sync.Mutex
	conns  chan *grpc.ClientConn
	closed atomic.Bool
}

func newConnPool(endpoint string, opts *Options) *connPool {
	n := opts.MaxConnsPerEndpoint
	if n <= 0 {
		n = 2
	}
	return &connPool{
		endpoint: endpoint,
		opts:     opts,
		conns:    make(chan *grpc.ClientConn, n),
	}
}

func (p *connPool) get(ctx context.Context) (*grpc.ClientConn, error) {
	if p.closed.Load() {
		return nil, ErrClosed
	}
	select {
	case cc, ok := <-p.conns:
		if ok {
			return cc, nil
		}
		return nil, ErrClosed
	default:
		//nolint:staticcheck // DialContext keeps passthrough target resolution
		return grpc.DialContext(ctx, p.endpoint, p.opts.DialOptions...)
	}
}

func (p *connPool) put(cc *grpc.ClientConn) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Load() {
		_ = cc.Close()
		return
	}
	select {
	case p.conns <- cc:
	default:
		_ = cc.Close()
	}
}

func (p *connPool) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed.Swap(true) {
		return
	}
	close(p.conns)
	for cc := range p.conns {
		_ = cc.Close()
	}
}
