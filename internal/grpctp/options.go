package grpctp

import (
	"time"

	"google.golang.org/grpc"

	"github.com/hanpama/gqlclient/internal/async"
)

// Options configures the gRPC transport.
//
// Defaults:
// - MaxConnsPerEndpoint: 2
// - RPCTimeout:          3s for Execute when the context has no deadline
// - DialOptions:         insecure credentials
// - Scheduler:           async.Default
//
// Subscriptions are never given a default deadline.

type Options struct {
	Provider EndpointProvider

	MaxConnsPerEndpoint int
	RPCTimeout          time.Duration
	Scheduler           async.Scheduler

	DialOptions []grpc.DialOption
}

type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		MaxConnsPerEndpoint: 2,
		RPCTimeout:          3 * time.Second,
		Scheduler:           async.Default,
	}
}

func WithProvider(p EndpointProvider) Option { return func(o *Options) { o.Provider = p } }
func WithMaxConnsPerEndpoint(n int) Option   { return func(o *Options) { o.MaxConnsPerEndpoint = n } }
func WithRPCTimeout(d time.Duration) Option  { return func(o *Options) { o.RPCTimeout = d } }
func WithScheduler(s async.Scheduler) Option { return func(o *Options) { o.Scheduler = s } }
func WithDialOptions(opts ...grpc.DialOption) Option {
	return func(o *Options) { o.DialOptions = opts }
}
