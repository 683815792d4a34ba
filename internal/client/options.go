package client

import (
	"time"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/document"
)

// Options configures a Client.
//
// Defaults:
// - DocumentSource:  a FileSource over ./graphql-documents
// - Scheduler:       async.Default
// - BlockingTimeout: none
// - Decoder:         MapstructureDecoder

type Options struct {
	DocumentSource document.Source

	// SyncInterceptors apply to clients built with NewSync, Interceptors to
	// clients built with New.
	SyncInterceptors []SyncInterceptor
	Interceptors     []Interceptor

	// Scheduler runs blocking chain calls for the non-blocking API of a
	// NewSync client.
	Scheduler async.Scheduler

	// BlockingTimeout bounds blocking calls on a New client. Zero waits
	// indefinitely.
	BlockingTimeout time.Duration

	Decoder Decoder
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Scheduler: async.Default,
		Decoder:   DefaultDecoder,
	}
}

func WithDocumentSource(s document.Source) Option { return func(o *Options) { o.DocumentSource = s } }
func WithScheduler(s async.Scheduler) Option      { return func(o *Options) { o.Scheduler = s } }
func WithBlockingTimeout(d time.Duration) Option  { return func(o *Options) { o.BlockingTimeout = d } }
func WithDecoder(d Decoder) Option                { return func(o *Options) { o.Decoder = d } }

// WithSyncInterceptors appends blocking interceptors, in request order.
func WithSyncInterceptors(is ...SyncInterceptor) Option {
	return func(o *Options) { o.SyncInterceptors = append(o.SyncInterceptors, is...) }
}

// WithInterceptors appends non-blocking interceptors, in request order.
func WithInterceptors(is ...Interceptor) Option {
	return func(o *Options) { o.Interceptors = append(o.Interceptors, is...) }
}
