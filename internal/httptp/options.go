package httptp

import (
	"net/http"

	"github.com/hanpama/gqlclient/internal/async"
)

// Options configures the HTTP transports.
//
// Defaults:
// - Client:       http.DefaultClient
// - Scheduler:    async.Default (StreamingTransport single responses)
// - MaxEventSize: 1 MiB per SSE event

type Options struct {
	Client       *http.Client
	Header       http.Header
	Scheduler    async.Scheduler
	MaxEventSize int
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Client:       http.DefaultClient,
		Header:       http.Header{},
		Scheduler:    async.Default,
		MaxEventSize: 1 << 20,
	}
}

func WithHTTPClient(c *http.Client) Option   { return func(o *Options) { o.Client = c } }
func WithScheduler(s async.Scheduler) Option { return func(o *Options) { o.Scheduler = s } }
func WithMaxEventSize(n int) Option          { return func(o *Options) { o.MaxEventSize = n } }
func WithHeader(key, value string) Option    { return func(o *Options) { o.Header.Add(key, value) } }
func WithHeaders(h http.Header) Option {
	return func(o *Options) {
		for k, vs := range h {
			for _, v := range vs {
				o.Header.Add(k, v)
			}
		}
	}
}
