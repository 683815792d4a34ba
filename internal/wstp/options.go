package wstp

import (
	"net/http"
	"time"
)

// Options configures the WebSocket transport.
//
// Defaults:
// - AckTimeout:   10s
// - WriteTimeout: 5s
// - ReadLimit:    1 MiB per message
// - MaxPending:   1024 unread messages per operation

type Options struct {
	HTTPClient  *http.Client
	Header      http.Header
	InitPayload map[string]any

	AckTimeout   time.Duration
	WriteTimeout time.Duration
	ReadLimit    int64
	MaxPending   int
}

// Option mutates Options.
type Option func(*Options)

func defaultOptions() *Options {
	return &Options{
		Header:       http.Header{},
		AckTimeout:   10 * time.Second,
		WriteTimeout: 5 * time.Second,
		ReadLimit:    1 << 20,
		MaxPending:   1024,
	}
}

func WithHTTPClient(c *http.Client) Option { return func(o *Options) { o.HTTPClient = c } }
func WithHeader(key, value string) Option  { return func(o *Options) { o.Header.Add(key, value) } }
func WithHeaders(h http.Header) Option {
	return func(o *Options) {
		for k, vs := range h {
			for _, v := range vs {
				o.Header.Add(k, v)
			}
		}
	}
}
func WithInitPayload(p map[string]any) Option { return func(o *Options) { o.InitPayload = p } }
func WithAckTimeout(d time.Duration) Option   { return func(o *Options) { o.AckTimeout = d } }
func WithWriteTimeout(d time.Duration) Option { return func(o *Options) { o.WriteTimeout = d } }
func WithReadLimit(n int64) Option            { return func(o *Options) { o.ReadLimit = n } }

// WithMaxPending bounds the messages buffered for one operation whose
// consumer is not reading. Past the bound the operation fails with
// ErrSlowConsumer and the server is sent complete.
func WithMaxPending(n int) Option { return func(o *Options) { o.MaxPending = n } }
