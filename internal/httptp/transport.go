package httptp

import (
	"bytes"
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
	"github.com/hanpama/gqlclient/internal/graphql"
)

const (
	mediaGraphQLResponse = "application/graphql-response+json"
	mediaJSON            = "application/json"
	mediaEventStream     = "text/event-stream"

	// maxErrorBody bounds the body kept in an HTTPError.
	maxErrorBody = 512
)

// Transport posts GraphQL requests as JSON and blocks for the response.
type Transport struct {
	url  string
	opts *Options
}

// New returns a blocking transport for the endpoint at url.
func New(url string, opts ...Option) *Transport {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Transport{url: url, opts: o}
}

func (t *Transport) newRequest(ctx context.Context, req *graphql.Request, accept string) (*http.Request, error) {
	body, err := req.MarshalJSON()
	if err != nil {
		return nil, err
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	for k, vs := range t.opts.Header {
		hreq.Header[k] = append([]string(nil), vs...)
	}
	hreq.Header.Set("Content-Type", mediaJSON)
	hreq.Header.Set("Accept", accept)
	return hreq, nil
}

func (t *Transport) do(ctx context.Context, hreq *http.Request, stream bool) (*http.Response, error) {
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPClientStart{Method: hreq.Method, URL: t.url, Stream: stream})
	resp, err := t.opts.Client.Do(hreq)
	finish := events.HTTPClientFinish{Method: hreq.Method, URL: t.url, Err: err, Duration: time.Since(start)}
	if resp != nil {
		finish.Status = resp.StatusCode
	}
	eventbus.Publish(ctx, finish)
	return resp, err
}

// Execute sends req and decodes the response. A non-2xx status fails with
// *HTTPError unless the body is a GraphQL response with errors.
func (t *Transport) Execute(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	hreq, err := t.newRequest(ctx, req, mediaGraphQLResponse+", "+mediaJSON)
	if err != nil {
		return nil, err
	}
	resp, err := t.do(ctx, hreq, false)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode/100 != 2 {
		if mediaType(resp.Header) == mediaGraphQLResponse {
			if gr, err := graphql.DecodeResponse(body); err == nil && len(gr.Errors) > 0 {
				return gr, nil
			}
		}
		return nil, httpError(resp, body)
	}
	return graphql.DecodeResponse(body)
}

func mediaType(h http.Header) string {
	mt, _, err := mime.ParseMediaType(h.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return mt
}

func httpError(resp *http.Response, body []byte) *HTTPError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: string(bytes.TrimSpace(body))}
}

// StreamingTransport is a non-blocking HTTP transport. Single responses use
// the blocking transport on a scheduler; subscriptions are read as
// server-sent events ("next" and "complete").
type StreamingTransport struct {
	sync *Transport
}

// NewStreaming returns a non-blocking transport for the endpoint at url.
func NewStreaming(url string, opts ...Option) *StreamingTransport {
	return &StreamingTransport{sync: New(url, opts...)}
}

func (t *StreamingTransport) Execute(ctx context.Context, req *graphql.Request) *async.Future[*graphql.Response] {
	return async.Go(ctx, t.sync.opts.Scheduler, func(ctx context.Context) (*graphql.Response, error) {
		return t.sync.Execute(ctx, req)
	})
}

// ExecuteSubscription opens the event stream when the returned stream is
// first read from and closes it when the stream is closed.
func (t *StreamingTransport) ExecuteSubscription(ctx context.Context, req *graphql.Request) *async.Stream[*graphql.Response] {
	return async.Generate(ctx, func(ctx context.Context, emit func(*graphql.Response) error) error {
		hreq, err := t.sync.newRequest(ctx, req, mediaEventStream)
		if err != nil {
			return err
		}
		hreq.Header.Set("Cache-Control", "no-cache")
		resp, err := t.sync.do(ctx, hreq, true)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode/100 != 2 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
			return httpError(resp, body)
		}
		if mt := mediaType(resp.Header); mt != mediaEventStream {
			return &HTTPError{StatusCode: resp.StatusCode, Status: resp.Status, Body: ErrUnexpectedContentType.Error() + " " + mt}
		}
		return readEvents(resp.Body, t.sync.opts.MaxEventSize, emit)
	})
}
