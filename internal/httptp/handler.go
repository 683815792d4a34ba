package httptp

import (
	"context"
	"errors"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/hanpama/gqlclient/internal/graphql"
	"github.com/hanpama/gqlclient/internal/reqid"
)

// HandlerOptions configures the serving side of the HTTP transport.
type HandlerOptions struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout. Event streams are never given one.
	Timeout time.Duration

	// Pretty enables indented JSON responses.
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// AllowedOrigins enables CORS for the listed origins; "*" allows any.
	AllowedOrigins []string
}

type HandlerOption func(*HandlerOptions)

func WithTimeout(d time.Duration) HandlerOption { return func(o *HandlerOptions) { o.Timeout = d } }
func WithPretty() HandlerOption                 { return func(o *HandlerOptions) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) HandlerOption    { return func(o *HandlerOptions) { o.MaxBodyBytes = n } }
func WithCORS(origins ...string) HandlerOption {
	return func(o *HandlerOptions) { o.AllowedOrigins = origins }
}

// Handler serves a graphql.Handler over HTTP: GET and POST for single
// responses, JSON arrays for batches, and text/event-stream for
// subscriptions.
type Handler struct {
	h   graphql.Handler
	opt HandlerOptions
}

func NewHandler(h graphql.Handler, opts ...HandlerOption) *Handler {
	op := HandlerOptions{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{h: h, opt: op}
}

const errBodyTooLarge = "body too large"

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, _ := reqid.Ensure(r.Context())
	if len(h.opt.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.AllowedOrigins)
	}
	switch r.Method {
	case http.MethodOptions:
		w.WriteHeader(http.StatusNoContent)
		return
	case http.MethodGet, http.MethodPost:
	default:
		h.writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	reqs, batch, msg := parseRequest(r, h.opt.MaxBodyBytes)
	if msg != "" {
		status := http.StatusBadRequest
		if msg == errBodyTooLarge {
			status = http.StatusRequestEntityTooLarge
		}
		h.writeError(w, r, status, msg)
		return
	}

	if !batch && accepts(r, mediaEventStream) {
		h.serveEvents(ctx, w, reqs[0])
		return
	}

	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}
	out := make([]any, len(reqs))
	for i, req := range reqs {
		out[i] = h.executeOne(ctx, req)
	}
	if batch {
		h.writeJSON(w, r, http.StatusOK, out)
		return
	}
	h.writeJSON(w, r, http.StatusOK, out[0])
}

func (h *Handler) executeOne(ctx context.Context, req *graphql.Request) map[string]any {
	resp, err := h.h.Execute(ctx, req)
	if err != nil {
		return errorBody(err.Error())
	}
	return resp.ToMap()
}

func (h *Handler) serveEvents(ctx context.Context, w http.ResponseWriter, req *graphql.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", mediaEventStream)
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	send := func(resp *graphql.Response) error {
		b, err := graphql.JSON.Marshal(resp.ToMap())
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, "event: next\ndata: "+string(b)+"\n\n"); err != nil {
			return err
		}
		flusher.Flush()
		return nil
	}
	if err := h.h.Subscribe(ctx, req, send); err != nil && ctx.Err() == nil {
		b, _ := graphql.JSON.Marshal(errorBody(err.Error()))
		_, _ = io.WriteString(w, "event: next\ndata: "+string(b)+"\n\n")
	}
	_, _ = io.WriteString(w, "event: complete\ndata:\n\n")
	flusher.Flush()
}

// ------------------ Request parsing ------------------

func parseRequest(r *http.Request, maxBody int64) (reqs []*graphql.Request, batch bool, msg string) {
	if r.Method == http.MethodGet {
		q := r.URL.Query()
		if q.Get("query") == "" {
			return nil, false, "missing 'query'"
		}
		var vars graphql.Values
		if v := q.Get("variables"); v != "" {
			if err := vars.UnmarshalJSON([]byte(v)); err != nil {
				return nil, false, "invalid 'variables' JSON"
			}
		}
		req, err := graphql.NewRequest(q.Get("query"), q.Get("operationName"), vars, graphql.Values{})
		if err != nil {
			return nil, false, err.Error()
		}
		return []*graphql.Request{req}, false, ""
	}

	if ct := r.Header.Get("Content-Type"); ct != "" && mediaType(http.Header{"Content-Type": {ct}}) != mediaJSON {
		return nil, false, "unsupported Content-Type"
	}
	reader := io.Reader(r.Body)
	if maxBody > 0 {
		reader = io.LimitReader(r.Body, maxBody+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, false, "failed to read body"
	}
	if maxBody > 0 && int64(len(body)) > maxBody {
		return nil, false, errBodyTooLarge
	}

	if len(body) > 0 && body[0] == '[' {
		var raws []graphql.Request
		if err := graphql.JSON.Unmarshal(body, &raws); err != nil {
			return nil, false, "invalid JSON"
		}
		if len(raws) == 0 {
			return nil, false, "empty batch"
		}
		for i := range raws {
			reqs = append(reqs, &raws[i])
		}
		return reqs, true, ""
	}
	var req graphql.Request
	if err := req.UnmarshalJSON(body); err != nil {
		if errors.Is(err, graphql.ErrEmptyDocument) {
			return nil, false, "missing 'query'"
		}
		return nil, false, "invalid JSON"
	}
	return []*graphql.Request{&req}, false, ""
}

// ------------------ Response formatting ------------------

func errorBody(message string) map[string]any {
	return map[string]any{"data": nil, "errors": []any{map[string]any{"message": message}}}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.writeJSON(w, r, status, errorBody(message))
}

func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	ct := mediaJSON
	if accepts(r, mediaGraphQLResponse) {
		ct = mediaGraphQLResponse
	}
	w.Header().Set("Content-Type", ct+"; charset=utf-8")
	w.WriteHeader(status)
	var (
		b   []byte
		err error
	)
	if h.opt.Pretty {
		b, err = graphql.JSON.MarshalIndent(v, "", "  ")
	} else {
		b, err = graphql.JSON.Marshal(v)
	}
	if err != nil {
		return
	}
	_, _ = w.Write(append(b, '\n'))
}

func accepts(r *http.Request, media string) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		if p, _, _ := strings.Cut(strings.TrimSpace(part), ";"); p == media {
			return true
		}
	}
	return false
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, origins []string) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	switch {
	case slices.Contains(origins, "*"):
		w.Header().Set("Access-Control-Allow-Origin", "*")
	case slices.Contains(origins, origin):
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	default:
		return
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}
