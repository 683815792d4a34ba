package wstp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/hanpama/gqlclient/internal/graphql"
	"github.com/hanpama/gqlclient/internal/reqid"
)

// Handler serves a graphql.Handler over graphql-transport-ws.
type Handler struct {
	h              graphql.Handler
	initTimeout    time.Duration
	originPatterns []string
	onInit         func(ctx context.Context, payload map[string]any) error
}

type HandlerOption func(*Handler)

// WithInitTimeout bounds the wait for connection_init. Default 10s.
func WithInitTimeout(d time.Duration) HandlerOption {
	return func(h *Handler) { h.initTimeout = d }
}

// WithOriginPatterns allows cross origin connections from matching hosts.
func WithOriginPatterns(patterns ...string) HandlerOption {
	return func(h *Handler) { h.originPatterns = patterns }
}

// WithOnInit inspects the connection_init payload. An error closes the
// connection with 4403.
func WithOnInit(fn func(ctx context.Context, payload map[string]any) error) HandlerOption {
	return func(h *Handler) { h.onInit = fn }
}

func NewHandler(h graphql.Handler, opts ...HandlerOption) *Handler {
	s := &Handler{h: h, initTimeout: 10 * time.Second}
	for _, o := range opts {
		o(s)
	}
	return s
}

const (
	closeUnauthorized websocket.StatusCode = 4401
	closeForbidden    websocket.StatusCode = 4403
	closeInitTimeout  websocket.StatusCode = 4408
	closeDuplicateID  websocket.StatusCode = 4409
	closeBadMessage   websocket.StatusCode = 4400
	closeTooManyInits websocket.StatusCode = 4429
)

type serverConn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex

	mu  sync.Mutex
	ops map[string]context.CancelFunc
	wg  sync.WaitGroup
}

func (c *serverConn) send(ctx context.Context, id, typ string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return write(ctx, c.ws, id, typ, payload)
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		return
	}
	defer ws.CloseNow()
	if ws.Subprotocol() != Subprotocol {
		ws.Close(websocket.StatusPolicyViolation, "unsupported subprotocol")
		return
	}
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if !h.init(ctx, ws) {
		return
	}
	c := &serverConn{ws: ws, ops: make(map[string]context.CancelFunc)}
	defer func() {
		cancel()
		c.wg.Wait()
	}()

	for {
		m, err := read(ctx, ws)
		if err != nil {
			return
		}
		switch m.Type {
		case typePing:
			_ = c.send(ctx, "", typePong, nil)
		case typePong:
		case typeConnectionInit:
			ws.Close(closeTooManyInits, "too many initialisation requests")
			return
		case typeSubscribe:
			var req graphql.Request
			if err := req.UnmarshalJSON(m.Payload); err != nil || m.ID == "" {
				ws.Close(closeBadMessage, "invalid subscribe message")
				return
			}
			if !c.start(ctx, h.h, m.ID, &req) {
				ws.Close(closeDuplicateID, "subscriber for "+m.ID+" already exists")
				return
			}
		case typeComplete:
			c.stop(m.ID)
		default:
			ws.Close(closeBadMessage, "unexpected message "+m.Type)
			return
		}
	}
}

func (h *Handler) init(ctx context.Context, ws *websocket.Conn) bool {
	initCtx, cancel := context.WithTimeout(ctx, h.initTimeout)
	defer cancel()
	var m struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	if err := wsjson.Read(initCtx, ws, &m); err != nil {
		if errors.Is(initCtx.Err(), context.DeadlineExceeded) {
			ws.Close(closeInitTimeout, "connection initialisation timeout")
		}
		return false
	}
	if m.Type != typeConnectionInit {
		ws.Close(closeUnauthorized, "unauthorized")
		return false
	}
	if h.onInit != nil {
		if err := h.onInit(ctx, m.Payload); err != nil {
			ws.Close(closeForbidden, "forbidden")
			return false
		}
	}
	return write(ctx, ws, "", typeConnectionAck, nil) == nil
}

// start runs one operation; it reports false when id is already active.
func (c *serverConn) start(ctx context.Context, h graphql.Handler, id string, req *graphql.Request) bool {
	c.mu.Lock()
	if _, ok := c.ops[id]; ok {
		c.mu.Unlock()
		return false
	}
	opCtx, cancel := context.WithCancel(ctx)
	c.ops[id] = cancel
	c.mu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer c.stop(id)
		opCtx, _ = reqid.Ensure(opCtx)
		err := h.Subscribe(opCtx, req, func(resp *graphql.Response) error {
			if err := opCtx.Err(); err != nil {
				return err
			}
			return c.send(opCtx, id, typeNext, resp.ToMap())
		})
		if opCtx.Err() != nil {
			return
		}
		if err != nil {
			_ = c.send(ctx, id, typeError, []map[string]any{{"message": err.Error()}})
			return
		}
		_ = c.send(ctx, id, typeComplete, nil)
	}()
	return true
}

func (c *serverConn) stop(id string) {
	c.mu.Lock()
	cancel, ok := c.ops[id]
	delete(c.ops, id)
	c.mu.Unlock()
	if ok {
		cancel()
	}
}
