package wstp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/hanpama/gqlclient/internal/eventbus"
	"github.com/hanpama/gqlclient/internal/events"
)

// subscription queues the messages of one operation. The read loop never
// waits on a consumer; an operation that falls too far behind is failed.
type subscription struct {
	mu     sync.Mutex
	queue  []*Message
	err    error
	notify chan struct{}
}

func newSubscription() *subscription {
	return &subscription{notify: make(chan struct{}, 1)}
}

// push queues m and reports false when the queue is already at limit or
// the operation has failed.
func (s *subscription) push(m *Message, limit int) bool {
	s.mu.Lock()
	if s.err != nil {
		s.mu.Unlock()
		return false
	}
	if limit > 0 && len(s.queue) >= limit {
		s.err = ErrSlowConsumer
		s.mu.Unlock()
		s.wake()
		return false
	}
	s.queue = append(s.queue, m)
	s.mu.Unlock()
	s.wake()
	return true
}

func (s *subscription) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// pop returns the oldest queued message, or the failure once the queue is
// empty.
func (s *subscription) pop() (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) > 0 {
		m := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		return m, nil
	}
	return nil, s.err
}

// connection multiplexes operations over one WebSocket.
type connection struct {
	url  string
	ws   *websocket.Conn
	opts *Options

	ctx    context.Context
	cancel context.CancelFunc

	writeMu sync.Mutex

	mu   sync.Mutex
	subs map[string]*subscription

	once sync.Once
	err  error
	done chan struct{}
}

func dial(ctx context.Context, url string, opts *Options) (*connection, error) {
	start := time.Now()
	ws, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		HTTPClient:   opts.HTTPClient,
		HTTPHeader:   opts.Header,
		Subprotocols: []string{Subprotocol},
	})
	if err == nil {
		ws.SetReadLimit(opts.ReadLimit)
		ackCtx, cancel := context.WithTimeout(ctx, opts.AckTimeout)
		err = handshake(ackCtx, ws, opts.InitPayload)
		cancel()
		if err != nil {
			ws.Close(websocket.StatusProtocolError, "handshake failed")
		}
	}
	eventbus.Publish(ctx, events.WebSocketConnect{URL: url, Err: err, Duration: time.Since(start)})
	if err != nil {
		return nil, err
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &connection{
		url:    url,
		ws:     ws,
		opts:   opts,
		ctx:    cctx,
		cancel: cancel,
		subs:   make(map[string]*subscription),
		done:   make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *connection) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *connection) write(id, typ string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if c.closed() {
		return ErrConnectionClosed
	}
	ctx, cancel := context.WithTimeout(c.ctx, c.opts.WriteTimeout)
	defer cancel()
	return write(ctx, c.ws, id, typ, payload)
}

func (c *connection) subscribe(id string, payload any) (*subscription, error) {
	sub := newSubscription()
	c.mu.Lock()
	if _, ok := c.subs[id]; ok {
		c.mu.Unlock()
		return nil, fmt.Errorf("wstp: duplicate operation id %s", id)
	}
	c.subs[id] = sub
	c.mu.Unlock()

	if err := c.write(id, typeSubscribe, payload); err != nil {
		c.remove(id)
		return nil, err
	}
	return sub, nil
}

// remove drops the operation and reports whether it was still active.
func (c *connection) remove(id string) bool {
	c.mu.Lock()
	_, ok := c.subs[id]
	delete(c.subs, id)
	c.mu.Unlock()
	return ok
}

// release stops an operation from the client side.
func (c *connection) release(id string) {
	if c.remove(id) {
		_ = c.write(id, typeComplete, nil)
	}
}

func (c *connection) readLoop() {
	for {
		m, err := read(c.ctx, c.ws)
		if err != nil {
			c.shutdown(fmt.Errorf("%w: %v", ErrConnectionClosed, err))
			return
		}
		switch m.Type {
		case typePing:
			_ = c.write("", typePong, nil)
		case typePong:
		case typeNext, typeError, typeComplete:
			c.dispatch(m)
		}
	}
}

func (c *connection) dispatch(m *Message) {
	c.mu.Lock()
	sub, ok := c.subs[m.ID]
	c.mu.Unlock()
	if !ok {
		return
	}
	if !sub.push(m, c.opts.MaxPending) {
		go c.release(m.ID)
		return
	}
	if m.Type != typeNext {
		c.remove(m.ID)
	}
}

// next waits for the next message of sub. Messages read before the
// connection dropped are delivered before the connection error.
func (c *connection) next(ctx context.Context, sub *subscription) (*Message, error) {
	for {
		m, err := sub.pop()
		if m != nil || err != nil {
			return m, err
		}
		select {
		case <-sub.notify:
		case <-c.done:
			if m, err := sub.pop(); m != nil || err != nil {
				return m, err
			}
			return nil, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (c *connection) shutdown(err error) {
	c.once.Do(func() {
		c.err = err
		close(c.done)
		c.cancel()
		c.ws.Close(websocket.StatusNormalClosure, "")
		eventbus.Publish(context.Background(), events.WebSocketClose{URL: c.url, Err: err})
	})
}

func (c *connection) close() error {
	c.shutdown(ErrConnectionClosed)
	if errors.Is(c.err, ErrConnectionClosed) {
		return nil
	}
	return c.err
}
