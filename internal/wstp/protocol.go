package wstp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/vektah/gqlparser/v2/gqlerror"
)

// Subprotocol is the negotiated WebSocket subprotocol.
const Subprotocol = "graphql-transport-ws"

const (
	typeConnectionInit = "connection_init"
	typeConnectionAck  = "connection_ack"
	typePing           = "ping"
	typePong           = "pong"
	typeSubscribe      = "subscribe"
	typeNext           = "next"
	typeError          = "error"
	typeComplete       = "complete"
)

var (
	// ErrAckTimeout is returned when the server does not acknowledge
	// connection_init in time.
	ErrAckTimeout = errors.New("wstp: connection_ack timeout")
	// ErrConnectionClosed is returned to subscriptions of a closed connection.
	ErrConnectionClosed = errors.New("wstp: connection closed")
	// ErrNoResponse is returned when a single response operation completes
	// without a next message.
	ErrNoResponse = errors.New("wstp: operation completed without a response")

	// ErrSlowConsumer ends an operation whose consumer fell MaxPending
	// messages behind.
	ErrSlowConsumer = errors.New("wstp: operation consumer fell behind")
)

// ErrorMessage is an error message sent by the server for one operation.
type ErrorMessage struct {
	ID     string
	Errors gqlerror.List
}

func (e *ErrorMessage) Error() string {
	return fmt.Sprintf("wstp: operation %s failed: %v", e.ID, e.Errors)
}

// Message is one graphql-transport-ws message.
type Message struct {
	ID      string          `json:"id,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type outgoing struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

func write(ctx context.Context, conn *websocket.Conn, id, typ string, payload any) error {
	return wsjson.Write(ctx, conn, outgoing{ID: id, Type: typ, Payload: payload})
}

func read(ctx context.Context, conn *websocket.Conn) (*Message, error) {
	var m Message
	if err := wsjson.Read(ctx, conn, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// handshake sends connection_init and waits for connection_ack, answering
// pings in between.
func handshake(ctx context.Context, conn *websocket.Conn, payload map[string]any) error {
	if err := write(ctx, conn, "", typeConnectionInit, payload); err != nil {
		return fmt.Errorf("wstp: write connection_init: %w", err)
	}
	for {
		m, err := read(ctx, conn)
		if err != nil {
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return ErrAckTimeout
			}
			return fmt.Errorf("wstp: read connection_ack: %w", err)
		}
		switch m.Type {
		case typeConnectionAck:
			return nil
		case typePing:
			if err := write(ctx, conn, "", typePong, nil); err != nil {
				return err
			}
		default:
			return fmt.Errorf("wstp: expected connection_ack, got %q", m.Type)
		}
	}
}
