package events

import "time"

// HTTPClientStart is emitted before an HTTP transport sends a request.
type HTTPClientStart struct {
	Method string
	URL    string
	Stream bool
}

// HTTPClientFinish is emitted after the response headers arrive or the
// round trip fails.
type HTTPClientFinish struct {
	Method   string
	URL      string
	Status   int
	Err      error
	Duration time.Duration
}

// WebSocketConnect is emitted after a graphql-transport-ws handshake.
type WebSocketConnect struct {
	URL      string
	Err      error
	Duration time.Duration
}

// WebSocketClose is emitted when a shared WebSocket connection goes away.
type WebSocketClose struct {
	URL string
	Err error
}
