package events

import "time"

// Execution modes reported by client events.
const (
	ModeSync         = "sync"
	ModeAsync        = "async"
	ModeSubscription = "subscription"
)

// ClientRequestStart is emitted when a built request enters the interceptor
// chain.
type ClientRequestStart struct {
	Document      string
	OperationName string
	OperationType string
	Mode          string
}

// ClientRequestFinish is emitted once the caller has a response, or when a
// subscription ends.
type ClientRequestFinish struct {
	OperationName string
	OperationType string
	Mode          string
	ErrorCount    int
	Err           error
	Duration      time.Duration
}

// SubscriptionItem is emitted for every response received on a subscription.
type SubscriptionItem struct {
	OperationName string
	Index         int
	ErrorCount    int
}

// TransportStart is emitted by the terminal chain step before the transport
// is called.
type TransportStart struct {
	OperationName string
	Mode          string
}

// TransportFinish is emitted after the transport produced a response or failed.
type TransportFinish struct {
	OperationName string
	Mode          string
	Err           error
	Duration      time.Duration
}
