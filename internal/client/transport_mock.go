package client

import (
	"context"
	"errors"
	"sync"

	"github.com/hanpama/gqlclient/internal/async"
	"github.com/hanpama/gqlclient/internal/graphql"
)

// ErrMockExhausted is returned once a mock transport ran out of responses.
var ErrMockExhausted = errors.New("mock transport: no more responses")

// mockQueue hands out pre-seeded responses in order and records requests.
type mockQueue struct {
	mu        sync.Mutex
	responses []*graphql.Response
	errs      []error
	idx       int
	requests  []*graphql.Request
}

func (m *mockQueue) next(req *graphql.Request) (*graphql.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	if m.idx >= len(m.responses) && m.idx >= len(m.errs) {
		return nil, ErrMockExhausted
	}
	i := m.idx
	m.idx++
	// Error has precedence if provided for this index
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.responses) {
		return m.responses[i], nil
	}
	return nil, ErrMockExhausted
}

// Requests returns the requests received so far.
func (m *mockQueue) Requests() []*graphql.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*graphql.Request(nil), m.requests...)
}

// MockSyncTransport implements SyncTransport with pre-seeded responses.
type MockSyncTransport struct {
	mockQueue
}

// NewMockSyncTransport returns the provided responses in order for
// successive Execute calls.
func NewMockSyncTransport(responses ...*graphql.Response) *MockSyncTransport {
	return &MockSyncTransport{mockQueue{responses: responses}}
}

// NewMockSyncTransportWithErrors seeds per-call errors alongside responses.
// For call i, a non-nil errs[i] is returned instead of responses[i].
func NewMockSyncTransportWithErrors(responses []*graphql.Response, errs []error) *MockSyncTransport {
	return &MockSyncTransport{mockQueue{responses: responses, errs: errs}}
}

func (m *MockSyncTransport) Execute(ctx context.Context, req *graphql.Request) (*graphql.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return m.next(req)
}

// MockTransport implements Transport with pre-seeded responses and
// subscriptions.
type MockTransport struct {
	mockQueue

	subMu         sync.Mutex
	subscriptions []mockSubscription
}

type mockSubscription struct {
	responses []*graphql.Response
	err       error
}

// NewMockTransport returns the provided responses in order for successive
// Execute calls.
func NewMockTransport(responses ...*graphql.Response) *MockTransport {
	return &MockTransport{mockQueue: mockQueue{responses: responses}}
}

// NewMockTransportWithErrors seeds per-call errors alongside responses.
func NewMockTransportWithErrors(responses []*graphql.Response, errs []error) *MockTransport {
	return &MockTransport{mockQueue: mockQueue{responses: responses, errs: errs}}
}

// AddSubscription queues the responses for the next ExecuteSubscription
// call. A non-nil err terminates the stream after the responses.
func (m *MockTransport) AddSubscription(err error, responses ...*graphql.Response) *MockTransport {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subscriptions = append(m.subscriptions, mockSubscription{responses: responses, err: err})
	return m
}

func (m *MockTransport) Execute(ctx context.Context, req *graphql.Request) *async.Future[*graphql.Response] {
	resp, err := m.next(req)
	if err != nil {
		return async.Failed[*graphql.Response](err)
	}
	return async.Completed(resp)
}

func (m *MockTransport) ExecuteSubscription(ctx context.Context, req *graphql.Request) *async.Stream[*graphql.Response] {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	m.subMu.Lock()
	defer m.subMu.Unlock()
	if len(m.subscriptions) == 0 {
		return async.ErrorStream[*graphql.Response](ErrMockExhausted)
	}
	sub := m.subscriptions[0]
	m.subscriptions = m.subscriptions[1:]
	return async.Generate(ctx, func(ctx context.Context, emit func(*graphql.Response) error) error {
		for _, r := range sub.responses {
			if err := emit(r); err != nil {
				return err
			}
		}
		return sub.err
	})
}
