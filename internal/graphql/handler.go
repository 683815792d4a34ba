package graphql

import "context"

// Handler answers GraphQL requests on the serving side of a transport.
type Handler interface {
	Execute(ctx context.Context, req *Request) (*Response, error)
	// Subscribe calls send for each response until the subscription ends or
	// send fails.
	Subscribe(ctx context.Context, req *Request, send func(*Response) error) error
}

// HandlerFuncs adapts functions to Handler. A nil SubscribeFunc serves
// subscriptions as a single Execute response.
type HandlerFuncs struct {
	ExecuteFunc   func(ctx context.Context, req *Request) (*Response, error)
	SubscribeFunc func(ctx context.Context, req *Request, send func(*Response) error) error
}

func (h HandlerFuncs) Execute(ctx context.Context, req *Request) (*Response, error) {
	return h.ExecuteFunc(ctx, req)
}

func (h HandlerFuncs) Subscribe(ctx context.Context, req *Request, send func(*Response) error) error {
	if h.SubscribeFunc != nil {
		return h.SubscribeFunc(ctx, req, send)
	}
	resp, err := h.ExecuteFunc(ctx, req)
	if err != nil {
		return err
	}
	return send(resp)
}
