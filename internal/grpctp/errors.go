package grpctp

import "errors"

var (
	// ErrNoEndpoints indicates the provider returned no endpoints.
	ErrNoEndpoints = errors.New("grpctp: no endpoints available")
	// ErrNoProvider is returned by calls on a transport built without a provider.
	ErrNoProvider = errors.New("grpctp: provider not configured")
	// ErrClosed is returned by calls on a closed transport.
	ErrClosed = errors.New("grpctp: closed")
)
