package grpctp

import (
	"context"
	"slices"
	"sync"
)

// EndpointProvider lists the reachable endpoints (host:port) serving a gRPC
// service, ServiceName for this transport. Implementations must be safe for
// concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context, service string) ([]string, error)
}

// StaticEndpoints is an in-memory provider keyed by service name.
type StaticEndpoints struct {
	mu   sync.RWMutex
	data map[string][]string
}

func NewStaticEndpoints(m map[string][]string) *StaticEndpoints {
	s := &StaticEndpoints{data: make(map[string][]string, len(m))}
	for svc, eps := range m {
		s.data[svc] = slices.Clone(eps)
	}
	return s
}

// Single returns a provider serving ServiceName from one endpoint.
func Single(endpoint string) *StaticEndpoints {
	return NewStaticEndpoints(map[string][]string{ServiceName: {endpoint}})
}

// Set replaces the endpoints of service.
func (s *StaticEndpoints) Set(service string, endpoints ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[service] = slices.Clone(endpoints)
}

func (s *StaticEndpoints) Endpoints(_ context.Context, service string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	eps := s.data[service]
	if len(eps) == 0 {
		return nil, ErrNoEndpoints
	}
	return slices.Clone(eps), nil
}
