package grpcexec

import (
	"context"
	"sync"
)

// EndpointProvider lists reachable endpoints (host:port) for the executor
// service. Implementations may integrate with service discovery; they must
// return at least one endpoint or an error and be safe for concurrent use.
type EndpointProvider interface {
	Endpoints(ctx context.Context) ([]string, error)
}

// StaticEndpoints is a provider backed by a fixed endpoint list.
type StaticEndpoints struct {
	mu  sync.RWMutex
	eps []string
}

func NewStaticEndpoints(endpoints ...string) *StaticEndpoints {
	cp := make([]string, len(endpoints))
	copy(cp, endpoints)
	return &StaticEndpoints{eps: cp}
}

func (s *StaticEndpoints) Endpoints(ctx context.Context) ([]string, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.eps) == 0 {
		return nil, ErrNoEndpoints
	}
	out := make([]string, len(s.eps))
	copy(out, s.eps)
	return out, nil
}
