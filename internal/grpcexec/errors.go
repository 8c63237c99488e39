package grpcexec

import "errors"

var (
	// ErrNoEndpoints indicates the provider returned no endpoints.
	ErrNoEndpoints = errors.New("grpcexec: no endpoints available")
	// ErrClosed indicates the executor has been closed.
	ErrClosed = errors.New("grpcexec: closed")
)
