package reqid

import (
	"context"
	"math/rand/v2"
)

// key is the context key for the correlation ID.
type key struct{}

// New returns a fresh random correlation ID. A pagination session keeps one
// ID for its whole lifetime so its rounds can be tied together.
func New() int64 { return rand.Int64() }

// WithID returns a copy of parent carrying id.
func WithID(parent context.Context, id int64) context.Context {
	return context.WithValue(parent, key{}, id)
}

// NewContext returns a copy of parent with a new random ID stored, and the
// generated ID.
func NewContext(parent context.Context) (context.Context, int64) {
	id := New()
	return WithID(parent, id), id
}

// FromContext extracts the correlation ID from ctx.
// It returns the ID and whether it was present.
func FromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(key{}).(int64)
	return id, ok
}
