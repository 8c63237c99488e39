package paging

import (
	"context"

	forest "github.com/hanpama/graphpage/internal/forest"
)

// Executor is the remote query executor consumed by a Session.
//
// General contract
//   - Execute evaluates every sub-query in the request against the backing
//     store and returns, per sub-query, one page of items plus a continuation
//     cursor when more items remain. A sub-query with no entry in
//     RoundResult.Cursors is exhausted.
//   - An entry without a cursor asks for the sub-query's first page; an entry
//     with a cursor resumes from the page that cursor denotes. Cursor tokens
//     are opaque to the engine and must only be interpreted by the executor
//     that issued them.
//   - Errors are returned verbatim. The engine commits no state on failure,
//     so a retried call receives the identical request.
//   - Implementations must respect ctx for cancellation and own any timeout
//     policy; the engine applies none of its own.
type Executor interface {
	Execute(ctx context.Context, req Request) (*RoundResult, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, req Request) (*RoundResult, error)

func (f ExecutorFunc) Execute(ctx context.Context, req Request) (*RoundResult, error) {
	return f(ctx, req)
}

// Request is one round's submission to the executor.
type Request struct {
	Entries []RequestEntry
}

// RequestEntry carries one sub-query of a round. Definition is the opaque
// sub-query body; it is never interpreted by the engine. HasCursor
// distinguishes "first page" from "resume at Cursor".
type RequestEntry struct {
	ID         forest.ID
	Definition string
	Cursor     string
	HasCursor  bool
}

// RoundResult is the executor's answer for one round. An id present in
// Cursors signals that more pages remain for that sub-query.
type RoundResult struct {
	Items   map[forest.ID][]any
	Cursors map[forest.ID]string
}
