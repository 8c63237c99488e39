// Package paging implements hierarchical cursor pagination for composite
// graph queries.
//
// A composite query bundles several named sub-queries. A sub-query may
// declare that it continues "from" another sub-query's result set, which
// makes the shape a dependency forest: advancing a sub-query's page changes
// which parent rows are in view, so everything depending on it must be
// recomputed from the start of its own pagination, while everything it
// depends on must be reproduced exactly as it was when the now-superseded
// page was produced.
//
// # Rounds
//
// A Session drives one request/response cycle at a time against an Executor.
// Progress lives in a CursorRound, an immutable snapshot replaced after each
// successful round:
//
//   - cursors: continuation tokens from the latest round
//   - lastCursors: tokens from the round before that
//   - excluded: ids never advanced (WithNeverPaginate)
//
// The first round submits the whole shape unmodified. Every later round runs
// leaf selection (see selector.go): a depth-first, bottom-up walk picks at
// most one unfinished node per branch, then composes the minimal request of
// leaves (current cursor), their descendants (no cursor, rebuilt fresh) and
// their ancestors (one-round-lagged cursor, replayed unchanged). Pagination
// is exhausted once a round past the first leaves no cursor outstanding; a
// round whose leaves are all excluded finishes vacuously without any
// executor contact.
//
// # Failure model
//
// No partial round is ever committed. Executor errors propagate verbatim and
// leave the session at its last completed round, so a retried NextPage
// resubmits the identical request. Cancellation works the same way through
// the context passed to NextPage. Calling NextPage on a finished session
// fails fast with ErrSessionFinished.
//
// The Executor contract, including cursor opacity and timeout ownership, is
// documented on the Executor interface in executor.go.
package paging
