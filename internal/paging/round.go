package paging

import (
	forest "github.com/hanpama/graphpage/internal/forest"
)

// CursorRound is an immutable snapshot of pagination progress. Each round of
// a session derives a brand-new value from the previous one; two sessions
// never share a round.
//
// cursors holds the continuation tokens returned by the latest successful
// round. lastCursors holds the tokens of the round before that: when an
// ancestor of a leaf must be replayed, its current cursor already reflects a
// page it has moved past, so the replay uses the one-round-lagged token.
type CursorRound struct {
	isNew       bool
	cursors     map[forest.ID]string
	lastCursors map[forest.ID]string
	excluded    map[forest.ID]struct{}
}

// newRound returns the initial round of a session. excluded lists the ids
// permanently exempt from cursor advancement.
func newRound(excluded map[forest.ID]struct{}) CursorRound {
	return CursorRound{isNew: true, excluded: excluded}
}

// Finished reports whether pagination is exhausted: the round is past its
// first submission and no cursor remains outstanding.
func (r CursorRound) Finished() bool {
	return !r.isNew && len(r.cursors) == 0
}

// next folds one successful executor response into the following round. The
// returned cursors become current, the current ones are demoted to
// lastCursors, and the exclusion set carries over unchanged.
func (r CursorRound) next(returned map[forest.ID]string) CursorRound {
	return CursorRound{
		isNew:       false,
		cursors:     returned,
		lastCursors: r.cursors,
		excluded:    r.excluded,
	}
}

func (r CursorRound) cursor(id forest.ID) (string, bool) {
	c, ok := r.cursors[id]
	return c, ok
}

func (r CursorRound) lastCursor(id forest.ID) (string, bool) {
	c, ok := r.lastCursors[id]
	return c, ok
}

func (r CursorRound) isExcluded(id forest.ID) bool {
	_, ok := r.excluded[id]
	return ok
}
