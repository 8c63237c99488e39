package paging

import (
	forest "github.com/hanpama/graphpage/internal/forest"
)

// plan is the outcome of leaf selection for one round: the pagination leaves
// whose cursors advance next, and every sub-query that must accompany them,
// in declaration order.
type plan struct {
	leaves  []forest.ID
	entries []planEntry
}

type planEntry struct {
	id        forest.ID
	cursor    string
	hasCursor bool
}

// selectLeaves computes the minimal next request for round r.
//
// A node is a leaf when it still holds a cursor, is not excluded, and none of
// its descendants qualifies first: an unfinished descendant always takes
// priority, because advancing a node invalidates everything built on top of
// its current page. The walk is depth-first per root, children in declaration
// order; independent branches may each contribute a leaf in the same round.
//
// The composed request contains, for each leaf:
//   - the leaf itself, with its current cursor;
//   - every descendant of the leaf, with no cursor, since its result set must
//     be rebuilt against the leaf's newly advanced page;
//   - every ancestor of the leaf, with the cursor it held in the round before
//     the previous one (or none if not remembered), so the page the leaf was
//     produced under is replayed unchanged. Excluded ancestors are always
//     replayed cursor-less: no round ever carries a cursor for an exempt
//     sub-query.
//
// An empty leaf set means every outstanding cursor belongs to an excluded
// sub-query; that is the normal terminal condition, not an error.
func selectLeaves(f *forest.Forest, r CursorRound) plan {
	var leaves []forest.ID

	var walk func(id forest.ID) bool
	walk = func(id forest.ID) bool {
		handled := false
		for _, c := range f.Children(id) {
			if walk(c) {
				handled = true
			}
		}
		if handled {
			return true
		}
		if r.isExcluded(id) {
			return false
		}
		if _, ok := r.cursor(id); !ok {
			return false
		}
		leaves = append(leaves, id)
		return true
	}
	for _, root := range f.Roots() {
		walk(root)
	}
	if len(leaves) == 0 {
		return plan{}
	}

	// A node has exactly one role: the handled propagation guarantees no leaf
	// is an ancestor of another, so the three sets below never overlap.
	include := make(map[forest.ID]planEntry, f.Len())
	for _, leaf := range leaves {
		cur, _ := r.cursor(leaf)
		include[leaf] = planEntry{id: leaf, cursor: cur, hasCursor: true}
		for _, d := range f.Descendants(leaf) {
			include[d] = planEntry{id: d}
		}
		for _, a := range f.Ancestors(leaf) {
			e := planEntry{id: a}
			if lc, ok := r.lastCursor(a); ok && !r.isExcluded(a) {
				e.cursor, e.hasCursor = lc, true
			}
			include[a] = e
		}
	}

	p := plan{leaves: leaves}
	for _, id := range f.IDs() {
		if e, ok := include[id]; ok {
			p.entries = append(p.entries, e)
		}
	}
	return p
}
