package paging

import (
	forest "github.com/hanpama/graphpage/internal/forest"
)

// SubQuery declares one named component of a composite query. From names the
// sub-query whose result set this one continues from; empty means root.
type SubQuery struct {
	ID         forest.ID
	From       forest.ID
	Definition string
}

// Shape is the one-time input of a session: the full set of sub-queries in
// document order. The order is significant, it fixes the forest's child
// ordering and the entry order of every request.
type Shape []SubQuery

func (s Shape) decls() []forest.Decl {
	out := make([]forest.Decl, len(s))
	for i, sq := range s {
		out[i] = forest.Decl{ID: sq.ID, From: sq.From}
	}
	return out
}

func (s Shape) definitions() map[forest.ID]string {
	out := make(map[forest.ID]string, len(s))
	for _, sq := range s {
		out[sq.ID] = sq.Definition
	}
	return out
}
