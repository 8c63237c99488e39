package forest

// ID names one sub-query within a composite query. IDs are opaque and unique
// per shape.
type ID string

// Decl declares one sub-query and, optionally, the sub-query whose result set
// it continues from. Declarations are supplied in document order; that order
// fixes child ordering and therefore every later tie-break.
type Decl struct {
	ID   ID
	From ID
}

type node struct {
	id       ID
	parent   ID
	children []ID
}

// Forest is the resolved dependency forest of a query shape. It is built once
// per shape and never mutated afterwards, so it may be shared freely across
// pagination sessions.
type Forest struct {
	nodes map[ID]*node
	roots []ID
	order []ID
}

// Build resolves a flat list of declarations into a forest. Declarations may
// reference sub-queries that appear later in the input: a placeholder node is
// created and back-patched once the declaration arrives.
//
// Build fails with a ShapeError when an id is declared twice, a "from"
// reference names an undeclared sub-query, or the parent relation contains a
// cycle.
func Build(decls []Decl) (*Forest, error) {
	f := &Forest{nodes: make(map[ID]*node, len(decls))}
	declared := make(map[ID]bool, len(decls))
	var errs ShapeError

	get := func(id ID) *node {
		n := f.nodes[id]
		if n == nil {
			n = &node{id: id}
			f.nodes[id] = n
		}
		return n
	}

	for _, d := range decls {
		if d.ID == "" {
			errs = append(errs, violation("", "sub-query with empty id"))
			continue
		}
		if declared[d.ID] {
			errs = append(errs, violation(d.ID, "sub-query declared twice"))
			continue
		}
		declared[d.ID] = true
		f.order = append(f.order, d.ID)

		n := get(d.ID)
		n.parent = d.From
		if d.From != "" {
			get(d.From).children = append(get(d.From).children, d.ID)
		}
	}

	// Every referenced id must eventually have been declared.
	for _, id := range f.order {
		n := f.nodes[id]
		if n.parent != "" && !declared[n.parent] {
			errs = append(errs, violation(id, "continues from undeclared sub-query %q", n.parent))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}

	for _, id := range f.order {
		if f.nodes[id].parent == "" {
			f.roots = append(f.roots, id)
		}
	}

	// With duplicates and dangling references ruled out, any node unreachable
	// from a root sits on (or below) a parent cycle.
	reachable := make(map[ID]bool, len(f.order))
	var mark func(id ID)
	mark = func(id ID) {
		if reachable[id] {
			return
		}
		reachable[id] = true
		for _, c := range f.nodes[id].children {
			mark(c)
		}
	}
	for _, r := range f.roots {
		mark(r)
	}
	for _, id := range f.order {
		if !reachable[id] {
			errs = append(errs, violation(id, "part of a dependency cycle"))
		}
	}
	if len(errs) > 0 {
		return nil, errs
	}
	return f, nil
}

// Len returns the number of sub-queries in the forest.
func (f *Forest) Len() int { return len(f.order) }

// Has reports whether id is part of the forest.
func (f *Forest) Has(id ID) bool { _, ok := f.nodes[id]; return ok }

// IDs returns every sub-query id in declaration order.
func (f *Forest) IDs() []ID {
	out := make([]ID, len(f.order))
	copy(out, f.order)
	return out
}

// Roots returns the root ids in declaration order.
func (f *Forest) Roots() []ID {
	out := make([]ID, len(f.roots))
	copy(out, f.roots)
	return out
}

// Parent returns the parent of id, if any.
func (f *Forest) Parent(id ID) (ID, bool) {
	n := f.nodes[id]
	if n == nil || n.parent == "" {
		return "", false
	}
	return n.parent, true
}

// Children returns the children of id in first-seen declaration order.
func (f *Forest) Children(id ID) []ID {
	n := f.nodes[id]
	if n == nil {
		return nil
	}
	out := make([]ID, len(n.children))
	copy(out, n.children)
	return out
}

// Ancestors returns the chain of ancestors of id, nearest first.
func (f *Forest) Ancestors(id ID) []ID {
	var out []ID
	n := f.nodes[id]
	for n != nil && n.parent != "" {
		out = append(out, n.parent)
		n = f.nodes[n.parent]
	}
	return out
}

// Descendants returns every node below id in preorder, children in
// declaration order. The id itself is not included.
func (f *Forest) Descendants(id ID) []ID {
	n := f.nodes[id]
	if n == nil {
		return nil
	}
	var out []ID
	var visit func(id ID)
	visit = func(id ID) {
		out = append(out, id)
		for _, c := range f.nodes[id].children {
			visit(c)
		}
	}
	for _, c := range n.children {
		visit(c)
	}
	return out
}

// Walk visits every node in preorder, roots and children in declaration
// order, reporting the depth below the root.
func (f *Forest) Walk(fn func(id ID, depth int)) {
	var visit func(id ID, depth int)
	visit = func(id ID, depth int) {
		fn(id, depth)
		for _, c := range f.nodes[id].children {
			visit(c, depth+1)
		}
	}
	for _, r := range f.roots {
		visit(r, 0)
	}
}
