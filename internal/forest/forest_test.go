package forest

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBuildLinksParentsAndChildren(t *testing.T) {
	f, err := Build([]Decl{
		{ID: "a"},
		{ID: "b", From: "a"},
		{ID: "c", From: "b"},
		{ID: "d", From: "a"},
		{ID: "e"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	if diff := cmp.Diff([]ID{"a", "e"}, f.Roots()); diff != "" {
		t.Fatalf("Roots mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ID{"b", "d"}, f.Children("a")); diff != "" {
		t.Fatalf("Children(a) mismatch (-want +got):\n%s", diff)
	}
	if p, ok := f.Parent("c"); !ok || p != "b" {
		t.Fatalf("Parent(c) = %q, %v", p, ok)
	}
	if _, ok := f.Parent("a"); ok {
		t.Fatal("root must have no parent")
	}
}

func TestBuildBackPatchesForwardReferences(t *testing.T) {
	// Declaration order need not respect dependency order: c is declared
	// before its parent exists.
	f, err := Build([]Decl{
		{ID: "c", From: "b"},
		{ID: "b", From: "a"},
		{ID: "a"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]ID{"a"}, f.Roots()); diff != "" {
		t.Fatalf("Roots mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]ID{"b", "c"}, f.Descendants("a")); diff != "" {
		t.Fatalf("Descendants(a) mismatch (-want +got):\n%s", diff)
	}
	// Declaration order is preserved independently of the tree structure.
	if diff := cmp.Diff([]ID{"c", "b", "a"}, f.IDs()); diff != "" {
		t.Fatalf("IDs mismatch (-want +got):\n%s", diff)
	}
}

func TestBuildDanglingReference(t *testing.T) {
	_, err := Build([]Decl{
		{ID: "a"},
		{ID: "b", From: "missing"},
	})
	var shapeErr ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if len(shapeErr) != 1 || shapeErr[0].ID != "b" {
		t.Fatalf("unexpected violations: %v", shapeErr)
	}
}

func TestBuildCycle(t *testing.T) {
	_, err := Build([]Decl{
		{ID: "a", From: "c"},
		{ID: "b", From: "a"},
		{ID: "c", From: "b"},
	})
	var shapeErr ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
	if len(shapeErr) != 3 {
		t.Fatalf("expected all cycle members reported, got %v", shapeErr)
	}
}

func TestBuildSelfReference(t *testing.T) {
	_, err := Build([]Decl{{ID: "a", From: "a"}})
	var shapeErr ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
}

func TestBuildDuplicateID(t *testing.T) {
	_, err := Build([]Decl{{ID: "a"}, {ID: "a"}})
	var shapeErr ShapeError
	if !errors.As(err, &shapeErr) {
		t.Fatalf("expected ShapeError, got %v", err)
	}
}

func TestAncestorsNearestFirst(t *testing.T) {
	f, err := Build([]Decl{
		{ID: "a"},
		{ID: "b", From: "a"},
		{ID: "c", From: "b"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if diff := cmp.Diff([]ID{"b", "a"}, f.Ancestors("c")); diff != "" {
		t.Fatalf("Ancestors(c) mismatch (-want +got):\n%s", diff)
	}
	if got := f.Ancestors("a"); got != nil {
		t.Fatalf("Ancestors(a) = %v, want none", got)
	}
}

func TestWalkPreorder(t *testing.T) {
	f, err := Build([]Decl{
		{ID: "a"},
		{ID: "b", From: "a"},
		{ID: "c", From: "b"},
		{ID: "d"},
	})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	type visit struct {
		ID    ID
		Depth int
	}
	var got []visit
	f.Walk(func(id ID, depth int) { got = append(got, visit{id, depth}) })
	want := []visit{{"a", 0}, {"b", 1}, {"c", 2}, {"d", 0}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Walk mismatch (-want +got):\n%s", diff)
	}
}
