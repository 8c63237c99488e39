// Package language parses query-shape documents.
//
// A shape is authored as a GraphQL query document. Every top-level field of
// the (single) operation declares one sub-query; the field's alias, or its
// name when unaliased, is the sub-query id. A @from directive chains the
// sub-query to the result set of another one:
//
//	{
//	  tables: table(db: "sales") { name }
//	  columns: column @from(query: "tables") { name type }
//	}
//
// The field body below the directive is treated as opaque: it is rendered
// back to text and handed to the remote executor unchanged. The engine never
// interprets it.
package language

import (
	"fmt"
	"strings"

	forest "github.com/hanpama/graphpage/internal/forest"
	paging "github.com/hanpama/graphpage/internal/paging"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"
)

const fromDirective = "from"

// ParseShape parses a shape document into the session input, preserving
// document order.
func ParseShape(source string) (paging.Shape, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: source})
	if err != nil {
		return nil, err
	}
	if len(doc.Operations) != 1 {
		return nil, fmt.Errorf("language: shape document must hold exactly one operation, got %d", len(doc.Operations))
	}
	op := doc.Operations[0]
	if op.Operation != ast.Query {
		return nil, fmt.Errorf("language: shape operation must be a query, got %s", op.Operation)
	}

	var shape paging.Shape
	for _, sel := range op.SelectionSet {
		field, ok := sel.(*ast.Field)
		if !ok {
			return nil, fmt.Errorf("language: only fields may appear at the top level of a shape")
		}
		sq := paging.SubQuery{ID: forest.ID(field.Alias)}
		for _, d := range field.Directives {
			if d.Name != fromDirective {
				return nil, fmt.Errorf("language: unknown directive @%s on %q (line %d)", d.Name, field.Alias, line(d.Position))
			}
			arg := d.Arguments.ForName("query")
			if arg == nil || arg.Value.Kind != ast.StringValue {
				return nil, fmt.Errorf("language: @from on %q needs a string argument %q (line %d)", field.Alias, "query", line(d.Position))
			}
			sq.From = forest.ID(arg.Value.Raw)
		}
		var b strings.Builder
		if err := renderField(&b, field, true); err != nil {
			return nil, err
		}
		sq.Definition = b.String()
		shape = append(shape, sq)
	}
	if len(shape) == 0 {
		return nil, fmt.Errorf("language: shape document declares no sub-queries")
	}
	return shape, nil
}

func line(p *ast.Position) int {
	if p == nil {
		return 0
	}
	return p.Line
}

// renderField prints a field back to text in canonical order: alias, name,
// arguments, directives, selection set. At the top level the alias (it is
// the sub-query id) and the @from directive are stripped, everything below
// round-trips verbatim.
func renderField(b *strings.Builder, f *ast.Field, topLevel bool) error {
	if !topLevel && f.Alias != f.Name {
		b.WriteString(f.Alias)
		b.WriteString(": ")
	}
	b.WriteString(f.Name)
	if len(f.Arguments) > 0 {
		b.WriteString("(")
		for i, a := range f.Arguments {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(a.Name)
			b.WriteString(": ")
			b.WriteString(a.Value.String())
		}
		b.WriteString(")")
	}
	if !topLevel {
		for _, d := range f.Directives {
			b.WriteString(" @")
			b.WriteString(d.Name)
			if len(d.Arguments) > 0 {
				b.WriteString("(")
				for i, a := range d.Arguments {
					if i > 0 {
						b.WriteString(", ")
					}
					b.WriteString(a.Name)
					b.WriteString(": ")
					b.WriteString(a.Value.String())
				}
				b.WriteString(")")
			}
		}
	}
	if len(f.SelectionSet) > 0 {
		b.WriteString(" { ")
		for _, sel := range f.SelectionSet {
			sub, ok := sel.(*ast.Field)
			if !ok {
				return fmt.Errorf("language: fragments are not supported in sub-query bodies")
			}
			if err := renderField(b, sub, false); err != nil {
				return err
			}
			b.WriteString(" ")
		}
		b.WriteString("}")
	}
	return nil
}
