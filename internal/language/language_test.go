package language

import (
	"testing"

	forest "github.com/hanpama/graphpage/internal/forest"
	paging "github.com/hanpama/graphpage/internal/paging"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseShape(t *testing.T) {
	shape, err := ParseShape(`{
	  tables: table(db: "sales") { name }
	  columns: column @from(query: "tables") { name type }
	}`)
	require.NoError(t, err)

	want := paging.Shape{
		{ID: "tables", Definition: `table(db: "sales") { name }`},
		{ID: "columns", From: "tables", Definition: `column { name type }`},
	}
	if diff := cmp.Diff(want, shape); diff != "" {
		t.Fatalf("shape mismatch (-want +got):\n%s", diff)
	}
}

func TestParseShapeUnaliasedFieldUsesName(t *testing.T) {
	shape, err := ParseShape(`{ table { name } }`)
	require.NoError(t, err)
	require.Len(t, shape, 1)
	require.Equal(t, forest.ID("table"), shape[0].ID)
	require.Equal(t, `table { name }`, shape[0].Definition)
}

func TestParseShapeKeepsNestedSugar(t *testing.T) {
	// Below the top level everything round-trips: aliases, arguments and
	// directives belong to the remote executor, not to us.
	shape, err := ParseShape(`{
	  rows: row {
	    n: name @upper(locale: "en")
	    cells(limit: 3) { value }
	  }
	}`)
	require.NoError(t, err)
	require.Len(t, shape, 1)
	require.Equal(t,
		`row { n: name @upper(locale: "en") cells(limit: 3) { value } }`,
		shape[0].Definition)
}

func TestParseShapeErrors(t *testing.T) {
	for name, source := range map[string]string{
		"syntax":               `{ tables: `,
		"mutation":             `mutation { tables: table { name } }`,
		"two operations":       `query a { x { y } } query b { x { y } }`,
		"empty":                `{ }`,
		"unknown directive":    `{ t: table @defer { name } }`,
		"from without query":   `{ a: x { y } b: x @from { y } }`,
		"from non-string":      `{ a: x { y } b: x @from(query: 3) { y } }`,
		"top-level fragment":   `{ ...f } fragment f on Query { x { y } }`,
		"fragment in body":     `{ t: table { ...f } } fragment f on Table { name }`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseShape(source)
			require.Error(t, err)
		})
	}
}
