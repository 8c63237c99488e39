package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func captureOutput(t *testing.T, fn func() error) (stdout, stderr string, err error) {
	t.Helper()
	oldOut, oldErr := os.Stdout, os.Stderr
	defer func() {
		os.Stdout, os.Stderr = oldOut, oldErr
	}()

	outR, outW, _ := os.Pipe()
	errR, errW, _ := os.Pipe()
	os.Stdout, os.Stderr = outW, errW

	doneOut := make(chan struct{})
	var bufOut bytes.Buffer
	go func() { io.Copy(&bufOut, outR); close(doneOut) }()

	doneErr := make(chan struct{})
	var bufErr bytes.Buffer
	go func() { io.Copy(&bufErr, errR); close(doneErr) }()

	err = fn()
	outW.Close()
	errW.Close()
	<-doneOut
	<-doneErr
	stdout, stderr = bufOut.String(), bufErr.String()
	return
}

func writeShape(t *testing.T, source string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "shape.graphql")
	require.NoError(t, os.WriteFile(path, []byte(source), 0o644))
	return path
}

func TestHelp(t *testing.T) {
	out, _, err := captureOutput(t, func() error {
		return run([]string{"help", "paginate"})
	})
	require.NoError(t, err)
	require.Contains(t, out, "paginate FLAGS")
}

func TestUnknownCommand(t *testing.T) {
	_, errOut, err := captureOutput(t, func() error {
		return run([]string{"frobnicate"})
	})
	require.Error(t, err)
	require.Contains(t, errOut, "COMMANDS:")
}

func TestCheckShape(t *testing.T) {
	shape := writeShape(t, `{
	  tables: table(db: "sales") { name }
	  columns: column @from(query: "tables") { name type }
	}`)
	out, _, err := captureOutput(t, func() error {
		return run([]string{"check-shape", "-shape", shape})
	})
	require.NoError(t, err)
	require.Equal(t, "tables\n  columns\n", out)
}

func TestCheckShapeRejectsDanglingReference(t *testing.T) {
	shape := writeShape(t, `{ columns: column @from(query: "tables") { name } }`)
	_, _, err := captureOutput(t, func() error {
		return run([]string{"check-shape", "-shape", shape})
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "tables")
}

func TestExportProto(t *testing.T) {
	out := filepath.Join(t.TempDir(), "executor.proto")
	require.NoError(t, run([]string{"export-proto", "-out", out}))
	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Contains(t, string(raw), "service Executor")
}

func TestPaginateOverHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			SubQueries []struct {
				ID string `json:"id"`
			} `json:"subQueries"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		type result struct {
			ID    string `json:"id"`
			Items []any  `json:"items"`
		}
		var results []result
		for _, sq := range req.SubQueries {
			results = append(results, result{ID: sq.ID, Items: []any{map[string]any{"q": sq.ID}}})
		}
		require.NoError(t, json.NewEncoder(w).Encode(map[string]any{"results": results}))
	}))
	defer srv.Close()

	shape := writeShape(t, `{
	  tables: table { name }
	  columns: column @from(query: "tables") { name }
	}`)
	out := filepath.Join(t.TempDir(), "items.ndjson")
	require.NoError(t, run([]string{
		"paginate",
		"-shape", shape,
		"-transport", "http",
		"-transport.endpoint", srv.URL,
		"-out", out,
	}))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 2)

	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.Equal(t, "tables", first["query"])
	require.Equal(t, float64(1), first["round"])
}
